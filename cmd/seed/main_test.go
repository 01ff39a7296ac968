package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Farmacia-api/internal/application/catalog"
	"github.com/jhoicas/Farmacia-api/internal/application/document"
	"github.com/jhoicas/Farmacia-api/internal/application/dto"
	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
)

func latin1Catalog() []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="ISO-8859-1"?>` + "\n")
	b.WriteString(`<catalogo>`)
	b.WriteString(`<categoria nombre="Analg`)
	b.WriteByte(0xE9) // é
	b.WriteString(`sicos">`)
	b.WriteString(`<producto nombre="Acetaminof`)
	b.WriteByte(0xE9)
	b.WriteString(`n 500 mg" forma="tabletas" fabricante="Genfar" unidad="caja" minimo="10"/>`)
	b.WriteString(`</categoria>`)
	b.WriteString(`<proveedor nombre="Drogas La Econom`)
	b.WriteByte(0xED) // í
	b.WriteString(`a" nit="800111222-3"/>`)
	b.WriteString(`<producto nombre="Gasas est`)
	b.WriteByte(0xE9)
	b.WriteString(`riles"/>`)
	b.WriteString(`</catalogo>`)
	return b.Bytes()
}

func TestParseCatalog_Latin1(t *testing.T) {
	cat, err := parseCatalog(bytes.NewReader(latin1Catalog()))
	require.NoError(t, err)

	require.Len(t, cat.Categories, 1)
	assert.Equal(t, "Analgésicos", cat.Categories[0].Name)
	require.Len(t, cat.Categories[0].Products, 1)
	assert.Equal(t, "Acetaminofén 500 mg", cat.Categories[0].Products[0].Name)
	assert.Equal(t, 10, cat.Categories[0].Products[0].MinRemainder)

	require.Len(t, cat.Suppliers, 1)
	assert.Equal(t, "Drogas La Economía", cat.Suppliers[0].Name)
	require.Len(t, cat.Products, 1)
	assert.Equal(t, "unidad", cat.Products[0].request("").UnitOfMeasure)
}

func TestLoad_SkipsExisting(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	l := ledger.New(ledger.Config{})
	engine := document.NewEngine(store, l, nil, nil, document.Options{})
	svc := catalog.NewService(store, l, engine, nil, nil)

	cat, err := parseCatalog(bytes.NewReader(latin1Catalog()))
	require.NoError(t, err)

	first, err := load(ctx, svc, cat)
	require.NoError(t, err)
	assert.Equal(t, result{categories: 1, suppliers: 1, products: 2}, first)

	second, err := load(ctx, svc, cat)
	require.NoError(t, err)
	assert.Equal(t, result{skipped: 4}, second)

	list, err := svc.ListProducts(ctx, dto.ProductFilterRequest{PageRequest: dto.PageRequest{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	var withCategory int
	for _, p := range list.Items {
		if p.CategoryID != "" {
			assert.Equal(t, categories[0].ID, p.CategoryID)
			withCategory++
		}
	}
	assert.Equal(t, 1, withCategory)
}
