package main

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Farmacia-api/internal/application/dto"
)

type catalogXML struct {
	Categories []categoryXML `xml:"categoria"`
	Suppliers  []supplierXML `xml:"proveedor"`
	// Productos sin categoría.
	Products []productXML `xml:"producto"`
}

type categoryXML struct {
	Name        string       `xml:"nombre,attr"`
	Description string       `xml:"descripcion,attr"`
	Products    []productXML `xml:"producto"`
}

type supplierXML struct {
	Name          string `xml:"nombre,attr"`
	TaxID         string `xml:"nit,attr"`
	BankName      string `xml:"banco,attr"`
	BankAccount   string `xml:"cuenta,attr"`
	ContactPerson string `xml:"contacto,attr"`
	Phone         string `xml:"telefono,attr"`
	Email         string `xml:"email,attr"`
	Address       string `xml:"direccion,attr"`
}

type productXML struct {
	Name          string `xml:"nombre,attr"`
	ReleaseForm   string `xml:"forma,attr"`
	Manufacturer  string `xml:"fabricante,attr"`
	UnitOfMeasure string `xml:"unidad,attr"`
	MinRemainder  int    `xml:"minimo,attr"`
}

// parseCatalog decodifica el XML; los exportes viejos vienen en ISO-8859-1.
func parseCatalog(r io.Reader) (*catalogXML, error) {
	var cat catalogXML
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252", "CP1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s supplierXML) request() dto.CreateSupplierRequest {
	return dto.CreateSupplierRequest{
		Name:          strings.TrimSpace(s.Name),
		TaxID:         strings.TrimSpace(s.TaxID),
		BankName:      strings.TrimSpace(s.BankName),
		BankAccount:   strings.TrimSpace(s.BankAccount),
		ContactPerson: strings.TrimSpace(s.ContactPerson),
		Phone:         strings.TrimSpace(s.Phone),
		Email:         strings.TrimSpace(s.Email),
		Address:       strings.TrimSpace(s.Address),
	}
}

func (p productXML) request(categoryID string) dto.CreateProductRequest {
	unit := strings.TrimSpace(p.UnitOfMeasure)
	if unit == "" {
		unit = "unidad"
	}
	min := p.MinRemainder
	if min < 0 {
		min = 0
	}
	return dto.CreateProductRequest{
		Name:          strings.TrimSpace(p.Name),
		CategoryID:    categoryID,
		ReleaseForm:   strings.TrimSpace(p.ReleaseForm),
		Manufacturer:  strings.TrimSpace(p.Manufacturer),
		UnitOfMeasure: unit,
		MinRemainder:  min,
	}
}

func catalogKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
