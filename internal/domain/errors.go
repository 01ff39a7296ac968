package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los errores tipados de abajo envuelven estos sentinelas para que errors.Is funcione en los handlers.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrConcurrency       = errors.New("conflicto de concurrencia, reintente la operación")
)

// ValidationError entrada mal formada o fuera de rango. Se detecta antes de mutar nada.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError la cantidad pedida supera el total disponible por FEFO.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("%s para %s: solicitado %d, disponible %d", ErrInsufficientStock, name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall cantidad faltante.
func (e *InsufficientStockError) Shortfall() int { return e.Requested - e.Available }

// NotFoundError entidad referenciada inexistente.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrNotFound, e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError atajo para construir un NotFoundError.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError la operación choca con el estado actual (dependientes, documento no editable).
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", ErrConflict, e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError atajo para construir un ConflictError.
func NewConflictError(entity, id, reason string) error {
	return &ConflictError{Entity: entity, ID: id, Reason: reason}
}

// ConcurrencyError fallo transaccional (serialización, deadlock). Todo se revierte; el caller puede reintentar.
type ConcurrencyError struct {
	Op  string
	Err error
}

func (e *ConcurrencyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrConcurrency, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrConcurrency, e.Op, e.Err)
}

// Unwrap expone tanto el sentinela como la causa original.
func (e *ConcurrencyError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConcurrency}
	}
	return []error{ErrConcurrency, e.Err}
}
