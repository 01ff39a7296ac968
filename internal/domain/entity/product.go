package entity

import "time"

// Product representa un medicamento o artículo del catálogo de la farmacia.
// El stock no se guarda aquí: se deriva de la suma de los lotes activos (ver ledger).
type Product struct {
	ID             string
	Name           string
	CategoryID     string // vacío si no tiene categoría
	ReleaseForm    string // forma farmacéutica: tabletas, jarabe, ampollas...
	Manufacturer   string
	UnitOfMeasure  string
	MinRemainder   int // umbral de stock mínimo para alertas
	IsActive       bool
	IsSalesBlocked bool
	ArchivedAt     *time.Time
	ArchiveReason  string
	ArchiveComment string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Archive pasa el producto a archivo. Con blockSales=false queda en modo liquidación
// (el stock restante se puede seguir vendiendo); con true se bloquean las ventas.
func (p *Product) Archive(reason, comment string, blockSales bool, now time.Time) {
	p.IsActive = false
	p.IsSalesBlocked = blockSales
	p.ArchivedAt = &now
	p.ArchiveReason = reason
	p.ArchiveComment = comment
	p.UpdatedAt = now
}

// Activate reactiva el producto y limpia los metadatos de archivo.
func (p *Product) Activate(now time.Time) {
	p.IsActive = true
	p.IsSalesBlocked = false
	p.ArchivedAt = nil
	p.ArchiveReason = ""
	p.ArchiveComment = ""
	p.UpdatedAt = now
}

// IsSellOut indica archivo en modo liquidación.
func (p *Product) IsSellOut() bool {
	return !p.IsActive && !p.IsSalesBlocked
}
