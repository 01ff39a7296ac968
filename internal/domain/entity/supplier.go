package entity

import "time"

// Supplier representa un proveedor (droguería, laboratorio) que entrega lotes.
type Supplier struct {
	ID            string
	Name          string
	TaxID         string
	BankName      string
	BankAccount   string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
