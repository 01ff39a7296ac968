package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin       = "admin"
	RolePharmacist  = "pharmacist"
	RoleStorekeeper = "storekeeper"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Login        string
	PasswordHash string // bcrypt, nunca en plano
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor identifica quién ejecuta una operación. Se pasa explícitamente a cada
// llamada del motor para los campos de auditoría (createdBy, changedBy...).
type Actor struct {
	UserID string
	Name   string
	Role   string
}

// Label devuelve el nombre a registrar en auditoría.
func (a Actor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.UserID
}

// IsZero indica actor sin identificar.
func (a Actor) IsZero() bool {
	return a.UserID == "" && a.Name == ""
}
