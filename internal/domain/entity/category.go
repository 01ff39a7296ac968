package entity

import "time"

// Category agrupa productos (antibióticos, analgésicos...).
type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
