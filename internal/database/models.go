// Package database provides persistence for users and orders. Storage is
// trivial key-by-id; the security machinery lives elsewhere.
package database

import "time"

// User is a registered user record.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is an order placed for a user.
type Order struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	UserID      uint      `json:"userId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SeedUsers are the demo users loaded at startup when the store is empty.
func SeedUsers() []User {
	return []User{
		{Name: "Jardel", Email: "jardel@email.com"},
		{Name: "Maria", Email: "maria@email.com"},
		{Name: "Carlos", Email: "carlos@email.com"},
		{Name: "Ana", Email: "ana@email.com"},
		{Name: "Pedro", Email: "pedro@email.com"},
	}
}
