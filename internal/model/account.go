package model

import "time"

// Account is a registered participant identity
type Account struct {
	Email        Identity  `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
