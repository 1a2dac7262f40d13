package models

import "time"

// Account is keyed by the user's external wallet address. Balance is never stored, see LedgerEntry.
type Account struct {
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type LoginInput struct {
	Address string `json:"address" binding:"required"`
}
