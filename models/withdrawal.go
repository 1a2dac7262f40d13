package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"    // awaiting admin
	WithdrawalProcessing WithdrawalStatus = "processing" // payout in flight
	WithdrawalPaid       WithdrawalStatus = "paid"
	WithdrawalFailed     WithdrawalStatus = "failed"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalPaid || s == WithdrawalFailed || s == WithdrawalRejected
}

func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalProcessing, WithdrawalPaid, WithdrawalFailed, WithdrawalRejected:
		return true
	}
	return false
}

type Withdrawal struct {
	ID                 int64            `db:"id" json:"id"`
	Address            string           `db:"address" json:"address"`
	DestinationAddress string           `db:"destination_address" json:"destination"`
	Amount             decimal.Decimal  `db:"amount" json:"amount"`
	Status             WithdrawalStatus `db:"status" json:"status"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
	DecidedAt          *time.Time       `db:"decided_at" json:"decided_at,omitempty"`
	Note               string           `db:"note" json:"note"`
}

type WithdrawalInput struct {
	Address     string
	Destination string
	Amount      decimal.Decimal
	Status      WithdrawalStatus
}

type WithdrawalFilter struct {
	Status        WithdrawalStatus
	Address       string
	UpdatedBefore time.Time
	Limit         int
	Offset        int
}

type CreateWithdrawalRequest struct {
	Destination string `json:"destination" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
}

type RejectWithdrawalRequest struct {
	Note string `json:"note"`
}
