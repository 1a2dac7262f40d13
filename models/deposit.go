package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositConfirmed DepositStatus = "confirmed"
)

type Deposit struct {
	ID             int64           `db:"id" json:"id"`
	Address        string          `db:"address" json:"address"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	CorrelationTag string          `db:"correlation_tag" json:"memo"`
	Status         DepositStatus   `db:"status" json:"status"`
	ExternalTxRef  *string         `db:"external_tx_reference" json:"tx_ref,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ConfirmedAt    *time.Time      `db:"confirmed_at" json:"confirmed_at,omitempty"`
}

type DepositInput struct {
	Address        string
	Amount         decimal.Decimal
	CorrelationTag string
}

type CreateDepositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type ConfirmDepositRequest struct {
	TxRef string `json:"tx_ref" binding:"required"`
}

// IncomingTransfer is an inbound on-chain transfer to the custodial wallet as reported by the indexer.
type IncomingTransfer struct {
	Hash        string
	LogicalTime uint64
	Source      string
	Amount      decimal.Decimal
	Memo        string
}

type CreditResult string

const (
	Credited        CreditResult = "credited"
	AlreadyCredited CreditResult = "already_credited"
	NoMatch         CreditResult = "no_match"
)
