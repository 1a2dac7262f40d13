package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonDeposit         Reason = "deposit"
	ReasonWithdrawHold    Reason = "withdraw_hold"
	ReasonWithdrawRelease Reason = "withdraw_release"
	ReasonGameStake       Reason = "game_stake"
	ReasonGameReward      Reason = "game_reward"
)

// LedgerEntry is immutable. Delta is a signed integer amount in nanotons.
type LedgerEntry struct {
	ID        int64           `db:"id" json:"id"`
	Address   string          `db:"address" json:"address"`
	Delta     decimal.Decimal `db:"delta" json:"delta"`
	Reason    Reason          `db:"reason" json:"reason"`
	Reference *int64          `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`     // nanotons
	Display string `json:"balance_ton"` // decimal TON
}

// GameMovementInput is sent by the game server for stakes and rewards.
type GameMovementInput struct {
	Address   string `json:"address" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Reference int64  `json:"reference" binding:"required"`
}
