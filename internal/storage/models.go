package storage

import (
	"time"
)

// User is one chat account and its credit balance.
type User struct {
	UserID          int64 `gorm:"primaryKey;autoIncrement:false"`
	Username        string
	FullName        string
	Balance         int64
	TermsAcceptedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Generation is an append-only record of one charged generation.
type Generation struct {
	ID         int64 `gorm:"primaryKey"`
	UserID     int64
	Prompt     string
	PromptHash string
	Category   string
	CreatedAt  time.Time
}

// Stats aggregates ledger totals for administrators.
type Stats struct {
	Users       int64
	Generations int64
	BalanceSum  int64
}
