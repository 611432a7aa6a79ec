// Package domain contains the append-only credit ledger.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// GenerationCost is debited for every submitted job, regardless of outcome.
const GenerationCost = 5

// TransactionType classifies a signed credit delta.
type TransactionType string

const (
	TransactionTypeWelcomeGrant    TransactionType = "welcome_grant"
	TransactionTypeGenerationDebit TransactionType = "generation_debit"
	TransactionTypePlanCredit      TransactionType = "plan_credit"
	TransactionTypePlanDebit       TransactionType = "plan_debit"
)

// CreditTransaction is one immutable ledger row. The balance fields on the
// user row are updated in the same database transaction that inserts it.
type CreditTransaction struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	UserID      snowflake.ID    `gorm:"not null;index"`
	Amount      int             `gorm:"not null"`
	Type        TransactionType `gorm:"type:text;not null"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CreditTransaction) TableName() string { return "credit_transactions" }

type ApplyRequest struct {
	UserID      snowflake.ID
	Amount      int
	Type        TransactionType
	Description string
}

type Balance struct {
	Credits    int `json:"credits"`
	MaxCredits int `json:"max_credits"`
}

type Service interface {
	// Apply records the delta and moves the balance atomically. Plan
	// deltas move both credits and maxCredits; other types move credits
	// only. No floor is enforced, the balance can go negative.
	Apply(ctx context.Context, req ApplyRequest) (Balance, error)
	// ApplyTx is Apply inside a caller-owned transaction, for writes
	// that must commit together with other rows.
	ApplyTx(ctx context.Context, tx *gorm.DB, req ApplyRequest) (Balance, error)
	Balance(ctx context.Context, userID snowflake.ID) (Balance, error)
	History(ctx context.Context, userID snowflake.ID) ([]CreditTransaction, error)
}

var (
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidType   = errors.New("invalid_transaction_type")
)
