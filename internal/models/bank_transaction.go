package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction statuses. UNMATCHED -> MATCHED is one-way; no unmatch operation
// exists. PENDING is reserved for manual-review flows and is never set by the
// matcher.
const (
	StatusUnmatched = "UNMATCHED"
	StatusMatched   = "MATCHED"
	StatusPending   = "PENDING"
)

// Transaction types. Amounts are stored as magnitudes; the sign of the
// original statement value is folded into Type.
const (
	TypeCredit = "CREDIT"
	TypeDebit  = "DEBIT"
)

type BankTransaction struct {
	ID                         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID             uuid.UUID        `gorm:"type:uuid;index" json:"organization_id"`
	ReconciliationID           *uuid.UUID       `gorm:"type:uuid;index" json:"reconciliation_id"`
	TransactionDate            time.Time        `gorm:"column:transaction_date;index" json:"transaction_date"`
	Description                string           `json:"description"`
	Amount                     decimal.Decimal  `gorm:"type:decimal(20,2)" json:"amount"`
	Type                       string           `gorm:"index" json:"type"`
	Balance                    *decimal.Decimal `gorm:"type:decimal(20,2)" json:"balance,omitempty"`
	Reference                  string           `json:"reference,omitempty"`
	SourceFile                 string           `json:"source_file"`
	Status                     string           `gorm:"index" json:"status"`
	MatchedSystemTransactionID *uuid.UUID       `gorm:"type:uuid" json:"matched_system_transaction_id,omitempty"`
	CreatedAt                  time.Time        `json:"created_at"`
}
