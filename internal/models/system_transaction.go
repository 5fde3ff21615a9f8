package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// System transaction sources.
const (
	SourceExpense        = "expense"
	SourceReconciliation = "reconciliation"
)

// SystemTransaction is an internally recorded financial event considered for
// reconciliation, typically derived from an expense record or entered
// manually against a reconciliation record.
type SystemTransaction struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID           uuid.UUID       `gorm:"type:uuid;index" json:"organization_id"`
	ReconciliationID         *uuid.UUID      `gorm:"type:uuid;index" json:"reconciliation_id"`
	TransactionDate          time.Time       `gorm:"column:transaction_date;index" json:"transaction_date"`
	Description              string          `json:"description"`
	Amount                   decimal.Decimal `gorm:"type:decimal(20,2)" json:"amount"`
	Type                     string          `gorm:"index" json:"type"`
	Status                   string          `gorm:"index" json:"status"`
	Source                   string          `json:"source"`
	ExpenseID                *uuid.UUID      `gorm:"type:uuid" json:"expense_id,omitempty"`
	MatchedBankTransactionID *uuid.UUID      `gorm:"type:uuid" json:"matched_bank_transaction_id,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
}
