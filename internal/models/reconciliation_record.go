package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationRecord is the aggregate root for one statement upload. It
// owns the bank and system transactions created for the batch and carries
// running totals that are always recomputed by counting, never patched.
type ReconciliationRecord struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID       uuid.UUID        `gorm:"type:uuid;index" json:"organization_id"`
	SourceFile           string           `json:"source_file"`
	ReconciliationDate   time.Time        `json:"reconciliation_date"`
	StatementPeriodStart time.Time        `json:"statement_period_start"`
	StatementPeriodEnd   time.Time        `json:"statement_period_end"`
	TotalBankCredits     decimal.Decimal  `gorm:"type:decimal(20,2)" json:"total_bank_credits"`
	TotalBankDebits      decimal.Decimal  `gorm:"type:decimal(20,2)" json:"total_bank_debits"`
	TotalMatched         int              `json:"total_matched"`
	TotalUnmatched       int              `json:"total_unmatched"`
	AdjustmentsCount     int              `json:"adjustments_count"`
	ClosingBalance       *decimal.Decimal `gorm:"type:decimal(20,2)" json:"closing_balance,omitempty"`
	SystemClosingBalance *decimal.Decimal `gorm:"type:decimal(20,2)" json:"system_closing_balance,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}
