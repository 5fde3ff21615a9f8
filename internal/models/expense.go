package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is the system-side ledger entry that system transactions are
// derived from. The reconciliation core only reads expenses, except for
// manual DEBIT entries which create one.
type Expense struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;index" json:"organization_id"`
	ExpenseDate    time.Time       `gorm:"index" json:"expense_date"`
	Description    string          `json:"description"`
	VendorName     string          `json:"vendor_name"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,2)" json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}
