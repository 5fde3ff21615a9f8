package repository

import (
	"time"

	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseRepository is the read/create boundary to the expense ledger. The
// reconciliation core reads expenses to build system transactions and writes
// one back only for manual DEBIT entries.
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) DB() *gorm.DB {
	return r.db
}

func (r *ExpenseRepository) FindExpensesInOrganization(orgID uuid.UUID) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.Where("organization_id = ?", orgID).Find(&expenses).Error
	return expenses, err
}

// FindExpensesInWindow returns the organization's expenses whose date falls
// within [start, end].
func (r *ExpenseRepository) FindExpensesInWindow(orgID uuid.UUID, start, end time.Time) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.
		Where("organization_id = ? AND expense_date >= ? AND expense_date <= ?", orgID, start, end).
		Order("expense_date ASC").
		Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) CreateExpense(orgID uuid.UUID, date time.Time, description, vendorName string, amount decimal.Decimal) (*models.Expense, error) {
	expense := &models.Expense{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ExpenseDate:    date,
		Description:    description,
		VendorName:     vendorName,
		TotalAmount:    amount,
		CreatedAt:      time.Now(),
	}
	if err := r.db.Create(expense).Error; err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense removes an expense again; used to compensate when a manual
// reconciliation entry fails after its expense was created.
func (r *ExpenseRepository) DeleteExpense(id uuid.UUID) error {
	return r.db.Delete(&models.Expense{}, "id = ?", id).Error
}
