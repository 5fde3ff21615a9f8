package repository

import (
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BankTransactionRepository struct {
	db *gorm.DB
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

func (r *BankTransactionRepository) DB() *gorm.DB {
	return r.db
}

// FindUnmatchedByRecord returns the currently-unmatched bank transactions of
// a reconciliation record.
func (r *BankTransactionRepository) FindUnmatchedByRecord(recordID uuid.UUID) ([]*models.BankTransaction, error) {
	var txns []*models.BankTransaction
	err := r.db.
		Where("reconciliation_id = ? AND status = ?", recordID, models.StatusUnmatched).
		Find(&txns).Error
	return txns, err
}

// GetForOrganization fetches a single bank transaction scoped to the owning
// organization.
func (r *BankTransactionRepository) GetForOrganization(orgID, id uuid.UUID) (*models.BankTransaction, error) {
	var txn models.BankTransaction
	err := r.db.First(&txn, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
