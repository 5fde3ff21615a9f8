package repository

import (
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SystemTransactionRepository struct {
	db *gorm.DB
}

func NewSystemTransactionRepository(db *gorm.DB) *SystemTransactionRepository {
	return &SystemTransactionRepository{db: db}
}

func (r *SystemTransactionRepository) DB() *gorm.DB {
	return r.db
}

func (r *SystemTransactionRepository) FindUnmatchedByRecord(recordID uuid.UUID) ([]*models.SystemTransaction, error) {
	var txns []*models.SystemTransaction
	err := r.db.
		Where("reconciliation_id = ? AND status = ?", recordID, models.StatusUnmatched).
		Find(&txns).Error
	return txns, err
}

func (r *SystemTransactionRepository) GetForOrganization(orgID, id uuid.UUID) (*models.SystemTransaction, error) {
	var txn models.SystemTransaction
	err := r.db.First(&txn, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
