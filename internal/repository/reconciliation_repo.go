package repository

import (
	"bank-reconciliation-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) DB() *gorm.DB {
	return r.db
}

func (r *ReconciliationRepository) GetForOrganization(orgID, id uuid.UUID) (*models.ReconciliationRecord, error) {
	var record models.ReconciliationRecord
	err := r.db.First(&record, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
