package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Match actions recorded in the audit log.
const (
	ActionAutoMatch   = "auto_match"
	ActionManualMatch = "manual_match"
)

// MatchAuditLog records every accepted pairing, automated or manual, with
// the score breakdown that justified it.
type MatchAuditLog struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID      uuid.UUID      `gorm:"type:uuid;index" json:"organization_id"`
	ReconciliationID    uuid.UUID      `gorm:"type:uuid;index" json:"reconciliation_id"`
	BankTransactionID   uuid.UUID      `gorm:"type:uuid;index" json:"bank_transaction_id"`
	SystemTransactionID uuid.UUID      `gorm:"type:uuid" json:"system_transaction_id"`
	Action              string         `json:"action"`
	Score               float64        `json:"score"`
	Details             datatypes.JSON `json:"details,omitempty"`
	PerformedBy         string         `json:"performed_by"`
	CreatedAt           time.Time      `json:"created_at"`
}
