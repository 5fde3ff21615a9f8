package handler

import (
	"errors"
	"net/http"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"
	service "bank-reconciliation-backend/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReconciliationHandler struct {
	service *service.ReconciliationService
}

func NewReconciliationHandler(s *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// Upload ingests a statement file and runs the full reconciliation pipeline
// synchronously, returning the created record with its computed stats.
func (h *ReconciliationHandler) Upload(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	record, err := h.service.UploadStatement(c.Request.Context(), orgID, header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"reconciliation": record})
}

func (h *ReconciliationHandler) GetRecord(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	record, err := h.service.GetRecord(orgID, recordID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciliation": record})
}

func (h *ReconciliationHandler) ListTransactions(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	status := c.Query("status")
	cursor := c.Query("cursor")
	search := c.Query("search")
	limit := 50

	items, nextCursor, hasMore, err := h.service.ListTransactions(orgID, recordID, status, cursor, limit, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
	})
}

// ManualMatch pairs a bank transaction with a system transaction, bypassing
// scoring.
func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}
	bankID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction ID"})
		return
	}

	var payload struct {
		SystemTransactionID string `json:"system_transaction_id"`
		PerformedBy         string `json:"performed_by"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	systemID, err := uuid.Parse(payload.SystemTransactionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid system transaction ID"})
		return
	}
	performedBy := payload.PerformedBy
	if performedBy == "" {
		performedBy = "operator"
	}

	record, err := h.service.ManualMatch(orgID, bankID, systemID, performedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transactions matched", "reconciliation": record})
}

// CreateEntry records a manual system transaction against a record; DEBIT
// entries also create the corresponding expense.
func (h *ReconciliationHandler) CreateEntry(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}
	recordID, err := uuid.Parse(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	var payload struct {
		Date        string `json:"date"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected yyyy-mm-dd"})
		return
	}
	amount, err := decimal.NewFromString(payload.Amount)
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	if payload.Type != models.TypeCredit && payload.Type != models.TypeDebit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be CREDIT or DEBIT"})
		return
	}

	txn, err := h.service.CreateManualEntry(orgID, recordID, date, payload.Description, amount, payload.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

func organizationID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-Organization-ID")
	if raw == "" {
		raw = c.PostForm("organization_id")
	}
	orgID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid organization ID"})
		return uuid.Nil, false
	}
	return orgID, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnsupportedFormat),
		errors.Is(err, apperrors.ErrUnreadableFile),
		errors.Is(err, apperrors.ErrEmptyStatement):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAmountOverflow):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrRecordNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
