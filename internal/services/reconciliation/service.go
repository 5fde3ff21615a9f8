// Package reconciliation owns the reconciliation record lifecycle: batch
// creation from a parsed statement, ledger loading, automated and manual
// matching, and the recomputable aggregate statistics.
package reconciliation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/logger"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/parser"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/services/matching"
	"bank-reconciliation-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxAggregateTotal is the storage precision ceiling for batch totals:
// numeric(20,2), i.e. 18 integer digits.
var maxAggregateTotal = decimal.New(1, 18)

// ExpenseLedger is the external expense collaborator: read-only access to
// build system transactions, plus creation for manual DEBIT entries.
type ExpenseLedger interface {
	FindExpensesInWindow(orgID uuid.UUID, start, end time.Time) ([]models.Expense, error)
	CreateExpense(orgID uuid.UUID, date time.Time, description, vendorName string, amount decimal.Decimal) (*models.Expense, error)
	DeleteExpense(id uuid.UUID) error
}

type ReconciliationService struct {
	db       *gorm.DB
	records  *repository.ReconciliationRepository
	bankTxns *repository.BankTransactionRepository
	sysTxns  *repository.SystemTransactionRepository
	expenses ExpenseLedger
	files    storage.Uploader
	log      zerolog.Logger
}

func NewReconciliationService(
	records *repository.ReconciliationRepository,
	bankTxns *repository.BankTransactionRepository,
	sysTxns *repository.SystemTransactionRepository,
	expenses ExpenseLedger,
	files storage.Uploader,
) *ReconciliationService {
	return &ReconciliationService{
		db:       records.DB(),
		records:  records,
		bankTxns: bankTxns,
		sysTxns:  sysTxns,
		expenses: expenses,
		files:    files,
		log:      logger.New(),
	}
}

func (s *ReconciliationService) DB() *gorm.DB {
	return s.db
}

// UploadStatement runs the full synchronous pipeline for one statement
// upload: parse, store the original file, create the batch, pull the system
// ledger into the window, auto-match, recompute stats. Aggregate failures
// (unsupported format, empty statement, overflow) abort before anything is
// persisted.
func (s *ReconciliationService) UploadStatement(ctx context.Context, orgID uuid.UUID, filename string, file io.Reader) (*models.ReconciliationRecord, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}

	parsed, err := parser.Parse(filename, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	upload, err := s.files.Upload(ctx, filename, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("storing statement: %w", err)
	}

	record, err := s.CreateBatch(orgID, upload.FileKey, parsed)
	if err != nil {
		return nil, err
	}

	loaded, err := s.LoadLedger(record)
	if err != nil {
		return nil, err
	}

	matched, err := s.AutoMatchRecord(record)
	if err != nil {
		return nil, err
	}

	if err := s.RecomputeStats(record.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("record_id", record.ID.String()).
		Int("bank_transactions", len(parsed)).
		Int("system_transactions", loaded).
		Int("auto_matched", matched).
		Msg("statement reconciled")

	return s.GetRecord(orgID, record.ID)
}

// CreateBatch persists the reconciliation record and its bank transactions.
// Totals are partitioned by type; transactions with a negative amount are
// skipped rather than failing the batch, but a total that would exceed the
// storage precision ceiling aborts the whole batch before persistence.
func (s *ReconciliationService) CreateBatch(orgID uuid.UUID, sourceFile string, parsed []parser.ParsedTransaction) (*models.ReconciliationRecord, error) {
	if len(parsed) == 0 {
		return nil, apperrors.ErrEmptyStatement
	}

	credits := decimal.Zero
	debits := decimal.Zero
	periodStart := parsed[0].TransactionDate
	periodEnd := parsed[0].TransactionDate
	var closingBalance *decimal.Decimal

	recordID := uuid.New()
	txns := make([]models.BankTransaction, 0, len(parsed))
	for _, p := range parsed {
		if p.Amount.IsNegative() {
			s.log.Warn().Str("description", p.Description).Msg("skipping transaction with negative amount")
			continue
		}
		switch p.Type {
		case models.TypeCredit:
			credits = credits.Add(p.Amount)
		case models.TypeDebit:
			debits = debits.Add(p.Amount)
		}
		if p.TransactionDate.Before(periodStart) {
			periodStart = p.TransactionDate
		}
		if p.TransactionDate.After(periodEnd) {
			periodEnd = p.TransactionDate
		}
		if p.Balance != nil {
			closingBalance = p.Balance
		}

		txns = append(txns, models.BankTransaction{
			ID:               uuid.New(),
			OrganizationID:   orgID,
			ReconciliationID: &recordID,
			TransactionDate:  p.TransactionDate,
			Description:      p.Description,
			Amount:           p.Amount,
			Type:             p.Type,
			Balance:          p.Balance,
			Reference:        p.Reference,
			SourceFile:       sourceFile,
			Status:           models.StatusUnmatched,
			CreatedAt:        time.Now(),
		})
	}

	if credits.GreaterThanOrEqual(maxAggregateTotal) || debits.GreaterThanOrEqual(maxAggregateTotal) {
		return nil, fmt.Errorf("%w: credits %s, debits %s", apperrors.ErrAmountOverflow, credits, debits)
	}

	record := &models.ReconciliationRecord{
		ID:                   recordID,
		OrganizationID:       orgID,
		SourceFile:           sourceFile,
		ReconciliationDate:   time.Now(),
		StatementPeriodStart: periodStart,
		StatementPeriodEnd:   periodEnd,
		TotalBankCredits:     credits,
		TotalBankDebits:      debits,
		TotalMatched:         0,
		TotalUnmatched:       len(txns),
		ClosingBalance:       closingBalance,
		CreatedAt:            time.Now(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(txns, 200).Error
	})
	if err != nil {
		return nil, fmt.Errorf("persisting batch: %w", err)
	}
	return record, nil
}

// LoadLedger pulls the organization's expenses dated within the statement
// period and attaches them to the record as unmatched DEBIT system
// transactions. Bank totals are not touched.
func (s *ReconciliationService) LoadLedger(record *models.ReconciliationRecord) (int, error) {
	expenses, err := s.expenses.FindExpensesInWindow(record.OrganizationID, record.StatementPeriodStart, record.StatementPeriodEnd)
	if err != nil {
		return 0, fmt.Errorf("loading expense ledger: %w", err)
	}
	if len(expenses) == 0 {
		return 0, nil
	}

	txns := make([]models.SystemTransaction, 0, len(expenses))
	for _, e := range expenses {
		expenseID := e.ID
		description := e.Description
		if description == "" {
			description = e.VendorName
		}
		txns = append(txns, models.SystemTransaction{
			ID:               uuid.New(),
			OrganizationID:   record.OrganizationID,
			ReconciliationID: &record.ID,
			TransactionDate:  e.ExpenseDate,
			Description:      description,
			Amount:           e.TotalAmount.Round(2),
			Type:             models.TypeDebit,
			Status:           models.StatusUnmatched,
			Source:           models.SourceExpense,
			ExpenseID:        &expenseID,
			CreatedAt:        time.Now(),
		})
	}
	if err := s.db.CreateInBatches(txns, 200).Error; err != nil {
		return 0, fmt.Errorf("persisting system transactions: %w", err)
	}
	return len(txns), nil
}

// AutoMatchRecord runs the matching engine over the record's unmatched
// transactions and persists accepted pairs atomically: both sides flip to
// MATCHED, cross-references are set, and an audit row is written per pair.
func (s *ReconciliationService) AutoMatchRecord(record *models.ReconciliationRecord) (int, error) {
	bank, err := s.bankTxns.FindUnmatchedByRecord(record.ID)
	if err != nil {
		return 0, err
	}
	system, err := s.sysTxns.FindUnmatchedByRecord(record.ID)
	if err != nil {
		return 0, err
	}

	pairs := matching.AutoMatch(bank, system)
	if len(pairs) == 0 {
		return 0, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range pairs {
			if err := s.applyMatch(tx, p.Bank, p.System, models.ActionAutoMatch, "matcher", p.Score); err != nil {
				return err
			}
		}
		return recomputeStats(tx, record.ID)
	})
	if err != nil {
		return 0, fmt.Errorf("persisting matches: %w", err)
	}
	return len(pairs), nil
}

// ManualMatch flips a bank/system pair to MATCHED unconditionally, subject
// only to organization ownership, and recomputes the record's stats.
func (s *ReconciliationService) ManualMatch(orgID, bankID, systemID uuid.UUID, performedBy string) (*models.ReconciliationRecord, error) {
	bank, err := s.bankTxns.GetForOrganization(orgID, bankID)
	if err != nil {
		return nil, notFound(err, bankID)
	}
	system, err := s.sysTxns.GetForOrganization(orgID, systemID)
	if err != nil {
		return nil, notFound(err, systemID)
	}
	if bank.ReconciliationID == nil {
		return nil, fmt.Errorf("%w: bank transaction %s is not attached to a record", apperrors.ErrRecordNotFound, bankID)
	}
	recordID := *bank.ReconciliationID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if system.ReconciliationID == nil {
			system.ReconciliationID = bank.ReconciliationID
		}
		if err := s.applyMatch(tx, bank, system, models.ActionManualMatch, performedBy, 1); err != nil {
			return err
		}
		return recomputeStats(tx, recordID)
	})
	if err != nil {
		return nil, fmt.Errorf("persisting manual match: %w", err)
	}

	return s.GetRecord(orgID, recordID)
}

// applyMatch mutates both sides of an accepted pair and writes the audit row.
func (s *ReconciliationService) applyMatch(tx *gorm.DB, bank *models.BankTransaction, system *models.SystemTransaction, action, performedBy string, score float64) error {
	bank.Status = models.StatusMatched
	bank.MatchedSystemTransactionID = &system.ID
	system.Status = models.StatusMatched
	system.MatchedBankTransactionID = &bank.ID

	if err := tx.Save(bank).Error; err != nil {
		return err
	}
	if err := tx.Save(system).Error; err != nil {
		return err
	}

	details, _ := json.Marshal(map[string]interface{}{
		"bank_description":   bank.Description,
		"system_description": system.Description,
		"bank_amount":        bank.Amount,
		"system_amount":      system.Amount,
		"score":              score,
	})
	recordID := uuid.Nil
	if bank.ReconciliationID != nil {
		recordID = *bank.ReconciliationID
	}
	audit := &models.MatchAuditLog{
		ID:                  uuid.New(),
		OrganizationID:      bank.OrganizationID,
		ReconciliationID:    recordID,
		BankTransactionID:   bank.ID,
		SystemTransactionID: system.ID,
		Action:              action,
		Score:               score,
		Details:             details,
		PerformedBy:         performedBy,
		CreatedAt:           time.Now(),
	}
	return tx.Create(audit).Error
}

// CreateManualEntry records a system transaction entered by an operator
// against an existing record. DEBIT entries create a corresponding expense
// through the ledger collaborator and keep its reference.
func (s *ReconciliationService) CreateManualEntry(orgID, recordID uuid.UUID, date time.Time, description string, amount decimal.Decimal, txnType string) (*models.SystemTransaction, error) {
	record, err := s.GetRecord(orgID, recordID)
	if err != nil {
		return nil, err
	}

	txn := &models.SystemTransaction{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		ReconciliationID: &record.ID,
		TransactionDate:  date,
		Description:      description,
		Amount:           amount.Abs().Round(2),
		Type:             txnType,
		Status:           models.StatusUnmatched,
		Source:           models.SourceReconciliation,
		CreatedAt:        time.Now(),
	}

	if txnType == models.TypeDebit {
		expense, err := s.expenses.CreateExpense(orgID, date, description, "", txn.Amount)
		if err != nil {
			return nil, fmt.Errorf("creating expense for manual entry: %w", err)
		}
		txn.ExpenseID = &expense.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return recomputeStats(tx, record.ID)
	})
	if err != nil {
		// The expense was created outside this transaction; undo it so a
		// failed entry leaves no orphan behind.
		if txn.ExpenseID != nil {
			if derr := s.expenses.DeleteExpense(*txn.ExpenseID); derr != nil {
				s.log.Error().
					Err(derr).
					Str("expense_id", txn.ExpenseID.String()).
					Msg("failed to remove expense after manual entry failure")
			}
		}
		return nil, fmt.Errorf("persisting manual entry: %w", err)
	}
	return txn, nil
}

// RecomputeStats derives the record's matched/unmatched totals and
// adjustments count from current transaction state. Counting rather than
// incrementing keeps the operation idempotent and tolerant of partial prior
// failures.
func (s *ReconciliationService) RecomputeStats(recordID uuid.UUID) error {
	return recomputeStats(s.db, recordID)
}

func recomputeStats(tx *gorm.DB, recordID uuid.UUID) error {
	var total, matched, adjustments int64

	if err := tx.Model(&models.BankTransaction{}).
		Where("reconciliation_id = ?", recordID).
		Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.BankTransaction{}).
		Where("reconciliation_id = ? AND status = ?", recordID, models.StatusMatched).
		Count(&matched).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.SystemTransaction{}).
		Where("reconciliation_id = ? AND source = ?", recordID, models.SourceReconciliation).
		Count(&adjustments).Error; err != nil {
		return err
	}

	return tx.Model(&models.ReconciliationRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"total_matched":     matched,
			"total_unmatched":   total - matched,
			"adjustments_count": adjustments,
		}).Error
}

// GetRecord fetches a reconciliation record scoped to the organization.
func (s *ReconciliationService) GetRecord(orgID, recordID uuid.UUID) (*models.ReconciliationRecord, error) {
	record, err := s.records.GetForOrganization(orgID, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrRecordNotFound, recordID)
		}
		return nil, err
	}
	return record, nil
}

// ListTransactions returns a cursor-paginated page of a record's bank
// transactions, optionally filtered by status and a description/amount
// search term. The record lookup enforces organization ownership the same
// way the other read paths do.
func (s *ReconciliationService) ListTransactions(orgID, recordID uuid.UUID, status, cursor string, limit int, search string) ([]models.BankTransaction, string, bool, error) {
	if _, err := s.GetRecord(orgID, recordID); err != nil {
		return nil, "", false, err
	}

	var txns []models.BankTransaction

	query := s.db.
		Where("reconciliation_id = ? AND organization_id = ?", recordID, orgID).
		Order("id ASC").
		Limit(limit + 1)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(description) LIKE ? OR CAST(amount AS TEXT) LIKE ?", like, like)
	}

	if err := query.Find(&txns).Error; err != nil {
		return nil, "", false, err
	}

	hasMore := false
	nextCursor := ""
	if len(txns) > limit {
		hasMore = true
		nextCursor = txns[limit-1].ID.String()
		txns = txns[:limit]
	}
	return txns, nextCursor, hasMore, nil
}

func notFound(err error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperrors.ErrTransactionNotFound, id)
	}
	return err
}
