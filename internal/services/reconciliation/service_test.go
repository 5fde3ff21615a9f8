package reconciliation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bank-reconciliation-backend/internal/apperrors"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/parser"
	"bank-reconciliation-backend/internal/repository"
	"bank-reconciliation-backend/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*ReconciliationService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Expense{},
		&models.BankTransaction{},
		&models.SystemTransaction{},
		&models.ReconciliationRecord{},
		&models.MatchAuditLog{},
	))

	files, err := storage.NewLocalUploader(t.TempDir())
	require.NoError(t, err)

	svc := NewReconciliationService(
		repository.NewReconciliationRepository(db),
		repository.NewBankTransactionRepository(db),
		repository.NewSystemTransactionRepository(db),
		repository.NewExpenseRepository(db),
		files,
	)
	return svc, db
}

func seedExpense(t *testing.T, db *gorm.DB, orgID uuid.UUID, date, description, amount string) models.Expense {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	expense := models.Expense{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ExpenseDate:    d,
		Description:    description,
		TotalAmount:    decimal.RequireFromString(amount),
		CreatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&expense).Error)
	return expense
}

func parsedTxn(date, desc, amount, txnType string) parser.ParsedTransaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return parser.ParsedTransaction{
		TransactionDate: d,
		Description:     desc,
		Amount:          decimal.RequireFromString(amount),
		Type:            txnType,
	}
}

func TestUploadStatementPipeline(t *testing.T) {
	svc, db := newTestService(t)
	orgID := uuid.New()

	seedExpense(t, db, orgID, "2024-02-02", "Acme Supplies invoice", "150.00")

	csvData := strings.Join([]string{
		"date,description,amount",
		"01/02/2024,ACME SUPPLIES,-150.00",
		"05/02/2024,CUSTOMER PAYMENT,300.00",
	}, "\n")

	record, err := svc.UploadStatement(context.Background(), orgID, "statement.csv", strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 1, record.TotalMatched)
	assert.Equal(t, 1, record.TotalUnmatched)
	assert.Equal(t, "150.00", record.TotalBankDebits.StringFixed(2))
	assert.Equal(t, "300.00", record.TotalBankCredits.StringFixed(2))
	assert.Equal(t, "2024-02-01", record.StatementPeriodStart.Format("2006-01-02"))
	assert.Equal(t, "2024-02-05", record.StatementPeriodEnd.Format("2006-01-02"))
	assert.NotEmpty(t, record.SourceFile)

	var bankTxns []models.BankTransaction
	require.NoError(t, db.Where("reconciliation_id = ?", record.ID).Order("transaction_date ASC").Find(&bankTxns).Error)
	require.Len(t, bankTxns, 2)

	assert.Equal(t, models.StatusMatched, bankTxns[0].Status)
	assert.Equal(t, models.TypeDebit, bankTxns[0].Type)
	assert.Equal(t, "150.00", bankTxns[0].Amount.StringFixed(2))
	assert.NotNil(t, bankTxns[0].MatchedSystemTransactionID)
	assert.Equal(t, models.StatusUnmatched, bankTxns[1].Status)

	var sysTxn models.SystemTransaction
	require.NoError(t, db.First(&sysTxn, "reconciliation_id = ?", record.ID).Error)
	assert.Equal(t, models.StatusMatched, sysTxn.Status)
	assert.Equal(t, models.SourceExpense, sysTxn.Source)

	var auditCount int64
	require.NoError(t, db.Model(&models.MatchAuditLog{}).Where("reconciliation_id = ?", record.ID).Count(&auditCount).Error)
	assert.EqualValues(t, 1, auditCount)
}

func TestUploadStatementEmptyCreatesNoRecord(t *testing.T) {
	svc, db := newTestService(t)

	csvData := "date,description,amount\nbogus,,\n"
	_, err := svc.UploadStatement(context.Background(), uuid.New(), "statement.csv", strings.NewReader(csvData))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyStatement))

	var count int64
	require.NoError(t, db.Model(&models.ReconciliationRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateBatchOverflowAbortsBeforePersistence(t *testing.T) {
	svc, db := newTestService(t)

	parsed := []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "HUGE TRANSFER", "999999999999999999.99", models.TypeCredit),
		parsedTxn("2024-02-01", "ANOTHER HUGE TRANSFER", "999999999999999999.99", models.TypeCredit),
	}

	_, err := svc.CreateBatch(uuid.New(), "file-key", parsed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAmountOverflow))

	var records, txns int64
	require.NoError(t, db.Model(&models.ReconciliationRecord{}).Count(&records).Error)
	require.NoError(t, db.Model(&models.BankTransaction{}).Count(&txns).Error)
	assert.EqualValues(t, 0, records)
	assert.EqualValues(t, 0, txns)
}

func TestCreateBatchSkipsNegativeAmounts(t *testing.T) {
	svc, _ := newTestService(t)
	orgID := uuid.New()

	parsed := []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "GOOD ROW", "100.00", models.TypeCredit),
		parsedTxn("2024-02-01", "BAD ROW", "-5.00", models.TypeDebit),
	}

	record, err := svc.CreateBatch(orgID, "file-key", parsed)
	require.NoError(t, err)
	assert.Equal(t, 1, record.TotalUnmatched)
	assert.Equal(t, "100.00", record.TotalBankCredits.StringFixed(2))
	assert.Equal(t, "0.00", record.TotalBankDebits.StringFixed(2))
}

func TestRecomputeStatsIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	orgID := uuid.New()

	parsed := []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "ROW ONE", "10.00", models.TypeDebit),
		parsedTxn("2024-02-02", "ROW TWO", "20.00", models.TypeDebit),
		parsedTxn("2024-02-03", "ROW THREE", "30.00", models.TypeCredit),
	}
	record, err := svc.CreateBatch(orgID, "file-key", parsed)
	require.NoError(t, err)

	// Flip one status out-of-band; recompute must converge on the truth.
	require.NoError(t, db.Model(&models.BankTransaction{}).
		Where("reconciliation_id = ? AND description = ?", record.ID, "ROW ONE").
		Update("status", models.StatusMatched).Error)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecomputeStats(record.ID))
		got, err := svc.GetRecord(orgID, record.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TotalMatched)
		assert.Equal(t, 2, got.TotalUnmatched)
		assert.Equal(t, 3, got.TotalMatched+got.TotalUnmatched)
	}
}

func TestManualMatch(t *testing.T) {
	svc, db := newTestService(t)
	orgID := uuid.New()

	record, err := svc.CreateBatch(orgID, "file-key", []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "WIRE OUT", "75.00", models.TypeDebit),
	})
	require.NoError(t, err)

	var bank models.BankTransaction
	require.NoError(t, db.First(&bank, "reconciliation_id = ?", record.ID).Error)

	system := models.SystemTransaction{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		ReconciliationID: &record.ID,
		TransactionDate:  bank.TransactionDate,
		Description:      "completely different description",
		Amount:           decimal.RequireFromString("9999.00"),
		Type:             models.TypeCredit,
		Status:           models.StatusUnmatched,
		Source:           models.SourceExpense,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, db.Create(&system).Error)

	// Manual match bypasses scoring entirely.
	updated, err := svc.ManualMatch(orgID, bank.ID, system.ID, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalMatched)
	assert.Equal(t, 0, updated.TotalUnmatched)

	var audit models.MatchAuditLog
	require.NoError(t, db.First(&audit, "bank_transaction_id = ?", bank.ID).Error)
	assert.Equal(t, models.ActionManualMatch, audit.Action)
	assert.Equal(t, "ops@example.com", audit.PerformedBy)
}

func TestManualMatchUnknownTransaction(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ManualMatch(uuid.New(), uuid.New(), uuid.New(), "operator")
	assert.True(t, errors.Is(err, apperrors.ErrTransactionNotFound))
}

func TestManualMatchDetachedBankTransaction(t *testing.T) {
	svc, db := newTestService(t)
	orgID := uuid.New()

	// A bank transaction outside any record cannot anchor a match.
	bank := models.BankTransaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		TransactionDate: time.Now(),
		Description:     "STRAY ROW",
		Amount:          decimal.RequireFromString("10.00"),
		Type:            models.TypeDebit,
		Status:          models.StatusUnmatched,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, db.Create(&bank).Error)

	system := models.SystemTransaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		TransactionDate: time.Now(),
		Description:     "STRAY ROW",
		Amount:          decimal.RequireFromString("10.00"),
		Type:            models.TypeDebit,
		Status:          models.StatusUnmatched,
		Source:          models.SourceExpense,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, db.Create(&system).Error)

	record, err := svc.ManualMatch(orgID, bank.ID, system.ID, "operator")
	assert.Nil(t, record)
	assert.True(t, errors.Is(err, apperrors.ErrRecordNotFound))
}

func TestManualMatchForeignOrganization(t *testing.T) {
	svc, db := newTestService(t)
	ownerOrg := uuid.New()

	record, err := svc.CreateBatch(ownerOrg, "file-key", []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "WIRE OUT", "75.00", models.TypeDebit),
	})
	require.NoError(t, err)

	var bank models.BankTransaction
	require.NoError(t, db.First(&bank, "reconciliation_id = ?", record.ID).Error)

	_, err = svc.ManualMatch(uuid.New(), bank.ID, uuid.New(), "operator")
	assert.True(t, errors.Is(err, apperrors.ErrTransactionNotFound))
}

func TestCreateManualEntryDebitCreatesExpense(t *testing.T) {
	svc, db := newTestService(t)
	orgID := uuid.New()

	record, err := svc.CreateBatch(orgID, "file-key", []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "WIRE OUT", "75.00", models.TypeDebit),
	})
	require.NoError(t, err)

	entryDate, _ := time.Parse("2006-01-02", "2024-02-03")
	txn, err := svc.CreateManualEntry(orgID, record.ID, entryDate, "Cash purchase", decimal.RequireFromString("42.00"), models.TypeDebit)
	require.NoError(t, err)

	assert.Equal(t, models.SourceReconciliation, txn.Source)
	require.NotNil(t, txn.ExpenseID)

	var expense models.Expense
	require.NoError(t, db.First(&expense, "id = ?", txn.ExpenseID).Error)
	assert.Equal(t, "42.00", expense.TotalAmount.StringFixed(2))

	got, err := svc.GetRecord(orgID, record.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AdjustmentsCount)
}

func TestCreateManualEntryCreditSkipsExpense(t *testing.T) {
	svc, _ := newTestService(t)
	orgID := uuid.New()

	record, err := svc.CreateBatch(orgID, "file-key", []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "DEPOSIT", "75.00", models.TypeCredit),
	})
	require.NoError(t, err)

	entryDate, _ := time.Parse("2006-01-02", "2024-02-03")
	txn, err := svc.CreateManualEntry(orgID, record.ID, entryDate, "Interest income", decimal.RequireFromString("1.25"), models.TypeCredit)
	require.NoError(t, err)
	assert.Nil(t, txn.ExpenseID)
}

func TestCreateManualEntryFailureLeavesNoExpense(t *testing.T) {
	svc, db := newTestService(t)
	orgID := uuid.New()

	record, err := svc.CreateBatch(orgID, "file-key", []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "WIRE OUT", "75.00", models.TypeDebit),
	})
	require.NoError(t, err)

	// Force the transaction insert to fail after the expense is created.
	require.NoError(t, db.Migrator().DropTable(&models.SystemTransaction{}))

	entryDate, _ := time.Parse("2006-01-02", "2024-02-03")
	_, err = svc.CreateManualEntry(orgID, record.ID, entryDate, "Cash purchase", decimal.RequireFromString("42.00"), models.TypeDebit)
	require.Error(t, err)

	var expenses int64
	require.NoError(t, db.Model(&models.Expense{}).Count(&expenses).Error)
	assert.EqualValues(t, 0, expenses)
}

func TestGetRecordUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetRecord(uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrRecordNotFound))
}

func TestListTransactionsFiltersAndPaginates(t *testing.T) {
	svc, _ := newTestService(t)
	orgID := uuid.New()

	var parsed []parser.ParsedTransaction
	for i := 0; i < 5; i++ {
		parsed = append(parsed, parsedTxn("2024-02-01", "ROW", "10.00", models.TypeDebit))
	}
	record, err := svc.CreateBatch(orgID, "file-key", parsed)
	require.NoError(t, err)

	page1, cursor, hasMore, err := svc.ListTransactions(orgID, record.ID, models.StatusUnmatched, "", 3, "")
	require.NoError(t, err)
	assert.Len(t, page1, 3)
	assert.True(t, hasMore)
	require.NotEmpty(t, cursor)

	page2, _, hasMore, err := svc.ListTransactions(orgID, record.ID, models.StatusUnmatched, cursor, 3, "")
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.False(t, hasMore)

	filtered, _, _, err := svc.ListTransactions(orgID, record.ID, models.StatusMatched, "", 3, "")
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestListTransactionsForeignOrganization(t *testing.T) {
	svc, _ := newTestService(t)
	ownerOrg := uuid.New()

	record, err := svc.CreateBatch(ownerOrg, "file-key", []parser.ParsedTransaction{
		parsedTxn("2024-02-01", "ROW", "10.00", models.TypeDebit),
	})
	require.NoError(t, err)

	_, _, _, err = svc.ListTransactions(uuid.New(), record.ID, "", "", 10, "")
	assert.True(t, errors.Is(err, apperrors.ErrRecordNotFound))
}
