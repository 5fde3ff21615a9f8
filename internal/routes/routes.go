package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	handler "bank-reconciliation-backend/internal/handlers"
	"bank-reconciliation-backend/internal/repository"
	service "bank-reconciliation-backend/internal/services/reconciliation"
	"bank-reconciliation-backend/internal/storage"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, files storage.Uploader) {
	recordRepo := repository.NewReconciliationRepository(db)
	bankRepo := repository.NewBankTransactionRepository(db)
	systemRepo := repository.NewSystemTransactionRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	reconService := service.NewReconciliationService(
		recordRepo,
		bankRepo,
		systemRepo,
		expenseRepo,
		files,
	)

	reconHandler := handler.NewReconciliationHandler(reconService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Reconciliation record routes
	recon := api.Group("/reconciliation")
	recon.POST("/upload", reconHandler.Upload)
	recon.GET("/:recordId", reconHandler.GetRecord)
	recon.GET("/:recordId/transactions", reconHandler.ListTransactions)
	recon.POST("/:recordId/entries", reconHandler.CreateEntry)

	// Transaction-level routes
	tx := api.Group("/transactions")
	tx.POST("/:id/match", reconHandler.ManualMatch)
}
