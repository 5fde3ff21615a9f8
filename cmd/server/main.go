package main

import (
	"log"
	"time"

	"bank-reconciliation-backend/internal/config"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/routes"
	"bank-reconciliation-backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	db := config.InitDB()

	db.AutoMigrate(
		&models.Expense{},
		&models.BankTransaction{},
		&models.SystemTransaction{},
		&models.ReconciliationRecord{},
		&models.MatchAuditLog{},
	)

	files, err := storage.NewLocalUploader(config.UploadDir())
	if err != nil {
		log.Fatalf("failed to initialize file storage: %v", err)
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Organization-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, files)

	r.Run(config.ListenAddr())
}
