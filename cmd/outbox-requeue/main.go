package main

import (
	"log"

	"tasboard/config"
	"tasboard/models"

	"github.com/joho/godotenv"
)

// Flips failed outbox tasks back to pending so the embedded worker picks
// them up on its next drain pass.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	res := config.DB.Model(&models.OutboxTask{}).
		Where("status = ?", models.OutboxStatusFailed).
		Updates(map[string]any{
			"status":     models.OutboxStatusPending,
			"last_error": nil,
		})
	if res.Error != nil {
		log.Fatalf("Requeue failed: %v", res.Error)
	}

	log.Printf("Requeued %d failed outbox tasks", res.RowsAffected)
}
