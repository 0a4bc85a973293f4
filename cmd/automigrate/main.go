package main

import (
	"log"

	"tasboard/config"
	"tasboard/models"

	"github.com/joho/godotenv"
)

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

	err := config.DB.AutoMigrate(
		&models.User{},
		&models.GameSystem{},
		&models.GameSystemFrameRate{},
		&models.Game{},
		&models.GameVersion{},
		&models.GameGoal{},
		&models.PublicationClass{},
		&models.Flag{},
		&models.Tag{},
		&models.RejectionReason{},
		&models.MovieStorage{},
		&models.Submission{},
		&models.SubmissionAuthor{},
		&models.SubmissionStatusHistory{},
		&models.Publication{},
		&models.PublicationAuthor{},
		&models.PublicationUrl{},
		&models.PublicationFlag{},
		&models.PublicationTag{},
		&models.PublicationFile{},
		&models.OutboxTask{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed")
}
