package main

import (
	"flag"

	"go-sales-inventory/internal/model"
	"go-sales-inventory/pkg/database"
	"go-sales-inventory/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Operational escape hatch: reset a user's password straight in the database
// when they are locked out.
func main() {
	email := flag.String("email", "admin@example.com", "email of the account to reset")
	password := flag.String("password", "admin123", "new password to set")
	flag.Parse()

	log := logger.Get()

	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, relying on system env")
	}

	db := database.ConnectDB()

	var user model.User
	if err := db.Where("email = ?", *email).First(&user).Error; err != nil {
		log.WithError(err).Fatalf("user %s not found", *email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}

	// also rotate the token version so any live session is invalidated
	updates := map[string]interface{}{
		"password":      string(hashed),
		"token_version": "",
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.WithError(err).Fatal("failed to update password")
	}

	log.WithField("email", *email).Info("password reset, existing sessions invalidated")
}
