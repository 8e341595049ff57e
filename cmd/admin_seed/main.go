// Command admin_seed creates the admin account and its treasury wallet.
package main

import (
	"log"
	"os"

	"stakepot/internal/config"
	"stakepot/internal/models"
	"stakepot/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close()
		}
	}()

	var existing models.Admin
	if err := repositories.DB.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		log.Println("Admin account already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := models.Admin{
		Email:        adminEmail,
		Password:     string(hashedPassword),
		Name:         config.GetEnv("ADMIN_NAME", "Treasury Admin"),
		Role:         "admin",
		TokenVersion: 1,
	}
	if err := repositories.DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin account:", err)
	}

	wallet := models.TreasuryWallet{
		AdminID:  admin.ID,
		Currency: config.GetEnv("TREASURY_CURRENCY", "USD"),
		Status:   "active",
	}
	if err := repositories.DB.Create(&wallet).Error; err != nil {
		log.Fatal("Failed to create treasury wallet:", err)
	}

	log.Println("✅ Admin account and treasury wallet created")
}
