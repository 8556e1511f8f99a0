package main

import (
	"log"
	"os"
	"strings"

	"bizbook/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	// Now migrate the rest (users will get FK to roles). Migrate models
	// individually so a failure on one doesn't block others.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Category{}); err != nil {
			log.Printf("migration warning (categories): %v", err)
		}
		if err := db.AutoMigrate(&models.Product{}); err != nil {
			log.Printf("migration warning (products): %v", err)
		}
		if err := db.AutoMigrate(&models.Revenue{}); err != nil {
			log.Printf("migration warning (revenues): %v", err)
		}
		if err := db.AutoMigrate(&models.Expense{}); err != nil {
			log.Printf("migration warning (expenses): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
	}

	seedDB()
}

func seedRoles() {
	roles := []models.Role{{Name: models.RoleAdmin, Description: "full access"}, {Name: models.RoleUser, Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("email = ?", "admin@bizbook.local").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Email:    "admin@bizbook.local",
			FullName: "Administrator",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: email=admin@bizbook.local, password=admin123")
	}
	// Ensure upload directory exists
	ensureUploadBase()
}

// ensureUploadBase creates the base uploads directory.
func ensureUploadBase() {
	base := uploadBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create upload base dir %s: %v", base, err)
	}
}

// uploadBaseDir returns the base directory for local uploads (configurable via UPLOAD_BASE env)
func uploadBaseDir() string {
	if v := os.Getenv("UPLOAD_BASE"); v != "" {
		return v
	}
	return "uploads"
}
