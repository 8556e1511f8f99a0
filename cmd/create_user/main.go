package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"bizbook/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: go run ./cmd/create_user <email> <password> <full name>")
		os.Exit(2)
	}
	email := strings.ToLower(os.Args[1])
	password := os.Args[2]
	fullName := strings.Join(os.Args[3:], " ")

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// ensure roles exist
	var role models.Role
	if err := db.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		role = models.Role{Name: models.RoleUser, Description: "regular user"}
		db.Create(&role)
	}

	// check existing
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	rid := role.ID
	user := models.User{Email: email, HashedPassword: hpw, FullName: fullName, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", email, user.ID)
}
