package main

import (
	"fmt"
	"regexp"
	"strings"

	"bizbook/models"

	"golang.org/x/crypto/bcrypt"
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validateRegistration applies the registration policy without touching the
// database so it can be tested in isolation.
func validateRegistration(email, password, name string) error {
	if email == "" || !emailRE.MatchString(email) {
		return fmt.Errorf("valid email required")
	}
	if len(password) < 6 { // basic password policy
		return fmt.Errorf("password too short (min 6)")
	}
	if len(name) < 2 {
		return fmt.Errorf("name too short (min 2)")
	}
	return nil
}

// RegisterUser creates a user with the regular role. Returns a conflict error
// when the email is already taken.
func RegisterUser(email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if err := validateRegistration(email, password, name); err != nil {
		return err
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return ErrEmailTaken
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	// ensure role exists (idempotent)
	var role models.Role
	if err := db.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		role = models.Role{Name: models.RoleUser, Description: "regular user"}
		if err2 := db.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err2 != nil {
			return fmt.Errorf("failed to ensure user role: %v", err2)
		}
	}
	rid := role.ID
	user := models.User{Email: email, HashedPassword: hashedPassword, FullName: name, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// ErrEmailTaken signals a registration conflict so handlers can map it to 409.
var ErrEmailTaken = fmt.Errorf("email already in use")

func Authenticate(email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
