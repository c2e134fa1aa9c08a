package services

import (
	"testing"

	"lendingProject/database"
	"lendingProject/models"

	"golang.org/x/crypto/bcrypt"
)

func TestCreateUserAndFindByEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(&database.Database{DB: db})

	user, err := svc.CreateUserInternal(CreateUserRequest{
		FirstName: "Анна",
		LastName:  "Козлова",
		Email:     "anna.kozlova@example.com",
		Password:  "Secret#123",
	})
	if err != nil {
		t.Fatalf("CreateUserInternal returned error: %v", err)
	}

	// Пароль хранится как bcrypt-хеш
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Secret#123")); err != nil {
		t.Errorf("stored password is not a valid bcrypt hash: %v", err)
	}

	// Поиск игнорирует регистр и пробелы
	found, err := svc.FindByEmail("  ANNA.KOZLOVA@example.com ")
	if err != nil {
		t.Fatalf("FindByEmail returned error: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("user id: got %d want %d", found.ID, user.ID)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(&database.Database{DB: db})

	req := CreateUserRequest{
		FirstName: "Анна",
		LastName:  "Козлова",
		Email:     "anna.kozlova@example.com",
		Password:  "Secret#123",
	}
	if _, err := svc.CreateUserInternal(req); err != nil {
		t.Fatalf("CreateUserInternal returned error: %v", err)
	}

	// Повторная регистрация с тем же email отклоняется
	if _, err := svc.CreateUserInternal(req); err == nil {
		t.Error("expected error for duplicate email, got nil")
	}
}

func TestUserBeforeCreateValidation(t *testing.T) {
	db := setupTestDB(t)

	// Email без символа @ отклоняется хуком модели
	user := &models.User{
		FirstName: "Анна",
		LastName:  "Козлова",
		Email:     "not-an-email",
		Password:  "hash",
	}
	if err := db.Create(user).Error; err == nil {
		t.Error("expected validation error for malformed email, got nil")
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(&database.Database{DB: db})

	if _, err := svc.FindByEmail("missing@example.com"); err == nil {
		t.Error("expected error for missing user, got nil")
	}
}
