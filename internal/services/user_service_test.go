package services

import (
	"context"
	"testing"

	"piggybank/internal/models"
	"piggybank/internal/testutil"
)

func TestCreateParent(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		user, err := svc.CreateParent(ctx, "alice@example.com", "password123", "Alice")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID")
		}
		if user.Role != models.RoleParent {
			t.Errorf("expected parent role, got %s", user.Role)
		}
		if user.Password == "password123" {
			t.Error("expected password to be hashed")
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.CreateParent(ctx, "dup@example.com", "password123", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateParent(ctx, "DUP@example.com", "password456", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("empty_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		_, err := svc.CreateParent(ctx, "", "password123", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateParent(ctx, "a@example.com", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("display_name_defaults_to_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewUserService(db)

		user, err := svc.CreateParent(ctx, "  Bob@Example.COM ", "password123", " ")
		testutil.AssertNoError(t, err)
		if user.Email != "bob@example.com" || user.DisplayName != "bob@example.com" {
			t.Errorf("unexpected email/display name: %q / %q", user.Email, user.DisplayName)
		}
	})
}

func TestAttemptLogin(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	parent := testutil.CreateTestParent(t, db)

	t.Run("success_stamps_login", func(t *testing.T) {
		user, err := svc.AttemptLogin(ctx, parent.Email, testutil.TestPassword)
		testutil.AssertNoError(t, err)
		if user.ID != parent.ID {
			t.Errorf("expected %s, got %s", parent.ID, user.ID)
		}
		if user.LastLoginAt == nil {
			t.Error("expected last login to be set")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.AttemptLogin(ctx, parent.Email, "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, err := svc.AttemptLogin(ctx, "nobody@example.com", testutil.TestPassword)
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestGetUserByID(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewUserService(db)
	parent := testutil.CreateTestParent(t, db)

	user, err := svc.GetUserByID(ctx, parent.ID)
	testutil.AssertNoError(t, err)
	if user.Email != parent.Email {
		t.Errorf("expected %s, got %s", parent.Email, user.Email)
	}

	_, err = svc.GetUserByID(ctx, "0190a000-0000-7000-8000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}
