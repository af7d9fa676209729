package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"piggybank/internal/models"
	"piggybank/internal/store"
	"piggybank/internal/testutil"
	"piggybank/internal/uuid"
)

func TestValidate(t *testing.T) {
	accountID := uuid.New()
	tests := []struct {
		name    string
		tx      *models.Transaction
		wantErr bool
	}{
		{name: "credit", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeEarning, Amount: 100}},
		{name: "debit", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeSpending, Amount: -100}},
		{name: "transfer either sign", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeTransfer, Amount: -5}},
		{name: "nil", tx: nil, wantErr: true},
		{name: "missing account", tx: &models.Transaction{Type: models.TransactionTypeEarning, Amount: 100}, wantErr: true},
		{name: "unknown type", tx: &models.Transaction{AccountID: accountID, Type: "gift", Amount: 100}, wantErr: true},
		{name: "negative credit", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeInterest, Amount: -1}, wantErr: true},
		{name: "positive debit", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeGoalDeposit, Amount: 1}, wantErr: true},
		{name: "zero transfer", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeTransfer}, wantErr: true},
		{name: "unknown category", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeEarning, Amount: 1, Category: "yachts"}, wantErr: true},
		{name: "long description", tx: &models.Transaction{AccountID: accountID, Type: models.TransactionTypeEarning, Amount: 1, Description: strings.Repeat("x", 256)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.tx)
			if tt.wantErr {
				testutil.AssertAppError(t, err, "INVALID_TRANSACTION")
				return
			}
			testutil.AssertNoError(t, err)
		})
	}
}

func TestTransactionLog(t *testing.T) {
	ctx := context.Background()
	l := NewTransactionLog(store.NewMemory())
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	accountID := uuid.New()

	for i := 0; i < 130; i++ {
		_, err := l.Append(ctx, &models.Transaction{AccountID: accountID, Type: models.TransactionTypeAllowance, Amount: 100})
		testutil.AssertNoError(t, err)
	}

	t.Run("default page size", func(t *testing.T) {
		txs, total, err := l.ListByAccount(ctx, accountID, 0, 0)
		testutil.AssertNoError(t, err)
		if len(txs) != DefaultPageSize || total != 130 {
			t.Errorf("expected %d of 130, got %d of %d", DefaultPageSize, len(txs), total)
		}
		if !txs[0].CreatedAt.After(txs[1].CreatedAt) {
			t.Error("expected newest first")
		}
	})

	t.Run("limit is capped", func(t *testing.T) {
		txs, _, err := l.ListByAccount(ctx, accountID, 1000, 0)
		testutil.AssertNoError(t, err)
		if len(txs) != MaxPageSize {
			t.Errorf("expected %d records, got %d", MaxPageSize, len(txs))
		}
	})

	t.Run("negative offset", func(t *testing.T) {
		_, _, err := l.ListByAccount(ctx, accountID, 10, -1)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("purge", func(t *testing.T) {
		n, err := l.Purge(ctx, accountID)
		testutil.AssertNoError(t, err)
		if n != 130 {
			t.Errorf("expected 130 removed, got %d", n)
		}
		txs, total, err := l.ListByAccount(ctx, accountID, 10, 0)
		testutil.AssertNoError(t, err)
		if total != 0 || len(txs) != 0 {
			t.Errorf("expected empty log, got %d", total)
		}
	})
}
