package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/testutil"
	"piggybank/internal/uuid"
)

func (f *fixture) interest(t *testing.T, accountID, rate, minimum string, active bool) {
	t.Helper()
	cfg := &models.InterestConfig{
		AccountID:      accountID,
		MonthlyRate:    decimal.RequireFromString(rate),
		MinimumBalance: money.MustParse(minimum),
		IsActive:       active,
	}
	testutil.AssertNoError(t, f.store.UpsertInterestConfig(f.ctx, cfg))
}

func TestApplyMonthlyInterest(t *testing.T) {
	t.Run("below minimum is skipped", func(t *testing.T) {
		f := newFixture(t)
		account := f.account(t, "5.00")
		f.interest(t, account.ID, "1.0", "10.00", true)

		tx, err := f.engine.ApplyMonthlyInterest(f.ctx, account.ID)
		testutil.AssertNoError(t, err)
		if tx != nil {
			t.Errorf("expected no transaction, got %+v", tx)
		}
		if got := f.balance(t, account.ID); got != money.MustParse("5.00") {
			t.Errorf("expected balance unchanged, got %s", got)
		}
		if txs := f.history(t, account.ID); len(txs) != 0 {
			t.Errorf("expected empty history, got %d", len(txs))
		}
	})

	t.Run("one percent of 1000", func(t *testing.T) {
		f := newFixture(t)
		account := f.account(t, "1000.00")
		f.interest(t, account.ID, "1.0", "0", true)

		tx, err := f.engine.ApplyMonthlyInterest(f.ctx, account.ID)
		testutil.AssertNoError(t, err)
		if tx == nil || tx.Type != models.TransactionTypeInterest || tx.Amount != money.MustParse("10.00") {
			t.Fatalf("expected interest of 10.00, got %+v", tx)
		}
		if got := f.balance(t, account.ID); got != money.MustParse("1010.00") {
			t.Errorf("expected balance 1010.00, got %s", got)
		}
		if txs := f.history(t, account.ID); len(txs) != 1 {
			t.Errorf("expected exactly one transaction, got %d", len(txs))
		}

		cfg, _ := f.store.GetInterestConfig(f.ctx, account.ID)
		if cfg.LastAccrualDate == nil {
			t.Error("expected accrual date to be stamped")
		}
	})

	t.Run("inactive config is skipped", func(t *testing.T) {
		f := newFixture(t)
		account := f.account(t, "1000.00")
		f.interest(t, account.ID, "1.0", "0", false)

		tx, err := f.engine.ApplyMonthlyInterest(f.ctx, account.ID)
		testutil.AssertNoError(t, err)
		if tx != nil {
			t.Errorf("expected skip, got %+v", tx)
		}
	})

	t.Run("interest rounding to zero stamps without a record", func(t *testing.T) {
		f := newFixture(t)
		account := f.account(t, "0.40")
		f.interest(t, account.ID, "1.0", "0", true)

		tx, err := f.engine.ApplyMonthlyInterest(f.ctx, account.ID)
		testutil.AssertNoError(t, err)
		if tx != nil {
			t.Errorf("expected no transaction, got %+v", tx)
		}
		cfg, _ := f.store.GetInterestConfig(f.ctx, account.ID)
		if cfg.LastAccrualDate == nil {
			t.Error("expected accrual date to be stamped")
		}
	})

	t.Run("missing config", func(t *testing.T) {
		f := newFixture(t)
		account := f.account(t, "10.00")
		_, err := f.engine.ApplyMonthlyInterest(f.ctx, account.ID)
		testutil.AssertAppError(t, err, "INTEREST_CONFIG_NOT_FOUND")
	})
}

func TestRunInterestBatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return now }))

	rich := f.account(t, "200.00")
	poor := f.account(t, "1.00")
	f.interest(t, rich.ID, "0.5", "10.00", true)
	f.interest(t, poor.ID, "0.5", "10.00", true)
	// a configuration whose account no longer exists must not stop the batch
	f.interest(t, uuid.New(), "0.5", "0", true)

	report, err := f.engine.RunInterestBatch(f.ctx, BatchOptions{})
	testutil.AssertNoError(t, err)

	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	if report.Succeeded != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", report.Succeeded, report.Skipped, report.Failed)
	}
	for _, res := range report.Results {
		switch res.AccountID {
		case rich.ID:
			if res.Status != StatusSuccess || res.Amount != money.MustParse("1.00") || res.TransactionID == "" {
				t.Errorf("unexpected result for rich account: %+v", res)
			}
		case poor.ID:
			if res.Status != StatusSkipped || res.Reason != SkipBelowMinimum {
				t.Errorf("unexpected result for poor account: %+v", res)
			}
		default:
			if res.Status != StatusError || res.Error == "" {
				t.Errorf("expected error result, got %+v", res)
			}
		}
	}

	t.Run("already accrued accounts are skipped", func(t *testing.T) {
		cycleStart := now.Add(-time.Hour)
		report, err := f.engine.RunInterestBatch(f.ctx, BatchOptions{NotAccruedSince: &cycleStart})
		testutil.AssertNoError(t, err)

		for _, res := range report.Results {
			if res.AccountID == rich.ID && (res.Status != StatusSkipped || res.Reason != SkipAlreadyAccrued) {
				t.Errorf("expected rich account skipped as accrued, got %+v", res)
			}
		}
		if got := f.balance(t, rich.ID); got != money.MustParse("201.00") {
			t.Errorf("expected a single accrual, balance %s", got)
		}
	})
}
