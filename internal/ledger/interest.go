package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/logger"
	"piggybank/internal/metrics"
	"piggybank/internal/models"
	"piggybank/internal/money"
	"piggybank/internal/store"
)

// Batch result statuses.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Reasons an account is skipped by interest accrual.
const (
	SkipInactive        = "interest is disabled"
	SkipBelowMinimum    = "balance is below the minimum"
	SkipAlreadyAccrued  = "already accrued this cycle"
	SkipNothingToCredit = "interest rounds to zero"
)

// ApplyMonthlyInterest credits one cycle of interest to an account.
//
// It returns a nil transaction and a nil error when the account is skipped:
// the configuration is inactive, the balance is below the configured
// minimum, or the interest rounds to zero cents. The accrual date is stamped
// whenever the account was not skipped for the first two reasons.
func (e *Engine) ApplyMonthlyInterest(ctx context.Context, accountID string) (*models.Transaction, error) {
	tx, _, err := e.applyInterest(ctx, accountID)
	return tx, err
}

func (e *Engine) applyInterest(ctx context.Context, accountID string) (*models.Transaction, string, error) {
	const op = OpApplyInterest

	cfg, err := e.store.GetInterestConfig(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", e.fail(op, apperrors.ErrInterestConfigNotFound)
		}
		return nil, "", e.fail(op, apperrors.Wrap(apperrors.ErrInternalServer, err))
	}
	if !cfg.IsActive {
		return nil, SkipInactive, nil
	}

	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, "", e.fail(op, accountError(err))
	}
	if !account.IsActive {
		return nil, "", e.fail(op, apperrors.ErrAccountNotFound)
	}
	if account.Balance < cfg.MinimumBalance {
		return nil, SkipBelowMinimum, nil
	}

	interest := account.Balance.Percent(cfg.MonthlyRate)
	now := e.now()

	var (
		recorded *models.Transaction
		balance  = account.Balance
		skip     string
	)
	if interest > 0 {
		res, err := e.credit(ctx, op, accountID, interest, &models.Transaction{
			Type:        models.TransactionTypeInterest,
			Description: fmt.Sprintf("Monthly interest at %s%%", cfg.MonthlyRate.String()),
			Category:    models.CategorySavings,
		})
		if err != nil {
			return nil, "", err
		}
		recorded, balance = res.Transaction, res.Balance
	} else {
		skip = SkipNothingToCredit
	}

	if err := e.store.TouchInterestAccrual(ctx, accountID, now); err != nil {
		if recorded != nil {
			// credited but not stamped: a scheduled retry would pay twice
			return nil, "", e.inconsistent(op, err, nil, "account_id", accountID, "transaction_id", recorded.ID)
		}
		return nil, "", e.fail(op, apperrors.Wrap(apperrors.ErrInternalServer, err))
	}

	if recorded != nil {
		e.emit(ctx, Event{
			Type:        EventInterestAccrued,
			AccountID:   accountID,
			Amount:      interest,
			Balance:     balance,
			Transaction: recorded,
		})
	}
	return recorded, skip, nil
}

// BatchOptions tunes RunInterestBatch.
type BatchOptions struct {
	// NotAccruedSince skips accounts whose last accrual is at or after this
	// time. Nil processes every active configuration.
	NotAccruedSince *time.Time
}

// AccountResult is the outcome of one account in a batch.
type AccountResult struct {
	AccountID     string       `json:"account_id"`
	Status        string       `json:"status"`
	Amount        money.Amount `json:"amount"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// BatchReport summarises an interest batch.
type BatchReport struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Succeeded  int             `json:"succeeded"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Results    []AccountResult `json:"results"`
}

func (r *BatchReport) add(res AccountResult) {
	switch res.Status {
	case StatusSuccess:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	case StatusError:
		r.Failed++
	}
	metrics.ObserveInterestAccount(res.Status)
	r.Results = append(r.Results, res)
}

// RunInterestBatch applies monthly interest to every account with an active
// configuration. Accounts are processed independently: a failure is recorded
// in the report and the batch moves on. Only a failure to list the
// configurations, or a cancelled context, ends the batch early.
func (e *Engine) RunInterestBatch(ctx context.Context, opts BatchOptions) (*BatchReport, error) {
	log := logger.Get()
	report := &BatchReport{StartedAt: e.now(), Results: []AccountResult{}}
	defer func() {
		report.FinishedAt = e.now()
		metrics.ObserveInterestBatch(report.FinishedAt.Sub(report.StartedAt))
	}()

	cfgs, err := e.store.ListInterestConfigs(ctx, true)
	if err != nil {
		return report, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, cfg := range cfgs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if opts.NotAccruedSince != nil && cfg.LastAccrualDate != nil && !cfg.LastAccrualDate.Before(*opts.NotAccruedSince) {
			report.add(AccountResult{AccountID: cfg.AccountID, Status: StatusSkipped, Reason: SkipAlreadyAccrued})
			continue
		}

		tx, skip, err := e.applyInterest(ctx, cfg.AccountID)
		switch {
		case err != nil:
			log.Errorw("Interest accrual failed", "account_id", cfg.AccountID, "error", err)
			report.add(AccountResult{AccountID: cfg.AccountID, Status: StatusError, Error: err.Error()})
		case tx == nil:
			report.add(AccountResult{AccountID: cfg.AccountID, Status: StatusSkipped, Reason: skip})
		default:
			report.add(AccountResult{
				AccountID:     cfg.AccountID,
				Status:        StatusSuccess,
				Amount:        tx.Amount,
				TransactionID: tx.ID,
			})
		}
	}

	log.Infow("Interest batch finished",
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
