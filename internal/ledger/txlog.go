package ledger

import (
	"context"
	"time"
	"unicode/utf8"

	apperrors "piggybank/internal/errors"
	"piggybank/internal/logger"
	"piggybank/internal/models"
	"piggybank/internal/store"
	"piggybank/internal/uuid"
)

const (
	// DefaultPageSize is used when ListByAccount is called without a limit.
	DefaultPageSize = 20
	// MaxPageSize caps the limit of ListByAccount.
	MaxPageSize = 100

	maxDescriptionLength = 255
)

// TransactionLog is the append-only history of ledger movements. Records are
// never updated; Purge is reserved for administrative tooling and leaves
// account balances alone because they are not derived from the log.
type TransactionLog struct {
	store store.TransactionStore
	now   func() time.Time
}

// NewTransactionLog creates a TransactionLog on top of st.
func NewTransactionLog(st store.TransactionStore) *TransactionLog {
	return &TransactionLog{store: st, now: time.Now}
}

// Validate checks a record before it is appended: the account reference,
// the type, the sign convention of the type, and field lengths.
func Validate(tx *models.Transaction) error {
	if tx == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, "transaction is required")
	}
	if !uuid.IsValid(tx.AccountID) {
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, "account id is required")
	}
	if !tx.Type.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, "unknown transaction type "+string(tx.Type))
	}
	switch {
	case tx.Type.IsCredit() && tx.Amount <= 0:
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, string(tx.Type)+" amount must be positive")
	case tx.Type.IsDebit() && tx.Amount >= 0:
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, string(tx.Type)+" amount must be negative")
	case tx.Amount == 0:
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, "amount must not be zero")
	}
	if tx.Category != "" && !tx.Category.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, "unknown category "+string(tx.Category))
	}
	if utf8.RuneCountInString(tx.Description) > maxDescriptionLength {
		return apperrors.WithMessage(apperrors.ErrInvalidTransaction, "description is too long")
	}
	return nil
}

// Append validates and stores a new record, assigning its ID and timestamp.
func (l *TransactionLog) Append(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := Validate(tx); err != nil {
		return nil, err
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = l.now()
	}
	if err := l.store.AppendTransaction(ctx, tx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// ListByAccount returns a page of an account's records, newest first, and
// the total number of records.
func (l *TransactionLog) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error) {
	if accountID == "" {
		return nil, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "account id is required")
	}
	if offset < 0 {
		return nil, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	txs, total, err := l.store.ListTransactionsByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, total, nil
}

// Purge hard-deletes every record of an account and returns how many were removed.
func (l *TransactionLog) Purge(ctx context.Context, accountID string) (int64, error) {
	if accountID == "" {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "account id is required")
	}
	n, err := l.store.PurgeTransactions(ctx, accountID)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

// ListTransactions pages an account's history, newest first.
func (e *Engine) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, int64, error) {
	return e.log.ListByAccount(ctx, accountID, limit, offset)
}

// PurgeTransactions erases an account's history. Balances are left as they are.
func (e *Engine) PurgeTransactions(ctx context.Context, accountID string) (int64, error) {
	n, err := e.log.Purge(ctx, accountID)
	if err != nil {
		return 0, err
	}
	logger.Get().Warnw("Transaction history purged", "account_id", accountID, "deleted", n)
	return n, nil
}
