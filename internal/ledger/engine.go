// Package ledger implements the money movements of the service: deposits,
// withdrawals, goal contributions and cancellations, fulfillment and purchase
// request state machines, and interest accrual.
//
// Every balance change goes through a conditional store update, so a balance
// can never become negative even when requests race. Operations that touch two
// rows always debit first and compensate on failure; when the compensation
// itself fails the engine returns an Inconsistent error and logs the details
// needed for manual reconciliation.
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

// Operation names, used for metrics and reconciliation logs.
const (
	OpDeposit                = "deposit"
	OpWithdraw               = "withdraw"
	OpContributeToGoal       = "contribute_to_goal"
	OpCancelGoal             = "cancel_goal"
	OpRequestFulfillment     = "request_fulfillment"
	OpResolveFulfillment     = "resolve_fulfillment"
	OpResolvePurchaseRequest = "resolve_purchase_request"
	OpChargePurchaseRequest  = "charge_purchase_request"
	OpApplyInterest          = "apply_interest"
)

// Action is a parent's decision on a pending fulfillment or purchase request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool { return a == ActionApprove || a == ActionReject }

// BalanceResult is returned by single-account operations.
type BalanceResult struct {
	Balance     money.Amount        `json:"balance"`
	Account     *models.Account     `json:"account"`
	Transaction *models.Transaction `json:"transaction"`
}

// GoalResult is returned by goal operations. Transaction is nil when no money moved.
type GoalResult struct {
	Goal        *models.Goal        `json:"goal"`
	Balance     money.Amount        `json:"balance"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// ChargeResult is returned by ChargePurchaseRequest.
type ChargeResult struct {
	Request     *models.PurchaseRequest `json:"request"`
	Balance     money.Amount            `json:"balance"`
	Transaction *models.Transaction     `json:"transaction"`
}

// Engine performs ledger operations against a Store.
type Engine struct {
	store store.Store
	log   *TransactionLog
	sink  EventSink
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventSink sets the sink that receives events of committed operations.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.log.now = now
	}
}

// NewEngine creates a new Engine.
func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		log:   NewTransactionLog(st),
		sink:  nopSink{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transactions returns the engine's transaction log.
func (e *Engine) Transactions() *TransactionLog { return e.log }

// Deposit credits an account with an earning, allowance or interest payment.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount money.Amount, txType models.TransactionType, description string) (*BalanceResult, error) {
	switch txType {
	case models.TransactionTypeEarning, models.TransactionTypeAllowance, models.TransactionTypeInterest:
	default:
		return nil, e.fail(OpDeposit, apperrors.WithMessage(apperrors.ErrInvalidInput, "deposit type must be earning, allowance or interest"))
	}

	res, err := e.credit(ctx, OpDeposit, accountID, amount, &models.Transaction{
		Type:        txType,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, Event{
		Type:        EventDeposit,
		AccountID:   accountID,
		Amount:      amount,
		Balance:     res.Balance,
		Transaction: res.Transaction,
	})
	return res, nil
}

// credit adds amount to the balance and total earned, then records tx.
func (e *Engine) credit(ctx context.Context, op, accountID string, amount money.Amount, tx *models.Transaction) (*BalanceResult, error) {
	if !amount.IsPositive() {
		return nil, e.fail(op, apperrors.ErrInvalidAmount)
	}

	adj := store.BalanceAdjustment{Delta: amount, Earned: amount}
	account, err := e.store.AdjustBalance(ctx, accountID, adj)
	if err != nil {
		return nil, e.fail(op, accountError(err))
	}

	tx.AccountID = accountID
	tx.Amount = amount
	recorded, err := e.log.Append(ctx, tx)
	if err != nil {
		return nil, e.undoAdjustment(ctx, op, accountID, adj, err)
	}

	e.succeed(op, amount)
	return &BalanceResult{Balance: account.Balance, Account: account, Transaction: recorded}, nil
}

// Withdraw debits an account for spending. The debit is rejected with
// InsufficientFunds when it would make the balance negative.
func (e *Engine) Withdraw(ctx context.Context, accountID string, amount money.Amount, category models.Category, description string) (*BalanceResult, error) {
	if !amount.IsPositive() {
		return nil, e.fail(OpWithdraw, apperrors.ErrInvalidAmount)
	}
	if category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		return nil, e.fail(OpWithdraw, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category "+string(category)))
	}

	adj := store.BalanceAdjustment{Delta: -amount, Spent: amount}
	account, err := e.store.AdjustBalance(ctx, accountID, adj)
	if err != nil {
		return nil, e.fail(OpWithdraw, accountError(err))
	}

	recorded, err := e.log.Append(ctx, &models.Transaction{
		AccountID:   accountID,
		Type:        models.TransactionTypeSpending,
		Amount:      -amount,
		Description: description,
		Category:    category,
	})
	if err != nil {
		return nil, e.undoAdjustment(ctx, OpWithdraw, accountID, adj, err)
	}

	e.succeed(OpWithdraw, amount)
	e.emit(ctx, Event{
		Type:        EventWithdrawal,
		AccountID:   accountID,
		Amount:      amount,
		Balance:     account.Balance,
		Transaction: recorded,
	})
	return &BalanceResult{Balance: account.Balance, Account: account, Transaction: recorded}, nil
}

// ContributeToGoal moves amount from the account's spendable balance into
// one of its goals. The account is debited first; if the goal update then
// fails the debit is reversed.
func (e *Engine) ContributeToGoal(ctx context.Context, accountID, goalID string, amount money.Amount) (*GoalResult, error) {
	const op = OpContributeToGoal
	if !amount.IsPositive() {
		return nil, e.fail(op, apperrors.ErrInvalidAmount)
	}

	goal, err := e.ownedGoal(ctx, accountID, goalID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if !goal.IsActive {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrGoalState, "goal is not active"))
	}
	if goal.IsCompleted {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrGoalState, "goal is already completed"))
	}
	if amount > goal.Remaining() {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrInvalidAmount,
			fmt.Sprintf("amount exceeds the %s still needed for this goal", goal.Remaining())))
	}

	// fast path only; the conditional debit below decides
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, e.fail(op, accountError(err))
	}
	if !account.IsActive {
		return nil, e.fail(op, apperrors.ErrAccountNotFound)
	}
	if account.Balance < amount {
		return nil, e.fail(op, apperrors.ErrInsufficientFunds)
	}

	adj := store.BalanceAdjustment{Delta: -amount, Spent: amount}
	account, err = e.store.AdjustBalance(ctx, accountID, adj)
	if err != nil {
		return nil, e.fail(op, accountError(err))
	}

	now := e.now()
	goal, err = e.store.AddToGoal(ctx, goalID, amount, now)
	if err != nil {
		return nil, e.undoAdjustment(ctx, op, accountID, adj, goalError(err, "goal is no longer accepting contributions"),
			"goal_id", goalID)
	}

	recorded, err := e.log.Append(ctx, &models.Transaction{
		AccountID:   accountID,
		Type:        models.TransactionTypeGoalDeposit,
		Amount:      -amount,
		Description: "Saved towards " + goal.Name,
		Category:    goal.Category,
		GoalID:      &goal.ID,
	})
	if err != nil {
		return nil, e.inconsistent(op, err, nil, "account_id", accountID, "goal_id", goalID, "amount", amount.String())
	}

	e.succeed(op, amount)
	e.emit(ctx, Event{
		Type:        EventGoalContribution,
		AccountID:   accountID,
		GoalID:      goal.ID,
		Amount:      amount,
		Balance:     account.Balance,
		Transaction: recorded,
	})
	if goal.IsCompleted {
		e.emit(ctx, Event{
			Type:      EventGoalCompleted,
			AccountID: accountID,
			GoalID:    goal.ID,
			Amount:    goal.CurrentAmount,
			Balance:   account.Balance,
		})
	}
	return &GoalResult{Goal: goal, Balance: account.Balance, Transaction: recorded}, nil
}

// CancelGoal deactivates a goal and returns its saved amount to the account.
// Completed goals cannot be cancelled and cancelling twice is an error.
func (e *Engine) CancelGoal(ctx context.Context, accountID, goalID string) (*GoalResult, error) {
	const op = OpCancelGoal

	goal, err := e.ownedGoal(ctx, accountID, goalID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if goal.IsCompleted {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrGoalState, "cannot cancel completed goal"))
	}
	if !goal.IsActive {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrGoalState, "goal is already cancelled"))
	}

	returned := goal.CurrentAmount
	cancelled, err := e.store.CancelGoal(ctx, goalID, returned)
	if err != nil {
		return nil, e.fail(op, goalError(err, "goal changed while cancelling, try again"))
	}

	if returned == 0 {
		account, err := e.store.GetAccount(ctx, accountID)
		if err != nil {
			return nil, e.fail(op, accountError(err))
		}
		e.succeed(op, 0)
		e.emit(ctx, Event{Type: EventGoalCancelled, AccountID: accountID, GoalID: goalID, Balance: account.Balance})
		return &GoalResult{Goal: cancelled, Balance: account.Balance}, nil
	}

	// moving money back from a goal is neither an earning nor a spending
	adj := store.BalanceAdjustment{Delta: returned}
	account, err := e.store.AdjustBalance(ctx, accountID, adj)
	if err != nil {
		cause := accountError(err)
		if rerr := e.store.RestoreGoal(ctx, goalID, returned); rerr != nil {
			return nil, e.inconsistent(op, cause, rerr, "account_id", accountID, "goal_id", goalID, "amount", returned.String())
		}
		return nil, e.fail(op, cause)
	}

	recorded, err := e.log.Append(ctx, &models.Transaction{
		AccountID:   accountID,
		Type:        models.TransactionTypeGoalWithdrawal,
		Amount:      returned,
		Description: "Cancelled goal " + goal.Name,
		Category:    goal.Category,
		GoalID:      &goal.ID,
	})
	if err != nil {
		return nil, e.inconsistent(op, err, nil, "account_id", accountID, "goal_id", goalID, "amount", returned.String())
	}

	e.succeed(op, returned)
	e.emit(ctx, Event{
		Type:        EventGoalCancelled,
		AccountID:   accountID,
		GoalID:      goalID,
		Amount:      returned,
		Balance:     account.Balance,
		Transaction: recorded,
	})
	return &GoalResult{Goal: cancelled, Balance: account.Balance, Transaction: recorded}, nil
}

// RequestFulfillment asks the parent to redeem a goal that reached its target.
func (e *Engine) RequestFulfillment(ctx context.Context, accountID, goalID string) (*models.Goal, error) {
	const op = OpRequestFulfillment

	goal, err := e.ownedGoal(ctx, accountID, goalID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if err := fulfillmentRequestable(goal); err != nil {
		return nil, e.fail(op, err)
	}

	updated, err := e.store.TransitionFulfillment(ctx, goalID, models.FulfillmentNone, models.FulfillmentPending, e.now())
	if err != nil {
		return nil, e.fail(op, goalError(err, "fulfillment already requested"))
	}

	e.succeed(op, 0)
	e.emit(ctx, Event{
		Type:      EventFulfillmentRequested,
		AccountID: accountID,
		GoalID:    goalID,
		Amount:    updated.CurrentAmount,
		Status:    string(updated.FulfillmentStatus),
	})
	return updated, nil
}

func fulfillmentRequestable(goal *models.Goal) error {
	switch goal.FulfillmentStatus {
	case models.FulfillmentPending:
		return apperrors.WithMessage(apperrors.ErrGoalState, "fulfillment already requested")
	case models.FulfillmentApproved:
		return apperrors.WithMessage(apperrors.ErrGoalState, "goal has already been fulfilled")
	case models.FulfillmentRejected:
		return apperrors.WithMessage(apperrors.ErrGoalState, "fulfillment request was rejected")
	}
	if goal.CurrentAmount < goal.TargetAmount {
		return apperrors.WithMessage(apperrors.ErrGoalState, "goal has not reached its target")
	}
	return nil
}

// ResolveFulfillment approves or rejects a pending fulfillment request.
// Both outcomes are terminal.
func (e *Engine) ResolveFulfillment(ctx context.Context, parentID, goalID string, action Action) (*models.Goal, error) {
	const op = OpResolveFulfillment
	if !action.Valid() {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrInvalidInput, "action must be approve or reject"))
	}

	goal, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, e.fail(op, goalError(err, ""))
	}
	account, err := e.store.GetAccount(ctx, goal.AccountID)
	if err != nil {
		return nil, e.fail(op, accountError(err))
	}
	if !account.OwnedBy(parentID) {
		return nil, e.fail(op, apperrors.ErrGoalForbidden)
	}
	if goal.FulfillmentStatus != models.FulfillmentPending {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrGoalState, "no pending fulfillment request"))
	}

	to := models.FulfillmentApproved
	if action == ActionReject {
		to = models.FulfillmentRejected
	}
	updated, err := e.store.TransitionFulfillment(ctx, goalID, models.FulfillmentPending, to, e.now())
	if err != nil {
		return nil, e.fail(op, goalError(err, "no pending fulfillment request"))
	}

	e.succeed(op, 0)
	e.emit(ctx, Event{
		Type:      EventFulfillmentResolved,
		AccountID: goal.AccountID,
		GoalID:    goalID,
		Amount:    updated.CurrentAmount,
		Status:    string(to),
	})
	return updated, nil
}

// ResolvePurchaseRequest records a parent's decision on a pending request.
// Approval does not move money; see ChargePurchaseRequest.
func (e *Engine) ResolvePurchaseRequest(ctx context.Context, requestID, parentID string, action Action, comment string) (*models.PurchaseRequest, error) {
	const op = OpResolvePurchaseRequest
	if !action.Valid() {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrInvalidInput, "action must be approve or reject"))
	}

	req, err := e.ownedPurchaseRequest(ctx, requestID, parentID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if req.Status != models.PurchaseStatusPending {
		return nil, e.fail(op, apperrors.ErrPurchaseRequestState)
	}

	status := models.PurchaseStatusApproved
	if action == ActionReject {
		status = models.PurchaseStatusRejected
	}
	updated, err := e.store.ResolvePurchaseRequest(ctx, requestID, status, comment, e.now())
	if err != nil {
		return nil, e.fail(op, purchaseError(err, apperrors.ErrPurchaseRequestState.Message))
	}

	e.succeed(op, 0)
	e.emit(ctx, Event{
		Type:      EventPurchaseResolved,
		AccountID: updated.AccountID,
		RequestID: updated.ID,
		Amount:    updated.Amount,
		Status:    string(updated.Status),
	})
	return updated, nil
}

// ChargePurchaseRequest debits the child for an approved request. Each
// request can be charged once.
func (e *Engine) ChargePurchaseRequest(ctx context.Context, requestID, parentID string) (*ChargeResult, error) {
	const op = OpChargePurchaseRequest

	req, err := e.ownedPurchaseRequest(ctx, requestID, parentID)
	if err != nil {
		return nil, e.fail(op, err)
	}
	if req.Status != models.PurchaseStatusApproved {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrPurchaseRequestState, "only approved requests can be charged"))
	}
	if req.ChargedAt != nil {
		return nil, e.fail(op, apperrors.WithMessage(apperrors.ErrPurchaseRequestState, "purchase request has already been charged"))
	}

	adj := store.BalanceAdjustment{Delta: -req.Amount, Spent: req.Amount}
	account, err := e.store.AdjustBalance(ctx, req.AccountID, adj)
	if err != nil {
		return nil, e.fail(op, accountError(err))
	}

	charged, err := e.store.MarkPurchaseCharged(ctx, requestID, e.now())
	if err != nil {
		return nil, e.undoAdjustment(ctx, op, req.AccountID, adj,
			purchaseError(err, "purchase request has already been charged"), "request_id", requestID)
	}

	recorded, err := e.log.Append(ctx, &models.Transaction{
		AccountID:         req.AccountID,
		Type:              models.TransactionTypeSpending,
		Amount:            -req.Amount,
		Description:       "Purchase: " + req.Item,
		Category:          req.Category,
		PurchaseRequestID: &charged.ID,
	})
	if err != nil {
		return nil, e.inconsistent(op, err, nil, "account_id", req.AccountID, "request_id", requestID, "amount", req.Amount.String())
	}

	e.succeed(op, req.Amount)
	e.emit(ctx, Event{
		Type:        EventPurchaseCharged,
		AccountID:   req.AccountID,
		RequestID:   requestID,
		Amount:      req.Amount,
		Balance:     account.Balance,
		Transaction: recorded,
	})
	return &ChargeResult{Request: charged, Balance: account.Balance, Transaction: recorded}, nil
}

// ownedGoal loads a goal and checks it belongs to accountID.
func (e *Engine) ownedGoal(ctx context.Context, accountID, goalID string) (*models.Goal, error) {
	goal, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, goalError(err, "")
	}
	if goal.AccountID != accountID {
		return nil, apperrors.ErrGoalForbidden
	}
	return goal, nil
}

func (e *Engine) ownedPurchaseRequest(ctx context.Context, requestID, parentID string) (*models.PurchaseRequest, error) {
	req, err := e.store.GetPurchaseRequest(ctx, requestID)
	if err != nil {
		return nil, purchaseError(err, "")
	}
	if req.ParentID != parentID {
		return nil, apperrors.ErrPurchaseRequestForbidden
	}
	return req, nil
}

// undoAdjustment reverses adj after a later step of op failed with cause.
func (e *Engine) undoAdjustment(ctx context.Context, op, accountID string, adj store.BalanceAdjustment, cause error, fields ...interface{}) error {
	if _, err := e.store.AdjustBalance(ctx, accountID, adj.Reverse()); err != nil {
		fields = append([]interface{}{"account_id", accountID, "delta", adj.Delta.String()}, fields...)
		return e.inconsistent(op, cause, err, fields...)
	}
	return e.fail(op, cause)
}

// inconsistent logs a state that needs manual reconciliation and returns the
// Inconsistent error. reversalErr is nil when no compensation was possible.
func (e *Engine) inconsistent(op string, cause, reversalErr error, fields ...interface{}) error {
	kv := append([]interface{}{"operation", op, "cause", cause, "reversal_error", reversalErr}, fields...)
	logger.Get().Errorw("Ledger reconciliation required", kv...)
	metrics.ReconciliationFailure(op)
	metrics.ObserveOperation(op, metrics.OutcomeInconsistent)

	internal := cause
	if reversalErr != nil {
		internal = fmt.Errorf("%w (reversal failed: %v)", cause, reversalErr)
	}
	return apperrors.Wrap(apperrors.ErrInconsistent, internal)
}

func (e *Engine) fail(op string, err error) error {
	outcome := metrics.OutcomeRejected
	switch apperrors.KindOf(err) {
	case apperrors.KindInsufficientFunds:
		outcome = metrics.OutcomeInsufficientFunds
	case apperrors.KindInternal:
		outcome = metrics.OutcomeError
	}
	metrics.ObserveOperation(op, outcome)
	return err
}

func (e *Engine) succeed(op string, amount money.Amount) {
	metrics.ObserveOperation(op, metrics.OutcomeSuccess)
	if amount != 0 {
		metrics.AddVolume(op, amount.Cents())
	}
}

func (e *Engine) emit(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	if err := e.sink.Handle(ctx, event); err != nil {
		logger.Get().Warnw("Ledger event sink failed",
			"event", event.Type,
			"account_id", event.AccountID,
			"error", err,
		)
	}
}

func accountError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.ErrAccountNotFound
	case errors.Is(err, store.ErrInsufficientFunds):
		return apperrors.ErrInsufficientFunds
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// goalError maps a store error for a goal. conflictMsg describes a
// conditional update that no longer matched.
func goalError(err error, conflictMsg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.ErrGoalNotFound
	case errors.Is(err, store.ErrConflict):
		return apperrors.WithMessage(apperrors.ErrGoalState, conflictMsg)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func purchaseError(err error, conflictMsg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.ErrPurchaseRequestNotFound
	case errors.Is(err, store.ErrConflict):
		return apperrors.WithMessage(apperrors.ErrPurchaseRequestState, conflictMsg)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
