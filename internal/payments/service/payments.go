package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lydia-game/payflow/internal/payments/domain"
	"github.com/lydia-game/payflow/internal/payments/metrics"
	"github.com/lydia-game/payflow/internal/payments/provider"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/lydia-game/payflow/pkg/idx"
)

// PaymentService orchestrates charges, payouts, and balance queries. Every
// money movement is a single non-retrying provider call whose classified
// outcome lands in the audit ledger; the caller mutates no economy state
// until it sees succeeded = true.
type PaymentService struct {
	Gateway provider.Gateway
	Tokens  *TokenManager
	Ledger  store.Transactions
	Logger  *slog.Logger
	Metrics metrics.Collector
}

// Charge debits the payer's wallet (authorized by the user's own credential)
// into the app collection payee.
func (s *PaymentService) Charge(ctx context.Context, credential string, amount float64, payerID, description string) (domain.TransactionOutcome, error) {
	req := domain.TransactionRequest{
		Direction:      domain.DirectionCharge,
		Amount:         amount,
		CounterpartyID: payerID,
		Description:    description,
	}
	if err := req.Validate(); err != nil {
		return domain.TransactionOutcome{}, err
	}

	return s.execute(ctx, "charge", req, credential)
}

// Payout credits the winner's payee. With an empty credential the service
// token authorizes the payout from the app's distribution wallet; a caller
// may instead supply a user credential to pay out of that user's wallet. A
// payout without a resolved payee fails with ErrPayeeUnresolved before any
// provider call.
func (s *PaymentService) Payout(ctx context.Context, credential string, amount float64, payeeID, description string) (domain.TransactionOutcome, error) {
	if payeeID == "" {
		return domain.TransactionOutcome{}, domain.ErrPayeeUnresolved
	}

	req := domain.TransactionRequest{
		Direction:      domain.DirectionPayout,
		Amount:         amount,
		CounterpartyID: payeeID,
		Description:    description,
	}
	if err := req.Validate(); err != nil {
		return domain.TransactionOutcome{}, err
	}

	if credential == "" {
		var err error
		credential, err = s.Tokens.Token(ctx)
		if err != nil {
			return domain.TransactionOutcome{}, err
		}
	}

	return s.execute(ctx, "payout", req, credential)
}

// Balances returns the raw balance listing for the given credential.
func (s *PaymentService) Balances(ctx context.Context, credential string) (provider.CommandResponse, error) {
	start := time.Now()
	resp, err := s.Gateway.GetBalances(ctx, credential)
	s.Metrics.RecordProviderCall("balance", err)
	s.Metrics.RecordProviderLatency("balance", time.Since(start))
	return resp, err
}

// execute issues the instruction once, records metrics, and appends the
// audit record regardless of verdict. The provider call error (if any) is
// returned alongside the failed outcome.
func (s *PaymentService) execute(ctx context.Context, operation string, req domain.TransactionRequest, credential string) (domain.TransactionOutcome, error) {
	start := time.Now()

	var outcome domain.TransactionOutcome
	var err error
	switch req.Direction {
	case domain.DirectionCharge:
		outcome, err = s.Gateway.Charge(ctx, req, credential)
	case domain.DirectionPayout:
		outcome, err = s.Gateway.Payout(ctx, req, credential)
	}

	s.Metrics.RecordProviderCall(operation, err)
	s.Metrics.RecordProviderLatency(operation, time.Since(start))
	s.Metrics.RecordClassification(outcome.Succeeded)

	s.audit(ctx, req, outcome)

	if err != nil {
		return outcome, err
	}
	return outcome, nil
}

// audit appends the ledger record. Ledger failures are logged, not
// propagated: the outcome already happened and the caller needs it.
func (s *PaymentService) audit(ctx context.Context, req domain.TransactionRequest, outcome domain.TransactionOutcome) {
	rec := domain.TransactionRecord{
		ID:             idx.New().String(),
		Direction:      req.Direction,
		Amount:         req.Amount,
		CounterpartyID: req.CounterpartyID,
		Description:    req.Description,
		Command:        outcome.Command,
		Succeeded:      outcome.Succeeded,
		RawResponse:    outcome.RawResponse,
	}

	if err := s.Ledger.CreateTransaction(ctx, rec); err != nil {
		s.Logger.Error("failed to append transaction audit record",
			"direction", rec.Direction,
			"counterparty", rec.CounterpartyID,
			"err", err,
		)
	}
}
