package domain

import (
	"math"
	"time"
)

// Direction says which way money moves.
type Direction string

const (
	// DirectionCharge debits a user's wallet into the app collection payee.
	DirectionCharge Direction = "charge"
	// DirectionPayout credits a user's payee from the app's wallet.
	DirectionPayout Direction = "payout"
)

// TransactionRequest is a structured charge or payout instruction before it
// is rendered into a provider command.
type TransactionRequest struct {
	Direction      Direction
	Amount         float64 // dollars, positive, cent precision
	CounterpartyID string  // payer wallet for charges, payee for payouts
	Description    string
}

// Validate rejects requests that must never reach the provider.
func (r TransactionRequest) Validate() error {
	if r.Direction != DirectionCharge && r.Direction != DirectionPayout {
		return ErrInvalidInput
	}
	if r.Amount <= 0 || math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return ErrInvalidAmount
	}
	if r.CounterpartyID == "" {
		return ErrInvalidInput
	}
	return nil
}

// TransactionOutcome is the classified result of a charge or payout. Command
// is the exact instruction sent, kept verbatim for audit.
type TransactionOutcome struct {
	Succeeded   bool   `json:"succeeded"`
	Command     string `json:"command"`
	RawResponse string `json:"rawResponse"`
}

// TransactionRecord is the durable audit entry for one provider instruction.
type TransactionRecord struct {
	ID             string    `json:"id"`
	Direction      Direction `json:"direction"`
	Amount         float64   `json:"amount"`
	CounterpartyID string    `json:"counterpartyId"`
	Description    string    `json:"description"`
	Command        string    `json:"command"`
	Succeeded      bool      `json:"succeeded"`
	RawResponse    string    `json:"rawResponse"`
	CreatedAt      time.Time `json:"createdAt"`
}
