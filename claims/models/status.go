package models

import "fmt"

type ClaimStatus string

const (
	ClaimStatusReceived    ClaimStatus = "RECEIVED"
	ClaimStatusValidated   ClaimStatus = "VALIDATED"
	ClaimStatusProcessing  ClaimStatus = "PROCESSING"
	ClaimStatusAdjudicated ClaimStatus = "ADJUDICATED"
	ClaimStatusDenied      ClaimStatus = "DENIED"
	ClaimStatusPaid        ClaimStatus = "PAID"
	ClaimStatusPending     ClaimStatus = "PENDING"
)

// validTransitions is the single source of truth for the claim lifecycle:
//
//	RECEIVED --validate ok--> VALIDATED --adjudicate--> ADJUDICATED | DENIED
//	ADJUDICATED --post payment--> PAID
//	RECEIVED|VALIDATED|PROCESSING --hold--> PENDING --resume--> VALIDATED
//
// DENIED and PAID are terminal. Re-adjudication requires an administrative
// reset, which bypasses this table deliberately.
var validTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusReceived:    {ClaimStatusValidated, ClaimStatusPending},
	ClaimStatusValidated:   {ClaimStatusProcessing, ClaimStatusAdjudicated, ClaimStatusDenied, ClaimStatusPending},
	ClaimStatusProcessing:  {ClaimStatusAdjudicated, ClaimStatusDenied, ClaimStatusPending},
	ClaimStatusAdjudicated: {ClaimStatusPaid},
	ClaimStatusDenied:      {},
	ClaimStatusPaid:        {},
	ClaimStatusPending:     {ClaimStatusValidated},
}

func (s ClaimStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Adjudicated reports whether a payment decision has been made and a
// remittance advice may exist for the claim.
func (s ClaimStatus) Adjudicated() bool {
	return s == ClaimStatusAdjudicated || s == ClaimStatusPaid
}

// Adjudicable reports whether the claim may receive a payment decision.
// PROCESSING is included so an interrupted adjudication attempt can be
// retried.
func (s ClaimStatus) Adjudicable() bool {
	return s == ClaimStatusValidated || s == ClaimStatusProcessing
}

func (s ClaimStatus) Terminal() bool {
	return s == ClaimStatusDenied || s == ClaimStatusPaid
}

func ParseClaimStatus(value string) (ClaimStatus, error) {
	s := ClaimStatus(value)
	if !s.Valid() {
		return "", fmt.Errorf("unrecognized claim status %q", value)
	}
	return s, nil
}
