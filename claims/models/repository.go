package models

import "context"

// ListFilter narrows GetClaims/CountClaims results. Zero-value fields are
// not applied; set fields are AND-combined.
type ListFilter struct {
	Status     ClaimStatus
	PatientID  string
	ProviderID string
	// Limit caps the result size; 0 means unbounded.
	Limit int
	Skip  int
}

// Repository contains the methods needed to interact with stored claims and
// remittances. Every mutation is atomic; claim updates are compare-and-swap
// on the claim's version token.
type Repository interface {
	// CreateClaim inserts a new claim. A prior record under the same
	// claim_id fails with a ConflictError.
	CreateClaim(ctx context.Context, claim *Claim) error

	// GetClaim fails with a NotFoundError when no record exists.
	GetClaim(ctx context.Context, claimID string) (*Claim, error)

	// GetClaims returns claims matching filter, ordered by ingestion time
	// descending.
	GetClaims(ctx context.Context, filter ListFilter) ([]*Claim, error)

	// CountClaims counts matches of filter, ignoring Limit/Skip.
	CountClaims(ctx context.Context, filter ListFilter) (int, error)

	// UpdateClaim writes the claim's mutable fields if and only if the
	// stored version still equals claim.Version; fails with a ConflictError
	// when a concurrent writer got there first, a NotFoundError when the
	// claim is gone. On success claim.Version is advanced.
	UpdateClaim(ctx context.Context, claim *Claim) error

	// DeleteClaim removes the claim and any cached remittance (purge).
	DeleteClaim(ctx context.Context, claimID string) error

	CreateRemittance(ctx context.Context, advice *RemittanceAdvice) error
	GetRemittanceByClaimID(ctx context.Context, claimID string) (*RemittanceAdvice, error)
	DeleteRemittanceForClaim(ctx context.Context, claimID string) error
}
