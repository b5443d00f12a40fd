package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pborman/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/domjweb/FastVal/claims/constants"
	"github.com/domjweb/FastVal/claims/edi"
	customErrors "github.com/domjweb/FastVal/claims/errors"
	"github.com/domjweb/FastVal/claims/models"
	"github.com/domjweb/FastVal/log"
)

// conflictRetryInterval spaces the single automatic retry of an adjudication
// that lost a concurrent-write race.
const conflictRetryInterval = 50 * time.Millisecond

// Decision is the payer's ruling on a validated claim. PaidAmount, when set,
// is a manual override used verbatim; DenialReason is required on deny.
type Decision struct {
	Approve      bool                `json:"approve"`
	PaidAmount   decimal.NullDecimal `json:"paid_amount,omitempty"`
	DenialReason string              `json:"denial_reason,omitempty"`
}

// Service is the claim lifecycle engine: ingestion, adjudication,
// administrative status moves, and remittance generation.
type Service interface {
	// IngestClaim parses and validates an 837 document, stores the claim,
	// and returns it. Validation failures do not block storage; the claim
	// stays in RECEIVED with its reasons attached.
	IngestClaim(ctx context.Context, document io.Reader) (*models.Claim, error)

	GetClaim(ctx context.Context, claimID string) (*models.Claim, error)

	// ListClaims returns the matching page plus the unpaginated match count.
	ListClaims(ctx context.Context, filter models.ListFilter) ([]*models.Claim, int, error)

	// Adjudicate applies a payment decision to a VALIDATED (or interrupted
	// PROCESSING) claim. A lost write race is retried once with a fresh
	// read before the ConflictError surfaces.
	Adjudicate(ctx context.Context, claimID string, decision Decision) (*models.Claim, error)

	// UpdateStatus performs the administrative moves: hold (PENDING),
	// resume (VALIDATED), and payment posting (PAID).
	UpdateStatus(ctx context.Context, claimID string, target models.ClaimStatus) (*models.Claim, error)

	// ResetAdjudication reverses a decision, returning the claim to
	// VALIDATED and discarding its remittance so re-adjudication can occur.
	ResetAdjudication(ctx context.Context, claimID string) (*models.Claim, error)

	DeleteClaim(ctx context.Context, claimID string) error

	// GenerateRemittance returns the cached advice for an adjudicated
	// claim, generating and persisting it on first request.
	GenerateRemittance(ctx context.Context, claimID string) (*models.RemittanceAdvice, error)

	// GetRemittance835 returns the advice rendered as an X12 835 document.
	GetRemittance835(ctx context.Context, claimID string) (string, error)
}

type claimService struct {
	repository models.Repository
	cfg        *Config
	policy     AllowancePolicy
}

func NewService(repository models.Repository, cfg *Config, policy AllowancePolicy) Service {
	return &claimService{repository: repository, cfg: cfg, policy: policy}
}

func (s *claimService) IngestClaim(ctx context.Context, document io.Reader) (*models.Claim, error) {
	claim, err := edi.Parse(document)
	if err != nil {
		return nil, err
	}

	if claim.ClaimID == "" {
		claim.ClaimID = generateID(constants.ClaimIDPrefix, 12)
	}

	result := ValidateClaim(claim)
	if result.OK {
		claim.Status = models.ClaimStatusValidated
	} else {
		claim.ValidationReasons = result.Reasons
	}

	if err := s.repository.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	log.GetCtxLogger(ctx).WithFields(logFields(claim.ClaimID, string(claim.Status))).
		Info("claim ingested")

	return claim, nil
}

func (s *claimService) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	return s.repository.GetClaim(ctx, claimID)
}

func (s *claimService) ListClaims(ctx context.Context, filter models.ListFilter) ([]*models.Claim, int, error) {
	claims, err := s.repository.GetClaims(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repository.CountClaims(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return claims, count, nil
}

func (s *claimService) Adjudicate(ctx context.Context, claimID string, decision Decision) (*models.Claim, error) {
	var claim *models.Claim

	operation := func() error {
		var err error
		claim, err = s.adjudicateOnce(ctx, claimID, decision)
		if err != nil {
			var conflict *customErrors.ConflictError
			if errors.As(err, &conflict) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(conflictRetryInterval), 1)
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	return claim, nil
}

func (s *claimService) adjudicateOnce(ctx context.Context, claimID string, decision Decision) (*models.Claim, error) {
	claim, err := s.repository.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if !claim.Status.Adjudicable() {
		return nil, &customErrors.InvalidTransitionError{
			ClaimID: claimID,
			From:    string(claim.Status),
			To:      string(decisionTarget(decision)),
		}
	}

	if decision.Approve {
		if err := s.approve(claim, decision); err != nil {
			return nil, err
		}
	} else {
		if err := deny(claim, decision); err != nil {
			return nil, err
		}
	}

	if err := s.repository.UpdateClaim(ctx, claim); err != nil {
		return nil, err
	}

	log.GetCtxLogger(ctx).WithFields(logFields(claim.ClaimID, string(claim.Status))).
		Info("claim adjudicated")

	return claim, nil
}

func (s *claimService) approve(claim *models.Claim, decision Decision) error {
	var allowed, paid decimal.Decimal

	if decision.PaidAmount.Valid {
		// Manual override: the supplied amount is used verbatim, and the
		// allowed amount is pinned to it so the invariant holds.
		paid = decision.PaidAmount.Decimal
		allowed = paid
	} else {
		allowed = s.policy.AllowedAmount(claim)
		paid = allowed.Sub(s.cfg.Copay())
		if paid.IsNegative() {
			paid = decimal.Zero
		}
	}

	if paid.IsNegative() || paid.GreaterThan(allowed) || allowed.GreaterThan(claim.TotalCharges) {
		return &customErrors.AdjudicationError{
			Reason: customErrors.AdjudicationAmountOutOfRange,
			Msg: fmt.Sprintf("paid %s and allowed %s must satisfy 0 <= paid <= allowed <= total charges %s",
				paid, allowed, claim.TotalCharges),
		}
	}

	claim.AllowedAmount = decimal.NewNullDecimal(allowed)
	claim.PaidAmount = decimal.NewNullDecimal(paid)
	claim.Status = models.ClaimStatusAdjudicated
	claim.DenialReason = ""

	return nil
}

func deny(claim *models.Claim, decision Decision) error {
	if strings.TrimSpace(decision.DenialReason) == "" {
		return &customErrors.AdjudicationError{
			Reason: customErrors.AdjudicationMissingReason,
			Msg:    "denial requires a non-empty denial_reason",
		}
	}

	claim.Status = models.ClaimStatusDenied
	claim.DenialReason = decision.DenialReason
	claim.AllowedAmount = decimal.NewNullDecimal(decimal.Zero)
	claim.PaidAmount = decimal.NewNullDecimal(decimal.Zero)

	return nil
}

// adminTargets are the only statuses an administrative override may request.
var adminTargets = map[models.ClaimStatus]bool{
	models.ClaimStatusPending:   true,
	models.ClaimStatusValidated: true,
	models.ClaimStatusPaid:      true,
}

func (s *claimService) UpdateStatus(ctx context.Context, claimID string, target models.ClaimStatus) (*models.Claim, error) {
	claim, err := s.repository.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if !adminTargets[target] || !claim.Status.CanTransitionTo(target) {
		return nil, &customErrors.InvalidTransitionError{
			ClaimID: claimID,
			From:    string(claim.Status),
			To:      string(target),
		}
	}

	claim.Status = target
	if err := s.repository.UpdateClaim(ctx, claim); err != nil {
		return nil, err
	}

	log.GetCtxLogger(ctx).WithFields(logFields(claim.ClaimID, string(claim.Status))).
		Info("claim status updated")

	return claim, nil
}

func (s *claimService) ResetAdjudication(ctx context.Context, claimID string) (*models.Claim, error) {
	claim, err := s.repository.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if claim.Status != models.ClaimStatusAdjudicated && claim.Status != models.ClaimStatusDenied {
		return nil, &customErrors.PreconditionError{
			ClaimID: claimID,
			Msg:     fmt.Sprintf("cannot reset adjudication from status %s", claim.Status),
		}
	}

	// Reset deliberately bypasses the forward-only transition table.
	claim.Status = models.ClaimStatusValidated
	claim.AllowedAmount = decimal.NullDecimal{}
	claim.PaidAmount = decimal.NullDecimal{}
	claim.DenialReason = ""

	if err := s.repository.UpdateClaim(ctx, claim); err != nil {
		return nil, err
	}

	// A stale remittance must not survive the reset; the next generation
	// reflects the new decision.
	if err := s.repository.DeleteRemittanceForClaim(ctx, claimID); err != nil {
		return nil, err
	}

	log.GetCtxLogger(ctx).WithFields(logFields(claim.ClaimID, string(claim.Status))).
		Info("claim adjudication reset")

	return claim, nil
}

func (s *claimService) DeleteClaim(ctx context.Context, claimID string) error {
	if err := s.repository.DeleteClaim(ctx, claimID); err != nil {
		return err
	}
	log.GetCtxLogger(ctx).WithField("claim_id", claimID).Info("claim purged")
	return nil
}

func decisionTarget(decision Decision) models.ClaimStatus {
	if decision.Approve {
		return models.ClaimStatusAdjudicated
	}
	return models.ClaimStatusDenied
}

func generateID(prefix string, length int) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.New(), "-", ""))
	return prefix + hex[:length]
}

func logFields(claimID, status string) logrus.Fields {
	return logrus.Fields{"claim_id": claimID, "status": status}
}
