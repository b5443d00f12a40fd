package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/domjweb/FastVal/claims/constants"
	"github.com/domjweb/FastVal/claims/edi"
	customErrors "github.com/domjweb/FastVal/claims/errors"
	"github.com/domjweb/FastVal/claims/models"
	"github.com/domjweb/FastVal/log"
)

// Adjustment reason codes carried on remittance CAS segments.
const (
	adjustmentContractual           = "45" // charge exceeds the allowed amount
	adjustmentPatientResponsibility = "3"  // co-payment amount
)

func (s *claimService) GenerateRemittance(ctx context.Context, claimID string) (*models.RemittanceAdvice, error) {
	claim, err := s.repository.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if !claim.Status.Adjudicated() {
		return nil, &customErrors.PreconditionError{
			ClaimID: claimID,
			Msg:     "remittance requires an adjudicated claim",
		}
	}

	cached, err := s.repository.GetRemittanceByClaimID(ctx, claimID)
	if err == nil {
		return cached, nil
	}
	var notFound *customErrors.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	advice := s.buildRemittance(claim)
	advice.Raw835 = edi.Encode835(claim, advice)

	if err := s.repository.CreateRemittance(ctx, advice); err != nil {
		return nil, err
	}

	log.GetCtxLogger(ctx).WithFields(logFields(claim.ClaimID, string(claim.Status))).
		WithField("remittance_id", advice.RemittanceID).
		Info("remittance generated")

	return advice, nil
}

func (s *claimService) GetRemittance835(ctx context.Context, claimID string) (string, error) {
	advice, err := s.GenerateRemittance(ctx, claimID)
	if err != nil {
		return "", err
	}
	return advice.Raw835, nil
}

// buildRemittance derives the financial summary from the adjudicated claim.
// Adjustments account for the full billed-minus-paid gap: a CO-45
// contractual write-off for billed minus allowed, and a PR-3 patient
// responsibility entry for allowed minus paid.
func (s *claimService) buildRemittance(claim *models.Claim) *models.RemittanceAdvice {
	allowed := claim.AllowedAmount.Decimal
	paid := claim.PaidAmount.Decimal
	billed := claim.TotalCharges

	var adjustments []models.AdjustmentDetail
	if writeOff := billed.Sub(allowed); writeOff.IsPositive() {
		adjustments = append(adjustments, models.AdjustmentDetail{
			GroupCode:  "CO",
			ReasonCode: adjustmentContractual,
			Amount:     writeOff,
		})
	}
	if patient := allowed.Sub(paid); patient.IsPositive() {
		adjustments = append(adjustments, models.AdjustmentDetail{
			GroupCode:  "PR",
			ReasonCode: adjustmentPatientResponsibility,
			Amount:     patient,
		})
	}

	total := decimal.Zero
	for _, adj := range adjustments {
		total = total.Add(adj.Amount)
	}

	now := time.Now()

	return &models.RemittanceAdvice{
		RemittanceID:     generateID(constants.RemittanceIDPrefix, 12),
		ClaimID:          claim.ClaimID,
		CheckNumber:      generateID(constants.CheckNumberPrefix, 8),
		PaymentDate:      now.Format("2006-01-02"),
		PaymentMethod:    s.cfg.PaymentMethod,
		PayerID:          s.cfg.PayerID,
		PayerName:        s.cfg.PayerName,
		TotalBilled:      billed,
		TotalAllowed:     allowed,
		TotalPaid:        paid,
		TotalAdjustments: total,
		Adjustments:      adjustments,
		CreatedAt:        now,
	}
}
