package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/domjweb/FastVal/claims/models"
)

func validClaim() *models.Claim {
	return &models.Claim{
		ClaimID:      "CLM-TEST0001",
		ClaimType:    models.ClaimTypeProfessional,
		PatientID:    "PAT001",
		PatientName:  "DOE JOHN",
		ProviderID:   "1234567890",
		ProviderName: "ACME MEDICAL GROUP",
		ProviderNPI:  "1234567890",
		ServiceLines: []models.ServiceLine{
			{LineNumber: 1, ProcedureCode: "99213", Units: 1, ChargeAmount: decimal.RequireFromString("100.00")},
			{LineNumber: 2, ProcedureCode: "85025", Units: 1, ChargeAmount: decimal.RequireFromString("250.50")},
		},
		DiagnosisCodes: []string{"I10"},
		ProcedureCodes: []string{"99213", "85025"},
		TotalCharges:   decimal.RequireFromString("350.50"),
		Status:         models.ClaimStatusReceived,
	}
}

func TestValidateClaim(t *testing.T) {
	result := ValidateClaim(validClaim())
	assert.True(t, result.OK)
	assert.Empty(t, result.Reasons)
}

func TestValidateClaimReportsAllFailures(t *testing.T) {
	claim := validClaim()
	claim.PatientID = ""
	claim.PatientName = ""
	claim.ProviderID = ""
	claim.ProviderName = ""
	claim.ServiceLines = nil

	result := ValidateClaim(claim)
	assert.False(t, result.OK)
	// Independent checks: every failure is reported, not just the first.
	assert.Contains(t, result.Reasons, "missing patient name")
	assert.Contains(t, result.Reasons, "missing patient ID")
	assert.Contains(t, result.Reasons, "missing provider name")
	assert.Contains(t, result.Reasons, "missing provider ID")
	assert.Contains(t, result.Reasons, "missing service lines")
	assert.Contains(t, result.Reasons, "total charges do not match the sum of service line charges")
}

func TestValidateClaimNPI(t *testing.T) {
	claim := validClaim()
	claim.ProviderNPI = "12345"

	result := ValidateClaim(claim)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reasons, `provider NPI "12345" is not a 10-digit identifier`)

	// NPI is optional; absence is not a failure.
	claim = validClaim()
	claim.ProviderNPI = ""
	assert.True(t, ValidateClaim(claim).OK)
}

func TestValidateClaimServiceLineAmounts(t *testing.T) {
	claim := validClaim()
	claim.ServiceLines[0].ChargeAmount = decimal.Zero
	claim.ServiceLines[1].Units = 0
	claim.TotalCharges = claim.LineChargeTotal()

	result := ValidateClaim(claim)
	assert.False(t, result.OK)
	assert.Contains(t, result.Reasons, "service line 1: charge amount must be greater than zero")
	assert.Contains(t, result.Reasons, "service line 2: units must be greater than zero")
}

func TestValidateClaimTotalTamper(t *testing.T) {
	claim := validClaim()
	claim.TotalCharges = decimal.RequireFromString("999.99")

	result := ValidateClaim(claim)
	assert.False(t, result.OK)
	assert.Equal(t, []string{"total charges do not match the sum of service line charges"}, result.Reasons)
}
