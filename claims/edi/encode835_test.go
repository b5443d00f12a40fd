package edi

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domjweb/FastVal/claims/models"
)

func encodeFixtures() (*models.Claim, *models.RemittanceAdvice) {
	claim := &models.Claim{
		ClaimID:      "CLM-TEST0001",
		PatientID:    "PAT001",
		PatientName:  "DOE JOHN",
		ProviderName: "ACME MEDICAL GROUP",
		ProviderNPI:  "1234567890",
		ServiceDate:  "2026-08-01",
		Status:       models.ClaimStatusAdjudicated,
	}
	advice := &models.RemittanceAdvice{
		RemittanceID:     "RMT-ABCDEF123456",
		ClaimID:          claim.ClaimID,
		CheckNumber:      "CHK12345678",
		PaymentDate:      "2026-08-27",
		PaymentMethod:    "ACH",
		PayerID:          "PAYER001",
		PayerName:        "Sample Insurance Co",
		TotalBilled:      decimal.RequireFromString("350.50"),
		TotalAllowed:     decimal.RequireFromString("280.40"),
		TotalPaid:        decimal.RequireFromString("280.40"),
		TotalAdjustments: decimal.RequireFromString("70.10"),
		Adjustments: []models.AdjustmentDetail{
			{GroupCode: "CO", ReasonCode: "45", Amount: decimal.RequireFromString("70.10")},
		},
		CreatedAt: time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC),
	}
	return claim, advice
}

func TestEncode835(t *testing.T) {
	claim, advice := encodeFixtures()

	document := Encode835(claim, advice)

	assert.True(t, strings.HasPrefix(document, "ISA*00*"))
	assert.Contains(t, document, "GS*HP*SENDER*RECEIVER*20260827*1430")
	assert.Contains(t, document, "ST*835*0001")
	assert.Contains(t, document, "BPR*I*280.40*C*ACH")
	assert.Contains(t, document, "TRN*1*RMT-ABCDEF123456*1234567890")
	assert.Contains(t, document, "REF*EV*PAYER001")
	assert.Contains(t, document, "N1*PR*SAMPLE INSURANCE CO")
	assert.Contains(t, document, "N1*PE*ACME MEDICAL GROUP*XX*1234567890")
	assert.Contains(t, document, "CLP*CLM-TEST0001*1*350.50*280.40**12*RMT-ABCDEF123456")
	assert.Contains(t, document, "CAS*CO*45*70.10")
	assert.Contains(t, document, "NM1*QC*1*DOE*JOHN****MI*PAT001")
	assert.Contains(t, document, "DTM*232*20260801")
	assert.Contains(t, document, "IEA*1*RMT-ABCDE")
}

func TestEncode835SegmentCount(t *testing.T) {
	claim, advice := encodeFixtures()

	document := Encode835(claim, advice)

	var segments []string
	for _, s := range strings.Split(document, "~\n") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	// SE01 must equal the segment count from ST through SE inclusive.
	var stIndex, seIndex int
	var seCount string
	for i, s := range segments {
		switch {
		case strings.HasPrefix(s, "ST*"):
			stIndex = i
		case strings.HasPrefix(s, "SE*"):
			seIndex = i
			seCount = strings.Split(s, "*")[1]
		}
	}
	require.NotEmpty(t, seCount)
	assert.Equal(t, "15", seCount)
	assert.Equal(t, 15, seIndex-stIndex+1)
}

func TestEncode835Deterministic(t *testing.T) {
	claim, advice := encodeFixtures()

	first := Encode835(claim, advice)
	second := Encode835(claim, advice)
	assert.Equal(t, first, second)
}

func TestEncode835DeniedClaimStatusCode(t *testing.T) {
	claim, advice := encodeFixtures()
	claim.Status = models.ClaimStatusDenied
	advice.TotalPaid = decimal.Zero
	advice.TotalAllowed = decimal.Zero

	document := Encode835(claim, advice)
	assert.Contains(t, document, "CLP*CLM-TEST0001*4*")
}

func TestEncode835RoundTripsThroughParserDelimiters(t *testing.T) {
	claim, advice := encodeFixtures()

	document := Encode835(claim, advice)
	d := detectDelimiters(strings.TrimSpace(document))
	assert.Equal(t, "*", d.element)
	assert.Equal(t, "~", d.segment)
}
