package service

import (
	"fmt"
	"regexp"

	"github.com/domjweb/FastVal/claims/models"
)

// npiPattern is the fixed-length numeric shape of a National Provider
// Identifier.
var npiPattern = regexp.MustCompile(`^\d{10}$`)

// ValidationResult is the outcome of validating a parsed claim. A failed
// validation is data, not an error: the claim is stored in RECEIVED with
// the reasons attached for operator review.
type ValidationResult struct {
	OK      bool
	Reasons []string
}

// ValidateClaim runs every check independently so all failures are reported
// together rather than short-circuiting on the first.
func ValidateClaim(claim *models.Claim) ValidationResult {
	var reasons []string

	if claim.PatientName == "" {
		reasons = append(reasons, "missing patient name")
	}
	if claim.PatientID == "" {
		reasons = append(reasons, "missing patient ID")
	}

	if claim.ProviderName == "" {
		reasons = append(reasons, "missing provider name")
	}
	if claim.ProviderID == "" {
		reasons = append(reasons, "missing provider ID")
	}
	if claim.ProviderNPI != "" && !npiPattern.MatchString(claim.ProviderNPI) {
		reasons = append(reasons, fmt.Sprintf("provider NPI %q is not a 10-digit identifier", claim.ProviderNPI))
	}

	if len(claim.ServiceLines) == 0 {
		reasons = append(reasons, "missing service lines")
	}
	for _, line := range claim.ServiceLines {
		if !line.ChargeAmount.IsPositive() {
			reasons = append(reasons, fmt.Sprintf("service line %d: charge amount must be greater than zero", line.LineNumber))
		}
		if line.Units <= 0 {
			reasons = append(reasons, fmt.Sprintf("service line %d: units must be greater than zero", line.LineNumber))
		}
	}

	if !claim.TotalCharges.Equal(claim.LineChargeTotal()) {
		reasons = append(reasons, "total charges do not match the sum of service line charges")
	}

	return ValidationResult{OK: len(reasons) == 0, Reasons: reasons}
}
