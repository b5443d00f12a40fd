package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimType string

const (
	ClaimTypeInstitutional ClaimType = "837I"
	ClaimTypeProfessional  ClaimType = "837P"
)

// ServiceLine is one billed procedure/unit combination within a claim.
// Owned exclusively by its parent claim; line order is billing order.
type ServiceLine struct {
	LineNumber    int             `json:"line_number"`
	ProcedureCode string          `json:"procedure_code"`
	Modifiers     []string        `json:"modifiers,omitempty"`
	ServiceDate   string          `json:"service_date,omitempty"`
	Units         int             `json:"units"`
	ChargeAmount  decimal.Decimal `json:"charge_amount"`
}

// Claim is the central entity: a billing submission from a provider for
// patient services, subject to validation and a payment decision.
type Claim struct {
	ClaimID   string    `json:"claim_id"`
	ClaimType ClaimType `json:"claim_type"`

	PatientID     string `json:"patient_id"`
	PatientName   string `json:"patient_name"`
	PatientDOB    string `json:"patient_dob,omitempty"`
	PatientGender string `json:"patient_gender,omitempty"`

	ProviderID   string `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	ProviderNPI  string `json:"provider_npi,omitempty"`

	ServiceDate   string `json:"service_date,omitempty"`
	AdmissionDate string `json:"admission_date,omitempty"`
	DischargeDate string `json:"discharge_date,omitempty"`

	ServiceLines   []ServiceLine `json:"service_lines"`
	DiagnosisCodes []string      `json:"diagnosis_codes"`
	// Derived from service lines, order-preserving; duplicates allowed.
	ProcedureCodes []string `json:"procedure_codes"`

	// TotalCharges is computed as the exact decimal sum of service-line
	// charges at parse time and never directly set afterwards.
	TotalCharges  decimal.Decimal     `json:"total_charges"`
	AllowedAmount decimal.NullDecimal `json:"allowed_amount"`
	PaidAmount    decimal.NullDecimal `json:"paid_amount"`

	Status       ClaimStatus `json:"status"`
	DenialReason string      `json:"denial_reason,omitempty"`
	// Reasons from the last failed validation, kept for operator review.
	ValidationReasons []string `json:"validation_reasons,omitempty"`

	RawEDI string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version is the optimistic-concurrency token; every successful update
	// increments it. A stale version loses the write with a ConflictError.
	Version int `json:"-"`
}

// LineChargeTotal recomputes the exact decimal sum of the service-line
// charges, independent of the stored TotalCharges.
func (c *Claim) LineChargeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.ServiceLines {
		total = total.Add(line.ChargeAmount)
	}
	return total
}

// AdjustmentDetail is one line-level adjustment on a remittance advice,
// e.g. group CO (contractual obligation) reason 45.
type AdjustmentDetail struct {
	GroupCode  string          `json:"group_code"`
	ReasonCode string          `json:"reason_code"`
	Amount     decimal.Decimal `json:"amount"`
}

// RemittanceAdvice is the financial explanation tied 1:1 to an adjudicated
// claim. It is derived, read-only state: generated once and cached.
type RemittanceAdvice struct {
	RemittanceID string `json:"remittance_id"`
	ClaimID      string `json:"claim_id"`

	CheckNumber   string `json:"check_number"`
	PaymentDate   string `json:"payment_date"`
	PaymentMethod string `json:"payment_method"`
	PayerID       string `json:"payer_id"`
	PayerName     string `json:"payer_name"`

	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalAllowed     decimal.Decimal `json:"total_allowed"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalAdjustments decimal.Decimal `json:"total_adjustments"`

	Adjustments []AdjustmentDetail `json:"adjustment_details"`

	Raw835 string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
