package service

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/domjweb/FastVal/claims/models"
)

const (
	PolicyPercentOfCharges = "percent_of_charges"
	PolicyFeeSchedule      = "fee_schedule"
)

// AllowancePolicy computes the allowed amount for an approved claim when no
// manual override is supplied. Implementations must never return more than
// the claim's total charges.
type AllowancePolicy interface {
	Name() string
	AllowedAmount(claim *models.Claim) decimal.Decimal
}

// NewAllowancePolicy builds the policy named by the configuration.
func NewAllowancePolicy(cfg *Config) (AllowancePolicy, error) {
	percent := decimal.NewFromInt(int64(cfg.AllowancePercent))

	switch cfg.AllowancePolicy {
	case PolicyPercentOfCharges:
		return &PercentOfCharges{Percent: percent}, nil
	case PolicyFeeSchedule:
		if cfg.FeeScheduleFile == "" {
			return nil, errors.New("invalid config, CLAIMS_FEE_SCHEDULE_FILE must be set for the fee_schedule policy")
		}
		return LoadFeeSchedule(cfg.FeeScheduleFile, percent)
	default:
		return nil, errors.Errorf("unrecognized allowance policy %q", cfg.AllowancePolicy)
	}
}

// PercentOfCharges allows a flat percentage of the claim's total charges,
// rounded to cents.
type PercentOfCharges struct {
	Percent decimal.Decimal
}

func (p *PercentOfCharges) Name() string { return PolicyPercentOfCharges }

func (p *PercentOfCharges) AllowedAmount(claim *models.Claim) decimal.Decimal {
	return claim.TotalCharges.Mul(p.Percent).Div(decimal.NewFromInt(100)).Round(2)
}

// FeeSchedule allows each service line up to a per-procedure fee times
// units, never above the billed line charge. Procedures absent from the
// schedule fall back to the percentage policy for that line.
type FeeSchedule struct {
	Fees     map[string]decimal.Decimal
	Fallback decimal.Decimal
}

func (f *FeeSchedule) Name() string { return PolicyFeeSchedule }

func (f *FeeSchedule) AllowedAmount(claim *models.Claim) decimal.Decimal {
	allowed := decimal.Zero
	hundred := decimal.NewFromInt(100)

	for _, line := range claim.ServiceLines {
		fee, ok := f.Fees[line.ProcedureCode]
		if !ok {
			allowed = allowed.Add(line.ChargeAmount.Mul(f.Fallback).Div(hundred).Round(2))
			continue
		}
		lineAllowed := fee.Mul(decimal.NewFromInt(int64(line.Units)))
		if lineAllowed.GreaterThan(line.ChargeAmount) {
			lineAllowed = line.ChargeAmount
		}
		allowed = allowed.Add(lineAllowed.Round(2))
	}

	return allowed
}

// LoadFeeSchedule reads a JSON object of procedure code to per-unit fee,
// e.g. {"99213": "75.00"}. Fees are decimal strings.
func LoadFeeSchedule(path string, fallbackPercent decimal.Decimal) (*FeeSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fee schedule %s", path)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing fee schedule %s", path)
	}

	fees := make(map[string]decimal.Decimal, len(raw))
	for code, value := range raw {
		fee, err := decimal.NewFromString(value)
		if err != nil {
			return nil, errors.Wrapf(err, "fee schedule %s: procedure %s", path, code)
		}
		fees[code] = fee
	}

	return &FeeSchedule{Fees: fees, Fallback: fallbackPercent}, nil
}
