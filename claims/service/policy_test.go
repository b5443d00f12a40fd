package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentOfCharges(t *testing.T) {
	policy := &PercentOfCharges{Percent: decimal.NewFromInt(80)}

	allowed := policy.AllowedAmount(validClaim())
	assert.True(t, allowed.Equal(decimal.RequireFromString("280.40")), "got %s", allowed)
}

func TestFeeSchedule(t *testing.T) {
	policy := &FeeSchedule{
		Fees: map[string]decimal.Decimal{
			"99213": decimal.RequireFromString("75.00"),
			"85025": decimal.RequireFromString("500.00"),
		},
		Fallback: decimal.NewFromInt(80),
	}

	// 99213 pays the scheduled fee, 85025 is capped at the billed charge.
	allowed := policy.AllowedAmount(validClaim())
	assert.True(t, allowed.Equal(decimal.RequireFromString("325.50")), "got %s", allowed)
}

func TestFeeScheduleFallback(t *testing.T) {
	policy := &FeeSchedule{Fees: map[string]decimal.Decimal{}, Fallback: decimal.NewFromInt(80)}

	allowed := policy.AllowedAmount(validClaim())
	assert.True(t, allowed.Equal(decimal.RequireFromString("280.40")), "got %s", allowed)
}

func TestLoadFeeSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"99213": "75.00"}`), 0600))

	schedule, err := LoadFeeSchedule(path, decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.True(t, schedule.Fees["99213"].Equal(decimal.RequireFromString("75.00")))
}

func TestLoadFeeScheduleBadFee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"99213": "seventy-five"}`), 0600))

	_, err := LoadFeeSchedule(path, decimal.NewFromInt(80))
	assert.Error(t, err)
}

func TestNewAllowancePolicy(t *testing.T) {
	cfg := &Config{AllowancePolicy: PolicyPercentOfCharges, AllowancePercent: 80}
	policy, err := NewAllowancePolicy(cfg)
	require.NoError(t, err)
	assert.Equal(t, PolicyPercentOfCharges, policy.Name())

	cfg = &Config{AllowancePolicy: "roll_dice"}
	_, err = NewAllowancePolicy(cfg)
	assert.Error(t, err)

	cfg = &Config{AllowancePolicy: PolicyFeeSchedule}
	_, err = NewAllowancePolicy(cfg)
	assert.Error(t, err, "fee_schedule requires a schedule file")
}
