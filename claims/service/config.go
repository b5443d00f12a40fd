package service

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/domjweb/FastVal/conf"
	"github.com/domjweb/FastVal/log"
)

// Config carries the adjudication and remittance settings. Amounts are read
// as strings and parsed to decimals so currency never passes through floats.
type Config struct {
	AllowancePolicy  string `conf:"CLAIMS_ALLOWANCE_POLICY" conf_default:"percent_of_charges"`
	AllowancePercent int    `conf:"CLAIMS_ALLOWANCE_PERCENT" conf_default:"80"`
	CopayAmount      string `conf:"CLAIMS_COPAY_AMOUNT" conf_default:"0"`
	FeeScheduleFile  string `conf:"CLAIMS_FEE_SCHEDULE_FILE"`

	PayerID       string `conf:"CLAIMS_PAYER_ID" conf_default:"PAYER001"`
	PayerName     string `conf:"CLAIMS_PAYER_NAME" conf_default:"Sample Insurance Co"`
	PaymentMethod string `conf:"CLAIMS_PAYMENT_METHOD" conf_default:"ACH"`

	copay decimal.Decimal
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := conf.Checkout(cfg); err != nil {
		return nil, err
	}

	copay, err := decimal.NewFromString(cfg.CopayAmount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config, CLAIMS_COPAY_AMOUNT %q is not a decimal", cfg.CopayAmount)
	}
	if copay.IsNegative() {
		return nil, errors.Errorf("invalid config, CLAIMS_COPAY_AMOUNT %q is negative", cfg.CopayAmount)
	}
	cfg.copay = copay

	if cfg.AllowancePercent < 0 || cfg.AllowancePercent > 100 {
		return nil, errors.Errorf("invalid config, CLAIMS_ALLOWANCE_PERCENT %d outside 0-100", cfg.AllowancePercent)
	}

	log.API.Info("Successfully loaded configuration for Claims Service.")

	return cfg, nil
}

// Copay returns the parsed per-claim patient responsibility reduction.
func (c *Config) Copay() decimal.Decimal {
	return c.copay
}
