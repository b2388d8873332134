// Package rateconfig describes a tenant's charging parameters.
//
// A Configuration is owned by the tenant's configuration owner and is only
// read while rating. It is consumed as given: nothing here checks that the
// numbers, call types or rates are consistent with each other.
package rateconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/callcharge-production/internal/normalize"
)

// RateType is the billing granularity of a rate.
type RateType string

const (
	// PerMinute bills ceil(seconds / 60) minutes.
	PerMinute RateType = "per_minute"

	// PerSecond bills the exact duration in seconds.
	PerSecond RateType = "per_second"
)

// Valid reports whether t is a known rate type.
func (t RateType) Valid() bool {
	return t == PerMinute || t == PerSecond
}

func (t RateType) orDefault() RateType {
	if strings.TrimSpace(string(t)) == "" {
		return PerMinute
	}
	return RateType(strings.ToLower(strings.TrimSpace(string(t))))
}

// Rate is an amount in the tenant's rate unit. It decodes from JSON numbers
// or strings and from TOML integers, floats or strings.
type Rate struct {
	decimal.Decimal
}

// NewRate returns a whole-unit rate.
func NewRate(v int64) Rate {
	return Rate{decimal.NewFromInt(v)}
}

// MustRate parses s and panics on error. Intended for tests and constants.
func MustRate(s string) Rate {
	return Rate{decimal.RequireFromString(s)}
}

// UnmarshalTOML implements toml.Unmarshaler.
func (r *Rate) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		r.Decimal = decimal.NewFromInt(x)
	case float64:
		r.Decimal = decimal.NewFromFloat(x)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return fmt.Errorf("rate %q: %w", x, err)
		}
		r.Decimal = d
	default:
		return fmt.Errorf("rate: unsupported value %T", v)
	}
	return nil
}

// Numbers is a list of phone numbers that may be written as a single string.
type Numbers []string

// UnmarshalJSON accepts "0215550000" as well as ["0215550000", ...].
func (n *Numbers) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*n = Numbers{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("numbers: want a string or a list of strings: %w", err)
	}
	*n = many
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler with the same forms as JSON.
func (n *Numbers) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		*n = Numbers{x}
	case []any:
		out := make(Numbers, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("numbers: unsupported element %T", item)
			}
			out = append(out, s)
		}
		*n = out
	default:
		return fmt.Errorf("numbers: unsupported value %T", v)
	}
	return nil
}

// NumberOverride charges calls to or from one number at a dedicated rate.
type NumberOverride struct {
	Number              string   `json:"number" toml:"number"`
	ChargeableCallTypes []string `json:"chargeable_call_types" toml:"chargeable_call_types"`
	Rate                Rate     `json:"rate" toml:"rate"`
	RateType            RateType `json:"rate_type" toml:"rate_type"`
}

// Exemption lists caller numbers that are never billed, scoped to one tenant.
type Exemption struct {
	Tenant  string   `json:"tenant" toml:"tenant"`
	Callers []string `json:"callers" toml:"callers"`
}

// Configuration is one tenant's rate configuration. Every field is optional.
type Configuration struct {
	Tenant string `json:"tenant" toml:"tenant"`

	ChargeableCallTypes []string `json:"chargeable_call_types" toml:"chargeable_call_types"`
	Rate                Rate     `json:"rate" toml:"rate"`
	RateType            RateType `json:"rate_type" toml:"rate_type"`

	S2C         Numbers  `json:"s2c" toml:"s2c"`
	S2CRate     Rate     `json:"s2c_rate" toml:"s2c_rate"`
	S2CRateType RateType `json:"s2c_rate_type" toml:"s2c_rate_type"`

	Number1 *NumberOverride `json:"number1,omitempty" toml:"number1"`
	Number2 *NumberOverride `json:"number2,omitempty" toml:"number2"`

	ZeroChargeExemption *Exemption `json:"zero_charge_exemption,omitempty" toml:"zero_charge_exemption"`

	// ExtensionPattern replaces the built-in internal extension pattern.
	ExtensionPattern string `json:"extension_pattern,omitempty" toml:"extension_pattern"`

	InternalNumbers    []string `json:"internal_numbers,omitempty" toml:"internal_numbers"`
	SplitChargeNumbers []string `json:"split_charge_numbers,omitempty" toml:"split_charge_numbers"`
}

// Override is a resolved NumberOverride.
type Override struct {
	Name      string
	Number    string
	CallTypes []string
	Rate      decimal.Decimal
	RateType  RateType
}

// defaultChargeableCallTypes apply to scan-to-call and to the excluded
// call type check when the tenant lists none.
var defaultChargeableCallTypes = []string{"outbound call", "predictive_dial"}

// ExemptCaller reports whether calls from number are exempt for tenant.
func (c *Configuration) ExemptCaller(tenant, number string) bool {
	e := c.ZeroChargeExemption
	if e == nil || e.Tenant == "" || e.Tenant != tenant || number == "" {
		return false
	}
	for _, caller := range e.Callers {
		if normalize.PhoneNumber(caller) == number {
			return true
		}
	}
	return false
}

// Overrides returns number1 then number2, skipping the ones not configured.
func (c *Configuration) Overrides() []Override {
	var out []Override
	for _, o := range []struct {
		name string
		cfg  *NumberOverride
	}{{"number1", c.Number1}, {"number2", c.Number2}} {
		if o.cfg == nil {
			continue
		}
		out = append(out, Override{
			Name:      o.name,
			Number:    normalize.PhoneNumber(o.cfg.Number),
			CallTypes: lowerAll(o.cfg.ChargeableCallTypes),
			Rate:      o.cfg.Rate.Decimal,
			RateType:  o.cfg.RateType.orDefault(),
		})
	}
	return out
}

// S2CTargets returns the scan-to-call numbers.
func (c *Configuration) S2CTargets() []string {
	return numbers(c.S2C)
}

// ScanToCallRate returns the scan-to-call rate.
func (c *Configuration) ScanToCallRate() decimal.Decimal {
	return c.S2CRate.Decimal
}

// ScanToCallRateType returns the scan-to-call rate type.
func (c *Configuration) ScanToCallRateType() RateType {
	return c.S2CRateType.orDefault()
}

// ChargeableTypes returns the tenant's chargeable call types, lower-cased.
// An empty result means the tenant sets no restriction.
func (c *Configuration) ChargeableTypes() []string {
	return lowerAll(c.ChargeableCallTypes)
}

// DefaultChargeableTypes is ChargeableTypes, or the built-in
// "outbound call" and "predictive_dial" pair when the tenant lists none.
func (c *Configuration) DefaultChargeableTypes() []string {
	if types := c.ChargeableTypes(); len(types) > 0 {
		return types
	}
	return append([]string(nil), defaultChargeableCallTypes...)
}

// DefaultRate returns the tenant's default rate.
func (c *Configuration) DefaultRate() decimal.Decimal {
	return c.Rate.Decimal
}

// DefaultRateType returns the tenant's default rate type.
func (c *Configuration) DefaultRateType() RateType {
	return c.RateType.orDefault()
}

// InternalNumberSet returns the tenant's extra internal numbers.
func (c *Configuration) InternalNumberSet() []string {
	return numbers(c.InternalNumbers)
}

// SplitChargeNumberSet returns the tenant's split-charge numbers.
func (c *Configuration) SplitChargeNumberSet() []string {
	return numbers(c.SplitChargeNumbers)
}

// Clone returns a deep copy of c.
func (c *Configuration) Clone() *Configuration {
	out := *c
	out.ChargeableCallTypes = append([]string(nil), c.ChargeableCallTypes...)
	out.S2C = append(Numbers(nil), c.S2C...)
	out.InternalNumbers = append([]string(nil), c.InternalNumbers...)
	out.SplitChargeNumbers = append([]string(nil), c.SplitChargeNumbers...)
	if c.Number1 != nil {
		n := *c.Number1
		n.ChargeableCallTypes = append([]string(nil), n.ChargeableCallTypes...)
		out.Number1 = &n
	}
	if c.Number2 != nil {
		n := *c.Number2
		n.ChargeableCallTypes = append([]string(nil), n.ChargeableCallTypes...)
		out.Number2 = &n
	}
	if c.ZeroChargeExemption != nil {
		e := *c.ZeroChargeExemption
		e.Callers = append([]string(nil), e.Callers...)
		out.ZeroChargeExemption = &e
	}
	return &out
}

// Contains reports whether list holds s.
func Contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

// numbers normalizes in and drops entries with no digits.
func numbers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize.PhoneNumber(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
