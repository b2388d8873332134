// Package charge computes the billable amount of a classified call.
//
// The amount is decided by an ordered chain of rules. Rules are evaluated in
// the order Rules returns them and the first one that fires wins; a rule
// that does not fire passes the call on to the next one.
package charge

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/reference"
)

var (
	// ElevatedRate is the flat per-minute rate of premium, toll-free,
	// split-charge and emergency calls.
	ElevatedRate = decimal.NewFromInt(1700)

	// FallbackRate replaces a zero override rate and prices calls no other
	// rule accepted.
	FallbackRate = decimal.NewFromInt(720)

	sixty = decimal.NewFromInt(60)
)

// scanToCallTypes are charged at the scan-to-call rate whatever the tenant's
// chargeable call types are.
var scanToCallTypes = []string{"incoming call", "answering machine"}

// Input is what a rule sees. CallType is trimmed and lower-cased.
type Input struct {
	Call       *models.Call
	NumberType models.NumberType
	CallType   string
	Config     *rateconfig.Configuration
}

// Rule is one step of the chain. Apply returns false when the rule does not
// fire.
type Rule struct {
	Name  string
	Apply func(in Input) (decimal.Decimal, bool)
}

// Result is a computed charge and the rule that produced it.
type Result struct {
	Charge string `json:"charge"`
	Rule   string `json:"rule"`
}

// Calculator rates calls with a fixed rule chain.
type Calculator struct {
	rules []Rule
}

func New(tables *reference.Tables) *Calculator {
	if tables == nil {
		tables = reference.Default()
	}
	return &Calculator{rules: Rules(tables)}
}

// Rules returns the rule chain in evaluation order.
func Rules(tables *reference.Tables) []Rule {
	profile := tables.InternationalProfile()

	return []Rule{
		{Name: "exemption", Apply: func(in Input) (decimal.Decimal, bool) {
			if in.Config.ExemptCaller(in.Call.Tenant, in.Call.From) {
				return decimal.Zero, true
			}
			return decimal.Decimal{}, false
		}},
		{Name: "internal", Apply: func(in Input) (decimal.Decimal, bool) {
			if in.NumberType != models.NumberTypeInternal {
				return decimal.Decimal{}, false
			}
			return PerMinute(in.Call.Duration, decimal.Zero), true
		}},
		{Name: "elevated", Apply: func(in Input) (decimal.Decimal, bool) {
			switch in.NumberType {
			case models.NumberTypePremium, models.NumberTypeTollFree, models.NumberTypeSplitCharge:
			default:
				if !tables.IsEmergency(in.NumberType) {
					return decimal.Decimal{}, false
				}
			}
			return PerMinute(in.Call.Duration, ElevatedRate), true
		}},
		{Name: "international", Apply: func(in Input) (decimal.Decimal, bool) {
			rate, ok := internationalRate(profile, in.NumberType)
			if !ok {
				return decimal.Decimal{}, false
			}
			return PerMinute(in.Call.Duration, rate), true
		}},
		{Name: "scan-to-call", Apply: scanToCall},
		overrideRule("number1"),
		overrideRule("number2"),
		{Name: "tenant-default", Apply: func(in Input) (decimal.Decimal, bool) {
			allowed := in.Config.ChargeableTypes()
			if len(allowed) > 0 && !rateconfig.Contains(allowed, in.CallType) {
				return decimal.Decimal{}, false
			}
			return Compute(in.Call.Duration, in.Config.DefaultRate(), in.Config.DefaultRateType())
		}},
		{Name: "excluded-call-type", Apply: func(in Input) (decimal.Decimal, bool) {
			if rateconfig.Contains(in.Config.DefaultChargeableTypes(), in.CallType) {
				return decimal.Decimal{}, false
			}
			return PerMinute(in.Call.Duration, decimal.Zero), true
		}},
		{Name: "fallback", Apply: func(in Input) (decimal.Decimal, bool) {
			return PerMinute(in.Call.Duration, FallbackRate), true
		}},
	}
}

// Rate computes the charge of call classified as nt under cfg.
func (c *Calculator) Rate(call *models.Call, nt models.NumberType, cfg *rateconfig.Configuration) (Result, error) {
	if cfg == nil {
		tenant := ""
		if call != nil {
			tenant = call.Tenant
		}
		return Result{}, apperrors.MissingConfiguration(tenant)
	}
	if call == nil {
		return Result{}, apperrors.Input("no call to rate")
	}

	in := Input{
		Call:       call,
		NumberType: models.NumberType(strings.ToLower(string(nt))),
		CallType:   strings.ToLower(strings.TrimSpace(call.CallType)),
		Config:     cfg,
	}
	for _, r := range c.rules {
		if amount, ok := r.Apply(in); ok {
			return Result{Charge: amount.String(), Rule: r.Name}, nil
		}
	}
	// unreachable while the chain ends with the fallback rule
	return Result{Charge: PerMinute(call.Duration, FallbackRate).String(), Rule: "fallback"}, nil
}

func scanToCall(in Input) (decimal.Decimal, bool) {
	target := in.Call.To
	if target == "" {
		target = in.Call.From
	}
	inList := target != "" && rateconfig.Contains(in.Config.S2CTargets(), target)
	if !inList && in.NumberType != models.NumberTypeScanCall {
		return decimal.Decimal{}, false
	}
	if !rateconfig.Contains(scanToCallTypes, in.CallType) &&
		!rateconfig.Contains(in.Config.DefaultChargeableTypes(), in.CallType) {
		return decimal.Decimal{}, false
	}
	return Compute(in.Call.Duration, in.Config.ScanToCallRate(), in.Config.ScanToCallRateType())
}

func overrideRule(name string) Rule {
	return Rule{Name: name, Apply: func(in Input) (decimal.Decimal, bool) {
		for _, o := range in.Config.Overrides() {
			if o.Name != name {
				continue
			}
			if o.Number == "" || (in.Call.To != o.Number && in.Call.From != o.Number) {
				return decimal.Decimal{}, false
			}
			if !rateconfig.Contains(o.CallTypes, in.CallType) {
				return decimal.Decimal{}, false
			}
			rate := o.Rate
			if rate.IsZero() {
				rate = FallbackRate
			}
			return Compute(in.Call.Duration, rate, o.RateType)
		}
		return decimal.Decimal{}, false
	}}
}

// internationalRate scans profile in order for a key that contains, or is
// contained in, the label of nt, ignoring case.
func internationalRate(profile []reference.CountryRate, nt models.NumberType) (decimal.Decimal, bool) {
	label := strings.ToLower(string(nt))
	if label == "" {
		return decimal.Decimal{}, false
	}
	for _, cr := range profile {
		key := strings.ToLower(cr.Key)
		if key == "" {
			continue
		}
		if strings.Contains(label, key) || strings.Contains(key, label) {
			return cr.Rate, true
		}
	}
	return decimal.Decimal{}, false
}

// Compute prices d at rate with the given rate type. It returns false for
// an unknown rate type.
func Compute(d time.Duration, rate decimal.Decimal, rt rateconfig.RateType) (decimal.Decimal, bool) {
	switch rt {
	case rateconfig.PerMinute:
		return PerMinute(d, rate), true
	case rateconfig.PerSecond:
		return PerSecond(d, rate), true
	}
	return decimal.Decimal{}, false
}

// PerMinute returns ceil(seconds / 60) * rate.
func PerMinute(d time.Duration, rate decimal.Decimal) decimal.Decimal {
	return Seconds(d).Div(sixty).Ceil().Mul(rate)
}

// PerSecond returns seconds * rate.
func PerSecond(d time.Duration, rate decimal.Decimal) decimal.Decimal {
	return Seconds(d).Mul(rate)
}

// Seconds returns d in seconds without loss of precision.
func Seconds(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Nanoseconds()).Shift(-9)
}
