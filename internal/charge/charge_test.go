package charge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/reference"
)

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func rate(t *testing.T, c *Calculator, call *models.Call, nt models.NumberType, cfg *rateconfig.Configuration) Result {
	t.Helper()
	res, err := c.Rate(call, nt, cfg)
	require.NoError(t, err)
	return res
}

func TestScenarios(t *testing.T) {
	c := New(reference.Default())

	t.Run("exempt caller", func(t *testing.T) {
		cfg := &rateconfig.Configuration{
			Rate:                rateconfig.NewRate(500),
			ZeroChargeExemption: &rateconfig.Exemption{Tenant: "acme", Callers: []string{"2150913403"}},
		}
		call := &models.Call{Tenant: "acme", From: "2150913403", To: "081234567890", CallType: "outbound call", Duration: 300 * time.Second}

		res := rate(t, c, call, models.NumberTypeOrdinary, cfg)
		assert.Equal(t, Result{Charge: "0", Rule: "exemption"}, res)
	})

	t.Run("premium", func(t *testing.T) {
		call := &models.Call{Duration: 90 * time.Second}
		res := rate(t, c, call, models.NumberTypePremium, &rateconfig.Configuration{})
		assert.Equal(t, Result{Charge: "3400", Rule: "elevated"}, res)
	})

	t.Run("tenant default without restriction", func(t *testing.T) {
		cfg := &rateconfig.Configuration{Rate: rateconfig.NewRate(500), RateType: rateconfig.PerMinute}
		call := &models.Call{From: "0215550100", To: "081234567890", CallType: "outbound call", Duration: 125 * time.Second}

		res := rate(t, c, call, models.NumberTypeOrdinary, cfg)
		assert.Equal(t, Result{Charge: "1500", Rule: "tenant-default"}, res)
	})

	t.Run("excluded call type", func(t *testing.T) {
		cfg := &rateconfig.Configuration{Rate: rateconfig.NewRate(500), ChargeableCallTypes: []string{"outbound call"}}
		call := &models.Call{From: "0215550100", To: "081234567890", CallType: "fax", Duration: 125 * time.Second}

		res := rate(t, c, call, models.NumberTypeOrdinary, cfg)
		assert.Equal(t, Result{Charge: "0", Rule: "excluded-call-type"}, res)
	})

	t.Run("zero override rate uses fallback", func(t *testing.T) {
		cfg := &rateconfig.Configuration{
			ChargeableCallTypes: []string{"outbound call"},
			Rate:                rateconfig.NewRate(500),
			Number1: &rateconfig.NumberOverride{
				Number:              "0215550001",
				ChargeableCallTypes: []string{"Incoming Call"},
				Rate:                rateconfig.NewRate(0),
			},
		}
		call := &models.Call{From: "081234567890", To: "0215550001", CallType: "incoming call", Duration: 61 * time.Second}

		res := rate(t, c, call, models.NumberTypeOrdinary, cfg)
		assert.Equal(t, Result{Charge: "1440", Rule: "number1"}, res)
	})
}

func TestInternalIsAlwaysZero(t *testing.T) {
	c := New(nil)
	cfgs := []*rateconfig.Configuration{
		{},
		{Rate: rateconfig.NewRate(900), RateType: rateconfig.PerSecond},
		{S2C: rateconfig.Numbers{"1001"}, S2CRate: rateconfig.NewRate(100)},
	}
	for _, cfg := range cfgs {
		for _, d := range []time.Duration{0, time.Second, time.Hour} {
			call := &models.Call{From: "1001", To: "1002", CallType: "outbound call", Duration: d}
			assert.Equal(t, "0", rate(t, c, call, models.NumberTypeInternal, cfg).Charge)
		}
	}
}

func TestPerMinuteBillsWholeMinutes(t *testing.T) {
	c := New(nil)
	cfg := &rateconfig.Configuration{Rate: rateconfig.NewRate(500)}

	for _, d := range []time.Duration{time.Second, 500 * time.Millisecond, 30 * time.Second, 60 * time.Second} {
		call := &models.Call{CallType: "outbound call", Duration: d}
		assert.Equal(t, "500", rate(t, c, call, models.NumberTypeOrdinary, cfg).Charge, d.String())
	}

	call := &models.Call{CallType: "outbound call", Duration: 60*time.Second + time.Millisecond}
	assert.Equal(t, "1000", rate(t, c, call, models.NumberTypeOrdinary, cfg).Charge)
}

func TestPerSecondIsExact(t *testing.T) {
	c := New(nil)
	r := decimal.RequireFromString("12.5")
	cfg := &rateconfig.Configuration{Rate: rateconfig.Rate{Decimal: r}, RateType: rateconfig.PerSecond}

	for _, d := range []float64{0, 0.5, 59, 61} {
		call := &models.Call{CallType: "outbound call", Duration: seconds(d)}
		want := decimal.NewFromFloat(d).Mul(r)
		got := decimal.RequireFromString(rate(t, c, call, models.NumberTypeOrdinary, cfg).Charge)
		assert.True(t, want.Equal(got), "duration %v: want %s, got %s", d, want, got)
	}
}

func TestEmergencyUsesElevatedRate(t *testing.T) {
	c := New(nil)
	cfg := &rateconfig.Configuration{Rate: rateconfig.NewRate(10)}
	call := &models.Call{To: "110", Duration: 61 * time.Second}

	res := rate(t, c, call, models.EmergencyType("police"), cfg)
	assert.Equal(t, Result{Charge: "3400", Rule: "elevated"}, res)

	// an emergency label that is not in the reference tables is not elevated
	res = rate(t, c, call, models.EmergencyType("unknown"), cfg)
	assert.Equal(t, "tenant-default", res.Rule)
}

func TestInternational(t *testing.T) {
	c := New(reference.Default())
	cfg := &rateconfig.Configuration{Rate: rateconfig.NewRate(10)}
	call := &models.Call{Carrier: "Atlasat", Duration: 61 * time.Second}

	// preferred profile regardless of the call's carrier
	res := rate(t, c, call, models.InternationalType("singapore"), cfg)
	assert.Equal(t, Result{Charge: "5200", Rule: "international"}, res)

	// satellite keys match the broader "satellite" rate key
	res = rate(t, c, call, models.InternationalType("satellite-thuraya"), cfg)
	assert.Equal(t, "190000", res.Charge)

	// matching is case-insensitive and works in both directions
	res = rate(t, c, call, models.NumberType("JAPAN"), cfg)
	assert.Equal(t, "8200", res.Charge)
	res = rate(t, c, call, models.NumberType("Korea"), cfg)
	assert.Equal(t, "8200", res.Charge)
}

func TestInternationalFallsBackToSecondaryProfile(t *testing.T) {
	d := reference.Default().Data()
	var carriers []reference.CarrierProfile
	for _, p := range d.Carriers {
		if p.Carrier != reference.PreferredCarrier {
			carriers = append(carriers, p)
		}
	}
	d.Carriers = carriers
	c := New(reference.New(d))

	call := &models.Call{Duration: 30 * time.Second}
	res := rate(t, c, call, models.InternationalType("singapore"), &rateconfig.Configuration{})
	assert.Equal(t, "2400", res.Charge)

	// destinations the fallback profile does not price go down the chain
	res = rate(t, c, call, models.InternationalType("india"), &rateconfig.Configuration{})
	assert.Equal(t, "tenant-default", res.Rule)
}

func TestScanToCall(t *testing.T) {
	c := New(nil)
	cfg := &rateconfig.Configuration{
		Rate:        rateconfig.NewRate(500),
		S2C:         rateconfig.Numbers{"0215550000"},
		S2CRate:     rateconfig.MustRate("2"),
		S2CRateType: rateconfig.PerSecond,
	}

	tests := []struct {
		name     string
		call     models.Call
		nt       models.NumberType
		want     string
		wantRule string
	}{
		{"incoming to target", models.Call{To: "0215550000", CallType: "Incoming Call", Duration: 61 * time.Second}, models.NumberTypeOrdinary, "122", "scan-to-call"},
		{"answering machine", models.Call{To: "0215550000", CallType: "answering machine", Duration: 10 * time.Second}, models.NumberTypeOrdinary, "20", "scan-to-call"},
		{"default chargeable type", models.Call{To: "0215550000", CallType: "predictive_dial", Duration: 10 * time.Second}, models.NumberTypeOrdinary, "20", "scan-to-call"},
		{"origin used when destination empty", models.Call{From: "0215550000", CallType: "incoming call", Duration: 10 * time.Second}, models.NumberTypeOrdinary, "20", "scan-to-call"},
		{"classified as scancall", models.Call{To: "081234567890", CallType: "incoming call", Duration: 10 * time.Second}, models.NumberTypeScanCall, "20", "scan-to-call"},
		{"other call type falls through", models.Call{To: "0215550000", CallType: "fax", Duration: 10 * time.Second}, models.NumberTypeOrdinary, "500", "tenant-default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := tt.call
			res := rate(t, c, &call, tt.nt, cfg)
			assert.Equal(t, tt.want, res.Charge)
			assert.Equal(t, tt.wantRule, res.Rule)
		})
	}
}

func TestOverrides(t *testing.T) {
	c := New(nil)
	cfg := &rateconfig.Configuration{
		ChargeableCallTypes: []string{"outbound call"},
		Rate:                rateconfig.NewRate(500),
		Number1:             &rateconfig.NumberOverride{Number: "0215550001", ChargeableCallTypes: []string{"outbound call"}, Rate: rateconfig.NewRate(300)},
		Number2:             &rateconfig.NumberOverride{Number: "0215550001", ChargeableCallTypes: []string{"outbound call", "incoming call"}, Rate: rateconfig.NewRate(5), RateType: rateconfig.PerSecond},
	}

	// number1 wins when both match
	res := rate(t, c, &models.Call{From: "0215550001", To: "081234567890", CallType: "outbound call", Duration: 61 * time.Second}, models.NumberTypeOrdinary, cfg)
	assert.Equal(t, Result{Charge: "600", Rule: "number1"}, res)

	// number2 only when number1 does not match the call type
	res = rate(t, c, &models.Call{From: "081234567890", To: "0215550001", CallType: "incoming call", Duration: 61 * time.Second}, models.NumberTypeOrdinary, cfg)
	assert.Equal(t, Result{Charge: "305", Rule: "number2"}, res)

	// invalid rate type makes the override not fire
	bad := cfg.Clone()
	bad.Number1.RateType = "per_hour"
	bad.Number2 = nil
	res = rate(t, c, &models.Call{From: "0215550001", CallType: "outbound call", Duration: 61 * time.Second}, models.NumberTypeOrdinary, bad)
	assert.Equal(t, "tenant-default", res.Rule)
}

func TestFallbackRate(t *testing.T) {
	c := New(nil)
	// the default rate type is unusable and the call type is chargeable
	cfg := &rateconfig.Configuration{ChargeableCallTypes: []string{"outbound call"}, Rate: rateconfig.NewRate(500), RateType: "monthly"}
	call := &models.Call{CallType: "outbound call", Duration: 61 * time.Second}

	assert.Equal(t, Result{Charge: "1440", Rule: "fallback"}, rate(t, c, call, models.NumberTypeOrdinary, cfg))
}

func TestMissingConfiguration(t *testing.T) {
	_, err := New(nil).Rate(&models.Call{Tenant: "acme"}, models.NumberTypeOrdinary, nil)
	assert.True(t, apperrors.IsType(err, apperrors.TypeMissingConfiguration))
}

func TestRateIsDeterministic(t *testing.T) {
	c := New(nil)
	cfg := &rateconfig.Configuration{Rate: rateconfig.MustRate("333.3"), RateType: rateconfig.PerSecond}
	call := &models.Call{CallType: "outbound call", Duration: 1234567 * time.Millisecond}

	first := rate(t, c, call, models.NumberTypeOrdinary, cfg)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, rate(t, c, call, models.NumberTypeOrdinary, cfg))
	}
}
