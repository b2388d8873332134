// Package reference holds the process-wide lookup tables used to classify and
// rate calls: emergency service numbers, international dialing codes and the
// per-carrier international rate profiles.
//
// Tables are built once and never mutated afterwards, so a single *Tables
// can be shared by any number of rating goroutines.
package reference

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/callcharge-production/internal/models"
)

const (
	// PreferredCarrier is the profile international calls are always rated with.
	PreferredCarrier = "Indosat"

	// FallbackCarrier is used only when PreferredCarrier has no profile at all.
	FallbackCarrier = "Atlasat"
)

// EmergencyNumber maps a service number, optionally scoped to an area code,
// to an emergency category.
type EmergencyNumber struct {
	AreaCode string `toml:"area_code" json:"area_code,omitempty"`
	Number   string `toml:"number" json:"number"`
	Service  string `toml:"service" json:"service"`
}

// Country is an international destination, either a country or a satellite
// operator, identified by its dialing codes.
type Country struct {
	Name      string   `toml:"name" json:"name"`
	Key       string   `toml:"key" json:"key"`
	DialCodes []string `toml:"dial_codes" json:"dial_codes"`
}

// CountryRate is the per-minute rate of one destination key.
type CountryRate struct {
	Key  string          `json:"key"`
	Rate decimal.Decimal `json:"rate"`
}

// CarrierProfile is a carrier's international rate table, in lookup order.
type CarrierProfile struct {
	Carrier string        `json:"carrier"`
	Rates   []CountryRate `json:"rates"`
}

// Data is the raw content of the reference tables.
type Data struct {
	Emergency           []EmergencyNumber
	Countries           []Country
	Carriers            []CarrierProfile
	PremiumPrefixes     []string
	TollFreePrefixes    []string
	SplitChargePrefixes []string
	IDDPrefixes         []string
}

type dialCode struct {
	code    string
	country int
}

// Tables is the immutable, indexed form of Data.
type Tables struct {
	data Data

	emergencyByNumber map[string]models.NumberType
	emergencyTypes    map[models.NumberType]struct{}
	dialCodes         []dialCode // longest first
	iddPrefixes       []string   // longest first
	carriers          map[string]int
}

// New indexes d. The slices in d are copied.
func New(d Data) *Tables {
	t := &Tables{
		data: Data{
			Emergency:           append([]EmergencyNumber(nil), d.Emergency...),
			Countries:           append([]Country(nil), d.Countries...),
			Carriers:            copyCarriers(d.Carriers),
			PremiumPrefixes:     append([]string(nil), d.PremiumPrefixes...),
			TollFreePrefixes:    append([]string(nil), d.TollFreePrefixes...),
			SplitChargePrefixes: append([]string(nil), d.SplitChargePrefixes...),
			IDDPrefixes:         append([]string(nil), d.IDDPrefixes...),
		},
		emergencyByNumber: make(map[string]models.NumberType),
		emergencyTypes:    make(map[models.NumberType]struct{}),
		carriers:          make(map[string]int),
	}

	for _, e := range t.data.Emergency {
		nt := models.EmergencyType(strings.ToLower(e.Service))
		t.emergencyTypes[nt] = struct{}{}
		if e.AreaCode == "" {
			t.emergencyByNumber[e.Number] = nt
			continue
		}
		// dialled with the trunk prefix or the country code
		t.emergencyByNumber["0"+e.AreaCode+e.Number] = nt
		t.emergencyByNumber["62"+e.AreaCode+e.Number] = nt
	}

	for i, c := range t.data.Countries {
		for _, code := range c.DialCodes {
			t.dialCodes = append(t.dialCodes, dialCode{code: code, country: i})
		}
	}
	sort.SliceStable(t.dialCodes, func(i, j int) bool {
		return len(t.dialCodes[i].code) > len(t.dialCodes[j].code)
	})

	t.iddPrefixes = append([]string(nil), t.data.IDDPrefixes...)
	sort.SliceStable(t.iddPrefixes, func(i, j int) bool {
		return len(t.iddPrefixes[i]) > len(t.iddPrefixes[j])
	})

	for i, p := range t.data.Carriers {
		if _, dup := t.carriers[p.Carrier]; !dup {
			t.carriers[p.Carrier] = i
		}
	}

	return t
}

func copyCarriers(in []CarrierProfile) []CarrierProfile {
	out := make([]CarrierProfile, len(in))
	for i, p := range in {
		out[i] = CarrierProfile{Carrier: p.Carrier, Rates: append([]CountryRate(nil), p.Rates...)}
	}
	return out
}

// Emergency returns the emergency category number belongs to.
func (t *Tables) Emergency(number string) (models.NumberType, bool) {
	if number == "" {
		return "", false
	}
	nt, ok := t.emergencyByNumber[number]
	return nt, ok
}

// IsEmergency reports whether nt is one of the emergency categories.
func (t *Tables) IsEmergency(nt models.NumberType) bool {
	_, ok := t.emergencyTypes[nt]
	return ok
}

// Premium reports whether number is a premium-rate number.
func (t *Tables) Premium(number string) bool {
	return hasAnyPrefix(number, t.data.PremiumPrefixes)
}

// TollFree reports whether number is a toll-free number.
func (t *Tables) TollFree(number string) bool {
	return hasAnyPrefix(number, t.data.TollFreePrefixes)
}

// SplitCharge reports whether number is a split-charge number.
func (t *Tables) SplitCharge(number string) bool {
	return hasAnyPrefix(number, t.data.SplitChargePrefixes)
}

const (
	// minForeignDigits keeps short codes and extensions out of the
	// international match when no IDD prefix was dialled.
	minForeignDigits = 8

	// minDialledDigits is the shortest destination accepted after an IDD prefix.
	minDialledDigits = 4
)

// International returns the destination category of an international number.
// A number is international when it starts with an IDD access code, or when
// it carries a foreign country code without the domestic "0" or "62" prefix.
func (t *Tables) International(number string) (models.NumberType, bool) {
	rest, ok := t.stripIDD(number)
	if !ok {
		if len(number) < minForeignDigits || strings.HasPrefix(number, "0") || strings.HasPrefix(number, "62") {
			return "", false
		}
		rest = number
	}

	for _, dc := range t.dialCodes {
		if strings.HasPrefix(rest, dc.code) {
			return models.InternationalType(t.data.Countries[dc.country].Key), true
		}
	}
	return "", false
}

func (t *Tables) stripIDD(number string) (string, bool) {
	for _, p := range t.iddPrefixes {
		if strings.HasPrefix(number, p) && len(number)-len(p) >= minDialledDigits {
			return number[len(p):], true
		}
	}
	return "", false
}

// InternationalProfile returns the rate profile international calls are
// rated with: PreferredCarrier regardless of the call's carrier, or
// FallbackCarrier when PreferredCarrier is absent. The result is a copy.
func (t *Tables) InternationalProfile() []CountryRate {
	i, ok := t.carriers[PreferredCarrier]
	if !ok {
		i, ok = t.carriers[FallbackCarrier]
	}
	if !ok {
		return nil
	}
	return append([]CountryRate(nil), t.data.Carriers[i].Rates...)
}

// Data returns a copy of the tables' content.
func (t *Tables) Data() Data {
	return New(t.data).data
}

func hasAnyPrefix(number string, prefixes []string) bool {
	if number == "" {
		return false
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(number, p) {
			return true
		}
	}
	return false
}
