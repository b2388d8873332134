package reference

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	apperrors "github.com/callcharge-production/internal/errors"
)

type fileRate struct {
	Country string  `toml:"country"`
	Rate    float64 `toml:"rate"`
}

type fileCarrier struct {
	Name  string     `toml:"name"`
	Rates []fileRate `toml:"rate"`
}

type file struct {
	Emergency           []EmergencyNumber `toml:"emergency"`
	Countries           []Country         `toml:"country"`
	Carriers            []fileCarrier     `toml:"carrier"`
	PremiumPrefixes     []string          `toml:"premium_prefixes"`
	TollFreePrefixes    []string          `toml:"toll_free_prefixes"`
	SplitChargePrefixes []string          `toml:"split_charge_prefixes"`
	IDDPrefixes         []string          `toml:"idd_prefixes"`
}

// LoadFile reads reference tables from a TOML file. Sections the file leaves
// out keep their built-in defaults.
func LoadFile(path string) (*Tables, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, apperrors.Config("read reference tables "+path, err)
	}
	return New(f.merge(defaultData())), nil
}

// Decode is LoadFile for in-memory TOML.
func Decode(data string) (*Tables, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, apperrors.Config("decode reference tables", err)
	}
	return New(f.merge(defaultData())), nil
}

func (f file) merge(d Data) Data {
	if len(f.Emergency) > 0 {
		d.Emergency = f.Emergency
	}
	if len(f.Countries) > 0 {
		d.Countries = make([]Country, len(f.Countries))
		for i, c := range f.Countries {
			if c.Key == "" {
				c.Key = slug.Make(c.Name)
			}
			d.Countries[i] = c
		}
	}
	if len(f.Carriers) > 0 {
		d.Carriers = make([]CarrierProfile, len(f.Carriers))
		for i, c := range f.Carriers {
			p := CarrierProfile{Carrier: c.Name}
			for _, r := range c.Rates {
				p.Rates = append(p.Rates, CountryRate{
					Key:  strings.ToLower(r.Country),
					Rate: decimal.NewFromFloat(r.Rate),
				})
			}
			d.Carriers[i] = p
		}
	}
	if f.PremiumPrefixes != nil {
		d.PremiumPrefixes = f.PremiumPrefixes
	}
	if f.TollFreePrefixes != nil {
		d.TollFreePrefixes = f.TollFreePrefixes
	}
	if f.SplitChargePrefixes != nil {
		d.SplitChargePrefixes = f.SplitChargePrefixes
	}
	if f.IDDPrefixes != nil {
		d.IDDPrefixes = f.IDDPrefixes
	}
	return d
}
