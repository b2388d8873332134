package reference

import "github.com/shopspring/decimal"

// Default returns the built-in Indonesian reference tables.
func Default() *Tables {
	return New(defaultData())
}

func defaultData() Data {
	return Data{
		Emergency: []EmergencyNumber{
			{Number: "110", Service: "police"},
			{Number: "112", Service: "general"},
			{Number: "113", Service: "fire"},
			{Number: "115", Service: "search-and-rescue"},
			{Number: "118", Service: "ambulance"},
			{Number: "119", Service: "medical"},
			{Number: "129", Service: "child-protection"},
			{AreaCode: "21", Number: "112", Service: "jakarta-command-center"},
			{AreaCode: "22", Number: "112", Service: "bandung-command-center"},
			{AreaCode: "24", Number: "112", Service: "semarang-command-center"},
			{AreaCode: "31", Number: "112", Service: "surabaya-command-center"},
			{AreaCode: "61", Number: "112", Service: "medan-command-center"},
			{AreaCode: "361", Number: "112", Service: "bali-command-center"},
		},
		Countries: []Country{
			{Name: "Singapore", Key: "singapore", DialCodes: []string{"65"}},
			{Name: "Malaysia", Key: "malaysia", DialCodes: []string{"60"}},
			{Name: "Thailand", Key: "thailand", DialCodes: []string{"66"}},
			{Name: "Philippines", Key: "philippines", DialCodes: []string{"63"}},
			{Name: "Vietnam", Key: "vietnam", DialCodes: []string{"84"}},
			{Name: "Australia", Key: "australia", DialCodes: []string{"61"}},
			{Name: "Japan", Key: "japan", DialCodes: []string{"81"}},
			{Name: "South Korea", Key: "south-korea", DialCodes: []string{"82"}},
			{Name: "China", Key: "china", DialCodes: []string{"86"}},
			{Name: "Hong Kong", Key: "hong-kong", DialCodes: []string{"852"}},
			{Name: "Taiwan", Key: "taiwan", DialCodes: []string{"886"}},
			{Name: "India", Key: "india", DialCodes: []string{"91"}},
			{Name: "Saudi Arabia", Key: "saudi-arabia", DialCodes: []string{"966"}},
			{Name: "United Arab Emirates", Key: "united-arab-emirates", DialCodes: []string{"971"}},
			{Name: "Netherlands", Key: "netherlands", DialCodes: []string{"31"}},
			{Name: "Germany", Key: "germany", DialCodes: []string{"49"}},
			{Name: "United Kingdom", Key: "united-kingdom", DialCodes: []string{"44"}},
			{Name: "United States", Key: "united-states", DialCodes: []string{"1"}},
			{Name: "Inmarsat", Key: "satellite-inmarsat", DialCodes: []string{"870"}},
			{Name: "Thuraya", Key: "satellite-thuraya", DialCodes: []string{"88216"}},
		},
		Carriers: []CarrierProfile{
			{Carrier: "Indosat", Rates: rates(
				"singapore", 2600,
				"malaysia", 2600,
				"thailand", 3300,
				"philippines", 4700,
				"vietnam", 4700,
				"australia", 3300,
				"japan", 4100,
				"south-korea", 4100,
				"china", 2600,
				"hong-kong", 2600,
				"taiwan", 3300,
				"india", 4700,
				"saudi-arabia", 6000,
				"united-arab-emirates", 6000,
				"netherlands", 4700,
				"germany", 4700,
				"united-kingdom", 4100,
				"united-states", 2600,
				"satellite", 95000,
			)},
			{Carrier: "Atlasat", Rates: rates(
				"singapore", 2400,
				"malaysia", 2400,
				"australia", 3000,
				"japan", 3900,
				"china", 2400,
				"hong-kong", 2400,
				"united-states", 2400,
				"satellite", 90000,
			)},
		},
		PremiumPrefixes:     []string{"0809"},
		TollFreePrefixes:    []string{"0800", "0807", "001803", "007803"},
		SplitChargePrefixes: []string{"0804"},
		IDDPrefixes:         []string{"001", "007", "008", "009", "01017", "00"},
	}
}

// rates builds an ordered rate table from key, rate pairs.
func rates(pairs ...any) []CountryRate {
	out := make([]CountryRate, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, CountryRate{
			Key:  pairs[i].(string),
			Rate: decimal.NewFromInt(int64(pairs[i+1].(int))),
		})
	}
	return out
}
