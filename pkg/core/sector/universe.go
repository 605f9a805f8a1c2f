package sector

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// Universe is the curated ticker list shown to the front end, grouped by
// category: category -> ticker -> company name.
type Universe map[string]map[string]string

// DefaultUniverse returns the built-in stock universe (NSE large caps plus
// sectoral groups). The full list normally ships in config/stocks.hjson;
// this subset keeps the service usable without the data file.
func DefaultUniverse() Universe {
	return Universe{
		"Large Cap - Nifty 50": {
			"RELIANCE.NS":  "Reliance Industries",
			"TCS.NS":       "TCS",
			"HDFCBANK.NS":  "HDFC Bank",
			"INFY.NS":      "Infosys",
			"ICICIBANK.NS": "ICICI Bank",
			"ITC.NS":       "ITC",
			"SBIN.NS":      "State Bank of India",
			"LT.NS":        "Larsen & Toubro",
		},
		"Mid Cap - Growth": {
			"PERSISTENT.NS": "Persistent Systems",
			"DIXON.NS":      "Dixon Technologies",
			"COFORGE.NS":    "Coforge",
			"POLYCAB.NS":    "Polycab India",
			"ASTRAL.NS":     "Astral Ltd",
		},
		"Sectoral - IT": {
			"TCS.NS":     "TCS",
			"INFY.NS":    "Infosys",
			"WIPRO.NS":   "Wipro",
			"HCLTECH.NS": "HCL Technologies",
			"TECHM.NS":   "Tech Mahindra",
		},
	}
}

// LoadUniverse reads the stock universe from an HJSON file, replacing the
// built-in default entirely (the file is the source of truth when present).
func LoadUniverse(path string) (Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stock universe: %w", err)
	}

	var universe Universe
	if err := hjson.Unmarshal(data, &universe); err != nil {
		return nil, fmt.Errorf("parse stock universe %s: %w", path, err)
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("stock universe %s is empty", path)
	}
	return universe, nil
}
