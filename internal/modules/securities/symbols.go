package securities

import (
	"strings"
)

// exchangeSuffixes maps a quote currency to the exchange suffix Yahoo
// expects for symbols priced in that currency. USD symbols carry no suffix.
var exchangeSuffixes = map[string]string{
	"USD": "",
	"CAD": ".TO",
	"BRL": ".SA",
	"GBP": ".L",
	"AUD": ".AX",
	"JPY": ".T",
	"HKD": ".HK",
}

// knownSuffixes lists suffixes that mark a name as already being a
// provider-ready symbol. Such names pass through unchanged.
var knownSuffixes = []string{".TO", ".V", ".SA", ".L", ".AX", ".T", ".HK", ".NE", ".CN"}

// aliases maps, per currency, well-known holding names to their provider
// symbol. Checked before any derivation so odd display names still resolve.
var aliases = map[string]map[string]string{
	"CAD": {
		"VANGUARD S&P 500 INDEX ETF":      "VFV.TO",
		"VANGUARD FTSE CANADA ALL CAP":    "VCN.TO",
		"ISHARES CORE S&P/TSX CAPPED":     "XIC.TO",
		"BMO AGGREGATE BOND INDEX ETF":    "ZAG.TO",
		"VANGUARD GROWTH ETF PORTFOLIO":   "VGRO.TO",
		"VANGUARD BALANCED ETF PORTFOLIO": "VBAL.TO",
	},
	"USD": {
		"VANGUARD S&P 500 ETF":        "VOO",
		"VANGUARD TOTAL STOCK MARKET": "VTI",
		"INVESCO QQQ TRUST":           "QQQ",
		"SPDR S&P 500 ETF TRUST":      "SPY",
	},
	"BRL": {
		"TESOURO SELIC":        "",
		"TESOURO IPCA":         "",
		"ISHARES IBOVESPA":     "BOVA11.SA",
		"ISHARES SMALL CAP BR": "SMAL11.SA",
	},
}

// MapSymbol derives a provider symbol from a holding's display name and
// currency. It returns the symbol and true, or "" and false when no
// symbol can be derived. The mapping is deterministic and does no I/O.
//
// Resolution order:
//  1. names already carrying a known exchange suffix pass through as-is
//  2. exact alias match for the holding's currency
//  3. first token of the name, if it looks like a ticker, plus the
//     exchange suffix for the currency
func MapSymbol(name, currency string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", false
	}

	upper := strings.ToUpper(trimmed)
	currency = strings.ToUpper(currency)

	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(upper, suffix) && len(upper) > len(suffix) {
			return upper, true
		}
	}

	if table, ok := aliases[currency]; ok {
		if symbol, ok := table[upper]; ok {
			if symbol == "" {
				return "", false
			}
			return symbol, true
		}
	}

	suffix, ok := exchangeSuffixes[currency]
	if !ok {
		return "", false
	}

	token := firstToken(upper)
	if !isTickerLike(token) {
		return "", false
	}

	return token + suffix, true
}

// firstToken returns the leading run of the name up to the first
// separator. Separators are space, dash, colon and pipe.
func firstToken(name string) string {
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case ' ', '-', ':', '|':
			return name[:i]
		}
	}
	return name
}

// isTickerLike reports whether a token plausibly is a ticker: 2 to 6
// characters, letters and digits only.
func isTickerLike(token string) bool {
	if len(token) < 2 || len(token) > 6 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
