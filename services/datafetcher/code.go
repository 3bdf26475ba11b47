package datafetcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned for codes that are not SYMBOL.MARKET
var ErrInvalidCode = errors.New("invalid stock code")

// Code is an exchange qualified A-share code
type Code struct {
	Symbol string // six digits
	Market string // SH or SZ
}

func (c Code) String() string {
	return c.Symbol + "." + c.Market
}

// ParseCode validates codes like 600519.SH. SS is accepted as an alias of SH.
func ParseCode(raw string) (Code, error) {
	symbol, market, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(raw)), ".")
	if !ok {
		return Code{}, fmt.Errorf("%w: %q has no market suffix", ErrInvalidCode, raw)
	}
	if len(symbol) != 6 || !allDigits(symbol) {
		return Code{}, fmt.Errorf("%w: %q symbol must be six digits", ErrInvalidCode, raw)
	}
	switch market {
	case "SH", "SS":
		market = "SH"
	case "SZ":
	case "BJ":
		return Code{}, fmt.Errorf("%w: %q Beijing listings are not covered", ErrInvalidCode, raw)
	default:
		return Code{}, fmt.Errorf("%w: %q unknown market %s", ErrInvalidCode, raw, market)
	}
	return Code{Symbol: symbol, Market: market}, nil
}

// ValidCode reports whether raw parses as a stock code
func ValidCode(raw string) bool {
	_, err := ParseCode(raw)
	return err == nil
}

// MarketOf infers the exchange from a bare symbol: 6/9 Shanghai, 0/2/3
// Shenzhen, 4/8/92 Beijing. Other prefixes (funds, bonds) yield "".
func MarketOf(symbol string) string {
	switch {
	case strings.HasPrefix(symbol, "92"):
		return "BJ"
	case strings.HasPrefix(symbol, "6"), strings.HasPrefix(symbol, "9"):
		return "SH"
	case strings.HasPrefix(symbol, "0"), strings.HasPrefix(symbol, "2"), strings.HasPrefix(symbol, "3"):
		return "SZ"
	case strings.HasPrefix(symbol, "4"), strings.HasPrefix(symbol, "8"):
		return "BJ"
	}
	return ""
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
