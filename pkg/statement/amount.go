package statement

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a locale-tolerant decimal string into minor units.
//
// Spaces are dropped. When both ',' and '.' occur the comma is a thousands
// separator; a lone ',' is the decimal point. At most two fractional digits
// are accepted and a single digit means tenths. Results above
// math.MaxInt64 minor units are rejected so that every amount fits a Balance.
func ParseAmount(raw string) (uint64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")

	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	}

	if cleaned == "" {
		return 0, Errorf(KindInvalidAmount, "empty amount")
	}
	if strings.HasPrefix(cleaned, "-") {
		return 0, Errorf(KindInvalidAmount, "negative amount: %s", cleaned)
	}

	parts := strings.Split(cleaned, ".")
	if len(parts) > 2 {
		return 0, Errorf(KindInvalidAmount, "too many dots in amount: %s", cleaned)
	}

	units, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, &Error{Kind: KindInt, Msg: "integer part of " + strconv.Quote(cleaned), Err: err}
	}

	var frac uint64
	if len(parts) == 2 {
		switch fp := parts[1]; len(fp) {
		case 0:
		case 1:
			if fp[0] < '0' || fp[0] > '9' {
				return 0, Errorf(KindInvalidAmount, "invalid fractional part: %s", cleaned)
			}
			frac = uint64(fp[0]-'0') * 10
		case 2:
			frac, err = strconv.ParseUint(fp, 10, 64)
			if err != nil {
				return 0, &Error{Kind: KindInt, Msg: "fractional part of " + strconv.Quote(cleaned), Err: err}
			}
		default:
			return 0, Errorf(KindInvalidAmount, "too many fractional digits in amount: %s", cleaned)
		}
	}

	if units > (math.MaxInt64-frac)/100 {
		return 0, Errorf(KindInvalidAmount, "amount out of range: %s", cleaned)
	}
	return units*100 + frac, nil
}

// ParseSignedBalance parses a magnitude and applies the direction sign.
func ParseSignedBalance(raw string, dir Direction) (Balance, error) {
	minor, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	return NewBalance(minor, dir), nil
}

// FormatMinorUnits renders minor units as "units<sep>frac" with two
// fractional digits and no sign.
func FormatMinorUnits(minor uint64, sep byte) string {
	s := decimal.NewFromBigInt(new(big.Int).SetUint64(minor), -2).StringFixed(2)
	if sep != '.' {
		s = strings.Replace(s, ".", string(sep), 1)
	}
	return s
}

// FormatBalance renders the magnitude of b, see FormatMinorUnits.
func FormatBalance(b Balance, sep byte) string {
	return FormatMinorUnits(b.Abs(), sep)
}

// Decimal converts a balance to a decimal value in major units.
func (b Balance) Decimal() decimal.Decimal {
	return decimal.New(int64(b), -2)
}

func (b Balance) String() string {
	return b.Decimal().StringFixed(2)
}
