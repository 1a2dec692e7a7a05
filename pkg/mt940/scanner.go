package mt940

import (
	"strings"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// ParseStatementLine scans a :61: value left to right:
//
//	YYMMDD [MMDD] mark [funds code] amount [type] [customer ref[//bank ref [extra]]]
//
// The 4-digit entry date is consumed only when exactly four digits follow
// the value date.
func ParseStatementLine(value string) (*Entry, error) {
	s := strings.TrimSpace(value)
	if len(s) < 8 {
		return nil, statement.Errorf(statement.KindBadInput, ":61: value too short: %q", s)
	}
	if !isDigits(s[:6]) {
		return nil, statement.Errorf(statement.KindBadInput, ":61: value date is not YYMMDD: %q", s)
	}

	e := &Entry{ValueDate: s[:6]}
	i := 6
	if len(s) >= i+4 && isDigits(s[i:i+4]) {
		e.EntryDate = s[i : i+4]
		i += 4
	}

	if i >= len(s) {
		return nil, statement.Errorf(statement.KindBadInput, ":61: missing direction mark: %q", s)
	}
	e.Mark = s[i : i+1]
	i++
	if e.Mark == "R" && i < len(s) && (s[i] == 'C' || s[i] == 'D') {
		e.Mark += s[i : i+1]
		i++
	}

	if i < len(s) && isLetter(s[i]) && s[i] != 'C' && s[i] != 'D' {
		e.FundsCode = s[i : i+1]
		i++
	}

	for i < len(s) && !isAmountByte(s[i]) {
		i++
	}
	start := i
	for i < len(s) && isAmountByte(s[i]) {
		i++
	}
	e.Amount = s[start:i]
	if strings.IndexFunc(e.Amount, func(r rune) bool { return r >= '0' && r <= '9' }) < 0 {
		return nil, statement.Errorf(statement.KindBadInput, ":61: no amount found: %q", s)
	}

	rest := strings.TrimSpace(s[i:])
	if len(rest) >= 4 && isLetters(rest[:4]) {
		e.TransactionType = rest[:4]
		rest = strings.TrimSpace(rest[4:])
	}

	if cust, bank, found := strings.Cut(rest, "//"); found {
		e.CustomerReference = strings.TrimSpace(cust)
		bank = strings.TrimSpace(bank)
		if ref, extra, ok := strings.Cut(bank, " "); ok {
			e.BankReference = ref
			e.ExtraDetails = strings.TrimSpace(extra)
		} else {
			e.BankReference = bank
		}
	} else {
		e.CustomerReference = rest
	}
	return e, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return s != ""
}

func isAmountByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == ',' || c == '.'
}
