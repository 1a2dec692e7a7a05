package mt940

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestParseStatementLine(t *testing.T) {
	tests := []struct {
		input    string
		expected Entry
	}{
		{
			input:    "2301010102C100,00",
			expected: Entry{ValueDate: "230101", EntryDate: "0102", Mark: "C", Amount: "100,00"},
		},
		{
			input:    "230101RC5,00",
			expected: Entry{ValueDate: "230101", Mark: "RC", Amount: "5,00"},
		},
		{
			input:    "230101CR100,00",
			expected: Entry{ValueDate: "230101", Mark: "C", FundsCode: "R", Amount: "100,00"},
		},
		{
			input: "230101DN12,5NTRF//BANK",
			expected: Entry{
				ValueDate: "230101", Mark: "D", FundsCode: "N", Amount: "12,5",
				TransactionType: "NTRF", BankReference: "BANK",
			},
		},
		{
			input: "2301010102C100,00NTRFNONREF//B2301010001 EXTRA INFO",
			expected: Entry{
				ValueDate: "230101", EntryDate: "0102", Mark: "C", Amount: "100,00",
				TransactionType: "NTRF", CustomerReference: "NONREF",
				BankReference: "B2301010001", ExtraDetails: "EXTRA INFO",
			},
		},
		{
			input: "230105D25,50NMSCREF-2",
			expected: Entry{
				ValueDate: "230105", Mark: "D", Amount: "25,50",
				TransactionType: "NMSC", CustomerReference: "REF-2",
			},
		},
		{
			input:    "230105D25,50 12345",
			expected: Entry{ValueDate: "230105", Mark: "D", Amount: "25,50", CustomerReference: "12345"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatementLine(tt.input)
			if err != nil {
				t.Fatalf("ParseStatementLine(%q) error: %v", tt.input, err)
			}
			if got.ValueDate != tt.expected.ValueDate || got.EntryDate != tt.expected.EntryDate ||
				got.Mark != tt.expected.Mark || got.FundsCode != tt.expected.FundsCode ||
				got.Amount != tt.expected.Amount || got.TransactionType != tt.expected.TransactionType ||
				got.CustomerReference != tt.expected.CustomerReference ||
				got.BankReference != tt.expected.BankReference || got.ExtraDetails != tt.expected.ExtraDetails {
				t.Errorf("ParseStatementLine(%q) = %+v, expected %+v", tt.input, *got, tt.expected)
			}
		})
	}
}

func TestParseStatementLineErrors(t *testing.T) {
	for _, input := range []string{"2301", "ABCDEF C1,00", "230101CNTRFXX", "230101C.,"} {
		if _, err := ParseStatementLine(input); statement.KindOf(err) != statement.KindBadInput {
			t.Errorf("ParseStatementLine(%q) error = %v, expected bad input", input, err)
		}
	}
}

func TestParseYYMMDD(t *testing.T) {
	tests := []struct {
		input    string
		expected civil.Date
	}{
		{"230101", civil.Date{Year: 2023, Month: time.January, Day: 1}},
		{"790615", civil.Date{Year: 2079, Month: time.June, Day: 15}},
		{"800101", civil.Date{Year: 1980, Month: time.January, Day: 1}},
		{"991231", civil.Date{Year: 1999, Month: time.December, Day: 31}},
		{"000229", civil.Date{Year: 2000, Month: time.February, Day: 29}},
	}
	for _, tt := range tests {
		got, err := parseYYMMDD(tt.input)
		if err != nil {
			t.Errorf("parseYYMMDD(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("parseYYMMDD(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}

	errs := map[string]statement.Kind{
		"2301":    statement.KindBadInput,
		"23010a":  statement.KindBadInput,
		"230230":  statement.KindDate,
		"231301":  statement.KindDate,
		"2301011": statement.KindBadInput,
	}
	for input, kind := range errs {
		if _, err := parseYYMMDD(input); statement.KindOf(err) != kind {
			t.Errorf("parseYYMMDD(%q) error = %v, expected kind %v", input, err, kind)
		}
	}
}

func TestDeriveBookingDate(t *testing.T) {
	value := civil.Date{Year: 2023, Month: time.March, Day: 15}

	tests := []struct {
		entry    string
		expected civil.Date
	}{
		{"0402", civil.Date{Year: 2023, Month: time.April, Day: 2}},
		{"0101", civil.Date{Year: 2023, Month: time.January, Day: 1}},
		{"20", civil.Date{Year: 2023, Month: time.March, Day: 20}},
	}
	for _, tt := range tests {
		got, err := deriveBookingDate(value, tt.entry)
		if err != nil {
			t.Errorf("deriveBookingDate(%q) error: %v", tt.entry, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("deriveBookingDate(%q) = %v, expected %v", tt.entry, got, tt.expected)
		}
	}

	errs := map[string]statement.Kind{
		"123":   statement.KindBadInput,
		"12345": statement.KindBadInput,
		"1332":  statement.KindDate,
		"32":    statement.KindDate,
	}
	for entry, kind := range errs {
		if _, err := deriveBookingDate(value, entry); statement.KindOf(err) != kind {
			t.Errorf("deriveBookingDate(%q) error = %v, expected kind %v", entry, err, kind)
		}
	}
}

func TestParseMessagesFraming(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		references []string
	}{
		{
			name:       "curly",
			input:      "{4:\n:20:A\n:25:ACC\n-}\n{4:\n:20:B\n:25:ACC\n-}\n",
			references: []string{"A", "B"},
		},
		{
			name:       "paren with text after marker",
			input:      "(4::20:REF\n:25:ACC\n-)\n",
			references: []string{"REF"},
		},
		{
			name:       "style fixed by first block",
			input:      "(4:\n:20:P\n:25:ACC\n-)\n{4:\n:20:C\n:25:ACC\n-}\n",
			references: []string{"P"},
		},
		{
			name:       "bare closer and CRLF",
			input:      "{4:\r\n:20:X\r\n:25:ACC\r\n}\r\n",
			references: []string{"X"},
		},
		{
			name:       "unterminated final block",
			input:      "{4:\n:20:A\n:25:ACC\n-}\n{4:\n:20:TAIL\n:25:ACC\n",
			references: []string{"A", "TAIL"},
		},
		{
			name:       "empty unterminated block dropped",
			input:      "{4:\n:20:A\n:25:ACC\n-}\n{4:\n\n",
			references: []string{"A"},
		},
		{
			name:  "no block",
			input: ":20:A\n:25:ACC\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, err := ParseMessages(strings.NewReader(tt.input), discardLogger())
			if err != nil {
				t.Fatalf("ParseMessages error: %v", err)
			}
			if len(messages) != len(tt.references) {
				t.Fatalf("ParseMessages returned %d messages, expected %d", len(messages), len(tt.references))
			}
			for i, msg := range messages {
				if msg.Reference != tt.references[i] {
					t.Errorf("message %d reference = %q, expected %q", i, msg.Reference, tt.references[i])
				}
			}
		})
	}
}

func TestParseMessageTags(t *testing.T) {
	input := strings.Join([]string{
		"{4:",
		":20:REF",
		":25:ACC",
		":28C:5/1",
		":86:before any entry",
		":60M:C230101EUR1,00",
		":60F:D230101EUR2,00",
		":61:230102C1,00",
		":86:first",
		"  continued",
		":61:230103D2,00",
		":62M:C230103EUR3,00",
		":62F:C230104EUR4,00",
		":64:C230104EUR5,00",
		":99:skip me",
		"-}",
	}, "\n")

	var logs bytes.Buffer
	messages, err := ParseMessages(strings.NewReader(input), slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("ParseMessages error: %v", err)
	}
	msg := messages[0]

	if msg.StatementNumber != "5/1" {
		t.Errorf("StatementNumber = %q, expected 5/1", msg.StatementNumber)
	}
	if msg.Opening == nil || msg.Opening.Mark != "C" || msg.Opening.Amount != "1,00" {
		t.Errorf("Opening = %+v, expected first opening balance", msg.Opening)
	}
	if msg.Closing == nil || msg.Closing.Amount != "4,00" {
		t.Errorf("Closing = %+v, expected last closing balance", msg.Closing)
	}
	if msg.ClosingAvailable == nil || msg.ClosingAvailable.Amount != "5,00" {
		t.Errorf("ClosingAvailable = %+v, expected 5,00", msg.ClosingAvailable)
	}
	if len(msg.Info) != 1 || msg.Info[0] != "before any entry" {
		t.Errorf("Info = %q, expected [before any entry]", msg.Info)
	}
	if len(msg.Entries) != 2 {
		t.Fatalf("Entries = %d, expected 2", len(msg.Entries))
	}
	if got := msg.Entries[0].Info; len(got) != 2 || got[0] != "first" || got[1] != "continued" {
		t.Errorf("Entries[0].Info = %q, expected [first continued]", got)
	}
	if msg.Entries[0].Raw != ":61:230102C1,00" {
		t.Errorf("Entries[0].Raw = %q", msg.Entries[0].Raw)
	}
	if !strings.Contains(logs.String(), "tag=99") {
		t.Errorf("expected a warning for tag 99, got %q", logs.String())
	}
}

func TestParseMessagesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  statement.Kind
	}{
		{"missing account", "{4:\n:20:REF\n-}\n", statement.KindBadInput},
		{"empty account", "{4:\n:25: \n-}\n", statement.KindBadInput},
		{"short balance", "{4:\n:25:ACC\n:60F:C2301\n-}\n", statement.KindBadInput},
		{"unclosed tag", "{4:\n:25:ACC\n:61\n-}\n", statement.KindMT940Tag},
		{"bad entry", "{4:\n:25:ACC\n:61:2301\n-}\n", statement.KindBadInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessages(strings.NewReader(tt.input), discardLogger())
			if statement.KindOf(err) != tt.kind {
				t.Errorf("ParseMessages error = %v, expected kind %v", err, tt.kind)
			}
		})
	}
}

func TestCounterparty(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		id    string
		cname string
		ok    bool
	}{
		{
			name:  "token with trailing name",
			entry: Entry{Info: []string{"Payment from", "NL91ABNA0417164300 ACME  BV"}},
			id:    "NL91ABNA0417164300", cname: "ACME BV", ok: true,
		},
		{
			name:  "token line wins over earlier bare token",
			entry: Entry{Info: []string{"DE89370400440532013000", "NL91ABNA0417164300 ACME BV"}},
			id:    "NL91ABNA0417164300", cname: "ACME BV", ok: true,
		},
		{
			name:  "name on next plain line",
			entry: Entry{Info: []string{"iban: nl91abna0417164300,", "", "DE89370400440532013000", "Jane Doe"}},
			id:    "NL91ABNA0417164300", cname: "Jane Doe", ok: true,
		},
		{
			name:  "name stops at separator",
			entry: Entry{Info: []string{"DE89370400440532013000 Max Mustermann // Invoice 42"}},
			id:    "DE89370400440532013000", cname: "Max Mustermann", ok: true,
		},
		{
			name:  "separator without name",
			entry: Entry{Info: []string{"DE89370400440532013000 // rent", "Landlord"}},
			id:    "DE89370400440532013000", ok: true,
		},
		{
			name:  "customer reference",
			entry: Entry{Info: []string{"no token here"}, CustomerReference: "DE89370400440532013000"},
			id:    "DE89370400440532013000", ok: true,
		},
		{
			name:  "bank reference",
			entry: Entry{CustomerReference: "NONREF", BankReference: "GB82WEST12345698765432"},
			id:    "GB82WEST12345698765432", ok: true,
		},
		{
			name:  "none",
			entry: Entry{Info: []string{"Card payment", "DE89 short"}, CustomerReference: "NONREF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name, ok := tt.entry.Counterparty()
			if id != tt.id || name != tt.cname || ok != tt.ok {
				t.Errorf("Counterparty() = (%q, %q, %v), expected (%q, %q, %v)", id, name, ok, tt.id, tt.cname, tt.ok)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name     string
		entry    Entry
		id       string
		expected string
	}{
		{
			name:     "after separator",
			entry:    Entry{Info: []string{"DE89370400440532013000 Max // Invoice 42", "second line"}},
			id:       "DE89370400440532013000",
			expected: "Invoice 42\nsecond line",
		},
		{
			name:     "leading separator",
			entry:    Entry{Info: []string{"// Rent a//b"}},
			expected: "Rent a//b",
		},
		{
			name:     "counterparty only line dropped",
			entry:    Entry{Info: []string{"DE89370400440532013000 Max", "", "note"}},
			id:       "DE89370400440532013000",
			expected: "note",
		},
		{
			name:     "plain text kept",
			entry:    Entry{Info: []string{"Card payment"}},
			expected: "Card payment",
		},
		{
			name:     "reference fallback",
			entry:    Entry{CustomerReference: "NONREF", BankReference: "B1", ExtraDetails: "EXTRA"},
			expected: "NONREF //B1 EXTRA",
		},
		{
			name:  "empty",
			entry: Entry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Description(tt.id); got != tt.expected {
				t.Errorf("Description(%q) = %q, expected %q", tt.id, got, tt.expected)
			}
		})
	}
}
