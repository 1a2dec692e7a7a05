package format

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"csv", CSV},
		{"Excel", XLSX},
		{"camt.053", Camt053},
		{" CAMT053 ", Camt053},
		{"swift", MT940},
		{"bean", Beancount},
		{"auto", Auto},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil || got != tt.expected {
			t.Errorf("Parse(%q) = %q, %v, expected %q", tt.input, got, err, tt.expected)
		}
	}

	if _, err := Parse("qif"); statement.KindOf(err) != statement.KindBadInput {
		t.Errorf("Parse(qif) error = %v, expected bad input", err)
	}
}

func TestCapabilities(t *testing.T) {
	for _, f := range All {
		if f.Extension() == "" {
			t.Errorf("%s has no extension", f)
		}
	}
	if Beancount.CanDecode() {
		t.Errorf("beancount should be export only")
	}
	if !CSV.IsText() || !MT940.IsText() || Camt053.IsText() || XLSX.IsText() {
		t.Errorf("unexpected IsText results")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		head     string
		expected Format
	}{
		{"csv extension", "jan.CSV", "", CSV},
		{"sta extension", "jan.sta", "", MT940},
		{"xml extension", "jan.xml", "", Camt053},
		{"camt content", "-", "\uFEFF<?xml version=\"1.0\"?>\n<Document xmlns=\"x\">", Camt053},
		{"mt940 block", "export.txt", "{1:F01BANK}{2:I940}{4:\n:20:REF", MT940},
		{"mt940 bare", "export.txt", ":20:REF\n:25:ACC", MT940},
		{"xlsx magic", "upload", "PK\x03\x04rest", XLSX},
		{"csv content", "-", ";;Дата проводки;;Счет", CSV},
		{"content wins over extension", "jan.xml", "{4:\n:20:REF", MT940},
		{"csv purpose with block marker", "-", ";;Дата проводки;;Счет\n01.01.2024;;;;\"Оплата (4: счет {4:\"", CSV},
		{"block marker inside a line", "notes.sta", "see (4: and {4: below", MT940},
		{"mt940 after sender header", "-", "ABNANL2A\n940\n:20:REF", MT940},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.path, []byte(tt.head))
			if err != nil || got != tt.expected {
				t.Errorf("Detect(%q) = %q, %v, expected %q", tt.path, got, err, tt.expected)
			}
		})
	}

	for _, head := range []string{"hello", "note: refund (4: items)", "text {4: inline"} {
		if _, err := Detect("notes.txt", []byte(head)); statement.KindOf(err) != statement.KindBadInput {
			t.Errorf("Detect(%q) error = %v, expected bad input", head, err)
		}
	}
}

func TestDecodeExportOnly(t *testing.T) {
	if _, err := Decode(Beancount, strings.NewReader(""), Options{}); statement.KindOf(err) != statement.KindBadInput {
		t.Errorf("Decode(beancount) error = %v, expected bad input", err)
	}
	if _, err := Decode(Format("qif"), strings.NewReader(""), Options{}); statement.KindOf(err) != statement.KindBadInput {
		t.Errorf("Decode(qif) error = %v, expected bad input", err)
	}
}

func testOptions() Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func convert(t *testing.T, st *statement.Statement, f Format) *statement.Statement {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(f, &buf, st, testOptions()); err != nil {
		t.Fatalf("Encode(%s) error: %v", f, err)
	}
	out, err := Decode(f, &buf, testOptions())
	if err != nil {
		t.Fatalf("Decode(%s) error: %v", f, err)
	}
	return out
}

func TestCrossFormatRoundTrip(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "camt053", "testdata", "statement.xml"))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	src, err := Decode(Camt053, f, testOptions())
	if err != nil {
		t.Fatalf("Decode(camt053) error: %v", err)
	}

	got := convert(t, convert(t, src, CSV), MT940)

	if got.AccountID() != src.AccountID() {
		t.Errorf("AccountID() = %q, expected %q", got.AccountID(), src.AccountID())
	}
	if got.Currency() != src.Currency() {
		t.Errorf("Currency() = %v, expected %v", got.Currency(), src.Currency())
	}
	wantOpen, _ := src.OpeningBalance()
	if b, ok := got.OpeningBalance(); !ok || b != wantOpen {
		t.Errorf("OpeningBalance() = %v, %v, expected %v", b, ok, wantOpen)
	}
	wantClose, _ := src.ClosingBalance()
	if b, ok := got.ClosingBalance(); !ok || b != wantClose {
		t.Errorf("ClosingBalance() = %v, %v, expected %v", b, ok, wantClose)
	}
	if got.PeriodFrom() != src.PeriodFrom() || got.PeriodUntil() != src.PeriodUntil() {
		t.Errorf("period = %v..%v, expected %v..%v", got.PeriodFrom(), got.PeriodUntil(), src.PeriodFrom(), src.PeriodUntil())
	}

	want := src.Transactions()
	txs := got.Transactions()
	if len(txs) != len(want) {
		t.Fatalf("got %d transactions, expected %d", len(txs), len(want))
	}
	for i := range want {
		if txs[i].BookingDate != want[i].BookingDate || txs[i].Amount != want[i].Amount || txs[i].Direction != want[i].Direction {
			t.Errorf("transaction %d = %v %d %v, expected %v %d %v", i,
				txs[i].BookingDate, txs[i].Amount, txs[i].Direction,
				want[i].BookingDate, want[i].Amount, want[i].Direction)
		}
	}
}

func TestEncodeBeancount(t *testing.T) {
	st := mustStatement(t)
	var buf bytes.Buffer
	if err := Encode(Beancount, &buf, st, testOptions()); err != nil {
		t.Fatalf("Encode(beancount) error: %v", err)
	}
	if !strings.Contains(buf.String(), "open Assets:Bank:") {
		t.Errorf("missing bank account open directive:\n%s", buf.String())
	}
}

func mustStatement(t *testing.T) *statement.Statement {
	t.Helper()
	st, err := Decode(MT940, strings.NewReader("{4:\n:20:REF\n:25:NL91ABNA0417164300\n:28C:1\n:60F:C240101EUR10,00\n:61:240102C5,00NTRFNONREF\n:86:Refund\n:62F:C240102EUR15,00\n-}\n"), testOptions())
	if err != nil {
		t.Fatalf("Decode(mt940) error: %v", err)
	}
	return st
}
