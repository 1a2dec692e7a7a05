package xlsxstmt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/csvstmt"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

func sampleStatement(t *testing.T) *statement.Statement {
	t.Helper()
	st, err := statement.New(statement.Params{
		AccountID:      "40702810440000012345",
		AccountName:    "ООО Ромашка",
		Currency:       statement.EUR,
		OpeningBalance: statement.BalancePtr(5000),
		ClosingBalance: statement.BalancePtr(-2500),
		PeriodFrom:     civil.Date{Year: 2024, Month: time.May, Day: 1},
		PeriodUntil:    civil.Date{Year: 2024, Month: time.May, Day: 31},
		Transactions: []statement.Transaction{
			{
				BookingDate:      civil.Date{Year: 2024, Month: time.May, Day: 15},
				Amount:           7500,
				Direction:        statement.Debit,
				Description:      "Аренда за май",
				Counterparty:     "40702810900000054321",
				CounterpartyName: "ООО Арендодатель",
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	st := sampleStatement(t)
	clock := csvstmt.WithClock(func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) })

	var buf bytes.Buffer
	if err := Encode(&buf, st, clock); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("encoded workbook does not open: %v", err)
	}
	if got := f.GetSheetName(0); got != SheetName {
		t.Errorf("sheet name = %q, expected %q", got, SheetName)
	}
	f.Close()

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diffs := statement.Compare(st, got); len(diffs) != 0 {
		t.Errorf("round trip differences: %v", diffs)
	}
	if got.Currency() != statement.EUR {
		t.Errorf("Currency() = %v, expected EUR", got.Currency())
	}
	if b, _ := got.ClosingBalance(); b != -2500 {
		t.Errorf("ClosingBalance() = %v, expected -25.00", b)
	}
}

func TestDecodeNotAWorkbook(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not a zip archive"))
	if statement.KindOf(err) != statement.KindIO {
		t.Errorf("Decode() error = %v, expected IO error", err)
	}
}

func TestDecodeWorkbookWithoutLayout(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellStr("Sheet1", "A1", "hello")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err := Decode(&buf)
	if statement.KindOf(err) != statement.KindHeader {
		t.Errorf("Decode() error = %v, expected Header error", err)
	}
}
