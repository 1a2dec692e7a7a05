package camt053

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func decodeFixture(t *testing.T, name string, opts ...Option) *statement.Statement {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	st, err := Decode(f, opts...)
	if err != nil {
		t.Fatalf("Decode(%s) error = %v", name, err)
	}
	return st
}

func TestDecodeEnvelope(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	st := decodeFixture(t, "statement.xml", WithLogger(logger))

	if !strings.Contains(logs.String(), "More than one statement") {
		t.Errorf("expected a warning about the second statement, got logs %q", logs.String())
	}

	if got := st.AccountID(); got != "DK8030000001234567" {
		t.Errorf("AccountID() = %q", got)
	}
	if got := st.AccountName(); got != "Acme ApS" {
		t.Errorf("AccountName() = %q, expected owner name with normalized space", got)
	}
	if got := st.Currency(); got != statement.OtherCurrency("DKK") {
		t.Errorf("Currency() = %v", got)
	}
	if b, ok := st.OpeningBalance(); !ok || b != 36000000 {
		t.Errorf("OpeningBalance() = %v, %v", b, ok)
	}
	if b, ok := st.ClosingBalance(); !ok || b != -110350 {
		t.Errorf("ClosingBalance() = %v, %v, expected -1103.50", b, ok)
	}
	if st.PeriodFrom() != date(2023, time.April, 1) || st.PeriodUntil() != date(2023, time.April, 20) {
		t.Errorf("period = %v..%v", st.PeriodFrom(), st.PeriodUntil())
	}

	txs := st.Transactions()
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, expected 2", len(txs))
	}

	first := txs[0]
	if first.Direction != statement.Debit || first.Amount != 36100000 {
		t.Errorf("first = %v %d", first.Direction, first.Amount)
	}
	if first.BookingDate != date(2023, time.April, 3) || first.ValueDate == nil || *first.ValueDate != date(2023, time.April, 4) {
		t.Errorf("first dates = %v / %v", first.BookingDate, first.ValueDate)
	}
	if first.Counterparty != "DK5000400440116243" {
		t.Errorf("first counterparty = %q", first.Counterparty)
	}
	if first.CounterpartyName != "Nordic Supplies Holding" {
		t.Errorf("first counterparty name = %q, expected the ultimate creditor", first.CounterpartyName)
	}
	if first.Description != "Invoice 2023-17\nOrder 99" {
		t.Errorf("first description = %q", first.Description)
	}

	second := txs[1]
	if second.Direction != statement.Credit || second.Amount != 150050 {
		t.Errorf("second = %v %d", second.Direction, second.Amount)
	}
	if second.BookingDate != date(2023, time.April, 15) || second.ValueDate != nil {
		t.Errorf("second dates = %v / %v", second.BookingDate, second.ValueDate)
	}
	if second.Counterparty != "" || second.CounterpartyName != "" || second.Description != "" {
		t.Errorf("second should carry no details, got %+v", second)
	}
}

func TestDecodeFragment(t *testing.T) {
	st := decodeFixture(t, "fragment.xml")

	if got := st.AccountID(); got != "ACC-77" {
		t.Errorf("AccountID() = %q", got)
	}
	if got := st.AccountName(); got != "Fragment Account" {
		t.Errorf("AccountName() = %q", got)
	}
	if got := st.Currency(); got != statement.EUR {
		t.Errorf("Currency() = %v, expected EUR from the first entry", got)
	}
	if _, ok := st.OpeningBalance(); ok {
		t.Error("OpeningBalance() should be absent")
	}
	if st.PeriodFrom() != date(2024, time.February, 1) || st.PeriodUntil() != date(2024, time.February, 10) {
		t.Errorf("period = %v..%v, expected booking date range", st.PeriodFrom(), st.PeriodUntil())
	}

	tx := st.Transactions()[0]
	if tx.Counterparty != "JD-1" || tx.CounterpartyName != "John Doe" {
		t.Errorf("counterparty = %q %q, expected debtor side for a credit", tx.Counterparty, tx.CounterpartyName)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  statement.Kind
	}{
		{
			name:  "malformed xml",
			input: "<Document><BkToCstmrStmt>",
			kind:  statement.KindXML,
		},
		{
			name:  "no statement",
			input: "<Document><BkToCstmrStmt></BkToCstmrStmt></Document>",
			kind:  statement.KindBadInput,
		},
		{
			name:  "unknown indicator",
			input: `<Stmt><Acct><Ccy>EUR</Ccy></Acct><Ntry><Amt>1.00</Amt><CdtDbtInd>CRD</CdtDbtInd><BookgDt><Dt>2024-01-01</Dt></BookgDt></Ntry></Stmt>`,
			kind:  statement.KindInvalidAmount,
		},
		{
			name:  "no currency",
			input: `<Stmt><Ntry><Amt>1.00</Amt><CdtDbtInd>CRDT</CdtDbtInd><BookgDt><Dt>2024-01-01</Dt></BookgDt></Ntry></Stmt>`,
			kind:  statement.KindInvalidCurrency,
		},
		{
			name:  "no period",
			input: `<Stmt><Acct><Ccy>EUR</Ccy></Acct></Stmt>`,
			kind:  statement.KindBadInput,
		},
		{
			name:  "bad booking date",
			input: `<Stmt><Acct><Ccy>EUR</Ccy></Acct><Ntry><Amt>1.00</Amt><CdtDbtInd>CRDT</CdtDbtInd><BookgDt><Dt>01.01.2024</Dt></BookgDt></Ntry></Stmt>`,
			kind:  statement.KindBadInput,
		},
		{
			name:  "too many fractional digits",
			input: `<Stmt><Acct><Ccy>EUR</Ccy></Acct><Ntry><Amt>1.001</Amt><CdtDbtInd>CRDT</CdtDbtInd><BookgDt><Dt>2024-01-01</Dt></BookgDt></Ntry></Stmt>`,
			kind:  statement.KindInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Decode() succeeded, expected error")
			}
			if got := statement.KindOf(err); got != tt.kind {
				t.Errorf("Decode() error kind = %v, expected %v (err: %v)", got, tt.kind, err)
			}
		})
	}
}

func TestDecodeSkipsBalanceWithUnknownIndicator(t *testing.T) {
	input := `<Stmt>
  <FrToDt><FrDtTm>2024-01-01</FrDtTm><ToDtTm>2024-01-31</ToDtTm></FrToDt>
  <Acct><Ccy>USD</Ccy></Acct>
  <Bal><Tp><CdOrPrtry><Cd>OPBD</Cd></CdOrPrtry></Tp><Amt>5.00</Amt><CdtDbtInd>XXXX</CdtDbtInd></Bal>
  <Bal><Tp><CdOrPrtry><Cd>CLBD</Cd></CdOrPrtry></Tp><Amt>1.00</Amt><CdtDbtInd>CRDT</CdtDbtInd></Bal>
  <Bal><Tp><CdOrPrtry><Cd>CLBD</Cd></CdOrPrtry></Tp><Amt>2.00</Amt><CdtDbtInd>CRDT</CdtDbtInd></Bal>
</Stmt>`
	var logs bytes.Buffer
	st, err := Decode(strings.NewReader(input), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, ok := st.OpeningBalance(); ok {
		t.Error("opening balance with unknown indicator should be skipped")
	}
	if b, _ := st.ClosingBalance(); b != 200 {
		t.Errorf("ClosingBalance() = %v, expected the last CLBD", b)
	}
	if !strings.Contains(logs.String(), "unknown credit/debit indicator") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    civil.Date
		wantErr bool
	}{
		{"2023-04-20", date(2023, time.April, 20), false},
		{"2023-04-20T23:24:31", date(2023, time.April, 20), false},
		{"2023-04-20T23:24:31.123", date(2023, time.April, 20), false},
		{"2023-04-20T23:59:59+02:00", date(2023, time.April, 20), false},
		{"2023-04-20T23:59:59Z", date(2023, time.April, 20), false},
		{" 2023-04-20 ", date(2023, time.April, 20), false},
		{"20.04.2023", civil.Date{}, true},
		{"2023-02-30", civil.Date{}, true},
		{"", civil.Date{}, true},
	}

	for _, tt := range tests {
		got, err := parseDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDate(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	st := decodeFixture(t, "statement.xml", WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	clock := WithClock(func() time.Time { return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC) })

	var buf bytes.Buffer
	if err := Encode(&buf, st, clock); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`<Document xmlns="` + Namespace + `">`,
		"<MsgId>serialized_via_parser-20240102030405</MsgId>",
		"<Id>stmt-DK8030000001234567-20240102030405</Id>",
		"<CreDtTm>2024-01-02T03:04:05</CreDtTm>",
		`<Amt Ccy="DKK">361000.00</Amt>`,
		"<Sts>BOOK</Sts>",
		"<Cd>CLBD</Cd>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("encoded document is missing %q", want)
		}
	}

	got, err := Decode(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Decode() of encoded output error = %v\n%s", err, out)
	}

	// The encoder always writes a value date.
	p := st.Params()
	for i := range p.Transactions {
		p.Transactions[i].ValueDate = statement.DatePtr(p.Transactions[i].EffectiveValueDate())
	}
	want, err := statement.New(p)
	if err != nil {
		t.Fatal(err)
	}

	if diffs := statement.Compare(want, got); len(diffs) != 0 {
		t.Errorf("round trip differences: %v", diffs)
	}
	if got.Currency() != want.Currency() || got.AccountName() != want.AccountName() {
		t.Errorf("got %v %q, expected %v %q", got.Currency(), got.AccountName(), want.Currency(), want.AccountName())
	}
	gotOpen, _ := got.OpeningBalance()
	gotClose, _ := got.ClosingBalance()
	if gotOpen != 36000000 || gotClose != -110350 {
		t.Errorf("balances = %v / %v", gotOpen, gotClose)
	}
	if got.PeriodFrom() != want.PeriodFrom() || got.PeriodUntil() != want.PeriodUntil() {
		t.Errorf("period = %v..%v", got.PeriodFrom(), got.PeriodUntil())
	}
}

func TestEncodeOtherCurrencyAndCreditParties(t *testing.T) {
	st, err := statement.New(statement.Params{
		AccountID:   "ACC",
		Currency:    statement.OtherCurrency("Тугрик"),
		PeriodFrom:  date(2024, time.March, 1),
		PeriodUntil: date(2024, time.March, 2),
		Transactions: []statement.Transaction{{
			BookingDate:      date(2024, time.March, 1),
			Amount:           100,
			Direction:        statement.Credit,
			Counterparty:     "DE89370400440532013000",
			CounterpartyName: "Max Mustermann",
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := FromStatement(st)
	if got := doc.BkToCstmrStmt.Stmt[0].Acct.Ccy; got != "???" {
		t.Errorf("Ccy = %q, expected placeholder for an unknown currency", got)
	}
	parties := doc.BkToCstmrStmt.Stmt[0].Ntry[0].NtryDtls.TxDtls[0].RltdPties
	if parties == nil || parties.Dbtr == nil || parties.Dbtr.Nm != "Max Mustermann" || parties.DbtrAcct.ID.IBAN != "DE89370400440532013000" {
		t.Errorf("credit counterparty should be written on the debtor side, got %+v", parties)
	}
	if parties != nil && (parties.Cdtr != nil || parties.CdtrAcct != nil) {
		t.Error("creditor side should be empty")
	}
	if doc.BkToCstmrStmt.Stmt[0].Ntry[0].NtryDtls.TxDtls[0].RmtInf != nil {
		t.Error("empty description should not produce remittance information")
	}
}
