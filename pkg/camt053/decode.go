package camt053

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

const (
	indicatorCredit = "CRDT"
	indicatorDebit  = "DBIT"
	balanceOpening  = "OPBD"
	balanceClosing  = "CLBD"

	accountNotProvided = "not provided"
)

var (
	nbspUTF8 = []byte("\u00a0")
	space    = []byte(" ")
)

// Decode reads a camt.053 document and converts its first statement.
func Decode(r io.Reader, opts ...Option) (*statement.Statement, error) {
	o := newOptions(opts)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, statement.Wrap(statement.KindIO, err, "read camt.053")
	}

	stmts, err := ParseStatements(data)
	if err != nil {
		return nil, err
	}
	if len(stmts) > 1 {
		o.logger.Warn("More than one statement in camt.053 input, only the first is read", "statements", len(stmts))
	}
	return ToStatement(&stmts[0], o.logger)
}

// ParseStatements returns every Stmt of a full Document envelope, or of a
// bare Stmt fragment when the envelope does not yield any.
func ParseStatements(data []byte) ([]Stmt, error) {
	data = bytes.ReplaceAll(data, nbspUTF8, space)

	var doc Document
	if err := newDecoder(data).Decode(&doc); err == nil && len(doc.BkToCstmrStmt.Stmt) > 0 {
		return doc.BkToCstmrStmt.Stmt, nil
	}

	stmts, err := parseFragments(data)
	if err != nil {
		return nil, statement.Wrap(statement.KindXML, err, "parse camt.053")
	}
	if len(stmts) == 0 {
		return nil, statement.Errorf(statement.KindBadInput, "camt.053 input has no <Stmt>")
	}
	return stmts, nil
}

func newDecoder(data []byte) *xml.Decoder {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charsetReader
	return d
}

// charsetReader decodes legacy encodings declared in the XML prolog and
// normalizes their non-breaking spaces.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, err
	}
	nbsp := runes.Map(func(r rune) rune {
		if r == '\u00a0' {
			return ' '
		}
		return r
	})
	return transform.NewReader(input, transform.Chain(enc.NewDecoder(), nbsp)), nil
}

func parseFragments(data []byte) ([]Stmt, error) {
	d := newDecoder(data)
	var stmts []Stmt
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return stmts, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Stmt" {
			continue
		}
		var s Stmt
		if err := d.DecodeElement(&s, &se); err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
}

// ToStatement converts a raw Stmt into the canonical model.
func ToStatement(s *Stmt, logger *slog.Logger) (*statement.Statement, error) {
	if logger == nil {
		logger = slog.Default()
	}

	accountID := s.Acct.ID.value()
	if accountID == "" {
		accountID = accountNotProvided
	}

	currency, err := detectCurrency(s)
	if err != nil {
		return nil, err
	}

	opening, closing, err := extractBalances(s, logger)
	if err != nil {
		return nil, err
	}

	txs := make([]statement.Transaction, 0, len(s.Ntry))
	for i := range s.Ntry {
		tx, err := s.Ntry[i].transaction()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	from, until, err := detectPeriod(s, txs)
	if err != nil {
		return nil, err
	}

	return statement.New(statement.Params{
		AccountID:      accountID,
		AccountName:    s.Acct.name(),
		Currency:       currency,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   txs,
		PeriodFrom:     from,
		PeriodUntil:    until,
	})
}

func (id AccountID) value() string {
	if iban := strings.TrimSpace(id.IBAN); iban != "" {
		return iban
	}
	if id.Othr != nil {
		return strings.TrimSpace(id.Othr.ID)
	}
	return ""
}

func (a Account) name() string {
	if nm := strings.TrimSpace(a.Nm); nm != "" {
		return nm
	}
	if a.Ownr != nil {
		return strings.TrimSpace(a.Ownr.Nm)
	}
	return ""
}

// currencySources is the lookup order for the statement currency.
var currencySources = []func(*Stmt) string{
	func(s *Stmt) string { return s.Acct.Ccy },
	func(s *Stmt) string {
		if len(s.Bal) == 0 {
			return ""
		}
		return s.Bal[0].Amt.Ccy
	},
	func(s *Stmt) string {
		if len(s.Ntry) == 0 {
			return ""
		}
		return s.Ntry[0].Amt.Ccy
	},
}

func detectCurrency(s *Stmt) (statement.Currency, error) {
	for _, source := range currencySources {
		if ccy := strings.TrimSpace(source(s)); ccy != "" {
			return statement.ParseCurrency(ccy), nil
		}
	}
	return statement.Currency{}, statement.Errorf(statement.KindInvalidCurrency, "no currency found in camt.053 statement")
}

func parseIndicator(raw string) (statement.Direction, bool) {
	switch strings.TrimSpace(raw) {
	case indicatorCredit:
		return statement.Credit, true
	case indicatorDebit:
		return statement.Debit, true
	}
	return 0, false
}

// extractBalances keeps the last OPBD and CLBD balance.
func extractBalances(s *Stmt, logger *slog.Logger) (opening, closing *statement.Balance, err error) {
	for _, bal := range s.Bal {
		code := strings.TrimSpace(bal.Tp.CdOrPrtry.Cd)
		if code != balanceOpening && code != balanceClosing {
			continue
		}

		dir, ok := parseIndicator(bal.CdtDbtInd)
		if !ok {
			logger.Warn("Skipping camt.053 balance with unknown credit/debit indicator", "code", code, "indicator", bal.CdtDbtInd)
			continue
		}

		b, err := statement.ParseSignedBalance(bal.Amt.Value, dir)
		if err != nil {
			return nil, nil, err
		}
		if code == balanceOpening {
			opening = &b
		} else {
			closing = &b
		}
	}
	return opening, closing, nil
}

func detectPeriod(s *Stmt, txs []statement.Transaction) (civil.Date, civil.Date, error) {
	if p := s.FrToDt; p != nil && strings.TrimSpace(p.FrDtTm) != "" && strings.TrimSpace(p.ToDtTm) != "" {
		from, err := parseDate(p.FrDtTm)
		if err != nil {
			return civil.Date{}, civil.Date{}, err
		}
		until, err := parseDate(p.ToDtTm)
		if err != nil {
			return civil.Date{}, civil.Date{}, err
		}
		return from, until, nil
	}

	from, until, ok := statement.BookingRange(txs)
	if !ok {
		return civil.Date{}, civil.Date{}, statement.Errorf(statement.KindBadInput, "missing camt.053 statement period")
	}
	return from, until, nil
}

// parseDate accepts YYYY-MM-DD or a date-time with optional fraction and
// zone suffix. The calendar date is taken as written.
func parseDate(raw string) (civil.Date, error) {
	s := strings.TrimSpace(raw)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	if dt, err := civil.ParseDateTime(s); err == nil {
		return dt.Date, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return civil.DateOf(t), nil
	}
	return civil.Date{}, statement.Errorf(statement.KindBadInput, "invalid camt.053 date: %q", raw)
}

func (e *Entry) transaction() (statement.Transaction, error) {
	dir, ok := parseIndicator(e.CdtDbtInd)
	if !ok {
		return statement.Transaction{}, statement.Errorf(statement.KindInvalidAmount, "unknown CdtDbtInd: %q", e.CdtDbtInd)
	}

	amount, err := statement.ParseAmount(e.Amt.Value)
	if err != nil {
		return statement.Transaction{}, err
	}

	booking, err := parseDate(e.BookgDt.value())
	if err != nil {
		return statement.Transaction{}, err
	}

	tx := statement.Transaction{
		BookingDate: booking,
		Amount:      amount,
		Direction:   dir,
	}

	if raw := e.ValDt.value(); raw != "" {
		value, err := parseDate(raw)
		if err != nil {
			return statement.Transaction{}, err
		}
		tx.ValueDate = &value
	}

	if e.NtryDtls != nil && len(e.NtryDtls.TxDtls) > 0 {
		details := &e.NtryDtls.TxDtls[0]
		tx.Counterparty, tx.CounterpartyName = details.counterparty(dir)
		tx.Description = details.description()
	}
	return tx, nil
}

// counterparty reads the side opposite the statement holder: the creditor
// for debits and the debtor for credits. Ultimate parties win over direct
// ones.
func (t *TxDetails) counterparty(dir statement.Direction) (id, name string) {
	p := t.RltdPties
	if p == nil {
		return "", ""
	}

	ultimate, direct, account := p.UltmtDbtr, p.Dbtr, p.DbtrAcct
	if dir == statement.Debit {
		ultimate, direct, account = p.UltmtCdtr, p.Cdtr, p.CdtrAcct
	}

	for _, party := range []*Party{ultimate, direct} {
		if party != nil && strings.TrimSpace(party.Nm) != "" {
			name = strings.TrimSpace(party.Nm)
			break
		}
	}
	if account != nil {
		id = account.ID.value()
	}
	return id, name
}

func (t *TxDetails) description() string {
	if t.RmtInf == nil {
		return ""
	}
	return strings.Join(t.RmtInf.Ustrd, "\n")
}
