package ledger

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

const (
	unknownCommodity = "XXX"
	amountColumn     = 60
)

// Converter converts statements to Beancount entries.
type Converter struct {
	mapper *Mapper
	now    func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithMapper sets the account mapping.
func WithMapper(m *Mapper) Option {
	return func(c *Converter) {
		if m != nil {
			c.mapper = m
		}
	}
}

// WithClock sets the time source for the generated-at header.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// NewConverter creates a new Converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{mapper: DefaultMapper(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode writes st as a Beancount file.
func Encode(w io.Writer, st *statement.Statement, opts ...Option) error {
	c := NewConverter(opts...)

	var sb strings.Builder
	sb.WriteString(c.FileHeader(st.AccountID()))
	for _, d := range c.Directives(st) {
		sb.WriteString(d.Text)
		sb.WriteString("\n")
	}
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return statement.Wrap(statement.KindIO, err, "write beancount")
	}
	return nil
}

// FileHeader returns the comment block that opens a generated file.
func (c *Converter) FileHeader(subject string) string {
	return fmt.Sprintf("; Beancount file for %s\n; Generated at %s\n\n", subject, c.now().Format(time.RFC3339))
}

// Directives renders st in ledger order: account openings and the opening
// balance pad the day before the period, then the transactions, then the
// closing balance assertion on the day after the period.
func (c *Converter) Directives(st *statement.Statement) []Directive {
	commodity := st.Currency().ISOCode(unknownCommodity)
	bank := c.mapper.BankAccount(st.AccountID())
	before := st.PeriodFrom().AddDays(-1)

	txs := st.Transactions()
	accounts := []string{bank}
	for _, tx := range txs {
		if account := c.mapper.CounterAccount(tx); !slices.Contains(accounts, account) {
			accounts = append(accounts, account)
		}
	}

	opening, hasOpening := st.OpeningBalance()
	if hasOpening {
		accounts = append(accounts, OpeningBalanceAccount)
	}

	var out []Directive
	for i, account := range accounts {
		line := fmt.Sprintf("%s open %s", before, account)
		if i == 0 {
			line += " " + commodity
		}
		out = append(out, Directive{Date: before, Text: line + "\n"})
	}

	if hasOpening {
		out = append(out,
			Directive{Date: before, Text: fmt.Sprintf("%s pad %s %s\n", before, bank, OpeningBalanceAccount)},
			Directive{Date: st.PeriodFrom(), Text: FormatBalance(st.PeriodFrom(), bank, opening, commodity)},
		)
	}

	for _, tx := range txs {
		txn := c.ConvertTransaction(tx, bank, commodity)
		out = append(out, Directive{Date: txn.Date, Text: FormatTransaction(txn)})
	}

	if closing, ok := st.ClosingBalance(); ok {
		after := st.PeriodUntil().AddDays(1)
		out = append(out, Directive{Date: after, Text: FormatBalance(after, bank, closing, commodity)})
	}
	return out
}

// ConvertTransaction posts the signed amount to the bank account and the
// balancing amount to the mapped counter account.
func (c *Converter) ConvertTransaction(tx statement.Transaction, bank, commodity string) Transaction {
	amount := tx.SignedAmount().Decimal()

	metadata := map[string]string{}
	if tx.Counterparty != "" {
		metadata["counterparty"] = tx.Counterparty
	}
	if tx.ValueDate != nil && *tx.ValueDate != tx.BookingDate {
		metadata["value-date"] = tx.ValueDate.String()
	}

	return Transaction{
		Date:      tx.BookingDate,
		Narration: buildNarration(tx),
		Payee:     tx.CounterpartyName,
		Metadata:  metadata,
		Postings: []Posting{
			{Account: bank, Amount: amount, Currency: commodity},
			{Account: c.mapper.CounterAccount(tx), Amount: amount.Neg(), Currency: commodity},
		},
	}
}

// FormatTransaction formats a Beancount transaction as a string.
func FormatTransaction(txn Transaction) string {
	var sb strings.Builder

	sb.WriteString(txn.Date.String())
	sb.WriteString(" *")
	if txn.Payee != "" {
		sb.WriteString(" " + quote(txn.Payee))
	}
	sb.WriteString(" " + quote(txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #" + tag)
	}
	sb.WriteString("\n")

	for _, key := range slices.Sorted(maps.Keys(txn.Metadata)) {
		fmt.Fprintf(&sb, "  %s: %s\n", key, quote(txn.Metadata[key]))
	}

	for _, posting := range txn.Postings {
		sb.WriteString("  ")
		sb.WriteString(posting.Account)
		sb.WriteString(padding(posting.Account))
		sb.WriteString(formatAmount(posting.Amount, posting.Currency))
		if posting.Comment != "" {
			sb.WriteString(" ; " + posting.Comment)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatBalance formats a balance assertion.
func FormatBalance(date civil.Date, account string, b statement.Balance, commodity string) string {
	prefix := fmt.Sprintf("%s balance %s", date, account)
	return prefix + padding(prefix) + formatAmount(b.Decimal(), commodity) + "\n"
}

// padding right-aligns amounts at a fixed column.
func padding(s string) string {
	return strings.Repeat(" ", max(1, amountColumn-len(s)))
}

func formatAmount(amount decimal.Decimal, commodity string) string {
	return amount.StringFixed(2) + " " + commodity
}

func buildNarration(tx statement.Transaction) string {
	if narration := strings.Join(strings.Fields(tx.Description), " "); narration != "" {
		return narration
	}
	if tx.Direction == statement.Credit {
		return "Incoming payment"
	}
	return "Outgoing payment"
}

func quote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
