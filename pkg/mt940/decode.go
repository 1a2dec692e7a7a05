package mt940

import (
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

type options struct {
	logger *slog.Logger
}

// Option configures Decode.
type Option func(*options)

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Decode reads MT940 text and converts its first message.
func Decode(r io.Reader, opts ...Option) (*statement.Statement, error) {
	o := newOptions(opts)

	messages, err := ParseMessages(r, o.logger)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, statement.Errorf(statement.KindBadInput, "no MT940 message block found")
	}
	if len(messages) > 1 {
		o.logger.Warn("More than one MT940 message in input, only the first is read", "messages", len(messages))
	}
	return messages[0].Statement()
}

// Statement converts the raw message into the canonical model.
func (m *Message) Statement() (*statement.Statement, error) {
	opening, openingDate, err := m.Opening.balance()
	if err != nil {
		return nil, err
	}
	closing, closingDate, err := m.Closing.balance()
	if err != nil {
		return nil, err
	}

	currency, err := m.currency()
	if err != nil {
		return nil, err
	}

	txs := make([]statement.Transaction, 0, len(m.Entries))
	for i := range m.Entries {
		tx, err := m.Entries[i].transaction()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	first, last, hasTxs := statement.BookingRange(txs)

	var from civil.Date
	switch {
	case openingDate != nil:
		from = *openingDate
	case hasTxs:
		from = first
	case closingDate != nil:
		from = *closingDate
	default:
		return nil, statement.Errorf(statement.KindBadInput, "MT940: cannot determine statement period")
	}

	until := from
	switch {
	case closingDate != nil:
		until = *closingDate
	case hasTxs:
		until = last
	}

	return statement.New(statement.Params{
		AccountID:      m.AccountID,
		Currency:       currency,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Transactions:   txs,
		PeriodFrom:     from,
		PeriodUntil:    until,
	})
}

func (m *Message) currency() (statement.Currency, error) {
	for _, b := range []*Balance{m.Opening, m.Closing} {
		if b == nil {
			continue
		}
		if code := strings.TrimSpace(b.Currency); code != "" {
			return statement.ParseCurrency(code), nil
		}
	}
	return statement.Currency{}, statement.Errorf(statement.KindInvalidCurrency, "MT940: no currency in opening or closing balance")
}

// balance returns nil values for an absent balance tag.
func (b *Balance) balance() (*statement.Balance, *civil.Date, error) {
	if b == nil {
		return nil, nil, nil
	}

	var dir statement.Direction
	switch b.Mark {
	case "C":
		dir = statement.Credit
	case "D":
		dir = statement.Debit
	default:
		return nil, nil, statement.Errorf(statement.KindInvalidDirection, "MT940: balance mark %q", b.Mark)
	}

	date, err := parseYYMMDD(b.Date)
	if err != nil {
		return nil, nil, err
	}
	amount, err := statement.ParseSignedBalance(b.Amount, dir)
	if err != nil {
		return nil, nil, err
	}
	return &amount, &date, nil
}

// direction maps entry marks; reversals book on the opposite side.
func (e *Entry) direction() (statement.Direction, error) {
	switch e.Mark {
	case "C", "RD":
		return statement.Credit, nil
	case "D", "RC":
		return statement.Debit, nil
	}
	return 0, statement.Errorf(statement.KindInvalidDirection, "MT940: entry mark %q", e.Mark)
}

func (e *Entry) transaction() (statement.Transaction, error) {
	dir, err := e.direction()
	if err != nil {
		return statement.Transaction{}, err
	}

	value, err := parseYYMMDD(e.ValueDate)
	if err != nil {
		return statement.Transaction{}, err
	}
	booking := value
	if e.EntryDate != "" {
		if booking, err = deriveBookingDate(value, e.EntryDate); err != nil {
			return statement.Transaction{}, err
		}
	}

	amount, err := statement.ParseAmount(e.Amount)
	if err != nil {
		return statement.Transaction{}, err
	}

	id, name, _ := e.Counterparty()
	return statement.Transaction{
		BookingDate:      booking,
		ValueDate:        &value,
		Amount:           amount,
		Direction:        dir,
		Description:      e.Description(id),
		Counterparty:     id,
		CounterpartyName: name,
	}, nil
}
