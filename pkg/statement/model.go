// Package statement provides the canonical bank statement model shared by
// every format codec, together with amount and currency utilities.
package statement

import (
	"cloud.google.com/go/civil"
)

// Direction is the side of a transaction or balance.
type Direction int

const (
	Debit Direction = iota + 1
	Credit
)

// Sign returns -1 for Debit and +1 for Credit.
func (d Direction) Sign() int64 {
	if d == Debit {
		return -1
	}
	return 1
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

func (d Direction) String() string {
	switch d {
	case Debit:
		return "Debit"
	case Credit:
		return "Credit"
	}
	return "Unknown"
}

// Balance is a signed amount in minor units. Credit balances are positive,
// debit balances negative.
type Balance int64

// NewBalance applies the direction sign to an unsigned magnitude.
func NewBalance(minor uint64, dir Direction) Balance {
	return Balance(int64(minor) * dir.Sign())
}

// Direction returns Debit for negative balances and Credit otherwise.
func (b Balance) Direction() Direction {
	if b < 0 {
		return Debit
	}
	return Credit
}

// Abs returns the magnitude in minor units.
func (b Balance) Abs() uint64 {
	if b < 0 {
		return uint64(-b)
	}
	return uint64(b)
}

// Transaction is one booked entry of a statement. Amount never carries a
// sign; the side lives in Direction.
type Transaction struct {
	BookingDate civil.Date
	// ValueDate is nil when the source format has no settlement date.
	ValueDate   *civil.Date
	Amount      uint64
	Direction   Direction
	Description string
	// Counterparty and CounterpartyName are empty when unknown.
	Counterparty     string
	CounterpartyName string
}

// SignedAmount returns the amount with the direction sign applied.
func (t Transaction) SignedAmount() Balance {
	return NewBalance(t.Amount, t.Direction)
}

// EffectiveValueDate returns the value date, falling back to the booking date.
func (t Transaction) EffectiveValueDate() civil.Date {
	if t.ValueDate != nil {
		return *t.ValueDate
	}
	return t.BookingDate
}

// Params holds everything needed to build a Statement.
type Params struct {
	AccountID      string
	AccountName    string
	Currency       Currency
	OpeningBalance *Balance
	ClosingBalance *Balance
	Transactions   []Transaction
	PeriodFrom     civil.Date
	PeriodUntil    civil.Date
}

// Statement is an immutable account statement. Build one with New; edits
// require building a new value.
type Statement struct {
	accountID    string
	accountName  string
	currency     Currency
	opening      *Balance
	closing      *Balance
	transactions []Transaction
	periodFrom   civil.Date
	periodUntil  civil.Date
}

// New validates p and returns a Statement that owns copies of its data.
func New(p Params) (*Statement, error) {
	if !p.PeriodFrom.IsValid() || !p.PeriodUntil.IsValid() {
		return nil, Errorf(KindBadInput, "statement period is not a valid date range: %s..%s", p.PeriodFrom, p.PeriodUntil)
	}
	if p.PeriodUntil.Before(p.PeriodFrom) {
		return nil, Errorf(KindBadInput, "statement period ends before it starts: %s..%s", p.PeriodFrom, p.PeriodUntil)
	}

	txs := make([]Transaction, len(p.Transactions))
	for i, tx := range p.Transactions {
		if !tx.BookingDate.IsValid() {
			return nil, Errorf(KindMissingField, "transaction #%d has no booking date", i)
		}
		if tx.Direction != Debit && tx.Direction != Credit {
			return nil, Errorf(KindInvalidDirection, "transaction #%d has no direction", i)
		}
		if tx.ValueDate != nil {
			vd := *tx.ValueDate
			tx.ValueDate = &vd
		}
		txs[i] = tx
	}

	return &Statement{
		accountID:    p.AccountID,
		accountName:  p.AccountName,
		currency:     p.Currency,
		opening:      copyBalance(p.OpeningBalance),
		closing:      copyBalance(p.ClosingBalance),
		transactions: txs,
		periodFrom:   p.PeriodFrom,
		periodUntil:  p.PeriodUntil,
	}, nil
}

func copyBalance(b *Balance) *Balance {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// AccountID returns the format-native account identifier.
func (s *Statement) AccountID() string { return s.accountID }

// AccountName returns the account holder name, empty when unknown.
func (s *Statement) AccountName() string { return s.accountName }

func (s *Statement) Currency() Currency { return s.currency }

// OpeningBalance reports the opening balance and whether one was recorded.
func (s *Statement) OpeningBalance() (Balance, bool) {
	if s.opening == nil {
		return 0, false
	}
	return *s.opening, true
}

// ClosingBalance reports the closing balance and whether one was recorded.
func (s *Statement) ClosingBalance() (Balance, bool) {
	if s.closing == nil {
		return 0, false
	}
	return *s.closing, true
}

// Transactions returns a copy of the transactions in document order.
func (s *Statement) Transactions() []Transaction {
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	for i := range out {
		if out[i].ValueDate != nil {
			vd := *out[i].ValueDate
			out[i].ValueDate = &vd
		}
	}
	return out
}

// Len returns the number of transactions.
func (s *Statement) Len() int { return len(s.transactions) }

func (s *Statement) PeriodFrom() civil.Date { return s.periodFrom }

func (s *Statement) PeriodUntil() civil.Date { return s.periodUntil }

// Params returns the statement's data as Params, for building a modified copy.
func (s *Statement) Params() Params {
	return Params{
		AccountID:      s.accountID,
		AccountName:    s.accountName,
		Currency:       s.currency,
		OpeningBalance: copyBalance(s.opening),
		ClosingBalance: copyBalance(s.closing),
		Transactions:   s.Transactions(),
		PeriodFrom:     s.periodFrom,
		PeriodUntil:    s.periodUntil,
	}
}

// LatestBookingDate returns the latest booking date, or false for an empty
// statement.
func (s *Statement) LatestBookingDate() (civil.Date, bool) {
	var latest civil.Date
	for i, tx := range s.transactions {
		if i == 0 || tx.BookingDate.After(latest) {
			latest = tx.BookingDate
		}
	}
	return latest, len(s.transactions) > 0
}

// BookingRange returns the earliest and latest booking dates.
func BookingRange(txs []Transaction) (from, until civil.Date, ok bool) {
	for i, tx := range txs {
		if i == 0 || tx.BookingDate.Before(from) {
			from = tx.BookingDate
		}
		if i == 0 || tx.BookingDate.After(until) {
			until = tx.BookingDate
		}
	}
	return from, until, len(txs) > 0
}

// BalancePtr is a convenience for filling Params.
func BalancePtr(b Balance) *Balance {
	return &b
}

// DatePtr is a convenience for filling Transaction.ValueDate.
func DatePtr(d civil.Date) *civil.Date {
	return &d
}
