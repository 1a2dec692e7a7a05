package statement

import (
	"fmt"
	"strings"
)

// Difference describes one mismatch between two statements.
type Difference struct {
	// Field is "account id", "transaction", or "extra transaction".
	Field string
	// Index is the transaction position, -1 for statement-level fields.
	Index int
	Left  string
	Right string
}

func (d Difference) String() string {
	if d.Index < 0 {
		return fmt.Sprintf("%s: %s != %s", d.Field, d.Left, d.Right)
	}
	return fmt.Sprintf("%s #%d: %s != %s", d.Field, d.Index, d.Left, d.Right)
}

// Compare walks two statements and reports differences in account id and
// in the position-wise transaction lists.
func Compare(a, b *Statement) []Difference {
	var diffs []Difference

	if a.AccountID() != b.AccountID() {
		diffs = append(diffs, Difference{Field: "account id", Index: -1, Left: a.AccountID(), Right: b.AccountID()})
	}

	left, right := a.Transactions(), b.Transactions()
	n := max(len(left), len(right))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(left):
			diffs = append(diffs, Difference{Field: "extra transaction", Index: i, Left: "-", Right: right[i].String()})
		case i >= len(right):
			diffs = append(diffs, Difference{Field: "extra transaction", Index: i, Left: left[i].String(), Right: "-"})
		case !left[i].Equal(right[i]):
			diffs = append(diffs, Difference{Field: "transaction", Index: i, Left: left[i].String(), Right: right[i].String()})
		}
	}

	return diffs
}

// Equal reports whether two transactions carry the same facts.
func (t Transaction) Equal(o Transaction) bool {
	if t.BookingDate != o.BookingDate || t.Amount != o.Amount || t.Direction != o.Direction {
		return false
	}
	if (t.ValueDate == nil) != (o.ValueDate == nil) {
		return false
	}
	if t.ValueDate != nil && *t.ValueDate != *o.ValueDate {
		return false
	}
	return t.Description == o.Description &&
		t.Counterparty == o.Counterparty &&
		t.CounterpartyName == o.CounterpartyName
}

func (t Transaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", t.BookingDate)
	if t.ValueDate != nil {
		fmt.Fprintf(&b, " (value %s)", *t.ValueDate)
	}
	fmt.Fprintf(&b, " %s %s", t.Direction, FormatMinorUnits(t.Amount, '.'))
	if t.Counterparty != "" || t.CounterpartyName != "" {
		fmt.Fprintf(&b, " [%s %s]", t.Counterparty, t.CounterpartyName)
	}
	if t.Description != "" {
		fmt.Fprintf(&b, " %q", t.Description)
	}
	return b.String()
}
