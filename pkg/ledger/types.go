// Package ledger renders bank statements as Beancount plain-text
// accounting entries.
package ledger

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction represents a Beancount transaction.
type Transaction struct {
	Date      civil.Date
	Narration string
	Payee     string            // optional
	Tags      []string          // optional
	Metadata  map[string]string // written in key order
	Postings  []Posting
}

// Posting represents a posting in a Beancount transaction.
type Posting struct {
	Account  string          // e.g. "Assets:Bank:DK8030000001234567"
	Amount   decimal.Decimal // positive for debit, negative for credit
	Currency string
	Comment  string // optional
}

// Directive is one rendered ledger entry with the date it is filed under.
type Directive struct {
	Date civil.Date
	Text string
}
