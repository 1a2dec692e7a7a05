// Package mt940 reads and writes SWIFT MT940 customer statement messages.
//
// A message body is a block of tag lines such as ":25:" or ":61:" framed by
// "{4:" ... "-}" or "(4:" ... "-)". Tag values follow fixed positional
// grammars which are parsed into the raw structures of this package before
// conversion to the canonical statement model.
package mt940

// Balance is a raw balance tag value (60F/60M, 62F/62M, 64).
type Balance struct {
	Mark     string // C or D
	Date     string // YYMMDD
	Currency string
	Amount   string
}

// Entry is a raw :61: statement line with the free text that follows it.
type Entry struct {
	Raw               string
	ValueDate         string // YYMMDD
	EntryDate         string // MMDD or DD, empty when absent
	Mark              string // C, D, RC or RD
	FundsCode         string
	Amount            string
	TransactionType   string
	CustomerReference string
	BankReference     string
	ExtraDetails      string
	Info              []string
}

// Message is one framed MT940 statement.
type Message struct {
	Reference        string
	AccountID        string
	StatementNumber  string
	Opening          *Balance
	Closing          *Balance
	ClosingAvailable *Balance
	Entries          []Entry
	// Info holds :86: text that precedes the first :61: line.
	Info []string
}
