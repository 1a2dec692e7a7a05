package csvstmt

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// Header holds the raw fields of the header block.
type Header struct {
	CreationDate        string
	System              string
	Bank                string
	ClientAccount       string
	ClientName          string
	PeriodFrom          string
	PeriodUntil         string
	Currency            string
	LastTransactionDate string
}

// Record is one raw transaction row.
type Record struct {
	BookingDate   string
	DebitAccount  string
	CreditAccount string
	DebitAmount   string
	CreditAmount  string
	DocNumber     string
	OperationType string
	Bank          string
	Purpose       string
}

// Footer holds the signed balances read from the footer block.
type Footer struct {
	OpeningBalance statement.Balance
	ClosingBalance statement.Balance
}

// Data is a parsed export before conversion to the canonical model.
type Data struct {
	Header  Header
	Layout  TableLayout
	Records []Record
	Footer  Footer
}

// Decode reads a CSV export and converts it into a Statement.
func Decode(r io.Reader, opts ...Option) (*statement.Statement, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return DecodeRows(rows, opts...)
}

// DecodeRows converts already split rows into a Statement.
func DecodeRows(rows [][]string, opts ...Option) (*statement.Statement, error) {
	o := newOptions(opts)
	data, err := Parse(rows)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Parsed bank export", "account", data.Header.ClientAccount, "records", len(data.Records))

	st, err := data.Statement()
	if err != nil {
		return nil, err
	}
	if last, ok := data.Header.lastTransactionDate(); ok {
		if latest, ok := st.LatestBookingDate(); ok && latest.After(last) {
			o.logger.Warn("Booking date after the header's last transaction date",
				"latest", latest.String(), "header", last.String())
		}
	}
	return st, nil
}

// ReadRows splits CSV input into rows. The reader has no header row and
// rows may differ in length.
func ReadRows(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\uFEFF" {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, statement.Wrap(statement.KindCSV, err, "read CSV")
			}
			return nil, statement.Wrap(statement.KindIO, err, "read CSV")
		}
		rows = append(rows, row)
	}
}

// Parse classifies rows into header block, table, data rows and footer.
func Parse(rows [][]string) (*Data, error) {
	var headerRows, dataRows, footerRows [][]string
	var headers, subheaders []string

	i := 0
	for ; i < len(rows); i++ {
		if isTableHeaderRow(rows[i]) {
			headers = rows[i]
			if i+1 >= len(rows) {
				return nil, statement.Errorf(statement.KindHeader, "unexpected EOF: second header row missing")
			}
			subheaders = rows[i+1]
			i += 2
			break
		}
		headerRows = append(headerRows, rows[i])
	}
	if headers == nil {
		return nil, statement.Errorf(statement.KindHeader, "table headers row not found")
	}

	for ; i < len(rows); i++ {
		if isFooterRow(rows[i]) {
			footerRows = rows[i:]
			break
		}
		dataRows = append(dataRows, rows[i])
	}
	if len(footerRows) == 0 {
		return nil, statement.Errorf(statement.KindHeader, "footer rows not found")
	}

	header, err := parseHeader(headerRows)
	if err != nil {
		return nil, err
	}

	layout, err := DiscoverLayout(headers, subheaders)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, row := range dataRows {
		if isBlankRow(row) {
			continue
		}
		records = append(records, parseRecord(row, layout))
	}

	footer, err := parseFooter(footerRows)
	if err != nil {
		return nil, err
	}

	return &Data{Header: header, Layout: layout, Records: records, Footer: footer}, nil
}

func parseHeader(rows [][]string) (Header, error) {
	if len(rows) < MinHeaderRows {
		return Header{}, statement.Errorf(statement.KindHeader, "not enough rows: got %d, expected at least %d", len(rows), MinHeaderRows)
	}

	get := func(p cellPos) string {
		return cell(rows[p.row], p.col)
	}

	return Header{
		CreationDate:        get(posCreationDate),
		System:              get(posSystem),
		Bank:                get(posBank),
		ClientAccount:       get(posAccountID),
		ClientName:          get(posAccountName),
		PeriodFrom:          get(posPeriodFrom),
		PeriodUntil:         get(posPeriodUntil),
		Currency:            get(posCurrency),
		LastTransactionDate: get(posLastTransaction),
	}, nil
}

func parseRecord(row []string, layout TableLayout) Record {
	return Record{
		BookingDate:   cell(row, layout.BookingDate),
		DebitAccount:  cell(row, layout.DebitAccount),
		CreditAccount: cell(row, layout.CreditAccount),
		DebitAmount:   cell(row, layout.DebitAmount),
		CreditAmount:  cell(row, layout.CreditAmount),
		DocNumber:     cell(row, layout.DocNumber),
		OperationType: cell(row, layout.OperationType),
		Bank:          cell(row, layout.Bank),
		Purpose:       cell(row, layout.Purpose),
	}
}

func parseFooter(rows [][]string) (Footer, error) {
	var opening, closing *statement.Balance

	for _, row := range rows {
		switch cell(row, footerTitleCol) {
		case FooterOpening:
			b, err := parseFooterBalance(row)
			if err != nil {
				return Footer{}, err
			}
			opening = &b
		case FooterClosing:
			b, err := parseFooterBalance(row)
			if err != nil {
				return Footer{}, err
			}
			closing = &b
		}
	}

	if opening == nil {
		return Footer{}, statement.Errorf(statement.KindHeader, "opening balance not found in footer")
	}
	if closing == nil {
		return Footer{}, statement.Errorf(statement.KindHeader, "closing balance not found in footer")
	}
	return Footer{OpeningBalance: *opening, ClosingBalance: *closing}, nil
}

// parseFooterBalance reads the debit/credit column pair of a balance row.
// The non-zero side decides the sign; two non-zero sides are rejected.
func parseFooterBalance(row []string) (statement.Balance, error) {
	debit, err := footerAmount(cell(row, footerDebitCol))
	if err != nil {
		return 0, err
	}
	credit, err := footerAmount(cell(row, footerCreditCol))
	if err != nil {
		return 0, err
	}

	switch {
	case debit != 0 && credit != 0:
		return 0, statement.Errorf(statement.KindHeader, "%s: both debit and credit balance are non-zero", cell(row, footerTitleCol))
	case debit != 0:
		return statement.NewBalance(debit, statement.Debit), nil
	default:
		return statement.NewBalance(credit, statement.Credit), nil
	}
}

func footerAmount(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return statement.ParseAmount(raw)
}

// Statement converts the parsed export into the canonical model.
func (d *Data) Statement() (*statement.Statement, error) {
	accountID := d.Header.ClientAccount

	from, err := parseRusDate(strings.TrimSpace(strings.TrimPrefix(d.Header.PeriodFrom, periodFromPrefix)))
	if err != nil {
		return nil, err
	}
	until, err := parseRusDate(strings.TrimSpace(strings.TrimPrefix(d.Header.PeriodUntil, periodUntilPrefix)))
	if err != nil {
		return nil, err
	}

	txs := make([]statement.Transaction, 0, len(d.Records))
	for _, rec := range d.Records {
		tx, err := rec.Transaction(accountID)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	return statement.New(statement.Params{
		AccountID:      accountID,
		AccountName:    d.Header.ClientName,
		Currency:       statement.ParseCurrency(d.Header.Currency),
		OpeningBalance: statement.BalancePtr(d.Footer.OpeningBalance),
		ClosingBalance: statement.BalancePtr(d.Footer.ClosingBalance),
		Transactions:   txs,
		PeriodFrom:     from,
		PeriodUntil:    until,
	})
}

// Transaction converts a row. ourAccount identifies which party block
// belongs to the statement holder.
func (r Record) Transaction(ourAccount string) (statement.Transaction, error) {
	booking, err := parseRowDate(r.BookingDate)
	if err != nil {
		return statement.Transaction{}, err
	}

	amount, dir, err := amountAndDirection(r.DebitAmount, r.CreditAmount)
	if err != nil {
		return statement.Transaction{}, err
	}

	cpAccount, cpName := counterparty(r.DebitAccount, r.CreditAccount, ourAccount)

	return statement.Transaction{
		BookingDate:      booking,
		Amount:           amount,
		Direction:        dir,
		Description:      r.Purpose,
		Counterparty:     cpAccount,
		CounterpartyName: cpName,
	}, nil
}

// amountAndDirection requires exactly one filled amount cell.
func amountAndDirection(debit, credit string) (uint64, statement.Direction, error) {
	debit, credit = strings.TrimSpace(debit), strings.TrimSpace(credit)

	switch {
	case debit != "" && credit == "":
		amount, err := statement.ParseAmount(debit)
		return amount, statement.Debit, err
	case credit != "" && debit == "":
		amount, err := statement.ParseAmount(credit)
		return amount, statement.Credit, err
	}
	return 0, 0, &statement.Error{Kind: statement.KindAmountSideConflict}
}

// partyBlock splits a multi-line party cell: the first non-empty line is
// the account, the third the name. A "-" line means none.
func partyBlock(block string) (account, name string) {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 && lines[0] != noValue {
		account = lines[0]
	}
	if len(lines) > 2 && lines[2] != noValue {
		name = lines[2]
	}
	return account, name
}

// counterparty picks the party block opposite the statement holder's.
func counterparty(debitBlock, creditBlock, ourAccount string) (string, string) {
	debitAcc, debitName := partyBlock(debitBlock)
	creditAcc, creditName := partyBlock(creditBlock)

	if debitAcc != "" && debitAcc == ourAccount {
		return creditAcc, creditName
	}
	if creditAcc != "" && creditAcc == ourAccount {
		return debitAcc, debitName
	}
	return "", ""
}

// lastTransactionDate parses the header's last-transaction date when present.
func (h Header) lastTransactionDate() (civil.Date, bool) {
	if h.LastTransactionDate == "" {
		return civil.Date{}, false
	}
	d, err := parseRowDate(h.LastTransactionDate)
	return d, err == nil
}
