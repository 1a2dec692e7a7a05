package csvstmt

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

const (
	noValue             = "-"
	titleStatement      = "Выписка по счету"
	labelLastOperation  = "Дата последней операции"
	labelLastOperationC = 10
)

// Encode writes st as a CSV export.
func Encode(w io.Writer, st *statement.Statement, opts ...Option) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(EncodeRows(st, opts...)); err != nil {
		return statement.Wrap(statement.KindIO, err, "write CSV")
	}
	return nil
}

// EncodeRows renders st as fixed-width rows in the bank export layout.
func EncodeRows(st *statement.Statement, opts ...Option) [][]string {
	o := newOptions(opts)

	rows := headerRows(st, o)
	rows = append(rows, tableHeaderRow(), tableSubheaderRow())

	var debitTotal, creditTotal uint64
	for _, tx := range st.Transactions() {
		rows = append(rows, transactionRow(st, tx))
		if tx.Direction == statement.Debit {
			debitTotal += tx.Amount
		} else {
			creditTotal += tx.Amount
		}
	}

	opening, _ := st.OpeningBalance()
	closing, _ := st.ClosingBalance()

	turnover := emptyRow()
	turnover[footerTitleCol] = FooterTurnover
	turnover[footerDebitCol] = statement.FormatMinorUnits(debitTotal, '.')
	turnover[footerCreditCol] = statement.FormatMinorUnits(creditTotal, '.')

	count := emptyRow()
	count[footerTitleCol] = FooterOperationCount
	count[footerDebitCol] = strconv.Itoa(st.Len())

	rows = append(rows,
		balanceRow(FooterOpening, opening),
		turnover,
		balanceRow(FooterClosing, closing),
		count,
	)

	o.logger.Debug("Encoded bank export", "account", st.AccountID(), "rows", len(rows))
	return rows
}

func headerRows(st *statement.Statement, o *options) [][]string {
	rows := make([][]string, MinHeaderRows)
	for i := range rows {
		rows[i] = emptyRow()
	}

	set := func(p cellPos, v string) {
		rows[p.row][p.col] = v
	}

	last := st.PeriodUntil()
	if latest, ok := st.LatestBookingDate(); ok {
		last = latest
	}

	set(posSystem, o.system)
	set(posBank, o.bank)
	set(posCreationDate, formatRowDate(civil.DateOf(o.now())))
	rows[posAccountID.row][1] = titleStatement
	set(posAccountID, st.AccountID())
	set(posAccountName, st.AccountName())
	set(posPeriodFrom, periodFromPrefix+" "+formatRusDate(st.PeriodFrom()))
	set(posPeriodUntil, periodUntilPrefix+" "+formatRusDate(st.PeriodUntil()))
	set(posCurrency, st.Currency().Label())
	rows[posLastTransaction.row][labelLastOperationC] = labelLastOperation
	set(posLastTransaction, formatRowDate(last))

	return rows
}

func tableHeaderRow() []string {
	row := emptyRow()
	row[colDate] = LabelBookingDate
	row[colDebitAccount] = LabelAccount
	row[colDebitAmount] = LabelDebitAmount
	row[colCreditAmount] = LabelCreditAmount
	row[colDocNumber] = LabelDocNumber
	row[colOperationType] = LabelOperationType
	row[colBank] = LabelBankFull
	row[colPurpose] = LabelPurpose
	return row
}

func tableSubheaderRow() []string {
	row := emptyRow()
	row[colDebitAccount] = LabelDebit
	row[colCreditAccount] = LabelCredit
	return row
}

func transactionRow(st *statement.Statement, tx statement.Transaction) []string {
	own := formatPartyBlock(st.AccountID(), st.AccountName())
	other := formatPartyBlock(tx.Counterparty, tx.CounterpartyName)

	row := emptyRow()
	row[colDate] = formatRowDate(tx.BookingDate)
	amount := statement.FormatMinorUnits(tx.Amount, '.')
	if tx.Direction == statement.Debit {
		row[colDebitAccount] = own
		row[colCreditAccount] = other
		row[colDebitAmount] = amount
	} else {
		row[colDebitAccount] = other
		row[colCreditAccount] = own
		row[colCreditAmount] = amount
	}
	row[colPurpose] = tx.Description
	return row
}

// formatPartyBlock renders "account\n-\nname". Both parts empty yields an
// empty cell.
func formatPartyBlock(account, name string) string {
	if account == "" && name == "" {
		return ""
	}
	if account == "" {
		account = noValue
	}
	if name == "" {
		name = noValue
	}
	return strings.Join([]string{account, noValue, name}, "\n")
}

func balanceRow(title string, b statement.Balance) []string {
	row := emptyRow()
	row[footerTitleCol] = title
	if b.Direction() == statement.Debit {
		row[footerDebitCol] = statement.FormatBalance(b, '.')
	} else {
		row[footerCreditCol] = statement.FormatBalance(b, '.')
	}
	return row
}
