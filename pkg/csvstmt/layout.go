// Package csvstmt reads and writes the fixed-layout bank statement export:
// a header block, a two-row table header, transaction rows and a footer.
package csvstmt

import (
	"strings"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// Width is the number of columns in every encoded row.
const Width = 23

// MinHeaderRows is the smallest header block the decoder accepts.
const MinHeaderRows = 8

// Table header labels.
const (
	LabelBookingDate   = "Дата проводки"
	LabelAccount       = "Счет"
	LabelDebitAmount   = "Сумма по дебету"
	LabelCreditAmount  = "Сумма по кредиту"
	LabelDocNumber     = "№ документа"
	LabelOperationType = "ВО"
	LabelBank          = "Банк"
	LabelBankFull      = "Банк (БИК и наименование)"
	LabelPurpose       = "Назначение платежа"
	LabelDebit         = "Дебет"
	LabelCredit        = "Кредит"
)

// Footer labels.
const (
	FooterNoAccount      = "б/с"
	FooterOperationCount = "Количество операций"
	FooterOpening        = "Входящий остаток"
	FooterClosing        = "Исходящий остаток"
	FooterTurnover       = "Итого оборотов"
)

// Period prefixes in the header block.
const (
	periodFromPrefix  = "за период с"
	periodUntilPrefix = "по"
)

// cellPos addresses a cell of the header block.
type cellPos struct {
	row, col int
}

// Header block positions.
var (
	posSystem          = cellPos{1, 5}
	posBank            = cellPos{2, 1}
	posCreationDate    = cellPos{3, 1}
	posAccountID       = cellPos{4, 12}
	posAccountName     = cellPos{5, 12}
	posPeriodFrom      = cellPos{6, 2}
	posPeriodUntil     = cellPos{6, 15}
	posCurrency        = cellPos{7, 2}
	posLastTransaction = cellPos{7, 12}
)

// Footer balance columns.
const (
	footerTitleCol  = 1
	footerDebitCol  = 7
	footerCreditCol = 11
)

// Encoded table columns.
const (
	colDate          = 1
	colDebitAccount  = 4
	colCreditAccount = 8
	colDebitAmount   = 9
	colCreditAmount  = 13
	colDocNumber     = 14
	colOperationType = 16
	colBank          = 17
	colPurpose       = 20
)

// TableLayout holds the discovered column index of every table field.
type TableLayout struct {
	BookingDate   int
	DebitAccount  int
	CreditAccount int
	DebitAmount   int
	CreditAmount  int
	DocNumber     int
	OperationType int
	Bank          int
	Purpose       int
}

// DiscoverLayout locates the table columns by label. Field labels come from
// the first header row, the account captions from the second.
func DiscoverLayout(headers, subheaders []string) (TableLayout, error) {
	var layout TableLayout
	var err error

	lookups := []struct {
		dst    *int
		row    []string
		needle string
	}{
		{&layout.BookingDate, headers, LabelBookingDate},
		{&layout.DebitAccount, subheaders, LabelDebit},
		{&layout.CreditAccount, subheaders, LabelCredit},
		{&layout.DocNumber, headers, LabelDocNumber},
		{&layout.OperationType, headers, LabelOperationType},
		{&layout.Bank, headers, LabelBank},
		{&layout.Purpose, headers, LabelPurpose},
		{&layout.DebitAmount, headers, LabelDebitAmount},
		{&layout.CreditAmount, headers, LabelCreditAmount},
	}
	for _, l := range lookups {
		if *l.dst, err = findCol(l.row, l.needle); err != nil {
			return TableLayout{}, err
		}
	}
	return layout, nil
}

// findCol returns the index of the first field containing needle.
func findCol(row []string, needle string) (int, error) {
	for i, field := range row {
		if strings.Contains(field, needle) {
			return i, nil
		}
	}
	return 0, statement.Errorf(statement.KindHeader, "column with header containing %q not found", needle)
}

// isTableHeaderRow reports whether row starts the transaction table.
func isTableHeaderRow(row []string) bool {
	for _, field := range row {
		if strings.Contains(field, LabelBookingDate) {
			return true
		}
	}
	return false
}

// isFooterRow reports whether row carries one of the footer markers.
func isFooterRow(row []string) bool {
	for _, field := range row {
		field = strings.TrimSpace(field)
		if field == FooterNoAccount ||
			strings.HasPrefix(field, FooterOperationCount) ||
			strings.HasPrefix(field, FooterOpening) ||
			strings.HasPrefix(field, FooterClosing) ||
			strings.HasPrefix(field, FooterTurnover) {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// cell returns the trimmed field at idx, or empty when the row is shorter.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func emptyRow() []string {
	return make([]string, Width)
}
