package mt940

import (
	"bufio"
	"io"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

const (
	unknownCurrency = "XXX"
	serializedRef   = "SERIALIZED"
)

// Encode writes st as a single curly-framed MT940 message. An absent
// opening balance is written as zero.
func Encode(w io.Writer, st *statement.Statement) error {
	bw := bufio.NewWriter(w)
	for _, line := range Lines(st) {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return statement.Wrap(statement.KindIO, err, "write MT940")
	}
	return nil
}

// Lines renders the message lines of st, framing included.
func Lines(st *statement.Statement) []string {
	ccy := st.Currency().ISOCode(unknownCurrency)

	opening, _ := st.OpeningBalance()
	lines := []string{
		"{4:",
		":20:" + serializedRef,
		":25:" + st.AccountID(),
		":28C:1/1",
		":60F:" + balanceValue(opening, st.PeriodFrom(), ccy),
	}

	for _, tx := range st.Transactions() {
		lines = append(lines, ":61:"+statementLine(tx))
		lines = append(lines, infoLines(tx)...)
	}

	if closing, ok := st.ClosingBalance(); ok {
		lines = append(lines, ":62F:"+balanceValue(closing, st.PeriodUntil(), ccy))
	}
	return append(lines, "-}")
}

func mark(dir statement.Direction) string {
	if dir == statement.Debit {
		return "D"
	}
	return "C"
}

func balanceValue(b statement.Balance, date civil.Date, ccy string) string {
	return mark(b.Direction()) + formatYYMMDD(date) + ccy + statement.FormatBalance(b, ',')
}

func statementLine(tx statement.Transaction) string {
	return formatYYMMDD(tx.EffectiveValueDate()) +
		formatMMDD(tx.BookingDate) +
		mark(tx.Direction) +
		statement.FormatMinorUnits(tx.Amount, ',')
}

// infoLines renders ":86:<id> <name> // <description>"; every further
// description line gets its own ":86:" so that text starting with ':' or a
// block closer stays inside the field.
func infoLines(tx statement.Transaction) []string {
	var parts []string
	for _, p := range []string{tx.Counterparty, tx.CounterpartyName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	desc := strings.Split(strings.TrimSpace(tx.Description), "\n")
	if desc[0] != "" {
		parts = append(parts, separator+" "+strings.TrimSpace(desc[0]))
	}
	if len(parts) == 0 {
		return nil
	}

	lines := []string{":86:" + strings.Join(parts, " ")}
	for _, d := range desc[1:] {
		if d = strings.TrimSpace(d); d != "" {
			lines = append(lines, ":86:"+d)
		}
	}
	return lines
}
