package mt940

import (
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// centuryPivot splits two-digit years: below it is 20xx, from it on 19xx.
const centuryPivot = 80

const (
	yymmddLayout = "060102"
	mmddLayout   = "0102"
)

func parseYYMMDD(s string) (civil.Date, error) {
	if len(s) != 6 || !isDigits(s) {
		return civil.Date{}, statement.Errorf(statement.KindBadInput, "date is not YYMMDD: %q", s)
	}
	yy, _ := strconv.Atoi(s[:2])
	mm, _ := strconv.Atoi(s[2:4])
	dd, _ := strconv.Atoi(s[4:6])

	year := 2000 + yy
	if yy >= centuryPivot {
		year = 1900 + yy
	}
	return validDate(year, mm, dd, s)
}

// deriveBookingDate applies the optional entry date of a :61: line to its
// value date: MMDD within the value date's year, or DD within its month.
func deriveBookingDate(value civil.Date, entry string) (civil.Date, error) {
	if !isDigits(entry) {
		return civil.Date{}, statement.Errorf(statement.KindBadInput, "entry date is not numeric: %q", entry)
	}
	switch len(entry) {
	case 4:
		mm, _ := strconv.Atoi(entry[:2])
		dd, _ := strconv.Atoi(entry[2:])
		return validDate(value.Year, mm, dd, entry)
	case 2:
		dd, _ := strconv.Atoi(entry)
		return validDate(value.Year, int(value.Month), dd, entry)
	}
	return civil.Date{}, statement.Errorf(statement.KindBadInput, "entry date must be MMDD or DD: %q", entry)
}

func validDate(year, month, day int, raw string) (civil.Date, error) {
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, statement.Errorf(statement.KindDate, "invalid calendar date: %q", raw)
	}
	return d, nil
}

func formatYYMMDD(d civil.Date) string {
	return d.In(time.UTC).Format(yymmddLayout)
}

func formatMMDD(d civil.Date) string {
	return d.In(time.UTC).Format(mmddLayout)
}
