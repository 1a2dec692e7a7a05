package csvstmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// Genitive month names as printed in the header block.
var rusMonths = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

const rowDateLayout = "02.01.2006"

// parseRusDate parses "01 января 2023 г." style dates.
func parseRusDate(raw string) (civil.Date, error) {
	fields := strings.Fields(raw)
	if len(fields) < 3 {
		return civil.Date{}, statement.Errorf(statement.KindDate, "invalid date %q: expected \"DD <month> YYYY г.\"", raw)
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return civil.Date{}, statement.Wrap(statement.KindDate, err, fmt.Sprintf("day of %q", raw))
	}

	month := 0
	name := strings.ToLower(fields[1])
	for i, m := range rusMonths {
		if m == name {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return civil.Date{}, statement.Errorf(statement.KindDate, "unknown month name %q in %q", fields[1], raw)
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return civil.Date{}, statement.Wrap(statement.KindDate, err, fmt.Sprintf("year of %q", raw))
	}

	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, statement.Errorf(statement.KindDate, "impossible calendar date %q", raw)
	}
	return d, nil
}

func formatRusDate(d civil.Date) string {
	return fmt.Sprintf("%02d %s %d г.", d.Day, rusMonths[d.Month-1], d.Year)
}

// parseRowDate parses the dd.mm.yyyy booking date of a table row.
func parseRowDate(raw string) (civil.Date, error) {
	t, err := time.Parse(rowDateLayout, raw)
	if err != nil {
		return civil.Date{}, statement.Wrap(statement.KindDate, err, fmt.Sprintf("booking date %q", raw))
	}
	return civil.DateOf(t), nil
}

func formatRowDate(d civil.Date) string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}
