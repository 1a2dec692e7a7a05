// Package format names the supported statement formats and dispatches
// decoding and encoding to their codecs.
package format

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/camt053"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/csvstmt"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/ledger"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/mt940"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/xlsxstmt"
)

// Format is a statement format name.
type Format string

const (
	CSV       Format = "csv"
	XLSX      Format = "xlsx"
	Camt053   Format = "camt053"
	MT940     Format = "mt940"
	Beancount Format = "beancount"

	// Auto asks Detect to pick the input format.
	Auto Format = "auto"
)

// All lists the formats in display order.
var All = []Format{CSV, XLSX, Camt053, MT940, Beancount}

var aliases = map[string]Format{
	"csv":       CSV,
	"xlsx":      XLSX,
	"excel":     XLSX,
	"camt053":   Camt053,
	"camt.053":  Camt053,
	"camt":      Camt053,
	"xml":       Camt053,
	"mt940":     MT940,
	"mt-940":    MT940,
	"swift":     MT940,
	"sta":       MT940,
	"beancount": Beancount,
	"bean":      Beancount,
	"auto":      Auto,
}

var extensions = map[Format]string{
	CSV:       ".csv",
	XLSX:      ".xlsx",
	Camt053:   ".xml",
	MT940:     ".sta",
	Beancount: ".beancount",
}

var byExtension = map[string]Format{
	".csv":       CSV,
	".xlsx":      XLSX,
	".xml":       Camt053,
	".sta":       MT940,
	".mt940":     MT940,
	".940":       MT940,
	".beancount": Beancount,
	".bean":      Beancount,
}

// Parse resolves a format name or alias, case-insensitively.
func Parse(name string) (Format, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return "", statement.Errorf(statement.KindBadInput, "unknown format %q", name)
}

// Extension returns the conventional file extension.
func (f Format) Extension() string {
	return extensions[f]
}

// CanDecode reports whether the format can be read.
func (f Format) CanDecode() bool {
	return f == CSV || f == XLSX || f == Camt053 || f == MT940
}

// IsText reports whether inputs are plain text that may need transcoding.
// camt.053 declares its own encoding.
func (f Format) IsText() bool {
	return f == CSV || f == MT940
}

var zipMagic = []byte("PK\x03\x04")

// Detect identifies the format of an input. It checks the first bytes of
// the content, then falls back to the file extension.
func Detect(path string, head []byte) (Format, error) {
	if bytes.HasPrefix(head, zipMagic) {
		return XLSX, nil
	}

	text := strings.TrimSpace(strings.TrimPrefix(string(head), "\uFEFF"))
	switch {
	case strings.HasPrefix(text, "<") && (strings.Contains(text, "<Document") || strings.Contains(text, "<BkToCstmrStmt") || strings.Contains(text, "<Stmt")):
		return Camt053, nil
	case strings.Contains(text, csvstmt.LabelBookingDate) || strings.Contains(text, csvstmt.FooterOpening):
		return CSV, nil
	case hasMT940Line(text):
		return MT940, nil
	}

	if f, ok := byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return f, nil
	}
	return "", statement.Errorf(statement.KindBadInput, "cannot detect format of %q", path)
}

var mt940Markers = []string{"{1:", "{4:", "(1:", "(4:", ":20:"}

// hasMT940Line reports whether a line of text opens an MT940 block or
// message.
func hasMT940Line(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range mt940Markers {
			if strings.HasPrefix(line, m) {
				return true
			}
		}
	}
	return false
}

// Options are shared codec settings.
type Options struct {
	Logger   *slog.Logger
	Now      func() time.Time
	BankName string
	Mapper   *ledger.Mapper
}

func (o Options) csv() []csvstmt.Option {
	opts := []csvstmt.Option{csvstmt.WithLogger(o.Logger), csvstmt.WithClock(o.Now)}
	if o.BankName != "" {
		opts = append(opts, csvstmt.WithBankName(o.BankName))
	}
	return opts
}

// Decode reads a statement in format f.
func Decode(f Format, r io.Reader, o Options) (*statement.Statement, error) {
	switch f {
	case CSV:
		return csvstmt.Decode(r, o.csv()...)
	case XLSX:
		return xlsxstmt.Decode(r, o.csv()...)
	case Camt053:
		return camt053.Decode(r, camt053.WithLogger(o.Logger))
	case MT940:
		return mt940.Decode(r, mt940.WithLogger(o.Logger))
	case Beancount:
		return nil, statement.Errorf(statement.KindBadInput, "format %s is export only", f)
	}
	return nil, statement.Errorf(statement.KindBadInput, "unknown format %q", f)
}

// Encode writes st in format f.
func Encode(f Format, w io.Writer, st *statement.Statement, o Options) error {
	switch f {
	case CSV:
		return csvstmt.Encode(w, st, o.csv()...)
	case XLSX:
		return xlsxstmt.Encode(w, st, o.csv()...)
	case Camt053:
		return camt053.Encode(w, st, camt053.WithLogger(o.Logger), camt053.WithClock(o.Now))
	case MT940:
		return mt940.Encode(w, st)
	case Beancount:
		return ledger.Encode(w, st, ledger.WithMapper(o.Mapper), ledger.WithClock(o.Now))
	}
	return statement.Errorf(statement.KindBadInput, "unknown format %q", f)
}
