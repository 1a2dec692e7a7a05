package statement

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Known currency codes.
const (
	CodeRUB = "RUB"
	CodeEUR = "EUR"
	CodeUSD = "USD"
	CodeCNY = "CNY"
)

// Currency is one of the known codes or an "other" value holding the
// original text.
type Currency struct {
	code  string
	other string
}

var (
	RUB = Currency{code: CodeRUB}
	EUR = Currency{code: CodeEUR}
	USD = Currency{code: CodeUSD}
	CNY = Currency{code: CodeCNY}
)

// OtherCurrency wraps text that matched no known currency.
func OtherCurrency(s string) Currency {
	return Currency{other: s}
}

// Code returns the known code, or empty for an other currency.
func (c Currency) Code() string { return c.code }

// IsOther reports whether c is outside the known set.
func (c Currency) IsOther() bool { return c.code == "" }

// Other returns the original text of an other currency.
func (c Currency) Other() string { return c.other }

func (c Currency) String() string {
	if c.IsOther() {
		return fmt.Sprintf("Other(%s)", c.other)
	}
	return c.code
}

// ISOCode returns a three-letter code for encoders. Known codes are
// returned as-is, an other value that is itself three ASCII letters is
// upper-cased, and anything else yields fallback.
func (c Currency) ISOCode(fallback string) string {
	if !c.IsOther() {
		return c.code
	}
	s := strings.TrimSpace(c.other)
	if len(s) != 3 {
		return fallback
	}
	for i := 0; i < len(s); i++ {
		ch := s[i] | 0x20
		if ch < 'a' || ch > 'z' {
			return fallback
		}
	}
	return strings.ToUpper(s)
}

// Label returns the display label used by the bank export layout.
func (c Currency) Label() string {
	if c.IsOther() {
		return c.other
	}
	if label := currencyTable().labels[c.code]; label != "" {
		return label
	}
	return c.code
}

//go:embed currencies.yaml
var defaultCurrencyTable []byte

// CurrencyEntry is one currency in the synonym table.
type CurrencyEntry struct {
	Code     string   `yaml:"code"`
	Label    string   `yaml:"label"`
	Synonyms []string `yaml:"synonyms"`
}

// CurrencyTableConfig is the YAML document shape of the synonym table.
type CurrencyTableConfig struct {
	Currencies []CurrencyEntry `yaml:"currencies"`
}

type synonymTable struct {
	synonyms map[string]Currency
	labels   map[string]string
}

var (
	tableMu   sync.RWMutex
	tableOnce sync.Once
	table     *synonymTable
)

func currencyTable() *synonymTable {
	tableOnce.Do(func() {
		t, err := buildTable(defaultCurrencyTable, nil)
		if err != nil {
			panic(fmt.Sprintf("statement: embedded currency table: %v", err))
		}
		tableMu.Lock()
		table = t
		tableMu.Unlock()
	})
	tableMu.RLock()
	defer tableMu.RUnlock()
	return table
}

func buildTable(data []byte, base *synonymTable) (*synonymTable, error) {
	var cfg CurrencyTableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	t := &synonymTable{
		synonyms: make(map[string]Currency),
		labels:   make(map[string]string),
	}
	if base != nil {
		for k, v := range base.synonyms {
			t.synonyms[k] = v
		}
		for k, v := range base.labels {
			t.labels[k] = v
		}
	}

	for _, entry := range cfg.Currencies {
		var cur Currency
		switch code := strings.ToUpper(strings.TrimSpace(entry.Code)); code {
		case CodeRUB, CodeEUR, CodeUSD, CodeCNY:
			cur = Currency{code: code}
		default:
			return nil, fmt.Errorf("unsupported currency code %q", entry.Code)
		}
		if entry.Label != "" {
			t.labels[cur.code] = entry.Label
		}
		for _, syn := range entry.Synonyms {
			t.synonyms[strings.ToLower(strings.TrimSpace(syn))] = cur
		}
	}
	return t, nil
}

// LoadCurrencyTable extends the built-in synonym table with the entries of
// a YAML file of the same shape as the embedded one.
func LoadCurrencyTable(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read currency table: %w", err)
	}
	t, err := buildTable(data, currencyTable())
	if err != nil {
		return err
	}
	tableMu.Lock()
	table = t
	tableMu.Unlock()
	return nil
}

// ParseCurrency matches text against the synonym table, case-insensitively.
// Unmatched text becomes an other currency holding the trimmed input.
func ParseCurrency(raw string) Currency {
	s := strings.TrimSpace(raw)
	if cur, ok := currencyTable().synonyms[strings.ToLower(s)]; ok {
		return cur
	}
	return OtherCurrency(s)
}
