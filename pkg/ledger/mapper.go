package ledger

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// Default accounts used when the mapping does not name one.
const (
	DefaultBankRoot       = "Assets:Bank"
	DefaultIncomeAccount  = "Income:Unmapped"
	DefaultExpenseAccount = "Expenses:Unmapped"
	OpeningBalanceAccount = "Equity:Opening-Balances"
)

var rootAccounts = []string{"Assets", "Liabilities", "Equity", "Income", "Expenses"}

// CounterpartyMapping maps a counterparty account id or name to a ledger
// account.
type CounterpartyMapping struct {
	Counterparty string `yaml:"counterparty"`
	Account      string `yaml:"account"`
}

// MappingConfig represents the complete account mapping configuration.
type MappingConfig struct {
	// BankAccount overrides the derived Assets:Bank:<account id> account.
	BankAccount    string                `yaml:"bank_account"`
	Income         string                `yaml:"income"`
	Expenses       string                `yaml:"expenses"`
	Counterparties []CounterpartyMapping `yaml:"counterparties"`
}

// Mapper resolves ledger accounts for statement transactions.
type Mapper struct {
	config         MappingConfig
	byCounterparty map[string]string
}

// NewMapper creates a new Mapper from a YAML configuration file.
func NewMapper(configPath string) (*Mapper, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping builds a Mapper from YAML and validates every account name.
func ParseMapping(data []byte) (*Mapper, error) {
	var config MappingConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for _, account := range []string{config.BankAccount, config.Income, config.Expenses} {
		if account != "" && !validAccount(account) {
			return nil, fmt.Errorf("invalid ledger account %q", account)
		}
	}

	m := &Mapper{config: config, byCounterparty: make(map[string]string)}
	for _, mapping := range config.Counterparties {
		key := normalizeKey(mapping.Counterparty)
		if key == "" {
			return nil, fmt.Errorf("counterparty mapping to %q has no counterparty", mapping.Account)
		}
		if !validAccount(mapping.Account) {
			return nil, fmt.Errorf("invalid ledger account %q for counterparty %q", mapping.Account, mapping.Counterparty)
		}
		m.byCounterparty[key] = mapping.Account
	}
	return m, nil
}

// DefaultMapper maps everything to the default accounts.
func DefaultMapper() *Mapper {
	return &Mapper{byCounterparty: map[string]string{}}
}

// BankAccount returns the asset account holding the statement.
func (m *Mapper) BankAccount(accountID string) string {
	if m.config.BankAccount != "" {
		return m.config.BankAccount
	}
	return DefaultBankRoot + ":" + sanitizeComponent(accountID)
}

// CounterAccount returns the account balancing tx: a mapping by
// counterparty id, then by name, then the income or expense fallback.
func (m *Mapper) CounterAccount(tx statement.Transaction) string {
	for _, key := range []string{tx.Counterparty, tx.CounterpartyName} {
		if account, ok := m.byCounterparty[normalizeKey(key)]; ok && key != "" {
			return account
		}
	}
	if tx.Direction == statement.Credit {
		return fallback(m.config.Income, DefaultIncomeAccount)
	}
	return fallback(m.config.Expenses, DefaultExpenseAccount)
}

// HasMapping checks if a mapping exists for a counterparty id or name.
func (m *Mapper) HasMapping(counterparty string) bool {
	_, ok := m.byCounterparty[normalizeKey(counterparty)]
	return ok
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func normalizeKey(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// sanitizeComponent turns free text into one account name component:
// letters, digits and dashes, starting with an upper-case letter or digit.
func sanitizeComponent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' && b.Len() > 0:
			b.WriteRune(r)
		}
	}
	out := []rune(b.String())
	if len(out) == 0 {
		return "Unknown"
	}
	out[0] = unicode.ToUpper(out[0])
	return string(out)
}

func validAccount(account string) bool {
	parts := strings.Split(account, ":")
	if len(parts) < 2 {
		return false
	}
	if !slices.Contains(rootAccounts, parts[0]) {
		return false
	}
	for _, p := range parts[1:] {
		if p == "" || sanitizeComponent(p) != p {
			return false
		}
	}
	return true
}
