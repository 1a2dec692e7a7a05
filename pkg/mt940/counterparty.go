package mt940

import (
	"regexp"
	"strings"
	"sync"
)

// separator divides the counterparty part of the first :86: line from the
// description.
const separator = "//"

var ibanPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`(?i)^[A-Z]{2}\d{2}[A-Z0-9]{11,30}$`)
})

// ibanToken returns the upper-cased token when word is IBAN-shaped once
// surrounding punctuation is dropped.
func ibanToken(word string) string {
	w := strings.TrimFunc(word, func(r rune) bool { return !isAlnum(r) })
	if ibanPattern().MatchString(w) {
		return strings.ToUpper(w)
	}
	return ""
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// head returns the part of a free-text line that may name a counterparty.
func head(line string) (string, bool) {
	h, _, found := strings.Cut(line, separator)
	return h, found
}

// Counterparty runs the heuristic over the entry's free text and then over
// its references. It reports false when no IBAN-shaped token is found.
func (e *Entry) Counterparty() (id, name string, ok bool) {
	sources := [][]string{e.Info, {e.CustomerReference}, {e.BankReference}}
	for _, lines := range sources {
		if id, name, ok := findCounterparty(lines); ok {
			return id, name, true
		}
	}
	return "", "", false
}

// findCounterparty prefers a line holding both a token and a trailing name,
// then falls back to the first token with the name on the next plain line.
func findCounterparty(lines []string) (id, name string, ok bool) {
	for _, line := range lines {
		h, _ := head(line)
		words := strings.Fields(h)
		for i, w := range words {
			tok := ibanToken(w)
			if tok == "" {
				continue
			}
			if rest := strings.Join(words[i+1:], " "); rest != "" {
				return tok, rest, true
			}
		}
	}

	for i, line := range lines {
		h, hasSeparator := head(line)
		for _, w := range strings.Fields(h) {
			tok := ibanToken(w)
			if tok == "" {
				continue
			}
			if hasSeparator {
				return tok, "", true
			}
			return tok, nextName(lines[i+1:]), true
		}
	}
	return "", "", false
}

func nextName(lines []string) string {
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 || hasToken(words) {
			continue
		}
		return strings.Join(words, " ")
	}
	return ""
}

func hasToken(words []string) bool {
	for _, w := range words {
		if ibanToken(w) != "" {
			return true
		}
	}
	return false
}

// Description returns the entry's free text without the counterparty part
// of the first line. Empty text falls back to the references.
func (e *Entry) Description(counterpartyID string) string {
	var lines []string
	for i, line := range e.Info {
		if i == 0 {
			if h, rest, found := strings.Cut(line, separator); found {
				line = rest
			} else if counterpartyID != "" && startsWithToken(h, counterpartyID) {
				continue
			}
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}

	var refs []string
	if e.CustomerReference != "" {
		refs = append(refs, e.CustomerReference)
	}
	if e.BankReference != "" {
		refs = append(refs, separator+e.BankReference)
	}
	if e.ExtraDetails != "" {
		refs = append(refs, e.ExtraDetails)
	}
	return strings.Join(refs, " ")
}

func startsWithToken(line, id string) bool {
	words := strings.Fields(line)
	return len(words) > 0 && ibanToken(words[0]) == id
}
