package mt940

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

type blockKind int

const (
	blockUnknown blockKind = iota
	blockCurly
	blockParen
)

func (k blockKind) open() string {
	if k == blockParen {
		return "(4:"
	}
	return "{4:"
}

func (k blockKind) closers() []string {
	if k == blockParen {
		return []string{"-)", ")"}
	}
	return []string{"-}", "}"}
}

// detectBlock returns the block style whose opening marker appears first in
// line, with the marker position.
func detectBlock(line string) (blockKind, int) {
	curly := strings.Index(line, "{4:")
	paren := strings.Index(line, "(4:")
	switch {
	case curly >= 0 && (paren < 0 || curly <= paren):
		return blockCurly, curly
	case paren >= 0:
		return blockParen, paren
	}
	return blockUnknown, -1
}

// ParseMessages frames the input and parses every message it contains.
// The block style is fixed by the first opening marker found.
func ParseMessages(r io.Reader, logger *slog.Logger) ([]Message, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		messages []Message
		lines    []string
		kind     blockKind
		inBlock  bool
	)

	flush := func() error {
		msg, err := parseMessage(lines, logger)
		if err != nil {
			return err
		}
		messages = append(messages, *msg)
		lines = lines[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !inBlock {
			var pos int
			if kind == blockUnknown {
				kind, pos = detectBlock(line)
			} else {
				pos = strings.Index(line, kind.open())
			}
			if pos < 0 {
				continue
			}
			inBlock = true
			if after := line[pos+3:]; strings.TrimSpace(after) != "" {
				lines = append(lines, after)
			}
			continue
		}

		if hasAnyPrefix(trimmed, kind.closers()) {
			if err := flush(); err != nil {
				return nil, err
			}
			inBlock = false
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, statement.Wrap(statement.KindIO, err, "read MT940")
	}

	if inBlock && len(lines) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return messages, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// splitTagLine splits ":TAG:value" at the colon closing the tag.
func splitTagLine(line string) (tag, value string, err error) {
	line = strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(line, ":") {
		return "", "", statement.Errorf(statement.KindMT940Tag, "tag line must start with ':': %q", line)
	}
	tag, value, ok := strings.Cut(line[1:], ":")
	if !ok {
		return "", "", statement.Errorf(statement.KindMT940Tag, "bad tag line (unclosed tag): %q", line)
	}
	return strings.TrimSpace(tag), value, nil
}

// parseMessage dispatches the tag lines of one message body.
func parseMessage(lines []string, logger *slog.Logger) (*Message, error) {
	msg := &Message{}
	var current *Entry
	accountSeen := false

	closeEntry := func() {
		if current != nil {
			msg.Entries = append(msg.Entries, *current)
			current = nil
		}
	}
	appendInfo := func(text string) {
		text = strings.TrimSpace(text)
		if current != nil {
			current.Info = append(current.Info, text)
		} else if len(msg.Entries) == 0 {
			msg.Info = append(msg.Info, text)
		}
	}

	for _, raw := range lines {
		line := strings.TrimLeft(strings.TrimRight(raw, "\r"), " \t")
		if !strings.HasPrefix(line, ":") {
			appendInfo(line)
			continue
		}

		tag, value, err := splitTagLine(line)
		if err != nil {
			return nil, err
		}

		switch tag {
		case "20":
			msg.Reference = strings.TrimSpace(value)
		case "25":
			msg.AccountID = strings.TrimSpace(value)
			accountSeen = true
		case "28C":
			msg.StatementNumber = strings.TrimSpace(value)
		case "60F", "60M":
			b, err := parseBalance(value)
			if err != nil {
				return nil, err
			}
			if msg.Opening == nil {
				msg.Opening = b
			}
		case "62F", "62M":
			b, err := parseBalance(value)
			if err != nil {
				return nil, err
			}
			msg.Closing = b
		case "64":
			b, err := parseBalance(value)
			if err != nil {
				return nil, err
			}
			msg.ClosingAvailable = b
		case "61":
			closeEntry()
			entry, err := ParseStatementLine(value)
			if err != nil {
				return nil, err
			}
			entry.Raw = line
			current = entry
		case "86":
			appendInfo(value)
		default:
			logger.Warn("Skipping unknown MT940 tag", "tag", tag, "value", value)
		}
	}
	closeEntry()

	if !accountSeen || msg.AccountID == "" {
		return nil, statement.Errorf(statement.KindBadInput, "MT940: missing :25: account id")
	}
	return msg, nil
}

// parseBalance reads mark, YYMMDD date, currency and amount.
func parseBalance(value string) (*Balance, error) {
	value = strings.TrimSpace(value)
	if len(value) < 11 {
		return nil, statement.Errorf(statement.KindBadInput, "balance value too short: %q", value)
	}
	return &Balance{
		Mark:     value[:1],
		Date:     value[1:7],
		Currency: value[7:10],
		Amount:   strings.TrimSpace(value[10:]),
	}, nil
}
