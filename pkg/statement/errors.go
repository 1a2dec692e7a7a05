package statement

import (
	"errors"
	"fmt"
)

// Kind classifies a decode or encode failure.
type Kind int

const (
	// Wrapped lower-level errors.
	KindCSV Kind = iota + 1
	KindDate
	KindInt
	KindIO
	KindXML
	KindMT940Tag

	// Descriptive kinds.
	KindInvalidCurrency
	KindInvalidAmount
	KindInvalidDirection
	KindMissingField
	KindAmountSideConflict
	KindHeader
	KindBadInput
)

var kindNames = map[Kind]string{
	KindCSV:                "CSV error",
	KindDate:               "date parse error",
	KindInt:                "number parse error",
	KindIO:                 "I/O error",
	KindXML:                "XML error",
	KindMT940Tag:           "MT940 tag error",
	KindInvalidCurrency:    "invalid currency",
	KindInvalidAmount:      "invalid amount",
	KindInvalidDirection:   "invalid direction",
	KindMissingField:       "missing field",
	KindAmountSideConflict: "amount side conflict",
	KindHeader:             "invalid header",
	KindBadInput:           "bad input",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type returned by every codec.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Kind == KindAmountSideConflict {
		return "both debit and credit amount present or both empty"
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so sentinels such as
// ErrInvalidAmount work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrCSV                = &Error{Kind: KindCSV}
	ErrDate               = &Error{Kind: KindDate}
	ErrInt                = &Error{Kind: KindInt}
	ErrIO                 = &Error{Kind: KindIO}
	ErrXML                = &Error{Kind: KindXML}
	ErrMT940Tag           = &Error{Kind: KindMT940Tag}
	ErrInvalidCurrency    = &Error{Kind: KindInvalidCurrency}
	ErrInvalidAmount      = &Error{Kind: KindInvalidAmount}
	ErrInvalidDirection   = &Error{Kind: KindInvalidDirection}
	ErrMissingField       = &Error{Kind: KindMissingField}
	ErrAmountSideConflict = &Error{Kind: KindAmountSideConflict}
	ErrHeader             = &Error{Kind: KindHeader}
	ErrBadInput           = &Error{Kind: KindBadInput}
)

// Errorf builds a descriptive error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags a lower-level error. A nil err returns nil, and an err that is
// already an *Error is returned unchanged.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
