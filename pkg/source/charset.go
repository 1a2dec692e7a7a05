package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// legacyCharsets are the single-byte code pages found in bank exports.
var legacyCharsets = map[string]*charmap.Charmap{
	"cp1251":       charmap.Windows1251,
	"windows-1251": charmap.Windows1251,
	"cp866":        charmap.CodePage866,
	"ibm866":       charmap.CodePage866,
	"koi8-r":       charmap.KOI8R,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
}

// LookupEncoding resolves a charset label. Empty and UTF-8 labels return
// nil.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	if cm, ok := legacyCharsets[label]; ok {
		return cm, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported input encoding %q: %w", label, err)
	}
	return enc, nil
}

// Transcode wraps r so that it yields UTF-8 from the labelled charset.
func Transcode(r io.Reader, label string) (io.Reader, error) {
	enc, err := LookupEncoding(label)
	if err != nil || enc == nil {
		return r, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
