package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/config"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/format"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/pathutil"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/source"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// sniffSize is how much of an input is inspected for format detection.
const sniffSize = 4096

// environment bundles what every command builds from the configuration.
type environment struct {
	cfg    *config.Config
	paths  *pathutil.PathResolver
	opener *source.Opener
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if table := cfg.Conversion.CurrencyTable; table != "" {
		slog.Debug("Loading currency table", "path", table)
		if err := statement.LoadCurrencyTable(table); err != nil {
			return nil, err
		}
	}

	return &environment{
		cfg: cfg,
		paths: pathutil.New(pathutil.Config{
			Home:         cfg.Paths.Home,
			DatabasePath: cfg.Paths.DBPath,
			LedgerRoot:   cfg.Paths.LedgerRoot,
		}),
		opener: source.New(source.Config{
			CredentialsFile: cfg.GCS.CredentialsFile,
			Endpoint:        cfg.GCS.Endpoint,
		}),
	}, nil
}

// input names one statement to read.
type input struct {
	path     string
	format   string
	encoding string
}

// readStatement opens, detects, transcodes and decodes in.
// It returns the resolved input format.
func readStatement(ctx context.Context, opener *source.Opener, in input, opts format.Options) (*statement.Statement, format.Format, error) {
	f, err := format.Parse(in.format)
	if err != nil {
		return nil, "", err
	}

	rc, err := opener.Open(ctx, in.path)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", in.path, err)
	}

	if f == format.Auto {
		f, err = detect(in, data[:min(len(data), sniffSize)])
		if err != nil {
			return nil, "", err
		}
		slog.Debug("Detected input format", "path", in.path, "format", f)
	}
	if !f.CanDecode() {
		return nil, "", statement.Errorf(statement.KindBadInput, "format %s cannot be read", f)
	}

	var r io.Reader = bytes.NewReader(data)
	if f.IsText() && !isUTF8(in.encoding) {
		r, err = source.Transcode(r, in.encoding)
		if err != nil {
			return nil, "", err
		}
	}

	st, err := format.Decode(f, r, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s as %s: %w", in.path, f, err)
	}
	return st, f, nil
}

// detect sniffs head in the declared encoding so that legacy-encoded
// spreadsheet exports are recognized by their labels.
func detect(in input, head []byte) (format.Format, error) {
	if !isUTF8(in.encoding) {
		r, err := source.Transcode(bytes.NewReader(head), in.encoding)
		if err != nil {
			return "", err
		}
		if decoded, err := io.ReadAll(r); err == nil {
			head = decoded
		}
	}
	return format.Detect(in.path, head)
}

func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}
