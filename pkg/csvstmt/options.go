package csvstmt

import (
	"log/slog"
	"time"
)

// DefaultSystem is written into the header block by the encoder.
const DefaultSystem = "statement-converter"

type options struct {
	logger *slog.Logger
	now    func() time.Time
	bank   string
	system string
}

// Option configures Decode and Encode.
type Option func(*options)

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source for the creation date of encoded exports.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBankName sets the bank name written into the header block.
func WithBankName(name string) Option {
	return func(o *options) { o.bank = name }
}

// WithSystem overrides the exporting system name in the header block.
func WithSystem(name string) Option {
	return func(o *options) { o.system = name }
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.Default(),
		now:    time.Now,
		system: DefaultSystem,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
