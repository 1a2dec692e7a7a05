// Package source opens statement inputs and outputs: local files, "-" for
// stdin/stdout and gs://bucket/object URIs on Google Cloud Storage.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	// Stdio names stdin for inputs and stdout for outputs.
	Stdio     = "-"
	gcsScheme = "gs://"
)

// Config holds Cloud Storage client settings.
type Config struct {
	// CredentialsFile is a service account key; empty uses default credentials
	CredentialsFile string
	// Endpoint points the client at an emulator; it disables authentication
	Endpoint string
}

// Opener resolves paths to readers and writers.
type Opener struct {
	cfg Config
}

// New creates a new Opener.
func New(cfg Config) *Opener {
	return &Opener{cfg: cfg}
}

// IsRemote reports whether path is a Cloud Storage URI.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, gcsScheme)
}

// ParseGCSURI splits gs://bucket/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return bucket, object, nil
}

// Open returns a reader for path.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	switch {
	case path == Stdio:
		return io.NopCloser(os.Stdin), nil
	case IsRemote(path):
		return o.openRemote(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// Create returns a writer for path, creating parent directories of local
// files. Remote objects are finalized on Close.
func (o *Opener) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	switch {
	case path == Stdio:
		return nopWriteCloser{os.Stdout}, nil
	case IsRemote(path):
		return o.createRemote(ctx, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}

func (o *Opener) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if o.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.cfg.Endpoint), option.WithoutAuthentication())
	} else if o.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.cfg.CredentialsFile))
	}
	return opts
}

func (o *Opener) openRemote(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, o.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	return &remoteReader{Reader: r, client: client}, nil
}

func (o *Opener) createRemote(ctx context.Context, uri string) (io.WriteCloser, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, o.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &remoteWriter{Writer: client.Bucket(bucket).Object(object).NewWriter(ctx), client: client}, nil
}

type remoteReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *remoteReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

type remoteWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w *remoteWriter) Close() error {
	err := w.Writer.Close()
	if err != nil {
		err = fmt.Errorf("finalize upload: %w", err)
	}
	if cerr := w.client.Close(); err == nil {
		err = cerr
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
