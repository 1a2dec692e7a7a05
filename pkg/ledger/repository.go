package ledger

import (
	"fmt"
	"os"
	"slices"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/pathutil"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
)

// Repository defines the interface for monthly ledger file operations.
type Repository interface {
	// AppendEntry appends a rendered entry to a monthly file
	AppendEntry(yearMonth, entry string, comment ...string) error

	// ReadMonthFile reads the content of a monthly file
	ReadMonthFile(yearMonth string) (string, error)

	// MonthFileExists checks if a monthly file exists
	MonthFileExists(yearMonth string) bool

	// EnsureMonthFile ensures a monthly file exists with header
	EnsureMonthFile(yearMonth string) error
}

// FileSystemRepository is a file system implementation of Repository.
type FileSystemRepository struct {
	pathResolver *pathutil.PathResolver
	converter    *Converter
}

// NewFileSystemRepository creates a new FileSystemRepository.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver, converter *Converter) *FileSystemRepository {
	if converter == nil {
		converter = NewConverter()
	}
	return &FileSystemRepository{
		pathResolver: pathResolver,
		converter:    converter,
	}
}

// AppendStatement files every directive of st into the monthly file of its
// date and returns the files touched, in month order.
func (r *FileSystemRepository) AppendStatement(st *statement.Statement, comment string) ([]string, error) {
	var months []string
	for _, d := range r.converter.Directives(st) {
		month := yearMonth(d)
		if !slices.Contains(months, month) {
			if err := r.EnsureMonthFile(month); err != nil {
				return nil, err
			}
			months = append(months, month)
		}

		if err := r.AppendEntry(month, d.Text, comment); err != nil {
			return nil, err
		}
		comment = ""
	}

	slices.Sort(months)
	files := make([]string, 0, len(months))
	for _, month := range months {
		path, err := r.pathResolver.GetMonthFilePath(month)
		if err != nil {
			return nil, fmt.Errorf("failed to get month file path: %w", err)
		}
		files = append(files, path)
	}
	return files, nil
}

func yearMonth(d Directive) string {
	return fmt.Sprintf("%04d-%02d", d.Date.Year, int(d.Date.Month))
}

// AppendEntry appends an entry to a monthly file.
// It creates the file if it doesn't exist.
func (r *FileSystemRepository) AppendEntry(yearMonth, entry string, comment ...string) error {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return fmt.Errorf("failed to get month file path: %w", err)
	}

	if err := r.EnsureMonthFile(yearMonth); err != nil {
		return fmt.Errorf("failed to ensure month file: %w", err)
	}

	var content string
	if len(comment) > 0 && comment[0] != "" {
		content += fmt.Sprintf("; %s\n", comment[0])
	}
	content += entry
	if len(entry) > 0 && entry[len(entry)-1] != '\n' {
		content += "\n"
	}
	content += "\n"

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for appending: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

// ReadMonthFile reads the content of a monthly file.
// Returns empty string if file doesn't exist.
func (r *FileSystemRepository) ReadMonthFile(yearMonth string) (string, error) {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return "", fmt.Errorf("failed to get month file path: %w", err)
	}

	if !r.pathResolver.FileExists(filePath) {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// MonthFileExists checks if a monthly file exists.
func (r *FileSystemRepository) MonthFileExists(yearMonth string) bool {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return false
	}
	return r.pathResolver.FileExists(filePath)
}

// EnsureMonthFile ensures a monthly file exists with header.
// If the file already exists, this is a no-op.
func (r *FileSystemRepository) EnsureMonthFile(yearMonth string) error {
	filePath, err := r.pathResolver.GetMonthFilePath(yearMonth)
	if err != nil {
		return fmt.Errorf("failed to get month file path: %w", err)
	}

	if r.pathResolver.FileExists(filePath) {
		return nil
	}

	if err := r.pathResolver.EnsureParentDir(filePath); err != nil {
		return fmt.Errorf("failed to ensure parent directory: %w", err)
	}

	if err := os.WriteFile(filePath, []byte(r.converter.FileHeader(yearMonth)), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
