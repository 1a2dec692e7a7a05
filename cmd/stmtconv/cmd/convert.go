package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/db"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/format"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/ledger"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/pathutil"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/source"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
	"github.com/spf13/cobra"
)

var (
	convertInput  string
	inputFormat   string
	outputFormat  string
	toFile        string
	autoOutput    bool
	inputEncoding string
	mappingFile   string
	bankName      string
	appendLedger  bool
	ledgerDir     string
	noHistory     bool
)

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a statement to another format",
	Long: `Convert a bank statement between formats.

This command:
1. Reads the input from a file, stdin (-) or a gs:// object
2. Detects the input format unless one is given
3. Decodes it into the canonical statement
4. Encodes it in the output format to stdout or a file
5. Records the conversion in the SQLite history

Formats: csv, xlsx, camt053, mt940, beancount (output only)

Example:
  stmtconv convert --input jan.csv --input-encoding cp1251 --output-format camt053
  stmtconv convert --input gs://exports/jan.xml --output-format mt940 --to-file jan.sta
  stmtconv convert --input jan.sta --ledger --mapping accounts.yaml`,
	Run: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertInput, "input", "", "Input path, - for stdin (required)")
	convertCmd.Flags().StringVar(&inputFormat, "input-format", string(format.Auto), "Input format")
	convertCmd.Flags().StringVar(&outputFormat, "output-format", "", "Output format")
	convertCmd.Flags().StringVar(&toFile, "to-file", "", "Output path (default stdout)")
	convertCmd.Flags().BoolVar(&autoOutput, "auto-output", false, "Write next to the input with the output format extension")
	convertCmd.Flags().StringVar(&inputEncoding, "input-encoding", "", "Character encoding of text inputs (default from STMTCONV_INPUT_ENCODING)")
	convertCmd.Flags().StringVar(&mappingFile, "mapping", "", "Beancount account mapping YAML")
	convertCmd.Flags().StringVar(&bankName, "bank-name", "", "Bank name written into spreadsheet exports")
	convertCmd.Flags().BoolVar(&appendLedger, "ledger", false, "Append Beancount entries to the monthly ledger files")
	convertCmd.Flags().StringVar(&ledgerDir, "ledger-dir", "", "Ledger root for --ledger (default from STMTCONV_LEDGER_ROOT)")
	convertCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the conversion")

	convertCmd.MarkFlagRequired("input")
	convertCmd.MarkFlagsMutuallyExclusive("to-file", "auto-output")
}

func runConvert(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	env, err := loadEnvironment()
	exitOnError(err, "failed to initialize")

	if !appendLedger && outputFormat == "" {
		exitOnError(fmt.Errorf("--output-format or --ledger is required"), "invalid arguments")
	}

	opts := format.Options{
		Logger:   slog.Default(),
		BankName: firstNonEmpty(bankName, env.cfg.Conversion.BankName),
	}
	if path := firstNonEmpty(mappingFile, env.cfg.Conversion.MappingFile); path != "" {
		slog.Debug("Loading account mapping", "path", path)
		opts.Mapper, err = ledger.NewMapper(path)
		exitOnError(err, "failed to load account mapping")
	}

	slog.Info("Starting conversion", "input", convertInput, "input_format", inputFormat, "output_format", outputFormat)

	st, inFormat, err := readStatement(ctx, env.opener, input{
		path:     convertInput,
		format:   inputFormat,
		encoding: firstNonEmpty(inputEncoding, env.cfg.Conversion.InputEncoding),
	}, opts)
	exitOnError(err, "failed to read statement")

	slog.Info("Decoded statement",
		"account", st.AccountID(),
		"transactions", st.Len(),
		"from", st.PeriodFrom(),
		"until", st.PeriodUntil(),
	)

	var (
		outFormat format.Format
		outPath   string
	)
	if appendLedger {
		outFormat = format.Beancount
		outPath, err = appendToLedger(env, st, opts, convertInput)
		exitOnError(err, "failed to append ledger entries")
	} else {
		outFormat, err = format.Parse(outputFormat)
		exitOnError(err, "invalid output format")

		outPath = toFile
		if autoOutput {
			outPath = env.paths.OutputPath(convertInput, outFormat.Extension())
		}
		if outPath == "" {
			outPath = source.Stdio
		}

		w, err := env.opener.Create(ctx, outPath)
		exitOnError(err, "failed to create output")
		err = format.Encode(outFormat, w, st, opts)
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
		exitOnError(err, "failed to write statement")
	}

	if noHistory {
		return
	}

	conn, err := db.Open(env.paths.GetDatabasePath())
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewConversionHistory(conn)
	runID, err := history.RecordLatestConversion(db.ConversionRecord{
		RunID:            uuid.NewString(),
		InputPath:        convertInput,
		InputFormat:      string(inFormat),
		OutputPath:       outPath,
		OutputFormat:     string(outFormat),
		AccountID:        st.AccountID(),
		TransactionCount: st.Len(),
		PeriodFrom:       st.PeriodFrom().String(),
		PeriodUntil:      st.PeriodUntil().String(),
	})
	exitOnError(err, "failed to record conversion")

	slog.Info("Conversion completed", "run_id", runID, "output", outPath)
}

// appendToLedger files st into the monthly ledger files and returns the
// ledger root for the history record.
func appendToLedger(env *environment, st *statement.Statement, opts format.Options, inputPath string) (string, error) {
	paths := env.paths
	if ledgerDir != "" {
		paths = pathutil.New(pathutil.Config{
			Home:         paths.GetHome(),
			DatabasePath: paths.GetDatabasePath(),
			LedgerRoot:   ledgerDir,
		})
	}

	repo := ledger.NewFileSystemRepository(paths, ledger.NewConverter(ledger.WithMapper(opts.Mapper)))
	files, err := repo.AppendStatement(st, fmt.Sprintf("Imported from %s", filepath.Base(inputPath)))
	if err != nil {
		return "", err
	}

	for _, f := range files {
		slog.Info("Updated ledger file", "path", f)
	}
	return paths.GetLedgerRoot(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
