package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/format"
	"github.com/shunichi-ikebuchi/statement-converter/pkg/statement"
	"github.com/spf13/cobra"
)

// exitDifferent is the exit status when the statements differ.
const exitDifferent = 2

var (
	file1, format1 string
	file2, format2 string
	compareCharset string
)

// compareCmd represents the compare command.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two statements",
	Long: `Compare two statements, possibly in different formats.

Reports a differing account id, transactions that differ position by
position, and transactions present in only one statement. Exits with
status 2 when the statements differ.

Example:
  stmtconv compare --file1 jan.csv --file2 jan.xml
  stmtconv compare --file1 a.sta --format1 mt940 --file2 b.xlsx --format2 xlsx`,
	Run: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&file1, "file1", "", "First statement (required)")
	compareCmd.Flags().StringVar(&format1, "format1", string(format.Auto), "Format of the first statement")
	compareCmd.Flags().StringVar(&file2, "file2", "", "Second statement (required)")
	compareCmd.Flags().StringVar(&format2, "format2", string(format.Auto), "Format of the second statement")
	compareCmd.Flags().StringVar(&compareCharset, "input-encoding", "", "Character encoding of text inputs (default from STMTCONV_INPUT_ENCODING)")

	compareCmd.MarkFlagRequired("file1")
	compareCmd.MarkFlagRequired("file2")
}

func runCompare(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	env, err := loadEnvironment()
	exitOnError(err, "failed to initialize")

	opts := format.Options{Logger: slog.Default()}
	encoding := firstNonEmpty(compareCharset, env.cfg.Conversion.InputEncoding)

	left, _, err := readStatement(ctx, env.opener, input{path: file1, format: format1, encoding: encoding}, opts)
	exitOnError(err, "failed to read first statement")

	right, _, err := readStatement(ctx, env.opener, input{path: file2, format: format2, encoding: encoding}, opts)
	exitOnError(err, "failed to read second statement")

	diffs := statement.Compare(left, right)
	if len(diffs) == 0 {
		fmt.Println("statements are equal")
		return
	}

	for _, d := range diffs {
		fmt.Println(d)
	}
	slog.Info("Statements differ", "differences", len(diffs))
	os.Exit(exitDifferent)
}
