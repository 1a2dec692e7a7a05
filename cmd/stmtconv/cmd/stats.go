package cmd

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/shunichi-ikebuchi/statement-converter/pkg/db"
	"github.com/spf13/cobra"
)

var recentLimit int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display conversion statistics",
	Long: `Display statistics about recorded conversions.

Shows:
- Total number of conversions and transactions
- Number of distinct accounts
- Conversions per output format
- The most recent conversions

Example:
  stmtconv stats
  stmtconv stats --recent 20`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&recentLimit, "recent", 5, "Number of recent conversions to list")
}

func runStats(cmd *cobra.Command, args []string) {
	env, err := loadEnvironment()
	exitOnError(err, "failed to initialize")

	// Open database connection
	dbPath := env.paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewConversionHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Conversion Statistics ===")
	fmt.Printf("Total conversions:  %d\n", stats.TotalConversions)
	fmt.Printf("Total transactions: %d\n", stats.TotalTransactions)
	fmt.Printf("Accounts:           %d\n", stats.Accounts)

	formats := make([]string, 0, len(stats.ByOutputFormat))
	for f := range stats.ByOutputFormat {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	for _, f := range formats {
		fmt.Printf("  %-16s  %d\n", f+":", stats.ByOutputFormat[f])
	}

	if stats.LastConversion.Valid {
		fmt.Printf("Last conversion:    %s\n", stats.LastConversion.String)
	} else {
		fmt.Printf("Last conversion:    (never)\n")
	}

	if recentLimit > 0 && stats.TotalConversions > 0 {
		records, err := history.GetRecentConversions(recentLimit)
		exitOnError(err, "failed to get recent conversions")

		fmt.Println("\n=== Recent Conversions ===")
		for _, r := range records {
			fmt.Printf("%s  %s  %s (%s) -> %s (%s)  %d transactions\n",
				r.ConvertedAt.Format("2006-01-02 15:04:05"), r.RunID,
				r.InputPath, r.InputFormat, r.OutputPath, r.OutputFormat,
				r.TransactionCount)
		}
	}

	fmt.Println()
}
