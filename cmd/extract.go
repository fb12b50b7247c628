package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gzaln/fin/extractor/common"
)

var (
	extractStatementOnly    bool
	extractTransactionsOnly bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [filename]",
	Short: "Extract a statement PDF to JSON",
	Long: `Extracts the summary, transactions and installment plans from a
statement PDF. The bank is auto-detected; output is JSON on stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runExtract(args[0])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractStatementOnly, "statement-only", false, "Output only the statement summary")
	extractCmd.Flags().BoolVar(&extractTransactionsOnly, "transactions-only", false, "Output only the transactions")
}

func runExtract(path string) {
	detector := newDetector()

	result, err := detector.ProcessFile(path)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("error: %v", err)
	}

	newClassifier().Apply(result.Transactions)

	if verbose {
		printSummary(result)
	}

	var output any = result
	switch {
	case extractStatementOnly:
		output = map[string]any{"summary": result.Summary}
	case extractTransactionsOnly:
		output = map[string]any{"transactions": result.Transactions}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		log.Fatalf("error: encoding output: %v", err)
	}
}

// printSummary writes a human overview to stderr so stdout stays valid JSON.
func printSummary(result common.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if result.Summary != nil {
		bold.Fprintf(os.Stderr, "%s (%s)\n", result.Summary.Bank, result.Summary.SourceType)
		if result.Summary.PeriodStart != nil && result.Summary.PeriodEnd != nil {
			fmt.Fprintf(os.Stderr, "  period: %s to %s\n",
				result.Summary.PeriodStart.Format("2006-01-02"),
				result.Summary.PeriodEnd.Format("2006-01-02"))
		}
		if result.Summary.CurrentBalance != nil {
			fmt.Fprintf(os.Stderr, "  balance: $%s\n", result.Summary.CurrentBalance.StringFixed(2))
		}
	}
	green.Fprintf(os.Stderr, "  %d transactions\n", len(result.Transactions))
	if len(result.Plans) > 0 {
		yellow.Fprintf(os.Stderr, "  %d installment plans\n", len(result.Plans))
	}
}
