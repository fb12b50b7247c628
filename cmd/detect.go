package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/gzaln/fin/extractor/common"
)

var detectCmd = &cobra.Command{
	Use:   "detect [filename]",
	Short: "Report which bank a statement PDF belongs to",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := common.LoadDocument(args[0])
		if err != nil {
			log.SetOutput(os.Stderr)
			log.Fatalf("error: %v", err)
		}

		bank, err := newDetector().GetBankName(doc)
		if err != nil {
			log.SetOutput(os.Stderr)
			log.Fatalf("error: %v", err)
		}
		fmt.Println(bank)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
