package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gzaln/fin/classification"
	"github.com/gzaln/fin/extractor"
	"github.com/gzaln/fin/extractor/ocr"
)

// Embedded default configuration, used when no .fin.yaml is found.
const defaultConfigYAML = `
ocr:
  enabled: true
  dpi: 300
  languages: [spa, eng]
server:
  port: "8080"
classification:
  rules:
  # Empty: the built-in merchant table is used. Override with entries like
  # - category: food
  #   subcategory: convenience
  #   keyword: OXXO
  #   priority: 10
`

var (
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "fin [filename]",
		Short: "Extract structured data from Mexican bank card statements",
		Long: `fin reads credit and debit card statement PDFs from BBVA, HSBC,
Banamex, Banorte and Liverpool and extracts the statement summary,
transactions and installment plans as structured data.`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				runExtract(args[0])
				return
			}
			cmd.Help()
		},
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./.fin.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogging() {
	if !verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetFlags(log.Ltime | log.Lmsgprefix)
		log.SetPrefix("INFO: ")
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(".fin")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := viper.ReadConfig(bytes.NewBufferString(defaultConfigYAML)); err != nil {
				fmt.Printf("Error loading embedded configuration: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// newDetector assembles the bank detector with the configured OCR source.
func newDetector() *extractor.Detector {
	var src ocr.Source
	if viper.GetBool("ocr.enabled") {
		cfg := ocr.DefaultConfig()
		if dpi := viper.GetFloat64("ocr.dpi"); dpi > 0 {
			cfg.DPI = dpi
		}
		if langs := viper.GetStringSlice("ocr.languages"); len(langs) > 0 {
			cfg.Languages = langs
		}
		src = ocr.New(cfg)
	}
	return extractor.NewDetector(src)
}

func newClassifier() *classification.Engine {
	return classification.EngineFromConfigOrDefault()
}
