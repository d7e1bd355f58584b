package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logFile string
	verbose int

	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:           "xsd2owl",
	Short:         "Translate XML Schema documents into OWL ontologies",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var w io.Writer = os.Stderr
		if logFile != "" {
			w = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
			}
		}
		logger = log.New(w, "", log.LstdFlags)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write diagnostics to this file instead of stderr (rotated at 10MB)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v",
		"increase diagnostic verbosity (repeatable)")
}
