package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	leptons "github.com/next-exp/leptons_go/pkg"
	"github.com/spf13/cobra"
)

var configFilename string

var rootCmd = &cobra.Command{
	Use:          "fixdata <input> <output>",
	Short:        "Add the boolean flag columns missing from some events",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configFilename, "config", "", "Configuration file path")
}

type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

var logger = Logger{
	InfoLog:  slog.New(slog.NewTextHandler(os.Stdout, nil)),
	ErrorLog: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configuration, err := leptons.LoadConfiguration(configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return message
	}
	leptons.SetLogger(logger)

	fileIn, fileOut := args[0], args[1]
	columns, err := collectFlagColumns(fileIn, configuration.RepairFlagNames)
	if err != nil {
		logger.Error(err.Error())
		return err
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("%d flag columns: %v", len(columns), columns), "fixdata")
	}

	events, repaired, err := repairFile(fileIn, fileOut, columns, configuration.CompressionLvl)
	if err != nil {
		logger.Error(err.Error())
		return err
	}
	logger.Info(fmt.Sprintf("%d events written, %d repaired", events, repaired), "fixdata")
	return nil
}

// collectFlagColumns is the union of the boolean columns found in the file
// and the configured ones.
func collectFlagColumns(filename string, configured []string) ([]string, error) {
	reader, err := leptons.OpenJSONL(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	seen := make(map[string]bool)
	for _, name := range configured {
		seen[name] = true
	}
	for {
		event, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for _, name := range leptons.FlagColumns(event) {
			seen[name] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns, nil
}

func repairFile(fileIn string, fileOut string, columns []string, level int) (int, int, error) {
	reader, err := leptons.OpenJSONL(fileIn)
	if err != nil {
		return 0, 0, err
	}
	defer reader.Close()
	writer, err := leptons.CreateJSONL(fileOut, level)
	if err != nil {
		return 0, 0, err
	}

	events, repaired := 0, 0
	for {
		event, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return events, repaired, errors.Join(err, writer.Close())
		}
		added := leptons.RepairFlags(event, columns)
		if len(added) > 0 {
			repaired++
		}
		if err := writer.Write(event); err != nil {
			return events, repaired, errors.Join(err, writer.Close())
		}
		events++
	}
	return events, repaired, writer.Close()
}
