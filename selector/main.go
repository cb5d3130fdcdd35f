package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	leptons "github.com/next-exp/leptons_go/pkg"
	"github.com/next-exp/leptons_go/pkg/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configFilename string
	numWorkers     int
	looseSelection bool
)

var rootCmd = &cobra.Command{
	Use:          "selector",
	Short:        "Select, deduplicate and merge leptons",
	Long:         `selector reads events, keeps the good muons and electrons, merges the electron collections and the lepton flavours, and writes the derived collections with the event weight.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&configFilename, "config", "", "Configuration file path")
	rootCmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of workers, overrides the configuration")
	rootCmd.Flags().BoolVar(&looseSelection, "loose", false, "Use the loose selection")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger := newLogger(os.Stdout, os.Stderr, runID)

	configuration, err := leptons.LoadConfiguration(configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return message
	}
	if cmd.Flags().Changed("workers") {
		configuration.NumWorkers = numWorkers
	}
	if looseSelection {
		configuration.Selection = "loose"
	}
	if err := configuration.Validate(); err != nil {
		logger.Error(err.Error())
		return err
	}
	leptons.SetLogger(logger)

	verbosity := configuration.Verbosity
	if verbosity > 0 {
		logger.Info(fmt.Sprintf("Run %s, configuration file: %s", runID, configFilename), "main")
		leptons.PrintConfiguration(configuration, logger)
	}

	registry := prometheus.NewRegistry()
	metrics := leptons.NewMetrics(registry)
	if configuration.MetricsAddr != "" {
		server := serveMetrics(configuration.MetricsAddr, registry, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()
	}

	analysis, err := leptons.NewAnalysis(configuration, metrics)
	if err != nil {
		logger.Error(err.Error())
		return err
	}
	corrections := leptons.NewCorrections(correctionLoader(configuration))

	reader, err := leptons.OpenJSONL(configuration.FileIn)
	if err != nil {
		message := fmt.Errorf("Error opening file: %w", err)
		logger.Error(message.Error())
		return message
	}
	defer reader.Close()
	source := leptons.Limit(reader, configuration.Skip, configuration.MaxEvents, verbosity)

	sinks, err := openSinks(configuration, runID)
	if err != nil {
		logger.Error(err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	processed, err := leptons.Run(ctx, source, analysis, corrections, configuration.NumWorkers, metrics, sinks...)
	closeErr := closeSinks(sinks)
	if err != nil {
		message := fmt.Errorf("Run stopped after %d events: %w", processed, err)
		logger.Error(message.Error())
		return errors.Join(message, closeErr)
	}
	if closeErr != nil {
		logger.Error(closeErr.Error())
		return closeErr
	}

	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total events processed: %d in %d ms", processed, duration.Milliseconds()), "main")
	return nil
}

// correctionLoader returns how the pileup table is obtained: from the
// database unless no_db is set, from the configuration otherwise.
func correctionLoader(configuration leptons.Configuration) func() (leptons.CorrectionLookup, error) {
	if !configuration.NoDB {
		return func() (leptons.CorrectionLookup, error) {
			dbConn, err := leptons.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
			if err != nil {
				return nil, fmt.Errorf("Error connection to database: %w", err)
			}
			defer dbConn.Close()
			return leptons.LoadPileupFromDB(dbConn, configuration.Period, configuration.Verbosity)
		}
	}
	if len(configuration.PileupWeights) > 0 {
		return func() (leptons.CorrectionLookup, error) {
			return leptons.PileupTableFromConfig(configuration.PileupWeights), nil
		}
	}
	return nil
}

func openSinks(configuration leptons.Configuration, runID string) ([]leptons.Sink, error) {
	var sinks []leptons.Sink
	if configuration.FileOut != "" {
		writer, err := output.NewWriter(configuration.FileOut, runID, configuration.CompressionLvl)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, writer)
	}
	if configuration.CsvOut != "" {
		prefix := strings.TrimSuffix(configuration.CsvOut, ".zst")
		sinks = append(sinks, leptons.NewCsvPrinter(prefix, prefix != configuration.CsvOut))
	}
	return sinks, nil
}

func closeSinks(sinks []leptons.Sink) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func serveMetrics(addr string, registry *prometheus.Registry, logger Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(fmt.Sprintf("metrics server: %v", err))
		}
	}()
	logger.Info(fmt.Sprintf("Serving metrics on %s", addr), "main")
	return server
}
