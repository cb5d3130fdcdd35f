package leptons

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Configuration struct {
	FileIn          string             `koanf:"file_in"`
	FileOut         string             `koanf:"file_out"`
	CsvOut          string             `koanf:"csv_out"`
	MaxEvents       int                `koanf:"max_events"`
	Skip            int                `koanf:"skip"`
	Verbosity       int                `koanf:"verbosity"`
	NumWorkers      int                `koanf:"num_workers"`
	Selection       string             `koanf:"selection"`
	ElectronMode    string             `koanf:"electron_mode"`
	Preference      string             `koanf:"preference"`
	CombineLeptons  bool               `koanf:"combine_leptons"`
	MatchDeltaR     float64            `koanf:"match_delta_r"`
	Weights         []string           `koanf:"weights"`
	PileupFactor    string             `koanf:"pileup_factor"`
	Period          string             `koanf:"period"`
	PileupWeights   map[string]float64 `koanf:"pileup_weights"`
	NoDB            bool               `koanf:"no_db"`
	Host            string             `koanf:"host"`
	User            string             `koanf:"user"`
	Passwd          string             `koanf:"pass"`
	DBName          string             `koanf:"dbname"`
	MetricsAddr     string             `koanf:"metrics_addr"`
	CompressionLvl  int                `koanf:"compression_level"`
	RepairFlagNames []string           `koanf:"repair_flags"`
}

// EnvPrefix selects the environment variables overriding the file, e.g.
// LEPTONS_NUM_WORKERS=8.
const EnvPrefix = "LEPTONS_"

var defaultRepairFlags = []string{"Muon_looseId", "Muon_mediumId", "Muon_tightId"}

func DefaultConfiguration() Configuration {
	var config Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Verbosity = 0
	config.NumWorkers = 1
	config.Selection = "tight"
	config.ElectronMode = "combined"
	config.Preference = "standard"
	config.CombineLeptons = true
	config.MatchDeltaR = DefaultMatchDeltaR
	config.PileupFactor = "reweightPU"
	config.NoDB = true
	config.Host = "localhost"
	config.User = "reader"
	config.Passwd = "readonly"
	config.DBName = "corrections"
	config.CompressionLvl = 4
	return config
}

// LoadConfiguration layers the defaults, the configuration file (YAML, so
// JSON files load as well) and LEPTONS_ environment variables.
func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()
	k := koanf.New(".")

	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return config, &ErrOpenFile{Filename: filename, Err: err}
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return config, err
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return config, err
	}
	// List defaults are applied last, decoding into a prefilled slice would
	// keep the tail of the default list.
	if !k.Exists("weights") {
		config.Weights = append([]string(nil), DefaultWeights...)
	}
	if !k.Exists("repair_flags") {
		config.RepairFlagNames = append([]string(nil), defaultRepairFlags...)
	}
	return config, nil
}

// Validate checks the plain values; enumerations are checked when the
// analysis is built from the configuration.
func (c Configuration) Validate() error {
	if c.NumWorkers < 1 {
		return &ConfigurationError{Field: "num_workers", Value: fmt.Sprint(c.NumWorkers), Reason: "at least one worker is needed"}
	}
	if c.MatchDeltaR <= 0 {
		return &ConfigurationError{Field: "match_delta_r", Value: fmt.Sprint(c.MatchDeltaR), Reason: "must be positive"}
	}
	if c.Skip < 0 {
		return &ConfigurationError{Field: "skip", Value: fmt.Sprint(c.Skip), Reason: "must not be negative"}
	}
	if c.usesPileup() && c.NoDB && len(c.PileupWeights) == 0 {
		return &ConfigurationError{Field: "pileup_factor", Value: c.PileupFactor,
			Reason: "listed in weights but no_db is set and pileup_weights is empty"}
	}
	if c.FileIn != "" {
		if _, err := os.Stat(c.FileIn); err != nil {
			return &ErrOpenFile{Filename: c.FileIn, Err: err}
		}
	}
	return nil
}

func (c Configuration) usesPileup() bool {
	return WeightComposer{Factors: c.Weights, PileupFactor: c.PileupFactor}.usesPileup()
}

func PrintConfiguration(config Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("CSV out: %s", config.CsvOut), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Selection: %s", config.Selection), "config")
	logger.Info(fmt.Sprintf("Electron mode: %s", config.ElectronMode), "config")
	logger.Info(fmt.Sprintf("Preference: %s", config.Preference), "config")
	logger.Info(fmt.Sprintf("Combine leptons: %t", config.CombineLeptons), "config")
	logger.Info(fmt.Sprintf("Match deltaR: %g", config.MatchDeltaR), "config")
	logger.Info(fmt.Sprintf("Weights: %s", strings.Join(config.Weights, "*")), "config")
	logger.Info(fmt.Sprintf("Pileup factor: %s", config.PileupFactor), "config")
	logger.Info(fmt.Sprintf("Period: %s", config.Period), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLvl), "config")
}
