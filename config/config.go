// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/seqqc"
)

// EnvPrefix is prepended to every environment override, e.g. SELSCAN_QC_MIN_LENGTH.
const EnvPrefix = "SELSCAN"

// FileName is the settings file searched for when --config is not given.
const FileName = "selscan"

// LRTConfig is settings for likelihood ratio tests
type LRTConfig struct {
	// yaml file of comparisons replacing the built-in branch-site and branch pairs
	Comparisons string `mapstructure:"comparisons"`
	// ordered model labels tested as consecutive (null, alt) pairs
	Sequence []string `mapstructure:"sequence"`
	// degrees of freedom for Sequence pairs
	DF float64 `mapstructure:"df"`
	// model suffixes recognised in Folder columns
	Labels []string `mapstructure:"labels"`
	// where result workbooks are written
	OutDir string `mapstructure:"out-dir"`
}

// CodemlConfig is settings for the codeml collaborator
type CodemlConfig struct {
	Binary string `mapstructure:"binary"`
	// empty means a temporary directory per fit
	WorkDir string   `mapstructure:"work-dir"`
	Models  []string `mapstructure:"models"`
}

// ServeConfig is settings for the HTTP API
type ServeConfig struct {
	Addr         string        `mapstructure:"addr"`
	MaxBodyBytes int64         `mapstructure:"max-body-bytes"`
	// how long finished fit jobs can still be polled
	JobRetention time.Duration `mapstructure:"job-retention"`
}

// Config is the root-level settings struct and is a mix
// of settings available in selscan.yaml, SELSCAN_* variables
// and those available from the command line
type Config struct {
	LogLevel string `mapstructure:"log-level"`
	// optional sqlite result store
	DB     string        `mapstructure:"db"`
	QC     seqqc.Options `mapstructure:"qc"`
	LRT    LRTConfig     `mapstructure:"lrt"`
	Codeml CodemlConfig  `mapstructure:"codeml"`
	Serve  ServeConfig   `mapstructure:"serve"`
}

// SetDefaults registers every key so environment overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	qc := seqqc.DefaultOptions()
	v.SetDefault("log-level", "info")
	v.SetDefault("db", "")

	v.SetDefault("qc.min-length", qc.MinLength)
	v.SetDefault("qc.require-frame", qc.RequireFrame)
	v.SetDefault("qc.stop-scan", string(qc.StopScan))
	v.SetDefault("qc.outlier.strategy", string(qc.Outlier.Strategy))
	v.SetDefault("qc.outlier.iqr-factor", qc.Outlier.IQRFactor)
	v.SetDefault("qc.outlier.z-cutoff", qc.Outlier.ZCutoff)

	v.SetDefault("lrt.comparisons", "")
	v.SetDefault("lrt.sequence", []string{})
	v.SetDefault("lrt.df", 1.0)
	v.SetDefault("lrt.labels", []string{})
	v.SetDefault("lrt.out-dir", ".")

	v.SetDefault("codeml.binary", "codeml")
	v.SetDefault("codeml.work-dir", "")
	v.SetDefault("codeml.models", []string{})

	v.SetDefault("serve.addr", "0.0.0.0:8080")
	v.SetDefault("serve.max-body-bytes", int64(64<<20))
	v.SetDefault("serve.job-retention", time.Hour)
}

// LoadDotEnv loads .env into the process environment when present.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("No .env found, using local environment")
	}
}

// Load reads file (or selscan.yaml from the working directory or
// $HOME/.config/selscan when file is empty), applies SELSCAN_* overrides
// and returns the validated result.
func Load(v *viper.Viper, file string) (Config, error) {
	var c Config

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "selscan"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	} else {
		logger.Debug("Loaded settings from " + v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := c.QC.Validate(); err != nil {
		return c, fmt.Errorf("qc settings: %w", err)
	}
	if c.LRT.DF <= 0 {
		return c, fmt.Errorf("lrt.df must be positive, got %v", c.LRT.DF)
	}
	return c, nil
}
