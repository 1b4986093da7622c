package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/statera-app/statera/internal/apperrors"
)

// MatchingConfig holds the runtime-tunable knobs of the matching engine.
type MatchingConfig struct {
	// AutoAcceptThreshold is the minimum score for auto-accepting a match.
	AutoAcceptThreshold int
	// ReviewThreshold is the minimum score for queueing a match for review.
	ReviewThreshold int
	// DateWindowDays bounds candidate generation around the transaction date.
	DateWindowDays int
	// MaxCandidates bounds the pruned candidate set scored per transaction.
	MaxCandidates int
	// TransferPairWindowDays bounds OUT/IN pairing in the transfer manager.
	TransferPairWindowDays int
	// TransferPairThreshold is the minimum pair score kept by default.
	TransferPairThreshold int
}

// ConsistencyConfig holds the knobs of the consistency scans.
type ConsistencyConfig struct {
	// DuplicateDateSpanDays is the maximum date span within a duplicate group.
	DuplicateDateSpanDays int
	// TransferWindowDays is the OUT/IN claim window of the transfer-pair scan.
	TransferWindowDays int
}

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	BaseCurrency string

	Matching    MatchingConfig
	Consistency ConsistencyConfig

	FxCacheTTL        time.Duration
	FxCacheMaxEntries int
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Thresholds are deliberately environment-driven so operators can
// retune matching without a rebuild.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("BASE_CURRENCY", "SGD")
	viper.SetDefault("AUTO_ACCEPT_THRESHOLD", 85)
	viper.SetDefault("REVIEW_THRESHOLD", 60)
	viper.SetDefault("MATCH_DATE_WINDOW_DAYS", 7)
	viper.SetDefault("MATCH_MAX_CANDIDATES", 25)
	viper.SetDefault("TRANSFER_PAIR_WINDOW_DAYS", 7)
	viper.SetDefault("TRANSFER_PAIR_THRESHOLD", 60)
	viper.SetDefault("DUPLICATE_DATE_SPAN_DAYS", 1)
	viper.SetDefault("CONSISTENCY_TRANSFER_WINDOW_DAYS", 3)
	viper.SetDefault("FX_CACHE_TTL", "1h")
	viper.SetDefault("FX_CACHE_MAX_ENTRIES", 1024)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:  viper.GetString("PGSQL_URL"),
		Port:         viper.GetString("PORT"),
		IsProduction: viper.GetBool("IS_PRODUCTION"),
		BaseCurrency: viper.GetString("BASE_CURRENCY"),
		Matching: MatchingConfig{
			AutoAcceptThreshold:    viper.GetInt("AUTO_ACCEPT_THRESHOLD"),
			ReviewThreshold:        viper.GetInt("REVIEW_THRESHOLD"),
			DateWindowDays:         viper.GetInt("MATCH_DATE_WINDOW_DAYS"),
			MaxCandidates:          viper.GetInt("MATCH_MAX_CANDIDATES"),
			TransferPairWindowDays: viper.GetInt("TRANSFER_PAIR_WINDOW_DAYS"),
			TransferPairThreshold:  viper.GetInt("TRANSFER_PAIR_THRESHOLD"),
		},
		Consistency: ConsistencyConfig{
			DuplicateDateSpanDays: viper.GetInt("DUPLICATE_DATE_SPAN_DAYS"),
			TransferWindowDays:    viper.GetInt("CONSISTENCY_TRANSFER_WINDOW_DAYS"),
		},
		FxCacheTTL:        viper.GetDuration("FX_CACHE_TTL"),
		FxCacheMaxEntries: viper.GetInt("FX_CACHE_MAX_ENTRIES"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	m := c.Matching
	if m.ReviewThreshold < 0 || m.AutoAcceptThreshold > 100 || m.ReviewThreshold > m.AutoAcceptThreshold {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= REVIEW_THRESHOLD <= AUTO_ACCEPT_THRESHOLD <= 100, got %d and %d",
			apperrors.ErrValidation, m.ReviewThreshold, m.AutoAcceptThreshold)
	}
	if m.DateWindowDays <= 0 || m.MaxCandidates <= 0 {
		return fmt.Errorf("%w: MATCH_DATE_WINDOW_DAYS and MATCH_MAX_CANDIDATES must be positive", apperrors.ErrValidation)
	}
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("%w: BASE_CURRENCY must be a 3-letter ISO code, got %q", apperrors.ErrValidation, c.BaseCurrency)
	}
	return nil
}
