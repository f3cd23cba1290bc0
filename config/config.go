package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		ExternalAPI struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"externalAPI"`
		Prometheus struct {
			Port      string `mapstructure:"port"`
			CertFile  string `mapstructure:"certFile"`
			KeyFile   string `mapstructure:"keyFile"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

// RecommendationConfig carries the tunable policy parameters of the
// recommendation pipeline. The zone table and scoring weights are
// empirically tuned per deployment region, not derived constants, so
// they live in config rather than in code.
type RecommendationConfig struct {
	Model            string        `mapstructure:"model"`
	Temperature      float64       `mapstructure:"temperature"`
	MaxOutputTokens  int32         `mapstructure:"maxOutputTokens"`
	DisableFallback  bool          `mapstructure:"disableFallback"`
	MinCandidates    int           `mapstructure:"minCandidates"`
	MaxAttempts      int           `mapstructure:"maxAttempts"`
	CandidateLimit   int           `mapstructure:"candidateLimit"`
	ExpansionFactor  float64       `mapstructure:"expansionFactor"`
	MaxSearchRadiusM int           `mapstructure:"maxSearchRadiusMeters"`
	IslandRadiusM    int           `mapstructure:"islandRadiusMeters"`
	CacheTTL         time.Duration `mapstructure:"cacheTTL"`
	ReferencePoint   struct {
		Latitude  float64 `mapstructure:"latitude"`
		Longitude float64 `mapstructure:"longitude"`
	} `mapstructure:"referencePoint"`
	Zones   []DensityZone  `mapstructure:"zones"`
	Scoring ScoringWeights `mapstructure:"scoring"`
}

// DensityZone is a named geographic region with its own base search
// radius. A user location belongs to the first zone whose extent
// contains it.
type DensityZone struct {
	Name        string  `mapstructure:"name"`
	Latitude    float64 `mapstructure:"latitude"`
	Longitude   float64 `mapstructure:"longitude"`
	ExtentM     int     `mapstructure:"extentMeters"`
	BaseRadiusM int     `mapstructure:"baseRadiusMeters"`
}

// ScoringWeights are the point contributions of the candidate
// composite score.
type ScoringWeights struct {
	RatingMax        float64 `mapstructure:"ratingMax"`
	ProximityMax     float64 `mapstructure:"proximityMax"`
	ProximityScaleM  float64 `mapstructure:"proximityScaleMeters"`
	PopularCategory  float64 `mapstructure:"popularCategory"`
	RichDescription  float64 `mapstructure:"richDescription"`
	DescriptionChars int     `mapstructure:"descriptionChars"`
	Highlights       float64 `mapstructure:"highlights"`
	LocalTips        float64 `mapstructure:"localTips"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
