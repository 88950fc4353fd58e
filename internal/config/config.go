// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration
type Config struct {
	// Server
	Port      int
	LogLevel  string
	LogPretty bool

	// Databases
	MarketDBPath string
	PlansDBPath  string

	// Squad selection
	Budget            float64
	ClubCap           int
	ReliabilityWeight float64
	SolverTimeLimit   time.Duration

	// Candidate pool
	PriceFloor   float64
	PriceCeiling float64

	// Lineup minimums
	MinDEF int
	MinMID int
	MinFWD int

	// Transfer planning
	TopK          int
	HorizonLength int

	// Replan scheduler
	ReplanEnabled bool
	ReplanCron    string
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnvAsInt("PORT", 8090),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		MarketDBPath: getEnv("MARKET_DB_PATH", "data/market.db"),
		PlansDBPath:  getEnv("PLANS_DB_PATH", "data/plans.db"),

		Budget:            getEnvAsFloat("BUDGET", 100.0),
		ClubCap:           getEnvAsInt("CLUB_CAP", 3),
		ReliabilityWeight: getEnvAsFloat("RELIABILITY_WEIGHT", 0.30),
		SolverTimeLimit:   time.Duration(getEnvAsInt("SOLVER_TIME_LIMIT_SECONDS", 10)) * time.Second,

		PriceFloor:   getEnvAsFloat("PRICE_FLOOR", 3.5),
		PriceCeiling: getEnvAsFloat("PRICE_CEILING", 15.5),

		MinDEF: getEnvAsInt("MIN_DEF", 3),
		MinMID: getEnvAsInt("MIN_MID", 2),
		MinFWD: getEnvAsInt("MIN_FWD", 1),

		TopK:          getEnvAsInt("MARKET_TOP_K", 60),
		HorizonLength: getEnvAsInt("HORIZON_LENGTH", 6),

		ReplanEnabled: getEnvAsBool("REPLAN_ENABLED", false),
		ReplanCron:    getEnv("REPLAN_CRON", "0 6 * * *"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
