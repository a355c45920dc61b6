package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// клиент
	PlotbotURL    string
	Magnification float64
	FitMargin     float64

	// устройство
	DBPath         string
	MigrationsPath string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Environment:    getEnv("ENV", "development"),
		ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
		PlotbotURL:     getEnv("PLOTBOT_URL", "http://127.0.0.1:8080"),
		Magnification:  getEnvAsFloat("PREVIEW_MAGNIFICATION", 3),
		FitMargin:      getEnvAsFloat("FIT_MARGIN", 10),
		DBPath:         getEnv("PLOTBOT_DB_PATH", "data/db/plotbot.db"),
		MigrationsPath: getEnv("PLOTBOT_MIGRATIONS", "migrations/001_init_jobs.sql"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}
