package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/daleelapp/daleel-backend/internal/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key, "default", defaultVal)
		}
		return defaultVal
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", key, "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}

func GetEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as bool, using default", "env_var", key, "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return b
}

// GetEnvAsFloatPtr returns nil when the variable is unset so callers can
// distinguish "not configured" from an explicit zero.
func GetEnvAsFloatPtr(key string, log *logger.Logger) *float64 {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as float, ignoring", "env_var", key, "providedVal", valStr, "error", err)
		}
		return nil
	}
	return &f
}

func GetEnvAsIntPtr(key string, log *logger.Logger) *int {
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, ignoring", "env_var", key, "providedVal", valStr, "error", err)
		}
		return nil
	}
	return &i
}
