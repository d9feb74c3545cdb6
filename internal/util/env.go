package util

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetEnv 读取环境变量，未设置时返回默认值
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func GetEnvAsInt(key string, defaultVal int) int {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(strVal)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Int("default", defaultVal).Msg("Invalid integer env value, using default")
		return defaultVal
	}
	return val
}

func GetEnvAsUint32(key string, defaultVal uint32) uint32 {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}
	val, err := strconv.ParseUint(strVal, 10, 32)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Uint32("default", defaultVal).Msg("Invalid uint32 env value, using default")
		return defaultVal
	}
	return uint32(val)
}

func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal := GetEnv(key, "")
	if strVal == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(strVal)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Bool("default", defaultVal).Msg("Invalid bool env value, using default")
		return defaultVal
	}
	return val
}

// GetEnvEnum 值必须在 allowed 中，否则返回默认值
func GetEnvEnum(key string, defaultVal string, allowed []string) string {
	val := strings.ToLower(GetEnv(key, defaultVal))
	for _, a := range allowed {
		if a == val {
			return val
		}
	}
	log.Warn().Str("key", key).Str("value", val).Strs("allowed", allowed).Msg("Invalid env value, using default")
	return defaultVal
}
