package util

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

// ConfigureLogger 设置全局 zerolog
func ConfigureLogger(cfg LoggerConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)

	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ParseLogLevel 无法识别时返回 defaultLevel
func ParseLogLevel(s string, defaultLevel zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return defaultLevel
	}
	return level
}
