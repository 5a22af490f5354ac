package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=3000"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	CharReplacement      string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ReportInterval       time.Duration `env:"REPORT_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
