package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogLevel shows scan warnings and clipboard notes.
const DefaultLogLevel = "info"

// NewApplicationLogger builds the stderr console logger; plan output and the
// confirmation prompt stay on stdout. An empty level selects DefaultLogLevel.
func NewApplicationLogger(level string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = DefaultLogLevel
	}
	parsedLevel, parseError := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if parseError != nil {
		return nil, fmt.Errorf("%s_%s: %w", EnvironmentPrefix, LogLevelVariableSuffix, parseError)
	}
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "message",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), parsedLevel)
	return zap.New(core), nil
}
