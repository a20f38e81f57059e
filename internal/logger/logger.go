// Package logger builds the application's zap logger.  Production
// gets JSON output, everything else a human-readable console encoder.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a SugaredLogger configured for the given environment.
// env "prod" selects the JSON encoder at info level; any other value
// selects the console encoder at debug level.
func New(env string) *zap.SugaredLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		encoder zapcore.Encoder
		level   zapcore.Level
	)
	if env == "prod" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zapcore.InfoLevel
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
}
