package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lixenwraith/reel-cortex/config"
)

// New builds the file logger; the terminal owns stdout and stderr while the game runs
// Logging is a no-op unless debug or cfg.Enabled is set
// The returned close func flushes and closes the file and is always safe to call
func New(cfg config.LogConfig, debug bool) (*zap.Logger, func() error, error) {
	if !debug && !cfg.Enabled {
		return zap.NewNop(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	} else if err := level.Set(cfg.Level); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	sink := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, cfg.File),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level)

	log := zap.New(core, zap.AddCaller()).With(zap.Int("pid", os.Getpid()))
	closeFn := func() error {
		_ = log.Sync()
		return sink.Close()
	}
	return log, closeFn, nil
}
