package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig конфигурация логгера
type LoggerConfig struct {
	// Уровень логирования: debug, info, warn, error, fatal
	LogLevel string `yaml:"logLevel"`

	// IP узла
	NodeIP string `yaml:"nodeIP"`

	// IP пода (для Kubernetes)
	PodIP string `yaml:"podIP"`

	// Имя сервиса
	ServiceName string `yaml:"serviceName"`

	// Формат вывода: json или console
	Format string `yaml:"format,omitempty"`

	// Путь к файлу логов (пусто - stdout)
	FilePath string `yaml:"filePath,omitempty"`

	// Ротация файла логов
	MaxSizeMB  int `yaml:"maxSizeMB,omitempty"`
	MaxBackups int `yaml:"maxBackups,omitempty"`
	MaxAgeDays int `yaml:"maxAgeDays,omitempty"`
}

// CustomZapLogger обертка над zap с изменяемым на лету уровнем
type CustomZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	closer io.Closer
}

// ParseLevel переводит строковый уровень в zapcore.Level
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unsupported log level: %s", level)
	}
}

// NewCustomZapLogger создает логгер по конфигурации.
// Некорректный уровень заменяется на info.
func NewCustomZapLogger(cfg *LoggerConfig) *CustomZapLogger {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	lvl, _ := ParseLevel(cfg.LogLevel)
	atomicLevel := zap.NewAtomicLevelAt(lvl)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var (
		sink   zapcore.WriteSyncer
		closer io.Closer
	)
	if cfg.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		sink = zapcore.AddSync(rotator)
		closer = rotator
	} else {
		sink = zapcore.Lock(os.Stdout)
	}

	fields := make([]zap.Field, 0, 3)
	if cfg.ServiceName != "" {
		fields = append(fields, zap.String("service", cfg.ServiceName))
	}
	if cfg.NodeIP != "" {
		fields = append(fields, zap.String("nodeIP", cfg.NodeIP))
	}
	if cfg.PodIP != "" {
		fields = append(fields, zap.String("podIP", cfg.PodIP))
	}

	core := zapcore.NewCore(encoder, sink, atomicLevel)
	return &CustomZapLogger{
		logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(fields...),
		level:  atomicLevel,
		closer: closer,
	}
}

// NewWithCore создает логгер поверх готового ядра (используется в тестах)
func NewWithCore(core zapcore.Core) *CustomZapLogger {
	return &CustomZapLogger{
		logger: zap.New(core),
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

// NewNop возвращает логгер, который ничего не пишет
func NewNop() *CustomZapLogger {
	return &CustomZapLogger{
		logger: zap.NewNop(),
		level:  zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
}

// With возвращает дочерний логгер с дополнительными полями
func (l *CustomZapLogger) With(fields ...zap.Field) *CustomZapLogger {
	return &CustomZapLogger{
		logger: l.logger.With(fields...),
		level:  l.level,
	}
}

// SetLevel меняет уровень логирования без пересоздания логгера
func (l *CustomZapLogger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level возвращает текущий уровень
func (l *CustomZapLogger) Level() zapcore.Level {
	return l.level.Level()
}

func (l *CustomZapLogger) Debug(msg string, fields ...zap.Field) {
	l.logger.Debug(msg, fields...)
}

func (l *CustomZapLogger) Info(msg string, fields ...zap.Field) {
	l.logger.Info(msg, fields...)
}

func (l *CustomZapLogger) Warn(msg string, fields ...zap.Field) {
	l.logger.Warn(msg, fields...)
}

func (l *CustomZapLogger) Error(msg string, fields ...zap.Field) {
	l.logger.Error(msg, fields...)
}

func (l *CustomZapLogger) Fatal(msg string, fields ...zap.Field) {
	l.logger.Fatal(msg, fields...)
}

// Sync сбрасывает буферы
func (l *CustomZapLogger) Sync() error {
	return l.logger.Sync()
}

// Close сбрасывает буферы и закрывает файл логов, если он открыт
func (l *CustomZapLogger) Close() error {
	_ = l.logger.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
