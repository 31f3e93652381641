package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config основная конфигурация приложения
type Config struct {
	// Настройки пула воркеров
	Pool PoolConfig `yaml:"pool"`

	// Демонстрационная нагрузка
	Workload WorkloadConfig `yaml:"workload"`

	// HTTP сервер метрик
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Настройки логгера
	Logger *LoggerConfig `yaml:"logger"`
}

// PoolConfig конфигурация пула
type PoolConfig struct {
	// Имя пула (метка в логах и метриках)
	Name string `yaml:"name"`

	// Число воркеров, не меньше 1. Меняется только перезапуском
	Size int `yaml:"size"`
}

// WorkloadConfig конфигурация продюсеров задач
type WorkloadConfig struct {
	// Число продюсеров
	Producers int `yaml:"producers"`

	// Задач на одного продюсера
	Tasks int `yaml:"tasks"`

	// Сколько спит каждая задача
	TaskDuration time.Duration `yaml:"taskDuration"`

	// Отправок в секунду на продюсера
	SubmitRate float64 `yaml:"submitRate"`

	// Максимальный размер корзины
	Burst int `yaml:"burst"`
}

// MetricsConfig конфигурация HTTP сервера метрик
type MetricsConfig struct {
	// Включен ли сервер
	Enabled bool `yaml:"enabled"`

	// Адрес прослушивания, например ":9090"
	Listen string `yaml:"listen"`
}

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

// Default возвращает конфигурацию демо: 4 воркера, 5 задач по 2 секунды,
// отправка раз в 300 мс
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			Name: "demo",
			Size: 4,
		},
		Workload: WorkloadConfig{
			Producers:    1,
			Tasks:        5,
			TaskDuration: 2 * time.Second,
			SubmitRate:   1 / 0.3,
			Burst:        1,
		},
		Logger: &LoggerConfig{
			LogLevel:    "info",
			ServiceName: "threadpool",
			Format:      "console",
		},
	}
}

// LoadFromFile загружает конфигурацию из YAML файла.
// Отсутствующие поля берутся из Default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	// Пул без воркеров никогда не выполнит задачу
	if c.Pool.Size < 1 {
		return fmt.Errorf("pool size must be at least 1, got %d", c.Pool.Size)
	}
	if c.Pool.Name == "" {
		return fmt.Errorf("pool name is required")
	}

	// Проверяем нагрузку
	if c.Workload.Producers < 0 {
		return fmt.Errorf("workload producers must be non-negative")
	}
	if c.Workload.Tasks < 0 {
		return fmt.Errorf("workload tasks must be non-negative")
	}
	if c.Workload.TaskDuration < 0 {
		return fmt.Errorf("workload task duration must be non-negative")
	}
	if c.Workload.SubmitRate <= 0 {
		return fmt.Errorf("workload submit rate must be positive")
	}
	if c.Workload.Burst <= 0 {
		return fmt.Errorf("workload burst must be positive")
	}

	// Проверяем сервер метрик
	if c.Metrics != nil && c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics listen address is required")
	}

	// Проверяем конфигурацию логгера
	if c.Logger == nil {
		return fmt.Errorf("logger configuration is required")
	}

	switch c.Logger.LogLevel {
	case "debug", "info", "warn", "error", "fatal":
		// OK
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logger.LogLevel)
	}

	switch c.Logger.Format {
	case "", "json", "console":
		// OK
	default:
		return fmt.Errorf("unsupported log format: %s", c.Logger.Format)
	}

	if c.Logger.ServiceName == "" {
		return fmt.Errorf("logger service name is required")
	}

	return nil
}
