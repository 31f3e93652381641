package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"threadpool/config"
	"threadpool/internal/metrics"
	"threadpool/internal/ratelimit"
	"threadpool/internal/transport"
	"threadpool/pkg/logger"
	"threadpool/pkg/workerpool"
)

// shutdownTimeout ограничивает остановку HTTP сервера
const shutdownTimeout = 5 * time.Second

// Overrides значения, переопределяющие конфигурацию из командной строки
type Overrides struct {
	// PoolSize больше 0 заменяет pool.size
	PoolSize int

	// Output вывод консоли демо (по умолчанию stdout с цветом)
	Output io.Writer
}

type App struct {
	configManager *config.ConfigManager
	cfg           *config.Config
	pool          *workerpool.WorkerPool
	limiter       *ratelimit.TokenBucket
	server        *transport.Server
	appLogger     *logger.CustomZapLogger
	console       *console

	submitted atomic.Int64
	executed  atomic.Int64

	// filePoolSize размер пула из конфигурации на момент запуска,
	// до переопределения флагом
	filePoolSize int

	watchDone chan struct{}
	closeOnce sync.Once
}

// NewApp собирает приложение. Пустой configPath - конфигурация по умолчанию
// без горячей перезагрузки.
func NewApp(configPath string, ov Overrides) (*App, error) {
	app := &App{
		console: newConsole(ov.Output),
	}

	if configPath != "" {
		configManager, err := config.NewConfigManager(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create config manager: %w", err)
		}
		app.configManager = configManager
		app.cfg = configManager.GetConfig()
	} else {
		app.cfg = config.Default()
	}

	cfg := *app.cfg
	app.filePoolSize = cfg.Pool.Size
	if ov.PoolSize > 0 {
		cfg.Pool.Size = ov.PoolSize
	}
	app.cfg = &cfg

	// Создаем логгер
	app.appLogger = logger.NewCustomZapLogger((*logger.LoggerConfig)(cfg.Logger))
	app.appLogger.Info(fmt.Sprintf("Инициализация приложения (configPath: %q, pool: %s, size: %d)",
		configPath, cfg.Pool.Name, cfg.Pool.Size))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	poolMetrics := metrics.NewPoolMetrics(registry)

	pool, err := workerpool.New(cfg.Pool.Size,
		workerpool.WithName(cfg.Pool.Name),
		workerpool.WithLogger(app.appLogger),
		workerpool.WithMetrics(poolMetrics),
	)
	if err != nil {
		app.closeConfigManager()
		_ = app.appLogger.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	app.pool = pool

	app.limiter = ratelimit.NewTokenBucket(cfg.Workload.SubmitRate, cfg.Workload.Burst)

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		app.server = transport.NewServer(pool, app.limiter, registry, app.appLogger)
		if err := app.server.Start(cfg.Metrics.Listen); err != nil {
			_ = pool.Close()
			app.closeConfigManager()
			_ = app.appLogger.Close()
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// Подписываемся на изменения конфигурации
	if app.configManager != nil {
		app.watchDone = make(chan struct{})
		go app.watchConfig(app.configManager.Subscribe())
		app.appLogger.Info("Запущено отслеживание изменений конфигурации")
	}

	return app, nil
}

func (a *App) watchConfig(configCh <-chan *config.Config) {
	defer close(a.watchDone)

	for cfg := range configCh {
		a.reconfigure(cfg)
	}
}

// reconfigure применяет то, что можно менять на лету: уровень логов и темп отправки.
// Размер пула фиксирован на все время жизни, предупреждение выводится только
// если pool.size изменился в самом файле.
func (a *App) reconfigure(cfg *config.Config) {
	if err := a.appLogger.SetLevel(cfg.Logger.LogLevel); err != nil {
		a.appLogger.Error(fmt.Sprintf("Ошибка при смене уровня логирования: %v", err))
	}

	a.limiter.SetDefaults(cfg.Workload.SubmitRate, cfg.Workload.Burst)

	if cfg.Pool.Size != a.filePoolSize {
		a.appLogger.Warn(fmt.Sprintf("Размер пула меняется только перезапуском (текущий: %d, в конфигурации: %d)",
			a.pool.Size(), cfg.Pool.Size))
	}

	a.appLogger.Info("Конфигурация применена",
		zap.String("logLevel", cfg.Logger.LogLevel),
		zap.Float64("submitRate", cfg.Workload.SubmitRate))
}

// Run запускает нагрузку и ждет ее окончания или сигнала завершения.
// В обоих случаях пул останавливается штатно: отправленные задачи выполняются.
func (a *App) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
	}()

	// Создаем канал для сигналов
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.appLogger.Info(fmt.Sprintf("Получен сигнал завершения работы: %v", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	a.appLogger.Info(fmt.Sprintf("Приложение запущено: пул %s, воркеров %d", a.pool.Name(), a.pool.Size()))

	return a.runWorkload(ctx)
}

// runWorkload запускает продюсеров, каждый отправляет задачи в своем темпе
func (a *App) runWorkload(ctx context.Context) error {
	wl := a.cfg.Workload
	g, gctx := errgroup.WithContext(ctx)

	for i := range wl.Producers {
		producer := fmt.Sprintf("producer-%d", i)
		g.Go(func() error {
			for seq := range wl.Tasks {
				if err := a.limiter.Wait(gctx, producer); err != nil {
					return fmt.Errorf("%s: %w", producer, err)
				}
				a.pool.Submit(newSleepTask(producer, seq, wl.TaskDuration, a.console, a.appLogger, &a.executed))
				a.submitted.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		a.appLogger.Info(fmt.Sprintf("Отправка прервана, задач отправлено: %d", a.submitted.Load()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("workload failed: %w", err)
	}

	a.appLogger.Info(fmt.Sprintf("Все задачи отправлены: %d", a.submitted.Load()))
	return nil
}

// Close останавливает пул (дожидаясь отправленных задач), сервер и менеджер конфигурации
func (a *App) Close() error {
	var errs error

	a.closeOnce.Do(func() {
		a.appLogger.Info("Начало graceful shutdown")

		if err := a.pool.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("worker pool: %w", err))
		}
		a.appLogger.Info(fmt.Sprintf("Пул остановлен, выполнено задач: %d из %d",
			a.executed.Load(), a.submitted.Load()))

		if a.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := a.server.Stop(ctx); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("metrics server: %w", err))
			}
			cancel()
		}

		a.closeConfigManager()
		if a.watchDone != nil {
			<-a.watchDone
		}

		a.appLogger.Info("Приложение успешно завершило работу")
		_ = a.appLogger.Close()
	})

	return errs
}

func (a *App) closeConfigManager() {
	if a.configManager == nil {
		return
	}
	if err := a.configManager.Close(); err != nil && a.appLogger != nil {
		a.appLogger.Error(fmt.Sprintf("Ошибка при закрытии менеджера конфигурации: %v", err))
	}
}

// Submitted и Executed возвращают счетчики задач демо
func (a *App) Submitted() int64 { return a.submitted.Load() }
func (a *App) Executed() int64  { return a.executed.Load() }

// MetricsAddr адрес сервера метрик или пустая строка
func (a *App) MetricsAddr() string {
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}

func Run(ctx context.Context, configPath string, ov Overrides) error {
	app, err := NewApp(configPath, ov)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return app.Run(ctx)
}
