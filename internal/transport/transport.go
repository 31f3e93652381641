package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"threadpool/internal/ratelimit"
	"threadpool/pkg/logger"
)

// PoolInfo то, что сервер показывает о пуле
type PoolInfo interface {
	Name() string
	Size() int
	Pending() int
}

// HealthResponse ответ /health
type HealthResponse struct {
	Status  string `json:"status"`
	Pool    string `json:"pool"`
	Workers int    `json:"workers"`
	Pending int    `json:"pending"`
}

// RateLimitResponse лимиты продюсера и текущее число токенов в его корзине
type RateLimitResponse struct {
	ratelimit.Limits
	Explicit bool    `json:"explicit"`
	Tokens   float64 `json:"tokens"`
}

// Server HTTP сервер метрик, состояния пула и настроек продюсеров
type Server struct {
	pool      PoolInfo
	ratelimit ratelimit.RateLimiter
	server    *http.Server
	listener  net.Listener
	logger    *logger.CustomZapLogger
}

func NewServer(pool PoolInfo, limiter ratelimit.RateLimiter, gatherer prometheus.Gatherer, appLogger *logger.CustomZapLogger) *Server {
	s := &Server{
		pool:      pool,
		ratelimit: limiter,
		logger:    appLogger,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ratelimit/", s.handleRateLimit)

	s.server = &http.Server{
		Handler: mux,
	}

	return s
}

// Handler возвращает корневой обработчик (используется в тестах)
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start открывает порт и обслуживает запросы в отдельной горутине
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ошибка HTTP сервера", zap.Error(err))
		}
	}()

	s.logger.Info(fmt.Sprintf("HTTP сервер метрик слушает %s", ln.Addr()))
	return nil
}

// Addr возвращает фактический адрес после Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHealth возвращает состояние пула
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Pool:    s.pool.Name(),
		Workers: s.pool.Size(),
		Pending: s.pool.Pending(),
	})
}

// handleRateLimit обрабатывает операции с лимитами продюсеров
func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	// Извлекаем producerID из URL
	producerID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ratelimit/"), "/")
	if producerID == "" || strings.Contains(producerID, "/") {
		http.Error(w, "Invalid URL format. Use /ratelimit/{producerID}", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getRateLimit(w, producerID)
	case http.MethodPut:
		s.updateRateLimit(w, r, producerID)
	case http.MethodDelete:
		s.deleteRateLimit(w, producerID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getRateLimit возвращает текущие лимиты продюсера (явные или по умолчанию)
func (s *Server) getRateLimit(w http.ResponseWriter, producerID string) {
	limits, explicit := s.ratelimit.GetLimits(producerID)
	s.writeJSON(w, http.StatusOK, RateLimitResponse{
		Limits:   *limits,
		Explicit: explicit,
		Tokens:   s.ratelimit.GetTokens(producerID),
	})
}

// updateRateLimit задает лимиты продюсера
func (s *Server) updateRateLimit(w http.ResponseWriter, r *http.Request, producerID string) {
	var limits ratelimit.Limits
	if err := json.NewDecoder(r.Body).Decode(&limits); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация
	if limits.Rate <= 0 || limits.Burst <= 0 {
		http.Error(w, "Rate and burst must be positive", http.StatusBadRequest)
		return
	}

	s.ratelimit.SetLimits(producerID, limits.Rate, limits.Burst)
	s.logger.Info("Обновлены лимиты продюсера",
		zap.String("producer", producerID),
		zap.Float64("rate", limits.Rate),
		zap.Int("burst", limits.Burst))

	s.writeJSON(w, http.StatusOK, limits)
}

// deleteRateLimit возвращает продюсера к лимитам по умолчанию
func (s *Server) deleteRateLimit(w http.ResponseWriter, producerID string) {
	if _, explicit := s.ratelimit.GetLimits(producerID); !explicit {
		http.Error(w, "Producer limits not found", http.StatusNotFound)
		return
	}

	s.ratelimit.DeleteLimits(producerID)
	s.logger.Info("Удалены лимиты продюсера", zap.String("producer", producerID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
