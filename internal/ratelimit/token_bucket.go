package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limits содержит настройки лимитов продюсера
type Limits struct {
	Rate  float64 `json:"rate"`  // Отправок в секунду
	Burst int     `json:"burst"` // Максимальный размер корзины
}

// TokenBucket реализует алгоритм маркерного ведра отдельно для каждого продюсера
type TokenBucket struct {
	mu sync.RWMutex

	// Настройки по умолчанию
	defaults Limits

	// Лимитеры продюсеров
	limiters map[string]*rate.Limiter

	// Явно заданные настройки
	limits map[string]Limits
}

var _ RateLimiter = (*TokenBucket)(nil)

// NewTokenBucket создает новый TokenBucket с указанными параметрами по умолчанию
func NewTokenBucket(defaultRate float64, defaultBurst int) *TokenBucket {
	return &TokenBucket{
		defaults: Limits{Rate: defaultRate, Burst: defaultBurst},
		limiters: make(map[string]*rate.Limiter),
		limits:   make(map[string]Limits),
	}
}

// Wait ожидает, пока не появится доступный токен
func (tb *TokenBucket) Wait(ctx context.Context, producerID string) error {
	return tb.getLimiter(producerID).Wait(ctx)
}

// GetTokens возвращает текущее количество доступных токенов
func (tb *TokenBucket) GetTokens(producerID string) float64 {
	return tb.getLimiter(producerID).Tokens()
}

// SetLimits устанавливает лимиты для конкретного продюсера
func (tb *TokenBucket) SetLimits(producerID string, r float64, burst int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.limits[producerID] = Limits{Rate: r, Burst: burst}
	tb.apply(producerID, r, burst)
}

// GetLimits возвращает текущие лимиты продюсера
func (tb *TokenBucket) GetLimits(producerID string) (*Limits, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()

	if l, ok := tb.limits[producerID]; ok {
		return &l, true
	}
	l := tb.defaults
	return &l, false
}

// DeleteLimits удаляет явные лимиты продюсера
func (tb *TokenBucket) DeleteLimits(producerID string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	delete(tb.limits, producerID)
	tb.apply(producerID, tb.defaults.Rate, tb.defaults.Burst)
}

// SetDefaults меняет лимиты по умолчанию, продюсеры с явными лимитами не затрагиваются
func (tb *TokenBucket) SetDefaults(r float64, burst int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.defaults = Limits{Rate: r, Burst: burst}
	for id := range tb.limiters {
		if _, ok := tb.limits[id]; !ok {
			tb.apply(id, r, burst)
		}
	}
}

// apply обновляет лимитер на месте, чтобы не сбивать уже ожидающих в Wait.
// Вызывается под tb.mu.
func (tb *TokenBucket) apply(producerID string, r float64, burst int) {
	if limiter, ok := tb.limiters[producerID]; ok {
		limiter.SetLimit(rate.Limit(r))
		limiter.SetBurst(burst)
	}
}

// getLimiter возвращает или создает лимитер для продюсера
func (tb *TokenBucket) getLimiter(producerID string) *rate.Limiter {
	tb.mu.RLock()
	limiter, ok := tb.limiters[producerID]
	tb.mu.RUnlock()
	if ok {
		return limiter
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	if limiter, ok := tb.limiters[producerID]; ok {
		return limiter
	}

	l, ok := tb.limits[producerID]
	if !ok {
		l = tb.defaults
	}
	limiter = rate.NewLimiter(rate.Limit(l.Rate), l.Burst)
	tb.limiters[producerID] = limiter

	return limiter
}
