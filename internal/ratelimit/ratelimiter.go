package ratelimit

import "context"

// RateLimiter ограничивает частоту отправки задач продюсерами
type RateLimiter interface {
	// Wait ожидает свободный токен или отмену контекста
	Wait(ctx context.Context, producerID string) error

	// GetTokens возвращает текущее количество доступных токенов
	GetTokens(producerID string) float64

	// SetLimits устанавливает лимиты для продюсера
	SetLimits(producerID string, rate float64, burst int)

	// GetLimits возвращает лимиты продюсера и признак того, что они заданы явно
	GetLimits(producerID string) (*Limits, bool)

	// DeleteLimits удаляет лимиты продюсера, возвращая его к значениям по умолчанию
	DeleteLimits(producerID string)

	// SetDefaults меняет лимиты по умолчанию для продюсеров без явных настроек
	SetDefaults(rate float64, burst int)
}
