package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigManager_InitialConfig(t *testing.T) {
	m, err := NewConfigManager(writeConfig(t, t.TempDir(), validYAML))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 2, m.GetConfig().Pool.Size)
	assert.NoError(t, m.GetLastError())

	ch := m.Subscribe()
	select {
	case cfg := <-ch:
		assert.Equal(t, "test", cfg.Pool.Name)
	default:
		t.Fatal("подписчик должен сразу получить текущую конфигурацию")
	}
}

func TestConfigManager_InvalidFile(t *testing.T) {
	_, err := NewConfigManager(writeConfig(t, t.TempDir(), "pool:\n  size: 0\n"))
	assert.Error(t, err)
}

func TestConfigManager_HotReload(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validYAML)
	m, err := NewConfigManager(path)
	require.NoError(t, err)
	defer m.Close()

	ch := m.Subscribe()
	<-ch

	updated := strings.Replace(validYAML, "logLevel: debug", "logLevel: warn", 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-ch:
		assert.Equal(t, "warn", cfg.Logger.LogLevel)
	case <-time.After(2 * time.Second):
		t.Fatal("новая конфигурация не получена")
	}
	assert.Equal(t, "warn", m.GetConfig().Logger.LogLevel)
}

func TestConfigManager_BrokenReloadKeepsConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), validYAML)
	m, err := NewConfigManager(path)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, os.WriteFile(path, []byte("pool:\n  size: -3\n"), 0o644))

	require.Eventually(t, func() bool {
		return m.GetLastError() != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, m.GetConfig().Pool.Size)
}

func TestConfigManager_Close(t *testing.T) {
	m, err := NewConfigManager(writeConfig(t, t.TempDir(), validYAML))
	require.NoError(t, err)

	ch := m.Subscribe()
	<-ch

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, ok := <-ch
	assert.False(t, ok, "канал подписки должен быть закрыт")

	_, ok = <-m.Subscribe()
	assert.False(t, ok)
}
