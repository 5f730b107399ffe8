package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.ListenerAddr)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, StoreKindPostgres, cfg.StoreKind)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)

	assert.Equal(t, map[string]string{"factory_1": "factory_1_data", "factory_2": "factory_2_data"}, cfg.FactoryPartitions)
	assert.Equal(t, map[string]int64{"factory_1": 1, "factory_2": 2}, cfg.FactoryIDs)
	assert.Equal(t, "factory_1", cfg.DefaultFactory)

	assert.Equal(t, 30.0, cfg.TemperatureHigh)
	assert.Equal(t, 15.0, cfg.TemperatureLow)
	assert.Equal(t, 20.0, cfg.BatteryLow)
	assert.True(t, cfg.FireDetected)

	assert.False(t, cfg.AuthEnabled)
	assert.Empty(t, cfg.ValidAPIKeys)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("LISTENER_ADDR", ":9000")
	t.Setenv("STORE_KIND", "memory")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("FACTORY_PARTITIONS", "north=north_data, south = south_data")
	t.Setenv("FACTORY_IDS", "north=7")
	t.Setenv("DEFAULT_FACTORY", "south")
	t.Setenv("ALERT_TEMPERATURE_HIGH", "28.5")
	t.Setenv("ALERT_BATTERY_LOW", "not-a-number")
	t.Setenv("ALERT_FIRE_DETECTED", "false")
	t.Setenv("VALID_API_KEYS", "a, ,b")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenerAddr)
	assert.Equal(t, StoreKindMemory, cfg.StoreKind)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, map[string]string{"north": "north_data", "south": "south_data"}, cfg.FactoryPartitions)
	assert.Equal(t, map[string]int64{"north": 7}, cfg.FactoryIDs)
	assert.Equal(t, "south", cfg.DefaultFactory)
	assert.Equal(t, 28.5, cfg.TemperatureHigh)
	assert.Equal(t, 20.0, cfg.BatteryLow, "unparseable values keep the default")
	assert.False(t, cfg.FireDetected)
	assert.Equal(t, []string{"a", "b"}, cfg.ValidAPIKeys)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"malformed partition", map[string]string{"FACTORY_PARTITIONS": "factory_1"}, "FACTORY_PARTITIONS"},
		{"non-numeric id", map[string]string{"FACTORY_IDS": "factory_1=one"}, "not an integer"},
		{"default without partition", map[string]string{"DEFAULT_FACTORY": "factory_9"}, "default factory"},
		{"inverted temperatures", map[string]string{"ALERT_TEMPERATURE_LOW": "40"}, "ALERT_TEMPERATURE_LOW"},
		{"unknown store", map[string]string{"STORE_KIND": "mongo"}, "STORE_KIND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
