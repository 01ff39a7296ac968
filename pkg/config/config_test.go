package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.True(t, decimal.RequireFromString("1.30").Equal(cfg.Ledger.Markup))
	assert.Equal(t, 30, cfg.Ledger.ExpiringDays)
	assert.Equal(t, "SIN SERIE", cfg.Ledger.NoSeries)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "postgres://postgres:@localhost:5432/farmacia?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "MEMORY")
	v.Set("LEDGER_MARKUP", "1.25")
	v.Set("LEDGER_EXPIRING_DAYS", "45")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("REPORT_CACHE_TTL", "120")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.True(t, decimal.RequireFromString("1.25").Equal(cfg.Ledger.Markup))
	assert.Equal(t, 45, cfg.Ledger.ExpiringDays)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"markup menor que 1": {"LEDGER_MARKUP": "0.90"},
		"markup no numérico": {"LEDGER_MARKUP": "mucho"},
		"ventana en cero":    {"LEDGER_EXPIRING_DAYS": "0"},
		"driver desconocido": {"STORE_DRIVER": "sqlite"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range values {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestDSN_EscapesPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "farmacia", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/farmacia?sslmode=require", c.DSN())
}
