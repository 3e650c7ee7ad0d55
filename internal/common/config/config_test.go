package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_HOST", "pg.internal")
	os.Setenv("DB_PORT", "6543")
	os.Setenv("DB_NAME", "catat")
	os.Setenv("DB_MAX_CONNS", "notanumber")
	os.Setenv("DB_MAX_IDLE_SECONDS", "300")
	defer os.Clearenv()

	cfg := DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable", MaxConns: 10}
	cfg.LoadFromEnv("DB")

	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "catat", cfg.Database)
	assert.Equal(t, 10, cfg.MaxConns, "invalid ints keep the previous value")
	assert.Equal(t, 5*time.Minute, cfg.MaxIdleTime)
	assert.Equal(t, "host=pg.internal port=6543 user= password= dbname=catat sslmode=disable", cfg.GetDSN())
}

func TestMQTTConfig_LoadFromEnv_QoSRange(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	cfg := MQTTConfig{QoS: 1}
	os.Setenv("MQTT_QOS", "5")
	cfg.LoadFromEnv("MQTT")
	assert.Equal(t, byte(1), cfg.QoS)

	os.Setenv("MQTT_QOS", "2")
	os.Setenv("MQTT_BROKER", "tcp://broker:1883")
	cfg.LoadFromEnv("MQTT")
	assert.Equal(t, byte(2), cfg.QoS)
	assert.Equal(t, "tcp://broker:1883", cfg.Broker)
}

func TestRedisConfig_LoadFromEnv_PoolSize(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	cfg := RedisConfig{Addr: "localhost:6379", PoolSize: 8}
	os.Setenv("REDIS_POOL_SIZE", "0")
	cfg.LoadFromEnv("REDIS")
	assert.Equal(t, 8, cfg.PoolSize)

	os.Setenv("REDIS_POOL_SIZE", "20")
	os.Setenv("REDIS_ADDR", "redis:6379")
	cfg.LoadFromEnv("REDIS")
	assert.Equal(t, 20, cfg.PoolSize)
	assert.Equal(t, "redis:6379", cfg.Addr)
}
