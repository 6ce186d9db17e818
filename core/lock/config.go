package lock

import "time"

const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Config holds configuration for the sync lock.
type Config struct {
	// Backend is the lock implementation (local, redis).
	Backend string `mapstructure:"backend" default:"local"`
	// RedisAddr is the host:port of the redis server.
	RedisAddr string `mapstructure:"redis_addr" default:"localhost:6379"`
	// RedisPassword authenticates against redis.
	RedisPassword string `mapstructure:"redis_password" default:""`
	// RedisDB selects the redis database.
	RedisDB int `mapstructure:"redis_db" default:"0"`
	// TTLSeconds bounds how long a crashed holder can keep a redis lock.
	// A live holder refreshes it every third of the TTL.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"900"`
}

// TTL returns the redis lock lifetime.
func (c Config) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}
