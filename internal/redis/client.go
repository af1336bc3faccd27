package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/appointment-lifecycle/internal/config"
)

const (
	defaultPoolSize = 10
	defaultTimeout  = 2 * time.Second
)

// ClientOptions holds the connection settings for the booking-lock Redis.
type ClientOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	PoolSize int           // 0 uses 10
	Timeout  time.Duration // read and write timeout, 0 uses 2s
}

func OptionsFromConfig(cfg config.Config) ClientOptions {
	return ClientOptions{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	}
}

func (o ClientOptions) redisOptions() *redis.Options {
	pool := o.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		DB:           o.DB,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		DialTimeout:  timeout,
		PoolSize:     pool,
		MinIdleConns: 1,
	}
}

// NewRedisClient connects and pings. The ping is bounded by ctx.
func NewRedisClient(ctx context.Context, opts ClientOptions) (*redis.Client, error) {
	rdb := redis.NewClient(opts.redisOptions())

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return rdb, nil
}
