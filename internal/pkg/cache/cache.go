package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ManuelReschke/StreamFox/internal/pkg/env"
)

// Redis databases used by the application.
const (
	DBDefault  = 0
	DBSessions = 1
	DBOAuth    = 2
	DBLimiter  = 3
)

var client *redis.Client

// SetupCache initializes the connection to the Redis-compatible cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       DBDefault,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// Test the connection
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", client.Options().Addr).Msg("could not connect to cache")
	} else {
		log.Info().Str("addr", client.Options().Addr).Msg("connected to cache")
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Ping reports whether the cache answers within the context deadline.
func Ping(ctx context.Context) error {
	return GetClient().Ping(ctx).Err()
}

// Endpoint holds the parts of the cache address that gofiber/storage/redis
// needs to open its own connections.
type Endpoint struct {
	Host     string
	Port     int
	Username string
	Password string
}

// GetEndpoint derives an Endpoint from the shared client options.
func GetEndpoint() Endpoint {
	ep := Endpoint{Host: "127.0.0.1", Port: 6379}
	opts := GetClient().Options()
	if opts == nil {
		return ep
	}
	if opts.Addr != "" {
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			ep.Host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				ep.Port = parsed
			}
		} else {
			ep.Host = opts.Addr
		}
	}
	ep.Username = opts.Username
	ep.Password = opts.Password
	return ep
}

// NewFiberStorage opens a gofiber storage on the given Redis database of the
// cache server. Sessions, OAuth state and the rate limiter each use their own.
func NewFiberStorage(database int) fiber.Storage {
	ep := GetEndpoint()
	return redisstorage.New(redisstorage.Config{
		Host:     ep.Host,
		Port:     ep.Port,
		Username: ep.Username,
		Password: ep.Password,
		Database: database,
		Reset:    false,
	})
}
