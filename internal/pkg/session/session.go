package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/cache"
	"github.com/ManuelReschke/ShopifyBilling/internal/pkg/env"
)

var sessionStore *session.Store

// NewSessionStore creates the shared store. Sessions live in Redis when a
// cache host is configured and in process memory otherwise.
func NewSessionStore() *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		// The app is rendered inside the platform admin iframe.
		CookieSameSite: "None",
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	}
	if env.IsDev() {
		cfg.CookieSameSite = "Lax"
	}

	if cache.Enabled() {
		cfg.Storage = newRedisStorage()
	}

	sessionStore = session.New(cfg)
	return sessionStore
}

func newRedisStorage() *redis.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Database 1 keeps sessions apart from the cache in DB 0.
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionStore replaces the shared store, e.g. with a memory store in tests.
func SetSessionStore(store *session.Store) {
	sessionStore = store
}

// SetSessionValues stores key-value pairs in the caller's session
func SetSessionValues(c *fiber.Ctx, values map[string]string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	for k, v := range values {
		sess.Set(k, v)
	}
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the caller's session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if v, ok := sess.Get(key).(string); ok {
		return v
	}
	return ""
}
