package redis

import (
	"testing"
	"time"

	"github.com/adityaverma/getmeachai-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when url and address are both empty")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		URL:      "redis://:pw@redis.internal:6380/2",
		PoolSize: 15,
	})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "redis.internal:6380" {
		t.Fatalf("unexpected addr %s", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
	if opts.PoolSize != 15 {
		t.Fatalf("pool size fallback not applied, got %d", opts.PoolSize)
	}
}

func TestOptionsFromConfigAddressFallback(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6379",
		Password:    "pw",
		DB:          1,
		DialTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 1 {
		t.Fatalf("address options not applied: %+v", opts)
	}
	if opts.DialTimeout != 2*time.Second {
		t.Fatalf("dial timeout not applied: %v", opts.DialTimeout)
	}
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("stripe_webhook", "evt_1"); got != "chai:idempotency:stripe_webhook:evt_1" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := c.RateLimitKey("login:ip:1.2.3.4"); got != "chai:rate_limit:login:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
}
