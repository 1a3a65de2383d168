//go:build integration

package client

import (
	"context"
	"testing"

	"github.com/Sternrassler/strava-client/internal/testutil"
	"github.com/Sternrassler/strava-client/pkg/ratelimit"
	"github.com/Sternrassler/strava-client/pkg/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// newRedisClient creates a client whose credential cache and rate limit samples live in Redis.
func newRedisClient(t *testing.T, mock *testutil.MockStrava, redisClient *redis.Client) *Client {
	t.Helper()

	cfg := DefaultConfig(testCredential(), "IntegrationTest/1.0.0 (test@example.com)")
	cfg.BaseURL = mock.URL()
	cfg.OAuthURL = mock.URL() + "/oauth"
	cfg.Tokens = token.NewCache(token.NewRedisStore(redisClient, token.DefaultTTL), zerolog.Nop())
	cfg.RateLimit = ratelimit.NewObserver(ratelimit.Config{Redis: redisClient}, zerolog.Nop())

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockStrava()
	defer mock.Close()
	mock.SetCollection("/clubs/5/members", 450)
	mock.SetUsage("120,4000")

	c := newRedisClient(t, mock, redisClient)
	defer c.Close()

	ctx := context.Background()

	members, err := c.ClubMembers(ctx, 5)
	if err != nil {
		t.Fatalf("ClubMembers() error = %v", err)
	}
	if len(members) != 450 {
		t.Errorf("Expected 450 members, got %d", len(members))
	}

	// A second observer sharing Redis sees the sample
	sibling := ratelimit.NewObserver(ratelimit.Config{Redis: redisClient}, zerolog.Nop())
	sample, err := sibling.SharedSample(ctx)
	if err != nil {
		t.Fatalf("SharedSample() error = %v", err)
	}
	if sample.UsedShort != 120 || sample.UsedDaily != 4000 {
		t.Errorf("Unexpected shared sample %+v", sample)
	}
}

func TestCredentialSharedAcrossClients(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockStrava()
	defer mock.Close()
	mock.SetResponse("/oauth/deauthorize", testutil.NewHealthyResponse(`{}`))

	first := newRedisClient(t, mock, redisClient)
	defer first.Close()

	ctx := context.Background()

	cfg := DefaultConfig(nil, "IntegrationTest/1.0.0 (test@example.com)")
	cfg.BaseURL = mock.URL()
	cfg.Tokens = token.NewCache(token.NewRedisStore(redisClient, token.DefaultTTL), zerolog.Nop())

	second, err := NewFromCache(ctx, cfg, "athlete-42", token.ScopeActivityRead)
	if err != nil {
		t.Fatalf("NewFromCache() error = %v", err)
	}
	defer second.Close()

	if second.Credential().Token != "test-access-token" {
		t.Errorf("Expected shared credential, got %+v", second.Credential())
	}

	if err := first.Deauthorize(ctx); err != nil {
		t.Fatalf("Deauthorize() error = %v", err)
	}

	if _, err := NewFromCache(ctx, cfg, "athlete-42"); err != ErrNoCredential {
		t.Errorf("Expected ErrNoCredential after deauthorize, got %v", err)
	}
}
