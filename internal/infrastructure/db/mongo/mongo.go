package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client on the Stable API v1, verifies
// connectivity with a ping, and returns both the client and the selected
// database. Failures are reported as *domain.ConnectionError.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, &domain.ConnectionError{Err: err}
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, &domain.ConnectionError{Err: err}
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// storeError wraps a driver failure with the operation name. Network and
// timeout failures become *domain.ConnectionError so callers can tell an
// unreachable server from a rejected query.
func storeError(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		err = &domain.ConnectionError{Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
