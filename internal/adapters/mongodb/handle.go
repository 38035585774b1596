// Package mongodb owns the process-wide document-store connection. A Handle
// is constructed once by the composition root and passed down by reference;
// nothing else in the tree dials the store.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/cherriae/FTC-Castle/pkg/logger"
)

// Connection tuning. Socket and selection timeouts bound every operation
// issued through the handle.
const (
	serverSelectionTimeout = 30 * time.Second
	connectTimeout         = 10 * time.Second
	socketTimeout          = 45 * time.Second
	heartbeatInterval      = 10 * time.Second
	maxConnIdleTime        = 60 * time.Second

	minPoolSize uint64 = 5
	maxPoolSize uint64 = 50
)

// Handle wraps the mongo client plus the database the service operates on.
type Handle struct {
	client   *mongo.Client
	database string

	closeOnce sync.Once
	closeErr  error
}

// Option applies a configuration option to the Handle.
type Option func(*Handle)

// WithDatabase overrides the database name.
func WithDatabase(name string) Option {
	return func(h *Handle) {
		if name != "" {
			h.database = name
		}
	}
}

// Connect dials the store, verifies the connection with a ping, and returns
// a ready Handle.
func Connect(ctx context.Context, uri string, opts ...Option) (*Handle, error) {
	h := &Handle{database: "castle"}
	for _, opt := range opts {
		opt(h)
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(serverSelectionTimeout).
		SetConnectTimeout(connectTimeout).
		SetSocketTimeout(socketTimeout).
		SetHeartbeatInterval(heartbeatInterval).
		SetMaxConnIdleTime(maxConnIdleTime).
		SetMinPoolSize(minPoolSize).
		SetMaxPoolSize(maxPoolSize).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Get().Info(ctx, "connected to document store",
		logger.String("database", h.database))
	h.client = client
	return h, nil
}

// Database returns the configured database.
func (h *Handle) Database() *mongo.Database {
	return h.client.Database(h.database)
}

// Collection returns a collection in the configured database.
func (h *Handle) Collection(name string) *mongo.Collection {
	return h.Database().Collection(name)
}

// Ping verifies the connection is still alive.
func (h *Handle) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return h.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Safe to call more than once.
func (h *Handle) Close(ctx context.Context) error {
	h.closeOnce.Do(func() {
		h.closeErr = h.client.Disconnect(ctx)
	})
	return h.closeErr
}
