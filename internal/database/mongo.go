package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
	Health *Health
}

// ConnectMongo never fails on an unreachable server: the driver keeps
// monitoring in the background and Health follows the heartbeats, so the
// storefront starts on the fallback dataset and switches over once the server
// answers. Only a malformed URI is an error.
func ConnectMongo(ctx context.Context, uri, dbName string, timeout, retryAfter time.Duration, log *zap.Logger) (*Mongo, error) {
	health := NewHealth(retryAfter)

	monitor := &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(*event.ServerHeartbeatSucceededEvent) { health.MarkUp() },
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			health.MarkDown()
			log.Debug("mongo heartbeat failed", zap.String("addr", e.ConnectionID), zap.Error(e.Failure))
		},
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout).
		SetServerMonitor(monitor)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(dbName), Health: health}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := m.Ping(pctx); err != nil {
		log.Warn("mongo not reachable at startup, serving fallback data", zap.Error(err))
	} else {
		log.Info("mongo connected", zap.String("database", dbName))
	}

	return m, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	err := m.Client.Ping(ctx, readpref.Primary())
	m.Health.Observe(err, IsMongoTransient)
	return err
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// IsMongoTransient reports whether err means the server could not be reached,
// as opposed to the server rejecting the operation.
func IsMongoTransient(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	var sse mongo.ServerError
	if errors.As(err, &sse) {
		return sse.HasErrorLabel("RetryableWriteError") || sse.HasErrorLabel("TransientTransactionError")
	}
	return IsNetErr(err)
}
