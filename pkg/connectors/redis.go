// Copyright (c) 2024-2026 CallwiseAI
// Author: Callwise Engineering <engineering@callwise.ai>
//
// Licensed under GPL-2.0 with Callwise Additional Terms.
// See LICENSE.md or contact sales@callwise.ai for commercial usage.
package connectors

import (
	"context"

	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/configs"
	"github.com/redis/go-redis/v9"
)

// RedisConnector exposes the shared redis client used for status fan-out.
type RedisConnector interface {
	Client() *redis.Client
	Healthz(ctx context.Context) error
	Close() error
}

type redisConnector struct {
	client *redis.Client
	logger commons.Logger
}

// NewRedisConnector connects to the redis endpoint described by cfg.
func NewRedisConnector(cfg configs.RedisConfig, logger commons.Logger) (RedisConnector, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.Db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	logger.Infof("redis connected: %s", cfg.Addr())
	return &redisConnector{client: client, logger: logger}, nil
}

// NewRedisConnectorWithClient wraps an existing client. Tests use this with
// redismock.
func NewRedisConnectorWithClient(client *redis.Client, logger commons.Logger) RedisConnector {
	return &redisConnector{client: client, logger: logger}
}

func (c *redisConnector) Client() *redis.Client {
	return c.client
}

func (c *redisConnector) Healthz(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisConnector) Close() error {
	return c.client.Close()
}
