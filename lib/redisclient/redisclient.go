// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package redisclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/h3xrecon/h3xrecon/lib/config"
)

// pingTimeout bounds the liveness check performed by Open.
const pingTimeout = 5 * time.Second

// Options converts cfg into go-redis options for database db.
func Options(cfg config.RedisConfig, db int) (*redis.UniversalOptions, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("redis addresses empty")
	}

	mode := strings.ToLower(cfg.Mode)
	switch mode {
	case "", "single":
	case "cluster":
		if db != 0 {
			return nil, fmt.Errorf("redis cluster mode supports only database 0, got %d", db)
		}
	case "sentinel":
		if cfg.SentinelMaster == "" {
			return nil, errors.New("sentinel mode requires sentinel_master")
		}
	default:
		return nil, fmt.Errorf("unknown redis mode: %s", cfg.Mode)
	}

	options := &redis.UniversalOptions{
		Addrs:        cfg.Addresses,
		DB:           db,
		Username:     cfg.Username,
		Password:     cfg.Password,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout.Std(),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
	}
	switch mode {
	case "sentinel":
		options.MasterName = cfg.SentinelMaster
	case "cluster":
		options.IsClusterMode = true
	}
	return options, nil
}

// Open creates a client for database db and verifies it with PING.
// The client is closed if the ping fails.
func Open(ctx context.Context, cfg config.RedisConfig, db int) (redis.UniversalClient, error) {
	options, err := Options(cfg, db)
	if err != nil {
		return nil, err
	}

	client := redis.NewUniversalClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", strings.Join(cfg.Addresses, ","), err)
	}
	return client, nil
}
