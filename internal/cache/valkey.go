// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint used while walking a group's keys.
const scanBatch = 100

// ConnectValkey creates a Valkey client and verifies the connection with a ping.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", fmt.Sprintf("%s:%s", host, port))
	return client, nil
}

// ValkeyObjectStore is an ObjectStore on Valkey. Keys are "group:key".
type ValkeyObjectStore struct {
	client *redis.Client
}

// NewValkeyObjectStore wraps a connected client.
func NewValkeyObjectStore(client *redis.Client) *ValkeyObjectStore {
	return &ValkeyObjectStore{client: client}
}

// Get returns the value stored under group:key.
func (s *ValkeyObjectStore) Get(ctx context.Context, group, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, groupKey(group, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("valkey get: %w", err)
	}
	return val, true, nil
}

// Set stores value under group:key with the given TTL.
func (s *ValkeyObjectStore) Set(ctx context.Context, group, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, groupKey(group, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

// DeleteGroup removes every key of a group by scanning for its prefix.
func (s *ValkeyObjectStore) DeleteGroup(ctx context.Context, group string) error {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := s.client.Scan(ctx, cursor, groupKey(group, "*"), scanBatch).Result()
		if err != nil {
			return fmt.Errorf("valkey scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("valkey del: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("valkey group cleared", "group", group, "deleted", deleted)
	return nil
}

func groupKey(group, key string) string {
	return group + ":" + key
}
