/*
 * Copyright 2024 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package redis implements the relay with Redis Pub/Sub.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/yorkie-team/sharenote/pkg/document/operation"
	"github.com/yorkie-team/sharenote/server/backend/sync"
	"github.com/yorkie-team/sharenote/server/logging"
)

const defaultPrefix = "sharenote:doc:"

// Relay relays operations over Redis channels, one channel per document.
type Relay struct {
	client *redis.Client
	origin string
	prefix string
}

// Dial connects to Redis and creates the relay of the instance named origin.
func Dial(ctx context.Context, conf *Config, origin string) (*Relay, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        conf.Address,
		Password:    conf.Password,
		DB:          conf.DB,
		DialTimeout: conf.ParseDialTimeout(),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", conf.Address, err)
	}

	prefix := conf.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	logging.DefaultLogger().Infof("Redis relay connected, address: %s, origin: %s", conf.Address, origin)

	return &Relay{
		client: client,
		origin: origin,
		prefix: prefix,
	}, nil
}

func (r *Relay) channel(token string) string {
	return r.prefix + token
}

// Publish publishes the operation on the channel of the document.
func (r *Relay) Publish(ctx context.Context, token string, op *operation.Operation) error {
	data, err := (&sync.Envelope{Origin: r.origin, Token: token, Op: op}).Marshal()
	if err != nil {
		return err
	}

	if err := r.client.Publish(ctx, r.channel(token), data).Err(); err != nil {
		return fmt.Errorf("publish %s of %s: %w", op.ID, token, err)
	}
	return nil
}

// Subscribe delivers the operations other instances publish on the channel
// of the document to handler.
func (r *Relay) Subscribe(ctx context.Context, token string, handler sync.Handler) (sync.Unsubscribe, error) {
	pubsub := r.client.Subscribe(ctx, r.channel(token))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", token, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			envelope, err := sync.UnmarshalEnvelope([]byte(msg.Payload))
			if err != nil {
				logging.DefaultLogger().Warnf("relay: %s: %v", token, err)
				continue
			}
			if envelope.Origin == r.origin {
				continue
			}
			handler(envelope.Op)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			logging.DefaultLogger().Warnf("relay: unsubscribe %s: %v", token, err)
		}
	}, nil
}

// Close closes the Redis client.
func (r *Relay) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}
