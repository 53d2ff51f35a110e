/*
 * Copyright 2021 The Yorkie Authors. All rights reserved.
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

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yorkie-team/sharenote/server/backend/database"
	"github.com/yorkie-team/sharenote/server/logging"
)

const docCacheSize = 1000

// Client is a client that connects to Mongo DB and reads or saves shared
// documents.
type Client struct {
	config *Config
	client *mongo.Client

	docCache *lru.Cache[string, *database.DocInfo]
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.ConnectionURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.Database)); err != nil {
		return nil, err
	}

	docCache, err := lru.New[string, *database.DocInfo](docCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize docinfo cache: %w", err)
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.Database)

	return &Client{
		config:   conf,
		client:   client,
		docCache: docCache,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	c.docCache.Purge()

	return nil
}

// CreateDocInfo stores a new document.
func (c *Client) CreateDocInfo(ctx context.Context, info *database.DocInfo) error {
	if _, err := c.collection(ColDocuments).InsertOne(ctx, info); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", info.Token, database.ErrDocumentAlreadyExists)
		}
		return fmt.Errorf("insert document of %s: %w", info.Token, err)
	}

	c.docCache.Add(info.Token, info.DeepCopy())
	return nil
}

// FindDocInfoByToken finds the document of the given token.
func (c *Client) FindDocInfoByToken(ctx context.Context, token string) (*database.DocInfo, error) {
	if cached, ok := c.docCache.Get(token); ok {
		return cached.DeepCopy(), nil
	}

	result := c.collection(ColDocuments).FindOne(ctx, bson.M{"_id": token})

	info := &database.DocInfo{}
	if err := result.Decode(info); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", token, database.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("decode document of %s: %w", token, err)
	}

	c.docCache.Add(token, info.DeepCopy())
	return info, nil
}

// FindDocInfosBySourceKey finds the documents shared from the given note.
func (c *Client) FindDocInfosBySourceKey(ctx context.Context, sourceKey string) ([]*database.DocInfo, error) {
	cursor, err := c.collection(ColDocuments).Find(
		ctx,
		bson.M{"source_key": sourceKey},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find documents of %s: %w", sourceKey, err)
	}

	var infos []*database.DocInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("fetch documents of %s: %w", sourceKey, err)
	}

	return infos, nil
}

// UpdateDocInfo replaces the stored document with the given one.
func (c *Client) UpdateDocInfo(ctx context.Context, info *database.DocInfo) error {
	result, err := c.collection(ColDocuments).ReplaceOne(ctx, bson.M{"_id": info.Token}, info)
	if err != nil {
		return fmt.Errorf("update document of %s: %w", info.Token, err)
	}
	if result.MatchedCount == 0 {
		c.docCache.Remove(info.Token)
		return fmt.Errorf("%s: %w", info.Token, database.ErrDocumentNotFound)
	}

	c.docCache.Add(info.Token, info.DeepCopy())
	return nil
}

// StoreSnapshot stores the checkpoint of a document.
func (c *Client) StoreSnapshot(ctx context.Context, info *database.SnapshotInfo) error {
	// A stored checkpoint with another seq fails the filter, and the upsert
	// then collides with it on _id.
	if _, err := c.collection(ColSnapshots).ReplaceOne(
		ctx,
		bson.M{"_id": info.Token, "seq": info.Seq - 1},
		info,
		options.Replace().SetUpsert(true),
	); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s seq %d: %w", info.Token, info.Seq, database.ErrSnapshotConflict)
		}
		return fmt.Errorf("store snapshot of %s: %w", info.Token, err)
	}

	return nil
}

// FindSnapshotByToken finds the last checkpoint of the document.
func (c *Client) FindSnapshotByToken(ctx context.Context, token string) (*database.SnapshotInfo, error) {
	result := c.collection(ColSnapshots).FindOne(ctx, bson.M{"_id": token})

	info := &database.SnapshotInfo{}
	if err := result.Decode(info); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", token, database.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("decode snapshot of %s: %w", token, err)
	}

	return info, nil
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.client.Database(c.config.Database).Collection(name)
}
