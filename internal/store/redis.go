package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
)

// RedisStore keeps documents in a hash keyed by id and the insertion
// order in a list. Queries are evaluated in process.
type RedisStore struct {
	client *redis.Client
	docKey string
	idsKey string
}

func NewRedisStore(client *redis.Client, collection string) (*RedisStore, error) {
	if err := validIdentifier(collection); err != nil {
		return nil, err
	}
	return &RedisStore{
		client: client,
		docKey: "analyst:" + collection,
		idsKey: "analyst:" + collection + ":ids",
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Record, error) {
	raw, err := s.client.HGet(ctx, s.docKey, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	return decodeRecord(raw)
}

func (s *RedisStore) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	rec = prepareCreate(rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	created, err := s.client.HSetNX(ctx, s.docKey, rec.ID(), doc).Result()
	if err != nil {
		return nil, fmt.Errorf("redis create %s: %w", rec.ID(), err)
	}
	if !created {
		return nil, ErrConflict
	}
	if err := s.client.RPush(ctx, s.idsKey, rec.ID()).Err(); err != nil {
		return nil, fmt.Errorf("redis index %s: %w", rec.ID(), err)
	}
	return rec, nil
}

func (s *RedisStore) Replace(ctx context.Context, id string, rec models.Record) (models.Record, error) {
	exists, err := s.client.HExists(ctx, s.docKey, id).Result()
	if err != nil {
		return nil, fmt.Errorf("redis exists %s: %w", id, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	rec = prepareReplace(id, rec)
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if err := s.client.HSet(ctx, s.docKey, id, doc).Err(); err != nil {
		return nil, fmt.Errorf("redis replace %s: %w", id, err)
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, s.docKey, id).Result()
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	if err := s.client.LRem(ctx, s.idsKey, 0, id).Err(); err != nil {
		return fmt.Errorf("redis unindex %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	return s.Query(ctx, querylang.PassThrough())
}

func (s *RedisStore) Query(ctx context.Context, q querylang.Query) ([]models.Record, error) {
	ids, err := s.client.LRange(ctx, s.idsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list ids: %w", err)
	}
	out := []models.Record{}
	if len(ids) == 0 {
		return out, nil
	}

	docs, err := s.client.HMGet(ctx, s.docKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load documents: %w", err)
	}
	for _, raw := range docs {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(str))
		if err != nil {
			return nil, err
		}
		if querylang.Eval(q.Where, rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.docKey, s.idsKey).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
