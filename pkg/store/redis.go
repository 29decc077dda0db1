package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/simpg/pkg/pangraph"
)

// redisBatch is the number of records fetched per LRANGE call.
const redisBatch = 128

// RedisStore appends walks to the Redis list "simpg:walks:<run id>".
type RedisStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	owned  bool
}

// NewRedisStore uses an existing client. Close leaves the client open.
// A positive ttl sets an expiry on the list after every append.
func NewRedisStore(client redis.UniversalClient, runID string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, key: redisKey(runID), ttl: ttl}
}

// DialRedis connects to url (redis://host:port/db) and checks the
// connection. Close shuts the client down.
func DialRedis(ctx context.Context, url, runID string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, storageError(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, storageError(err, "connect to redis")
	}
	s := NewRedisStore(client, runID, 0)
	s.owned = true
	return s, nil
}

func redisKey(runID string) string { return "simpg:walks:" + runID }

// Append pushes one record to the end of the run's list.
func (s *RedisStore) Append(ctx context.Context, sample string, walk pangraph.Walk) error {
	data, err := encodeRecord(newRecord(sample, walk))
	if err != nil {
		return storageError(err, "encode walk of %s", sample)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	_, err = pipe.Exec(ctx)
	return storageError(err, "push walk of %s", sample)
}

// Iterate reads the list in batches.
func (s *RedisStore) Iterate(ctx context.Context, fn func(string, pangraph.Walk) error) error {
	for start := int64(0); ; start += redisBatch {
		items, err := s.client.LRange(ctx, s.key, start, start+redisBatch-1).Result()
		if err != nil {
			return storageError(err, "read walks")
		}
		for _, item := range items {
			rec, err := decodeRecord([]byte(item))
			if err != nil {
				return storageError(err, "decode walk")
			}
			if err := fn(rec.Sample, rec.walk()); err != nil {
				return err
			}
		}
		if len(items) < redisBatch {
			return nil
		}
	}
}

// Delete removes the run's list.
func (s *RedisStore) Delete(ctx context.Context) error {
	return storageError(s.client.Del(ctx, s.key).Err(), "delete walks")
}

// Close closes the client when the store created it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func encodeRecord(r record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (record, error) {
	var r record
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r)
	return r, err
}

var _ WalkStore = (*RedisStore)(nil)
