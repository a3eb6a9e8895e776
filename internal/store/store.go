package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amanullahtanweer/speaker-align/internal/output"
	redis "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no result exists for a job id
var ErrNotFound = errors.New("result not found")

const indexKey = "index"

// Config selects the Redis instance and key layout
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // e.g. "speaker-align:"
	TTL      time.Duration // 0 keeps results forever
}

// RedisStore keeps one hash per job under {prefix}{job_id} with the full
// record as JSON plus a few summary fields, and a sorted set of job ids by
// creation time under {prefix}index.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

func New(cfg Config) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.Prefix, cfg.TTL)
}

// NewWithClient attaches an existing Redis client
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(jobID string) string {
	return s.prefix + jobID
}

// Ping checks connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Save stores rec and returns the key it was written to
func (s *RedisStore) Save(ctx context.Context, rec *output.Record) (string, error) {
	if rec.JobID == "" {
		return "", fmt.Errorf("record has no job id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	key := s.key(rec.JobID)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"record":     data,
		"audio_file": rec.AudioFile,
		"strategy":   rec.AlignmentStrategy,
		"segments":   len(rec.Segments),
		"unknown":    rec.UnknownCount(),
		"created_at": rec.CreatedAt.Format(time.RFC3339),
	})
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	pipe.ZAdd(ctx, s.key(indexKey), redis.Z{Score: float64(rec.CreatedAt.Unix()), Member: rec.JobID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis save %s: %w", key, err)
	}
	return key, nil
}

// Get loads the record for jobID
func (s *RedisStore) Get(ctx context.Context, jobID string) (*output.Record, error) {
	key := s.key(jobID)
	val, err := s.redis.HGet(ctx, key, "record").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("redis HGET %s record: %w", key, err)
	}

	var rec output.Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", key, err)
	}
	return &rec, nil
}

// Entry is a row of the job index
type Entry struct {
	JobID     string
	AudioFile string
	Segments  int
	Unknown   int
	CreatedAt time.Time
}

// List returns up to limit most recent jobs. Index entries whose hash has
// expired are pruned.
func (s *RedisStore) List(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := s.redis.ZRevRange(ctx, s.key(indexKey), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ZREVRANGE: %w", err)
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		fields, err := s.redis.HMGet(ctx, s.key(id), "audio_file", "segments", "unknown", "created_at").Result()
		if err != nil {
			return nil, fmt.Errorf("redis HMGET %s: %w", s.key(id), err)
		}
		if fields[0] == nil {
			s.redis.ZRem(ctx, s.key(indexKey), id)
			continue
		}
		entry := Entry{JobID: id, AudioFile: asString(fields[0])}
		entry.Segments, _ = strconv.Atoi(asString(fields[1]))
		entry.Unknown, _ = strconv.Atoi(asString(fields[2]))
		entry.CreatedAt, _ = time.Parse(time.RFC3339, asString(fields[3]))
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes a job and its index entry
func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	n, err := s.redis.Del(ctx, s.key(jobID)).Result()
	if err != nil {
		return fmt.Errorf("redis DEL %s: %w", s.key(jobID), err)
	}
	s.redis.ZRem(ctx, s.key(indexKey), jobID)
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
