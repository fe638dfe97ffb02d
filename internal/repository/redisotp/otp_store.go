package redisotp

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentvest/backend/internal/models"
	repo "github.com/rentvest/backend/internal/repository"
)

// Store keeps one Redis hash per phone. HIncrBy gives the atomic attempt
// counter; key TTL backstops the application-level expiry check.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func key(phone string) string { return "otp:" + phone }

func (s *Store) Get(ctx context.Context, phone string) (models.OTPRecord, error) {
	vals, err := s.rdb.HGetAll(ctx, key(phone)).Result()
	if err != nil {
		return models.OTPRecord{}, err
	}
	if len(vals) == 0 {
		return models.OTPRecord{}, repo.ErrNotFound
	}
	rec := models.OTPRecord{Phone: phone, Code: vals["code"]}
	if v, err := strconv.ParseInt(vals["expires_at"], 10, 64); err == nil {
		rec.ExpiresAt = time.Unix(v, 0)
	}
	if v, err := strconv.ParseInt(vals["sent_at"], 10, 64); err == nil {
		rec.SentAt = time.Unix(v, 0)
	}
	if v, err := strconv.Atoi(vals["attempts"]); err == nil {
		rec.Attempts = v
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, rec models.OTPRecord, ttl time.Duration) error {
	k := key(rec.Phone)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, map[string]any{
		"code":       rec.Code,
		"expires_at": rec.ExpiresAt.Unix(),
		"sent_at":    rec.SentAt.Unix(),
		"attempts":   rec.Attempts,
	})
	pipe.Expire(ctx, k, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IncrAttempts(ctx context.Context, phone string) (int, error) {
	n, err := s.rdb.HIncrBy(ctx, key(phone), "attempts", 1).Result()
	return int(n), err
}

func (s *Store) Delete(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, key(phone)).Err()
}
