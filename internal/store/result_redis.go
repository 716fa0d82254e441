package store

import (
    "context"
    "fmt"

    redis "github.com/redis/go-redis/v9"
)

// ResultStore keeps the full JSON result of finished extraction jobs so the
// API can serve them after the worker moved on.
type ResultStore struct {
    client *redis.Client
}

func NewResultStore(redisURL string) (*ResultStore, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    return &ResultStore{client: c}, nil
}

func (s *ResultStore) Close() error { return s.client.Close() }

func (s *ResultStore) resultKey(jobID string) string {
    return fmt.Sprintf("job:%s:result", jobID)
}

// SaveResult stores the encoded run result with the standard retention.
func (s *ResultStore) SaveResult(ctx context.Context, jobID string, payload []byte) error {
    return s.client.Set(ctx, s.resultKey(jobID), payload, statusTTL).Err()
}

// GetResult returns the stored result, or nil when the job has none (yet).
func (s *ResultStore) GetResult(ctx context.Context, jobID string) ([]byte, error) {
    res, err := s.client.Get(ctx, s.resultKey(jobID)).Bytes()
    if err == redis.Nil { return nil, nil }
    return res, err
}
