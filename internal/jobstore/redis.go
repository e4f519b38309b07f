package jobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"quotereel/internal/job"
)

const redisUpdateAttempts = 50

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr   string
	DB     int
	Prefix string
}

// Redis keeps each record under <prefix>:job:<id> and indexes recency in a
// sorted set scored by update time.
type Redis struct {
	client *redis.Client
	prefix string
	clock  Clock
}

// OpenRedis connects and pings the server.
func OpenRedis(opts RedisOptions) (*Redis, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, storageErr("open", "", errors.New("redis address is empty"))
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "quotereel"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storageErr("open", "", fmt.Errorf("ping redis: %w", err))
	}
	return &Redis{client: client, prefix: prefix, clock: time.Now}, nil
}

func (r *Redis) Backend() string { return "redis" }

func (r *Redis) jobKey(id string) string { return r.prefix + ":job:" + id }
func (r *Redis) indexKey() string        { return r.prefix + ":jobs:updated" }

func (r *Redis) Create(ctx context.Context, j job.Job) (string, error) {
	ctx = ensureContext(ctx)
	data, err := encodeJob(j)
	if err != nil {
		return "", storageErr("create", j.ID, err)
	}
	key := r.jobKey(j.ID)
	var queued bool
	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return errCollision
		}
		queued = true
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: score(j), Member: j.ID})
			return nil
		})
		return err
	}
	err = r.client.Watch(ctx, txf, key)
	switch {
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, errCollision):
		return "", storageErr("create", j.ID, errCollision)
	case err != nil:
		// EXEC does not roll back a command that failed inside the
		// transaction, so a record without its index entry is removed.
		if queued {
			_ = r.client.Del(context.WithoutCancel(ctx), key).Err()
		}
		return "", storageErr("create", j.ID, err)
	}
	return j.ID, nil
}

func score(j job.Job) float64 {
	return float64(j.UpdatedAt.UnixMilli())
}

func (r *Redis) Update(ctx context.Context, id string, patch job.Patch) (job.Job, error) {
	ctx = ensureContext(ctx)
	key := r.jobKey(id)
	var (
		next     job.Job
		previous job.Job
		ruleErr  error
	)
	txf := func(tx *redis.Tx) error {
		ruleErr = nil
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		current, err := decodeJob(raw)
		if err != nil {
			return err
		}
		previous = current
		candidate, err := applyPatch(current, patch, r.clock())
		if err != nil {
			ruleErr = err
			return nil
		}
		data, err := encodeJob(candidate)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: score(candidate), Member: id})
			return nil
		})
		if err == nil {
			next = candidate
		}
		return err
	}

	var err error
	for attempt := 0; attempt < redisUpdateAttempts; attempt++ {
		err = r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	switch {
	case errors.Is(err, redis.Nil):
		return job.Job{}, notFound(id)
	case err != nil:
		return previous, storageErr("update", id, err)
	case ruleErr != nil:
		return previous, ruleErr
	}
	return next, nil
}

func (r *Redis) Get(ctx context.Context, id string) (job.Job, error) {
	ctx = ensureContext(ctx)
	raw, err := r.client.Get(ctx, r.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return job.Job{}, notFound(id)
	}
	if err != nil {
		return job.Job{}, storageErr("get", id, err)
	}
	j, err := decodeJob(raw)
	if err != nil {
		return job.Job{}, storageErr("get", id, err)
	}
	return j, nil
}

func (r *Redis) List(ctx context.Context, limit int) ([]job.Job, error) {
	ctx = ensureContext(ctx)
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, storageErr("list", "", err)
	}
	out := make([]job.Job, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.jobKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageErr("list", "", err)
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		j, err := decodeJob([]byte(raw))
		if err != nil {
			return nil, storageErr("list", "", err)
		}
		out = append(out, j)
	}
	// millisecond scores can tie; apply the full ordering before truncating
	sortRecent(out)
	return truncate(out, limit), nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
