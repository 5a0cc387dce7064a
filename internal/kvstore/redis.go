package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-pos-mart/internal/config"
	"go-pos-mart/internal/shared"
)

// RedisBackend runs Update as an optimistic transaction: every key read is
// WATCHed and the buffered writes go out in one MULTI/EXEC. A concurrent
// write to a watched key aborts the EXEC with shared.ErrConcurrencyConflict.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis and checks the connection.
func NewRedisBackend(cfg config.RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisBackend{client: client}, nil
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) View(ctx context.Context, fn func(Txn) error) error {
	return fn(newTxn(redisReader{ctx: ctx, cmd: b.client}))
}

func (b *RedisBackend) Update(ctx context.Context, fn func(Txn) error) error {
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		t := newTxn(redisReader{ctx: ctx, cmd: tx, tx: tx})
		if err := fn(t); err != nil {
			return err
		}
		if !t.dirty() {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			t.flush(redisWriter{ctx: ctx, pipe: pipe})
			return nil
		})
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
	}
	return err
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

type redisCmds interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

// redisReader WATCHes each key before reading it when tx is set.
type redisReader struct {
	ctx context.Context
	cmd redisCmds
	tx  *redis.Tx
}

func (r redisReader) watch(key string) error {
	if r.tx == nil {
		return nil
	}
	return r.tx.Watch(r.ctx, key).Err()
}

func (r redisReader) get(key string) ([]byte, error) {
	if err := r.watch(key); err != nil {
		return nil, err
	}
	val, err := r.cmd.Get(r.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return val, err
}

func (r redisReader) members(key string) ([]string, error) {
	if err := r.watch(key); err != nil {
		return nil, err
	}
	return r.cmd.SMembers(r.ctx, key).Result()
}

type redisWriter struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (w redisWriter) set(key string, val []byte) { w.pipe.Set(w.ctx, key, val, 0) }
func (w redisWriter) del(key string)             { w.pipe.Del(w.ctx, key) }

func (w redisWriter) sadd(key string, members []string) {
	w.pipe.SAdd(w.ctx, key, toArgs(members)...)
}

func (w redisWriter) srem(key string, members []string) {
	w.pipe.SRem(w.ctx, key, toArgs(members)...)
}

func toArgs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
