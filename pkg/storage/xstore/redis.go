package xstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// hash 字段
const (
	fieldTag   = "tag"
	fieldValue = "value"
	fieldTS    = "ts"
)

// Redis 是 Redis 存储。
//
// 布局（prefix 默认 "xmemo:"）：
//   - prefix+"entry:"+key  hash{tag, value, ts}
//   - prefix+"index"       sorted set，member 为 key，score 为写入时间（微秒）
//   - prefix+"tag:"+tag    set，无 tag 的条目放在 prefix+"untagged"
//
// 每个写操作在 MULTI/EXEC 中执行，覆盖与删除前用 WATCH 读取旧 tag。
type Redis struct {
	client redis.UniversalClient
	opts   *options
	log    xlog.Logger
	closed atomic.Bool
}

var (
	_ Store     = (*Redis)(nil)
	_ Inspector = (*Redis)(nil)
)

// NewRedis 基于已初始化的客户端创建存储。Close 会关闭该客户端。
func NewRedis(client redis.UniversalClient, opts ...Option) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := applyOptions(opts)
	return &Redis{client: client, opts: o, log: o.logger.With(xlog.Component("xstore.redis"))}, nil
}

// Client 返回底层客户端。
func (r *Redis) Client() redis.UniversalClient { return r.client }

func (r *Redis) entryKey(key string) string { return r.opts.keyPrefix + "entry:" + key }
func (r *Redis) indexKey() string          { return r.opts.keyPrefix + "index" }

func (r *Redis) tagKey(tag string) string {
	if tag == "" {
		return r.opts.keyPrefix + "untagged"
	}
	return r.opts.keyPrefix + "tag:" + tag
}

func (r *Redis) check() error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (r *Redis) Store(ctx context.Context, key string, value []byte, tag string) error {
	if err := r.check(); err != nil {
		return err
	}
	ts := stamp(r.opts.now)
	ek := r.entryKey(key)

	return r.watch(ctx, func(tx *redis.Tx) error {
		old, hadOld, err := r.oldTag(ctx, tx, ek)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if hadOld && old != tag {
				p.SRem(ctx, r.tagKey(old), key)
			}
			p.HSet(ctx, ek, fieldTag, tag, fieldValue, value, fieldTS, ts.UnixMicro())
			p.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(ts.UnixMicro()), Member: key})
			p.SAdd(ctx, r.tagKey(tag), key)
			return nil
		})
		return err
	}, ek)
}

// watch 执行乐观事务，WATCH 冲突时重试。
func (r *Redis) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	const maxTries = 8
	for range maxTries {
		err := r.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		r.log.Debug(ctx, "redis transaction conflict, retrying", xlog.CacheKey(keys[0]))
	}
	return fmt.Errorf("xstore: redis transaction: %w", redis.TxFailedErr)
}

func (r *Redis) oldTag(ctx context.Context, c redis.Cmdable, ek string) (string, bool, error) {
	tag, err := c.HGet(ctx, ek, fieldTag).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tag, true, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := r.check(); err != nil {
		return nil, false, err
	}
	v, err := r.client.HGet(ctx, r.entryKey(key), fieldValue).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Redis) Inspect(ctx context.Context, key string) (Entry, bool, error) {
	if err := r.check(); err != nil {
		return Entry{}, false, err
	}
	m, err := r.client.HGetAll(ctx, r.entryKey(key)).Result()
	if err != nil {
		return Entry{}, false, err
	}
	if len(m) == 0 {
		return Entry{}, false, nil
	}
	e := Entry{Key: key, Tag: m[fieldTag], Value: []byte(m[fieldValue])}
	if micros, err := strconv.ParseInt(m[fieldTS], 10, 64); err == nil {
		e.Timestamp = time.UnixMicro(micros).UTC()
	}
	return e, true, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	if err := r.check(); err != nil {
		return false, err
	}
	n, err := r.client.Exists(ctx, r.entryKey(key)).Result()
	return n > 0, err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.check(); err != nil {
		return err
	}
	ek := r.entryKey(key)
	return r.watch(ctx, func(tx *redis.Tx) error {
		tag, ok, err := r.oldTag(ctx, tx, ek)
		if err != nil || !ok {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			r.unlink(ctx, p, key, tag)
			return nil
		})
		return err
	}, ek)
}

func (r *Redis) unlink(ctx context.Context, p redis.Pipeliner, key, tag string) {
	p.Del(ctx, r.entryKey(key))
	p.ZRem(ctx, r.indexKey(), key)
	p.SRem(ctx, r.tagKey(tag), key)
}

func (r *Redis) DeleteByTag(ctx context.Context, tag string) (int64, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	tk := r.tagKey(tag)
	var n int64
	err := r.watch(ctx, func(tx *redis.Tx) error {
		keys, err := tx.SMembers(ctx, tk).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for _, k := range keys {
				r.unlink(ctx, p, k, tag)
			}
			p.Del(ctx, tk)
			return nil
		})
		n = int64(len(keys))
		return err
	}, tk)
	return n, err
}

func (r *Redis) DeleteOlder(ctx context.Context, before time.Time) (int64, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	upper := "(" + strconv.FormatInt(cutoff(before).UnixMicro(), 10)

	var n int64
	err := r.watch(ctx, func(tx *redis.Tx) error {
		keys, err := tx.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{Min: "-inf", Max: upper}).Result()
		if err != nil || len(keys) == 0 {
			n = 0
			return err
		}
		tags := make([]*redis.StringCmd, len(keys))
		if _, err := tx.Pipelined(ctx, func(p redis.Pipeliner) error {
			for i, k := range keys {
				tags[i] = p.HGet(ctx, r.entryKey(k), fieldTag)
			}
			return nil
		}); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for i, k := range keys {
				r.unlink(ctx, p, k, tags[i].Val())
			}
			return nil
		})
		n = int64(len(keys))
		return err
	}, r.indexKey())
	return n, err
}

func (r *Redis) List(ctx context.Context, tag string) ([]string, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	keys, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return keys, nil
	}
	members, err := r.client.SMembers(ctx, r.tagKey(tag)).Result()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(keys, func(k string) bool { return !slices.Contains(members, k) }), nil
}

func (r *Redis) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.client.Close()
}
