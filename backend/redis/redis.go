// Package redis implements backend.Backend on Redis with the JSON and
// Search modules: documents are RedisJSON values, field maps are hashes,
// and secondary indexes are RediSearch indexes over the cache's key
// prefix.
package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/osvaldt/recache/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ backend.Backend = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this backend exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (b *Redis) PutDocument(ctx context.Context, key string, value any, ttl time.Duration) error {
	_, err := b.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.JSONSet(ctx, key, "$", value)
		applyTTL(ctx, p, key, ttl)
		return nil
	})
	return err
}

func (b *Redis) GetDocument(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.rdb.JSONGet(ctx, key).Result()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if res == "" {
		return nil, false, nil
	}
	return []byte(res), true, nil
}

func (b *Redis) PutFields(ctx context.Context, key string, value any, ttl time.Duration) error {
	_, err := b.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key, value) // struct fields via `redis` tags
		applyTTL(ctx, p, key, ttl)
		return nil
	})
	return err
}

func (b *Redis) GetFields(ctx context.Context, key string, dest any) (bool, error) {
	cmd := b.rdb.HGetAll(ctx, key)
	m, err := cmd.Result()
	if err != nil {
		return false, err
	}
	if len(m) == 0 {
		return false, nil // absent or expired
	}
	if err := cmd.Scan(dest); err != nil {
		return false, &backend.DecodeError{Key: key, Err: err}
	}
	return true, nil
}

func (b *Redis) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return b.rdb.Del(ctx, keys...).Result()
}

func (b *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := b.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func (b *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := b.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (b *Redis) CreateIndex(ctx context.Context, spec backend.IndexSpec) error {
	opts := &goredis.FTCreateOptions{Prefix: []any{spec.Prefix}}
	if spec.Kind == backend.IndexJSON {
		opts.OnJSON = true
	} else {
		opts.OnHash = true
	}

	schema := make([]*goredis.FieldSchema, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		fs := &goredis.FieldSchema{FieldName: f.Name}
		if spec.Kind == backend.IndexJSON {
			fs.FieldName = "$." + f.Name
			fs.As = f.Name
		}
		switch f.Type {
		case backend.FieldText:
			fs.FieldType = goredis.SearchFieldTypeText
		case backend.FieldNumeric:
			fs.FieldType = goredis.SearchFieldTypeNumeric
			fs.Sortable = true
		default:
			fs.FieldType = goredis.SearchFieldTypeTag
		}
		schema = append(schema, fs)
	}
	return b.rdb.FTCreate(ctx, spec.Name, opts, schema...).Err()
}

func (b *Redis) IndexFields(ctx context.Context, name string) ([]backend.Field, bool, error) {
	res, err := b.rdb.FTInfo(ctx, name).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	fields := make([]backend.Field, 0, len(res.Attributes))
	for _, a := range res.Attributes {
		f := backend.Field{Name: a.Attribute}
		switch strings.ToUpper(a.Type) {
		case "TEXT":
			f.Type = backend.FieldText
		case "NUMERIC":
			f.Type = backend.FieldNumeric
		default:
			f.Type = backend.FieldTag
		}
		fields = append(fields, f)
	}
	return fields, true, nil
}

func (b *Redis) DropIndex(ctx context.Context, name string) error {
	err := b.rdb.FTDropIndex(ctx, name).Err()
	if isUnknownIndex(err) {
		return backend.ErrUnknownIndex
	}
	return err
}

func (b *Redis) Search(ctx context.Context, index string, q backend.Query, opts backend.SearchOptions) (*backend.SearchResult, error) {
	ftOpts := &goredis.FTSearchOptions{
		NoContent:   true, // hits are resolved by key through the bound encoding
		LimitOffset: opts.Offset,
		Limit:       opts.Limit,
	}
	if opts.SortBy != "" {
		ftOpts.SortBy = []goredis.FTSearchSortBy{{
			FieldName: opts.SortBy,
			Asc:       opts.Ascending,
			Desc:      !opts.Ascending,
		}}
	}

	res, err := b.rdb.FTSearchWithArgs(ctx, index, searchQuery(q), ftOpts).Result()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, backend.ErrUnknownIndex
		}
		return nil, err
	}
	out := &backend.SearchResult{Total: int64(res.Total)}
	for _, d := range res.Docs {
		out.Keys = append(out.Keys, d.ID)
	}
	return out, nil
}

// Close releases the underlying redis client only when this backend owns
// it. Safe to call multiple times; repeated calls become no-ops.
func (b *Redis) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func applyTTL(ctx context.Context, p goredis.Pipeliner, key string, ttl time.Duration) {
	if ttl > 0 {
		p.Expire(ctx, key, ttl)
	} else {
		// a re-save with no TTL must clear any previous deadline
		p.Persist(ctx, key)
	}
}

func searchQuery(q backend.Query) string {
	switch q.Match {
	case backend.MatchExact:
		return "@" + q.Field + ":{" + escapeTag(q.Term) + "}"
	case backend.MatchText:
		return "@" + q.Field + ":(" + q.Term + ")"
	default:
		return "*"
	}
}

// escapeTag backslash-escapes RediSearch tag syntax so arbitrary values
// stay literal inside @field:{...}.
func escapeTag(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(" ,.<>{}[]\"':;!@#$%^&*()-+=~|/\\", r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isUnknownIndex(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}
