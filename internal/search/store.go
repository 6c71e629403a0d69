package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoIndex reports that the named index has not been created yet.
var ErrNoIndex = errors.New("index does not exist")

// ErrCacheMiss reports an absent cache key.
var ErrCacheMiss = errors.New("cache miss")

// ErrBadReply reports a search reply the client could not parse; the planner
// treats it like any other index failure and falls back to the source store.
var ErrBadReply = errors.New("malformed search reply")

type FieldDef struct {
	Name     string
	Type     string // TEXT | NUMERIC | TAG
	Weight   float64
	Sortable bool
	NoStem   bool
}

type Doc struct {
	Key    string
	Fields map[string]any
}

type Suggestion struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

type SearchOptions struct {
	Offset   int
	Limit    int
	SortBy   string
	SortDesc bool
	Return   string // single hash field to return per hit
}

// IndexStore is the contract the sync, schema, planner and cache components
// need from the external index engine.
type IndexStore interface {
	IndexFields(ctx context.Context, name string) ([]string, error)
	CreateIndex(ctx context.Context, name, keyPrefix string, fields []FieldDef) error
	DropIndex(ctx context.Context, name string) error

	PutDocs(ctx context.Context, docs []Doc) error
	DeleteDoc(ctx context.Context, key string) error
	Search(ctx context.Context, index, query string, opt SearchOptions) (int64, []string, error)

	AddSuggestion(ctx context.Context, dict, text string, score float64, payload string) error
	DeleteSuggestion(ctx context.Context, dict, text string) error
	ClearSuggestions(ctx context.Context, dict string) error
	Suggest(ctx context.Context, dict, prefix string, max int) ([]Suggestion, error)

	CacheGet(ctx context.Context, key string) (string, error)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) error

	TopScores(ctx context.Context, key string, limit int) ([]string, error)
	BumpScore(ctx context.Context, key, member string, by float64) error
}

// RedisStore implements IndexStore against a RediSearch-enabled Redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	// RESP2 keeps FT.* replies in the flat array shape the parsers below expect.
	return &RedisStore{rdb: redis.NewClient(&redis.Options{Addr: addr, Protocol: 2})}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) IndexFields(ctx context.Context, name string) ([]string, error) {
	res, err := s.rdb.Do(ctx, "FT.INFO", name).Result()
	if err != nil {
		if isUnknownIndexErr(err) {
			return nil, ErrNoIndex
		}
		return nil, err
	}
	reply, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: FT.INFO", ErrBadReply)
	}
	for i := 0; i+1 < len(reply); i += 2 {
		k, _ := reply[i].(string)
		if k != "attributes" && k != "fields" {
			continue
		}
		attrs, ok := reply[i+1].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: FT.INFO attributes", ErrBadReply)
		}
		var names []string
		for _, a := range attrs {
			attr, ok := a.([]any)
			if !ok || len(attr) == 0 {
				continue
			}
			// attribute entries are flat key/value lists led by "identifier";
			// legacy "fields" replies lead with the bare field name.
			if first, ok := attr[0].(string); ok && first != "identifier" {
				names = append(names, first)
				continue
			}
			for j := 0; j+1 < len(attr); j += 2 {
				if key, _ := attr[j].(string); key == "identifier" {
					if v, ok := attr[j+1].(string); ok {
						names = append(names, v)
					}
				}
			}
		}
		return names, nil
	}
	return nil, fmt.Errorf("%w: FT.INFO missing attributes", ErrBadReply)
}

func isUnknownIndexErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

func (s *RedisStore) CreateIndex(ctx context.Context, name, keyPrefix string, fields []FieldDef) error {
	args := []any{"FT.CREATE", name, "ON", "HASH", "PREFIX", "1", keyPrefix, "SCHEMA"}
	for _, f := range fields {
		args = append(args, f.Name, f.Type)
		if f.NoStem {
			args = append(args, "NOSTEM")
		}
		if f.Weight > 0 && f.Weight != 1 {
			args = append(args, "WEIGHT", fmt.Sprintf("%g", f.Weight))
		}
		if f.Sortable {
			args = append(args, "SORTABLE")
		}
	}
	err := s.rdb.Do(ctx, args...).Err()
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		// Concurrent creation race: someone else won, which is fine.
		return nil
	}
	return err
}

func (s *RedisStore) DropIndex(ctx context.Context, name string) error {
	return s.rdb.Do(ctx, "FT.DROPINDEX", name).Err()
}

func (s *RedisStore) PutDocs(ctx context.Context, docs []Doc) error {
	pipe := s.rdb.Pipeline()
	for _, d := range docs {
		pipe.HSet(ctx, d.Key, d.Fields)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeleteDoc(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisStore) Search(ctx context.Context, index, query string, opt SearchOptions) (int64, []string, error) {
	args := []any{"FT.SEARCH", index, query}
	if opt.SortBy != "" {
		dir := "ASC"
		if opt.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", opt.SortBy, dir)
	}
	if opt.Return != "" {
		args = append(args, "RETURN", "1", opt.Return)
	}
	args = append(args, "LIMIT", opt.Offset, opt.Limit)

	res, err := s.rdb.Do(ctx, args...).Result()
	if err != nil {
		return 0, nil, err
	}
	reply, ok := res.([]any)
	if !ok || len(reply) == 0 {
		return 0, nil, fmt.Errorf("%w: FT.SEARCH", ErrBadReply)
	}
	total, ok := toInt64(reply[0])
	if !ok {
		return 0, nil, fmt.Errorf("%w: FT.SEARCH total", ErrBadReply)
	}
	var values []string
	// reply: total, key1, fields1, key2, fields2, ...
	for i := 1; i+1 < len(reply); i += 2 {
		fields, ok := reply[i+1].([]any)
		if !ok {
			return 0, nil, fmt.Errorf("%w: FT.SEARCH document", ErrBadReply)
		}
		for j := 0; j+1 < len(fields); j += 2 {
			if name, _ := fields[j].(string); name == opt.Return {
				if v, ok := fields[j+1].(string); ok {
					values = append(values, v)
				}
			}
		}
	}
	return total, values, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func (s *RedisStore) AddSuggestion(ctx context.Context, dict, text string, score float64, payload string) error {
	return s.rdb.Do(ctx, "FT.SUGADD", dict, text, score, "PAYLOAD", payload).Err()
}

func (s *RedisStore) DeleteSuggestion(ctx context.Context, dict, text string) error {
	return s.rdb.Do(ctx, "FT.SUGDEL", dict, text).Err()
}

func (s *RedisStore) ClearSuggestions(ctx context.Context, dict string) error {
	return s.rdb.Del(ctx, dict).Err()
}

func (s *RedisStore) Suggest(ctx context.Context, dict, prefix string, max int) ([]Suggestion, error) {
	res, err := s.rdb.Do(ctx, "FT.SUGGET", dict, prefix, "FUZZY", "MAX", max, "WITHPAYLOADS").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	reply, ok := res.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: FT.SUGGET", ErrBadReply)
	}
	// reply interleaves text and payload
	out := make([]Suggestion, 0, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		text, _ := reply[i].(string)
		payload, _ := reply[i+1].(string)
		if text != "" {
			out = append(out, Suggestion{Text: text, Payload: payload})
		}
	}
	return out, nil
}

func (s *RedisStore) CacheGet(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (s *RedisStore) CacheSet(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) TopScores(ctx context.Context, key string, limit int) ([]string, error) {
	return s.rdb.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
}

func (s *RedisStore) BumpScore(ctx context.Context, key, member string, by float64) error {
	return s.rdb.ZIncrBy(ctx, key, by, member).Err()
}
