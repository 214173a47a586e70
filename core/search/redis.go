package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Hamstertjie/Learn-With-Hamster-App/page"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisIndex is an inverted index kept in redis. Per index it stores:
//
//	<prefix>:<index>:ids                   set of every document id
//	<prefix>:<index>:doc:<id>              JSON payload
//	<prefix>:<index>:term:<field>:<token>  set of ids containing token in field
//	<prefix>:<index>:terms:<id>            set of the term keys of a document
type RedisIndex struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisIndex(rdb redis.UniversalClient, prefix string) *RedisIndex {
	return &RedisIndex{rdb: rdb, prefix: prefix}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (x *RedisIndex) key(index string, parts ...string) string {
	return x.prefix + ":" + index + ":" + strings.Join(parts, ":")
}

func (x *RedisIndex) termKey(index string, t term) string {
	return x.key(index, "term", t.field, t.token)
}

func (x *RedisIndex) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := x.rdb.Watch(ctx, fn, keys...)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return unavailable(err)
	}
	return unavailable(fmt.Errorf("gave up after %d conflicting updates", maxTxRetries))
}

// Put writes or overwrites a document, dropping the terms of the previous
// version.
func (x *RedisIndex) Put(ctx context.Context, index string, doc Document) error {
	id := strconv.FormatInt(doc.ID, 10)
	termsKey := x.key(index, "terms", id)

	terms := doc.terms()
	keys := make([]any, 0, len(terms))
	for _, t := range terms {
		keys = append(keys, x.termKey(index, t))
	}

	fn := func(tx *redis.Tx) error {
		old, err := tx.SMembers(ctx, termsKey).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range old {
				pipe.SRem(ctx, k, id)
			}
			pipe.Del(ctx, termsKey)
			pipe.Set(ctx, x.key(index, "doc", id), []byte(doc.Source), 0)
			pipe.SAdd(ctx, x.key(index, "ids"), id)
			for _, k := range keys {
				pipe.SAdd(ctx, k.(string), id)
			}
			if len(keys) > 0 {
				pipe.SAdd(ctx, termsKey, keys...)
			}
			return nil
		})
		return err
	}

	return x.watch(ctx, fn, termsKey)
}

func (x *RedisIndex) Delete(ctx context.Context, index string, id int64) error {
	sid := strconv.FormatInt(id, 10)
	termsKey := x.key(index, "terms", sid)

	fn := func(tx *redis.Tx) error {
		old, err := tx.SMembers(ctx, termsKey).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range old {
				pipe.SRem(ctx, k, sid)
			}
			pipe.Del(ctx, termsKey, x.key(index, "doc", sid))
			pipe.SRem(ctx, x.key(index, "ids"), sid)
			return nil
		})
		return err
	}

	return x.watch(ctx, fn, termsKey)
}

func (x *RedisIndex) Count(ctx context.Context, index string) (int64, error) {
	n, err := x.rdb.SCard(ctx, x.key(index, "ids")).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func (x *RedisIndex) IDs(ctx context.Context, index string) ([]int64, error) {
	members, err := x.rdb.SMembers(ctx, x.key(index, "ids")).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	return parseIDs(members)
}

func (x *RedisIndex) Ping(ctx context.Context) error {
	if err := x.rdb.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (x *RedisIndex) Search(ctx context.Context, index string, q Query, req page.Request) (page.Page[json.RawMessage], error) {
	terms := q.terms()

	cmds := make(map[term]*redis.StringSliceCmd, len(terms))
	var all *redis.StringSliceCmd
	_, err := x.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range terms {
			cmds[t] = pipe.SMembers(ctx, x.termKey(index, t))
		}
		if q.needsUniverse() {
			all = pipe.SMembers(ctx, x.key(index, "ids"))
		}
		return nil
	})
	if err != nil {
		return page.Page[json.RawMessage]{}, unavailable(err)
	}

	sets := make(map[term]idSet, len(cmds))
	for t, cmd := range cmds {
		ids, err := parseIDs(cmd.Val())
		if err != nil {
			return page.Page[json.RawMessage]{}, err
		}
		sets[t] = toSet(ids)
	}
	var universe idSet
	if all != nil {
		ids, err := parseIDs(all.Val())
		if err != nil {
			return page.Page[json.RawMessage]{}, err
		}
		universe = toSet(ids)
	}

	ids := rank(match(q, sets, universe))
	total := int64(len(ids))

	var payloads map[int64]json.RawMessage
	if len(req.Sort) > 0 {
		payloads, err = x.payloads(ctx, index, ids)
		if err != nil {
			return page.Page[json.RawMessage]{}, err
		}
		sortByFields(ids, decodeAll(payloads), req.Sort)
	}

	ids = window(ids, req)

	if payloads == nil {
		payloads, err = x.payloads(ctx, index, ids)
		if err != nil {
			return page.Page[json.RawMessage]{}, err
		}
	}

	content := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		// A document deleted after matching is skipped.
		if p, ok := payloads[id]; ok {
			content = append(content, p)
		}
	}

	return page.New(content, req, total), nil
}

func (x *RedisIndex) payloads(ctx context.Context, index string, ids []int64) (map[int64]json.RawMessage, error) {
	out := make(map[int64]json.RawMessage, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = x.key(index, "doc", strconv.FormatInt(id, 10))
	}

	vals, err := x.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[ids[i]] = json.RawMessage(s)
		}
	}
	return out, nil
}

func window(ids []int64, req page.Request) []int64 {
	if req.Unpaged {
		return ids
	}
	from := req.Offset()
	if from < 0 || from >= len(ids) {
		return nil
	}
	to := from + req.Size
	if to > len(ids) {
		to = len(ids)
	}
	return ids[from:to]
}

func decodeAll(payloads map[int64]json.RawMessage) map[int64]map[string]any {
	out := make(map[int64]map[string]any, len(payloads))
	for id, raw := range payloads {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err == nil {
			out[id] = m
		}
	}
	return out
}

func parseIDs(members []string) ([]int64, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt id %q in search index: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func toSet(ids []int64) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
