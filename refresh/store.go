package refresh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when no live record matches a token value.
var ErrTokenNotFound = errors.New("refresh token not found")

// ErrTokenExpired is returned when the matching record's expiry has passed.
var ErrTokenExpired = errors.New("refresh token expired")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusExpired  int64 = 1
	rotateStatusRotated  int64 = 2
	rotateStatusCorrupt  int64 = 3
)

const minTokenTTL = time.Millisecond

const recordLuaHelpers = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function parse_record(data)
  local version = string.byte(data, 1)
  if version ~= 1 then
    return nil
  end

  local idx = 2
  local acct_len = string.byte(data, idx)
  if not acct_len or acct_len == 0 then
    return nil
  end
  idx = idx + 1
  if #data < idx + acct_len - 1 then
    return nil
  end
  local account_id = string.sub(data, idx, idx + acct_len - 1)
  idx = idx + acct_len

  local tid_len = string.byte(data, idx)
  if not tid_len or tid_len == 0 then
    return nil
  end
  idx = idx + 1 + tid_len

  if #data < idx + 7 then
    return nil
  end
  local expires_at = read_be64(data, idx)
  if not expires_at then
    return nil
  end

  return {
    account_id = account_id,
    expires_at = expires_at
  }
end
`

const addScript = `
local account_key = KEYS[1]
local token_key = KEYS[2]
local digest = ARGV[1]
local blob = ARGV[2]
local expires_at = tonumber(ARGV[3])
local now_unix = tonumber(ARGV[4])
local max_count = tonumber(ARGV[5])
local token_prefix = ARGV[6]
local ttl_ms = tonumber(ARGV[7])

local stale = redis.call("ZRANGEBYSCORE", account_key, "-inf", now_unix)
for _, d in ipairs(stale) do
  redis.call("DEL", token_prefix .. d)
end
if #stale > 0 then
  redis.call("ZREMRANGEBYSCORE", account_key, "-inf", now_unix)
end

local evicted = 0
if max_count > 0 then
  while redis.call("ZCARD", account_key) >= max_count do
    local oldest = redis.call("ZRANGE", account_key, 0, 0)
    if #oldest == 0 then
      break
    end
    redis.call("DEL", token_prefix .. oldest[1])
    redis.call("ZREM", account_key, oldest[1])
    evicted = evicted + 1
  end
end

redis.call("SET", token_key, blob, "PX", ttl_ms)
redis.call("ZADD", account_key, expires_at, digest)
redis.call("PEXPIRE", account_key, ttl_ms)

return evicted
`

var addLua = redis.NewScript(addScript)

const rotateScript = recordLuaHelpers + `
local old_key = KEYS[1]
local old_digest = ARGV[1]
local account_prefix = ARGV[2]
local token_prefix = ARGV[3]
local new_digest = ARGV[4]
local new_blob = ARGV[5]
local new_expires = tonumber(ARGV[6])
local now_unix = tonumber(ARGV[7])
local ttl_ms = tonumber(ARGV[8])

local data = redis.call("GET", old_key)
if not data then
  return {0}
end

local parsed = parse_record(data)
if not parsed then
  redis.call("DEL", old_key)
  return {3}
end

local account_key = account_prefix .. parsed.account_id

if parsed.expires_at <= now_unix then
  redis.call("DEL", old_key)
  redis.call("ZREM", account_key, old_digest)
  return {1}
end

redis.call("ZREMRANGEBYSCORE", account_key, "-inf", now_unix)
local devices = redis.call("ZCARD", account_key)

redis.call("DEL", old_key)
redis.call("ZREM", account_key, old_digest)
redis.call("SET", token_prefix .. new_digest, new_blob, "PX", ttl_ms)
redis.call("ZADD", account_key, new_expires, new_digest)
redis.call("PEXPIRE", account_key, ttl_ms)

return {2, data, devices}
`

var rotateLua = redis.NewScript(rotateScript)

const removeScript = recordLuaHelpers + `
local token_key = KEYS[1]
local digest = ARGV[1]
local account_prefix = ARGV[2]

local data = redis.call("GET", token_key)
if not data then
  return 0
end

redis.call("DEL", token_key)

local parsed = parse_record(data)
if parsed then
  redis.call("ZREM", account_prefix .. parsed.account_id, digest)
end

return 1
`

var removeLua = redis.NewScript(removeScript)

// Store keeps refresh-token records in Redis. Each record lives under a
// per-token key with a millisecond TTL; a per-account sorted set indexes the
// account's live digests with expiry as score, which makes capacity eviction
// a ZRANGE of the lowest-scoring member. All multi-key transitions run as
// Lua scripts so concurrent callers on one account serialize inside Redis.
type Store struct {
	redis         redis.UniversalClient
	prefix        string
	maxPerAccount int
}

// NewStore creates a [Store] on the given Redis client. prefix namespaces
// every key; maxPerAccount caps live tokens per account, 0 for no cap.
func NewStore(redis redis.UniversalClient, prefix string, maxPerAccount int) *Store {
	return &Store{
		redis:         redis,
		prefix:        prefix,
		maxPerAccount: maxPerAccount,
	}
}

func (s *Store) tokenPrefix() string {
	return s.prefix + ":t:"
}

func (s *Store) accountPrefix() string {
	return s.prefix + ":a:"
}

func (s *Store) tokenKey(digest string) string {
	return s.tokenPrefix() + digest
}

func (s *Store) accountKey(accountID string) string {
	return s.accountPrefix() + accountID
}

// Add inserts a freshly minted token. When the account is at capacity the
// tokens closest to expiry are evicted to make room; the count of evictions
// is returned. Expired members are purged before the capacity check, so a
// lapsed token never causes an eviction.
func (s *Store) Add(ctx context.Context, r *Record, value string) (evicted int, err error) {
	blob, err := Encode(r)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	ttl := r.Expires.Sub(now)
	if ttl < minTokenTTL {
		return 0, ErrTokenExpired
	}

	digest := Digest(value)
	result, err := addLua.Run(
		ctx,
		s.redis,
		[]string{s.accountKey(r.AccountID), s.tokenKey(digest)},
		digest,
		blob,
		r.Expires.Unix(),
		now.Unix(),
		s.maxPerAccount,
		s.tokenPrefix(),
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return int(result), nil
}

// Lookup resolves a raw token value to its record without mutating anything.
// A record past its expiry is still returned so callers can order their own
// checks; redeeming it is Rotate's job to refuse.
func (s *Store) Lookup(ctx context.Context, value string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(Digest(value))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return Decode(data)
}

// Rotate atomically retires the old token and installs its replacement.
// Exactly one of any number of concurrent calls presenting the same old
// value succeeds; the rest see [ErrTokenNotFound]. devices is the account's
// live token count measured before the old token is removed.
func (s *Store) Rotate(ctx context.Context, oldValue string, next *Record, nextValue string) (old *Record, devices int, err error) {
	blob, err := Encode(next)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	ttl := next.Expires.Sub(now)
	if ttl < minTokenTTL {
		return nil, 0, ErrTokenExpired
	}

	oldDigest := Digest(oldValue)
	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(oldDigest)},
		oldDigest,
		s.accountPrefix(),
		s.tokenPrefix(),
		Digest(nextValue),
		blob,
		next.Expires.Unix(),
		now.Unix(),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, 0, fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, 0, fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, 0, ErrTokenNotFound
	case rotateStatusExpired:
		return nil, 0, ErrTokenExpired
	case rotateStatusCorrupt:
		return nil, 0, ErrRecordCorrupt
	case rotateStatusRotated:
		if len(parts) < 3 {
			return nil, 0, fmt.Errorf("%w: missing rotate script payload", ErrRedisUnavailable)
		}

		var oldBlob []byte
		switch v := parts[1].(type) {
		case string:
			oldBlob = []byte(v)
		case []byte:
			oldBlob = v
		default:
			return nil, 0, fmt.Errorf("%w: invalid rotate script payload", ErrRedisUnavailable)
		}
		count, ok := parts[2].(int64)
		if !ok {
			return nil, 0, fmt.Errorf("%w: invalid rotate script device count", ErrRedisUnavailable)
		}

		oldRecord, decErr := Decode(oldBlob)
		if decErr != nil {
			return nil, 0, decErr
		}
		return oldRecord, int(count), nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// Remove deletes a token and its index entry. Removing an unknown value is
// not an error; removed reports whether anything existed.
func (s *Store) Remove(ctx context.Context, value string) (removed bool, err error) {
	digest := Digest(value)
	result, err := removeLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(digest)},
		digest,
		s.accountPrefix(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return result == 1, nil
}

// Count returns the number of unexpired tokens indexed for an account.
func (s *Store) Count(ctx context.Context, accountID string) (int, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	count, err := s.redis.ZCount(ctx, s.accountKey(accountID), "("+now, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// SweepExpired walks every account index and drops members whose expiry has
// passed. Token keys self-expire via their TTL; the sweep keeps the indexes
// from accumulating dead digests on idle accounts. Intended for a periodic
// background job, not request paths.
func (s *Store) SweepExpired(ctx context.Context) (removed int64, err error) {
	pattern := s.accountPrefix() + "*"
	nowUnix := time.Now().Unix()

	var cursor uint64
	for {
		keys, next, scanErr := s.redis.Scan(ctx, cursor, pattern, 100).Result()
		if scanErr != nil {
			return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, scanErr)
		}

		for _, key := range keys {
			n, remErr := s.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(nowUnix, 10)).Result()
			if remErr != nil {
				return removed, fmt.Errorf("%w: %v", ErrRedisUnavailable, remErr)
			}
			removed += n
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
