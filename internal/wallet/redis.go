package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const (
	defaultRedisPrefix = "edd_wallet:"
	insufficientReply  = "INSUFFICIENT_FUNDS"
	outOfRangeReply    = "OUT_OF_RANGE"
)

// maxRedisUnits is the largest integer a Lua number (a double) holds exactly.
var maxRedisUnits = decimal.NewFromInt(1 << 53)

// applyDeltaScript adds ARGV[1] minor units to KEYS[1]. ARGV[2] is "1" when
// negative balances are allowed.
const applyDeltaScript = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local nxt = cur + tonumber(ARGV[1])
if nxt > 9007199254740992 or nxt < -9007199254740992 then
  return redis.error_reply('OUT_OF_RANGE')
end
if ARGV[2] ~= '1' and nxt < 0 then
  return redis.error_reply('INSUFFICIENT_FUNDS')
end
redis.call('SET', KEYS[1], string.format('%d', nxt))
return nxt
`

// RedisAdapter keeps balances as integer minor units in Redis, the store the
// EDD wallet integration runs on. Deltas are applied by a Lua script, which
// Redis executes atomically.
type RedisAdapter struct {
	rdb           redis.Cmdable
	prefix        string
	places        int32
	allowNegative bool
}

// NewRedisAdapter stores amounts with the given number of decimal places.
func NewRedisAdapter(rdb redis.Cmdable, places int32, allowNegative bool) *RedisAdapter {
	return &RedisAdapter{rdb: rdb, prefix: defaultRedisPrefix, places: places, allowNegative: allowNegative}
}

func (a *RedisAdapter) key(userID uint64) string {
	return fmt.Sprintf("%s%d", a.prefix, userID)
}

func (a *RedisAdapter) GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	units, err := a.rdb.Get(ctx, a.key(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(units, -a.places), nil
}

func (a *RedisAdapter) ApplyDelta(ctx context.Context, userID uint64, delta decimal.Decimal) (decimal.Decimal, error) {
	shifted := delta.Shift(a.places)
	if !shifted.Equal(shifted.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedPrecision, delta)
	}
	if shifted.Abs().GreaterThan(maxRedisUnits) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAmountOutOfRange, delta)
	}
	allow := "0"
	if a.allowNegative {
		allow = "1"
	}
	units, err := a.rdb.Eval(ctx, applyDeltaScript, []string{a.key(userID)},
		shifted.StringFixed(0), allow).Int64()
	if err != nil {
		if strings.Contains(err.Error(), insufficientReply) {
			return decimal.Zero, ErrInsufficientFunds
		}
		if strings.Contains(err.Error(), outOfRangeReply) {
			return decimal.Zero, ErrAmountOutOfRange
		}
		return decimal.Zero, err
	}
	return decimal.New(units, -a.places), nil
}

// Ready pings Redis.
func (a *RedisAdapter) Ready(ctx context.Context) error {
	return a.rdb.Ping(ctx).Err()
}
