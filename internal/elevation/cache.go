package elevation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/stuartshay/path-worker/internal/geodesy"
)

const cacheKeyPrefix = "elevation:v1:"

// CachingProvider stores each answered chunk in Redis keyed by a hash of
// its coordinates. Cache failures are logged and never fail a lookup.
type CachingProvider struct {
	next Provider
	rdb  redis.Cmdable
	ttl  time.Duration
}

// NewCachingProvider wraps next with a Redis cache. A ttl of zero keeps
// entries forever.
func NewCachingProvider(next Provider, rdb redis.Cmdable, ttl time.Duration) *CachingProvider {
	return &CachingProvider{next: next, rdb: rdb, ttl: ttl}
}

// Elevations implements Provider
func (p *CachingProvider) Elevations(ctx context.Context, coords []geodesy.Coordinate, opts Options) ([]Result, error) {
	key := cacheKey(coords, opts)

	cached, err := p.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []Result
		if jsonErr := json.Unmarshal(cached, &results); jsonErr == nil && len(results) == len(coords) {
			log.Debug().Str("key", key).Int("points", len(coords)).Msg("Elevation cache hit")
			return results, nil
		}
		log.Warn().Str("key", key).Msg("Discarding unreadable elevation cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Msg("Elevation cache read failed")
	}

	results, err := p.next.Elevations(ctx, coords, opts)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(results)
	if err == nil {
		err = p.rdb.Set(ctx, key, payload, p.ttl).Err()
	}
	if err != nil {
		log.Warn().Err(err).Msg("Elevation cache write failed")
	}

	return results, nil
}

// cacheKey hashes the exact coordinate bits and options of a chunk
func cacheKey(coords []geodesy.Coordinate, opts Options) string {
	h := sha256.New()
	var buf [8]byte
	for _, c := range coords {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.Lng))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.Lat))
		h.Write(buf[:])
	}
	if opts.Interpolate {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
