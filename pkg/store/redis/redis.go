package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relab-tools/faultline/pkg/engine"
)

const resultsSet = "faultline:results"

// ResultCache memoizes analysis results keyed by a digest of the model
// document and the settings. Lookups are best effort: any Redis failure
// is logged and treated as a miss.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Key digests the model document and the settings into a cache key.
// Two identical analysis requests share a key.
func Key(document []byte, settings engine.Settings) string {
	h := sha256.New()
	h.Write(document)
	if blob, err := json.Marshal(settings); err == nil {
		h.Write(blob)
	}
	return fmt.Sprintf("faultline:result:%s", hex.EncodeToString(h.Sum(nil)))
}

func (c *ResultCache) Get(ctx context.Context, key string) (*engine.Result, bool) {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Failed to GET key %s: %v", key, err)
		}
		return nil, false
	}
	var result engine.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		log.Printf("Failed to unmarshal result from key %s: %v", key, err)
		return nil, false
	}
	return &result, true
}

func (c *ResultCache) Set(ctx context.Context, key string, result *engine.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("Failed to marshal result: %v", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("Failed to SET key %s: %v", key, err)
		return
	}
	if err := c.client.SAdd(ctx, resultsSet, key).Err(); err != nil {
		log.Printf("Failed to SADD key %s to set: %v", key, err)
	}
}

func (c *ResultCache) Clear(ctx context.Context) {
	keys, err := c.client.SMembers(ctx, resultsSet).Result()
	if err != nil {
		log.Printf("Failed to SMEMBERS %s during clear: %v", resultsSet, err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("Failed to DEL keys: %v", err)
		}
	}
	if err := c.client.Del(ctx, resultsSet).Err(); err != nil {
		log.Printf("Failed to DEL set %s: %v", resultsSet, err)
	}
}
