package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
		meta := ensureMeta(c)
		if _, exists := meta["processing_time_ms"]; !exists {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the dashboard payload came from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetMeta stores an arbitrary value in the response meta block.
func SetMeta(c *gin.Context, key string, value interface{}) {
	ensureMeta(c)[key] = value
}

// ExtractMeta returns a copy of the metadata stored on the context with the elapsed
// time since start added, or nil when nothing was recorded and start is zero.
func ExtractMeta(c *gin.Context, start time.Time) map[string]interface{} {
	var stored map[string]interface{}
	if c != nil {
		if meta, exists := c.Get(responseMetaKey); exists {
			stored, _ = meta.(map[string]interface{})
		}
	}
	if stored == nil && start.IsZero() {
		return nil
	}
	out := make(map[string]interface{}, len(stored)+1)
	for k, v := range stored {
		out[k] = v
	}
	if !start.IsZero() {
		out["processing_time_ms"] = time.Since(start).Milliseconds()
	}
	return out
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
