package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cacheHit"
)

// WithResponseMeta prepares the per-request meta map handlers add to the envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := ensureMeta(c)
		if id := requestid.Value(c); id != "" {
			meta["requestId"] = id
		}
		meta["startedAt"] = time.Now()
		c.Next()
	}
}

// SetCacheHit records whether the response body came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ExtractMeta returns the meta map with the elapsed processing time filled in.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := ensureMeta(c)
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if k == "startedAt" {
			if started, ok := v.(time.Time); ok {
				out["processingTimeMs"] = time.Since(started).Milliseconds()
			}
			continue
		}
		out[k] = v
	}
	return out
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
