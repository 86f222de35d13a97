package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// SetCacheHit records whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ResponseMeta returns the metadata collected for the current response, or nil.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta := ResponseMeta(c); meta != nil {
		return meta
	}
	meta := make(map[string]interface{})
	c.Set(responseMetaKey, meta)
	return meta
}
