package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

// responseMeta collects per-request facts that handlers echo in the envelope.
type responseMeta struct {
	started  time.Time
	cacheHit *bool
}

// WithResponseMeta starts the request clock and prepares metadata storage.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the calendar projection came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if meta := metaFromContext(c); meta != nil {
		meta.cacheHit = &hit
	}
}

// ExtractMeta renders the metadata for the response envelope. It is called
// while the handler is still writing, so the elapsed time is taken here.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFromContext(c)
	if meta == nil {
		return nil
	}
	out := map[string]interface{}{
		"processing_time_ms": time.Since(meta.started).Milliseconds(),
	}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	return out
}

func metaFromContext(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	value, ok := c.Get(responseMetaKey)
	if !ok {
		return nil
	}
	meta, _ := value.(*responseMeta)
	return meta
}
