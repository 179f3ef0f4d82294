package http

import (
	"bytes"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// captureWriter captures the response body while forwarding to the client.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// CacheMiddleware serves successful GET responses from redis for ttl.
// With a nil client it is a pass-through. Cache failures only cost the
// cache, never the request.
func CacheMiddleware(rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) gin.HandlerFunc {
	if rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method != stdhttp.MethodGet {
			c.Next()
			return
		}
		key := "cache:" + c.Request.URL.RequestURI()
		ctx := c.Request.Context()

		if body, err := rdb.Get(ctx, key).Bytes(); err == nil {
			c.Data(stdhttp.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		} else if err != redis.Nil {
			logger.Debug().Err(err).Str("key", key).Msg("cache read failed")
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		if cw.Status() == stdhttp.StatusOK && cw.buf.Len() > 0 {
			if err := rdb.Set(ctx, key, cw.buf.Bytes(), ttl).Err(); err != nil {
				logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
			}
		}
	}
}
