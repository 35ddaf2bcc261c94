package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int // minimum response size to compress, in bytes
	CompressionLevel int // gzip level 1-9
}

// DefaultCompressionConfig returns the default compression configuration.
// Evaluation reports with full comparison matrices compress well, small
// responses are left alone.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: 6,
	}
}

// CompressionMiddleware provides gzip compression for JSON responses
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	return &CompressionMiddleware{
		config: config,
		stats:  &CompressionStats{},
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(io.Discard, config.CompressionLevel)
				return gz
			},
		},
	}
}

// Handler returns the gin middleware. Responses below MinSize are written
// uncompressed; the decision is made on the first write.
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gzw := &gzipResponseWriter{
			ResponseWriter: c.Writer,
			middleware:     cm,
		}
		c.Writer = gzw

		c.Next()

		gzw.close()
	}
}

// gzipResponseWriter wraps gin.ResponseWriter and starts compressing once
// the first large-enough write arrives
type gzipResponseWriter struct {
	gin.ResponseWriter
	middleware  *CompressionMiddleware
	gzipWriter  *gzip.Writer
	decided     bool
	compressing bool
	rawBytes    int64
}

func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	gzw.rawBytes += int64(len(data))

	if !gzw.decided {
		gzw.decided = true
		if len(data) >= gzw.middleware.config.MinSize {
			gzw.compressing = true
			gzw.Header().Set("Content-Encoding", "gzip")
			gzw.Header().Set("Vary", "Accept-Encoding")
			gzw.Header().Del("Content-Length")

			gz := gzw.middleware.pool.Get().(*gzip.Writer)
			gz.Reset(gzw.ResponseWriter)
			gzw.gzipWriter = gz
		}
	}

	if gzw.compressing {
		return gzw.gzipWriter.Write(data)
	}
	return gzw.ResponseWriter.Write(data)
}

func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

func (gzw *gzipResponseWriter) close() {
	if gzw.gzipWriter != nil {
		gzw.gzipWriter.Close()
		gzw.middleware.pool.Put(gzw.gzipWriter)
		gzw.gzipWriter = nil
	}

	gzw.middleware.stats.recordRequest(gzw.rawBytes, gzw.compressing)
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	mutex              sync.RWMutex
}

func (cs *CompressionStats) recordRequest(rawBytes int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += rawBytes
	if compressed {
		cs.CompressedRequests++
	}
}

// GetStats returns current compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	cm.stats.mutex.RLock()
	defer cm.stats.mutex.RUnlock()

	return map[string]interface{}{
		"total_requests":      cm.stats.TotalRequests,
		"compressed_requests": cm.stats.CompressedRequests,
		"total_bytes":         cm.stats.TotalBytes,
	}
}
