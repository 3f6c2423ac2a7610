package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	// Level is the gzip compression level.
	Level int
	// CompressibleTypes lists content type prefixes that benefit from
	// compression. Stored media (JPEG, PNG, MP4) is already compressed
	// and is deliberately absent.
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults for compression.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		Level: gzip.DefaultCompression,
		CompressibleTypes: []string{
			"text/html",
			"text/css",
			"text/plain",
			"application/json",
			"application/javascript",
			"image/svg+xml",
		},
	}
}

// gzipWriterPool reduces allocations by reusing gzip writers.
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter compresses the body once the first Write reveals a
// compressible content type.
type gzipResponseWriter struct {
	http.ResponseWriter
	config      CompressionConfig
	gz          *gzip.Writer
	wroteHeader bool
	compress    bool
	statusCode  int
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.statusCode = code

	contentType := w.Header().Get("Content-Type")
	w.compress = w.compressible(contentType) && w.Header().Get("Content-Encoding") == ""
	if w.compress {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.gz = gzipWriterPool.Get().(*gzip.Writer)
		w.gz.Reset(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.compress {
		return w.gz.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

func (w *gzipResponseWriter) close() {
	if w.gz != nil {
		w.gz.Close()
		gzipWriterPool.Put(w.gz)
		w.gz = nil
	}
}

func (w *gzipResponseWriter) compressible(contentType string) bool {
	for _, t := range w.config.CompressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Compression returns a middleware that gzip-compresses compressible
// responses for clients that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipResponseWriter{ResponseWriter: w, config: config}
			defer gw.close()

			next.ServeHTTP(gw, r)
		})
	}
}
