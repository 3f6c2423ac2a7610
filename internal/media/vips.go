package media

import (
	"fmt"
	"sync"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitMutex   sync.Mutex
	vipsInitialized bool
)

// InitVips initializes the libvips library used for HEIC decoding.
// Call once at startup; safe to call again.
func InitVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return
	}

	// Route vips messages through our logger, keeping its verbosity in
	// line with the configured level.
	vipsLogLevel := vips.LogLevelWarning
	if logging.IsDebugEnabled() {
		vipsLogLevel = vips.LogLevelInfo
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLogLevel)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// NormalizeHEIC decodes a HEIC container and re-encodes its pixel data
// as JPEG. The caller stores the result under a fresh .jpg identity.
// Decode or encode failures are recoverable: the upload pipeline skips
// the file and continues with the rest of the batch.
func NormalizeHEIC(data []byte) ([]byte, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}
	defer ref.Close()

	params := vips.NewJpegExportParams()
	params.Quality = 90
	out, _, err := ref.ExportJpeg(params)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	logging.Debug("normalized heic upload: %d bytes in, %d bytes out", len(data), len(out))
	return out, nil
}
