package startup

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"

	"gopkg.in/yaml.v3"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration.
//
// Sources, in increasing priority order:
//  1. Built-in defaults
//  2. YAML config file (gallery.yaml, or the CONFIG env var path)
//  3. Environment variables
type Config struct {
	// Port is the HTTP listen port for the gallery.
	Port string `yaml:"port"`
	// MetricsPort is the listen port for the Prometheus endpoint.
	MetricsPort string `yaml:"metrics_port"`
	// MetricsEnabled toggles the metrics listener.
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// DataDir holds the four metadata documents.
	DataDir string `yaml:"data_dir"`
	// UploadDir holds the stored media files.
	UploadDir string `yaml:"upload_dir"`
	// ThumbDir holds derived video stills (<stem>.jpg).
	ThumbDir string `yaml:"thumb_dir"`

	// MaxUploadMB caps the request payload of an upload batch.
	MaxUploadMB int64 `yaml:"max_upload_mb"`

	// ReconcileIntervalStr is the periodic reconciliation interval as a
	// duration string ("30m"); "0" disables the loop after the startup
	// pass. Parsed into ReconcileInterval by Load.
	ReconcileIntervalStr string        `yaml:"reconcile_interval"`
	ReconcileInterval    time.Duration `yaml:"-"`

	// SessionSecret signs the flash-message cookie. A random per-boot
	// key is generated when unset; flash messages do not need to
	// survive restarts.
	SessionSecret string `yaml:"session_secret"`

	// LogStaticFiles includes static asset requests in the HTTP log.
	LogStaticFiles bool `yaml:"log_static_files"`
}

func defaults() Config {
	return Config{
		Port:                 "8080",
		MetricsPort:          "9090",
		MetricsEnabled:       true,
		DataDir:              "./data",
		UploadDir:            "./data/uploads",
		ThumbDir:             "./data/thumbnails",
		MaxUploadMB:          200,
		ReconcileIntervalStr: "30m",
		LogStaticFiles:       false,
	}
}

// MaxUploadBytes returns the upload payload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// LoadConfig loads and validates configuration, logging each step the
// way the rest of startup does.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := defaults()

	path := os.Getenv("CONFIG")
	if path == "" {
		if _, err := os.Stat("gallery.yaml"); err == nil {
			path = "gallery.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		logging.Info("  Config file:         %s", path)
	} else {
		logging.Info("  Config file:         (none, defaults + env)")
	}

	applyEnv(&cfg)

	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  DATA_DIR:            %s", cfg.DataDir)
	logging.Info("  UPLOAD_DIR:          %s", cfg.UploadDir)
	logging.Info("  THUMB_DIR:           %s", cfg.ThumbDir)
	logging.Info("  MAX_UPLOAD_MB:       %d", cfg.MaxUploadMB)
	logging.Info("  RECONCILE_INTERVAL:  %s", cfg.ReconcileIntervalStr)
	logging.Info("  LOG_STATIC_FILES:    %v", cfg.LogStaticFiles)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	interval, err := time.ParseDuration(cfg.ReconcileIntervalStr)
	if err != nil {
		logging.Warn("  Invalid RECONCILE_INTERVAL %q, using default: 30m", cfg.ReconcileIntervalStr)
		interval = 30 * time.Minute
	}
	cfg.ReconcileInterval = interval

	if cfg.MaxUploadMB <= 0 {
		logging.Warn("  Invalid MAX_UPLOAD_MB %d, using default: 200", cfg.MaxUploadMB)
		cfg.MaxUploadMB = 200
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
		logging.Debug("  Generated per-boot session secret")
	}

	if err := setupDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		cfg.MetricsPort = v
	}
	if v, ok := envBool("METRICS_ENABLED"); ok {
		cfg.MetricsEnabled = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("THUMB_DIR"); v != "" {
		cfg.ThumbDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadMB = n
		} else {
			logging.Warn("Invalid MAX_UPLOAD_MB %q, keeping %d", v, cfg.MaxUploadMB)
		}
	}
	if v := os.Getenv("RECONCILE_INTERVAL"); v != "" {
		cfg.ReconcileIntervalStr = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v, ok := envBool("LOG_STATIC_FILES"); ok {
		cfg.LogStaticFiles = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, ignoring", key, v)
		return false, false
	}
	return parsed, true
}

func setupDirectories(cfg *Config) error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for _, dir := range []struct {
		path *string
		name string
	}{
		{&cfg.DataDir, "data"},
		{&cfg.UploadDir, "upload"},
		{&cfg.ThumbDir, "thumbnail"},
	} {
		abs, err := filepath.Abs(*dir.path)
		if err != nil {
			return fmt.Errorf("resolve %s directory: %w", dir.name, err)
		}
		*dir.path = abs

		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("create %s directory: %w", dir.name, err)
		}
		if err := testWriteAccess(abs); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory: %s", dir.name, abs)
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		logging.Fatal("generate session secret: %v", err)
	}
	return fmt.Sprintf("%x", buf)
}

// CheckFFmpeg verifies the ffmpeg and ffprobe binaries are reachable;
// video thumbnails are skipped gracefully when they are not.
func CheckFFmpeg() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAILER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if path, err := exec.LookPath(tool); err != nil {
			logging.Warn("  %s not found in PATH; video thumbnails will be skipped", tool)
		} else {
			logging.Debug("  %s path: %s", tool, path)
			logging.Info("  [OK] %s is available", tool)
		}
	}
}

// LogStoreInit logs metadata store initialization.
func LogStoreInit(duration time.Duration, keys int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("METADATA STORE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Four documents loaded in %v (%d known files)", duration, keys)
}

// LogServerStarted logs successful server start.
func LogServerStarted(cfg *Config, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:  %v", startupDuration)
	logging.Info("  Gallery:       http://localhost:%s", cfg.Port)
	if cfg.MetricsEnabled {
		logging.Info("  Metrics:       http://localhost:%s/metrics", cfg.MetricsPort)
	} else {
		logging.Info("  Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start.
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println("------------------------------------------------------------")
	fmt.Println("  photo-share-app")
	fmt.Println("------------------------------------------------------------")
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}
