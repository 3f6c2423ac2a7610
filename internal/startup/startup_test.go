package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setDirEnv points every directory at a fresh temp tree so LoadConfig
// never touches the working directory.
func setDirEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("UPLOAD_DIR", filepath.Join(root, "data", "uploads"))
	t.Setenv("THUMB_DIR", filepath.Join(root, "data", "thumbnails"))
	t.Setenv("CONFIG", "")
	return root
}

func TestLoadConfigDefaults(t *testing.T) {
	setDirEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("RECONCILE_INTERVAL", "")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.MaxUploadMB != 200 {
		t.Errorf("Expected default upload cap 200MB, got %d", cfg.MaxUploadMB)
	}
	if cfg.MaxUploadBytes() != 200<<20 {
		t.Errorf("Expected %d bytes, got %d", int64(200)<<20, cfg.MaxUploadBytes())
	}
	if cfg.ReconcileInterval != 30*time.Minute {
		t.Errorf("Expected default interval 30m, got %v", cfg.ReconcileInterval)
	}
	if cfg.SessionSecret == "" {
		t.Error("Expected a generated per-boot session secret")
	}

	// Directories were created and made absolute.
	for _, dir := range []string{cfg.DataDir, cfg.UploadDir, cfg.ThumbDir} {
		if !filepath.IsAbs(dir) {
			t.Errorf("Expected absolute path, got %s", dir)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("Directory %s not created: %v", dir, err)
		}
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	setDirEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("MAX_UPLOAD_MB", "50")
	t.Setenv("RECONCILE_INTERVAL", "5m")
	t.Setenv("SESSION_SECRET", "fixed-secret")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.Port)
	}
	if cfg.MaxUploadMB != 50 {
		t.Errorf("Expected 50MB cap, got %d", cfg.MaxUploadMB)
	}
	if cfg.ReconcileInterval != 5*time.Minute {
		t.Errorf("Expected 5m interval, got %v", cfg.ReconcileInterval)
	}
	if cfg.SessionSecret != "fixed-secret" {
		t.Errorf("Expected explicit session secret, got %q", cfg.SessionSecret)
	}
	if cfg.MetricsEnabled {
		t.Error("Expected metrics disabled")
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	root := setDirEnv(t)

	yaml := `
port: "7070"
max_upload_mb: 25
reconcile_interval: "1h"
log_static_files: true
`
	path := filepath.Join(root, "gallery.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("RECONCILE_INTERVAL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Expected yaml port 7070, got %s", cfg.Port)
	}
	if cfg.MaxUploadMB != 25 {
		t.Errorf("Expected yaml cap 25MB, got %d", cfg.MaxUploadMB)
	}
	if cfg.ReconcileInterval != time.Hour {
		t.Errorf("Expected yaml interval 1h, got %v", cfg.ReconcileInterval)
	}
	if !cfg.LogStaticFiles {
		t.Error("Expected log_static_files from yaml")
	}
}

func TestLoadConfigEnvBeatsYAML(t *testing.T) {
	root := setDirEnv(t)

	path := filepath.Join(root, "gallery.yaml")
	if err := os.WriteFile(path, []byte(`port: "7070"`), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("CONFIG", path)
	t.Setenv("PORT", "6060")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "6060" {
		t.Errorf("Expected env to win over yaml, got %s", cfg.Port)
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	setDirEnv(t)
	t.Setenv("MAX_UPLOAD_MB", "-5")
	t.Setenv("RECONCILE_INTERVAL", "soon")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxUploadMB != 200 {
		t.Errorf("Expected fallback cap 200, got %d", cfg.MaxUploadMB)
	}
	if cfg.ReconcileInterval != 30*time.Minute {
		t.Errorf("Expected fallback interval 30m, got %v", cfg.ReconcileInterval)
	}
}

func TestLoadConfigMissingConfigFile(t *testing.T) {
	setDirEnv(t)
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected an error for an explicit missing config file")
	}
}

func TestGetBuildInfo(t *testing.T) {
	t.Parallel()

	info := GetBuildInfo()
	if info.Version == "" || info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("Incomplete build info: %+v", info)
	}
}
