package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/JayRKay91/photo-share-app-v3/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// safeName validates a filename path parameter: it must be a bare
// filename with no separator or parent traversal. Stored names are
// server-generated, so anything else is a crafted request.
func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return filepath.Base(name) == name
}

// fileExists reports whether the stored file backs the given name.
func (h *Handlers) fileExists(name string) bool {
	info, err := os.Stat(filepath.Join(h.uploadDir, name))
	return err == nil && !info.IsDir()
}
