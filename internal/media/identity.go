package media

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewStoredName returns a fresh storage filename for an upload: a
// random 128-bit token rendered as 32 hex characters plus the lowercase
// extension. The client-supplied name is never part of the result,
// which removes both collision and path-traversal concerns.
func NewStoredName(ext string) string {
	u := uuid.New()
	token := hex.EncodeToString(u[:])

	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return token + ext
}

// Stem returns the filename without its extension, used to derive
// thumbnail names (<stem>.jpg).
func Stem(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}
