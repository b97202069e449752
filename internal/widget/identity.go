package widget

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	identityAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	identityRandomLen = 9
)

var identityPattern = regexp.MustCompile(`^user_[0-9a-z]{9}_[0-9]+$`)

// NewIdentity returns a fresh "user_<9 base36 chars>_<unix millis>" ID.
func NewIdentity(now time.Time) string {
	var b strings.Builder
	b.Grow(32)
	b.WriteString("user_")
	b.WriteString(randomBase36(identityRandomLen, uuid.New))
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	return b.String()
}

// randomBase36 draws n uniform base36 characters from UUIDv4 bytes. The
// version and variant bytes are skipped, and bytes at or above the largest
// multiple of 36 are rejected so every character is equally likely.
func randomBase36(n int, next func() uuid.UUID) string {
	const limit = 256 - 256%len(identityAlphabet)
	out := make([]byte, 0, n)
	for len(out) < n {
		random := next()
		for i, v := range random {
			if i == 6 || i == 8 || int(v) >= limit {
				continue
			}
			out = append(out, identityAlphabet[int(v)%len(identityAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// ValidIdentity reports whether id has the generated identity shape.
func ValidIdentity(id string) bool {
	return identityPattern.MatchString(id)
}

// LoadOrCreateIdentity returns the identity stored at path, generating and
// persisting a new one when the file is missing or holds something else.
func LoadOrCreateIdentity(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("identity path is required")
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); ValidIdentity(id) {
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read identity: %w", err)
	}

	id := NewIdentity(time.Now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}
