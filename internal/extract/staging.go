package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StageDir creates a unique directory under root for the members of one
// container, appending a monotonic suffix on collision.
func StageDir(root, containerName string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("creating staging root: %w", err)
	}
	base := filepath.Join(root, sanitizeStageName(containerName))
	for i := 0; ; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d", base, i)
		}
		err := os.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("creating staging directory: %w", err)
		}
	}
}

// sanitizeStageName flattens a container name into a safe directory name.
func sanitizeStageName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "container"
	}
	return b.String()
}

// isSafeMemberPath rejects member names with traversal sequences that
// could escape the staging directory (zip-slip prevention).
func isSafeMemberPath(p string) bool {
	if strings.Contains(p, "..") {
		return false
	}
	cleaned := filepath.ToSlash(filepath.Clean("/" + p))
	return strings.HasPrefix(cleaned, "/") && !strings.HasPrefix(cleaned, "/..")
}

// writeMember persists one container member under dir, flattening any
// member subdirectories into the file name.
func writeMember(dir, memberName string, content []byte) error {
	flat := strings.ReplaceAll(filepath.ToSlash(memberName), "/", "_")
	return os.WriteFile(filepath.Join(dir, flat), content, 0o644)
}
