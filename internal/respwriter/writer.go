// Package respwriter persists response bodies to disk and produces
// terminal-safe previews.
package respwriter

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

// WriteResponseBody stores body under responseDir/<request-stem>/ with
// a three-digit running index, or in the system temp dir when no
// response directory is configured. It returns the written path.
func WriteResponseBody(body []byte, contentType, responseDir, requestFile string) (string, error) {
	extension := extensionForContentType(contentType)

	if strings.TrimSpace(responseDir) == "" {
		name := fmt.Sprintf("recurl-%s%s", uuid.NewString(), extension)
		path := filepath.Join(os.TempDir(), name)
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return "", errdef.Wrap(errdef.CodeFilesystem, err, "writing response body to %s", path)
		}
		return path, nil
	}

	stem := strings.TrimSuffix(filepath.Base(requestFile), filepath.Ext(requestFile))
	requestDir := filepath.Join(responseDir, sanitizeComponent(stem))
	if err := os.MkdirAll(requestDir, 0o755); err != nil {
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "creating response directory %s", requestDir)
	}

	index, err := nextIndex(requestDir)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%03d-%s%s", index, shortID(), extension)
	path := filepath.Join(requestDir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", errdef.Wrap(errdef.CodeFilesystem, err, "writing response body to %s", path)
	}
	return path, nil
}

// CreatePreview truncates to limit bytes and hex-encodes anything that
// is not valid UTF-8, so binary bodies never garble the terminal.
func CreatePreview(body []byte, limit int) string {
	if limit > 0 && len(body) > limit {
		body = body[:limit]
	}
	if utf8.Valid(body) {
		return string(body)
	}
	return hex.EncodeToString(body)
}

func sanitizeComponent(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	trimmed := strings.Trim(b.String(), "-")
	if trimmed == "" {
		return "request"
	}
	return trimmed
}

func extensionForContentType(contentType string) string {
	media := strings.TrimSpace(strings.Split(contentType, ";")[0])
	switch media {
	case "application/json":
		return ".json"
	case "text/html":
		return ".html"
	case "text/plain":
		return ".txt"
	case "application/xml", "text/xml":
		return ".xml"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}

// nextIndex scans existing files for a three-digit prefix and returns
// one past the highest seen.
func nextIndex(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeFilesystem, err, "reading directory %s", dir)
	}
	max := 0
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 3 {
			continue
		}
		if value, err := strconv.Atoi(name[:3]); err == nil && value+1 > max {
			max = value + 1
		}
	}
	return max, nil
}

func shortID() string {
	id := uuid.NewString()
	return id[:8]
}
