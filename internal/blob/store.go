package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CacheControl is sent with every stored object
const CacheControl = "max-age=3600"

// Store persists media and returns its public URL
type Store interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

var extensionsByType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ObjectPath builds <prefix>/<unix-millis>-<8 hex>.<ext>. The extension comes
// from fileName when it has one, otherwise from contentType.
func ObjectPath(prefix, fileName, contentType string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	if ext == "" || len(ext) > 5 {
		ext = extensionsByType[contentType]
	}
	if ext == "" {
		ext = "jpg"
	}

	name := fmt.Sprintf("%d-%s.%s", now.UnixMilli(), uuid.NewString()[:8], ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func joinURL(base, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(objectPath, "/")
}
