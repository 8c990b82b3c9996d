package resource

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	previewNamespace = "previews"
	maxExtLength     = 10
)

// documentKey namespaces the primary blob under its uploader.
func documentKey(uploaderID uuid.UUID, fileName string) string {
	return uploaderID.String() + "/" + uuid.NewString() + extension(fileName)
}

// previewKey namespaces preview images under the uploader's preview folder.
func previewKey(uploaderID uuid.UUID, fileName string) string {
	return uploaderID.String() + "/" + previewNamespace + "/" + uuid.NewString() + extension(fileName)
}

func extension(fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if len(ext) < 2 || len(ext) > maxExtLength {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}
