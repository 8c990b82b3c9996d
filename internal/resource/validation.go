package resource

import (
	"mime"
	"strings"
)

const (
	// DefaultMaxDocumentBytes is the primary document ceiling.
	DefaultMaxDocumentBytes int64 = 50 << 20
	// DefaultMaxPreviewBytes is the preview image ceiling.
	DefaultMaxPreviewBytes int64 = 10 << 20
)

var documentTypes = map[string]FileType{
	"application/pdf":    FileTypePDF,
	"application/msword": FileTypeDOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   FileTypeDOCX,
	"application/vnd.ms-powerpoint":                                             FileTypePPT,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": FileTypePPTX,
	"application/zip": FileTypeZIP,
}

var previewTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// Limits are the size ceilings enforced at intake.
type Limits struct {
	MaxDocumentBytes int64
	MaxPreviewBytes  int64
}

// DefaultLimits returns the standard ceilings.
func DefaultLimits() Limits {
	return Limits{MaxDocumentBytes: DefaultMaxDocumentBytes, MaxPreviewBytes: DefaultMaxPreviewBytes}
}

// FileTypeForContentType maps a declared MIME type onto a FileType. Unknown
// or malformed types classify as PDF and report false.
func FileTypeForContentType(contentType string) (FileType, bool) {
	if fileType, ok := documentTypes[mediaType(contentType)]; ok {
		return fileType, true
	}
	return FileTypePDF, false
}

// ValidateDocument checks a primary document against limits and derives its
// file type. Unrecognised content types are accepted as PDF.
func ValidateDocument(desc FileDescriptor, limits Limits) (FileType, error) {
	if err := checkSize("file", desc.SizeBytes, limits.MaxDocumentBytes); err != nil {
		return "", err
	}
	fileType, _ := FileTypeForContentType(desc.ContentType)
	return fileType, nil
}

// ValidatePreview checks an optional preview image against limits.
func ValidatePreview(desc FileDescriptor, limits Limits) error {
	if err := checkSize("preview", desc.SizeBytes, limits.MaxPreviewBytes); err != nil {
		return err
	}
	if _, ok := previewTypes[mediaType(desc.ContentType)]; !ok {
		return &ValidationError{Field: "preview", Reason: ReasonUnsupportedType}
	}
	return nil
}

func validateRequest(req IntakeRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return &ValidationError{Field: "title", Reason: ReasonMissingTitle}
	}
	if !req.Category.Valid() {
		return &ValidationError{Field: "category", Reason: ReasonInvalidCategory}
	}
	return nil
}

func checkSize(field string, size, limit int64) error {
	if size <= 0 {
		return &ValidationError{Field: field, Reason: ReasonEmpty}
	}
	if size > limit {
		return &ValidationError{Field: field, Reason: ReasonTooLarge, Limit: limit}
	}
	return nil
}

func mediaType(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return parsed
}
