package resource

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that the resource does not exist (or no longer exists).
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthenticated is returned before any side effect when no identity is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the identity may not act on the resource.
	ErrForbidden = errors.New("not allowed to modify this resource")
)

// Reason identifies why a candidate was rejected.
type Reason string

const (
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonTooLarge        Reason = "too_large"
	ReasonEmpty           Reason = "empty"
	ReasonMissingTitle    Reason = "missing_title"
	ReasonInvalidCategory Reason = "invalid_category"
	ReasonInvalidFileType Reason = "invalid_file_type"
	ReasonInvalidPage     Reason = "invalid_page"
)

// ValidationError rejects input before any I/O.
type ValidationError struct {
	Field  string
	Reason Reason
	Limit  int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Message is the user-facing explanation of the rejection.
func (e *ValidationError) Message() string {
	switch e.Reason {
	case ReasonUnsupportedType:
		if e.Field == "preview" {
			return "preview must be a JPEG, PNG, WEBP or GIF image"
		}
		return "unsupported file type"
	case ReasonTooLarge:
		return fmt.Sprintf("%s exceeds the %d MB limit", e.Field, e.Limit>>20)
	case ReasonEmpty:
		return fmt.Sprintf("%s is empty", e.Field)
	case ReasonMissingTitle:
		return "title is required"
	case ReasonInvalidCategory:
		return "category must be one of Books, Notes, PPTs, Projects"
	case ReasonInvalidFileType:
		return "file_type must be one of PDF, DOC, DOCX, PPT, PPTX, ZIP"
	case ReasonInvalidPage:
		return "limit and offset must not be negative"
	default:
		return "invalid input"
	}
}

// StorageWriteError means the primary blob could not be stored. Nothing was
// persisted.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("store object %s: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// MetadataWriteError means blobs were written but the catalog record was not.
// OrphanedKeys lists the blobs left without a referencing record.
type MetadataWriteError struct {
	OrphanedKeys []string
	Err          error
}

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("insert resource metadata (orphaned objects %v): %v", e.OrphanedKeys, e.Err)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

// PreviewWriteError is the warning attached to a degraded intake.
type PreviewWriteError struct {
	Key string
	Err error
}

func (e *PreviewWriteError) Error() string {
	return fmt.Sprintf("store preview %s: %v", e.Key, e.Err)
}

func (e *PreviewWriteError) Unwrap() error { return e.Err }
