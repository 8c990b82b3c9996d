package resource

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Category is the closed set of catalog sections.
type Category string

const (
	CategoryBooks    Category = "Books"
	CategoryNotes    Category = "Notes"
	CategoryPPTs     Category = "PPTs"
	CategoryProjects Category = "Projects"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryBooks, CategoryNotes, CategoryPPTs, CategoryProjects}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// FileType classifies the primary document.
type FileType string

const (
	FileTypePDF  FileType = "PDF"
	FileTypeDOC  FileType = "DOC"
	FileTypeDOCX FileType = "DOCX"
	FileTypePPT  FileType = "PPT"
	FileTypePPTX FileType = "PPTX"
	FileTypeZIP  FileType = "ZIP"
)

// FileTypes lists every file type.
var FileTypes = []FileType{FileTypePDF, FileTypeDOC, FileTypeDOCX, FileTypePPT, FileTypePPTX, FileTypeZIP}

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	for _, known := range FileTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Uploader holds the public display fields of the owning account.
type Uploader struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       string  `json:"email"`
}

// Name returns the display name, falling back to the email address.
func (u Uploader) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.Email
}

// Resource is one catalogued upload: a stored document plus its metadata.
type Resource struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	Category      Category  `json:"category"`
	FileType      FileType  `json:"file_type"`
	ObjectKey     string    `json:"-"`
	FileName      string    `json:"file_name"`
	SizeBytes     int64     `json:"size_bytes"`
	PreviewKey    *string   `json:"-"`
	PreviewURL    string    `json:"preview_url,omitempty"`
	Subject       *string   `json:"subject,omitempty"`
	Course        *string   `json:"course,omitempty"`
	DownloadCount int64     `json:"download_count"`
	UploaderID    uuid.UUID `json:"uploader_id"`
	Uploader      Uploader  `json:"uploader"`
	CreatedAt     time.Time `json:"created_at"`
}

// Filter narrows a catalog search. Zero-valued fields impose no constraint.
// A zero Limit returns every match.
type Filter struct {
	Text       string
	Category   Category
	FileType   FileType
	Subject    string
	UploaderID *uuid.UUID
	Limit      int
	Offset     int
}

// FileDescriptor is what validation inspects about an incoming file.
type FileDescriptor struct {
	ContentType string
	SizeBytes   int64
}

// Upload is a file submitted for intake.
type Upload struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// Descriptor returns the validation view of the upload.
func (u Upload) Descriptor() FileDescriptor {
	return FileDescriptor{ContentType: u.ContentType, SizeBytes: u.SizeBytes}
}

// IntakeRequest carries everything needed to catalog a new resource.
type IntakeRequest struct {
	Title       string
	Description *string
	Category    Category
	Subject     *string
	Course      *string
	File        Upload
	Preview     *Upload
}

// IntakeResult is a created resource. Warning is set on degraded success.
type IntakeResult struct {
	Resource Resource
	Warning  error
}
