package resource

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/metrics"
	"go.uber.org/zap"
)

// Intake validates and stores a new resource on behalf of identity.
//
// The primary document is written first and any failure there aborts with a
// *StorageWriteError. A failed preview write is absorbed: the resource is
// still recorded without a preview and the result carries a
// *PreviewWriteError warning. A failed metadata insert returns a
// *MetadataWriteError naming the blobs that are now orphaned; they are not
// removed.
func (s *Service) Intake(ctx context.Context, identity auth.Identity, req IntakeRequest) (IntakeResult, error) {
	if !identity.Authenticated() {
		return IntakeResult{}, ErrUnauthenticated
	}

	fileType, err := s.validate(req)
	if err != nil {
		metrics.IntakeTotal.WithLabelValues("rejected").Inc()
		return IntakeResult{}, err
	}

	objectKey := documentKey(identity.ID, req.File.FileName)
	if err := s.blobs.Put(ctx, objectKey, req.File.Body, req.File.SizeBytes, req.File.ContentType); err != nil {
		metrics.IntakeTotal.WithLabelValues("storage_error").Inc()
		return IntakeResult{}, &StorageWriteError{Key: objectKey, Err: err}
	}

	var (
		preview *string
		warning error
	)
	if req.Preview != nil {
		key := previewKey(identity.ID, req.Preview.FileName)
		if err := s.blobs.Put(ctx, key, req.Preview.Body, req.Preview.SizeBytes, req.Preview.ContentType); err != nil {
			warning = &PreviewWriteError{Key: key, Err: err}
			s.log.Warn("preview upload failed, continuing without preview",
				zap.String("uploader_id", identity.ID.String()),
				zap.String("object_key", objectKey),
				zap.Error(err),
			)
		} else {
			preview = &key
		}
	}

	stored, err := s.repo.Insert(ctx, Resource{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: trimmed(req.Description),
		Category:    req.Category,
		FileType:    fileType,
		ObjectKey:   objectKey,
		FileName:    sanitizeFilename(req.File.FileName),
		SizeBytes:   req.File.SizeBytes,
		PreviewKey:  preview,
		Subject:     trimmed(req.Subject),
		Course:      trimmed(req.Course),
		UploaderID:  identity.ID,
	})
	if err != nil {
		orphaned := []string{objectKey}
		if preview != nil {
			orphaned = append(orphaned, *preview)
		}
		metrics.IntakeTotal.WithLabelValues("metadata_error").Inc()
		s.log.Error("resource metadata insert failed, stored objects are orphaned",
			zap.String("uploader_id", identity.ID.String()),
			zap.Strings("orphaned_keys", orphaned),
			zap.Error(err),
		)
		return IntakeResult{}, &MetadataWriteError{OrphanedKeys: orphaned, Err: err}
	}

	if warning != nil {
		metrics.IntakeTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.IntakeTotal.WithLabelValues("created").Inc()
	}
	s.attachPreviewURL(ctx, &stored)

	return IntakeResult{Resource: stored, Warning: warning}, nil
}

func (s *Service) validate(req IntakeRequest) (FileType, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}
	fileType, err := ValidateDocument(req.File.Descriptor(), s.limits)
	if err != nil {
		return "", err
	}
	if req.Preview != nil {
		if err := ValidatePreview(req.Preview.Descriptor(), s.limits); err != nil {
			return "", err
		}
	}
	return fileType, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
