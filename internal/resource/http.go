package resource

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
)

const (
	// DefaultPageSize applies when a search omits limit.
	DefaultPageSize = 50
	// MaxPageSize caps limit on searches.
	MaxPageSize = 200

	multipartOverhead = 1 << 20
)

var contentTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeDOC:  "application/msword",
	FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FileTypePPT:  "application/vnd.ms-powerpoint",
	FileTypePPTX: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	FileTypeZIP:  "application/zip",
}

// RegisterPublicRoutes mounts catalog browsing.
func RegisterPublicRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/resources", handler.search)
	group.GET("/resources/:id", handler.get)
}

// RegisterRoutes mounts operations that need an authenticated identity.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/resources", handler.upload)
	group.GET("/resources/:id/download", handler.download)
	group.DELETE("/resources/:id", handler.delete)
}

type httpHandler struct {
	service *Service
}

type searchParams struct {
	Text     string `form:"q" binding:"max=200"`
	Category string `form:"category" binding:"omitempty,depot_category"`
	FileType string `form:"file_type" binding:"omitempty,depot_file_type"`
	Subject  string `form:"subject" binding:"max=200"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

func (h *httpHandler) search(c *gin.Context) {
	var params searchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	if params.Limit == 0 {
		params.Limit = DefaultPageSize
	}

	resources, err := h.service.Search(c.Request.Context(), Filter{
		Text:     params.Text,
		Category: Category(params.Category),
		FileType: FileType(params.FileType),
		Subject:  params.Subject,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		RespondError(c, err, "search resources")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resources": resources,
		"limit":     params.Limit,
		"offset":    params.Offset,
	})
}

func (h *httpHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err, "load resource")
		return
	}
	c.JSON(http.StatusOK, res)
}

type intakeForm struct {
	Title       string  `form:"title" binding:"required,max=200"`
	Category    string  `form:"category" binding:"required,depot_category"`
	Description *string `form:"description" binding:"omitempty,max=2000"`
	Subject     *string `form:"subject" binding:"omitempty,max=200"`
	Course      *string `form:"course" binding:"omitempty,max=200"`
}

func (h *httpHandler) upload(c *gin.Context) {
	identity, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limits := h.service.Limits()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxDocumentBytes+limits.MaxPreviewBytes+multipartOverhead)

	var form intakeForm
	if err := c.ShouldBind(&form); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds the size limit", "reason": ReasonTooLarge})
			return
		}
		respondBindError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	file, fileCloser, err := openUpload(fileHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer fileCloser.Close()

	req := IntakeRequest{
		Title:       form.Title,
		Description: form.Description,
		Category:    Category(form.Category),
		Subject:     form.Subject,
		Course:      form.Course,
		File:        file,
	}

	if previewHeader, err := c.FormFile("preview"); err == nil {
		preview, previewCloser, err := openUpload(previewHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read preview"})
			return
		}
		defer previewCloser.Close()
		req.Preview = &preview
	}

	result, err := h.service.Intake(c.Request.Context(), identity, req)
	if err != nil {
		RespondError(c, err, "upload resource")
		return
	}

	body := gin.H{"resource": result.Resource}
	if result.Warning != nil {
		body["warning"] = "resource saved, but the preview image could not be stored"
	}
	c.JSON(http.StatusCreated, body)
}

func (h *httpHandler) download(c *gin.Context) {
	identity, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	res, body, err := h.service.Download(c.Request.Context(), identity, id)
	if err != nil {
		RespondError(c, err, "download resource")
		return
	}
	defer body.Close()

	contentType, ok := contentTypes[res.FileType]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	c.Header("Content-Length", strconv.FormatInt(res.SizeBytes, 10))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, body); err != nil {
		_ = c.Error(err)
	}
}

func (h *httpHandler) delete(c *gin.Context) {
	identity, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), identity, id); err != nil {
		RespondError(c, err, "delete resource")
		return
	}
	c.Status(http.StatusNoContent)
}

// RespondError maps service errors onto HTTP responses without exposing
// internal detail. action names the failed operation in the generic message.
func RespondError(c *gin.Context, err error, action string) {
	var (
		validationErr *ValidationError
		storageErr    *StorageWriteError
		metadataErr   *MetadataWriteError
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable, please retry"})
	case errors.As(err, &validationErr):
		status := http.StatusBadRequest
		if validationErr.Reason == ReasonTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": validationErr.Message(), "reason": validationErr.Reason})
	case errors.Is(err, ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "the file could not be stored; nothing was saved"})
	case errors.As(err, &metadataErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "the file was stored but could not be catalogued; please report this"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}

func respondBindError(c *gin.Context, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": fields})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource id"})
		return uuid.Nil, false
	}
	return id, true
}

func openUpload(header *multipart.FileHeader) (Upload, multipart.File, error) {
	f, err := header.Open()
	if err != nil {
		return Upload{}, nil, err
	}
	return Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Body:        f,
	}, f, nil
}
