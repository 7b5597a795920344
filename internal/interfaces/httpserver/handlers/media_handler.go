package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/infrastructure/auth"
	"github.com/janhq/cms-media/internal/infrastructure/metrics"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/requests"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/responses"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

// MediaStore is the adapter surface the media endpoints use. *media.Store satisfies it.
type MediaStore interface {
	Persist(ctx context.Context, uploads []media.UploadRequest) ([]media.Media, error)
	List(ctx context.Context, opts *media.ListOptions) (*media.ListPage, error)
	Delete(ctx context.Context, item media.Media) error
	PreviewSrc(filename string) string
}

// StoreResolver returns the adapter for a principal.
type StoreResolver func(principal credential.Principal) (MediaStore, error)

// PoolResolver resolves stores from a StorePool.
func PoolResolver(pool *media.StorePool) StoreResolver {
	return func(principal credential.Principal) (MediaStore, error) {
		store, err := pool.Get(principal)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// MediaHandler exposes the server-side media adapter.
type MediaHandler struct {
	stores   StoreResolver
	maxBytes int64
	log      zerolog.Logger
}

func NewMediaHandler(stores StoreResolver, maxBytes int64, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		stores:   stores,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "media-handler").Logger(),
	}
}

// List godoc
// @Summary      List a directory
// @Description  Returns directories first, then files. totalCount is the number of entries in the directory; items is the requested window.
// @Tags         media
// @Produce      json
// @Param        directory  query     string  false  "Directory, leading and trailing slashes are ignored"
// @Param        offset     query     int     false  "Window offset"
// @Param        limit      query     int     false  "Window size (default 1000)"
// @Success      200        {object}  media.ListPage
// @Failure      400        {object}  responses.ErrorResponse
// @Failure      500        {object}  responses.ErrorResponse
// @Failure      502        {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	var query requests.ListMediaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, err.Error())
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	page, err := store.List(c.Request.Context(), query.ToDomain())
	if err != nil {
		platformerrors.WriteHTTPError(c, classify(c.Request.Context(), err, "failed to list media"), h.log)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Upload godoc
// @Summary      Upload files
// @Description  Stores every file under the directory with a public-read ACL. Files are uploaded in order and the first failure aborts the batch.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        directory  formData  string  false  "Target directory"
// @Param        file       formData  file    true   "File to upload (repeatable)"
// @Success      201        {object}  responses.UploadResponse
// @Failure      400        {object}  responses.ErrorResponse
// @Failure      413        {object}  responses.ErrorResponse
// @Failure      502        {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/media [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		platformerrors.WriteValidationError(c, "multipart form with at least one file is required")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		platformerrors.WriteValidationError(c, "at least one file is required")
		return
	}

	directory := c.PostForm("directory")
	uploads := make([]media.UploadRequest, 0, len(files))
	for _, header := range files {
		if h.maxBytes > 0 && header.Size > h.maxBytes {
			platformerrors.WriteHTTPError(c, platformerrors.NewError(
				c.Request.Context(),
				platformerrors.LayerHandler,
				platformerrors.ErrorTypeTooLarge,
				fmt.Sprintf("%s exceeds the %d byte upload limit", header.Filename, h.maxBytes),
				nil,
				"8e2b5d7a-1c4f-4a9e-b3d6-7f0a2c5e8b91",
			), h.log)
			return
		}

		upload, err := readUpload(directory, header)
		if err != nil {
			platformerrors.WriteValidationError(c, err.Error())
			return
		}
		uploads = append(uploads, upload)
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	saved, err := store.Persist(c.Request.Context(), uploads)
	if err != nil {
		h.recordUploads(uploads, err)
		var persistErr *media.PersistError
		if errors.As(err, &persistErr) {
			h.log.Warn().
				Int("index", persistErr.Index).
				Int("uploaded", len(persistErr.Uploaded)).
				Msg("batch upload aborted")
		}
		platformerrors.WriteHTTPError(c, classify(c.Request.Context(), err, err.Error()), h.log)
		return
	}

	h.recordUploads(uploads, nil)
	c.JSON(http.StatusCreated, responses.BuildUploadResponse(saved))
}

// Delete godoc
// @Summary      Delete a file
// @Description  Deletes the object whose key is the media id.
// @Tags         media
// @Param        id   path  string  true  "Media id (object key, may contain slashes)"
// @Success      204
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/media/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("id"), "/")
	if id == "" {
		platformerrors.WriteValidationError(c, media.ErrEmptyID.Error())
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	if err := store.Delete(c.Request.Context(), media.Media{ID: id}); err != nil {
		platformerrors.WriteHTTPError(c, classify(c.Request.Context(), err, "failed to delete media"), h.log)
		return
	}

	c.Status(http.StatusNoContent)
}

// Preview godoc
// @Summary      Resolve a preview URL
// @Description  Joins the public read URL and the filename.
// @Tags         media
// @Produce      json
// @Param        filename  query     string  true  "Object key"
// @Success      200       {object}  responses.PreviewResponse
// @Failure      400       {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/media/preview [get]
func (h *MediaHandler) Preview(c *gin.Context) {
	var query requests.PreviewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, "filename is required")
		return
	}

	store, ok := h.store(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, responses.PreviewResponse{URL: store.PreviewSrc(query.Filename)})
}

func (h *MediaHandler) store(c *gin.Context) (MediaStore, bool) {
	store, err := h.stores(auth.PrincipalFrom(c))
	if err == nil {
		return store, true
	}

	var missing *credential.MissingConfigError
	if errors.As(err, &missing) {
		platformerrors.WriteHTTPError(c, classify(c.Request.Context(), err, ""), h.log)
		return nil, false
	}
	platformerrors.WriteHTTPError(c, platformerrors.NewError(
		c.Request.Context(),
		platformerrors.LayerHandler,
		platformerrors.ErrorTypeConfiguration,
		"media store is not available",
		err,
		"3b9e7c1d-5a2f-4e8b-9d6a-0c4f8e2b7a53",
	), h.log)
	return nil, false
}

// recordUploads counts the stored part of a batch as success and everything from the failing item on as error.
func (h *MediaHandler) recordUploads(uploads []media.UploadRequest, err error) {
	stored := len(uploads)
	if err != nil {
		stored = 0
		var persistErr *media.PersistError
		if errors.As(err, &persistErr) {
			stored = min(len(persistErr.Uploaded), len(uploads))
		}
	}

	for i, upload := range uploads {
		contentType := upload.ContentType
		if contentType == "" {
			contentType = "unknown"
		}
		status := metrics.StatusSuccess
		if i >= stored {
			status = metrics.StatusError
		}
		metrics.RecordUpload(contentType, status, int64(len(upload.Content)))
	}
}

func readUpload(directory string, header *multipart.FileHeader) (media.UploadRequest, error) {
	file, err := header.Open()
	if err != nil {
		return media.UploadRequest{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return media.UploadRequest{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}

	// browsers send octet-stream for unknown types; let the store detect it
	contentType := header.Header.Get("Content-Type")
	if contentType == "application/octet-stream" {
		contentType = ""
	}

	return media.UploadRequest{
		Directory:   directory,
		Name:        header.Filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}
