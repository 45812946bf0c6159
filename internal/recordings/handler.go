package recordings

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/internal/models"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/response"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/storage"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Store is the recording metadata store.
type Store interface {
	List(ctx context.Context, page, limit int) ([]models.Recording, int, error)
	Create(ctx context.Context, rec *models.Recording) error
	Count(ctx context.Context) (int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (*models.Recording, error)
}

// ObjectStorage persists raw video bytes and hands out retrievable URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	SignedURL(ctx context.Context, key string) (string, error)
}

// Handler handles recording HTTP endpoints.
type Handler struct {
	store    Store
	storage  ObjectStorage // nil when S3 is not configured; upload then fails
	cache    *CountCache   // nil disables count caching
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a recordings handler. maxBytes is the upload size ceiling.
func NewHandler(store Store, objStorage ObjectStorage, cache *CountCache, maxBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, storage: objStorage, cache: cache, maxBytes: maxBytes, logger: logger}
}

// listResponse is the body for GET /recordings.
type listResponse struct {
	Data  []models.Recording `json:"data"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// List handles GET /recordings?page&limit. Malformed or non-positive params
// fall back to the defaults instead of failing.
func (h *Handler) List(c *gin.Context) {
	page := positiveQueryInt(c, "page", defaultPage)
	limit := positiveQueryInt(c, "limit", defaultLimit)

	list, total, err := h.store.List(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("list recordings failed", zap.Error(err))
		response.Internal(c, "Failed to list recordings")
		return
	}
	response.OK(c, listResponse{Data: list, Total: total, Page: page, Limit: limit})
}

// createRequest is the body for POST /recordings. Duration and file size are
// pointers so a legitimate zero passes the presence check.
type createRequest struct {
	VideoURL     string  `json:"video_url" binding:"required"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Duration     *int    `json:"duration" binding:"required"`
	FileSize     *int64  `json:"file_size" binding:"required"`
}

// Create handles POST /recordings: metadata-only creation for videos already
// stored elsewhere (e.g. saved to the device media library).
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "video_url, duration and file_size are required")
		return
	}

	rec := &models.Recording{
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     *req.Duration,
		FileSize:     *req.FileSize,
	}
	if err := h.store.Create(c.Request.Context(), rec); err != nil {
		h.logger.Error("create recording failed", zap.Error(err))
		response.Internal(c, "Failed to create recording")
		return
	}
	h.cache.Invalidate(c.Request.Context())
	response.Created(c, rec)
}

// Count handles GET /recordings/count. Served from the Redis cache when warm;
// the stats screen polls this endpoint. The write-back carries the cache
// version observed before the store read, so it cannot clobber an
// invalidation issued by a concurrent create or delete.
func (h *Handler) Count(c *gin.Context) {
	ctx := c.Request.Context()
	cached, version, ok := h.cache.Get(ctx)
	if ok {
		response.OK(c, gin.H{"count": cached})
		return
	}
	n, err := h.store.Count(ctx)
	if err != nil {
		h.logger.Error("count recordings failed", zap.Error(err))
		response.Internal(c, "Failed to count recordings")
		return
	}
	h.cache.Set(ctx, version, n)
	response.OK(c, gin.H{"count": n})
}

// Delete handles DELETE /recordings/:id. A malformed id behaves like an
// unknown one: 404. The stored object is not removed; orphaned files in the
// bucket are a known gap.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Recording not found")
		return
	}
	deleted, err := h.store.DeleteByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("delete recording failed", zap.Error(err), zap.String("id", id.String()))
		response.Internal(c, "Failed to delete recording")
		return
	}
	if deleted == nil {
		response.NotFound(c, "Recording not found")
		return
	}
	h.cache.Invalidate(c.Request.Context())
	response.Acked(c, "Recording deleted successfully")
}

// Upload handles POST /recordings/upload: multipart field "video" is buffered
// (aborting at the size ceiling), written to object storage, and a metadata
// row is inserted. Duration is stored as 0: it is not extracted from the file.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("video")
	if err != nil {
		response.BadRequest(c, "No file provided")
		return
	}
	if fh.Size > h.maxBytes {
		response.PayloadTooLarge(c, "File too large")
		return
	}

	src, err := fh.Open()
	if err != nil {
		h.logger.Error("open upload failed", zap.Error(err), zap.String("filename", fh.Filename))
		response.Internal(c, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	// Buffer through a limit reader so the ceiling is enforced while the
	// bytes are materialized, not after.
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		h.logger.Error("buffer upload failed", zap.Error(err), zap.String("filename", fh.Filename))
		response.Internal(c, "Failed to read uploaded file")
		return
	}
	if n > h.maxBytes {
		response.PayloadTooLarge(c, "File too large")
		return
	}

	if h.storage == nil {
		response.Internal(c, "Storage not configured")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	key := storage.VideoKey(fh.Filename)
	ctx := c.Request.Context()

	storedKey, err := h.storage.Upload(ctx, key, contentType, bytes.NewReader(buf.Bytes()), n)
	if err != nil {
		h.logger.Error("store video failed", zap.Error(err), zap.String("key", key), zap.Int64("size", n))
		response.Internal(c, "Failed to store video")
		return
	}
	url, err := h.storage.SignedURL(ctx, storedKey)
	if err != nil {
		h.logger.Error("sign video url failed", zap.Error(err), zap.String("key", storedKey))
		response.Internal(c, "Failed to store video")
		return
	}

	rec := &models.Recording{
		VideoURL: url,
		Duration: 0, // not extracted from the upload
		FileSize: n,
	}
	if err := h.store.Create(ctx, rec); err != nil {
		h.logger.Error("create recording failed", zap.Error(err), zap.String("key", storedKey))
		response.Internal(c, "Failed to create recording")
		return
	}
	h.cache.Invalidate(ctx)

	h.logger.Info("video uploaded",
		zap.String("id", rec.ID.String()),
		zap.String("key", storedKey),
		zap.Int64("size", n),
	)
	response.Created(c, rec)
}

// positiveQueryInt parses a positive integer query param, falling back to def.
func positiveQueryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
