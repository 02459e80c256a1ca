package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// maxUploadSize caps multipart parsing memory; larger bodies spill to disk.
const maxUploadSize = 100 << 20

// MediaHandler handles HTTP requests for media
type MediaHandler struct {
	service simplemedia.Service
	auth    Authenticator
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service simplemedia.Service, auth Authenticator) *MediaHandler {
	if auth == nil {
		auth = NewHeaderAuthenticator("")
	}
	return &MediaHandler{service: service, auth: auth}
}

// Routes returns the routes for media
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.UploadMedia)
	r.Get("/queue", h.QueueDepth)
	r.Get("/{fileID}", h.GetMediaStatus)
	r.Delete("/{fileID}", h.DeleteMedia)
	r.Put("/{fileID}/visibility", h.SetVisibility)
	r.Post("/{fileID}/tags", h.AddTags)
	r.Get("/{fileID}/tags", h.GetTags)
	r.Get("/list", h.ListMedia)
	r.Get("/{owner}/{filename}", h.ServeMedia)

	return r
}

// MediaResponse is the response body for upload and status requests
type MediaResponse struct {
	Result      bool   `json:"result"`
	Description string `json:"description"`
	FileID      string `json:"file_id,omitempty"`
	FileName    string `json:"filename,omitempty"`
	Status      string `json:"status,omitempty"`
	URL         string `json:"url,omitempty"`
	Duplicate   bool   `json:"duplicate,omitempty"`
	OutputHash  string `json:"hash,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Blurhash    string `json:"blurhash,omitempty"`
	Magnet      string `json:"magnet,omitempty"`
}

// MediaListItem is one record in a listing response
type MediaListItem struct {
	FileID    string    `json:"file_id"`
	FileName  string    `json:"filename"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadMedia admits a multipart upload and queues it for transform
func (h *MediaHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	auth := h.auth.Authenticate(r)
	if !auth.OK {
		renderError(w, r, http.StatusUnauthorized, auth.Reason)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		// The original upload field name is also accepted.
		file, _, err = r.FormFile("mediafile")
		if err != nil {
			renderError(w, r, http.StatusBadRequest, "form field 'file' is required")
			return
		}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "failed to read upload")
		return
	}

	req := simplemedia.UploadMediaRequest{
		OwnerKey:      auth.OwnerKey,
		Kind:          simplemedia.MediaKind(r.FormValue("kind")),
		Data:          data,
		SourceAddress: r.RemoteAddr,
	}
	if tags := r.Form["tag"]; len(tags) > 0 {
		req.Tags = tags
	}

	result, err := h.service.UploadMedia(r.Context(), req)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	render.Status(r, status)
	render.JSON(w, r, MediaResponse{
		Result:      true,
		Description: result.Description,
		FileID:      result.FileID.String(),
		FileName:    result.FileName,
		Status:      string(result.Status),
		URL:         result.URL,
		Duplicate:   result.Duplicate,
	})
}

// GetMediaStatus reports the lifecycle state of a queued upload
func (h *MediaHandler) GetMediaStatus(w http.ResponseWriter, r *http.Request) {
	auth := h.auth.Authenticate(r)
	if !auth.OK {
		renderError(w, r, http.StatusUnauthorized, auth.Reason)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid file ID")
		return
	}

	result, err := h.service.GetMediaStatus(r.Context(), simplemedia.MediaStatusRequest{
		OwnerKey: auth.OwnerKey,
		FileID:   fileID,
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	// result is true only once the artifact exists; pending, processing and
	// failed lookups succeed but report false.
	render.JSON(w, r, MediaResponse{
		Result:      result.Status == simplemedia.StatusCompleted,
		Description: result.Description,
		FileID:      result.FileID.String(),
		FileName:    result.FileName,
		Status:      string(result.Status),
		URL:         result.URL,
		OutputHash:  result.OutputHash,
		Width:       result.Width,
		Height:      result.Height,
		Blurhash:    result.Blurhash,
		Magnet:      result.Magnet,
	})
}

// ServeMedia streams a stored artifact
func (h *MediaHandler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	filename := chi.URLParam(r, "filename")

	rc, err := h.service.OpenMedia(r.Context(), owner, filename)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	defer rc.Close()

	// Sniff the content type from the first chunk before streaming.
	header := make([]byte, 3072)
	n, rerr := io.ReadFull(rc, header)
	if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
		renderError(w, r, http.StatusInternalServerError, "failed to read artifact")
		return
	}
	header = header[:n]

	w.Header().Set("Content-Type", mimetype.Detect(header).String())
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(header); err != nil {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to stream artifact", "owner", owner, "filename", filename, "error", err)
	}
}

// DeleteMedia removes a record and every record sharing its artifact
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	auth := h.auth.Authenticate(r)
	if !auth.OK {
		renderError(w, r, http.StatusUnauthorized, auth.Reason)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid file ID")
		return
	}

	count, err := h.service.DeleteMedia(r.Context(), auth.OwnerKey, fileID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"result":      true,
		"description": "media deleted",
		"records":     count,
	})
}

// VisibilityRequest is the request body for toggling visibility
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// SetVisibility toggles whether a record appears in listings
func (h *MediaHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	auth := h.auth.Authenticate(r)
	if !auth.OK {
		renderError(w, r, http.StatusUnauthorized, auth.Reason)
		return
	}

	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid file ID")
		return
	}

	var req VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetVisibility(r.Context(), auth.OwnerKey, fileID, req.Visible); err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"result":      true,
		"description": "visibility updated",
	})
}

// ListMedia returns the caller's records, newest first
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	auth := h.auth.Authenticate(r)
	if !auth.OK {
		renderError(w, r, http.StatusUnauthorized, auth.Reason)
		return
	}

	files, err := h.service.ListMedia(r.Context(), auth.OwnerKey)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	items := make([]MediaListItem, 0, len(files))
	for _, f := range files {
		items = append(items, MediaListItem{
			FileID:    f.ID.String(),
			FileName:  f.FileName,
			Kind:      string(f.Kind),
			Status:    string(f.Status),
			Visible:   f.Visible,
			CreatedAt: f.CreatedAt,
		})
	}

	render.JSON(w, r, map[string]interface{}{
		"result": true,
		"files":  items,
	})
}

// TagsRequest is the request body for adding tags
type TagsRequest struct {
	Tags []string `json:"tags"`
}

// AddTags attaches tags to a record
func (h *MediaHandler) AddTags(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid file ID")
		return
	}

	var req TagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tags) == 0 {
		renderError(w, r, http.StatusBadRequest, "tags are required")
		return
	}

	if err := h.service.AddTags(r.Context(), fileID, req.Tags); err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"result":      true,
		"description": "tags added",
	})
}

// GetTags lists the tags attached to a record
func (h *MediaHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid file ID")
		return
	}

	tags, err := h.service.GetTags(r.Context(), fileID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"result": true,
		"tags":   tags,
	})
}

// QueueDepth reports how many transforms are waiting for a worker
func (h *MediaHandler) QueueDepth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"result": true,
		"queued": h.service.PendingTransforms(),
	})
}

// Error rendering

func renderError(w http.ResponseWriter, r *http.Request, status int, description string) {
	render.Status(r, status)
	render.JSON(w, r, MediaResponse{Result: false, Description: description})
}

// renderServiceError maps service sentinels to HTTP statuses
func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, simplemedia.ErrValidation):
		renderError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, simplemedia.ErrFileNotFound), errors.Is(err, simplemedia.ErrObjectNotFound):
		renderError(w, r, http.StatusNotFound, "the requested file was not found")
	case errors.Is(err, simplemedia.ErrForbidden), errors.Is(err, simplemedia.ErrPathOutsideRoot):
		renderError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, simplemedia.ErrQueueFull):
		renderError(w, r, http.StatusServiceUnavailable, "transform queue is full, try again later")
	default:
		slog.Error("Unhandled service error", "error", err)
		renderError(w, r, http.StatusInternalServerError, "internal error")
	}
}
