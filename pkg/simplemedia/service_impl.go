package simplemedia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tendant/simple-media/pkg/simplemedia/urlstrategy"
)

// Defaults applied when no scheduler is injected.
const (
	DefaultQueueSize = 64
	DefaultWorkers   = 2

	// DefaultPublicOwnerKey is the shared identity used for unregistered
	// uploads when no key is configured.
	DefaultPublicOwnerKey = "public"
)

// outputFormats maps an admitted MIME type to the normalized output format
// extension. Content outside this map is rejected at admission.
var outputFormats = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "jpg",
	"image/bmp":       "jpg",
	"image/tiff":      "jpg",
	"video/mp4":       "mp4",
	"video/quicktime": "mp4",
	"video/mpeg":      "mp4",
	"video/webm":      "mp4",
	"audio/mpeg":      "mp3",
}

// service implements the Service interface
type service struct {
	repository    Repository
	store         BlobStore
	storeName     string
	transcoder    Transcoder
	queue         TaskQueue
	scheduler     *Scheduler // set when the service owns its queue
	resolver      *IdentityResolver
	urls          urlstrategy.URLStrategy
	publicKey     string
	fallbackAsset string
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata store for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the artifact storage backend
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.storeName = name
		s.store = store
	}
}

// WithTranscoder sets the transform collaborator
func WithTranscoder(t Transcoder) Option {
	return func(s *service) {
		s.transcoder = t
	}
}

// WithScheduler hands the service a scheduler it owns: Start launches its
// workers and Close drains them.
func WithScheduler(sched *Scheduler) Option {
	return func(s *service) {
		s.scheduler = sched
		s.queue = sched
	}
}

// WithTaskQueue injects an external task queue. The service will not start
// or stop it; tests use this to observe enqueued tasks.
func WithTaskQueue(q TaskQueue) Option {
	return func(s *service) {
		s.queue = q
		s.scheduler = nil
	}
}

// WithPublicIdentity sets the shared owner key unregistered uploads are
// demoted to.
func WithPublicIdentity(ownerKey string) Option {
	return func(s *service) {
		s.publicKey = ownerKey
	}
}

// WithURLStrategy sets the strategy used to build stable artifact URLs
func WithURLStrategy(strategy urlstrategy.URLStrategy) Option {
	return func(s *service) {
		s.urls = strategy
	}
}

// WithFallbackAsset sets the media asset served when a valid path has no
// artifact on disk.
func WithFallbackAsset(path string) Option {
	return func(s *service) {
		s.fallbackAsset = path
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		publicKey: DefaultPublicOwnerKey,
		storeName: "fs",
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.transcoder == nil {
		return nil, fmt.Errorf("transcoder is required")
	}
	if s.queue == nil {
		sched := NewScheduler(DefaultQueueSize, DefaultWorkers)
		s.scheduler = sched
		s.queue = sched
	}
	if s.urls == nil {
		s.urls = urlstrategy.NewOwnerPathStrategy("/media")
	}
	s.resolver = NewIdentityResolver(s.repository, s.publicKey)

	return s, nil
}

// Start launches the transform workers when the service owns its scheduler.
func (s *service) Start(ctx context.Context) {
	if s.scheduler != nil {
		s.scheduler.Start(ctx, s.processTask)
	}
}

// Close drains the owned scheduler. Queued tasks still run to completion.
func (s *service) Close() {
	if s.scheduler != nil {
		s.scheduler.Close()
	}
}

func (s *service) PendingTransforms() int {
	return s.queue.Pending()
}

// Admission

func (s *service) UploadMedia(ctx context.Context, req UploadMediaRequest) (*UploadMediaResult, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}

	kind := req.Kind
	if kind == "" {
		kind = KindMedia
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: incorrect media kind %q", ErrValidation, req.Kind)
	}

	mtype := mimetype.Detect(req.Data)
	format, allowed := outputFormats[mtype.String()]
	if !allowed {
		return nil, fmt.Errorf("%w: filetype %s not allowed", ErrValidation, mtype.String())
	}

	// Identity substitution happens once, before dedup lookup, path
	// computation and record insertion.
	ownerKey, ownerName, err := s.resolver.Resolve(ctx, req.OwnerKey)
	if err != nil {
		return nil, err
	}
	if err := ValidateOwnerName(ownerName); err != nil {
		return nil, err
	}

	originalHash := ContentHash(req.Data)
	policy := kind.Policy()

	filename := originalHash + "." + format
	if policy.FixedName != "" {
		filename = policy.FixedName + "." + format
	}
	if err := ValidateFileName(filename); err != nil {
		return nil, err
	}

	var file *MediaFile
	now := time.Now().UTC()

	if kind.FixedSlot() {
		file, err = s.reuseFixedSlot(ctx, ownerKey, ownerName, kind, originalHash, filename)
		if err != nil {
			return nil, err
		}
	} else {
		existing, err := s.repository.FindByOriginalHash(ctx, ownerKey, originalHash, kind)
		if err != nil && !errors.Is(err, ErrFileNotFound) {
			return nil, err
		}
		switch {
		case existing != nil && existing.Status == StatusFailed:
			// A failed record has no stored artifact to reuse; reset it and
			// run the transform again instead of blocking the content.
			file, err = s.retryFailedFile(ctx, existing)
			if err != nil {
				return nil, err
			}
		case existing != nil:
			// Duplicate content: reuse the stored artifact, no new
			// transform, no new file on disk.
			if len(req.Tags) > 0 {
				if err := s.repository.AddTags(ctx, existing.ID, req.Tags); err != nil {
					return nil, &FileError{FileID: existing.ID, Op: "tag", Err: err}
				}
			}
			result := &UploadMediaResult{
				FileID:      existing.ID,
				OwnerKey:    ownerKey,
				OwnerName:   ownerName,
				FileName:    existing.FileName,
				Status:      existing.Status,
				Duplicate:   true,
				Description: "file already exists",
			}
			if existing.Status == StatusCompleted {
				result.URL = s.urls.MediaURL(ownerName, existing.FileName)
			}
			return result, nil
		}
	}

	if file == nil {
		file = &MediaFile{
			ID:            uuid.New(),
			OwnerKey:      ownerKey,
			OwnerName:     ownerName,
			OriginalHash:  originalHash,
			FileName:      filename,
			Kind:          kind,
			Status:        StatusPending,
			Visible:       true,
			SourceAddress: req.SourceAddress,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repository.CreateFile(ctx, file); err != nil {
			return nil, &FileError{FileID: file.ID, Op: "create", Err: err}
		}
	}

	if len(req.Tags) > 0 {
		if err := s.repository.AddTags(ctx, file.ID, req.Tags); err != nil {
			return nil, &FileError{FileID: file.ID, Op: "tag", Err: err}
		}
	}

	if err := s.store.EnsureOwnerDirectory(ctx, ownerName); err != nil {
		return nil, &StorageError{Backend: s.storeName, Key: ownerName, Op: "ensure_dir", Err: err}
	}

	task := &ProcessingTask{
		FileID:    file.ID,
		OwnerKey:  ownerKey,
		OwnerName: ownerName,
		FileName:  filename,
		Data:      req.Data,
		Options: TransformOptions{
			Width:    policy.Width,
			Height:   policy.Height,
			Format:   format,
			ExactFit: policy.ExactFit,
		},
	}
	if err := s.queue.Enqueue(task); err != nil {
		// A record no worker will ever pick up should not stay pending;
		// see DESIGN.md for the open-question decision.
		if ferr := s.failFile(ctx, file.ID); ferr != nil {
			slog.Error("Failed to mark file failed after enqueue error", "file_id", file.ID, "error", ferr)
		}
		return nil, &FileError{FileID: file.ID, Op: "enqueue", Err: err}
	}

	slog.Info("Media queued for transform",
		"file_id", file.ID, "owner", ownerName, "kind", kind, "queued", s.queue.Pending())

	return &UploadMediaResult{
		FileID:      file.ID,
		OwnerKey:    ownerKey,
		OwnerName:   ownerName,
		FileName:    filename,
		Status:      StatusPending,
		Description: "file queued for transform",
	}, nil
}

// reuseFixedSlot resets the single-slot record for (owner, kind) when one
// exists, so a re-upload overwrites instead of accumulating rows.
func (s *service) reuseFixedSlot(ctx context.Context, ownerKey, ownerName string, kind MediaKind, originalHash, filename string) (*MediaFile, error) {
	existing, err := s.repository.FindFixedSlotFile(ctx, ownerKey, kind)
	if errors.Is(err, ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// A format change leaves the previous artifact behind under the old
	// extension; remove it.
	if existing.FileName != filename {
		if derr := s.store.Delete(ctx, objectKey(ownerName, existing.FileName)); derr != nil && !errors.Is(derr, ErrObjectNotFound) {
			slog.Error("Failed to remove superseded fixed-slot artifact", "file_id", existing.ID, "error", derr)
		}
	}

	existing.OriginalHash = originalHash
	existing.FileName = filename
	existing.Status = StatusPending
	existing.OutputHash = ""
	existing.Blurhash = ""
	existing.Magnet = ""
	existing.Width = 0
	existing.Height = 0
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateFile(ctx, existing); err != nil {
		return nil, &FileError{FileID: existing.ID, Op: "reuse_slot", Err: err}
	}
	return existing, nil
}

// retryFailedFile resets a failed record so its content runs through the
// transform again. Hash and filename are unchanged; only the lifecycle
// state and derived metadata are cleared.
func (s *service) retryFailedFile(ctx context.Context, file *MediaFile) (*MediaFile, error) {
	file.Status = StatusPending
	file.OutputHash = ""
	file.Blurhash = ""
	file.Magnet = ""
	file.Width = 0
	file.Height = 0
	file.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateFile(ctx, file); err != nil {
		return nil, &FileError{FileID: file.ID, Op: "retry", Err: err}
	}
	return file, nil
}

// Worker pipeline

// processTask runs on a scheduler worker: pending → processing →
// completed | failed. Any partial write is removed before failure is
// recorded.
func (s *service) processTask(ctx context.Context, task *ProcessingTask) {
	file, err := s.repository.GetFile(ctx, task.FileID)
	if err != nil {
		slog.Error("Task references unknown file", "file_id", task.FileID, "error", err)
		return
	}
	if ok, terr := canStartProcessing(file.Status); !ok {
		slog.Warn("Skipping task", "file_id", task.FileID, "error", terr)
		return
	}
	if err := s.repository.UpdateFileStatus(ctx, task.FileID, StatusProcessing); err != nil {
		slog.Error("Failed to mark file processing", "file_id", task.FileID, "error", err)
		return
	}

	result, err := s.transcoder.Transform(ctx, task.Data, task.Options)
	if err != nil {
		slog.Error("Transform failed", "file_id", task.FileID, "error", err)
		s.recordFailure(ctx, task.FileID)
		return
	}

	key := objectKey(task.OwnerName, task.FileName)
	if err := s.store.Upload(ctx, key, bytes.NewReader(result.Data)); err != nil {
		slog.Error("Failed to write artifact", "file_id", task.FileID, "key", key, "error", err)
		if derr := s.store.Delete(ctx, key); derr != nil && !errors.Is(derr, ErrObjectNotFound) {
			slog.Error("Failed to remove partial artifact", "key", key, "error", derr)
		}
		s.recordFailure(ctx, task.FileID)
		return
	}

	outputHash := ContentHash(result.Data)
	params := CompleteFileParams{
		FileID:     task.FileID,
		OutputHash: outputHash,
		Width:      result.Width,
		Height:     result.Height,
		Blurhash:   result.Blurhash,
		Magnet:     magnetLink(outputHash, task.FileName),
	}
	if err := s.repository.CompleteFile(ctx, params); err != nil {
		slog.Error("Failed to record completion", "file_id", task.FileID, "error", err)
		s.recordFailure(ctx, task.FileID)
		return
	}

	slog.Info("Transform completed", "file_id", task.FileID, "output_hash", outputHash)
}

func (s *service) recordFailure(ctx context.Context, id uuid.UUID) {
	if err := s.failFile(ctx, id); err != nil {
		slog.Error("Failed to mark file failed", "file_id", id, "error", err)
	}
}

func (s *service) failFile(ctx context.Context, id uuid.UUID) error {
	file, err := s.repository.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if ok, terr := canFail(file.Status); !ok {
		return terr
	}
	return s.repository.UpdateFileStatus(ctx, id, StatusFailed)
}

// Status queries

func (s *service) GetMediaStatus(ctx context.Context, req MediaStatusRequest) (*MediaStatusResult, error) {
	ownerKey, _, err := s.resolver.Resolve(ctx, req.OwnerKey)
	if err != nil {
		return nil, err
	}

	file, err := s.repository.GetFileForOwner(ctx, req.FileID, ownerKey, s.publicKey)
	if err != nil {
		return nil, err
	}

	result := &MediaStatusResult{
		FileID:     file.ID,
		OwnerKey:   file.OwnerKey,
		FileName:   file.FileName,
		Status:     file.Status,
		OutputHash: file.OutputHash,
		Width:      file.Width,
		Height:     file.Height,
		Blurhash:   file.Blurhash,
		Magnet:     file.Magnet,
	}

	switch file.Status {
	case StatusCompleted:
		result.URL = s.urls.MediaURL(file.OwnerName, file.FileName)
		result.Description = "the requested file was found"
	case StatusFailed:
		result.Description = "there was a problem processing this file"
	case StatusProcessing:
		result.Description = "the requested file is processing"
	default:
		result.Description = "the requested file is still pending"
	}

	return result, nil
}

// Retrieval

func (s *service) OpenMedia(ctx context.Context, ownerName, filename string) (io.ReadCloser, error) {
	if err := ValidateOwnerName(ownerName); err != nil {
		return nil, err
	}
	if err := ValidateFileName(filename); err != nil {
		return nil, err
	}

	rc, err := s.store.Download(ctx, objectKey(ownerName, filename))
	if err == nil {
		return rc, nil
	}
	if errors.Is(err, ErrPathOutsideRoot) {
		return nil, err
	}
	if !errors.Is(err, ErrObjectNotFound) {
		return nil, &StorageError{Backend: s.storeName, Key: objectKey(ownerName, filename), Op: "download", Err: err}
	}

	// Valid path, no artifact: serve the configured fallback asset so the
	// response still looks like media.
	if s.fallbackAsset != "" {
		f, ferr := os.Open(s.fallbackAsset)
		if ferr == nil {
			return f, nil
		}
		slog.Warn("Fallback asset unavailable", "path", s.fallbackAsset, "error", ferr)
	}
	return nil, ErrFileNotFound
}

// Deletion

func (s *service) DeleteMedia(ctx context.Context, ownerKey string, fileID uuid.UUID) (int64, error) {
	effKey, _, err := s.resolver.Resolve(ctx, ownerKey)
	if err != nil {
		return 0, err
	}
	if effKey == s.publicKey {
		return 0, ErrForbidden
	}

	file, err := s.repository.GetFileForOwner(ctx, fileID, effKey, effKey)
	if err != nil {
		return 0, err
	}

	// A record with no output hash has no shared artifact yet; fan-out on
	// an empty hash would sweep every unfinished record for the owner.
	if file.OutputHash == "" {
		if err := s.repository.DeleteFile(ctx, file.ID); err != nil {
			return 0, &FileError{FileID: file.ID, Op: "delete", Err: err}
		}
		s.removeArtifact(ctx, file)
		return 1, nil
	}

	files, err := s.repository.ListFilesByOutputHash(ctx, effKey, file.OutputHash)
	if err != nil {
		return 0, err
	}

	count, err := s.repository.DeleteFilesByOutputHash(ctx, effKey, file.OutputHash)
	if err != nil {
		return 0, &FileError{FileID: file.ID, Op: "delete_by_hash", Err: err}
	}

	for _, f := range files {
		s.removeArtifact(ctx, f)
	}

	slog.Info("Media deleted", "file_id", fileID, "owner", effKey, "records", count)
	return count, nil
}

// removeArtifact deletes a stored artifact; a missing file is not an error.
func (s *service) removeArtifact(ctx context.Context, file *MediaFile) {
	err := s.store.Delete(ctx, objectKey(file.OwnerName, file.FileName))
	if err != nil && !errors.Is(err, ErrObjectNotFound) {
		slog.Error("Failed to remove artifact", "file_id", file.ID, "filename", file.FileName, "error", err)
	}
}

// Visibility and listing

func (s *service) SetVisibility(ctx context.Context, ownerKey string, fileID uuid.UUID, visible bool) error {
	effKey, _, err := s.resolver.Resolve(ctx, ownerKey)
	if err != nil {
		return err
	}
	if effKey == s.publicKey {
		return ErrForbidden
	}

	file, err := s.repository.GetFileForOwner(ctx, fileID, effKey, effKey)
	if err != nil {
		return err
	}

	file.Visible = visible
	file.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateFile(ctx, file); err != nil {
		return &FileError{FileID: fileID, Op: "visibility", Err: err}
	}
	return nil
}

func (s *service) ListMedia(ctx context.Context, ownerKey string) ([]*MediaFile, error) {
	effKey, _, err := s.resolver.Resolve(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	return s.repository.ListFiles(ctx, effKey)
}

// Tags

func (s *service) AddTags(ctx context.Context, fileID uuid.UUID, tags []string) error {
	if _, err := s.repository.GetFile(ctx, fileID); err != nil {
		return err
	}
	return s.repository.AddTags(ctx, fileID, tags)
}

func (s *service) GetTags(ctx context.Context, fileID uuid.UUID) ([]string, error) {
	if _, err := s.repository.GetFile(ctx, fileID); err != nil {
		return nil, err
	}
	return s.repository.GetTags(ctx, fileID)
}

// Helpers

func objectKey(ownerName, filename string) string {
	return ownerName + "/" + filename
}

func magnetLink(outputHash, filename string) string {
	return fmt.Sprintf("magnet:?xt=urn:sha256:%s&dn=%s", outputHash, url.QueryEscape(filename))
}
