package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-media/pkg/simplemedia"
	"github.com/tendant/simple-media/pkg/simplemedia/repo/memory"
)

func newFile(ownerKey, originalHash string, kind simplemedia.MediaKind) *simplemedia.MediaFile {
	now := time.Now().UTC()
	return &simplemedia.MediaFile{
		ID:           uuid.New(),
		OwnerKey:     ownerKey,
		OwnerName:    ownerKey,
		OriginalHash: originalHash,
		FileName:     originalHash + ".png",
		Kind:         kind,
		Status:       simplemedia.StatusPending,
		Visible:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestFileCRUD(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	file := newFile("alice", "hash-a", simplemedia.KindMedia)
	require.NoError(t, repo.CreateFile(ctx, file))

	got, err := repo.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.OwnerKey, got.OwnerKey)
	assert.Equal(t, simplemedia.StatusPending, got.Status)

	// Mutating the returned copy must not leak into the store.
	got.Status = simplemedia.StatusFailed
	again, err := repo.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, simplemedia.StatusPending, again.Status)

	require.NoError(t, repo.DeleteFile(ctx, file.ID))
	_, err = repo.GetFile(ctx, file.ID)
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)

	assert.ErrorIs(t, repo.DeleteFile(ctx, file.ID), simplemedia.ErrFileNotFound)
}

func TestGetFileForOwner(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	private := newFile("alice", "hash-a", simplemedia.KindMedia)
	shared := newFile("public", "hash-b", simplemedia.KindMedia)
	require.NoError(t, repo.CreateFile(ctx, private))
	require.NoError(t, repo.CreateFile(ctx, shared))

	// Owner sees own records and public ones.
	_, err := repo.GetFileForOwner(ctx, private.ID, "alice", "public")
	assert.NoError(t, err)
	_, err = repo.GetFileForOwner(ctx, shared.ID, "alice", "public")
	assert.NoError(t, err)

	// Other owners see neither alice's records nor phantom IDs.
	_, err = repo.GetFileForOwner(ctx, private.ID, "bob", "public")
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)
	_, err = repo.GetFileForOwner(ctx, uuid.New(), "alice", "public")
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)
}

func TestCompleteFileRequiresProcessing(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	file := newFile("alice", "hash-a", simplemedia.KindMedia)
	require.NoError(t, repo.CreateFile(ctx, file))

	params := simplemedia.CompleteFileParams{
		FileID:     file.ID,
		OutputHash: "out-hash",
		Width:      100,
		Height:     100,
		Blurhash:   "bh",
		Magnet:     "magnet:?xt=urn:sha256:out-hash",
	}

	// Completing a pending file violates the state machine.
	assert.ErrorIs(t, repo.CompleteFile(ctx, params), simplemedia.ErrInvalidTransition)

	require.NoError(t, repo.UpdateFileStatus(ctx, file.ID, simplemedia.StatusProcessing))
	require.NoError(t, repo.CompleteFile(ctx, params))

	got, err := repo.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, simplemedia.StatusCompleted, got.Status)
	assert.Equal(t, "out-hash", got.OutputHash)
	assert.Equal(t, 100, got.Width)

	// Completion is terminal.
	assert.ErrorIs(t, repo.CompleteFile(ctx, params), simplemedia.ErrInvalidTransition)
}

func TestFindByOriginalHash(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	file := newFile("alice", "hash-a", simplemedia.KindMedia)
	require.NoError(t, repo.CreateFile(ctx, file))

	got, err := repo.FindByOriginalHash(ctx, "alice", "hash-a", simplemedia.KindMedia)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)

	// Lookup is scoped by owner and kind.
	_, err = repo.FindByOriginalHash(ctx, "bob", "hash-a", simplemedia.KindMedia)
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)
	_, err = repo.FindByOriginalHash(ctx, "alice", "hash-a", simplemedia.KindAvatar)
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)
}

func TestFindFixedSlotFile(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	avatar := newFile("alice", "hash-a", simplemedia.KindAvatar)
	require.NoError(t, repo.CreateFile(ctx, avatar))

	got, err := repo.FindFixedSlotFile(ctx, "alice", simplemedia.KindAvatar)
	require.NoError(t, err)
	assert.Equal(t, avatar.ID, got.ID)

	_, err = repo.FindFixedSlotFile(ctx, "alice", simplemedia.KindBanner)
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)
}

func TestDeleteFilesByOutputHash(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	a := newFile("alice", "hash-a", simplemedia.KindMedia)
	b := newFile("alice", "hash-b", simplemedia.KindMedia)
	c := newFile("bob", "hash-c", simplemedia.KindMedia)
	a.OutputHash = "shared"
	b.OutputHash = "shared"
	c.OutputHash = "shared"
	for _, f := range []*simplemedia.MediaFile{a, b, c} {
		require.NoError(t, repo.CreateFile(ctx, f))
	}

	files, err := repo.ListFilesByOutputHash(ctx, "alice", "shared")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	count, err := repo.DeleteFilesByOutputHash(ctx, "alice", "shared")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Other owners' records sharing the hash survive.
	_, err = repo.GetFile(ctx, c.ID)
	assert.NoError(t, err)
}

func TestListFilesNewestFirst(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	older := newFile("alice", "hash-a", simplemedia.KindMedia)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newFile("alice", "hash-b", simplemedia.KindMedia)
	require.NoError(t, repo.CreateFile(ctx, older))
	require.NoError(t, repo.CreateFile(ctx, newer))

	files, err := repo.ListFiles(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, newer.ID, files[0].ID)
	assert.Equal(t, older.ID, files[1].ID)
}

func TestRegisteredIdentities(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	repo.RegisterIdentity("alice-key", "alice")

	name, err := repo.LookupRegisteredName(ctx, "alice-key")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = repo.LookupRegisteredName(ctx, "ghost-key")
	assert.ErrorIs(t, err, simplemedia.ErrIdentityNotFound)
}

func TestTags(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	file := newFile("alice", "hash-a", simplemedia.KindMedia)
	require.NoError(t, repo.CreateFile(ctx, file))

	require.NoError(t, repo.AddTags(ctx, file.ID, []string{"cats", "pets"}))

	tags, err := repo.GetTags(ctx, file.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cats", "pets"}, tags)

	// (file, tag) pairs are unique, as the postgres primary key enforces.
	require.NoError(t, repo.AddTags(ctx, file.ID, []string{"cats", "birds"}))
	tags, err = repo.GetTags(ctx, file.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cats", "pets", "birds"}, tags)

	assert.ErrorIs(t, repo.AddTags(ctx, uuid.New(), []string{"x"}), simplemedia.ErrFileNotFound)
	_, err = repo.GetTags(ctx, uuid.New())
	assert.ErrorIs(t, err, simplemedia.ErrFileNotFound)
}
