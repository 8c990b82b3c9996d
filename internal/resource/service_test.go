package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vive890/academic-resource-depot/internal/auth"
)

func TestIntakeCreatesResourceWithoutPreview(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	uploader := member()

	result, err := service.Intake(context.Background(), uploader, IntakeRequest{
		Title:    "Calculus Notes",
		Category: CategoryNotes,
		File:     upload("calculus.pdf", "application/pdf", 2<<20),
	})
	require.NoError(t, err)
	require.Nil(t, result.Warning)

	res := result.Resource
	assert.Equal(t, FileTypePDF, res.FileType)
	assert.Nil(t, res.PreviewKey)
	assert.Equal(t, int64(0), res.DownloadCount)
	assert.Equal(t, uploader.ID, res.UploaderID)
	assert.True(t, strings.HasPrefix(res.ObjectKey, uploader.ID.String()+"/"))
	assert.Equal(t, int64(2<<20), int64(len(blobs.objects[res.ObjectKey])))

	found, err := service.Search(context.Background(), Filter{Category: CategoryNotes})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, res.ID, found[0].ID)

	_, body, err := service.Download(context.Background(), member(), res.ID)
	require.NoError(t, err)
	body.Close()
	require.NoError(t, service.Drain(context.Background()))

	stored, err := service.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.DownloadCount)
}

func TestIntakeUnknownTypeDegradesToPDF(t *testing.T) {
	service := NewService(newFakeCatalog(), newFakeBlobStore(), Options{})

	result, err := service.Intake(context.Background(), member(), IntakeRequest{
		Title:    "Mystery",
		Category: CategoryProjects,
		File:     upload("blob.bin", "application/octet-stream", 128),
	})
	require.NoError(t, err)
	assert.Equal(t, FileTypePDF, result.Resource.FileType)
}

func TestIntakeStoresPreviewAndURL(t *testing.T) {
	blobs := newFakeBlobStore()
	service := NewService(newFakeCatalog(), blobs, Options{})
	uploader := member()
	preview := upload("cover.png", "image/png", 512)

	result, err := service.Intake(context.Background(), uploader, IntakeRequest{
		Title:    "Slides",
		Category: CategoryPPTs,
		File:     upload("deck.pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", 4096),
		Preview:  &preview,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Resource.PreviewKey)
	assert.True(t, strings.HasPrefix(*result.Resource.PreviewKey, uploader.ID.String()+"/previews/"))
	assert.Equal(t, "https://blobs.test/"+*result.Resource.PreviewKey, result.Resource.PreviewURL)
	assert.Equal(t, FileTypePPTX, result.Resource.FileType)
}

func TestIntakePrimaryFailureLeavesNoMetadata(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	blobs.failPut = func(key string) bool { return !strings.Contains(key, "/previews/") }
	service := NewService(repo, blobs, Options{})
	preview := upload("cover.png", "image/png", 512)

	_, err := service.Intake(context.Background(), member(), IntakeRequest{
		Title:    "Calculus Notes",
		Category: CategoryNotes,
		File:     upload("calculus.pdf", "application/pdf", 1024),
		Preview:  &preview,
	})

	var storageErr *StorageWriteError
	require.ErrorAs(t, err, &storageErr)
	assert.Empty(t, repo.records)
	assert.Equal(t, 1, blobs.putCalls, "preview must not be attempted")
}

func TestIntakePreviewFailureIsDegradedSuccess(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	blobs.failPut = func(key string) bool { return strings.Contains(key, "/previews/") }
	service := NewService(repo, blobs, Options{})
	preview := upload("cover.png", "image/png", 512)

	result, err := service.Intake(context.Background(), member(), IntakeRequest{
		Title:    "Calculus Notes",
		Category: CategoryNotes,
		File:     upload("calculus.pdf", "application/pdf", 1024),
		Preview:  &preview,
	})
	require.NoError(t, err)

	var previewErr *PreviewWriteError
	require.ErrorAs(t, result.Warning, &previewErr)
	assert.Nil(t, result.Resource.PreviewKey)
	require.Len(t, repo.records, 1)
	assert.Nil(t, repo.records[result.Resource.ID].PreviewKey)
}

func TestIntakeMetadataFailureReportsOrphans(t *testing.T) {
	repo := newFakeCatalog()
	repo.insertErr = errors.New("connection reset")
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	preview := upload("cover.png", "image/png", 512)

	_, err := service.Intake(context.Background(), member(), IntakeRequest{
		Title:    "Calculus Notes",
		Category: CategoryNotes,
		File:     upload("calculus.pdf", "application/pdf", 1024),
		Preview:  &preview,
	})

	var metadataErr *MetadataWriteError
	require.ErrorAs(t, err, &metadataErr)
	assert.Len(t, metadataErr.OrphanedKeys, 2)
	for _, key := range metadataErr.OrphanedKeys {
		assert.Contains(t, blobs.objects, key, "orphaned blobs are not rolled back")
	}
}

func TestIntakeRejectsBeforeAnyIO(t *testing.T) {
	blobs := newFakeBlobStore()
	service := NewService(newFakeCatalog(), blobs, Options{})
	badPreview := upload("cover.svg", "image/svg+xml", 512)

	cases := []struct {
		name     string
		identity auth.Identity
		req      IntakeRequest
	}{
		{"unauthenticated", auth.Identity{}, IntakeRequest{Title: "x", Category: CategoryBooks, File: upload("a.pdf", "application/pdf", 1)}},
		{"missing title", member(), IntakeRequest{Category: CategoryBooks, File: upload("a.pdf", "application/pdf", 1)}},
		{"bad category", member(), IntakeRequest{Title: "x", Category: "Videos", File: upload("a.pdf", "application/pdf", 1)}},
		{"too large", member(), IntakeRequest{Title: "x", Category: CategoryBooks, File: Upload{FileName: "a.pdf", ContentType: "application/pdf", SizeBytes: 50<<20 + 1, Body: strings.NewReader("")}}},
		{"bad preview", member(), IntakeRequest{Title: "x", Category: CategoryBooks, File: upload("a.pdf", "application/pdf", 1), Preview: &badPreview}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Intake(context.Background(), tc.identity, tc.req)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, blobs.putCalls)
}

func TestDownloadRejectsUnauthenticatedBeforeAnyAccess(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	res := seed(repo, blobs, member().ID, CategoryBooks, "Algebra")

	_, _, err := service.Download(context.Background(), auth.Identity{}, res.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.NoError(t, service.Drain(context.Background()))

	assert.Zero(t, repo.getCalls)
	assert.Zero(t, blobs.openCalls)
	assert.Equal(t, int64(0), repo.records[res.ID].DownloadCount)
}

func TestConcurrentDownloadsNeverLoseIncrements(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	res := seed(repo, blobs, member().ID, CategoryNotes, "Physics")

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, body, err := service.Download(context.Background(), member(), res.ID)
			if assert.NoError(t, err) {
				_, _ = io.Copy(io.Discard, body)
				body.Close()
			}
		}()
	}
	wg.Wait()
	require.NoError(t, service.Drain(context.Background()))

	stored, err := repo.Get(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.DownloadCount)
}

func TestDownloadSurvivesCounterFailure(t *testing.T) {
	repo := newFakeCatalog()
	repo.incrementErr = errors.New("rpc unavailable")
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	res := seed(repo, blobs, member().ID, CategoryNotes, "Physics")

	_, body, err := service.Download(context.Background(), member(), res.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, blobs.objects[res.ObjectKey], data)
	require.NoError(t, service.Drain(context.Background()))
}

func TestDownloadCountsEvenWhenObjectIsMissing(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	res := seed(repo, blobs, member().ID, CategoryNotes, "Physics")
	delete(blobs.objects, res.ObjectKey)

	_, _, err := service.Download(context.Background(), member(), res.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, service.Drain(context.Background()))

	assert.Equal(t, int64(1), repo.records[res.ID].DownloadCount)
}

func TestCounterOutlivesCancelledRequest(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	res := seed(repo, blobs, member().ID, CategoryNotes, "Physics")

	ctx, cancel := context.WithCancel(context.Background())
	_, body, err := service.Download(ctx, member(), res.ID)
	require.NoError(t, err)
	body.Close()
	cancel()

	require.NoError(t, service.Drain(context.Background()))
	assert.Equal(t, int64(1), repo.records[res.ID].DownloadCount)
}

func TestDrainHonoursContext(t *testing.T) {
	repo := newFakeCatalog()
	release := make(chan struct{})
	repo.incrementHook = func() { <-release }
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{CounterTimeout: time.Second})
	res := seed(repo, blobs, member().ID, CategoryNotes, "Physics")

	_, body, err := service.Download(context.Background(), member(), res.ID)
	require.NoError(t, err)
	body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, service.Drain(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, service.Drain(context.Background()))
}

func TestDeleteByOwnerRemovesBlobsThenMetadata(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	owner := member()
	res := seedWithPreview(repo, blobs, owner.ID)

	require.NoError(t, service.Delete(context.Background(), owner, res.ID))

	assert.Equal(t, []string{*res.PreviewKey, res.ObjectKey}, blobs.removed)
	assert.NotContains(t, repo.records, res.ID)
}

func TestDeleteRequiresOwnerOrAdmin(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	res := seed(repo, blobs, member().ID, CategoryBooks, "Algebra")

	err := service.Delete(context.Background(), member(), res.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, blobs.removed)

	err = service.Delete(context.Background(), auth.Identity{}, res.ID)
	require.ErrorIs(t, err, ErrUnauthenticated)

	admin := auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}
	require.NoError(t, service.Delete(context.Background(), admin, res.ID))
	assert.NotContains(t, repo.records, res.ID)

	err = service.Delete(context.Background(), admin, res.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteKeepsMetadataWhenBlobRemovalFails(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	blobs.removeErr = errors.New("minio down")
	service := NewService(repo, blobs, Options{})
	owner := member()
	res := seed(repo, blobs, owner.ID, CategoryBooks, "Algebra")

	require.Error(t, service.Delete(context.Background(), owner, res.ID))
	assert.Contains(t, repo.records, res.ID)
}

func TestRemoveUploaderBlobs(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	owner := member().ID
	seed(repo, blobs, owner, CategoryBooks, "One")
	seedWithPreview(repo, blobs, owner)
	other := seed(repo, blobs, uuid.New(), CategoryBooks, "Other")

	count, err := service.RemoveUploaderBlobs(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, blobs.removed, 3)
	assert.Contains(t, blobs.objects, other.ObjectKey)
}

func TestListByUploader(t *testing.T) {
	repo := newFakeCatalog()
	blobs := newFakeBlobStore()
	service := NewService(repo, blobs, Options{})
	owner := member()
	mine := seed(repo, blobs, owner.ID, CategoryBooks, "Mine")
	seed(repo, blobs, uuid.New(), CategoryBooks, "Theirs")

	list, err := service.ListByUploader(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = service.ListByUploader(context.Background(), auth.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

// --- helpers & fakes ---

func member() auth.Identity {
	return auth.Identity{ID: uuid.New(), Email: "student@example.com", Role: auth.RoleMember}
}

func upload(name, contentType string, size int) Upload {
	return Upload{
		FileName:    name,
		ContentType: contentType,
		SizeBytes:   int64(size),
		Body:        bytes.NewReader(bytes.Repeat([]byte("x"), size)),
	}
}

func seed(repo *fakeCatalog, blobs *fakeBlobStore, uploader uuid.UUID, category Category, title string) Resource {
	res := Resource{
		ID:         uuid.New(),
		Title:      title,
		Category:   category,
		FileType:   FileTypePDF,
		ObjectKey:  documentKey(uploader, "doc.pdf"),
		FileName:   "doc.pdf",
		SizeBytes:  7,
		UploaderID: uploader,
	}
	blobs.objects[res.ObjectKey] = []byte("payload")
	stored, _ := repo.Insert(context.Background(), res)
	return stored
}

func seedWithPreview(repo *fakeCatalog, blobs *fakeBlobStore, uploader uuid.UUID) Resource {
	key := previewKey(uploader, "cover.png")
	blobs.objects[key] = []byte("png")
	res := Resource{
		ID:         uuid.New(),
		Title:      "With preview",
		Category:   CategoryNotes,
		FileType:   FileTypePDF,
		ObjectKey:  documentKey(uploader, "doc.pdf"),
		FileName:   "doc.pdf",
		SizeBytes:  7,
		PreviewKey: &key,
		UploaderID: uploader,
	}
	blobs.objects[res.ObjectKey] = []byte("payload")
	stored, _ := repo.Insert(context.Background(), res)
	return stored
}

type fakeCatalog struct {
	mu            sync.Mutex
	records       map[uuid.UUID]Resource
	insertErr     error
	incrementErr  error
	incrementHook func()
	getCalls      int
	clock         time.Time
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{records: make(map[uuid.UUID]Resource), clock: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeCatalog) Insert(ctx context.Context, res Resource) (Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Resource{}, f.insertErr
	}
	f.clock = f.clock.Add(time.Minute)
	res.CreatedAt = f.clock
	res.Uploader = Uploader{Email: "student@example.com"}
	f.records[res.ID] = res
	return res, nil
}

func (f *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	res, ok := f.records[id]
	if !ok {
		return Resource{}, ErrNotFound
	}
	return res, nil
}

func (f *fakeCatalog) Search(ctx context.Context, filter Filter) ([]Resource, error) {
	if _, err := buildSearchQuery(filter); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	contains := func(field *string, needle string) bool {
		return field != nil && strings.Contains(strings.ToLower(*field), strings.ToLower(needle))
	}

	var out []Resource
	for _, res := range f.records {
		title := res.Title
		if filter.Text != "" && !contains(&title, filter.Text) && !contains(res.Description, filter.Text) {
			continue
		}
		if filter.Category != "" && res.Category != filter.Category {
			continue
		}
		if filter.FileType != "" && res.FileType != filter.FileType {
			continue
		}
		if filter.Subject != "" && !contains(res.Subject, filter.Subject) {
			continue
		}
		if filter.UploaderID != nil && res.UploaderID != *filter.UploaderID {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCatalog) IncrementDownloads(ctx context.Context, id uuid.UUID) (int64, error) {
	if f.incrementHook != nil {
		f.incrementHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return 0, f.incrementErr
	}
	res, ok := f.records[id]
	if !ok {
		return 0, ErrNotFound
	}
	res.DownloadCount++
	f.records[id] = res
	return res.DownloadCount, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return ErrNotFound
	}
	delete(f.records, id)
	return nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failPut   func(key string) bool
	removeErr error
	putCalls  int
	openCalls int
	removed   []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.failPut != nil && f.failPut(key) {
		return errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	data, ok := f.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) PublicURL(ctx context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}
