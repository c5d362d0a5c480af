package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saikiran-Avusula/portfolio/internal/blob"
	"github.com/Saikiran-Avusula/portfolio/internal/database"
	"github.com/Saikiran-Avusula/portfolio/internal/logger"
)

// flakyStore wraps a real store and fails selected operations.
type flakyStore struct {
	blob.Store
	failPut    func(key string) bool
	failDelete func(key string) bool
	failGet    bool
	failList   bool
}

func (f *flakyStore) Put(ctx context.Context, key, contentType string, data []byte) (blob.Object, error) {
	if f.failPut != nil && f.failPut(key) {
		return blob.Object{}, errors.New("put refused")
	}
	return f.Store.Put(ctx, key, contentType, data)
}

func (f *flakyStore) Get(ctx context.Context, key string) (blob.Object, []byte, error) {
	if f.failGet {
		return blob.Object{}, nil, errors.New("store unreachable")
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) List(ctx context.Context, prefix string) ([]blob.Object, error) {
	if f.failList {
		return nil, errors.New("list refused")
	}
	return f.Store.List(ctx, prefix)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.failDelete != nil && f.failDelete(key) {
		return errors.New("delete refused")
	}
	return f.Store.Delete(ctx, key)
}

func newTestStore(t *testing.T) *flakyStore {
	t.Helper()
	db, err := database.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &flakyStore{Store: blob.NewSQLiteStore(db)}
}

func newTestService(t *testing.T, kind Kind, store blob.Store) *Service {
	t.Helper()
	svc := NewService(kind, store, logger.NewNop(), "/assets")
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	svc.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func pdfFile(name string, body string) File {
	return File{Name: name, ContentType: "application/pdf", Size: int64(len(body)), Content: strings.NewReader(body)}
}

func TestUpload_ValidResumeIsRetrievable(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, pdfFile("cv.pdf", "%PDF-1.4 first"))
	require.NoError(t, err)
	assert.Equal(t, "resume/id-1.pdf", rec.Key)
	assert.Equal(t, "cv.pdf", rec.FileName)
	assert.Equal(t, int64(14), rec.FileSize)
	assert.Equal(t, "/assets/resume", rec.URL)
	assert.Equal(t, "/assets/resume?download=1", rec.DownloadURL)
	assert.Equal(t, 0, rec.Pages, "unparseable documents report no pages")

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Key, got.Key)
	assert.True(t, rec.UploadedAt.Equal(got.UploadedAt))

	_, data, err := svc.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 first", string(data))
}

func TestUpload_SecondUploadReplacesFirst(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	first, err := svc.Upload(ctx, pdfFile("old.pdf", "%PDF old"))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, pdfFile("new.pdf", "%PDF new"))
	require.NoError(t, err)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Key, got.Key)
	assert.Equal(t, "new.pdf", got.FileName)

	_, _, err = store.Get(ctx, first.Key)
	assert.ErrorIs(t, err, blob.ErrNotFound, "old content must be gone")

	objects, err := store.List(ctx, "resume/")
	require.NoError(t, err)
	assert.Len(t, objects, 2, "only the manifest and the current content remain")
}

func TestUpload_RejectsWrongTypeAndKeepsCurrent(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	current, err := svc.Upload(ctx, pdfFile("cv.pdf", "%PDF keep"))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, File{Name: "cv.docx", ContentType: "application/msword", Size: 4, Content: strings.NewReader("docx")})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Only PDF files are allowed", vErr.Message)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, current.Key, got.Key)
}

func TestUpload_SizeLimits(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		ct       string
		declared int64
		actual   int
		want     string
	}{
		{"resume declared too large", Resume, "application/pdf", 10*megabyte + 1, 10, "File size must be less than 10MB"},
		{"resume body larger than declared", Resume, "application/pdf", 10, 10*megabyte + 1, "File size must be less than 10MB"},
		{"image declared too large", ProfileImage, "image/png", 5*megabyte + 1, 10, "Image size must be less than 5MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.kind, newTestStore(t))
			_, err := svc.Upload(context.Background(), File{
				Name:        "f",
				ContentType: tt.ct,
				Size:        tt.declared,
				Content:     bytes.NewReader(make([]byte, tt.actual)),
			})
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.want, vErr.Message)
		})
	}
}

func TestUpload_ExactLimitIsAccepted(t *testing.T) {
	svc := newTestService(t, ProfileImage, newTestStore(t))
	_, err := svc.Upload(context.Background(), File{
		Name:        "me.png",
		ContentType: "image/png",
		Size:        5 * megabyte,
		Content:     bytes.NewReader(make([]byte, 5*megabyte)),
	})
	assert.NoError(t, err)
}

func TestUpload_ImageTypes(t *testing.T) {
	svc := newTestService(t, ProfileImage, newTestStore(t))
	ctx := context.Background()

	rec, err := svc.Upload(ctx, File{Name: "me.JPG", ContentType: "image/jpeg", Size: 3, Content: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Equal(t, "profile-image/id-1.jpg", rec.Key)

	_, err = svc.Upload(ctx, File{Name: "me.pdf", ContentType: "application/pdf", Size: 3, Content: strings.NewReader("pdf")})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Only image files are allowed", vErr.Message)
}

func TestUpload_SniffsUndeclaredType(t *testing.T) {
	svc := newTestService(t, ProfileImage, newTestStore(t))
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

	rec, err := svc.Upload(context.Background(), File{Name: "blob", ContentType: "application/octet-stream", Size: int64(len(png)), Content: bytes.NewReader(png)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", rec.ContentType)

	_, err = svc.Upload(context.Background(), File{Name: "blob", Size: 5, Content: strings.NewReader("hello")})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestUpload_MissingOrEmptyFile(t *testing.T) {
	svc := newTestService(t, Resume, newTestStore(t))

	_, err := svc.Upload(context.Background(), File{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "No file provided", vErr.Message)

	_, err = svc.Upload(context.Background(), pdfFile("empty.pdf", ""))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "File is empty", vErr.Message)
}

func TestUpload_OldDeleteFailureDoesNotBlock(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	first, err := svc.Upload(ctx, pdfFile("a.pdf", "%PDF a"))
	require.NoError(t, err)

	store.failDelete = func(key string) bool { return key == first.Key }
	second, err := svc.Upload(ctx, pdfFile("b.pdf", "%PDF b"))
	require.NoError(t, err)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Key, got.Key)

	// The orphan is picked up later.
	store.failDelete = nil
	removed, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, _, err = store.Get(ctx, first.Key)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUpload_ManifestFailureKeepsPrevious(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	first, err := svc.Upload(ctx, pdfFile("a.pdf", "%PDF a"))
	require.NoError(t, err)

	store.failPut = func(key string) bool { return strings.HasSuffix(key, manifestName) }
	_, err = svc.Upload(ctx, pdfFile("b.pdf", "%PDF b"))
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "upload", tErr.Op)

	store.failPut = nil
	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Key, got.Key)

	objects, err := store.List(ctx, "resume/")
	require.NoError(t, err)
	assert.Len(t, objects, 2, "uncommitted content was removed")
}

func TestUpload_ContentPutFailure(t *testing.T) {
	store := newTestStore(t)
	store.failPut = func(string) bool { return true }
	svc := newTestService(t, Resume, store)

	_, err := svc.Upload(context.Background(), pdfFile("a.pdf", "%PDF a"))
	var tErr *TransportError
	assert.ErrorAs(t, err, &tErr)
}

func TestGetAndDelete_EmptySlot(t *testing.T) {
	svc := newTestService(t, Resume, newTestStore(t))
	ctx := context.Background()

	rec, err := svc.Get(ctx)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	assert.NoError(t, svc.Delete(ctx))

	rec, data, err := svc.Open(ctx)
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Nil(t, data)
}

func TestDelete_RemovesRecordAndContent(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, ProfileImage, store)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, File{Name: "me.png", ContentType: "image/png", Size: 3, Content: strings.NewReader("png")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx))

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, _, err = store.Get(ctx, rec.Key)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestGet_TransportFailureIsDistinctFromAbsence(t *testing.T) {
	store := newTestStore(t)
	store.failGet = true
	svc := newTestService(t, Resume, store)

	rec, err := svc.Get(context.Background())
	assert.Nil(t, rec)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "get", tErr.Op)
}

func TestOpen_DanglingManifestIsAbsent(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	rec, err := svc.Upload(ctx, pdfFile("a.pdf", "%PDF a"))
	require.NoError(t, err)
	require.NoError(t, store.Store.Delete(ctx, rec.Key))

	got, data, err := svc.Open(ctx)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, data)
}

func TestSweep_ListFailure(t *testing.T) {
	store := newTestStore(t)
	store.failList = true
	svc := newTestService(t, Resume, store)

	_, err := svc.Sweep(context.Background())
	var tErr *TransportError
	assert.ErrorAs(t, err, &tErr)
}

type publicStore struct {
	blob.Store
}

func (publicStore) PublicURL(key string) (string, bool) {
	return "https://cdn.example.com/" + key, true
}

func TestRecordURL_PrefersPublicURL(t *testing.T) {
	svc := newTestService(t, Resume, publicStore{Store: newTestStore(t)})

	rec, err := svc.Upload(context.Background(), pdfFile("cv.pdf", "%PDF x"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/resume/id-1.pdf", rec.URL)
	assert.Equal(t, "/assets/resume?download=1", rec.DownloadURL)
}

func TestCountPDFPages_Garbage(t *testing.T) {
	assert.Equal(t, 0, countPDFPages([]byte("not a pdf at all")))
	assert.Equal(t, 0, countPDFPages(nil))
}

func TestDeleteIfCurrent(t *testing.T) {
	store := newTestStore(t)
	svc := newTestService(t, Resume, store)
	ctx := context.Background()

	deleted, err := svc.DeleteIfCurrent(ctx, "/assets/resume")
	require.NoError(t, err)
	assert.False(t, deleted, "empty slot")

	rec, err := svc.Upload(ctx, pdfFile("cv.pdf", "%PDF current"))
	require.NoError(t, err)

	for _, ref := range []string{"", "resume/someone-else.pdf", "https://cdn.example.com/other.pdf"} {
		deleted, err := svc.DeleteIfCurrent(ctx, ref)
		require.NoError(t, err)
		assert.False(t, deleted, ref)
	}
	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got, "stale refs leave the current record alone")

	deleted, err = svc.DeleteIfCurrent(ctx, "https://portfolio.example.com"+rec.DownloadURL)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
