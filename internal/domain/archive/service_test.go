package archive

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	entries map[string]*Entry
	failOn  string
}

func newMockRepo() *mockRepo {
	return &mockRepo{entries: make(map[string]*Entry)}
}

func (m *mockRepo) List(_ context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *mockRepo) Create(_ context.Context, e *Entry) error {
	if m.failOn == "create" {
		return assert.AnError
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

type mockStore struct {
	uploads  map[string][]byte
	deleted  []string
	presigns int
}

func newMockStore() *mockStore {
	return &mockStore{uploads: make(map[string][]byte)}
}

func (m *mockStore) Upload(_ context.Context, key, _ string, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.uploads[key] = raw
	return nil
}

func (m *mockStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	m.presigns++
	return "https://r2.example/" + key + "?sig=abc", nil
}

func (m *mockStore) Delete(_ context.Context, keys ...string) error {
	m.deleted = append(m.deleted, keys...)
	return nil
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func TestServiceUpload_GeneratesDerivatives(t *testing.T) {
	repo := newMockRepo()
	store := newMockStore()
	svc := NewService(repo, store, nil)

	entry, err := svc.Upload(context.Background(), UploadInput{
		Title: "blacktop finals 2025",
		Tags:  []string{"blacktop", "court"},
		Image: testJPEG(t, 3000, 2000),
	})
	require.NoError(t, err)

	require.Len(t, entry.Keys, 3)
	for _, size := range []string{SizeThumb, SizeWeb, SizeFull} {
		key, ok := entry.Keys[size]
		require.True(t, ok, "missing derivative %s", size)
		raw, ok := store.uploads[key]
		require.True(t, ok, "derivative %s not uploaded", size)

		img, err := imaging.Decode(bytes.NewReader(raw))
		require.NoError(t, err)
		assert.LessOrEqual(t, img.Bounds().Dx(), derivativeWidths[size])
	}

	stored, err := repo.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "blacktop finals 2025", stored.Title)
}

func TestServiceUpload_SmallImageNotUpscaled(t *testing.T) {
	repo := newMockRepo()
	store := newMockStore()
	svc := NewService(repo, store, nil)

	entry, err := svc.Upload(context.Background(), UploadInput{
		Title: "low-res scan",
		Image: testJPEG(t, 200, 150),
	})
	require.NoError(t, err)

	for size, key := range entry.Keys {
		img, err := imaging.Decode(bytes.NewReader(store.uploads[key]))
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx(), "derivative %s was resized", size)
	}
}

func TestServiceUpload_RejectsGarbage(t *testing.T) {
	svc := NewService(newMockRepo(), newMockStore(), nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		Title: "broken",
		Image: []byte("not an image"),
	})
	require.ErrorIs(t, err, ErrInvalidImage)
}

func TestServiceUpload_CreateFailureCleansObjects(t *testing.T) {
	repo := newMockRepo()
	repo.failOn = "create"
	store := newMockStore()
	svc := NewService(repo, store, nil)

	_, err := svc.Upload(context.Background(), UploadInput{
		Title: "doomed",
		Image: testJPEG(t, 800, 600),
	})
	require.Error(t, err)
	assert.Len(t, store.deleted, 3)
}

func TestServiceSignedURL(t *testing.T) {
	repo := newMockRepo()
	store := newMockStore()
	svc := NewService(repo, store, nil)

	entry, err := svc.Upload(context.Background(), UploadInput{
		Title: "drop 01 lookbook",
		Image: testJPEG(t, 1600, 900),
	})
	require.NoError(t, err)

	url, err := svc.SignedURL(context.Background(), entry.ID, SizeWeb)
	require.NoError(t, err)
	assert.Contains(t, url, entry.Keys[SizeWeb])

	_, err = svc.SignedURL(context.Background(), entry.ID, "original")
	require.ErrorIs(t, err, ErrUnknownDerivative)

	_, err = svc.SignedURL(context.Background(), "missing", SizeWeb)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceGet(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, newMockStore(), nil)

	entry, err := svc.Upload(context.Background(), UploadInput{
		Title: "court session",
		Image: testJPEG(t, 800, 600),
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Title, got.Title)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceDelete_RemovesObjects(t *testing.T) {
	repo := newMockRepo()
	store := newMockStore()
	svc := NewService(repo, store, nil)

	entry, err := svc.Upload(context.Background(), UploadInput{
		Title: "to remove",
		Image: testJPEG(t, 800, 600),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), entry.ID))
	assert.Len(t, store.deleted, 3)
	_, err = repo.GetByID(context.Background(), entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
