package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractUploadURLs(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "empty body",
			body: "",
			want: nil,
		},
		{
			name: "no references",
			body: "<p>plain text</p>",
			want: nil,
		},
		{
			name: "double quotes",
			body: `<img src="/uploads/a.png">text<img src="/uploads/b.png">`,
			want: []string{"/uploads/a.png", "/uploads/b.png"},
		},
		{
			name: "single quotes",
			body: `<img src='/uploads/a.png'>`,
			want: []string{"/uploads/a.png"},
		},
		{
			name: "duplicates collapse to a set",
			body: `<img src="/uploads/a.png"><img src="/uploads/a.png">`,
			want: []string{"/uploads/a.png"},
		},
		{
			name: "paths outside uploads are ignored",
			body: `<img src="/static/logo.png"><img src="https://cdn.example.com/x.png">`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractUploadURLs(tt.body))
		})
	}
}

// fakeLinkStore mimics the media repository: a fixed url->id catalog and a
// mutable link set per content.
type fakeLinkStore struct {
	media map[string]string            // url -> media id
	links map[int64]map[string]struct{} // content id -> media ids
}

func newFakeLinkStore(media map[string]string) *fakeLinkStore {
	return &fakeLinkStore{media: media, links: map[int64]map[string]struct{}{}}
}

func (s *fakeLinkStore) DeleteContentLinks(_ context.Context, contentID int64) error {
	delete(s.links, contentID)
	return nil
}

func (s *fakeLinkStore) MediaIDsByURLs(_ context.Context, urls []string) ([]string, error) {
	ids := []string{}
	for _, u := range urls {
		if id, ok := s.media[u]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeLinkStore) InsertContentLink(_ context.Context, contentID int64, mediaID string) error {
	if s.links[contentID] == nil {
		s.links[contentID] = map[string]struct{}{}
	}
	s.links[contentID][mediaID] = struct{}{}
	return nil
}

func (s *fakeLinkStore) linkSet(contentID int64) map[string]struct{} {
	return s.links[contentID]
}

func TestReconcileDanglingReferencesIgnored(t *testing.T) {
	store := newFakeLinkStore(map[string]string{"/uploads/a.png": "media-a"})
	body := `<img src="/uploads/a.png">text<img src="/uploads/b.png">`

	require.NoError(t, ReconcileContentMedia(context.Background(), store, 1, body))

	// Only a.png exists in the media table; b.png is a no-op, not an error.
	assert.Equal(t, map[string]struct{}{"media-a": {}}, store.linkSet(1))
}

func TestReconcileIdempotent(t *testing.T) {
	store := newFakeLinkStore(map[string]string{
		"/uploads/a.png": "media-a",
		"/uploads/b.png": "media-b",
	})
	body := `<img src="/uploads/a.png"><img src="/uploads/b.png">`
	ctx := context.Background()

	require.NoError(t, ReconcileContentMedia(ctx, store, 1, body))
	first := store.linkSet(1)
	require.NoError(t, ReconcileContentMedia(ctx, store, 1, body))

	assert.Equal(t, first, store.linkSet(1))
	assert.Len(t, store.linkSet(1), 2)
}

func TestReconcileEmptyBodyClearsLinks(t *testing.T) {
	store := newFakeLinkStore(map[string]string{"/uploads/a.png": "media-a"})
	ctx := context.Background()

	require.NoError(t, ReconcileContentMedia(ctx, store, 1, `<img src="/uploads/a.png">`))
	require.Len(t, store.linkSet(1), 1)

	require.NoError(t, ReconcileContentMedia(ctx, store, 1, ""))
	assert.Empty(t, store.linkSet(1))
}

func TestReconcileReplacesStaleLinks(t *testing.T) {
	store := newFakeLinkStore(map[string]string{
		"/uploads/a.png": "media-a",
		"/uploads/b.png": "media-b",
	})
	ctx := context.Background()

	require.NoError(t, ReconcileContentMedia(ctx, store, 1, `<img src="/uploads/a.png">`))
	require.NoError(t, ReconcileContentMedia(ctx, store, 1, `<img src="/uploads/b.png">`))

	// The link set tracks the current body, not a historical union.
	assert.Equal(t, map[string]struct{}{"media-b": {}}, store.linkSet(1))
}
