package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	domainerrors "github.com/shelfkeeper/shelfkeeper-server/internal/errors"
	"github.com/shelfkeeper/shelfkeeper-server/internal/metadata/bookstw"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetadataEnv(t *testing.T, handler http.HandlerFunc) (*MetadataService, *store.Store) {
	t.Helper()
	log := testLogger()

	st, err := store.New(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := bookstw.NewClient(log).WithBaseURL(server.URL + "/search/query/key/")
	return NewMetadataService(st, client, log), st
}

const enrichHit = `
<h3><a href="/x">小王子</a></h3>
<div class="author">作者：安東尼·聖修伯里</div>
<img class="cover" src="https://im.books.com.tw/cover/1.jpg">`

func TestEnrich_FillsMissingFields(t *testing.T) {
	var gotPath string
	svc, st := newMetadataEnv(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		io.WriteString(w, enrichHit)
	})
	ctx := context.Background()

	require.NoError(t, st.AppendBooks(ctx, []*domain.Book{{
		ID: "A0001", BookIDs: []string{"A0001"}, Title: "小王子2",
		Genre: domain.GenrePictureBook, Copies: 1, AvailableCopies: 1,
	}}))

	book, err := svc.Enrich(ctx, "A0001")
	require.NoError(t, err)
	assert.Equal(t, "安東尼·聖修伯里", book.Author)
	assert.Equal(t, "https://im.books.com.tw/cover/1.jpg", book.CoverURL)

	// The lookup uses the cleaned stem, not the decorated title.
	assert.True(t, strings.Contains(gotPath, url.PathEscape("小王子")))
	assert.False(t, strings.Contains(gotPath, url.PathEscape("小王子2")))

	stored, err := st.GetBook(ctx, "A0001")
	require.NoError(t, err)
	assert.Equal(t, book.Author, stored.Author)
}

func TestEnrich_NeverOverwrites(t *testing.T) {
	svc, st := newMetadataEnv(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, enrichHit)
	})
	ctx := context.Background()

	require.NoError(t, st.AppendBooks(ctx, []*domain.Book{{
		ID: "A0001", BookIDs: []string{"A0001"}, Title: "小王子",
		Author: "手動填寫", Genre: domain.GenrePictureBook, Copies: 1, AvailableCopies: 1,
	}}))

	book, err := svc.Enrich(ctx, "A0001")
	require.NoError(t, err)
	assert.Equal(t, "手動填寫", book.Author, "catalog data wins over scraped data")
	assert.NotEmpty(t, book.CoverURL, "missing fields are still filled")
}

func TestEnrich_LookupFailureIsBestEffort(t *testing.T) {
	svc, st := newMetadataEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx := context.Background()

	require.NoError(t, st.AppendBooks(ctx, []*domain.Book{{
		ID: "A0001", BookIDs: []string{"A0001"}, Title: "小王子",
		Genre: domain.GenrePictureBook, Copies: 1, AvailableCopies: 1,
	}}))

	book, err := svc.Enrich(ctx, "A0001")
	require.NoError(t, err, "a failed lookup never surfaces")
	assert.Empty(t, book.Author)
}

func TestEnrich_BookNotFound(t *testing.T) {
	svc, _ := newMetadataEnv(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := svc.Enrich(context.Background(), "A0404")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
