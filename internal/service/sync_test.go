package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/shelfkeeper/shelfkeeper-server/internal/store"
	syncclient "github.com/shelfkeeper/shelfkeeper-server/internal/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSyncEnv(t *testing.T, handler http.HandlerFunc) (*SyncService, *store.Store) {
	t.Helper()
	log := testLogger()

	st, err := store.New(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	endpoint := ""
	if handler != nil {
		server := httptest.NewServer(handler)
		t.Cleanup(server.Close)
		endpoint = server.URL
	}
	return NewSyncService(st, syncclient.NewClient(endpoint, log), log), st
}

func TestSync_DisabledWithoutEndpoint(t *testing.T) {
	svc, _ := newSyncEnv(t, nil)
	assert.False(t, svc.Enabled())

	// Best-effort push on a disabled remote is a silent no-op.
	svc.PushBestEffort(context.Background())

	err := svc.Push(context.Background())
	assert.Error(t, err)
}

func TestSync_PushSendsSnapshot(t *testing.T) {
	var got syncclient.Envelope
	svc, st := newSyncEnv(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(syncclient.PushResponse{OK: true})
	})
	ctx := context.Background()

	require.NoError(t, st.ReplaceCatalog(ctx, []*domain.Book{{
		ID: "A0001", BookIDs: []string{"A0001"}, Title: "小王子",
		Genre: domain.GenrePictureBook, Year: 2019, Copies: 1, AvailableCopies: 1,
	}}))

	require.NoError(t, svc.Push(ctx))
	assert.Equal(t, "push", got.Action)
	require.NotNil(t, got.Payload)
	require.Len(t, got.Payload.Books, 1)
	assert.Equal(t, "A0001", got.Payload.Books[0].ID)
}

func TestSync_PushBestEffortSwallowsFailure(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newSyncEnv(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	// Must not panic or surface the failure.
	svc.PushBestEffort(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}

func TestSync_PullReplacesLocalState(t *testing.T) {
	svc, st := newSyncEnv(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(syncclient.PullResponse{
			OK: true,
			Data: &syncclient.Payload{
				Books: []syncclient.WireBook{
					{ID: "B0001", Title: "神奇樹屋", Genre: "橋梁書", Year: 2021, Copies: 1, AvailableCopies: 1},
				},
				BorrowedBooks: []syncclient.WireLoan{
					{ID: "loan-1", BookID: "B0001", BookTitle: "神奇樹屋", UserID: "amy",
						BorrowDate: "2024-03-01T09:00:00Z", DueDate: "2024-03-15T09:00:00Z"},
				},
				BoyouBooks: json.RawMessage(`[{"title":"舊書"}]`),
			},
		})
	})
	ctx := context.Background()

	// Pre-existing local state is replaced wholesale.
	require.NoError(t, st.ReplaceCatalog(ctx, []*domain.Book{{
		ID: "A0001", BookIDs: []string{"A0001"}, Title: "本地書",
		Genre: domain.GenrePictureBook, Copies: 1, AvailableCopies: 1,
	}}))

	books, loans, err := svc.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, books)
	assert.Equal(t, 1, loans)

	stored, err := st.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "B0001", stored[0].ID)
	assert.Equal(t, domain.GenreBridgeBook, stored[0].Genre)

	storedLoans, err := st.ListLoans(ctx)
	require.NoError(t, err)
	require.Len(t, storedLoans, 1)
	assert.Equal(t, "amy", storedLoans[0].UserID)

	archive, err := st.GetArchive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"舊書"}]`, string(archive))
}
