package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shelfkeeper/shelfkeeper-server/internal/domain"
	"github.com/shelfkeeper/shelfkeeper-server/internal/errors"
)

// State is the full library state carried over a push or pull.
type State struct {
	Books   []*domain.Book
	Loans   []*domain.LoanRecord
	Archive json.RawMessage
}

// Client talks to the remote sheet store.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a sync client for the given endpoint. An empty endpoint
// is allowed; calls then fail with a validation error, which callers treat
// as "sync not configured".
func NewClient(endpoint string, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Enabled reports whether a remote endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// Push uploads the full library state, replacing whatever the remote holds.
func (c *Client) Push(ctx context.Context, state *State) error {
	if !c.Enabled() {
		return errors.Validation("sync endpoint not configured")
	}

	payload := &Payload{
		Books:         make([]WireBook, 0, len(state.Books)),
		BorrowedBooks: make([]WireLoan, 0, len(state.Loans)),
		BoyouBooks:    state.Archive,
	}
	for _, book := range state.Books {
		payload.Books = append(payload.Books, bookToWire(book))
	}
	for _, loan := range state.Loans {
		payload.BorrowedBooks = append(payload.BorrowedBooks, loanToWire(loan))
	}

	var resp PushResponse
	if err := c.post(ctx, Envelope{Action: "push", Payload: payload}, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return errors.Internalf("remote rejected push: %s", resp.Error)
	}

	c.logger.Info("state pushed",
		"books", len(payload.Books),
		"loans", len(payload.BorrowedBooks),
	)
	return nil
}

// Pull downloads the full library state from the remote.
func (c *Client) Pull(ctx context.Context) (*State, error) {
	if !c.Enabled() {
		return nil, errors.Validation("sync endpoint not configured")
	}

	var resp PullResponse
	if err := c.post(ctx, Envelope{Action: "pull"}, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, errors.Internalf("remote rejected pull: %s", resp.Error)
	}
	// A missing data section must not be mistaken for an empty library: the
	// caller replaces local state wholesale with whatever we return.
	if resp.Data == nil {
		return nil, errors.Internal("pull response has no data section")
	}

	state := &State{
		Books:   make([]*domain.Book, 0, len(resp.Data.Books)),
		Loans:   make([]*domain.LoanRecord, 0, len(resp.Data.BorrowedBooks)),
		Archive: resp.Data.BoyouBooks,
	}
	for _, w := range resp.Data.Books {
		state.Books = append(state.Books, bookFromWire(w))
	}
	for i, w := range resp.Data.BorrowedBooks {
		loan, err := loanFromWire(w)
		if err != nil {
			return nil, errors.Internalf("pull: loan row %d: %v", i, err)
		}
		state.Loans = append(state.Loans, loan)
	}

	c.logger.Info("state pulled",
		"books", len(state.Books),
		"loans", len(state.Loans),
	)
	return state, nil
}

func (c *Client) post(ctx context.Context, envelope Envelope, out any) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", envelope.Action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", envelope.Action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", envelope.Action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Internalf("remote returned status %d for %s", resp.StatusCode, envelope.Action)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", envelope.Action, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", envelope.Action, err)
	}
	return nil
}
