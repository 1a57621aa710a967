package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/courier"
	"github.com/coregx/courier/cmd/courier-server/internal/auth"
	"github.com/coregx/courier/model"
)

const testSecret = "handlers-test-secret"

// memRepo is an in-memory MessageRepository for handler tests.
type memRepo struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]model.Message
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[int64]model.Message)}
}

func (r *memRepo) Load(_ context.Context, id int64) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.rows[id]
	if !ok {
		return model.Message{}, courier.ErrNotFound
	}
	return msg, nil
}

func (r *memRepo) FindOne(ctx context.Context, filter courier.Filter) (model.Message, error) {
	matches, err := r.Find(ctx, filter)
	if err != nil {
		return model.Message{}, err
	}
	if len(matches) == 0 {
		return model.Message{}, courier.ErrNotFound
	}
	return matches[0], nil
}

func (r *memRepo) Find(_ context.Context, filter courier.Filter) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []model.Message
	for _, msg := range r.rows {
		if filter.RecipientID != "" && msg.RecipientID != filter.RecipientID {
			continue
		}
		if filter.Channel != "" && msg.Channel != filter.Channel {
			continue
		}
		if filter.Status != "" && msg.Status != filter.Status {
			continue
		}
		matches = append(matches, msg)
	}
	return matches, nil
}

func (r *memRepo) Save(_ context.Context, m model.Message) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == 0 {
		r.seq++
		m.ID = r.seq
	}
	r.rows[m.ID] = m
	return m, nil
}

func (r *memRepo) UpdateByID(_ context.Context, id int64, patch courier.Patch) (model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.rows[id]
	if !ok {
		return model.Message{}, courier.ErrNotFound
	}
	if patch.Status != nil {
		msg.Status = *patch.Status
	}
	if patch.ReadAt != nil {
		msg.ReadAt = *patch.ReadAt
	}
	if patch.RepliedAt != nil {
		msg.RepliedAt = *patch.RepliedAt
	}
	r.rows[id] = msg
	return msg, nil
}

func (r *memRepo) CountUnread(_ context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, msg := range r.rows {
		if msg.RecipientID == recipientID && msg.Status == model.StatusUnread {
			count++
		}
	}
	return count, nil
}

type fixture struct {
	handler   *Handler
	lifecycle *courier.Lifecycle
	repo      *memRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	registry := courier.NewRegistry()
	lifecycle, err := courier.NewLifecycle(
		courier.WithLifecycleRepository(repo),
		courier.WithLifecycleRegistry(registry),
		courier.WithLifecycleLogger(&courier.NoopLogger{}),
	)
	require.NoError(t, err)

	handler := NewHandler(lifecycle, registry, auth.NewVerifier(testSecret), &courier.NoopLogger{}, 16)
	return &fixture{handler: handler, lifecycle: lifecycle, repo: repo}
}

func token(t *testing.T, ident courier.Identity) string {
	t.Helper()
	tok, err := auth.CreateToken(testSecret, ident, time.Hour)
	require.NoError(t, err)
	return tok
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateMessage(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}

	rec := doJSON(t, f.handler.Router(), http.MethodPost, "/api/v1/messages", token(t, sender), CreateMessageRequest{
		RecipientID: "acct-2",
		Subject:     "Court availability",
		Body:        "Is court 3 free on Friday?",
		BookingID:   42,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    model.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotZero(t, resp.Data.ID)
	assert.Equal(t, "acct-1", resp.Data.SenderID)
	assert.Equal(t, model.StatusUnread, resp.Data.Status)
}

func TestHandleCreateMessage_RequiresToken(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f.handler.Router(), http.MethodPost, "/api/v1/messages", "", CreateMessageRequest{
		RecipientID: "acct-2",
		Subject:     "Hello",
		Body:        "World",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateMessage_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}

	rec := doJSON(t, f.handler.Router(), http.MethodPost, "/api/v1/messages", token(t, sender), CreateMessageRequest{
		RecipientID: "acct-2",
		// missing subject and body
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, courier.ErrCodeValidation, resp.Code)
}

func TestHandleGetMessage_NotFound(t *testing.T) {
	f := newFixture(t)
	ident := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}

	rec := doJSON(t, f.handler.Router(), http.MethodGet, "/api/v1/messages/99", token(t, ident), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSetStatus(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}
	recipient := courier.Identity{AccountID: "acct-2", Role: courier.RoleCustomer}

	msg, err := f.lifecycle.Create(context.Background(), sender, courier.CreateRequest{
		RecipientID: "acct-2", Subject: "Hi", Body: "There",
	})
	require.NoError(t, err)

	rec := doJSON(t, f.handler.Router(), http.MethodPut, "/api/v1/messages/1/status",
		token(t, recipient), SetStatusRequest{Status: "read"})

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.repo.Load(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRead, stored.Status)
	assert.True(t, stored.ReadAt.Valid)
}

func TestHandleSetStatus_ForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}
	stranger := courier.Identity{AccountID: "acct-9", Role: courier.RoleCustomer}

	_, err := f.lifecycle.Create(context.Background(), sender, courier.CreateRequest{
		RecipientID: "acct-2", Subject: "Hi", Body: "There",
	})
	require.NoError(t, err)

	rec := doJSON(t, f.handler.Router(), http.MethodPut, "/api/v1/messages/1/status",
		token(t, stranger), SetStatusRequest{Status: "read"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleReply(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}
	recipient := courier.Identity{AccountID: "acct-2", Role: courier.RoleCustomer}

	_, err := f.lifecycle.Create(context.Background(), sender, courier.CreateRequest{
		RecipientID: "acct-2", Subject: "Court 3", Body: "Free Friday?",
	})
	require.NoError(t, err)

	rec := doJSON(t, f.handler.Router(), http.MethodPost, "/api/v1/messages/1/reply",
		token(t, recipient), ReplyMessageRequest{Content: "Yes, from 6pm."})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data model.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Re: Court 3", resp.Data.Subject)
	assert.Equal(t, "acct-1", resp.Data.RecipientID)
}

func TestHandleUnreadCount(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}
	recipient := courier.Identity{AccountID: "acct-2", Role: courier.RoleCustomer}

	for i := 0; i < 3; i++ {
		_, err := f.lifecycle.Create(context.Background(), sender, courier.CreateRequest{
			RecipientID: "acct-2", Subject: "Hi", Body: "There",
		})
		require.NoError(t, err)
	}

	rec := doJSON(t, f.handler.Router(), http.MethodGet, "/api/v1/messages/unread-count",
		token(t, recipient), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data["unreadCount"])
}

func TestHandleStream_ForbiddenChannel(t *testing.T) {
	f := newFixture(t)
	ident := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}

	rec := doJSON(t, f.handler.Router(), http.MethodGet, "/api/v1/stream?channel=acct-2",
		token(t, ident), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// readFrame reads one text/event-stream frame (terminated by a blank line).
func readFrame(t *testing.T, r *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return event, data
		}
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			event = after
		}
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			data = after
		}
	}
}

func TestHandleStream(t *testing.T) {
	f := newFixture(t)
	sender := courier.Identity{AccountID: "acct-1", Role: courier.RoleCustomer}
	recipient := courier.Identity{AccountID: "acct-2", Role: courier.RoleCustomer}

	ts := httptest.NewServer(f.handler.Router())
	defer ts.Close()

	// EventSource clients pass the token as a query parameter.
	resp, err := http.Get(ts.URL + "/api/v1/stream?token=" + token(t, recipient))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	event, data := readFrame(t, reader)
	assert.Equal(t, model.EventOpen, event)
	assert.JSONEq(t, `{"ok":true}`, data)

	// The subscription is live once the open frame arrived.
	msg, err := f.lifecycle.Create(context.Background(), sender, courier.CreateRequest{
		RecipientID: "acct-2", Subject: "Court 3", Body: "Free Friday?",
	})
	require.NoError(t, err)

	event, data = readFrame(t, reader)
	assert.Equal(t, model.EventMessage, event)

	var pushed model.Message
	require.NoError(t, json.Unmarshal([]byte(data), &pushed))
	assert.Equal(t, msg.ID, pushed.ID)
	assert.Equal(t, "Court 3", pushed.Subject)
}
