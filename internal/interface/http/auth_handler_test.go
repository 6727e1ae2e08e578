package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

const testFrontendURL = "http://localhost:4200"

// fakeStore backs both repositories for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*entity.User
	tickets map[string]*entity.VerificationTicket
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[int64]*entity.User{},
		tickets: map[string]*entity.VerificationTicket{},
	}
}

func (s *fakeStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByID(_ context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) FindAll(_ context.Context) ([]*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, email, username, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return repository.ErrDuplicateEmail
		}
		if u.Username == username {
			return repository.ErrDuplicateUsername
		}
	}
	s.nextID++
	s.users[s.nextID] = &entity.User{ID: s.nextID, Email: email, Username: username, Password: hashedPassword, Lang: "en"}
	return nil
}

func (s *fakeStore) Save(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeStore) Delete(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, u.ID)
	return nil
}

func (s *fakeStore) SaveTicket(_ context.Context, t *entity.VerificationTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, existing := range s.tickets {
		if existing.UserID == t.UserID {
			delete(s.tickets, tok)
		}
	}
	s.nextID++
	t.ID = s.nextID
	cp := *t
	s.tickets[t.Token] = &cp
	return nil
}

func (s *fakeStore) FindByToken(_ context.Context, token string) (*entity.VerificationTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) FindByUser(_ context.Context, userID int64) (*entity.VerificationTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.UserID == userID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) DeleteTicket(_ context.Context, t *entity.VerificationTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickets, t.Token)
	return nil
}

func (s *fakeStore) Consume(_ context.Context, token string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[token]
	if !ok {
		return false, nil
	}
	if !now.Before(t.ExpiresAt) {
		return false, nil
	}
	if u, ok := s.users[t.UserID]; ok {
		u.Verified = true
	}
	delete(s.tickets, token)
	return true, nil
}

// ticketView adapts fakeStore to repository.TicketRepository, whose Save and
// Delete names collide with the user side.
type ticketView struct{ *fakeStore }

func (v ticketView) Save(ctx context.Context, t *entity.VerificationTicket) error {
	return v.SaveTicket(ctx, t)
}

func (v ticketView) Delete(ctx context.Context, t *entity.VerificationTicket) error {
	return v.DeleteTicket(ctx, t)
}

var (
	_ repository.UserRepository   = (*fakeStore)(nil)
	_ repository.TicketRepository = ticketView{}
)

type nopSender struct{}

func (nopSender) SendVerification(context.Context, string, string, string) error { return nil }

func newAuthRig(t *testing.T) (*gin.Engine, *fakeStore, *helpers.TokenCodec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := newFakeStore()
	codec := helpers.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	tickets := application.NewVerificationService(ticketView{store})
	auth := application.NewAuthService(store, tickets, nopSender{}, logger, "http://localhost:8080/api/verify-email")
	h := NewAuthHandler(auth, tickets, codec, logger, testFrontendURL)

	r := gin.New()
	r.POST("/api/login", h.Login)
	r.POST("/api/register", h.Register)
	r.GET("/api/verify-email", h.VerifyEmail)
	return r, store, codec
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func register(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := postJSON(t, r, "/api/register", gin.H{
		"email":    "dave@example.com",
		"username": "dave",
		"psw":      "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegisterEndpoint(t *testing.T) {
	r, store, _ := newAuthRig(t)
	register(t, r)

	u, err := store.FindByUsername(context.Background(), "dave")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.False(t, u.Verified)

	ticket, err := store.FindByUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, ticket, "registration issues a verification ticket")
}

func TestRegisterEndpointErrorCodes(t *testing.T) {
	r, _, _ := newAuthRig(t)
	register(t, r)

	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{"invalid email", gin.H{"email": "nope", "username": "x", "psw": "longenough"}, "INVALID_EMAIL"},
		{"duplicate email", gin.H{"email": "dave@example.com", "username": "fresh", "psw": "longenough"}, "EXISTS_EMAIL"},
		{"duplicate username", gin.H{"email": "fresh@example.com", "username": "dave", "psw": "longenough"}, "EXISTS_USERNAME"},
		{"short password", gin.H{"email": "fresh@example.com", "username": "fresh", "psw": "short"}, "SHORT_PSW"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.code, env["code"])
			assert.Equal(t, false, env["success"])
		})
	}
}

func TestLoginEndpoint(t *testing.T) {
	r, _, codec := newAuthRig(t)
	register(t, r)

	w := postJSON(t, r, "/api/login", gin.H{"username": "dave", "psw": "longenough"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	env := decodeEnvelope(t, w)
	data, ok := env["data"].(map[string]any)
	require.True(t, ok, "login response carries a data object")
	token, ok := data["token"].(string)
	require.True(t, ok)

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "dave", claims.Subject)
	assert.NotZero(t, claims.UserID)
}

func TestLoginEndpointFailures(t *testing.T) {
	r, _, _ := newAuthRig(t)
	register(t, r)

	tests := []struct {
		name string
		body gin.H
		code string
	}{
		{"unknown username", gin.H{"username": "ghost", "psw": "longenough"}, "INVALID_USERNAME"},
		{"wrong password", gin.H{"username": "dave", "psw": "wrongwrong"}, "INVALID_PSW"},
		{"missing fields", gin.H{"username": "dave"}, "SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/login", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.code, env["code"])
		})
	}
}

func TestVerifyEmailRedirects(t *testing.T) {
	r, store, _ := newAuthRig(t)
	register(t, r)

	u, err := store.FindByUsername(context.Background(), "dave")
	require.NoError(t, err)
	ticket, err := store.FindByUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, ticket)

	get := func(token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/verify-email?token="+token, nil)
		r.ServeHTTP(w, req)
		return w
	}

	w := get(ticket.Token)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testFrontendURL+"/#/login?verified=true", w.Header().Get("Location"))

	verified, err := store.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	// replaying the consumed token fails soft
	w = get(ticket.Token)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testFrontendURL+"/#/login?verified=false", w.Header().Get("Location"))

	// so does an empty or unknown token
	w = get("")
	assert.Equal(t, testFrontendURL+"/#/login?verified=false", w.Header().Get("Location"))
	w = get("nonsense")
	assert.Equal(t, testFrontendURL+"/#/login?verified=false", w.Header().Get("Location"))
}
