package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/idempotency"
	"github.com/xavierca1/ligue-leads/internal/infra/ratelimit"
	"github.com/xavierca1/ligue-leads/internal/security"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type stubLeadRepository struct {
	mock.Mock
}

func (m *stubLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *stubLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *stubLeadRepository) UpdateAssignment(ctx context.Context, leadID, orgID, userID string, at time.Time) error {
	args := m.Called(ctx, leadID, orgID, userID, at)
	return args.Error(0)
}

func (m *stubLeadRepository) UpdateNotifiedAt(ctx context.Context, leadID, field string, at time.Time) error {
	args := m.Called(ctx, leadID, field, at)
	return args.Error(0)
}

// newTestRouter monta o handler com limiters e idempotência reais em cima de
// um Redis em memória, faltando só o Postgres (repositório mockado).
func newTestRouter(t *testing.T, repo *stubLeadRepository, captureMax int) (*chi.Mux, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	analyzer := security.NewAnalyzer("test-salt", 10*time.Minute, clk)

	store := ratelimit.NewRedisStore(client)
	leadLimiter := ratelimit.NewLimiter(store, "lead", time.Minute, captureMax)
	adminLimiter := ratelimit.NewLimiter(store, "admin-query", time.Minute, 2)
	exportLimiter := ratelimit.NewLimiter(store, "export", time.Hour, 2)

	idemStore := idempotency.NewRedisStore(client, idempotency.DefaultTTL)

	captureUC := usecase.NewCaptureLeadUseCase(repo, analyzer, leadLimiter, idemStore, nil, nil)
	handler := NewLeadHandler(captureUC, repo, adminLimiter, exportLimiter)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Post("/lead", handler.HandleCapture)
	r.Get("/lead/{leadId}", handler.HandleGet)
	r.Post("/lead/export", handler.HandleExport)
	return r, mr
}

func postLead(router http.Handler, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/lead", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCaptureAccepted(t *testing.T) {
	repo := new(stubLeadRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router, _ := newTestRouter(t, repo, 10)

	rec := postLead(router, `{"name":"Maria Silva","email":"maria@example.com","page":"/planos"}`, "203.0.113.7")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body captureLeadResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.LeadID)
	assert.Equal(t, entity.LeadStatusAccepted, body.Status)

	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestHandleCaptureDuplicateRespondsIdentically(t *testing.T) {
	repo := new(stubLeadRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router, _ := newTestRouter(t, repo, 10)

	payload := `{"name":"Maria Silva","email":"maria@example.com"}`
	first := postLead(router, payload, "203.0.113.7")
	second := postLead(router, payload, "203.0.113.7")

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	// Só a primeira submissão grava: a duplicata colapsa no vencedor.
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestHandleCaptureRateLimited(t *testing.T) {
	repo := new(stubLeadRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router, _ := newTestRouter(t, repo, 2)

	postLead(router, `{"name":"A B","email":"a@example.com"}`, "203.0.113.7")
	postLead(router, `{"name":"C D","email":"c@example.com"}`, "203.0.113.7")
	third := postLead(router, `{"name":"E F","email":"e@example.com"}`, "203.0.113.7")

	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	// Outro IP não compartilha o contador.
	other := postLead(router, `{"name":"G H","email":"g@example.com"}`, "198.51.100.9")
	assert.Equal(t, http.StatusCreated, other.Code)
}

func TestHandleCaptureValidationErrorsAsFieldMap(t *testing.T) {
	repo := new(stubLeadRepository)
	router, _ := newTestRouter(t, repo, 10)

	rec := postLead(router, `{"email":"sem-arroba"}`, "203.0.113.7")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "email")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleCaptureTypeMismatchNamesField(t *testing.T) {
	repo := new(stubLeadRepository)
	router, _ := newTestRouter(t, repo, 10)

	rec := postLead(router, `{"name":"Maria","email":12345}`, "203.0.113.7")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "email")
}

func TestHandleCaptureMalformedJSON(t *testing.T) {
	repo := new(stubLeadRepository)
	router, _ := newTestRouter(t, repo, 10)

	rec := postLead(router, `{"name": `, "203.0.113.7")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid JSON", body.Error)
}

func TestHandleCaptureOversizedBody(t *testing.T) {
	repo := new(stubLeadRepository)
	router, _ := newTestRouter(t, repo, 10)

	huge := `{"name":"Maria","email":"maria@example.com","message":"` +
		strings.Repeat("x", maxBodyBytes+1) + `"}`
	rec := postLead(router, huge, "203.0.113.7")

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleCaptureFailsClosedWhenRedisDown(t *testing.T) {
	repo := new(stubLeadRepository)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	analyzer := security.NewAnalyzer("test-salt", 10*time.Minute, clk)
	leadLimiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(client), "lead", time.Minute, 10)
	idemStore := idempotency.NewRedisStore(client, idempotency.DefaultTTL)

	captureUC := usecase.NewCaptureLeadUseCase(repo, analyzer, leadLimiter, idemStore, nil, nil)
	handler := NewLeadHandler(captureUC, repo, leadLimiter, leadLimiter)

	r := chi.NewRouter()
	r.Post("/lead", handler.HandleCapture)

	rec := postLead(r, `{"name":"Maria","email":"maria@example.com"}`, "203.0.113.7")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body.Error)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleCaptureRetryAfterStoreFailurePersists(t *testing.T) {
	repo := new(stubLeadRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("pq: connection reset")).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	router, _ := newTestRouter(t, repo, 10)

	payload := `{"name":"Maria Silva","email":"maria@example.com"}`

	first := postLead(router, payload, "203.0.113.7")
	assert.Equal(t, http.StatusInternalServerError, first.Code)

	// O retry idêntico não pode colapsar no lead que nunca foi gravado:
	// a claim do primeiro intento foi devolvida junto com o 500.
	second := postLead(router, payload, "203.0.113.7")
	assert.Equal(t, http.StatusCreated, second.Code)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestHandleGetReturnsLead(t *testing.T) {
	repo := new(stubLeadRepository)
	lead := &entity.Lead{ID: "lead-1", Name: "Maria Silva", Email: "maria@example.com", Status: entity.LeadStatusAccepted}
	repo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	router, _ := newTestRouter(t, repo, 10)

	req := httptest.NewRequest(http.MethodGet, "/lead/lead-1", nil)
	req.Header.Set("X-Admin-User", "admin@ligue")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body entity.Lead
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "lead-1", body.ID)
	assert.Equal(t, "maria@example.com", body.Email)

	// Hashes não vazam na serialização.
	assert.NotContains(t, rec.Body.String(), "hashed")
}

func TestHandleGetNotFound(t *testing.T) {
	repo := new(stubLeadRepository)
	repo.On("FindByID", mock.Anything, "nope").Return(nil, sql.ErrNoRows)
	router, _ := newTestRouter(t, repo, 10)

	req := httptest.NewRequest(http.MethodGet, "/lead/nope", nil)
	req.Header.Set("X-Admin-User", "admin@ligue")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetAdminRateLimit(t *testing.T) {
	repo := new(stubLeadRepository)
	lead := &entity.Lead{ID: "lead-1", Status: entity.LeadStatusAccepted}
	repo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	router, _ := newTestRouter(t, repo, 10)

	get := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/lead/lead-1", nil)
		req.Header.Set("X-Admin-User", user)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, get("alice").Code)
	assert.Equal(t, http.StatusOK, get("alice").Code)

	third := get("alice")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	// Identidade é (usuário, IP): outro usuário no mesmo IP não é afetado.
	assert.Equal(t, http.StatusOK, get("bob").Code)
}

func TestCaptureResponseOmitsBodyEcho(t *testing.T) {
	repo := new(stubLeadRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	router, _ := newTestRouter(t, repo, 10)

	rec := postLead(router, `{"name":"Maria Silva","email":"maria@example.com","message":"dados sensíveis"}`, "203.0.113.7")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "maria@example.com")
	assert.NotContains(t, rec.Body.String(), "dados sensíveis")
}

func TestHandleGetRetryAfterNeverZero(t *testing.T) {
	repo := new(stubLeadRepository)
	lead := &entity.Lead{ID: "lead-1", Status: entity.LeadStatusAccepted}
	repo.On("FindByID", mock.Anything, "lead-1").Return(lead, nil)
	router, mr := newTestRouter(t, repo, 10)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/lead/lead-1", nil)
		req.Header.Set("X-Admin-User", "alice")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	get()
	get()
	assert.Equal(t, http.StatusTooManyRequests, get().Code)

	// Com menos de 1s de janela restando, Retry-After arredonda para cima:
	// "0" mandaria o cliente reenviar ainda dentro da janela.
	mr.FastForward(59*time.Second + 500*time.Millisecond)

	rec := get()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestHandleExportLimitedPerUser(t *testing.T) {
	repo := new(stubLeadRepository)
	router, _ := newTestRouter(t, repo, 10)

	export := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/lead/export", nil)
		if user != "" {
			req.Header.Set("X-Admin-User", user)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := export("alice")
	assert.Equal(t, http.StatusAccepted, first.Code)

	var body exportResponse
	assert.NoError(t, json.Unmarshal(first.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ExportID)
	assert.Equal(t, "queued", body.Status)

	assert.Equal(t, http.StatusAccepted, export("alice").Code)

	third := export("alice")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))

	// Limite de export é por usuário, não por IP.
	assert.Equal(t, http.StatusAccepted, export("bob").Code)

	// Sem identidade não há como aplicar o limite por usuário.
	assert.Equal(t, http.StatusBadRequest, export("").Code)
}
