package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/security"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

// Corpo acima disso é 413 antes de qualquer parse.
const maxBodyBytes = 10 * 1024

type LeadHandler struct {
	CaptureUseCase *usecase.CaptureLeadUseCase
	LeadRepo       entity.LeadRepositoryInterface
	AdminLimiter   usecase.RateLimiter
	ExportLimiter  usecase.RateLimiter
}

func NewLeadHandler(captureUC *usecase.CaptureLeadUseCase, leadRepo entity.LeadRepositoryInterface, adminLimiter, exportLimiter usecase.RateLimiter) *LeadHandler {
	return &LeadHandler{
		CaptureUseCase: captureUC,
		LeadRepo:       leadRepo,
		AdminLimiter:   adminLimiter,
		ExportLimiter:  exportLimiter,
	}
}

type captureLeadResponse struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error  string            `json:"error,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// HandleCapture - POST /lead (público)
func (h *LeadHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var input usecase.CaptureLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}

		// Campo com tipo errado (email numérico etc) vira erro daquele campo,
		// não um "JSON inválido" genérico.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Errors: map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()},
			})
			return
		}

		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	output, err := h.CaptureUseCase.Execute(r.Context(), input, security.ClientIP(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if output.Duplicate {
		middleware.RecordLeadDuplicate()
	} else {
		middleware.RecordLeadCaptured(output.Status)
	}

	// Duplicata responde byte-idêntico à primeira chamada, 201 incluso.
	writeJSON(w, http.StatusCreated, captureLeadResponse{
		LeadID: output.LeadID,
		Status: output.Status,
	})
}

// HandleGet - GET /lead/{leadId} (console administrativo). Guardado pelo
// limiter apertado de leitura, por (usuário, IP).
func (h *LeadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)

	identity := r.Header.Get("X-Admin-User") + ":" + security.ClientIP(r)

	limit, err := h.AdminLimiter.Check(r.Context(), identity)
	if err != nil {
		log.Printf("❌ Rate limit de admin indisponível: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if !limit.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(limit.ResetIn.Seconds()))))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
		return
	}

	lead, err := h.LeadRepo.FindByID(r.Context(), chi.URLParam(r, "leadId"))
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "lead not found"})
		return
	}
	if err != nil {
		log.Printf("❌ Erro ao buscar lead: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

type exportResponse struct {
	ExportID string `json:"export_id"`
	Status   string `json:"status"`
}

// HandleExport - POST /lead/export (console administrativo). A geração do
// arquivo em si roda no pipeline de exportação; aqui só vale o limiter
// estrito por usuário na criação do job.
func (h *LeadHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)

	identity := r.Header.Get("X-Admin-User")
	if identity == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing X-Admin-User header"})
		return
	}

	limit, err := h.ExportLimiter.Check(r.Context(), identity)
	if err != nil {
		log.Printf("❌ Rate limit de export indisponível: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	if !limit.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(limit.ResetIn.Seconds()))))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many export requests"})
		return
	}

	exportID := uuid.New().String()
	log.Printf("📥 Export %s criado por %s", exportID, identity)

	writeJSON(w, http.StatusAccepted, exportResponse{ExportID: exportID, Status: "queued"})
}

// writeError traduz a taxonomia de erro do usecase para HTTP. TechnicalError
// é 500 genérico: detalhe interno fica no log, nunca na resposta.
func (h *LeadHandler) writeError(w http.ResponseWriter, err error) {
	var domainErr *usecase.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case "VALIDATION_ERROR":
			writeJSON(w, http.StatusBadRequest, errorResponse{Errors: domainErr.Fields})
		case "RATE_LIMITED":
			middleware.RecordLeadThrottled()
			w.Header().Set("Retry-After", strconv.Itoa(domainErr.RetryAfterSeconds))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: domainErr.Message})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: domainErr.Message})
		}
		return
	}

	log.Printf("❌ Erro técnico no intake: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		w.Header().Set("X-Request-Id", reqID)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
