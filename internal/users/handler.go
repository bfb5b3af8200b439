package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
	"github.com/aryasetia/fitmon/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type usersRepo interface {
	Create(ctx context.Context, name, rfidTag string) (*User, error)
	GetByID(ctx context.Context, id int) (*User, error)
	GetByRFID(ctx context.Context, rfidTag string) (*User, error)
	LifetimeStats(ctx context.Context, userID int) (*LifetimeStats, error)
}

type tokenIssuer interface {
	Login(ctx context.Context, userID int, createdAt time.Time) (string, error)
}

type Handler struct {
	repo   usersRepo
	tokens tokenIssuer
}

func NewHandler(repo usersRepo, tokens tokenIssuer) *Handler {
	return &Handler{
		repo:   repo,
		tokens: tokens,
	}
}

type registerRequest struct {
	Name    string `json:"name"`
	RFIDTag string `json:"rfid_tag"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		pkg.WriteJSONError(w, "invalid content type", http.StatusUnsupportedMediaType)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("register user, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "register failed", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.RFIDTag = strings.TrimSpace(req.RFIDTag)
	if req.Name == "" || req.RFIDTag == "" {
		pkg.WriteJSONError(w, "name and rfid_tag are required", http.StatusBadRequest)
		return
	}

	user, err := h.repo.Create(ctx, req.Name, req.RFIDTag)
	if err != nil {
		if errors.Is(err, ErrRFIDTagExists) {
			pkg.WriteJSONError(w, "rfid tag already registered", http.StatusConflict)
			return
		}
		log.Errorf("register user: %s", err)
		pkg.WriteJSONError(w, "register failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, user, http.StatusCreated)
}

type rfidScanRequest struct {
	RFIDTag string `json:"rfid_tag"`
}

type rfidScanResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// HandleRFIDScan resolves a scanned tag to its user and opens a
// dashboard login session for them.
func (h *Handler) HandleRFIDScan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.rfidScan")
	defer span.End()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		pkg.WriteJSONError(w, "invalid content type", http.StatusUnsupportedMediaType)
		return
	}

	var req rfidScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("rfid scan, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "rfid scan failed", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.RFIDTag) == "" {
		pkg.WriteJSONError(w, "rfid_tag is required", http.StatusBadRequest)
		return
	}

	user, err := h.repo.GetByRFID(ctx, req.RFIDTag)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, "unknown rfid tag", http.StatusNotFound)
			return
		}
		log.Errorf("rfid scan: %s", err)
		pkg.WriteJSONError(w, "rfid scan failed", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Login(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("rfid scan, login user %d: %s", user.ID, err)
		pkg.WriteJSONError(w, "rfid scan failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, rfidScanResponse{User: user, Token: token}, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.get")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			pkg.WriteJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user %d: %s", id, err)
		pkg.WriteJSONError(w, "get user failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, user, http.StatusOK)
}

func (h *Handler) HandleLifetimeStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.lifetimeStats")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		pkg.WriteJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	stats, err := h.repo.LifetimeStats(ctx, id)
	if err != nil {
		log.Errorf("lifetime stats for user %d: %s", id, err)
		pkg.WriteJSONError(w, "get stats failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, stats, http.StatusOK)
}
