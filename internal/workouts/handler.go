package workouts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
	"github.com/aryasetia/fitmon/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleIngestWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.ingestWorkout")
	defer span.End()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, "invalid content type", http.StatusUnsupportedMediaType)
		return
	}

	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("ingest workout, unmarshal json params: %s", err)
		writeError(w, "add workout failed", http.StatusBadRequest)
		return
	}

	res, err := h.service.AddEntry(ctx, req)
	if err != nil {
		writeServiceError(w, "ingest workout", err)
		return
	}

	writeSuccess(w, res, http.StatusCreated)
}

func (h *Handler) HandleIngestRep(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.ingestRep")
	defer span.End()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, "invalid content type", http.StatusUnsupportedMediaType)
		return
	}

	var req IngestRepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("ingest rep, unmarshal json params: %s", err)
		writeError(w, "add rep failed", http.StatusBadRequest)
		return
	}

	res, err := h.service.IngestRep(ctx, req)
	if err != nil {
		writeServiceError(w, "ingest rep", err)
		return
	}

	writeSuccess(w, res, http.StatusCreated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, "missing session_id", http.StatusBadRequest)
		return
	}

	entries, err := h.service.List(ctx, sessionID)
	if err != nil {
		writeServiceError(w, "list workouts", err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	writeSuccess(w, entries, http.StatusOK)
}

func (h *Handler) HandleListReps(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.listReps")
	defer span.End()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, "missing session_id", http.StatusBadRequest)
		return
	}

	reps, err := h.service.ListReps(ctx, sessionID)
	if err != nil {
		writeServiceError(w, "list reps", err)
		return
	}
	if reps == nil {
		reps = []Rep{}
	}

	writeSuccess(w, reps, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.update")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		writeError(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update workout, unmarshal json params: %s", err)
		writeError(w, "update workout failed", http.StatusBadRequest)
		return
	}
	req.ID = id

	entry, err := h.service.UpdateEntry(ctx, req)
	if err != nil {
		writeServiceError(w, "update workout", err)
		return
	}

	writeSuccess(w, entry, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		writeError(w, "invalid workout id", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteEntry(ctx, id); err != nil {
		writeServiceError(w, "delete workout", err)
		return
	}

	writeSuccess(w, map[string]int{"deleted": id}, http.StatusOK)
}

func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	pkg.WriteJSONSuccess(w, data, statusCode)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	pkg.WriteJSONError(w, message, statusCode)
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, "session not found", http.StatusNotFound)
	case errors.Is(err, ErrEntryNotFound):
		writeError(w, "workout entry not found", http.StatusNotFound)
	default:
		log.Errorf("%s: %s", op, err)
		writeError(w, fmt.Sprintf("%s failed", op), http.StatusInternalServerError)
	}
}
