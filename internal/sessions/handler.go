package sessions

import (
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

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.start")
	defer span.End()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		pkg.WriteJSONError(w, "invalid content type", http.StatusUnsupportedMediaType)
		return
	}

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("start session, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "start session failed", http.StatusBadRequest)
		return
	}

	session, err := h.service.Start(ctx, req)
	if err != nil {
		log.Errorf("start session: %s", err)
		pkg.WriteJSONError(w, "start session failed", http.StatusBadRequest)
		return
	}

	pkg.WriteJSONSuccess(w, session, http.StatusCreated)
}

func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.end")
	defer span.End()

	vars := mux.Vars(r)
	sessionID := vars["id"]

	session, err := h.service.End(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteJSONError(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("end session %s: %s", sessionID, err)
		pkg.WriteJSONError(w, "end session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, session, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.get")
	defer span.End()

	vars := mux.Vars(r)
	sessionID := vars["id"]

	session, err := h.service.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteJSONError(w, "session not found", http.StatusNotFound)
			return
		}
		log.Errorf("get session %s: %s", sessionID, err)
		pkg.WriteJSONError(w, "get session failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, session, http.StatusOK)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.list")
	defer span.End()

	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		pkg.WriteJSONError(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	from, to, err := parseDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sessions, err := h.service.ListForUser(ctx, userID, from, to)
	if err != nil {
		log.Errorf("list sessions for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "list sessions failed", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []Session{}
	}

	pkg.WriteJSONSuccess(w, sessions, http.StatusOK)
}

func (h *Handler) HandleWorkoutDates(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.workoutDates")
	defer span.End()

	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		pkg.WriteJSONError(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	dates, err := h.service.WorkoutDatesForUser(ctx, userID)
	if err != nil {
		log.Errorf("workout dates for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "get workout dates failed", http.StatusInternalServerError)
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}

	pkg.WriteJSONSuccess(w, formatted, http.StatusOK)
}

// parseDateRange parses optional from/to calendar dates, defaulting to a
// wide-open range. The end date includes its whole day.
func parseDateRange(fromStr, toStr string) (from, to time.Time, err error) {
	from = time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local)
	to = time.Now().AddDate(1, 0, 0)

	if fromStr != "" {
		from, err = time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			return from, to, errors.New("invalid from date")
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			return from, to, errors.New("invalid to date")
		}
		to = to.Add(24*time.Hour - time.Second)
	}
	return from, to, nil
}
