package history

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aryasetia/fitmon/internal/cache"
	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
	"github.com/aryasetia/fitmon/pkg"

	log "github.com/sirupsen/logrus"
)

type analyzer interface {
	History(ctx context.Context, userID int, from, to time.Time) (*Summary, error)
	Streak(ctx context.Context, userID int) (*Streak, error)
}

// Handler serves the chart and streak views. History responses are kept
// in a short-lived cache: the charts page polls the same ranges
// repeatedly and the aggregation behind them is the most expensive read
// we have. Entries written within the TTL show up after it expires.
type Handler struct {
	analyzer analyzer
	cache    cache.Cache
	cacheTTL int // seconds
}

func NewHandler(analyzer analyzer, responseCache cache.Cache, cacheTTLSeconds int) *Handler {
	return &Handler{
		analyzer: analyzer,
		cache:    responseCache,
		cacheTTL: cacheTTLSeconds,
	}
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.history")
	defer span.End()

	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		pkg.WriteJSONError(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	from, to, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cacheKey := []byte(fmt.Sprintf(
		"history||%d||%s||%s",
		userID, from.Format(dateLayout), to.Format(dateLayout),
	))
	if cached, ok := h.cache.Get(cacheKey); ok {
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}

	summary, err := h.analyzer.History(ctx, userID, from, to)
	if err != nil {
		log.Errorf("history for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "get history failed", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(struct {
		Status string   `json:"status"`
		Data   *Summary `json:"data"`
	}{Status: "success", Data: summary})
	if err != nil {
		log.Errorf("marshal history response: %s", err)
		pkg.WriteJSONError(w, "get history failed", http.StatusInternalServerError)
		return
	}

	h.cache.Set(cacheKey, payload, h.cacheTTL)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payload, http.StatusOK)
}

func (h *Handler) HandleStreak(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.streak")
	defer span.End()

	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		pkg.WriteJSONError(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	streak, err := h.analyzer.Streak(ctx, userID)
	if err != nil {
		log.Errorf("streak for user %d: %s", userID, err)
		pkg.WriteJSONError(w, "get streak failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONSuccess(w, streak, http.StatusOK)
}

// parseRange reads the from/to calendar dates, defaulting to the last
// seven days.
func parseRange(fromStr, toStr string) (from, to time.Time, err error) {
	now := time.Now()
	to = now
	from = now.AddDate(0, 0, -6)

	if fromStr != "" {
		from, err = time.ParseInLocation(dateLayout, fromStr, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid from date")
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation(dateLayout, toStr, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid to date")
		}
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("to date before from date")
	}
	return from, to, nil
}
