package history

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aryasetia/fitmon/internal/cache"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analyzerMock := NewMockanalyzer(ctrl)
	handler := NewHandler(analyzerMock, cache.NewTestCache(), 60)

	summary := &Summary{
		Buckets: []DateBucket{
			{Date: "2024-03-01", Reps: 24, Calories: 50, Duration: 10},
			{Date: "2024-03-02", Reps: 20, Calories: 70, Duration: 15},
		},
		Totals: DateBucket{Reps: 44, Calories: 120, Duration: 25},
	}

	// a second identical request must come from the cache
	analyzerMock.
		EXPECT().
		History(gomock.Any(), 42, gomock.Any(), gomock.Any()).
		Return(summary, nil).
		Times(1)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(
			http.MethodGet,
			"/history?user_id=42&from=2024-03-01&to=2024-03-02",
			nil,
		)
		rec := httptest.NewRecorder()
		handler.HandleHistory(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var envelope struct {
			Status string  `json:"status"`
			Data   Summary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, "success", envelope.Status)
		assert.Equal(t, 44, envelope.Data.Totals.Reps)
		require.Len(t, envelope.Data.Buckets, 2)
	}
}

func TestHandler_History_badParams(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewHandler(NewMockanalyzer(ctrl), cache.NewTestCache(), 60)

	testCases := []struct {
		name string
		url  string
	}{
		{name: "missing user id", url: "/history"},
		{name: "non-numeric user id", url: "/history?user_id=abc"},
		{name: "bad from date", url: "/history?user_id=42&from=yesterday"},
		{name: "inverted range", url: "/history?user_id=42&from=2024-03-05&to=2024-03-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			handler.HandleHistory(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Streak(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analyzerMock := NewMockanalyzer(ctrl)
	handler := NewHandler(analyzerMock, cache.NewTestCache(), 60)

	analyzerMock.
		EXPECT().
		Streak(gomock.Any(), 42).
		Return(&Streak{Days: 3}, nil)

	req := httptest.NewRequest(http.MethodGet, "/history/streak?user_id=42", nil)
	rec := httptest.NewRecorder()
	handler.HandleStreak(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data Streak `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 3, envelope.Data.Days)
	assert.False(t, envelope.Data.InsufficientData)
}

func TestHandler_Streak_insufficientData(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	analyzerMock := NewMockanalyzer(ctrl)
	handler := NewHandler(analyzerMock, cache.NewTestCache(), 60)

	analyzerMock.
		EXPECT().
		Streak(gomock.Any(), 42).
		Return(&Streak{InsufficientData: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/history/streak?user_id=42", nil)
	rec := httptest.NewRecorder()
	handler.HandleStreak(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_data")
}
