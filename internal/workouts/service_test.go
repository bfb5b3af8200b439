package workouts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionStoreMock struct {
	mutex      sync.Mutex
	sessions   map[string]bool
	created    []string
	recomputed []string
}

func newSessionStoreMock(existing ...string) *sessionStoreMock {
	sessions := make(map[string]bool)
	for _, id := range existing {
		sessions[id] = true
	}
	return &sessionStoreMock{sessions: sessions}
}

func (m *sessionStoreMock) SessionExists(_ context.Context, sessionID string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.sessions[sessionID], nil
}

func (m *sessionStoreMock) CreateSession(_ context.Context, sessionID string, _ int, _ float64, _ time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[sessionID] = true
	m.created = append(m.created, sessionID)
	return nil
}

func (m *sessionStoreMock) RecomputeAggregates(_ context.Context, sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.recomputed = append(m.recomputed, sessionID)
	return nil
}

func newTestService(existingSessions ...string) (*Service, *RepoMock, *sessionStoreMock) {
	repo := NewRepoMock()
	sessions := newSessionStoreMock(existingSessions...)
	svc := NewService(repo, sessions, nil)
	return svc, repo, sessions
}

func TestService_AddEntry(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessions := newTestService("sess-1")

	res, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1",
		Weight:    12.5,
		Reps:      10,
		Sets:      3,
		Duration:  15,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	assert.False(t, res.Duplicate)
	assert.Positive(t, res.Entry.ID)
	assert.Equal(t, DefaultFormScore, res.Entry.FormScore)
	assert.Positive(t, res.Entry.Calories)
	assert.Len(t, repo.Entries, 1)
	assert.Equal(t, []string{"sess-1"}, sessions.recomputed)
}

func TestService_AddEntry_validation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService("sess-1")

	_, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1",
		Weight:    -1,
		Reps:      0,
		Sets:      3,
		Duration:  15,
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"reps", "weight"}, validationErr.Fields)
	// nothing persisted on validation failure
	assert.Empty(t, repo.Entries)
}

func TestService_AddEntry_duplicateSuppression(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessions := newTestService("sess-1")

	req := AddEntryRequest{
		SessionID: "sess-1",
		Weight:    10,
		Reps:      8,
		Sets:      3,
		Duration:  10,
	}

	first, err := svc.AddEntry(ctx, req)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := svc.AddEntry(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)

	// exactly one row persisted, aggregates recomputed only for the insert
	assert.Len(t, repo.Entries, 1)
	assert.Equal(t, []string{"sess-1"}, sessions.recomputed)
}

func TestService_AddEntry_distinctRepsNotDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService("sess-1")

	_, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1", Weight: 10, Reps: 8, Sets: 3, Duration: 10,
	})
	require.NoError(t, err)

	res, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1", Weight: 10, Reps: 9, Sets: 3, Duration: 10,
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Len(t, repo.Entries, 2)
}

func TestService_AddEntry_outsideDedupWindow(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService("sess-1")

	now := time.Now()
	svc.Now = func() time.Time { return now }

	_, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1", Weight: 10, Reps: 8, Sets: 3, Duration: 10,
	})
	require.NoError(t, err)

	// same payload half a minute later is a legitimate new set
	svc.Now = func() time.Time { return now.Add(30 * time.Second) }
	res, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1", Weight: 10, Reps: 8, Sets: 3, Duration: 10,
	})
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Len(t, repo.Entries, 2)
}

func TestService_AddEntry_sessionAutoCreate(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService()

	_, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "fresh-sess",
		UserID:    42,
		Weight:    10,
		Reps:      8,
		Sets:      3,
		Duration:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-sess"}, sessions.created)
}

func TestService_AddEntry_unknownSessionNoUser(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessions := newTestService()

	_, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "fresh-sess",
		Weight:    10,
		Reps:      8,
		Sets:      3,
		Duration:  10,
	})
	require.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, sessions.created)
	assert.Empty(t, repo.Entries)
}

func TestService_AddEntry_workoutDate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService("sess-1")

	t.Run("parseable date is used", func(t *testing.T) {
		res, err := svc.AddEntry(ctx, AddEntryRequest{
			SessionID:   "sess-1",
			Weight:      10,
			Reps:        5,
			Sets:        2,
			Duration:    10,
			WorkoutDate: "2024-03-01 08:30:00",
		})
		require.NoError(t, err)
		assert.Equal(t, 2024, res.Entry.Timestamp.Year())
		assert.Equal(t, time.March, res.Entry.Timestamp.Month())
		assert.Equal(t, 1, res.Entry.Timestamp.Day())
	})

	t.Run("garbage date degrades to now", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
		svc.Now = func() time.Time { return now }

		res, err := svc.AddEntry(ctx, AddEntryRequest{
			SessionID:   "sess-1",
			Weight:      10,
			Reps:        6,
			Sets:        2,
			Duration:    10,
			WorkoutDate: "not-a-date",
		})
		require.NoError(t, err)
		assert.Equal(t, now, res.Entry.Timestamp)
	})
}

func TestService_IngestRep(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessions := newTestService("sess-1")

	res, err := svc.IngestRep(ctx, IngestRepRequest{
		SessionID: "sess-1",
		Weight:    10,
		RepNumber: 1,
		Samples: []RepSample{
			{Angle: 10, Az: 1},
			{Angle: 100, Az: 1.4},
			{Angle: 20, Az: 1},
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 90, res.Summary.AngleRange, 1e-9)
	assert.Positive(t, res.Rep.Calories)

	// audit rep row plus one single-rep workout entry
	assert.Len(t, repo.Reps, 1)
	require.Len(t, repo.Entries, 1)
	for _, e := range repo.Entries {
		assert.Equal(t, 1, e.Reps)
		assert.Equal(t, 1, e.Sets)
		assert.Equal(t, res.Rep.Calories, e.Calories)
	}
	assert.Equal(t, []string{"sess-1"}, sessions.recomputed)
}

func TestService_IngestRep_emptyWindow(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService("sess-1")

	res, err := svc.IngestRep(ctx, IngestRepRequest{
		SessionID: "sess-1",
		Weight:    10,
		RepNumber: 1,
	})
	require.NoError(t, err)
	// no samples means no measured sweep and zero burned energy, which is
	// a legitimate outcome, not an error
	assert.Zero(t, res.Summary.AngleRange)
	assert.Zero(t, res.Rep.Calories)
	assert.Len(t, repo.Reps, 1)
}

func TestService_IngestRep_consecutiveRepsAllKept(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService("sess-1")

	samples := []RepSample{{Angle: 10, Az: 1}, {Angle: 100, Az: 1.2}}
	for i := 1; i <= 5; i++ {
		_, err := svc.IngestRep(ctx, IngestRepRequest{
			SessionID: "sess-1",
			Weight:    10,
			RepNumber: i,
			Samples:   samples,
		})
		require.NoError(t, err)
	}

	// identical single-rep entries seconds apart are real reps, not
	// retransmissions
	assert.Len(t, repo.Reps, 5)
	assert.Len(t, repo.Entries, 5)
}

func TestService_UpdateEntry(t *testing.T) {
	ctx := context.Background()
	svc, _, sessions := newTestService("sess-1")

	added, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1", Weight: 10, Reps: 8, Sets: 3, Duration: 10,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateEntry(ctx, UpdateEntryRequest{
		ID:       added.Entry.ID,
		Weight:   15,
		Reps:     10,
		Sets:     3,
		Duration: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, updated.Weight)
	assert.Equal(t, 10, updated.Reps)
	assert.NotEqual(t, added.Entry.Calories, updated.Calories)

	// insert + update both recompute
	assert.Equal(t, []string{"sess-1", "sess-1"}, sessions.recomputed)
}

func TestService_DeleteEntry(t *testing.T) {
	ctx := context.Background()
	svc, repo, sessions := newTestService("sess-1")

	added, err := svc.AddEntry(ctx, AddEntryRequest{
		SessionID: "sess-1", Weight: 10, Reps: 8, Sets: 3, Duration: 10,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, added.Entry.ID))
	assert.Empty(t, repo.Entries)
	assert.Equal(t, []string{"sess-1", "sess-1"}, sessions.recomputed)

	require.ErrorIs(t, svc.DeleteEntry(ctx, added.Entry.ID), ErrEntryNotFound)
}

func TestService_AddEntry_randomizedInputsStayBounded(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService("sess-1")

	for i := 0; i < 50; i++ {
		res, err := svc.AddEntry(ctx, AddEntryRequest{
			SessionID:   "sess-1",
			Weight:      gofakeit.Float64Range(0.5, 50),
			Reps:        gofakeit.Number(1, 50),
			Sets:        gofakeit.Number(1, 10),
			Duration:    gofakeit.Number(1, 120),
			WorkoutDate: gofakeit.DateRange(
				time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			).Format("2006-01-02 15:04:05"),
		})
		require.NoError(t, err)
		if res.Duplicate {
			continue
		}
		assert.GreaterOrEqual(t, res.Entry.Calories, 1.0)
		assert.LessOrEqual(t, res.Entry.Calories, 2000.0)
	}
}
