package workouts

import (
	"context"
	"math"
	"sync"
	"time"
)

var _ entriesRepo = (*RepoMock)(nil)

// RepoMock is an in-memory entries repo for unit tests.
type RepoMock struct {
	mutex   sync.Mutex
	Entries map[int]*Entry
	Reps    map[int]*Rep
	nextID  int
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Entries: make(map[int]*Entry),
		Reps:    make(map[int]*Rep),
		nextID:  1,
	}
}

func (r *RepoMock) InsertEntry(_ context.Context, entry Entry) (*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry.ID = r.nextID
	r.nextID++
	r.Entries[entry.ID] = &entry
	added := entry
	return &added, nil
}

func (r *RepoMock) FindDuplicate(
	_ context.Context,
	sessionID string,
	reps, sets int,
	ts time.Time,
	window time.Duration,
) (*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, e := range r.Entries {
		if e.SessionID != sessionID || e.Reps != reps || e.Sets != sets {
			continue
		}
		if math.Abs(e.Timestamp.Sub(ts).Seconds()) <= window.Seconds() {
			found := *e
			return &found, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (r *RepoMock) GetEntry(_ context.Context, id int) (*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, ok := r.Entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	found := *e
	return &found, nil
}

func (r *RepoMock) ListEntries(_ context.Context, sessionID string) ([]Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var entries []Entry
	for _, e := range r.Entries {
		if e.SessionID == sessionID {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

func (r *RepoMock) UpdateEntry(_ context.Context, entry *Entry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Entries[entry.ID]; !ok {
		return ErrEntryNotFound
	}
	updated := *entry
	r.Entries[entry.ID] = &updated
	return nil
}

func (r *RepoMock) DeleteEntry(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.Entries, id)
	return nil
}

func (r *RepoMock) InsertRep(_ context.Context, rep Rep) (*Rep, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rep.ID = r.nextID
	r.nextID++
	r.Reps[rep.ID] = &rep
	added := rep
	return &added, nil
}

func (r *RepoMock) ListReps(_ context.Context, sessionID string) ([]Rep, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var reps []Rep
	for _, rep := range r.Reps {
		if rep.SessionID == sessionID {
			reps = append(reps, *rep)
		}
	}
	return reps, nil
}
