package users

import (
	"context"
	"sync"
	"time"
)

var _ usersRepo = (*RepoMock)(nil)

type RepoMock struct {
	mutex  sync.Mutex
	Users  map[int]*User
	Stats  map[int]*LifetimeStats
	nextID int
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Users:  make(map[int]*User),
		Stats:  make(map[int]*LifetimeStats),
		nextID: 1,
	}
}

func (r *RepoMock) Create(_ context.Context, name, rfidTag string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.RFIDTag == rfidTag {
			return nil, ErrRFIDTagExists
		}
	}

	user := &User{
		ID:        r.nextID,
		Name:      name,
		RFIDTag:   rfidTag,
		CreatedAt: time.Now(),
	}
	r.nextID++
	r.Users[user.ID] = user
	created := *user
	return &created, nil
}

func (r *RepoMock) GetByID(_ context.Context, id int) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (r *RepoMock) GetByRFID(_ context.Context, rfidTag string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.RFIDTag == rfidTag {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *RepoMock) LifetimeStats(_ context.Context, userID int) (*LifetimeStats, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if stats, ok := r.Stats[userID]; ok {
		found := *stats
		return &found, nil
	}
	return &LifetimeStats{}, nil
}
