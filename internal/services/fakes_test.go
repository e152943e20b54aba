package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"event-photo-backend/internal/models"
	"event-photo-backend/internal/notify"
	"event-photo-backend/internal/repository"
)

// memStore is an in-memory repository.Store
type memStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
	users  map[string]*models.User
	photos map[string]*models.Photo
	txs    int
	locks  int
}

func newMemStore() *memStore {
	return &memStore{
		events: map[string]*models.Event{},
		users:  map[string]*models.User{},
		photos: map[string]*models.Photo{},
	}
}

func (s *memStore) Events() repository.Events { return memEvents{s} }
func (s *memStore) Users() repository.Users   { return memUsers{s} }
func (s *memStore) Photos() repository.Photos { return memPhotos{s} }

func (s *memStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	s.mu.Lock()
	s.txs++
	s.mu.Unlock()
	return fn(s)
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	c.Participants = append([]string{}, e.Participants...)
	c.PendingApprovals = append([]string{}, e.PendingApprovals...)
	return &c
}

type memEvents struct{ s *memStore }

func (r memEvents) Create(_ context.Context, e *models.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.events {
		if other.EventCode == e.EventCode {
			return fmt.Errorf("event code taken: %w", repository.ErrDuplicate)
		}
	}
	r.s.events[e.ID] = copyEvent(e)
	return nil
}

func (r memEvents) GetByID(_ context.Context, id string) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, fmt.Errorf("event not found: %w", repository.ErrNotFound)
	}
	return copyEvent(e), nil
}

func (r memEvents) GetByIDForUpdate(ctx context.Context, id string) (*models.Event, error) {
	r.s.mu.Lock()
	r.s.locks++
	r.s.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r memEvents) GetByCode(_ context.Context, code string) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.EventCode == code {
			return copyEvent(e), nil
		}
	}
	return nil, fmt.Errorf("event not found: %w", repository.ErrNotFound)
}

func (r memEvents) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r memEvents) ListByUser(_ context.Context, userID string) ([]*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Event
	for _, e := range r.s.events {
		if e.OwnerID == userID || slices.Contains(e.Participants, userID) || slices.Contains(e.PendingApprovals, userID) {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (r memEvents) mutate(eventID string, fn func(e *models.Event) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[eventID]
	if !ok {
		return false, fmt.Errorf("event not found: %w", repository.ErrNotFound)
	}
	return fn(e), nil
}

func (r memEvents) AddParticipant(_ context.Context, eventID, userID string) (bool, error) {
	return r.mutate(eventID, func(e *models.Event) bool {
		if slices.Contains(e.Participants, userID) {
			return false
		}
		e.Participants = append(e.Participants, userID)
		e.PendingApprovals = slices.DeleteFunc(e.PendingApprovals, func(id string) bool { return id == userID })
		return true
	})
}

func (r memEvents) AddPending(_ context.Context, eventID, userID string) (bool, error) {
	return r.mutate(eventID, func(e *models.Event) bool {
		if slices.Contains(e.Participants, userID) || slices.Contains(e.PendingApprovals, userID) {
			return false
		}
		e.PendingApprovals = append(e.PendingApprovals, userID)
		return true
	})
}

func (r memEvents) PromotePending(_ context.Context, eventID, userID string) (bool, error) {
	return r.mutate(eventID, func(e *models.Event) bool {
		if !slices.Contains(e.PendingApprovals, userID) {
			return false
		}
		e.PendingApprovals = slices.DeleteFunc(e.PendingApprovals, func(id string) bool { return id == userID })
		if !slices.Contains(e.Participants, userID) {
			e.Participants = append(e.Participants, userID)
		}
		return true
	})
}

func (r memEvents) RemovePending(_ context.Context, eventID, userID string) (bool, error) {
	return r.mutate(eventID, func(e *models.Event) bool {
		if !slices.Contains(e.PendingApprovals, userID) {
			return false
		}
		e.PendingApprovals = slices.DeleteFunc(e.PendingApprovals, func(id string) bool { return id == userID })
		return true
	})
}

func (r memEvents) IncrementTotalPhotos(_ context.Context, eventID string, n int) (int, error) {
	var total int
	_, err := r.mutate(eventID, func(e *models.Event) bool {
		e.TotalPhotos += n
		total = e.TotalPhotos
		return true
	})
	return total, err
}

func (r memEvents) SetCoverImage(_ context.Context, eventID, url string) error {
	_, err := r.mutate(eventID, func(e *models.Event) bool {
		e.CoverImageURL = &url
		return true
	})
	return err
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return fmt.Errorf("email taken: %w", repository.ErrDuplicate)
		}
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
}

func (r memUsers) update(userID string, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", repository.ErrNotFound)
	}
	fn(u)
	return nil
}

func (r memUsers) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	return r.update(userID, func(u *models.User) { u.PushToken = pushToken })
}

func (r memUsers) AddEventCreated(_ context.Context, userID, eventID string) error {
	return r.update(userID, func(u *models.User) { u.EventsCreated = append(u.EventsCreated, eventID) })
}

func (r memUsers) AddEventJoined(_ context.Context, userID, eventID string) error {
	return r.update(userID, func(u *models.User) {
		if !slices.Contains(u.EventsJoined, eventID) {
			u.EventsJoined = append(u.EventsJoined, eventID)
		}
	})
}

type memPhotos struct{ s *memStore }

func (r memPhotos) Create(_ context.Context, p *models.Photo) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	r.s.photos[p.ID] = &c
	return nil
}

func (r memPhotos) GetByID(_ context.Context, id string) (*models.Photo, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo not found: %w", repository.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (r memPhotos) Confirm(_ context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.photos[id]
	if !ok || p.ConfirmedAt != nil {
		return false, nil
	}
	p.ConfirmedAt = &at
	return true, nil
}

func (r memPhotos) ListByEvent(_ context.Context, eventID string, limit, offset int) ([]*models.Photo, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*models.Photo
	for _, p := range r.s.photos {
		if p.EventID == eventID && p.ConfirmedAt != nil {
			c := *p
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r memPhotos) CountByUserSource(_ context.Context, eventID, userID string, source models.PhotoSource) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, p := range r.s.photos {
		if p.EventID == eventID && p.UserID == userID && p.Source == source {
			n++
		}
	}
	return n, nil
}

// fakeRealtime records messages for users marked online
type fakeRealtime struct {
	mu     sync.Mutex
	online map[string]bool
	sent   map[string][]WSMessage
}

func newFakeRealtime(online ...string) *fakeRealtime {
	rt := &fakeRealtime{online: map[string]bool{}, sent: map[string][]WSMessage{}}
	for _, id := range online {
		rt.online[id] = true
	}
	return rt
}

func (f *fakeRealtime) SendToUser(userID string, msg WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[userID] = append(f.sent[userID], msg)
	return nil
}

func (f *fakeRealtime) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeRealtime) types(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent[userID] {
		out = append(out, m.Type)
	}
	return out
}

// fakePublisher records notifications
type fakePublisher struct {
	err  error
	msgs []notify.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg notify.Message) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

// fakeBlobs signs nothing
type fakeBlobs struct {
	err error
}

func (f fakeBlobs) PresignPut(_ context.Context, key, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://upload.test/" + key + "?sig=1", nil
}

func (f fakeBlobs) ObjectURL(key string) string {
	return "https://cdn.test/" + key
}

func (f fakeBlobs) TTL() time.Duration {
	return 5 * time.Minute
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedUser(s *memStore, id, name string) *models.User {
	u := &models.User{
		ID:            id,
		Email:         id + "@example.com",
		DisplayName:   name,
		EventsCreated: []string{},
		EventsJoined:  []string{},
	}
	s.users[id] = u
	return u
}

func seedEvent(s *memStore, e *models.Event) *models.Event {
	if e.Participants == nil {
		e.Participants = []string{e.OwnerID}
	}
	if e.PendingApprovals == nil {
		e.PendingApprovals = []string{}
	}
	if e.RevealPhotos == "" {
		e.RevealPhotos = models.RevealDuring
	}
	s.events[e.ID] = copyEvent(e)
	return e
}
