package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"
)

// In-memory doubles for the store and gateway interfaces. They enforce
// the same contracts the real implementations do (unique external IDs,
// all-or-nothing batch inserts) so the services can be exercised
// without a database.

type fakeMessageStore struct {
	mu         sync.Mutex
	byExternal map[string]*models.Message
	byID       map[uint]*models.Message
	nextID     uint

	findErr       error
	findMisses    int // pretend the row is absent for this many lookups
	createErr     error
	markReadErr   error
	createCalls   int
	markReadCalls int
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		byExternal: make(map[string]*models.Message),
		byID:       make(map[uint]*models.Message),
	}
}

func (f *fakeMessageStore) FindByExternalID(externalID string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.findMisses > 0 {
		f.findMisses--
		return nil, domain.ErrNotFound
	}
	m, ok := f.byExternal[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) Create(m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byExternal[m.ExternalID]; ok {
		return domain.ErrAlreadyExists
	}
	f.nextID++
	m.ID = f.nextID
	cp := *m
	f.byExternal[m.ExternalID] = &cp
	f.byID[m.ID] = &cp
	return nil
}

func (f *fakeMessageStore) GetByID(id uint) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMessageStore) MarkRead(id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markReadCalls++
	if f.markReadErr != nil {
		return f.markReadErr
	}
	m, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !m.IsRead {
		m.IsRead = true
		m.ReadAt = &at
	}
	return nil
}

func (f *fakeMessageStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byExternal)
}

type fakeNotificationStore struct {
	mu       sync.Mutex
	batches  [][]models.Notification
	rows     []models.Notification
	nextID   uint
	failures int // fail this many CreateBatch calls before succeeding
	calls    int
}

func (f *fakeNotificationStore) CreateBatch(rows []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("store unavailable")
	}
	batch := make([]models.Notification, len(rows))
	for i := range rows {
		f.nextID++
		rows[i].ID = f.nextID
		batch[i] = rows[i]
	}
	f.batches = append(f.batches, batch)
	f.rows = append(f.rows, batch...)
	return nil
}

func (f *fakeNotificationStore) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeNotificationStore) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeNotificationStore) allRows() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.rows))
	copy(out, f.rows)
	return out
}

type fakeMirror struct {
	mu            sync.Mutex
	writes        []mirrorWrite
	readFlags     []mirrorReadFlag
	writeErr      error
	setReadErr    error
	setReadCalls  int
	writeKeyCalls int
}

type mirrorWrite struct {
	path, key string
	value     map[string]interface{}
}

type mirrorReadFlag struct {
	conversationID, externalID, readerID string
}

func (f *fakeMirror) WriteKeyed(_ context.Context, path, key string, value map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeKeyCalls++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, mirrorWrite{path: path, key: key, value: value})
	return nil
}

func (f *fakeMirror) SetReadFlag(_ context.Context, conversationID, externalID, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setReadCalls = f.setReadCalls + 1
	if f.setReadErr != nil {
		return f.setReadErr
	}
	f.readFlags = append(f.readFlags, mirrorReadFlag{conversationID, externalID, readerID})
	return nil
}

func (f *fakeMirror) readFlagCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setReadCalls
}

type fakeDirectory struct {
	mu   sync.Mutex
	uids map[uint]string
	fcm  map[uint]string
}

func (f *fakeDirectory) FirebaseUIDByID(userID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uids[userID], nil
}

func (f *fakeDirectory) FCMTokenByID(userID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fcm[userID], nil
}

type fakePush struct {
	mu    sync.Mutex
	sends []string // tokens
	err   error
}

func (f *fakePush) SendToUser(_ context.Context, token, _, _, _ string, _ map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, token)
	return nil
}

type fakeHub struct {
	mu       sync.Mutex
	payloads map[uint][]interface{}
}

func newFakeHub() *fakeHub {
	return &fakeHub{payloads: make(map[uint][]interface{})}
}

func (f *fakeHub) BroadcastToUser(userID uint, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[userID] = append(f.payloads[userID], payload)
}

func (f *fakeHub) countFor(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads[userID])
}
