package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"visahub/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func validInput() ArchiveInput {
	conv := "conv-1"
	return ArchiveInput{
		ExternalID:     "fb-001",
		SenderID:       1,
		RecipientID:    2,
		ConversationID: &conv,
		Content:        "hello",
		SentAt:         time.Now(),
	}
}

func TestArchiveValidation(t *testing.T) {
	svc := NewArchiveService(newFakeMessageStore(), testLogger())

	cases := []struct {
		name   string
		mutate func(*ArchiveInput)
	}{
		{"missing external id", func(in *ArchiveInput) { in.ExternalID = "" }},
		{"missing sender", func(in *ArchiveInput) { in.SenderID = 0 }},
		{"missing recipient", func(in *ArchiveInput) { in.RecipientID = 0 }},
		{"missing content", func(in *ArchiveInput) { in.Content = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Archive(in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestArchiveCreatesOnce(t *testing.T) {
	store := newFakeMessageStore()
	svc := NewArchiveService(store, testLogger())

	id1, err := svc.Archive(validInput())
	require.NoError(t, err)
	require.NotZero(t, id1)

	id2, err := svc.Archive(validInput())
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, store.rowCount())
	assert.Equal(t, 1, store.createCalls, "second call must short-circuit before insert")
}

func TestArchiveConcurrentDuplicates(t *testing.T) {
	store := newFakeMessageStore()
	svc := NewArchiveService(store, testLogger())

	const callers = 16
	ids := make([]uint, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = svc.Archive(validInput())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, store.rowCount())
}

func TestArchiveRecoversFromDuplicateKeyRace(t *testing.T) {
	store := newFakeMessageStore()
	svc := NewArchiveService(store, testLogger())

	// The winner's row is already in the store, but this caller's
	// existence check ran before it landed: the lookup misses, the
	// insert hits the unique constraint, and the service must resolve
	// it by re-reading instead of surfacing a duplicate-key error.
	winner, err := svc.Archive(validInput())
	require.NoError(t, err)

	store.mu.Lock()
	store.findMisses = 1
	store.mu.Unlock()

	got, err := svc.Archive(validInput())
	require.NoError(t, err, "duplicate-key on insert must never reach the caller")
	assert.Equal(t, winner, got)
}

func TestArchiveStoreFailurePropagates(t *testing.T) {
	store := newFakeMessageStore()
	storeErr := errors.New("connection refused")
	store.createErr = storeErr
	svc := NewArchiveService(store, testLogger())

	_, err := svc.Archive(validInput())
	assert.ErrorIs(t, err, storeErr)
}

func TestArchivePreservesAttachmentOrder(t *testing.T) {
	store := newFakeMessageStore()
	svc := NewArchiveService(store, testLogger())

	in := validInput()
	in.Attachments = []AttachmentInput{
		{FileName: "passport.pdf", FileURL: "https://cdn/p.pdf"},
		{FileName: "visa.jpg", FileURL: "https://cdn/v.jpg"},
		{FileName: "form.pdf", FileURL: "https://cdn/f.pdf"},
	}
	id, err := svc.Archive(in)
	require.NoError(t, err)

	msg, err := store.GetByID(id)
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 3)
	for i, a := range msg.Attachments {
		assert.Equal(t, i, a.Position)
	}
	assert.Equal(t, "passport.pdf", msg.Attachments[0].FileName)
	assert.Equal(t, "form.pdf", msg.Attachments[2].FileName)
}
