package repository

import (
	"testing"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archivedMessage(externalID string) *models.Message {
	conv := "conv-1"
	return &models.Message{
		ExternalID:     externalID,
		SenderID:       1,
		RecipientID:    2,
		ConversationID: &conv,
		Content:        "hello",
		SentAt:         time.Now(),
	}
}

func TestMessageCreateDuplicateExternalID(t *testing.T) {
	repo := NewMessageRepository(testDB(t))

	require.NoError(t, repo.Create(archivedMessage("fb-001")))

	err := repo.Create(archivedMessage("fb-001"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists, "unique index on external_id must translate to the domain sentinel")

	// Different key is fine.
	require.NoError(t, repo.Create(archivedMessage("fb-002")))
}

func TestMessageFindByExternalID(t *testing.T) {
	repo := NewMessageRepository(testDB(t))

	_, err := repo.FindByExternalID("fb-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	m := archivedMessage("fb-001")
	m.Attachments = []models.MessageAttachment{
		{Position: 0, FileName: "passport.pdf", FileURL: "https://cdn/p.pdf"},
		{Position: 1, FileName: "visa.jpg", FileURL: "https://cdn/v.jpg"},
	}
	require.NoError(t, repo.Create(m))

	got, err := repo.FindByExternalID("fb-001")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	require.Len(t, got.Attachments, 2)
	assert.Equal(t, "passport.pdf", got.Attachments[0].FileName)
	assert.Equal(t, "visa.jpg", got.Attachments[1].FileName)
}

func TestMessageMarkReadIsOneWay(t *testing.T) {
	repo := NewMessageRepository(testDB(t))
	m := archivedMessage("fb-001")
	require.NoError(t, repo.Create(m))

	first := time.Now().Add(-time.Minute).Truncate(time.Second)
	require.NoError(t, repo.MarkRead(m.ID, first))

	got, err := repo.GetByID(m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, first.Unix(), got.ReadAt.Unix())

	// A later MarkRead matches zero rows and must not move read_at.
	require.NoError(t, repo.MarkRead(m.ID, time.Now()))
	again, err := repo.GetByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Unix(), again.ReadAt.Unix(), "read_at is set once, by the first receipt")
}

func TestMessageListByConversationOrdersBySentAt(t *testing.T) {
	repo := NewMessageRepository(testDB(t))

	// Insert out of send order on purpose.
	base := time.Now().Add(-time.Hour)
	for i, ext := range []string{"fb-003", "fb-001", "fb-002"} {
		m := archivedMessage(ext)
		m.SentAt = base.Add(time.Duration(3-i) * time.Minute)
		require.NoError(t, repo.Create(m))
	}
	other := archivedMessage("fb-other")
	otherConv := "conv-2"
	other.ConversationID = &otherConv
	require.NoError(t, repo.Create(other))

	list, err := repo.ListByConversation("conv-1", 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].SentAt.Before(list[i-1].SentAt), "conversation reads back in send order")
	}
}

func TestMessageCountUnreadByRecipient(t *testing.T) {
	repo := NewMessageRepository(testDB(t))

	a := archivedMessage("fb-001")
	b := archivedMessage("fb-002")
	c := archivedMessage("fb-003")
	c.RecipientID = 9
	for _, m := range []*models.Message{a, b, c} {
		require.NoError(t, repo.Create(m))
	}

	n, err := repo.CountUnreadByRecipient(2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, repo.MarkRead(a.ID, time.Now()))
	n, err = repo.CountUnreadByRecipient(2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
