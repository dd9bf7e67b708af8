package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"
	"visahub/internal/realtime"
	"visahub/internal/repository"
	"visahub/internal/service"
	"visahub/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type messageTestEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	notifier *service.Notifier
}

// stubAuth stands in for the JWT middleware: the acting user comes
// from the X-User-ID header.
func stubAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader("X-User-ID"), 10, 64)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("user_id", uint(id))
		c.Next()
	}
}

func setupMessageEnv(t *testing.T) *messageTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Message{}, &models.MessageAttachment{}, &models.Notification{},
	))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.Create(&models.User{ID: 1, FullName: "Maya Chen", Email: "maya@visahub.local", Role: domain.RoleLawyer, FirebaseUID: "firebase-u1"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, FullName: "Omar Haddad", Email: "omar@visahub.local", Role: domain.RoleApplicant, FirebaseUID: "firebase-u2"}).Error)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	messageRepo := repository.NewMessageRepository(db)
	userRepo := repository.NewUserRepository(db)
	var mirror *realtime.Mirror // nil: real-time store not configured in tests
	var push *service.FCMService
	notifier := service.NewNotifier(
		repository.NewNotificationRepository(db), userRepo, push, mirror, ws.NewHub(),
		50, time.Minute, time.Minute, log,
	)
	t.Cleanup(notifier.Stop)

	archiveSvc := service.NewArchiveService(messageRepo, log)
	receiptSvc := service.NewReceiptService(messageRepo, mirror, userRepo, log)
	h := NewMessageHandler(archiveSvc, receiptSvc, messageRepo, notifier, userRepo)

	r := gin.New()
	msgs := r.Group("/api/v1/messages", stubAuth())
	msgs.POST("/archive", h.Archive)
	msgs.PUT("/:id/read", h.MarkRead)
	msgs.GET("/conversations/:conversation_id", h.ListConversation)
	r.GET("/api/v1/me/messages/unread-count", stubAuth(), h.UnreadCount)

	return &messageTestEnv{router: r, db: db, notifier: notifier}
}

func (e *messageTestEnv) do(t *testing.T, method, path string, asUser uint, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatUint(uint64(asUser), 10))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func archivePayload(externalID string) map[string]interface{} {
	return map[string]interface{}{
		"external_id":     externalID,
		"recipient_id":    2,
		"conversation_id": "conv-1",
		"content":         "please upload your I-94",
		"sent_at":         time.Now().Format(time.RFC3339),
	}
}

func TestArchiveEndpointIdempotent(t *testing.T) {
	env := setupMessageEnv(t)

	w1 := env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-001"))
	require.Equal(t, http.StatusOK, w1.Code, w1.Body.String())
	var first struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w1.Body.Bytes(), &first))
	require.NotZero(t, first.ID)

	w2 := env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-001"))
	require.Equal(t, http.StatusOK, w2.Code)
	var second struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID, "replaying the same external_id returns the original row")

	var count int64
	env.db.Model(&models.Message{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestArchiveEndpointQueuesRecipientNotification(t *testing.T) {
	env := setupMessageEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-001"))
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.notifier.FlushNow())
	var rows []models.Notification
	require.NoError(t, env.db.Where("user_id = ?", 2).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.NotifyNewMessage, rows[0].Type)
	assert.Contains(t, rows[0].Body, "Maya Chen")
}

func TestArchiveEndpointValidation(t *testing.T) {
	env := setupMessageEnv(t)

	p := archivePayload("fb-001")
	p["content"] = ""
	w := env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, p)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	env.db.Model(&models.Message{}).Count(&count)
	assert.Zero(t, count)
}

func TestMarkReadEndpoint(t *testing.T) {
	env := setupMessageEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-001"))
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/v1/messages/%d/read", created.ID)

	// The sender may not mark it read.
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPut, path, 1, nil).Code)

	w = env.do(t, http.MethodPut, path, 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		IsRead bool       `json:"is_read"`
		ReadAt *time.Time `json:"read_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.IsRead)
	assert.NotNil(t, body.ReadAt)

	// Repeat is a cheap no-op with the same outcome.
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPut, path, 2, nil).Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/v1/messages/9999/read", 2, nil).Code)
}

func TestListConversationParticipantsOnly(t *testing.T) {
	env := setupMessageEnv(t)
	require.NoError(t, env.db.Create(&models.User{ID: 9, FullName: "Outsider", Email: "x@visahub.local", Role: domain.RoleApplicant}).Error)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-001")).Code)

	w := env.do(t, http.MethodGet, "/api/v1/messages/conversations/conv-1", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 1)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/messages/conversations/conv-1", 9, nil).Code)
}

func TestUnreadCountEndpoint(t *testing.T) {
	env := setupMessageEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-001")).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/messages/archive", 1, archivePayload("fb-002")).Code)

	w := env.do(t, http.MethodGet, "/api/v1/me/messages/unread-count", 2, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Unread int64 `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Unread)
}

func TestMessageRoutesRequireAuth(t *testing.T) {
	env := setupMessageEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages/archive", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
