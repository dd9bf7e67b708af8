// Package realtime wraps the Firestore store that feeds live UI
// subscriptions. The durable MySQL store stays authoritative; every
// write here is a best-effort mirror whose failure callers log and
// swallow. Nothing in this package is ever retried.
package realtime

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Mirror is the gateway to the real-time store. A nil *Mirror is valid
// and turns every call into a no-op, mirroring how the FCM service
// degrades when Firebase is not configured.
type Mirror struct {
	client *firestore.Client
}

// NewMirror connects to Firestore. Returns nil if Firebase is not configured.
func NewMirror(serviceAccountPath, projectID string) *Mirror {
	if serviceAccountPath == "" {
		return nil
	}
	ctx := context.Background()
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logrus.WithError(err).Warn("firestore mirror disabled: firebase init failed")
		return nil
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		logrus.WithError(err).Warn("firestore mirror disabled: client init failed")
		return nil
	}
	return &Mirror{client: client}
}

// WriteKeyed sets one document under the given collection path, e.g.
// WriteKeyed(ctx, "users/abc/notifications", "41", payload).
func (m *Mirror) WriteKeyed(ctx context.Context, collectionPath, itemKey string, value map[string]interface{}) error {
	if m == nil || itemKey == "" {
		return nil
	}
	_, err := m.client.Collection(collectionPath).Doc(itemKey).Set(ctx, value)
	return err
}

// SetReadFlag marks a conversation message read in the live store.
// readerID is the real-time identity (Firebase UID), not the durable
// user ID.
func (m *Mirror) SetReadFlag(ctx context.Context, conversationID, externalID, readerID string) error {
	if m == nil {
		return nil
	}
	doc := m.client.Collection(MessagesPath(conversationID)).Doc(externalID)
	_, err := doc.Update(ctx, []firestore.Update{
		{Path: "isRead", Value: true},
		{Path: "readBy", Value: firestore.ArrayUnion(readerID)},
		{Path: "readAt", Value: firestore.ServerTimestamp},
	})
	return err
}

// Close releases the underlying client (shutdown only).
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	return m.client.Close()
}

// MessagesPath is the live-store collection holding a conversation's messages.
func MessagesPath(conversationID string) string {
	return fmt.Sprintf("conversations/%s/messages", conversationID)
}

// NotificationsPath is the live-store collection holding a user's toasts,
// keyed by the user's real-time identity.
func NotificationsPath(firebaseUID string) string {
	return fmt.Sprintf("users/%s/notifications", firebaseUID)
}
