package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"visahub/internal/domain"
	"visahub/internal/models"
	"visahub/internal/realtime"

	"github.com/sirupsen/logrus"
)

// NotificationStore is the durable side of the notifier.
// *repository.NotificationRepository satisfies it. CreateBatch must be
// all-or-nothing for the given rows.
type NotificationStore interface {
	CreateBatch(rows []models.Notification) error
}

// UserDirectory resolves delivery endpoints for a recipient.
// *repository.UserRepository satisfies it.
type UserDirectory interface {
	FCMTokenByID(userID uint) (string, error)
	FirebaseUIDByID(userID uint) (string, error)
}

// PushGateway dispatches one push notification. *FCMService satisfies it.
type PushGateway interface {
	SendToUser(ctx context.Context, fcmToken, notifType, title, body string, data map[string]interface{}) error
}

// ToastBroadcaster fans a payload out to a user's open sockets.
// *ws.Hub satisfies it.
type ToastBroadcaster interface {
	BroadcastToUser(userID uint, payload interface{})
}

// NotifyOptions carries the optional notification fields.
type NotifyOptions struct {
	RelatedCaseID *uint
	ActionURL     string
	Priority      string
}

type pendingNotification struct {
	userID        uint
	notifType     string
	title         string
	body          string
	relatedCaseID *uint
	actionURL     string
	priority      string
	enqueuedAt    time.Time
}

// Notifier accepts notification requests from anywhere in the
// application and coalesces them into bounded durable batches. A batch
// is flushed when it reaches BatchSize or when FlushDelay has passed
// since the first unflushed item, whichever comes first. The durable
// insert is all-or-nothing; on failure the whole batch goes back to the
// front of the queue and is retried after RetryBackoff, forever.
//
// Producers never learn whether delivery worked. Push, live toasts and
// the Firestore mirror run as spawned best-effort tasks after the
// durable write; their failures are logged and dropped.
//
// The queue is process-local. Each server process batches and retries
// independently; there is no cross-process ordering or global
// exactly-once guarantee.
type Notifier struct {
	store  NotificationStore
	users  UserDirectory
	push   PushGateway
	mirror MirrorGateway
	hub    ToastBroadcaster
	log    *logrus.Logger

	batchSize    int
	flushDelay   time.Duration
	retryBackoff time.Duration

	mu      sync.Mutex
	pending []pendingNotification

	// flushMu serializes flushes between the background loop and
	// FlushNow; a flush is never re-entrant.
	flushMu sync.Mutex

	kickC    chan struct{}
	fullC    chan struct{}
	stopC    chan struct{}
	doneC    chan struct{}
	stopOnce sync.Once
}

// NewNotifier starts the background flush loop. Call Stop on shutdown
// to drain what is still queued.
func NewNotifier(store NotificationStore, users UserDirectory, push PushGateway, mirror MirrorGateway, hub ToastBroadcaster, batchSize int, flushDelay, retryBackoff time.Duration, log *logrus.Logger) *Notifier {
	if batchSize <= 0 {
		batchSize = 50
	}
	if flushDelay <= 0 {
		flushDelay = time.Second
	}
	if retryBackoff <= 0 {
		retryBackoff = 5 * time.Second
	}
	n := &Notifier{
		store:        store,
		users:        users,
		push:         push,
		mirror:       mirror,
		hub:          hub,
		log:          log,
		batchSize:    batchSize,
		flushDelay:   flushDelay,
		retryBackoff: retryBackoff,
		kickC:        make(chan struct{}, 1),
		fullC:        make(chan struct{}, 1),
		stopC:        make(chan struct{}),
		doneC:        make(chan struct{}),
	}
	go n.run()
	return n
}

// Enqueue queues one notification for userID. Fire-and-forget: the
// caller gets no outcome, not even for an unknown type (which is
// logged and dropped).
func (n *Notifier) Enqueue(userID uint, notifType, title, body string, opts *NotifyOptions) {
	if userID == 0 || !domain.ValidNotificationType(notifType) {
		n.log.WithFields(logrus.Fields{"user_id": userID, "type": notifType}).
			Warn("dropping notification with invalid recipient or type")
		return
	}
	item := pendingNotification{
		userID:     userID,
		notifType:  notifType,
		title:      title,
		body:       body,
		priority:   domain.PriorityMedium,
		enqueuedAt: time.Now(),
	}
	if opts != nil {
		item.relatedCaseID = opts.RelatedCaseID
		item.actionURL = opts.ActionURL
		switch opts.Priority {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
			item.priority = opts.Priority
		}
	}

	n.mu.Lock()
	wasEmpty := len(n.pending) == 0
	n.pending = append(n.pending, item)
	full := len(n.pending) >= n.batchSize
	n.mu.Unlock()

	if wasEmpty {
		select {
		case n.kickC <- struct{}{}:
		default:
		}
	}
	if full {
		select {
		case n.fullC <- struct{}{}:
		default:
		}
	}
}

// FlushNow synchronously drains the queue, one batch per insert. It
// stops at the first failed insert, leaving the failed batch and
// everything behind it queued. Exposed for graceful shutdown and tests.
func (n *Notifier) FlushNow() error {
	for n.pendingLen() > 0 {
		if ok := n.flushOnce(); !ok {
			return fmt.Errorf("notification flush failed, %d items still queued", n.pendingLen())
		}
	}
	return nil
}

// Stop drains the queue once and terminates the background loop.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() { close(n.stopC) })
	<-n.doneC
}

func (n *Notifier) run() {
	defer close(n.doneC)
	for {
		select {
		case <-n.stopC:
			n.drain()
			return
		case <-n.kickC:
		}

		// Something is queued. Hold off until the batch fills or the
		// delay since its first item runs out.
		if n.pendingLen() < n.batchSize {
			delay := time.NewTimer(n.flushDelay)
			select {
			case <-n.stopC:
				delay.Stop()
				n.drain()
				return
			case <-n.fullC:
				delay.Stop()
			case <-delay.C:
			}
		}

		for !n.flushOnce() {
			backoff := time.NewTimer(n.retryBackoff)
			select {
			case <-n.stopC:
				backoff.Stop()
				n.drain()
				return
			case <-backoff.C:
			}
		}

		// A fullC token may be left over from items that arrived while
		// flushing; the size check at the top of the next cycle covers
		// them, so a stale token must not trigger an early flush.
		select {
		case <-n.fullC:
		default:
		}

		// Items that arrived mid-flush, or overflow beyond one batch,
		// sent no kick because the queue was never empty. Re-kick so
		// the next cycle picks them up.
		if n.pendingLen() > 0 {
			select {
			case n.kickC <- struct{}{}:
			default:
			}
		}
	}
}

func (n *Notifier) drain() {
	if err := n.FlushNow(); err != nil {
		n.log.WithError(err).Error("final notification drain failed")
	}
}

// flushOnce moves up to BatchSize items from the front of the queue
// into the durable store as one insert. Returns false when the insert
// failed and the batch was put back at the front of the queue.
func (n *Notifier) flushOnce() bool {
	n.flushMu.Lock()
	defer n.flushMu.Unlock()

	n.mu.Lock()
	take := len(n.pending)
	if take > n.batchSize {
		take = n.batchSize
	}
	batch := n.pending[:take:take]
	n.pending = n.pending[take:]
	n.mu.Unlock()
	if len(batch) == 0 {
		return true
	}

	rows := make([]models.Notification, len(batch))
	for i, item := range batch {
		rows[i] = models.Notification{
			UserID:        item.userID,
			Type:          item.notifType,
			Title:         item.title,
			Body:          item.body,
			RelatedCaseID: item.relatedCaseID,
			ActionURL:     item.actionURL,
			Priority:      item.priority,
		}
	}

	if err := n.store.CreateBatch(rows); err != nil {
		n.log.WithError(err).WithField("batch_size", len(batch)).
			Warn("notification batch insert failed, requeueing")
		n.mu.Lock()
		n.pending = append(batch, n.pending...)
		n.mu.Unlock()
		return false
	}

	for i := range rows {
		go n.dispatch(rows[i])
	}
	return true
}

// dispatch runs the best-effort side effects for one persisted
// notification: FCM push, live toast, Firestore mirror. Nothing here
// may unwind a caller; failures are logged per item.
func (n *Notifier) dispatch(row models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			n.log.WithField("notification_id", row.ID).Errorf("notification dispatch panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	payload := map[string]interface{}{
		"id":       row.ID,
		"type":     row.Type,
		"title":    row.Title,
		"body":     row.Body,
		"priority": row.Priority,
	}
	if row.RelatedCaseID != nil {
		payload["related_case_id"] = *row.RelatedCaseID
	}
	if row.ActionURL != "" {
		payload["action_url"] = row.ActionURL
	}

	n.hub.BroadcastToUser(row.UserID, payload)

	if token, err := n.users.FCMTokenByID(row.UserID); err == nil && token != "" {
		if err := n.push.SendToUser(ctx, token, row.Type, row.Title, row.Body, payload); err != nil {
			n.log.WithField("notification_id", row.ID).WithError(err).Warn("push dispatch failed")
		}
	}

	if uid, err := n.users.FirebaseUIDByID(row.UserID); err == nil && uid != "" {
		key := fmt.Sprintf("%d", row.ID)
		if err := n.mirror.WriteKeyed(ctx, realtime.NotificationsPath(uid), key, payload); err != nil {
			n.log.WithField("notification_id", row.ID).WithError(err).Warn("notification mirror failed")
		}
	}
}

func (n *Notifier) pendingLen() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}
