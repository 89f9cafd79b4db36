// Package notification sends best-effort notifications after user actions.
// Delivery failures are logged and never returned to the caller.
package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification is one message for one user.
type Notification struct {
	ID     string         `json:"id"`
	UserID string         `json:"user_id"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data"`
	SentAt time.Time      `json:"sent_at"`
}

const defaultSendTimeout = 5 * time.Second

// Notifier sends and schedules notifications through a Dispatcher.
type Notifier struct {
	dispatcher Dispatcher
	log        *zap.Logger
	timeout    time.Duration

	mu        sync.Mutex
	scheduled map[string]*time.Timer
	closed    bool
	inflight  sync.WaitGroup
}

func New(dispatcher Dispatcher, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		dispatcher: dispatcher,
		log:        log,
		timeout:    defaultSendTimeout,
		scheduled:  make(map[string]*time.Timer),
	}
}

// RequestPermissions reports whether the user accepts notifications.
func (n *Notifier) RequestPermissions(ctx context.Context, userID string) bool {
	ok, err := n.dispatcher.RequestPermission(ctx, userID)
	if err != nil {
		n.log.Error("failed to request notification permission", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	if !ok {
		n.log.Info("notification permission denied", zap.String("user_id", userID))
	}
	return ok
}

// Send delivers a notification now and waits for the dispatcher.
func (n *Notifier) Send(ctx context.Context, userID, title, body string, data map[string]any) {
	n.send(ctx, Notification{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   data,
	})
}

func (n *Notifier) send(ctx context.Context, msg Notification) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if !n.RequestPermissions(ctx, msg.UserID) {
		return
	}
	if msg.Data == nil {
		msg.Data = map[string]any{}
	}
	msg.SentAt = time.Now()
	if err := n.dispatcher.Dispatch(ctx, msg); err != nil {
		n.log.Error("failed to send notification",
			zap.String("user_id", msg.UserID),
			zap.String("title", msg.Title),
			zap.Error(err))
	}
}

// sendAsync delivers in the background so the caller is never delayed.
func (n *Notifier) sendAsync(ctx context.Context, userID, title, body string, data map[string]any) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.Debug("notifier closed, dropping notification", zap.String("title", title))
		return
	}
	n.inflight.Add(1)
	n.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer n.inflight.Done()
		n.Send(ctx, userID, title, body, data)
	}()
}

// Schedule delivers a notification after delay and returns its id, or ""
// when the notifier is closed.
func (n *Notifier) Schedule(ctx context.Context, userID, title, body string, delay time.Duration, data map[string]any) string {
	id := uuid.NewString()
	msg := Notification{ID: id, UserID: userID, Title: title, Body: body, Data: data}
	ctx = context.WithoutCancel(ctx)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.log.Warn("notifier closed, not scheduling", zap.String("title", title))
		return ""
	}
	n.scheduled[id] = time.AfterFunc(delay, func() {
		n.mu.Lock()
		_, pending := n.scheduled[id]
		delete(n.scheduled, id)
		if !pending || n.closed {
			n.mu.Unlock()
			return
		}
		n.inflight.Add(1)
		n.mu.Unlock()

		defer n.inflight.Done()
		n.send(ctx, msg)
	})
	return id
}

// Cancel drops a scheduled notification. Unknown ids are ignored.
func (n *Notifier) Cancel(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.scheduled[id]; ok {
		t.Stop()
		delete(n.scheduled, id)
	}
}

// CancelAll drops every scheduled notification.
func (n *Notifier) CancelAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.scheduled {
		t.Stop()
		delete(n.scheduled, id)
	}
}

// Pending returns the number of scheduled notifications not yet sent.
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.scheduled)
}

// Close cancels scheduled notifications and waits for in-flight sends.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.CancelAll()
	n.inflight.Wait()
}

func (n *Notifier) NotifyRecipeCreated(ctx context.Context, userID, recipeName string) {
	n.sendAsync(ctx, userID,
		"🍳 Receita Criada!",
		fmt.Sprintf("Sua receita %q foi salva com sucesso!", recipeName),
		map[string]any{"type": "recipe_created", "recipeName": recipeName})
}

func (n *Notifier) NotifyRecipeUpdated(ctx context.Context, userID, recipeName string) {
	n.sendAsync(ctx, userID,
		"✏️ Receita Atualizada!",
		fmt.Sprintf("Sua receita %q foi atualizada!", recipeName),
		map[string]any{"type": "recipe_updated", "recipeName": recipeName})
}

func (n *Notifier) NotifyRecipeFavorited(ctx context.Context, userID, recipeName string) {
	n.sendAsync(ctx, userID,
		"❤️ Receita Favoritada!",
		fmt.Sprintf("Você favoritou a receita %q!", recipeName),
		map[string]any{"type": "recipe_favorited", "recipeName": recipeName})
}

func (n *Notifier) NotifyWelcome(ctx context.Context, userID, userName string) {
	n.sendAsync(ctx, userID,
		"👋 Bem-vindo!",
		fmt.Sprintf("Olá %s! Que tal criar sua primeira receita?", userName),
		map[string]any{"type": "welcome", "userName": userName})
}

func (n *Notifier) NotifyProfileUpdated(ctx context.Context, userID string) {
	n.sendAsync(ctx, userID,
		"👤 Perfil Atualizado!",
		"Suas informações de perfil foram atualizadas com sucesso!",
		map[string]any{"type": "profile_updated"})
}

// ScheduleRecipeReminder reminds the user to cook a recipe in minutes.
func (n *Notifier) ScheduleRecipeReminder(ctx context.Context, userID, recipeName string, minutes int) string {
	return n.Schedule(ctx, userID,
		"🍽️ Hora de Cozinhar!",
		fmt.Sprintf("Que tal preparar %q hoje?", recipeName),
		time.Duration(minutes)*time.Minute,
		map[string]any{"type": "recipe_reminder", "recipeName": recipeName})
}
