package conversation

import (
	"context"
	"fmt"
	"time"

	"omi-sync/core/reconcile"
	"omi-sync/feature/conversation/models"
)

// Adapter implements reconcile.Adapter for Omi conversations.
type Adapter struct{}

// NewAdapter creates a conversation adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return "conversations"
}

// ExtractKey returns the conversation id.
func (a *Adapter) ExtractKey(item reconcile.Item) string {
	c, ok := asConversation(item)
	if !ok {
		return ""
	}
	return c.ID
}

// ExtractTitle returns the conversation title.
func (a *Adapter) ExtractTitle(item reconcile.Item) string {
	c, _ := asConversation(item)
	return c.Title()
}

// ExtractCreatedAt returns the raw creation timestamp.
func (a *Adapter) ExtractCreatedAt(item reconcile.Item) string {
	c, _ := asConversation(item)
	return c.CreatedAt
}

// ExtractContent returns the structured summary, without its title, and the transcript.
func (a *Adapter) ExtractContent(item reconcile.Item) any {
	c, _ := asConversation(item)
	return c.Content()
}

// Render builds the Markdown document for item.
func (a *Adapter) Render(item reconcile.Item, fingerprint string, syncedAt time.Time, previous []byte) (reconcile.Document, error) {
	c, ok := asConversation(item)
	if !ok {
		return reconcile.Document{}, fmt.Errorf("unexpected item type %T", item)
	}
	return Render(c, fingerprint, syncedAt, previous)
}

func asConversation(item reconcile.Item) (models.Conversation, bool) {
	switch c := item.(type) {
	case models.Conversation:
		return c, true
	case *models.Conversation:
		if c != nil {
			return *c, true
		}
	}
	return models.Conversation{}, false
}

// Lister lists every conversation, failing as a whole.
type Lister interface {
	ListConversations(ctx context.Context) ([]models.Conversation, error)
}

// Source adapts a Lister to reconcile.Source.
type Source struct {
	lister Lister
}

// NewSource creates a source backed by lister.
func NewSource(lister Lister) *Source {
	return &Source{lister: lister}
}

// FetchAll lists the conversations as reconcile items.
func (s *Source) FetchAll(ctx context.Context) ([]reconcile.Item, error) {
	conversations, err := s.lister.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]reconcile.Item, len(conversations))
	for i, c := range conversations {
		items[i] = c
	}
	return items, nil
}
