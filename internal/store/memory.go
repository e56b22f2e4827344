package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/treegpt/treegpt/internal/model"
)

// Memory is an in-process Store used in tests and for running without a
// database. Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	conversations map[string]*model.Conversation
	messages      map[string]*model.Message
	// byParent indexes message IDs by ParentID so reply and children
	// lookups avoid scanning the whole conversation.
	byParent map[string][]string
	byConv   map[string][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*model.User),
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string]*model.Message),
		byParent:      make(map[string][]string),
		byConv:        make(map[string][]string),
	}
}

func (m *Memory) Messages() MessageStore           { return (*memoryMessages)(m) }
func (m *Memory) Conversations() ConversationStore { return (*memoryConversations)(m) }
func (m *Memory) Users() UserStore                 { return (*memoryUsers)(m) }
func (m *Memory) Close() error                     { return nil }

type memoryMessages Memory

func (m *memoryMessages) Insert(ctx context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.messages[msg.ID]; exists {
		return ErrDuplicate
	}
	cp := *msg
	m.messages[msg.ID] = &cp
	m.byConv[msg.ConversationID] = append(m.byConv[msg.ConversationID], msg.ID)
	if msg.ParentID != "" {
		m.byParent[msg.ParentID] = append(m.byParent[msg.ParentID], msg.ID)
	}
	return nil
}

func (m *memoryMessages) FindByID(ctx context.Context, id string) (*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (m *memoryMessages) FindReply(ctx context.Context, parentID string) (*model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.byParent[parentID] {
		if msg := m.messages[id]; msg != nil && msg.Type == model.MessageTypeAssistant {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryMessages) FindAll(ctx context.Context, conversationID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Message, 0, len(m.byConv[conversationID]))
	for _, id := range m.byConv[conversationID] {
		if msg := m.messages[id]; msg != nil {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryMessages) FindChildren(ctx context.Context, parentID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Message
	for _, id := range m.byParent[parentID] {
		if msg := m.messages[id]; msg != nil {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memoryMessages) UpdateContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}
	msg.Content = content
	return nil
}

func (m *memoryMessages) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		msg, ok := m.messages[id]
		if !ok {
			continue
		}
		delete(m.messages, id)
		m.byConv[msg.ConversationID] = remove(m.byConv[msg.ConversationID], id)
		if msg.ParentID != "" {
			m.byParent[msg.ParentID] = remove(m.byParent[msg.ParentID], id)
		}
		delete(m.byParent, id)
	}
	return nil
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

type memoryConversations Memory

func (m *memoryConversations) Insert(ctx context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conversations[conv.ID]; exists {
		return ErrDuplicate
	}
	cp := *conv
	m.conversations[conv.ID] = &cp
	return nil
}

func (m *memoryConversations) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *conv
	return &cp, nil
}

func (m *memoryConversations) FindByUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Conversation
	for _, conv := range m.conversations {
		if conv.UserID == userID && !conv.Deleted {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *memoryConversations) Update(ctx context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[conv.ID]; !ok {
		return ErrNotFound
	}
	cp := *conv
	m.conversations[conv.ID] = &cp
	return nil
}

type memoryUsers Memory

func (m *memoryUsers) Insert(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}
