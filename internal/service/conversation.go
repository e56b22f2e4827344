package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/treegpt/treegpt/internal/model"
	"github.com/treegpt/treegpt/internal/store"
	"github.com/treegpt/treegpt/pkg/logger"
	"github.com/treegpt/treegpt/pkg/metrics"
)

// ConversationService handles conversation operations.
type ConversationService struct {
	conversations store.ConversationStore
	logger        *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(conversations store.ConversationStore, log *logger.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		logger:        log,
	}
}

// Create creates a new conversation.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	now := time.Now()

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.conversations.Insert(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
	)

	return conv, nil
}

// Get retrieves a conversation owned by the user. Foreign or deleted
// conversations are indistinguishable from missing ones.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if conv.UserID != userID || conv.Deleted {
		return nil, ErrNotFound
	}

	return conv, nil
}

// List retrieves the user's conversations, most recently updated first.
func (s *ConversationService) List(ctx context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error) {
	convs, err := s.conversations.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	total := len(convs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &model.ListConversationsResponse{
		Conversations: convs[start:end],
		Total:         total,
		HasMore:       end < total,
	}, nil
}

// Update updates a conversation's title.
func (s *ConversationService) Update(ctx context.Context, userID, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	conv, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		conv.Title = req.Title
	}
	conv.UpdatedAt = time.Now()

	if err := s.conversations.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	return conv, nil
}

// Delete soft deletes a conversation.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	conv, err := s.Get(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	conv.Deleted = true
	conv.UpdatedAt = time.Now()

	if err := s.conversations.Update(ctx, conv); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return nil
}

// Touch bumps the conversation's update time and message count after a
// message append or branch delete.
func (s *ConversationService) Touch(ctx context.Context, conv *model.Conversation, messageDelta int) {
	conv.MessageCount += messageDelta
	if conv.MessageCount < 0 {
		conv.MessageCount = 0
	}
	conv.UpdatedAt = time.Now()
	if err := s.conversations.Update(ctx, conv); err != nil {
		s.logger.Warn("failed to touch conversation",
			zap.String("conversation_id", conv.ID),
			zap.Error(err),
		)
	}
}
