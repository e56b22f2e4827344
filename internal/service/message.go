package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/treegpt/treegpt/internal/llm"
	"github.com/treegpt/treegpt/internal/model"
	natsclient "github.com/treegpt/treegpt/internal/nats"
	"github.com/treegpt/treegpt/internal/store"
	"github.com/treegpt/treegpt/internal/tree"
	"github.com/treegpt/treegpt/pkg/logger"
	"github.com/treegpt/treegpt/pkg/metrics"
)

// MessageConfig carries the policy knobs for turn orchestration.
type MessageConfig struct {
	// SystemPrompt is sent with every completion request.
	SystemPrompt string
	// MaxTokens bounds the assistant response length.
	MaxTokens int
	// MaxDepth bounds the branch-history walk.
	MaxDepth int
	// LLMTimeout bounds the gateway call; expiry is a generation failure.
	LLMTimeout time.Duration
}

// MessageService handles message appends, branch operations, and tree
// reconstruction.
type MessageService struct {
	messages      store.MessageStore
	conversations *ConversationService
	llmClient     llm.Client
	resolver      *tree.Resolver
	publisher     *natsclient.Publisher
	cfg           MessageConfig
	logger        *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(
	messages store.MessageStore,
	conversations *ConversationService,
	llmClient llm.Client,
	publisher *natsclient.Publisher,
	cfg MessageConfig,
	log *logger.Logger,
) *MessageService {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = tree.DefaultMaxDepth
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		llmClient:     llmClient,
		resolver:      tree.NewResolver(messages),
		publisher:     publisher,
		cfg:           cfg,
		logger:        log,
	}
}

// Send appends a user message to the given branch, resolves the branch
// history, calls the LLM gateway, and persists the assistant reply as the
// user message's child.
//
// On gateway failure the user message stays persisted and the returned
// response carries it alongside an error wrapping llm.ErrGenerationFailed;
// the node is left with an empty response, which readers of the tree must
// treat as a "failed or pending" state.
func (s *MessageService) Send(ctx context.Context, userID, conversationID string, req *model.CreateMessageRequest) (*model.CreateMessageResponse, error) {
	conv, err := s.conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if req.ParentID != "" {
		parent, err := s.messages.FindByID(ctx, req.ParentID)
		if err != nil || parent.ConversationID != conversationID {
			return nil, ErrInvalidParent
		}
		if parent.Type != model.MessageTypeAssistant {
			return nil, ErrInvalidParent
		}
	}

	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		ParentID:       req.ParentID,
		Type:           model.MessageTypeUser,
		Content:        req.Content,
		CreatedAt:      time.Now(),
	}

	if err := s.messages.Insert(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	s.conversations.Touch(ctx, conv, 1)
	metrics.MessagesTotal.WithLabelValues(string(model.MessageTypeUser)).Inc()
	s.publishEvent(ctx, conversationID, userID, model.EventTypeMessageCreated, userMsg.ID, "")

	// Assemble LLM context: the ancestor branch history, then the new
	// user message.
	var history []model.Message
	if req.ParentID != "" {
		history = s.resolver.Resolve(ctx, req.ParentID, conversationID, s.cfg.MaxDepth)
	}
	history = append(history, *userMsg)

	chatMessages := make([]llm.ChatMessage, len(history))
	for i, msg := range history {
		chatMessages[i] = llm.ChatMessage{
			Role:    string(msg.Type),
			Content: msg.Content,
		}
	}

	llmCtx, cancel := context.WithTimeout(ctx, s.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.llmClient.Complete(llmCtx, &llm.CompletionRequest{
		Model:     req.Model,
		System:    s.cfg.SystemPrompt,
		Messages:  chatMessages,
		MaxTokens: s.cfg.MaxTokens,
	})
	if err != nil {
		metrics.LLMRequestDuration.WithLabelValues(req.Model, "error").Observe(time.Since(start).Seconds())
		s.logger.Error("LLM completion failed",
			zap.String("conversation_id", conversationID),
			zap.String("message_id", userMsg.ID),
			zap.Error(err),
		)
		s.publishEvent(ctx, conversationID, userID, model.EventTypeGenerationFailed, userMsg.ID, err.Error())
		if !errors.Is(err, llm.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %v", llm.ErrGenerationFailed, err)
		}
		return &model.CreateMessageResponse{User: userMsg}, err
	}

	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		ParentID:       userMsg.ID,
		Type:           model.MessageTypeAssistant,
		Content:        resp.Content,
		CreatedAt:      time.Now(),
	}

	if err := s.messages.Insert(ctx, assistantMsg); err != nil {
		return &model.CreateMessageResponse{User: userMsg}, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	s.conversations.Touch(ctx, conv, 1)
	metrics.MessagesTotal.WithLabelValues(string(model.MessageTypeAssistant)).Inc()
	metrics.RecordLLMRequest(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
	s.publishEvent(ctx, conversationID, userID, model.EventTypeMessageCreated, assistantMsg.ID, "")

	return &model.CreateMessageResponse{User: userMsg, Assistant: assistantMsg}, nil
}

// List returns the conversation's flat message records, oldest first.
func (s *MessageService) List(ctx context.Context, userID, conversationID string) (*model.ListMessagesResponse, error) {
	if _, err := s.conversations.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.messages.FindAll(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return &model.ListMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	}, nil
}

// Tree reconstructs the conversation tree and, when geometry is non-nil,
// computes layout coordinates for it.
func (s *MessageService) Tree(ctx context.Context, userID, conversationID string, geometry *tree.Geometry) (*model.TreeResponse, error) {
	if _, err := s.conversations.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.messages.FindAll(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	start := time.Now()
	t, err := tree.Build(messages)
	if err != nil {
		return nil, err
	}
	metrics.RecordTreeBuild(time.Since(start).Seconds(), len(t.Nodes))

	resp := &model.TreeResponse{
		Nodes:  t.Nodes,
		RootID: t.RootID,
	}
	if geometry != nil {
		resp.Positions = geometry.Layout(t)
	}
	return resp, nil
}

// Rename replaces the prompt text of a user message. This is the one
// sanctioned mutation besides assistant response back-fill.
func (s *MessageService) Rename(ctx context.Context, userID, conversationID, messageID, content string) (*model.Message, error) {
	msg, err := s.ownedMessage(ctx, userID, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Type != model.MessageTypeUser {
		return nil, ErrNotUserMessage
	}

	if err := s.messages.UpdateContent(ctx, messageID, content); err != nil {
		return nil, fmt.Errorf("failed to rename message: %w", err)
	}
	msg.Content = content
	metrics.BranchesTotal.WithLabelValues("rename").Inc()
	return msg, nil
}

// DeleteBranch removes a user message and its entire subtree: the paired
// assistant reply and, recursively, every branch hanging off it. The root
// cannot be deleted.
func (s *MessageService) DeleteBranch(ctx context.Context, userID, conversationID, messageID string) (int, error) {
	conv, err := s.conversations.Get(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}

	msg, err := s.ownedMessage(ctx, userID, conversationID, messageID)
	if err != nil {
		return 0, err
	}
	if msg.Type != model.MessageTypeUser {
		return 0, ErrNotUserMessage
	}
	if msg.IsRoot() {
		return 0, ErrRootDelete
	}

	// Collect the subtree breadth-first across both message types. The
	// visited set bounds traversal on malformed parent data.
	var doomed []string
	visited := make(map[string]bool)
	queue := []string{messageID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		doomed = append(doomed, id)

		children, err := s.messages.FindChildren(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("failed to collect subtree: %w", err)
		}
		for _, child := range children {
			queue = append(queue, child.ID)
		}
	}

	if err := s.messages.Delete(ctx, doomed); err != nil {
		return 0, fmt.Errorf("failed to delete branch: %w", err)
	}

	s.conversations.Touch(ctx, conv, -len(doomed))
	metrics.BranchesTotal.WithLabelValues("delete").Inc()
	s.publishEvent(ctx, conversationID, userID, model.EventTypeBranchDeleted, messageID, "")
	s.logger.Info("branch deleted",
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID),
		zap.Int("messages_removed", len(doomed)),
	)

	return len(doomed), nil
}

// Compare word-diffs the prompts and responses of two nodes.
func (s *MessageService) Compare(ctx context.Context, userID, conversationID string, req *model.CompareRequest) (*model.Node, *model.Node, error) {
	treeResp, err := s.Tree(ctx, userID, conversationID, nil)
	if err != nil {
		return nil, nil, err
	}

	left, ok := treeResp.Nodes[req.LeftID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	right, ok := treeResp.Nodes[req.RightID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return left, right, nil
}

func (s *MessageService) ownedMessage(ctx context.Context, userID, conversationID, messageID string) (*model.Message, error) {
	if _, err := s.conversations.Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg.ConversationID != conversationID {
		return nil, ErrNotFound
	}
	return msg, nil
}

func (s *MessageService) publishEvent(ctx context.Context, conversationID, userID string, typ model.EventType, messageID, reason string) {
	s.publisher.Publish(ctx, &model.BranchEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		UserID:         userID,
		Type:           typ,
		MessageID:      messageID,
		Reason:         reason,
		CreatedAt:      time.Now(),
	})
}
