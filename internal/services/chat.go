package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/llm"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/repos"
	"github.com/daleelapp/daleel-backend/internal/types"
)

type CompletionRequest struct {
	ChatID      *uuid.UUID
	Message     string
	Attachments []map[string]any
}

type DonePayload struct {
	Done    bool   `json:"done"`
	ChatID  string `json:"chatId,omitempty"`
	Message string `json:"message"`
	Summary string `json:"summary,omitempty"`
}

// CompletionEmitter receives the orchestrator's outbound events. Once
// Started reports true an error can no longer be surfaced as an HTTP status
// and must be delivered through Fail.
type CompletionEmitter interface {
	Token(token string)
	Done(payload DonePayload)
	Fail(message string)
	Started() bool
}

// ChatService runs the per-request chat pipeline: validate, load state,
// assemble prompts, relay the upstream stream, persist, then best-effort
// post-processing.
//
// Concurrent continuations of the same conversation are not locked against
// each other; persistence is last-write-wins.
type ChatService interface {
	ListChats(ctx context.Context, userID uuid.UUID) ([]*types.Chat, error)
	GetChat(ctx context.Context, userID, chatID uuid.UUID) (*types.Chat, []types.Turn, error)
	DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error
	Complete(ctx context.Context, userID uuid.UUID, req CompletionRequest, emitter CompletionEmitter) error
}

type chatService struct {
	db        *gorm.DB
	log       *logger.Logger
	chatRepo  repos.ChatRepo
	userRepo  repos.UserRepo
	llmClient llm.Client
	codec     *HistoryCodec
	prompts   *PromptService
	summaries *SummaryService
	memories  *MemoryService
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	chatRepo repos.ChatRepo,
	userRepo repos.UserRepo,
	llmClient llm.Client,
	codec *HistoryCodec,
	prompts *PromptService,
	summaries *SummaryService,
	memories *MemoryService,
) ChatService {
	return &chatService{
		db:        db,
		log:       log.With("service", "ChatService"),
		chatRepo:  chatRepo,
		userRepo:  userRepo,
		llmClient: llmClient,
		codec:     codec,
		prompts:   prompts,
		summaries: summaries,
		memories:  memories,
	}
}

func (s *chatService) ListChats(ctx context.Context, userID uuid.UUID) ([]*types.Chat, error) {
	chats, err := s.chatRepo.ListForOwner(ctx, nil, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	return chats, nil
}

func (s *chatService) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*types.Chat, []types.Turn, error) {
	chat, err := s.chatRepo.GetForOwner(ctx, nil, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, errors.New("conversation not found"))
		}
		return nil, nil, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	turns, err := s.codec.Decode([]byte(chat.Messages))
	if err != nil {
		return nil, nil, apierr.New(http.StatusInternalServerError, apierr.CodeDecode, err)
	}
	// The system turn is prompt machinery, not part of the visible thread.
	visible := make([]types.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == types.RoleSystem {
			continue
		}
		visible = append(visible, turn)
	}
	return chat, visible, nil
}

func (s *chatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) error {
	deleted, err := s.chatRepo.DeleteForOwner(ctx, nil, chatID, userID)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	if deleted == 0 {
		return apierr.New(http.StatusNotFound, apierr.CodeNotFound, errors.New("conversation not found"))
	}
	return nil
}

func (s *chatService) Complete(ctx context.Context, userID uuid.UUID, req CompletionRequest, emitter CompletionEmitter) error {
	// A client disconnect must not cancel the upstream call or the
	// persistence that follows it.
	ctx = context.WithoutCancel(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("message is required"))
	}

	var (
		chat    *types.Chat
		history []types.Turn
		isNew   = req.ChatID == nil
	)
	if !isNew {
		loaded, err := s.chatRepo.GetForOwner(ctx, nil, *req.ChatID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.New(http.StatusNotFound, apierr.CodeNotFound, errors.New("conversation not found"))
			}
			return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
		}
		chat = loaded
		history, err = s.codec.Decode([]byte(chat.Messages))
		if err != nil {
			return apierr.New(http.StatusInternalServerError, apierr.CodeDecode, err)
		}
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.New(http.StatusNotFound, apierr.CodeNotFound, errors.New("user profile not found"))
		}
		return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
	}
	lang := NormalizeLanguage(user.PreferredLanguage)

	// The system turn is regenerated from the current profile on every
	// exchange so schedule and fact edits reach in-progress threads.
	systemTurn := types.Turn{Role: types.RoleSystem, Content: s.prompts.BuildSystemPrompt(user)}
	if len(history) > 0 && history[0].Role == types.RoleSystem {
		history[0] = systemTurn
	} else {
		history = append([]types.Turn{systemTurn}, history...)
	}

	userTurn := types.Turn{
		Role:        types.RoleUser,
		Content:     message,
		Attachments: s.codec.SanitizeAttachments(req.Attachments),
	}
	history = append(history, userTurn)

	// Both request forms are derived from the same turn list so behavior is
	// consistent whichever transport handles the call.
	structured := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		content := turn.Content
		if len(turn.Attachments) > 0 {
			content += "\n" + s.prompts.attachmentsHeading(lang) + "\n" + s.prompts.RenderAttachmentsBlock(turn.Attachments, lang)
		}
		structured = append(structured, llm.Message{Role: turn.Role, Content: content})
	}
	flattened := s.prompts.BuildTurnPrompt(history, lang)

	var answer strings.Builder
	streamDone := false
	streamErr := s.llmClient.Stream(ctx, llm.Request{
		System:   systemTurn.Content,
		Prompt:   flattened,
		Messages: structured,
	}, func(ev llm.Event) {
		if streamDone {
			return
		}
		if ev.Done {
			streamDone = true
			return
		}
		if ev.Token != "" {
			answer.WriteString(ev.Token)
			emitter.Token(ev.Token)
		}
	})
	if streamErr != nil {
		if emitter.Started() {
			s.log.Error("Upstream stream failed mid-turn", "error", streamErr)
			emitter.Fail(streamErr.Error())
			return nil
		}
		return apierr.New(http.StatusBadGateway, apierr.CodeUpstream, streamErr)
	}

	history = append(history, types.Turn{Role: types.RoleAssistant, Content: answer.String()})

	summary := s.summaries.ChooseSummary(ctx, history, lang)

	encoded, err := s.codec.Encode(history)
	if err != nil {
		return s.failOrStatus(emitter, err, "failed to encode conversation")
	}

	now := time.Now()
	if isNew {
		chat = &types.Chat{
			ID:        uuid.New(),
			UserID:    userID,
			Messages:  datatypes.JSON(encoded),
			Summary:   summary,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, err = s.chatRepo.Create(ctx, nil, chat)
	} else {
		chat.Messages = datatypes.JSON(encoded)
		chat.Summary = summary
		chat.UpdatedAt = now
		err = s.chatRepo.Save(ctx, nil, chat)
	}
	if err != nil {
		return s.failOrStatus(emitter, err, "failed to save conversation")
	}

	s.extractAndSaveFacts(ctx, user, userTurn)

	payload := DonePayload{Done: true, Message: answer.String(), Summary: summary}
	if isNew {
		payload.ChatID = chat.ID.String()
	}
	emitter.Done(payload)
	return nil
}

func (s *chatService) failOrStatus(emitter CompletionEmitter, err error, message string) error {
	if emitter.Started() {
		s.log.Error(message, "error", err)
		emitter.Fail(message)
		return nil
	}
	return apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err)
}

// extractAndSaveFacts merges heuristic fact candidates from this exchange's
// user turn into the profile. Best-effort: failures are logged, never
// surfaced.
func (s *chatService) extractAndSaveFacts(ctx context.Context, user *types.User, userTurn types.Turn) {
	candidates := s.memories.ExtractFacts([]types.Turn{userTurn})
	if len(candidates) == 0 {
		return
	}
	updated, err := s.memories.MergeIntoPersonalInfo([]byte(user.PersonalInfo), candidates)
	if err != nil {
		s.log.Warn("Fact merge failed", "error", err)
		return
	}
	user.PersonalInfo = datatypes.JSON(updated)
	if err := s.userRepo.Save(ctx, nil, user); err != nil {
		s.log.Warn("Failed to persist extracted facts", "error", err)
	}
}
