package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/daleelapp/daleel-backend/internal/llm"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/types"
)

const (
	maxModelSummaryLen    = 160
	maxFallbackSummaryLen = 120
)

// SummaryService labels a conversation with a short recap. The model call is
// advisory: any failure is logged and replaced by a deterministic fallback
// derived from the conversation itself, so the chosen summary is never
// empty.
type SummaryService struct {
	llmClient llm.Client
	prompts   *PromptService
	log       *logger.Logger
}

func NewSummaryService(llmClient llm.Client, prompts *PromptService, log *logger.Logger) *SummaryService {
	return &SummaryService{
		llmClient: llmClient,
		prompts:   prompts,
		log:       log.With("service", "SummaryService"),
	}
}

func (s *SummaryService) Summarize(ctx context.Context, history []types.Turn, lang string) (string, error) {
	lang = NormalizeLanguage(lang)
	conversation := s.prompts.BuildTurnPrompt(history, lang)

	var prompt string
	if lang == LangEnglish {
		prompt = "Summarize the following conversation as a few short bullet points in English, focusing on the important information about the student.\n\n" +
			conversation + "\n\nSummary:"
	} else {
		prompt = "لخّص المحادثة التالية في نقاط بسيطة باللغة العربية الفصحى مع التركيز على المعلومات المهمة عن الطالب.\n\n" +
			conversation + "\n\nالخلاصة:"
	}

	reply, err := s.llmClient.Call(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply.Text), nil
}

// FallbackSummary derives a label from the first non-empty user message,
// then the first non-empty assistant message, then a localized placeholder.
func (s *SummaryService) FallbackSummary(history []types.Turn, lang string) string {
	lang = NormalizeLanguage(lang)
	for _, role := range []string{types.RoleUser, types.RoleAssistant} {
		for _, turn := range history {
			if turn.Role != role {
				continue
			}
			if content := strings.TrimSpace(turn.Content); content != "" {
				return truncateRunes(content, maxFallbackSummaryLen)
			}
		}
	}
	if lang == LangEnglish {
		return "New conversation"
	}
	return "محادثة جديدة"
}

// ChooseSummary prefers the model-provided recap, falling back on any
// failure or empty reply.
func (s *SummaryService) ChooseSummary(ctx context.Context, history []types.Turn, lang string) string {
	summary, err := s.Summarize(ctx, history, lang)
	if err != nil {
		s.log.Warn("Summarization failed, using fallback summary", "error", err)
		return s.FallbackSummary(history, lang)
	}
	if summary == "" {
		return s.FallbackSummary(history, lang)
	}
	return truncateRunes(summary, maxModelSummaryLen)
}

func truncateRunes(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}
