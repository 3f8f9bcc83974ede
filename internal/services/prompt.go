package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daleelapp/daleel-backend/internal/types"
)

const (
	LangArabic  = "ar"
	LangEnglish = "en"
)

// PromptService renders the model-facing text: the per-student system
// prompt, the flattened turn prompt for providers without native multi-turn
// structure, and the attachment blocks embedded in both.
type PromptService struct{}

func NewPromptService() *PromptService {
	return &PromptService{}
}

func NormalizeLanguage(lang string) string {
	if strings.ToLower(strings.TrimSpace(lang)) == LangEnglish {
		return LangEnglish
	}
	return LangArabic
}

const arabicBasePrompt = `أنت مساعد جامعي ودود باسم "دليلك الجامعي".
تقدم إجابات مختصرة وواضحة حول الدراسة واللوائح الأكاديمية فقط.
إذا لم تتوفر لديك معلومة دقيقة فاذكر بأدب: "ما عندي المعلومة الدقيقة، لكن ممكن تبحث في موقع الجامعة."`

const englishBasePrompt = `You are a friendly university assistant called "Daleel".
Give short, clear answers about studies and academic regulations only.
If you do not have accurate information, say politely: "I don't have the exact information, but you can check the university website."`

func (s *PromptService) BuildSystemPrompt(profile *types.User) string {
	lang := NormalizeLanguage(profile.PreferredLanguage)

	name := strings.TrimSpace(profile.Name)
	college := strings.TrimSpace(profile.College)
	scheduleText := renderJSONBlock([]byte(profile.Schedule))
	facts := FactsFromPersonalInfo([]byte(profile.PersonalInfo))

	if lang == LangEnglish {
		lines := []string{
			englishBasePrompt,
			"Student name: " + orFallback(name, "the student"),
			"College/major: " + orFallback(college, "the university"),
		}
		if scheduleText != "" {
			lines = append(lines, "Student schedule:\n"+scheduleText)
		} else {
			lines = append(lines, "No schedule on file yet.")
		}
		if len(facts) > 0 {
			lines = append(lines, "Saved notes about the student:\n- "+strings.Join(facts, "\n- "))
		} else {
			lines = append(lines, "Nothing saved about the student yet.")
		}
		lines = append(lines, "Stick to academic topics and university services only.")
		return strings.Join(lines, "\n")
	}

	lines := []string{
		arabicBasePrompt,
		"اسم الطالب: " + orFallback(name, "الطالب"),
		"الكلية/التخصص: " + orFallback(college, "الجامعة"),
	}
	if scheduleText != "" {
		lines = append(lines, "جدول الطالب:\n"+scheduleText)
	} else {
		lines = append(lines, "لا يوجد جدول محدّث.")
	}
	if len(facts) > 0 {
		lines = append(lines, "معلومات محفوظة عن الطالب:\n- "+strings.Join(facts, "\n- "))
	} else {
		lines = append(lines, "لا توجد معلومات شخصية محفوظة بعد.")
	}
	lines = append(lines, "التزم بالحديث عن المواضيع الأكاديمية وخدمات الجامعة فقط.")
	return strings.Join(lines, "\n")
}

// BuildTurnPrompt flattens a turn list into one text block, one line per
// turn, with role labels and attachment sub-headings localized to lang.
func (s *PromptService) BuildTurnPrompt(history []types.Turn, lang string) string {
	lang = NormalizeLanguage(lang)
	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(roleLabel(turn.Role, lang))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		if len(turn.Attachments) > 0 {
			b.WriteString("\n")
			b.WriteString(s.attachmentsHeading(lang))
			b.WriteString("\n")
			b.WriteString(s.RenderAttachmentsBlock(turn.Attachments, lang))
		}
	}
	return b.String()
}

func (s *PromptService) attachmentsHeading(lang string) string {
	if lang == LangEnglish {
		return "Attachments:"
	}
	return "المرفقات:"
}

// RenderAttachmentsBlock renders each attachment as one bulleted line:
// label, optional type in parentheses, optional extracted text after a colon.
func (s *PromptService) RenderAttachmentsBlock(attachments []types.AttachmentRef, lang string) string {
	lang = NormalizeLanguage(lang)
	lines := make([]string, 0, len(attachments))
	for i, att := range attachments {
		label := att.FileName
		if label == "" {
			if lang == LangEnglish {
				label = fmt.Sprintf("Attachment %d", i+1)
			} else {
				label = fmt.Sprintf("مرفق %d", i+1)
			}
		}
		line := "- " + label
		if att.FileType != "" {
			line += " (" + att.FileType + ")"
		}
		if att.ExtractedText != "" {
			line += ": " + att.ExtractedText
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func roleLabel(role, lang string) string {
	if lang == LangEnglish {
		switch role {
		case types.RoleSystem:
			return "System"
		case types.RoleAssistant:
			return "Assistant"
		default:
			return "User"
		}
	}
	switch role {
	case types.RoleSystem:
		return "النظام"
	case types.RoleAssistant:
		return "المساعد"
	default:
		return "المستخدم"
	}
}

// renderJSONBlock pretty-prints a persisted JSON value, tolerating values
// stored as JSON text inside a JSON string. Empty objects, arrays and nulls
// render as "".
func renderJSONBlock(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	if s, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(s), &value); err != nil {
			return ""
		}
	}
	switch v := value.(type) {
	case nil:
		return ""
	case map[string]any:
		if len(v) == 0 {
			return ""
		}
	case []any:
		if len(v) == 0 {
			return ""
		}
	}
	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return ""
	}
	return string(pretty)
}

// FactsFromPersonalInfo pulls the saved fact list out of the free-form
// personal-info JSON blob.
func FactsFromPersonalInfo(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	if s, ok := value.(string); ok {
		if err := json.Unmarshal([]byte(s), &value); err != nil {
			return nil
		}
	}
	info, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	rawFacts, ok := info["facts"].([]any)
	if !ok {
		return nil
	}
	facts := make([]string, 0, len(rawFacts))
	for _, f := range rawFacts {
		if s, ok := f.(string); ok && strings.TrimSpace(s) != "" {
			facts = append(facts, s)
		}
	}
	return facts
}

func orFallback(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
