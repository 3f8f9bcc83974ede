package services

import (
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/daleelapp/daleel-backend/internal/types"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"ar":      LangArabic,
		"en":      LangEnglish,
		" EN ":    LangEnglish,
		"":        LangArabic,
		"fr":      LangArabic,
		"english": LangArabic,
	}
	for input, want := range cases {
		if got := NormalizeLanguage(input); got != want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBuildSystemPromptArabic(t *testing.T) {
	prompts := NewPromptService()
	profile := &types.User{
		Name:              "سارة",
		College:           "كلية الحاسب",
		PreferredLanguage: "ar",
		Schedule:          datatypes.JSON(`{"sunday":["CS101"]}`),
		PersonalInfo:      datatypes.JSON(`{"facts":["مستشاري هو د. أحمد"]}`),
	}
	prompt := prompts.BuildSystemPrompt(profile)

	for _, fragment := range []string{
		"دليلك الجامعي",
		"اسم الطالب: سارة",
		"الكلية/التخصص: كلية الحاسب",
		"جدول الطالب:",
		"CS101",
		"مستشاري هو د. أحمد",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestBuildSystemPromptEnglishFallbacks(t *testing.T) {
	prompts := NewPromptService()
	profile := &types.User{PreferredLanguage: "en"}
	prompt := prompts.BuildSystemPrompt(profile)

	for _, fragment := range []string{
		"Daleel",
		"Student name: the student",
		"College/major: the university",
		"No schedule on file yet.",
		"Nothing saved about the student yet.",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

// Some rows carry the schedule double-encoded as a JSON string; the prompt
// still has to render the object inside it.
func TestBuildSystemPromptDoubleEncodedSchedule(t *testing.T) {
	prompts := NewPromptService()
	profile := &types.User{
		PreferredLanguage: "en",
		Schedule:          datatypes.JSON(`"{\"monday\":[\"MATH201\"]}"`),
	}
	prompt := prompts.BuildSystemPrompt(profile)
	if !strings.Contains(prompt, "MATH201") {
		t.Fatalf("double-encoded schedule not rendered:\n%s", prompt)
	}
}

func TestBuildSystemPromptEmptySchedule(t *testing.T) {
	prompts := NewPromptService()
	for _, schedule := range []string{"", "{}", "[]", "null", "not json"} {
		profile := &types.User{PreferredLanguage: "en", Schedule: datatypes.JSON(schedule)}
		prompt := prompts.BuildSystemPrompt(profile)
		if !strings.Contains(prompt, "No schedule on file yet.") {
			t.Fatalf("schedule %q should render as absent:\n%s", schedule, prompt)
		}
	}
}

func TestBuildTurnPromptLocalizedLabels(t *testing.T) {
	prompts := NewPromptService()
	history := []types.Turn{
		{Role: types.RoleSystem, Content: "base"},
		{Role: types.RoleUser, Content: "question"},
		{Role: types.RoleAssistant, Content: "answer"},
	}

	english := prompts.BuildTurnPrompt(history, "en")
	for _, fragment := range []string{"System: base", "User: question", "Assistant: answer"} {
		if !strings.Contains(english, fragment) {
			t.Fatalf("english prompt missing %q:\n%s", fragment, english)
		}
	}

	arabic := prompts.BuildTurnPrompt(history, "ar")
	for _, fragment := range []string{"النظام: base", "المستخدم: question", "المساعد: answer"} {
		if !strings.Contains(arabic, fragment) {
			t.Fatalf("arabic prompt missing %q:\n%s", fragment, arabic)
		}
	}
}

func TestBuildTurnPromptAttachments(t *testing.T) {
	prompts := NewPromptService()
	history := []types.Turn{
		{Role: types.RoleUser, Content: "see attached", Attachments: []types.AttachmentRef{
			{FileName: "plan.pdf", FileType: "application/pdf", ExtractedText: "semester plan"},
			{ExtractedText: "unnamed body"},
		}},
	}
	prompt := prompts.BuildTurnPrompt(history, "en")
	for _, fragment := range []string{
		"Attachments:",
		"- plan.pdf (application/pdf): semester plan",
		"- Attachment 2: unnamed body",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestFactsFromPersonalInfo(t *testing.T) {
	facts := FactsFromPersonalInfo([]byte(`{"facts":["a","b"],"other":1}`))
	if len(facts) != 2 || facts[0] != "a" || facts[1] != "b" {
		t.Fatalf("got %v", facts)
	}
	if facts := FactsFromPersonalInfo(nil); facts != nil {
		t.Fatalf("expected nil for empty blob, got %v", facts)
	}
	if facts := FactsFromPersonalInfo([]byte(`"free text"`)); len(facts) != 0 {
		t.Fatalf("expected no facts for legacy text, got %v", facts)
	}
}
