package services

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/types"
)

func newTestMemoryService() *MemoryService {
	return NewMemoryService(logger.NewNop())
}

func TestExtractFacts(t *testing.T) {
	memories := newTestMemoryService()
	turns := []types.Turn{
		{Role: types.RoleUser, Content: "مستشاري هو د. أحمد"},
		{Role: types.RoleAssistant, Content: "My advisor is not me"},
		{Role: types.RoleUser, Content: "My ADVISOR is Dr. Ahmed"},
		{Role: types.RoleUser, Content: "رقم مكتب القبول 12345"},
		{Role: types.RoleUser, Content: "متى يبدأ الفصل؟"},
	}
	facts := memories.ExtractFacts(turns)
	want := []string{"مستشاري هو د. أحمد", "My ADVISOR is Dr. Ahmed", "رقم مكتب القبول 12345"}
	if !reflect.DeepEqual(facts, want) {
		t.Fatalf("ExtractFacts = %v, want %v", facts, want)
	}
}

func TestExtractFactsIgnoresNonUserTurns(t *testing.T) {
	memories := newTestMemoryService()
	turns := []types.Turn{
		{Role: types.RoleSystem, Content: "professor context"},
		{Role: types.RoleAssistant, Content: "your professor is Dr. Lee"},
	}
	if facts := memories.ExtractFacts(turns); len(facts) != 0 {
		t.Fatalf("expected no facts, got %v", facts)
	}
}

func TestMergeFactsDeduplicatesAndCaps(t *testing.T) {
	memories := newTestMemoryService()
	existing := []string{"f1", "f2", "f3", "f4"}
	merged := memories.MergeFacts(existing, []string{"f2", "f5", "f6", "  "})
	want := []string{"f2", "f3", "f4", "f5", "f6"}
	if !reflect.DeepEqual(merged, want) {
		t.Fatalf("MergeFacts = %v, want %v", merged, want)
	}
	if len(merged) != MaxSavedFacts {
		t.Fatalf("got %d facts, want %d", len(merged), MaxSavedFacts)
	}
}

func TestMergeIntoPersonalInfoPreservesOtherKeys(t *testing.T) {
	memories := newTestMemoryService()
	raw := []byte(`{"facts":["old"],"interests":["math"]}`)
	updated, err := memories.MergeIntoPersonalInfo(raw, []string{"new fact"})
	if err != nil {
		t.Fatalf("MergeIntoPersonalInfo: %v", err)
	}

	var info map[string]any
	if err := json.Unmarshal(updated, &info); err != nil {
		t.Fatalf("unmarshal updated info: %v", err)
	}
	if _, ok := info["interests"]; !ok {
		t.Fatal("non-fact key dropped")
	}
	facts := FactsFromPersonalInfo(updated)
	if !reflect.DeepEqual(facts, []string{"old", "new fact"}) {
		t.Fatalf("facts = %v", facts)
	}
}

// Early rows stored the whole personal-info column as free text; merging must
// keep that text as the oldest fact instead of losing it.
func TestMergeIntoPersonalInfoLegacyText(t *testing.T) {
	memories := newTestMemoryService()
	updated, err := memories.MergeIntoPersonalInfo([]byte(`"مستشاري القديم"`), []string{"fact"})
	if err != nil {
		t.Fatalf("MergeIntoPersonalInfo: %v", err)
	}
	facts := FactsFromPersonalInfo(updated)
	if !reflect.DeepEqual(facts, []string{"مستشاري القديم", "fact"}) {
		t.Fatalf("facts = %v", facts)
	}
}

func TestMergeIntoPersonalInfoEmptyBlob(t *testing.T) {
	memories := newTestMemoryService()
	updated, err := memories.MergeIntoPersonalInfo(nil, []string{"fact"})
	if err != nil {
		t.Fatalf("MergeIntoPersonalInfo: %v", err)
	}
	facts := FactsFromPersonalInfo(updated)
	if !reflect.DeepEqual(facts, []string{"fact"}) {
		t.Fatalf("facts = %v", facts)
	}
}
