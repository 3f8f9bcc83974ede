package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/types"
)

// MaxSavedFacts caps the profile's saved fact list; the oldest entries are
// evicted first.
const MaxSavedFacts = 5

// Trigger terms associated with naming an advisor, professor or course.
// Matching is deliberately coarse: any user turn mentioning a trigger is
// stored verbatim as a fact. Latin-script matching is case-insensitive.
var arabicFactTriggers = []string{"مستشاري", "مشرفي", "رقم", "دكتور", "مادة", "أستاذ"}
var englishFactTriggers = []string{"advisor", "supervisor", "professor", "instructor", "dr.", "course"}

// MemoryService captures personal facts from user messages and merges them
// into the profile's personal-info blob.
type MemoryService struct {
	log *logger.Logger
}

func NewMemoryService(log *logger.Logger) *MemoryService {
	return &MemoryService{log: log.With("service", "MemoryService")}
}

// ExtractFacts scans user-authored turns for trigger terms and returns the
// full text of every matching turn, in turn order.
func (s *MemoryService) ExtractFacts(turns []types.Turn) []string {
	var facts []string
	for _, turn := range turns {
		if turn.Role != types.RoleUser {
			continue
		}
		if matchesFactTrigger(turn.Content) {
			facts = append(facts, turn.Content)
		}
	}
	return facts
}

func matchesFactTrigger(text string) bool {
	for _, trigger := range arabicFactTriggers {
		if strings.Contains(text, trigger) {
			return true
		}
	}
	lowered := strings.ToLower(text)
	for _, trigger := range englishFactTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

// MergeFacts appends new candidates to the existing list, skipping
// duplicates, and keeps only the MaxSavedFacts most recent entries (most
// recent last).
func (s *MemoryService) MergeFacts(existing, candidates []string) []string {
	merged := make([]string, 0, len(existing)+len(candidates))
	merged = append(merged, existing...)
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || containsString(merged, candidate) {
			continue
		}
		merged = append(merged, candidate)
	}
	if len(merged) > MaxSavedFacts {
		merged = merged[len(merged)-MaxSavedFacts:]
	}
	return merged
}

// MergeIntoPersonalInfo rewrites the facts list inside the personal-info
// JSON blob, preserving any other keys it carries.
func (s *MemoryService) MergeIntoPersonalInfo(raw []byte, candidates []string) ([]byte, error) {
	info := map[string]any{}
	existing := FactsFromPersonalInfo(raw)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &info); err != nil {
			// Legacy rows stored free text here; keep it as the first fact
			// rather than losing it.
			var legacy string
			if strErr := json.Unmarshal(raw, &legacy); strErr != nil {
				return nil, fmt.Errorf("failed to decode personal info: %w", err)
			}
			info = map[string]any{}
			if trimmed := strings.TrimSpace(legacy); trimmed != "" {
				existing = []string{trimmed}
			}
		}
	}

	info["facts"] = s.MergeFacts(existing, candidates)

	updated, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode personal info: %w", err)
	}
	return updated, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
