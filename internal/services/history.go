package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/daleelapp/daleel-backend/internal/types"
)

// MaxExtractedTextLen caps the extracted text carried by one attachment
// reference into a prompt.
const MaxExtractedTextLen = 4000

const ellipsis = "…"

// HistoryCodec converts between the persisted representation of a
// conversation and an in-memory Turn list. Persisted values may be a string,
// a byte buffer, a live Turn list, or any value exposing its own JSON
// projection; older rows and hand-edited records are normalized on the way
// in so the ambiguity never leaks past this boundary.
type HistoryCodec struct{}

func NewHistoryCodec() *HistoryCodec {
	return &HistoryCodec{}
}

// rawTurn tolerates loosely-typed attachments; role and content must still
// be strings or the decode fails as corrupted storage.
type rawTurn struct {
	Role        string           `json:"role"`
	Content     string           `json:"content"`
	Attachments []map[string]any `json:"attachments"`
}

func (c *HistoryCodec) Decode(raw any) ([]types.Turn, error) {
	switch v := raw.(type) {
	case nil:
		return []types.Turn{}, nil
	case []types.Turn:
		out := make([]types.Turn, len(v))
		copy(out, v)
		for i := range out {
			out[i].Attachments = resanitize(out[i].Attachments)
		}
		return out, nil
	case []byte:
		return c.decodeText(string(v))
	case datatypes.JSON:
		return c.decodeText(string(v))
	case json.RawMessage:
		return c.decodeText(string(v))
	case string:
		return c.decodeText(v)
	case json.Marshaler:
		projected, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to project conversation history to JSON: %w", err)
		}
		return c.decodeText(string(projected))
	default:
		return nil, fmt.Errorf("unsupported conversation history format %T", raw)
	}
}

func (c *HistoryCodec) decodeText(text string) ([]types.Turn, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []types.Turn{}, nil
	}
	var rawTurns []rawTurn
	if err := json.Unmarshal([]byte(trimmed), &rawTurns); err != nil {
		return nil, fmt.Errorf("failed to decode conversation history: %w", err)
	}
	turns := make([]types.Turn, 0, len(rawTurns))
	for _, rt := range rawTurns {
		turns = append(turns, types.Turn{
			Role:        rt.Role,
			Content:     rt.Content,
			Attachments: c.SanitizeAttachments(rt.Attachments),
		})
	}
	return turns, nil
}

func (c *HistoryCodec) Encode(turns []types.Turn) (string, error) {
	if turns == nil {
		turns = []types.Turn{}
	}
	encoded, err := json.Marshal(turns)
	if err != nil {
		return "", fmt.Errorf("failed to encode conversation history: %w", err)
	}
	return string(encoded), nil
}

// SanitizeAttachments keeps only string-valued known fields, truncates
// extracted text, and discards references with nothing left in them. The
// operation is idempotent.
func (c *HistoryCodec) SanitizeAttachments(raw []map[string]any) []types.AttachmentRef {
	if len(raw) == 0 {
		return nil
	}
	out := make([]types.AttachmentRef, 0, len(raw))
	for _, entry := range raw {
		ref := types.AttachmentRef{
			ID:            stringField(entry, "id"),
			FileName:      stringField(entry, "fileName"),
			FileType:      stringField(entry, "fileType"),
			Path:          stringField(entry, "path"),
			ExtractedText: TruncateExtractedText(stringField(entry, "extractedText")),
		}
		if ref.Empty() {
			continue
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resanitize(refs []types.AttachmentRef) []types.AttachmentRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]types.AttachmentRef, 0, len(refs))
	for _, ref := range refs {
		ref.ExtractedText = TruncateExtractedText(ref.ExtractedText)
		if ref.Empty() {
			continue
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// TruncateExtractedText caps text at MaxExtractedTextLen runes plus the
// ellipsis marker. Applying it to already-truncated text reproduces the same
// value.
func TruncateExtractedText(text string) string {
	if utf8.RuneCountInString(text) <= MaxExtractedTextLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxExtractedTextLen]) + ellipsis
}

func stringField(entry map[string]any, key string) string {
	if v, ok := entry[key].(string); ok {
		return v
	}
	return ""
}
