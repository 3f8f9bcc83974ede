package types

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a conversation. Turn 0 of a persisted conversation
// is always the system turn and is regenerated from the current profile on
// every exchange rather than reused from storage.
type Turn struct {
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// AttachmentRef is a sanitized pointer to an uploaded file's extracted
// content. Fields that were absent or non-string in the source record are
// omitted entirely, never defaulted to "".
type AttachmentRef struct {
	ID            string `json:"id,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	FileType      string `json:"fileType,omitempty"`
	Path          string `json:"path,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
}

func (a AttachmentRef) Empty() bool {
	return a.ID == "" && a.FileName == "" && a.FileType == "" && a.Path == "" && a.ExtractedText == ""
}
