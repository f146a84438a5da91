package domain

import "time"

// Role identifies the author of a conversation turn. The vocabulary is
// fixed: anything other than user/assistant is a caller contract violation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValidRole checks whether a Role belongs to the supported vocabulary.
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ConversationTurn is one message in a user's bounded dialogue history.
// Content is truncated at write time; the list as a whole is capped and
// expires after a period of inactivity.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Language identifiers supported by the assistant.
const (
	LanguageRU = "ru"
	LanguageEN = "en"
)

// NormalizeLanguage maps an arbitrary language tag onto the supported
// vocabulary, defaulting to Russian.
func NormalizeLanguage(lang string) string {
	if lang == LanguageEN {
		return LanguageEN
	}
	return LanguageRU
}

// Document is a raw knowledge-base source kept for periodic re-indexing.
type Document struct {
	Source     string
	Content    string
	Restricted bool
	NeedsIndex bool
	IndexedAt  *time.Time
	UpdatedAt  time.Time
}

// ValidateDocument validates a Document instance.
func ValidateDocument(d *Document) error {
	if d == nil {
		return NewDomainError(ErrCodeValidation, "document cannot be nil")
	}
	if d.Source == "" {
		return ErrEmptySource
	}
	if d.Content == "" {
		return ErrEmptyDocument
	}
	return nil
}
