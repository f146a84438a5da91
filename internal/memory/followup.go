package memory

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yashkinSun/Corporate-FAQ-AI-Assistant/internal/domain"
)

// Short questions below this length that mention a keyword or pronoun are
// treated as follow-ups.
const shortQuestionRunes = 50

var followupKeywordsRU = []string{
	"подробнее", "расскажи больше", "а сколько", "какие еще", "какие ещё",
	"еще варианты", "ещё варианты", "что еще", "что ещё", "а как",
	"а когда", "а где", "а почему", "а зачем", "а кто", "а что",
	"расскажи про это", "объясни", "уточни", "поясни",
}

var followupKeywordsEN = []string{
	"more details", "tell me more", "what else", "how much",
	"any other", "explain more", "elaborate", "clarify",
	"what about", "how about", "and what", "and how", "and when",
}

var pronounsRU = []string{
	"это", "они", "он", "она", "оно", "их", "его", "её", "ее",
	"этого", "этой", "этих", "этому", "этим", "об этом", "про это",
}

var pronounsEN = []string{
	"this", "that", "they", "it", "them", "these", "those",
	"about it", "about this", "about them",
}

// Long questions only count as follow-ups when they carry an explicit
// marker; a stray pronoun in a full sentence is too weak a signal.
var explicitMarkers = []string{
	"подробнее", "расскажи больше", "tell me more", "more details",
	"elaborate", "уточни", "поясни", "объясни подробнее",
}

// IsFollowup reports whether a question continues the previous dialogue
// rather than starting a new topic. A question with no history is never a
// follow-up.
func IsFollowup(question string, turns []domain.ConversationTurn) bool {
	if len(turns) == 0 {
		return false
	}

	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)

	if utf8.RuneCountInString(question) < shortQuestionRunes {
		for _, group := range [][]string{followupKeywordsRU, followupKeywordsEN, pronounsRU, pronounsEN} {
			for _, keyword := range group {
				if strings.Contains(lower, keyword) {
					return true
				}
			}
		}
	}

	for _, marker := range explicitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// Reformulate rewrites a follow-up question into a standalone one by
// prepending the most recent prior exchange. The result feeds retrieval
// and generation; the original question is what gets stored in history.
func Reformulate(question string, turns []domain.ConversationTurn) string {
	if len(turns) == 0 || strings.TrimSpace(question) == "" {
		return question
	}

	var lastUser, lastAssistant string
	for i := len(turns) - 1; i >= 0; i-- {
		switch turns[i].Role {
		case domain.RoleUser:
			if lastUser == "" {
				lastUser = turns[i].Content
			}
		case domain.RoleAssistant:
			if lastAssistant == "" {
				lastAssistant = turns[i].Content
			}
		}
		if lastUser != "" && lastAssistant != "" {
			break
		}
	}

	if lastUser == "" {
		return question
	}

	assistantPart := "Нет ответа"
	if lastAssistant != "" {
		assistantPart = truncateRunes(lastAssistant, 500)
	}

	return strings.TrimSpace(fmt.Sprintf(`Контекст предыдущего диалога:
- Предыдущий вопрос пользователя: %s
- Предыдущий ответ бота: %s

Текущий вопрос пользователя: %s

Ответь на текущий вопрос, учитывая контекст предыдущего диалога.`,
		lastUser, assistantPart, question))
}
