// Package events holds the event types and payload structs shared between
// the game loop, the broadcast publisher, and the gateway.
package events

// Type identifies a room-scoped (or single-client) event on the wire.
type Type string

const (
	TypeGameStarted   Type = "game:started"
	TypeGameQuestion  Type = "game:question"
	TypeGameResult    Type = "game:result"
	TypeGameRanks     Type = "game:ranks"
	TypeGameOver      Type = "game:over"
	TypeGameError     Type = "game:error"
	TypeGameForceStop Type = "game:force_stop"
	TypeSessionUpdate Type = "session:update"
	TypeSessionReset  Type = "session:reset"
	TypeSyncIdle      Type = "sync:idle"
)

// OptionView is an answer choice as clients see it during the question
// phase: text only, correct flag stripped.
type OptionView struct {
	Text string `json:"text"`
}

// QuestionView is the client-facing shape of a question.
type QuestionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"questionText"`
	Options []OptionView `json:"options"`
}

// QuestionPayload is the payload for a game:question event. Time carries
// the full limit on a fresh broadcast and only the remaining seconds on a
// resync (IsSync set).
type QuestionPayload struct {
	QNum     int          `json:"qNum"`
	Total    int          `json:"total"`
	Time     int          `json:"time"`
	Question QuestionView `json:"question"`
	IsSync   bool         `json:"isSync,omitempty"`
}

// ResultPayload is the payload for a game:result event.
type ResultPayload struct {
	CorrectAnswer string `json:"correctAnswer"`
}

// RankEntry is one row of a leaderboard snapshot. Ranks are dense and
// 1-based; the payload for game:ranks is an ordered array of these.
type RankEntry struct {
	ID    string `json:"id"`
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Winner is one of the final top-3 carried by game:over.
type Winner struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// OverPayload is the payload for a game:over event. Winners is empty when
// the game was stopped before the final ranking.
type OverPayload struct {
	Winners []Winner `json:"winners,omitempty"`
}

// SessionUpdatePayload carries the live room membership count.
type SessionUpdatePayload struct {
	Count int `json:"count"`
}
