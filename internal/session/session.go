// Package session holds per-conversation state: the message history,
// the evolving user profile, and conversation-flow counters. The store
// is keyed by (userID, conversationID) and lives in memory for the
// process lifetime, with an optional snapshot backend for persistence.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/lucasreyna/plata-advisor/internal/analyzer"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation. Analysis is set for user
// messages that went through the analyzer; assistant messages carry nil.
type Message struct {
	ID        string             `json:"id"`
	Role      Role               `json:"role"`
	Content   string             `json:"content"`
	Timestamp time.Time          `json:"timestamp"`
	Analysis  *analyzer.Analysis `json:"analysis,omitempty"`
}

// Profile is the slowly-evolving, cross-turn summary of what is known
// about the user within one conversation. The set fields only grow;
// KnowledgeLevel and LastEmotionalState track the latest inference with
// no smoothing — the most recent signal always wins.
type Profile struct {
	KnowledgeLevel     analyzer.KnowledgeLevel `json:"knowledge_level,omitempty"`
	LastEmotionalState analyzer.EmotionalState `json:"last_emotional_state,omitempty"`
	InvestmentHorizon  analyzer.Timeframe      `json:"investment_horizon,omitempty"`
	RiskTolerance      string                  `json:"risk_tolerance,omitempty"`
	ExploredTopics     []string                `json:"explored_topics,omitempty"`
	MentionedAssets    []string                `json:"mentioned_assets,omitempty"`
	DetectedNeeds      []string                `json:"detected_needs,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	LastActivity       time.Time               `json:"last_activity"`
}

// ConversationFlow counts pipeline passes. Turns increments once per
// profile update; Clarifications counts responses that asked the user
// to clarify, feeding the fallback handler's prompt rotation.
type ConversationFlow struct {
	Turns          int `json:"turns"`
	Clarifications int `json:"clarifications"`
}

// Session is the full per-conversation record. Methods on Session are
// not synchronized: the caller must serialize concurrent calls for the
// same conversation (one request in flight per conversation ID).
// Different sessions are fully independent.
type Session struct {
	UserID         string           `json:"user_id"`
	ConversationID string           `json:"conversation_id"`
	Messages       []Message        `json:"messages"`
	Profile        Profile          `json:"profile"`
	Flow           ConversationFlow `json:"flow"`
}

// AppendMessage adds a turn to the history and stamps it. The message
// ID is minted when empty.
func (s *Session) AppendMessage(role Role, content string, an *analyzer.Analysis) *Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Analysis:  an,
	}
	s.Messages = append(s.Messages, msg)
	return &s.Messages[len(s.Messages)-1]
}

// Prior returns the slice of session state the analyzer reads.
func (s *Session) Prior() analyzer.Prior {
	return analyzer.Prior{
		KnowledgeLevel: s.Profile.KnowledgeLevel,
		HistoryLen:     len(s.Messages),
	}
}

// ApplyAnalysis folds a new analysis into the profile:
//
//   - KnowledgeLevel and LastEmotionalState are overwritten (latest
//     inference wins, no smoothing).
//   - ExploredTopics, MentionedAssets, and DetectedNeeds are unioned —
//     they never shrink.
//   - InvestmentHorizon is overwritten only when the analysis produced
//     a timeframe.
//   - Turns increments by exactly one.
func (s *Session) ApplyAnalysis(an analyzer.Analysis) {
	if an.KnowledgeLevel != "" {
		s.Profile.KnowledgeLevel = an.KnowledgeLevel
	}
	s.Profile.LastEmotionalState = an.EmotionalState
	if an.Context.Timeframe != "" {
		s.Profile.InvestmentHorizon = an.Context.Timeframe
	}

	s.Profile.ExploredTopics = union(s.Profile.ExploredTopics, an.Context.Topics)
	s.Profile.MentionedAssets = union(s.Profile.MentionedAssets, an.Context.AssetClasses)
	s.Profile.DetectedNeeds = union(s.Profile.DetectedNeeds, an.LatentNeeds)

	s.Flow.Turns++
	s.Profile.LastActivity = time.Now().UTC()
}

// union appends the members of add that are not already in base,
// preserving insertion order. The result is a monotonic superset of
// base.
func union(base, add []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			base = append(base, v)
		}
	}
	return base
}
