// Package advisor wires the conversation pipeline: fetch-or-create the
// session, analyze the message, dispatch exactly one response handler,
// then fold the analysis into the session profile. The classifier runs
// beside the pipeline as a corroboration signal and never influences
// routing.
package advisor

import (
	"context"
	"log/slog"

	"github.com/lucasreyna/plata-advisor/internal/analyzer"
	"github.com/lucasreyna/plata-advisor/internal/classifier"
	"github.com/lucasreyna/plata-advisor/internal/dispatch"
	"github.com/lucasreyna/plata-advisor/internal/events"
	"github.com/lucasreyna/plata-advisor/internal/session"
)

// Deps holds injected dependencies for the engine. Using a struct
// avoids a growing parameter list as the pipeline evolves.
type Deps struct {
	Sessions   *session.Store
	Analyzer   *analyzer.Analyzer
	Dispatcher *dispatch.Dispatcher
	Classifier *classifier.Classifier // optional: nil disables corroboration
	Bus        *events.Bus            // optional
	Logger     *slog.Logger
}

// Engine is the advisor core. Safe for concurrent use across different
// sessions; concurrent calls for the same conversation are NOT
// serialized here — the caller must keep one request in flight per
// conversation ID, or profile updates may interleave.
type Engine struct {
	deps Deps
}

// New creates an engine. Missing Analyzer, Dispatcher, or Sessions are
// constructed with defaults so a zero-config engine still works.
func New(deps Deps) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analyzer.New(deps.Logger)
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = dispatch.New(deps.Analyzer, deps.Logger)
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore(nil, deps.Bus, deps.Logger)
	}
	return &Engine{deps: deps}
}

// Request is one inbound message with its addressing and optional
// caller-computed financial context.
type Request struct {
	UserID         string
	ConversationID string
	Message        string
	Financial      *dispatch.FinancialContext
}

// Result is everything one pipeline pass produced.
type Result struct {
	ConversationID string                `json:"conversation_id"`
	Analysis       analyzer.Analysis     `json:"analysis"`
	Response       dispatch.Response     `json:"response"`
	Prediction     classifier.Prediction `json:"prediction,omitzero"`
}

// CreateOrGetSession returns the session for the identifier pair,
// creating it on first contact.
func (e *Engine) CreateOrGetSession(userID, conversationID string) *session.Session {
	s, _ := e.deps.Sessions.GetOrCreate(userID, conversationID)
	return s
}

// Analyze runs the message analyzer against the session's current
// state. The session is not mutated.
func (e *Engine) Analyze(message string, s *session.Session) analyzer.Analysis {
	return e.deps.Analyzer.Analyze(message, s.Prior())
}

// Respond dispatches exactly one response handler for the analysis.
func (e *Engine) Respond(message string, an analyzer.Analysis, s *session.Session, fin *dispatch.FinancialContext) dispatch.Response {
	return e.deps.Dispatcher.Dispatch(dispatch.Request{
		Message:   message,
		Analysis:  an,
		Session:   s,
		Financial: fin,
	})
}

// UpdateProfile folds the analysis into the session profile.
func (e *Engine) UpdateProfile(s *session.Session, an analyzer.Analysis) {
	s.ApplyAnalysis(an)
}

// Process runs the full pipeline for one message: analyze, dispatch,
// record both turns in the history, update the profile, and corroborate
// with the classifier. Each call completes before the caller should
// send the next message for the same session.
func (e *Engine) Process(ctx context.Context, req Request) Result {
	s := e.CreateOrGetSession(req.UserID, req.ConversationID)

	an := e.Analyze(req.Message, s)
	s.AppendMessage(session.RoleUser, req.Message, &an)

	e.deps.Bus.Publish(events.Event{
		Source: events.SourceAdvisor,
		Kind:   events.KindMessageAnalyzed,
		Data: map[string]any{
			"conversation_id": s.ConversationID,
			"query_type":      string(an.QueryType),
			"emotional_state": string(an.EmotionalState),
			"urgency":         string(an.UrgencyLevel),
		},
	})

	resp := e.Respond(req.Message, an, s, req.Financial)

	e.UpdateProfile(s, an)
	if resp.RequiresClarity {
		s.Flow.Clarifications++
	}
	s.AppendMessage(session.RoleAssistant, resp.Message, nil)

	e.deps.Bus.Publish(events.Event{
		Source: events.SourceAdvisor,
		Kind:   events.KindResponseGenerated,
		Data: map[string]any{
			"conversation_id": s.ConversationID,
			"response_type":   string(resp.Type),
			"priority":        string(resp.Priority),
		},
	})

	result := Result{
		ConversationID: s.ConversationID,
		Analysis:       an,
		Response:       resp,
	}

	if e.deps.Classifier != nil {
		result.Prediction = e.corroborate(req.Message, an)
	}

	return result
}

// corroborate compares the classifier's intent prediction against the
// rule-based query type. Disagreement is telemetry, not an error: it is
// logged and published but never changes the response.
func (e *Engine) corroborate(message string, an analyzer.Analysis) classifier.Prediction {
	pred := e.deps.Classifier.PredictIntention(message)

	if !pred.Fallback && pred.Label != string(an.QueryType) {
		e.deps.Logger.Debug("classifier disagrees with rule-based query type",
			"rule_label", an.QueryType,
			"predicted_label", pred.Label,
			"confidence", pred.Confidence,
		)
		e.deps.Bus.Publish(events.Event{
			Source: events.SourceClassifier,
			Kind:   events.KindIntentMismatch,
			Data: map[string]any{
				"rule_label":      string(an.QueryType),
				"predicted_label": pred.Label,
				"confidence":      pred.Confidence,
			},
		})
	}

	return pred
}

// RecordFeedback forwards a feedback event to the classifier. With no
// classifier configured, the event is acknowledged but not recorded.
func (e *Engine) RecordFeedback(ctx context.Context, message, responseType, label string) (classifier.Receipt, error) {
	if e.deps.Classifier == nil {
		return classifier.Receipt{}, nil
	}
	return e.deps.Classifier.RecordFeedback(ctx, message, responseType, label)
}

// Statistics returns the classifier's feedback-loop summary. With no
// classifier configured, the zero summary is returned.
func (e *Engine) Statistics() classifier.Statistics {
	if e.deps.Classifier == nil {
		return classifier.Statistics{}
	}
	return e.deps.Classifier.Stats()
}

// RecentEvents exposes the event ring for the debug surface.
func (e *Engine) RecentEvents(n int) []events.Event {
	return e.deps.Bus.Recent(n)
}

// Sessions exposes the session store for snapshot/restore at startup
// and shutdown.
func (e *Engine) Sessions() *session.Store {
	return e.deps.Sessions
}
