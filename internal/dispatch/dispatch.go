// Package dispatch selects and runs exactly one response generator per
// message. Selection is a strict priority-ordered decision table, not a
// scoring system: emotional safety and urgency always override topical
// routing, so a technically educational question asked in panic still
// receives crisis handling.
package dispatch

import (
	"log/slog"

	"github.com/lucasreyna/plata-advisor/internal/analyzer"
	"github.com/lucasreyna/plata-advisor/internal/session"
)

// ResponseType names the handler that produced a response, 1:1.
type ResponseType string

const (
	TypeGreeting       ResponseType = "greeting_handler"
	TypeCrisis         ResponseType = "crisis_handler"
	TypeAnxiety        ResponseType = "anxiety_handler"
	TypeUncertainty    ResponseType = "uncertainty_handler"
	TypeStrategic      ResponseType = "strategic_handler"
	TypeDiagnostic     ResponseType = "diagnostic_handler"
	TypeComparative    ResponseType = "comparative_handler"
	TypeEducational    ResponseType = "educational_handler"
	TypeAnalytical     ResponseType = "analytical_handler"
	TypeAdvisory       ResponseType = "advisory_handler"
	TypeSpeculative    ResponseType = "speculative_handler"
	TypePhilosophical  ResponseType = "philosophical_handler"
	TypeConversational ResponseType = "conversational_handler"
)

// Priority signals how prominently the UI should surface a response.
type Priority string

const (
	PriorityLow      Priority = "baja"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "alta"
	PriorityCritical Priority = "critica"
)

// Response is the structured reply a generator produces. The boolean
// flags drive UI decisions downstream; the core does not act on them
// beyond the clarification counter.
type Response struct {
	Message           string       `json:"message"`
	Type              ResponseType `json:"response_type"`
	Priority          Priority     `json:"priority"`
	Disclaimer        string       `json:"disclaimer,omitempty"`
	FollowUpQuestions []string     `json:"follow_up_questions,omitempty"`
	RequiresClarity   bool         `json:"requires_clarity"`
	EmotionalSupport  bool         `json:"emotional_support"`
	DataInformed      bool         `json:"data_informed"`
}

// FinancialContext carries already-computed portfolio figures supplied
// by the caller. Generators embed these numbers in text when present;
// nothing here is computed by this package.
type FinancialContext struct {
	PortfolioValue float64            `json:"portfolio_value"`
	Currency       string             `json:"currency"`
	SectorWeights  map[string]float64 `json:"sector_weights,omitempty"`
	Volatility     float64            `json:"volatility,omitempty"`
	SharpeRatio    float64            `json:"sharpe_ratio,omitempty"`
}

// Request bundles everything a generator may read. Generators are pure
// functions of the request: no I/O, no session mutation.
type Request struct {
	Message   string
	Analysis  analyzer.Analysis
	Session   *session.Session
	Financial *FinancialContext
}

// Generator produces a response from a request.
type Generator func(req Request) Response

// route is one row of the decision table.
type route struct {
	name string
	when func(req Request) bool
	gen  Generator
}

// Dispatcher runs the priority decision table. Safe for concurrent use:
// the table is immutable after construction.
type Dispatcher struct {
	routes []route
	an     *analyzer.Analyzer
	logger *slog.Logger
}

// New creates a dispatcher. The analyzer is needed only for its
// greeting detector, which runs independently of the Analysis.
func New(an *analyzer.Analyzer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{an: an, logger: logger}

	byQuery := func(qt analyzer.QueryType) func(Request) bool {
		return func(req Request) bool { return req.Analysis.QueryType == qt }
	}

	// Precedence, highest to lowest. The order of this table is the
	// core business rule of the subsystem: greeting short-circuits
	// everything, crisis beats every topical route, and the query-type
	// block keeps its fixed internal order.
	d.routes = []route{
		{"greeting", func(req Request) bool { return d.an.IsGreeting(req.Message) }, generateGreeting},
		{"crisis", func(req Request) bool {
			return req.Analysis.UrgencyLevel == analyzer.UrgencyCritical ||
				req.Analysis.EmotionalState == analyzer.StatePanicked
		}, generateCrisis},
		{"anxiety", func(req Request) bool {
			return req.Analysis.EmotionalState == analyzer.StateAnxious
		}, generateAnxiety},
		{"uncertainty", func(req Request) bool {
			return req.Analysis.EmotionalState == analyzer.StateUncertain
		}, generateUncertainty},
		{"strategic", byQuery(analyzer.QueryStrategic), generateStrategic},
		{"diagnostic", byQuery(analyzer.QueryDiagnostic), generateDiagnostic},
		{"comparative", byQuery(analyzer.QueryComparative), generateComparative},
		{"educational", byQuery(analyzer.QueryEducational), generateEducational},
		{"analytical", byQuery(analyzer.QueryAnalytical), generateAnalytical},
		{"advisory", byQuery(analyzer.QueryAdvisory), generateAdvisory},
		{"speculative", byQuery(analyzer.QuerySpeculative), generateSpeculative},
		{"philosophical", byQuery(analyzer.QueryPhilosophical), generatePhilosophical},
	}

	return d
}

// Dispatch runs the first matching route and returns its response with
// the disclaimer default applied. Exactly one generator runs per call;
// when nothing matches, the conversational fallback answers.
func (d *Dispatcher) Dispatch(req Request) Response {
	for _, r := range d.routes {
		if r.when(req) {
			d.logger.Debug("handler selected", "handler", r.name,
				"query_type", req.Analysis.QueryType,
				"emotional_state", req.Analysis.EmotionalState)
			return ensureDisclaimer(r.gen(req), req.Analysis.QueryType)
		}
	}

	d.logger.Debug("handler selected", "handler", "conversational")
	return ensureDisclaimer(generateConversational(req), req.Analysis.QueryType)
}
