package analyzer

import (
	"log/slog"
	"strings"
)

// Analyzer classifies messages against the compiled rule tables. It is
// stateless: every method is a pure function of its arguments, so a
// single Analyzer is safe for concurrent use across sessions.
type Analyzer struct {
	rules  *ruleSet
	logger *slog.Logger
}

// New creates an Analyzer backed by the embedded rule tables.
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{rules: defaultRules, logger: logger}
}

// Analyze produces the full Analysis for one inbound message. It never
// fails: an empty or malformed message yields the default reading
// (educativa, neutral, low urgency). The prior carries the only session
// state the analyzer reads — the previously inferred knowledge level
// (for stickiness) and the history length (for first-message and
// follow-up detection).
func (a *Analyzer) Analyze(message string, prior Prior) Analysis {
	normalized := normalize(message)
	words := strings.Fields(normalized)

	an := Analysis{
		QueryType:      a.detectQueryType(normalized),
		KnowledgeLevel: a.inferKnowledgeLevel(normalized, prior.KnowledgeLevel),
		EmotionalState: a.detectEmotionalState(normalized),
		UrgencyLevel:   a.detectUrgency(normalized),
		Sentiment:      a.detectSentiment(normalized),
		IsFirstMessage: prior.HistoryLen == 0,
	}

	questionMarks := strings.Count(message, "?") + strings.Count(message, "¿")
	techTerms := countHits(normalized, a.rules.technicalTerms)
	an.Complexity = classifyComplexity(len(words), techTerms, questionMarks)
	an.Certainty = a.classifyCertainty(normalized)

	an.Context = a.extractContext(message, normalized, prior.HistoryLen)
	an.LatentNeeds = a.inferLatentNeeds(normalized, questionMarks, an.Context)
	an.Assumptions = a.identifyAssumptions(normalized)
	an.PredictedFollowUps = a.predictFollowUps(normalized, an.QueryType)

	a.logger.Debug("message analyzed",
		"query_type", an.QueryType,
		"knowledge_level", an.KnowledgeLevel,
		"emotional_state", an.EmotionalState,
		"urgency", an.UrgencyLevel,
		"first_message", an.IsFirstMessage,
	)

	return an
}

// IsGreeting reports whether the message is a standalone greeting. A
// greeting that carries a question ("hola, ¿qué es un ETF?") is not
// standalone and must flow through normal analysis.
func (a *Analyzer) IsGreeting(message string) bool {
	normalized := strings.TrimSpace(normalize(message))
	if normalized == "" {
		return false
	}
	if strings.ContainsAny(message, "?¿") {
		return false
	}
	if len(strings.Fields(normalized)) > 5 {
		return false
	}
	for _, g := range a.rules.greetings {
		if normalized == g || strings.HasPrefix(normalized, g+" ") || strings.HasPrefix(normalized, g+",") || strings.HasPrefix(normalized, g+"!") {
			return true
		}
	}
	return false
}

// detectQueryType walks the priority-ordered query table. The ordering
// is deliberate: strategic language dominates educational phrasing when
// both are present, because long-horizon intent matters more than the
// surface form of the question. Default is educativa.
func (a *Analyzer) detectQueryType(normalized string) QueryType {
	if label := firstMatch(normalized, a.rules.queryTypes); label != "" {
		return QueryType(label)
	}
	return QueryEducational
}

// inferKnowledgeLevel checks the vocabulary ladder most-specialized
// first, then beginner markers, then falls back to the previously
// recorded level. A conversation therefore keeps its level until new
// technical vocabulary shows up.
func (a *Analyzer) inferKnowledgeLevel(normalized string, prior KnowledgeLevel) KnowledgeLevel {
	if label := firstMatch(normalized, a.rules.knowledgeLadder); label != "" {
		return KnowledgeLevel(label)
	}
	if matchAny(normalized, a.rules.beginnerMarkers) {
		return LevelBeginner
	}
	if prior != "" {
		return prior
	}
	return LevelIntermediate
}

// detectEmotionalState walks the emotion table highest severity first.
// Single label — the first match wins, so panic phrasing beats any
// enthusiasm appearing later in the same message.
func (a *Analyzer) detectEmotionalState(normalized string) EmotionalState {
	if label := firstMatch(normalized, a.rules.emotions); label != "" {
		return EmotionalState(label)
	}
	return StateNeutral
}

func (a *Analyzer) detectUrgency(normalized string) Urgency {
	if label := firstMatch(normalized, a.rules.urgency); label != "" {
		return Urgency(label)
	}
	return UrgencyLow
}

func (a *Analyzer) detectSentiment(normalized string) Sentiment {
	pos := countHits(normalized, a.rules.positive)
	neg := countHits(normalized, a.rules.negative)
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func classifyComplexity(wordCount, techTerms, questionMarks int) Complexity {
	switch {
	case wordCount > 40 || techTerms >= 3:
		return ComplexityHigh
	case wordCount > 15 || techTerms >= 1 || questionMarks > 1:
		return ComplexityMedium
	default:
		return ComplexitySimple
	}
}

func (a *Analyzer) classifyCertainty(normalized string) Certainty {
	hedges := countHits(normalized, a.rules.hedges)
	assertive := countHits(normalized, a.rules.assertive)
	switch {
	case assertive > hedges:
		return CertaintyHigh
	case hedges > assertive:
		return CertaintyLow
	default:
		return CertaintyMedium
	}
}

// inferLatentNeeds maps textual triggers to need tags the user did not
// articulate. Two triggers are structural rather than lexical: several
// question marks in one message call for prioritized guidance, and an
// explicit monetary amount calls for magnitude context.
func (a *Analyzer) inferLatentNeeds(normalized string, questionMarks int, ctx MessageContext) []string {
	seen := make(map[string]bool)
	var needs []string
	add := func(tag string) {
		if !seen[tag] {
			seen[tag] = true
			needs = append(needs, tag)
		}
	}

	for _, rule := range a.rules.needs {
		if matchAny(normalized, rule.cues) {
			for _, tag := range rule.tags {
				add(tag)
			}
		}
	}
	if questionMarks >= 2 {
		add(NeedPrioritizedGuidance)
	}
	if len(ctx.Amounts) > 0 {
		add(NeedAmountContext)
	}

	return needs
}

// identifyAssumptions flags reasoning shortcuts (absolutist claims,
// recency bias, overgeneralization) so that handlers can challenge the
// premise instead of silently accepting it.
func (a *Analyzer) identifyAssumptions(normalized string) []string {
	var tags []string
	for _, rule := range a.rules.assumptions {
		if matchAny(normalized, rule.cues) {
			tags = append(tags, rule.tags...)
		}
	}
	return tags
}

// predictFollowUps returns anticipated next questions. Cue-based rules
// are checked first (they are more specific), then query-type rules.
// At most one rule contributes, keeping suggestions short.
func (a *Analyzer) predictFollowUps(normalized string, qt QueryType) []string {
	for _, rule := range a.rules.followups {
		if len(rule.cues) > 0 && matchAny(normalized, rule.cues) {
			return append([]string(nil), rule.questions...)
		}
	}
	for _, rule := range a.rules.followups {
		if len(rule.cues) == 0 && rule.query == qt {
			return append([]string(nil), rule.questions...)
		}
	}
	return nil
}
