// Package analyzer infers latent properties of a user message: what the
// user is asking for, how much they already know, how they feel, and
// what they will probably need next. All classification is rule-table
// driven and total — every dimension has a default, so a malformed or
// empty message still yields a well-formed Analysis.
package analyzer

// QueryType is the inferred purpose category of a message. Categories
// are mutually exclusive; detection is first-match-wins over a fixed
// priority order (see queryTypeRules).
type QueryType string

const (
	QueryStrategic     QueryType = "estrategica"
	QueryAdvisory      QueryType = "asesoria"
	QueryEducational   QueryType = "educativa"
	QueryAnalytical    QueryType = "analitica"
	QueryComparative   QueryType = "comparativa"
	QueryUrgent        QueryType = "urgente"
	QuerySpeculative   QueryType = "especulativa"
	QueryPhilosophical QueryType = "filosofica"
	QueryDiagnostic    QueryType = "diagnostica"
)

// KnowledgeLevel is an ordered scale of investment literacy. Levels
// compare by Rank; string values are what callers and the UI see.
type KnowledgeLevel string

const (
	LevelNovice       KnowledgeLevel = "novato"
	LevelBeginner     KnowledgeLevel = "principiante"
	LevelIntermediate KnowledgeLevel = "intermedio"
	LevelAdvanced     KnowledgeLevel = "avanzado"
	LevelExpert       KnowledgeLevel = "experto"
	LevelSpecialist   KnowledgeLevel = "especialista"
)

var levelRanks = map[KnowledgeLevel]int{
	LevelNovice:       0,
	LevelBeginner:     1,
	LevelIntermediate: 2,
	LevelAdvanced:     3,
	LevelExpert:       4,
	LevelSpecialist:   5,
}

// Rank returns the position of the level on the novice→specialist
// scale. Unknown levels rank as intermediate.
func (l KnowledgeLevel) Rank() int {
	if r, ok := levelRanks[l]; ok {
		return r
	}
	return levelRanks[LevelIntermediate]
}

// EmotionalState is the single dominant emotional reading of a message.
type EmotionalState string

const (
	StatePanicked    EmotionalState = "panico"
	StateAnxious     EmotionalState = "ansiedad"
	StateUncertain   EmotionalState = "incertidumbre"
	StateSkeptical   EmotionalState = "escepticismo"
	StateEnthusiast  EmotionalState = "entusiasmo"
	StateConfident   EmotionalState = "confianza"
	StateCurious     EmotionalState = "curiosidad"
	StateNeutral     EmotionalState = "neutral"
)

// Complexity buckets how demanding a full answer would be.
type Complexity string

const (
	ComplexitySimple Complexity = "simple"
	ComplexityMedium Complexity = "media"
	ComplexityHigh   Complexity = "alta"
)

// Certainty reflects how sure the user sounds about their own premise.
type Certainty string

const (
	CertaintyLow    Certainty = "baja"
	CertaintyMedium Certainty = "media"
	CertaintyHigh   Certainty = "alta"
)

// Sentiment is a coarse positive/negative/neutral reading.
type Sentiment string

const (
	SentimentPositive Sentiment = "positivo"
	SentimentNegative Sentiment = "negativo"
	SentimentNeutral  Sentiment = "neutral"
)

// Urgency tiers drive crisis routing: Critical always wins dispatch.
type Urgency string

const (
	UrgencyLow      Urgency = "baja"
	UrgencyMedium   Urgency = "media"
	UrgencyHigh     Urgency = "alta"
	UrgencyCritical Urgency = "critica"
)

// Timeframe buckets the investment horizon mentioned in a message.
// Empty means no horizon language was detected.
type Timeframe string

const (
	TimeframeShort  Timeframe = "corto_plazo"
	TimeframeMedium Timeframe = "mediano_plazo"
	TimeframeLong   Timeframe = "largo_plazo"
)

// Need tags name requirements the response should satisfy even though
// the user did not ask for them explicitly.
const (
	NeedEmotionalValidation   = "validacion_emocional"
	NeedRiskEducation         = "educacion_de_riesgo"
	NeedStepByStep            = "estructura_paso_a_paso"
	NeedPrioritizedGuidance   = "orientacion_priorizada"
	NeedAmountContext         = "contexto_de_magnitud"
	NeedHorizonView           = "vision_de_horizonte"
	NeedDecisionMatrix        = "matriz_de_decision"
	NeedConcentrationWarning  = "advertencia_de_concentracion"
)

// Assumption tags flag reasoning shortcuts the handlers should
// challenge instead of silently accepting.
const (
	AssumptionAbsolute           = "afirmacion_absoluta"
	AssumptionRecencyBias        = "sesgo_de_recencia"
	AssumptionOvergeneralization = "sobregeneralizacion"
)

// MessageContext holds entities and framing extracted from the message
// surface: what the message is about, rather than what it wants.
type MessageContext struct {
	Timeframe    Timeframe
	AssetClasses []string
	Topics       []string
	Amounts      []float64
	Entities     []string
	// IsFollowUp is true when the message reads as a continuation of
	// the previous turn ("sí", "pero entonces...") and history exists.
	IsFollowUp bool
}

// Analysis is the full multi-dimensional reading of one inbound
// message. QueryType and EmotionalState are single-valued partitions —
// exactly one label each, never multiple.
type Analysis struct {
	QueryType          QueryType
	KnowledgeLevel     KnowledgeLevel
	EmotionalState     EmotionalState
	Complexity         Complexity
	Certainty          Certainty
	Sentiment          Sentiment
	UrgencyLevel       Urgency
	LatentNeeds        []string
	Assumptions        []string
	Context            MessageContext
	PredictedFollowUps []string
	IsFirstMessage     bool
}

// Prior is the slice of session state the analyzer is allowed to read.
// Keeping it narrow makes Analyze a pure function of (message, prior):
// the same inputs always produce the same Analysis.
type Prior struct {
	// KnowledgeLevel is the level recorded on the session profile, or
	// empty when no level has been inferred yet.
	KnowledgeLevel KnowledgeLevel
	// HistoryLen is the number of messages already in the session.
	HistoryLen int
}
