package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/lucasreyna/plata-advisor/internal/events"
)

// Feedback labels the caller may send. Anything else is recorded with a
// neutral quality rather than rejected.
const (
	LabelUseful    = "useful"
	LabelNotUseful = "not useful"
)

// Quality targets for converted feedback.
const (
	qualityUseful    = 0.9
	qualityNotUseful = 0.3
	qualityNeutral   = 0.5
)

// fallbackIntent is the constant prediction used while the model has
// fewer examples than the bootstrap minimum.
const fallbackIntent = "educativa"

// Options tunes the model. The zero value is not usable; fill from
// config or use Defaults.
type Options struct {
	// K is the number of neighbors in the vote.
	K int
	// RetrainEvery triggers a full index rebuild after this many
	// recorded feedback events.
	RetrainEvery int
	// MinBootstrap is the minimum training-set size below which
	// predictions are constant fallbacks.
	MinBootstrap int
}

// Defaults returns the standard model options: k=3, rebuild every 10
// feedback events, at least 6 examples before real predictions.
func Defaults() Options {
	return Options{K: 3, RetrainEvery: 10, MinBootstrap: 6}
}

// Prediction is an intent guess with its confidence. Fallback marks
// predictions produced by the insufficient-data branch so callers never
// mistake them for a confident vote.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Fallback   bool    `json:"fallback,omitempty"`
}

// Receipt acknowledges a recorded feedback event.
type Receipt struct {
	Recorded bool `json:"recorded"`
	Total    int  `json:"total_count"`
}

// Statistics summarizes the feedback loop for the stats surface.
type Statistics struct {
	TotalConversations int       `json:"total_conversations"`
	HelpfulnessRate    float64   `json:"helpfulness_rate"`
	ModelTrained       bool      `json:"model_trained"`
	Retrains           int       `json:"retrains"`
	LastRetrain        time.Time `json:"last_retrain,omitzero"`
}

// example is one vectorized training instance.
type example struct {
	vector  []float64
	label   string
	quality float64
}

// Classifier is the instance-based learner. A single mutex serializes
// all reads and writes of model state: retraining rebuilds the entire
// index, so a single-writer discipline is mandatory when the classifier
// is shared across sessions.
type Classifier struct {
	opts Options

	mu            sync.Mutex
	index         []example // active neighbor index
	feedback      []example // accumulated feedback, vectorized
	feedbackCount int
	usefulCount   int
	retrains      int
	lastRetrain   time.Time
	trained       bool

	store  *Store
	bus    *events.Bus
	logger *slog.Logger
}

// New creates a classifier seeded with the bootstrap set. When a store
// is supplied, persisted feedback is folded into the index immediately
// so the model picks up where it left off.
func New(ctx context.Context, opts Options, store *Store, bus *events.Bus, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.K < 1 || opts.RetrainEvery < 1 || opts.MinBootstrap < 1 {
		return nil, fmt.Errorf("classifier options must be positive: %+v", opts)
	}

	c := &Classifier{
		opts:   opts,
		store:  store,
		bus:    bus,
		logger: logger,
	}

	if store != nil {
		records, err := store.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("load feedback: %w", err)
		}
		for _, rec := range records {
			c.feedback = append(c.feedback, example{
				vector:  ExtractFeatures(rec.Message),
				label:   intentForResponseType(rec.ResponseType),
				quality: rec.Quality,
			})
			c.feedbackCount++
			if rec.Label == LabelUseful {
				c.usefulCount++
			}
		}
		c.trained = len(c.feedback) > 0
	}

	c.rebuildIndex()
	return c, nil
}

// rebuildIndex recomputes the neighbor index from the bootstrap set and
// all accumulated feedback. Caller must hold mu (or own the only
// reference, as in New).
func (c *Classifier) rebuildIndex() {
	index := make([]example, 0, len(bootstrapSet)+len(c.feedback))
	for _, b := range bootstrapSet {
		index = append(index, example{
			vector:  ExtractFeatures(b.message),
			label:   b.intent,
			quality: b.quality,
		})
	}
	index = append(index, c.feedback...)
	c.index = index
}

// PredictIntention returns the majority-vote intent among the k nearest
// training examples. With fewer examples than MinBootstrap, it returns
// the constant educational fallback with low confidence, tagged as a
// fallback.
func (c *Classifier) PredictIntention(message string) Prediction {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.index) < c.opts.MinBootstrap {
		return Prediction{Label: fallbackIntent, Confidence: 0.25, Fallback: true}
	}

	neighbors := c.nearest(ExtractFeatures(message))

	// Majority vote. Ties break nearest-distance-first: votes are
	// counted in neighbor order and a later label must strictly exceed
	// the leader to displace it.
	votes := make(map[string]int, len(neighbors))
	best := neighbors[0].label
	for _, n := range neighbors {
		votes[n.label]++
		if votes[n.label] > votes[best] {
			best = n.label
		}
	}

	return Prediction{
		Label:      best,
		Confidence: float64(votes[best]) / float64(len(neighbors)),
	}
}

// PredictQuality estimates how helpful a response to this message will
// be, as the mean quality of the k nearest examples, clamped to [0,1].
// The neighbor query is over message features; the response text is
// accepted for contract parity and reserved for future features.
func (c *Classifier) PredictQuality(message, response string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.index) < c.opts.MinBootstrap {
		return qualityNeutral
	}

	neighbors := c.nearest(ExtractFeatures(message))
	sum := 0.0
	for _, n := range neighbors {
		sum += n.quality
	}
	return clamp01(sum / float64(len(neighbors)))
}

// nearest returns the k closest index entries by Euclidean distance,
// nearest first. Equal distances keep index order, which keeps
// predictions reproducible. Caller must hold mu.
func (c *Classifier) nearest(vector []float64) []example {
	type scored struct {
		example
		dist float64
	}
	all := make([]scored, len(c.index))
	for i, ex := range c.index {
		all[i] = scored{example: ex, dist: euclidean(vector, ex.vector)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	k := c.opts.K
	if k > len(all) {
		k = len(all)
	}
	out := make([]example, k)
	for i := range out {
		out[i] = all[i].example
	}
	return out
}

// RecordFeedback converts a feedback label to a quality target, appends
// it to the training set, and persists it. Every RetrainEvery-th event
// triggers a full model rebuild. Unknown labels are recorded with
// neutral quality, never rejected.
func (c *Classifier) RecordFeedback(ctx context.Context, message, responseType, label string) (Receipt, error) {
	quality := qualityNeutral
	switch label {
	case LabelUseful:
		quality = qualityUseful
	case LabelNotUseful:
		quality = qualityNotUseful
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		rec := FeedbackRecord{
			Message:      message,
			ResponseType: responseType,
			Label:        label,
			Quality:      quality,
		}
		if err := c.store.Append(ctx, rec); err != nil {
			return Receipt{}, fmt.Errorf("persist feedback: %w", err)
		}
	}

	c.feedback = append(c.feedback, example{
		vector:  ExtractFeatures(message),
		label:   intentForResponseType(responseType),
		quality: quality,
	})
	c.feedbackCount++
	if label == LabelUseful {
		c.usefulCount++
	}

	c.bus.Publish(events.Event{
		Source: events.SourceClassifier,
		Kind:   events.KindFeedbackRecorded,
		Data: map[string]any{
			"label":   label,
			"quality": quality,
			"total":   c.feedbackCount,
		},
	})

	if c.feedbackCount%c.opts.RetrainEvery == 0 {
		c.retrainLocked()
	}

	return Receipt{Recorded: true, Total: c.feedbackCount}, nil
}

// Retrain forces a full rebuild of the neighbor index. Normally the
// rebuild happens automatically on the feedback cadence; this is for
// operational use (e.g., after bulk-importing feedback).
func (c *Classifier) Retrain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retrainLocked()
}

func (c *Classifier) retrainLocked() {
	c.rebuildIndex()
	c.retrains++
	c.lastRetrain = time.Now().UTC()
	c.trained = true

	c.bus.Publish(events.Event{
		Source: events.SourceClassifier,
		Kind:   events.KindModelRetrained,
		Data: map[string]any{
			"examples": len(c.index),
			"retrains": c.retrains,
		},
	})
	c.logger.Info("classifier retrained",
		"examples", len(c.index), "retrains", c.retrains)
}

// Stats returns the feedback-loop summary.
func (c *Classifier) Stats() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := 0.0
	if c.feedbackCount > 0 {
		rate = float64(c.usefulCount) / float64(c.feedbackCount)
	}
	return Statistics{
		TotalConversations: c.feedbackCount,
		HelpfulnessRate:    rate,
		ModelTrained:       c.trained,
		Retrains:           c.retrains,
		LastRetrain:        c.lastRetrain,
	}
}

// intentForResponseType maps a handler's response type back to the
// intent vocabulary used by the bootstrap set.
func intentForResponseType(responseType string) string {
	switch responseType {
	case "educational_handler", "greeting_handler", "conversational_handler":
		return "educativa"
	case "advisory_handler":
		return "asesoria"
	case "analytical_handler", "diagnostic_handler":
		return "analitica"
	case "crisis_handler", "anxiety_handler", "uncertainty_handler":
		return "urgente"
	case "strategic_handler":
		return "estrategica"
	case "comparative_handler":
		return "comparativa"
	case "speculative_handler":
		return "especulativa"
	case "philosophical_handler":
		return "filosofica"
	default:
		return fallbackIntent
	}
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
