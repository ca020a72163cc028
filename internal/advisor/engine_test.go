package advisor

import (
	"context"
	"testing"

	"github.com/lucasreyna/plata-advisor/internal/analyzer"
	"github.com/lucasreyna/plata-advisor/internal/classifier"
	"github.com/lucasreyna/plata-advisor/internal/dispatch"
	"github.com/lucasreyna/plata-advisor/internal/events"
)

func TestProcessFullPipeline(t *testing.T) {
	bus := events.New()
	engine := New(Deps{Bus: bus})

	result := engine.Process(context.Background(), Request{
		UserID:  "u1",
		Message: "¿Qué es un ETF?",
	})

	if result.ConversationID == "" {
		t.Fatal("conversation ID not minted")
	}
	if result.Analysis.QueryType != analyzer.QueryEducational {
		t.Errorf("QueryType = %q, want educativa", result.Analysis.QueryType)
	}
	if result.Response.Type != dispatch.TypeEducational {
		t.Errorf("Response.Type = %q, want %q", result.Response.Type, dispatch.TypeEducational)
	}
	if result.Response.Message == "" {
		t.Error("empty response message")
	}

	// Both turns recorded, profile updated.
	s := engine.CreateOrGetSession("u1", result.ConversationID)
	if len(s.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2 (user + assistant)", len(s.Messages))
	}
	if s.Messages[0].Analysis == nil {
		t.Error("user message should carry its analysis")
	}
	if s.Messages[1].Analysis != nil {
		t.Error("assistant message should not carry an analysis")
	}
	if s.Flow.Turns != 1 {
		t.Errorf("Turns = %d, want 1", s.Flow.Turns)
	}
}

func TestProcessAnalyzesBeforeAppending(t *testing.T) {
	engine := New(Deps{})

	first := engine.Process(context.Background(), Request{
		UserID: "u1", ConversationID: "c1", Message: "¿Qué es un ETF?",
	})
	if !first.Analysis.IsFirstMessage {
		t.Error("first message not flagged: analysis must run against the pre-append history")
	}

	second := engine.Process(context.Background(), Request{
		UserID: "u1", ConversationID: "c1", Message: "¿y los bonos?",
	})
	if second.Analysis.IsFirstMessage {
		t.Error("second message flagged as first")
	}
	if !second.Analysis.Context.IsFollowUp {
		t.Error("short continuation with history should read as follow-up")
	}
}

func TestProcessKnowledgeLevelSticks(t *testing.T) {
	engine := New(Deps{})
	ctx := context.Background()

	engine.Process(ctx, Request{UserID: "u1", ConversationID: "c1",
		Message: "Mi drawdown máximo fue del 20%"})

	// Next message has no vocabulary signal; the profile level carries.
	result := engine.Process(ctx, Request{UserID: "u1", ConversationID: "c1",
		Message: "cuéntame más de eso por favor"})

	if result.Analysis.KnowledgeLevel != analyzer.LevelExpert {
		t.Errorf("KnowledgeLevel = %q, want sticky %q",
			result.Analysis.KnowledgeLevel, analyzer.LevelExpert)
	}
}

func TestProcessCrisisEndToEnd(t *testing.T) {
	engine := New(Deps{})

	result := engine.Process(context.Background(), Request{
		UserID:    "u1",
		Message:   "¡Emergencia! mi portafolio cayó 30% y estoy en pánico",
		Financial: &dispatch.FinancialContext{PortfolioValue: 80000},
	})

	if result.Response.Type != dispatch.TypeCrisis {
		t.Errorf("Response.Type = %q, want %q", result.Response.Type, dispatch.TypeCrisis)
	}
	if result.Response.Priority != dispatch.PriorityCritical {
		t.Errorf("Priority = %q, want %q", result.Response.Priority, dispatch.PriorityCritical)
	}
}

func TestProcessCountsClarifications(t *testing.T) {
	engine := New(Deps{})
	ctx := context.Background()

	// Uncertainty routes to a handler that asks the user to clarify.
	engine.Process(ctx, Request{UserID: "u1", ConversationID: "c1",
		Message: "no estoy seguro de qué hacer con esto"})

	s := engine.CreateOrGetSession("u1", "c1")
	if s.Flow.Clarifications != 1 {
		t.Errorf("Clarifications = %d, want 1", s.Flow.Clarifications)
	}
}

func TestProcessPublishesPipelineEvents(t *testing.T) {
	bus := events.New()
	engine := New(Deps{Bus: bus})

	engine.Process(context.Background(), Request{UserID: "u1", Message: "¿Qué es un ETF?"})

	kinds := make(map[string]bool)
	for _, e := range engine.RecentEvents(16) {
		kinds[e.Kind] = true
	}
	for _, want := range []string{
		events.KindSessionCreated,
		events.KindMessageAnalyzed,
		events.KindResponseGenerated,
	} {
		if !kinds[want] {
			t.Errorf("event %q not published", want)
		}
	}
}

func TestProcessWithClassifierCorroboration(t *testing.T) {
	clf, err := classifier.New(context.Background(), classifier.Defaults(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	engine := New(Deps{Classifier: clf})

	result := engine.Process(context.Background(), Request{
		UserID: "u1", Message: "¿Qué es un ETF y cómo funciona?",
	})
	if result.Prediction.Label == "" {
		t.Error("classifier configured but no prediction attached")
	}
}

func TestProcessWithoutClassifier(t *testing.T) {
	engine := New(Deps{})
	ctx := context.Background()

	result := engine.Process(ctx, Request{UserID: "u1", Message: "hola"})
	if result.Prediction.Label != "" {
		t.Errorf("Prediction = %+v, want zero without a classifier", result.Prediction)
	}

	receipt, err := engine.RecordFeedback(ctx, "hola", "greeting_handler", classifier.LabelUseful)
	if err != nil {
		t.Fatalf("record feedback: %v", err)
	}
	if receipt.Recorded {
		t.Error("feedback should not be marked recorded without a classifier")
	}

	if stats := engine.Statistics(); stats.TotalConversations != 0 {
		t.Errorf("Statistics = %+v, want zero value", stats)
	}
}

func TestFeedbackFlowsToStatistics(t *testing.T) {
	clf, err := classifier.New(context.Background(), classifier.Defaults(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	engine := New(Deps{Classifier: clf})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := engine.RecordFeedback(ctx, "mensaje", "educational_handler", classifier.LabelUseful); err != nil {
			t.Fatalf("record feedback: %v", err)
		}
	}

	stats := engine.Statistics()
	if stats.TotalConversations != 3 {
		t.Errorf("TotalConversations = %d, want 3", stats.TotalConversations)
	}
	if stats.HelpfulnessRate != 1 {
		t.Errorf("HelpfulnessRate = %v, want 1", stats.HelpfulnessRate)
	}
}

func TestSessionsAreIsolatedByUser(t *testing.T) {
	engine := New(Deps{})
	ctx := context.Background()

	engine.Process(ctx, Request{UserID: "u1", ConversationID: "c1",
		Message: "Háblame del delta hedging"})
	engine.Process(ctx, Request{UserID: "u2", ConversationID: "c1",
		Message: "Es mi primera vez invirtiendo"})

	s1 := engine.CreateOrGetSession("u1", "c1")
	s2 := engine.CreateOrGetSession("u2", "c1")
	if s1.Profile.KnowledgeLevel != analyzer.LevelSpecialist {
		t.Errorf("u1 level = %q, want %q", s1.Profile.KnowledgeLevel, analyzer.LevelSpecialist)
	}
	if s2.Profile.KnowledgeLevel != analyzer.LevelBeginner {
		t.Errorf("u2 level = %q, want %q", s2.Profile.KnowledgeLevel, analyzer.LevelBeginner)
	}
}
