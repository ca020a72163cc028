package analyzer

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// rawRules mirrors the YAML rule file layout. Order within every list
// is significant: first match wins.
type rawRules struct {
	QueryTypes []struct {
		Label string   `yaml:"label"`
		Cues  []string `yaml:"cues"`
	} `yaml:"query_types"`
	Knowledge struct {
		Ladder []struct {
			Level string   `yaml:"level"`
			Cues  []string `yaml:"cues"`
		} `yaml:"ladder"`
		BeginnerMarkers []string `yaml:"beginner_markers"`
	} `yaml:"knowledge"`
	Emotions []struct {
		Label string   `yaml:"label"`
		Cues  []string `yaml:"cues"`
	} `yaml:"emotions"`
	Urgency []struct {
		Level string   `yaml:"level"`
		Cues  []string `yaml:"cues"`
	} `yaml:"urgency"`
	Sentiment struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"sentiment"`
	Certainty struct {
		Hedges    []string `yaml:"hedges"`
		Assertive []string `yaml:"assertive"`
	} `yaml:"certainty"`
	Needs []struct {
		Cues []string `yaml:"cues"`
		Tags []string `yaml:"tags"`
	} `yaml:"needs"`
	Assumptions []struct {
		Tag  string   `yaml:"tag"`
		Cues []string `yaml:"cues"`
	} `yaml:"assumptions"`
	Timeframes []struct {
		Bucket string   `yaml:"bucket"`
		Cues   []string `yaml:"cues"`
	} `yaml:"timeframes"`
	Assets []struct {
		Name string   `yaml:"name"`
		Cues []string `yaml:"cues"`
	} `yaml:"assets"`
	Topics []struct {
		Name string   `yaml:"name"`
		Cues []string `yaml:"cues"`
	} `yaml:"topics"`
	TechnicalTerms []string `yaml:"technical_terms"`
	Greetings      []string `yaml:"greetings"`
	Continuations  []string `yaml:"continuations"`
	Followups      []struct {
		Cues      []string `yaml:"cues"`
		Query     string   `yaml:"query"`
		Questions []string `yaml:"questions"`
	} `yaml:"followups"`
}

// labelRule is one (cues, label) pair in a priority-ordered table.
type labelRule struct {
	label string
	cues  []string
}

// tagRule maps cues to one or more tags (latent needs, assumptions).
type tagRule struct {
	tags []string
	cues []string
}

// followupRule maps either surface cues or a query type to predicted
// next questions. Cue rules are checked before query-type rules.
type followupRule struct {
	cues      []string
	query     QueryType
	questions []string
}

// ruleSet is the compiled, normalization-applied form of rules.yaml.
type ruleSet struct {
	queryTypes      []labelRule
	knowledgeLadder []labelRule
	beginnerMarkers []string
	emotions        []labelRule
	urgency         []labelRule
	positive        []string
	negative        []string
	hedges          []string
	assertive       []string
	needs           []tagRule
	assumptions     []tagRule
	timeframes      []labelRule
	assets          []labelRule
	topics          []labelRule
	technicalTerms  []string
	greetings       []string
	continuations   []string
	followups       []followupRule
}

// defaultRules is parsed once at package load. A parse failure here is
// a build defect (the file is embedded), so it panics.
var defaultRules = mustLoadRules()

func mustLoadRules() *ruleSet {
	rs, err := loadRules(rulesYAML)
	if err != nil {
		panic(fmt.Sprintf("analyzer: embedded rules.yaml invalid: %v", err))
	}
	return rs
}

func loadRules(data []byte) (*ruleSet, error) {
	var raw rawRules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	rs := &ruleSet{
		beginnerMarkers: normalizeAll(raw.Knowledge.BeginnerMarkers),
		positive:        normalizeAll(raw.Sentiment.Positive),
		negative:        normalizeAll(raw.Sentiment.Negative),
		hedges:          normalizeAll(raw.Certainty.Hedges),
		assertive:       normalizeAll(raw.Certainty.Assertive),
		technicalTerms:  normalizeAll(raw.TechnicalTerms),
		greetings:       normalizeAll(raw.Greetings),
		continuations:   normalizeAll(raw.Continuations),
	}

	for _, q := range raw.QueryTypes {
		rs.queryTypes = append(rs.queryTypes, labelRule{label: q.Label, cues: normalizeAll(q.Cues)})
	}
	for _, l := range raw.Knowledge.Ladder {
		rs.knowledgeLadder = append(rs.knowledgeLadder, labelRule{label: l.Level, cues: normalizeAll(l.Cues)})
	}
	for _, e := range raw.Emotions {
		rs.emotions = append(rs.emotions, labelRule{label: e.Label, cues: normalizeAll(e.Cues)})
	}
	for _, u := range raw.Urgency {
		rs.urgency = append(rs.urgency, labelRule{label: u.Level, cues: normalizeAll(u.Cues)})
	}
	for _, n := range raw.Needs {
		rs.needs = append(rs.needs, tagRule{tags: n.Tags, cues: normalizeAll(n.Cues)})
	}
	for _, a := range raw.Assumptions {
		rs.assumptions = append(rs.assumptions, tagRule{tags: []string{a.Tag}, cues: normalizeAll(a.Cues)})
	}
	for _, t := range raw.Timeframes {
		rs.timeframes = append(rs.timeframes, labelRule{label: t.Bucket, cues: normalizeAll(t.Cues)})
	}
	for _, a := range raw.Assets {
		rs.assets = append(rs.assets, labelRule{label: a.Name, cues: normalizeAll(a.Cues)})
	}
	for _, t := range raw.Topics {
		rs.topics = append(rs.topics, labelRule{label: t.Name, cues: normalizeAll(t.Cues)})
	}
	for _, f := range raw.Followups {
		rs.followups = append(rs.followups, followupRule{
			cues:      normalizeAll(f.Cues),
			query:     QueryType(f.Query),
			questions: f.Questions,
		})
	}

	return rs, nil
}

// normalize lowercases and folds Spanish accents so that "jubilación"
// and "jubilacion" match the same cue. Ñ is kept: it distinguishes
// words ("año" vs "ano").
func normalize(s string) string {
	s = strings.ToLower(s)
	return accentFolder.Replace(s)
}

var accentFolder = strings.NewReplacer(
	"á", "a",
	"é", "e",
	"í", "i",
	"ó", "o",
	"ú", "u",
	"ü", "u",
)

func normalizeAll(cues []string) []string {
	out := make([]string, len(cues))
	for i, c := range cues {
		out[i] = normalize(c)
	}
	return out
}

// matchAny reports whether any cue appears in the normalized message.
func matchAny(normalized string, cues []string) bool {
	for _, c := range cues {
		if strings.Contains(normalized, c) {
			return true
		}
	}
	return false
}

// countHits returns how many cues appear in the normalized message.
func countHits(normalized string, cues []string) int {
	n := 0
	for _, c := range cues {
		if strings.Contains(normalized, c) {
			n++
		}
	}
	return n
}

// firstMatch scans a priority-ordered rule table and returns the label
// of the first rule whose cues match, or "" when nothing matches.
func firstMatch(normalized string, rules []labelRule) string {
	for _, r := range rules {
		if matchAny(normalized, r.cues) {
			return r.label
		}
	}
	return ""
}
