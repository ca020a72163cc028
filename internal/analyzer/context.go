package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyAmount matches explicit currency amounts: "$5,000", "€300".
var currencyAmount = regexp.MustCompile(`[$€]\s*([0-9][0-9.,]*)`)

// unitAmount matches amounts with a trailing unit word on normalized
// text: "5000 pesos", "2 mil dolares", "1.5 millones".
var unitAmount = regexp.MustCompile(`([0-9][0-9.,]*)\s*(millones|millon|mil|usd|mxn|eur|pesos|dolares)`)

// ticker matches bare uppercase symbols in the original message.
var ticker = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// tickerStoplist excludes uppercase tokens that are currencies, asset
// classes, or Spanish interjections rather than tradable symbols.
var tickerStoplist = map[string]bool{
	"ETF": true, "ETFS": true, "USD": true, "MXN": true, "EUR": true,
	"OK": true, "IRA": true, "SAT": true, "PIB": true, "APY": true,
}

// knownEntities maps normalized mentions to canonical display names.
// Checked before the ticker heuristic so "bitcoin" wins over "BTC".
var knownEntities = []struct {
	cue  string
	name string
}{
	{"bitcoin", "Bitcoin"},
	{"btc", "Bitcoin"},
	{"ethereum", "Ethereum"},
	{"eth ", "Ethereum"},
	{"tesla", "Tesla"},
	{"apple", "Apple"},
	{"amazon", "Amazon"},
	{"nvidia", "Nvidia"},
	{"microsoft", "Microsoft"},
	{"vanguard", "Vanguard"},
	{"blackrock", "BlackRock"},
	{"s&p 500", "S&P 500"},
	{"s&p", "S&P 500"},
	{"nasdaq", "Nasdaq"},
	{"cetes", "CETES"},
}

// extractContext pulls entities and framing from the message surface:
// horizon bucket, asset classes, topics, monetary amounts, named
// entities, and whether the message continues the previous turn.
func (a *Analyzer) extractContext(message, normalized string, historyLen int) MessageContext {
	ctx := MessageContext{
		Timeframe: Timeframe(firstMatch(normalized, a.rules.timeframes)),
	}

	for _, rule := range a.rules.assets {
		if matchAny(normalized, rule.cues) {
			ctx.AssetClasses = append(ctx.AssetClasses, rule.label)
		}
	}
	for _, rule := range a.rules.topics {
		if matchAny(normalized, rule.cues) {
			ctx.Topics = append(ctx.Topics, rule.label)
		}
	}

	ctx.Amounts = extractAmounts(normalized)
	ctx.Entities = extractEntities(message, normalized)
	ctx.IsFollowUp = a.isFollowUp(normalized, historyLen)

	return ctx
}

// extractAmounts parses monetary amounts best-effort. Unparseable
// matches are skipped — the amount list feeds response phrasing, not
// arithmetic.
func extractAmounts(normalized string) []float64 {
	var amounts []float64

	for _, m := range currencyAmount.FindAllStringSubmatch(normalized, -1) {
		if v, ok := parseAmount(m[1]); ok {
			amounts = append(amounts, v)
		}
	}
	for _, m := range unitAmount.FindAllStringSubmatch(normalized, -1) {
		v, ok := parseAmount(m[1])
		if !ok {
			continue
		}
		switch m[2] {
		case "mil":
			v *= 1_000
		case "millon", "millones":
			v *= 1_000_000
		}
		amounts = append(amounts, v)
	}

	return amounts
}

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimRight(s, ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// extractEntities combines the known-name table with an uppercase
// ticker heuristic, deduplicated in order of appearance.
func extractEntities(message, normalized string) []string {
	seen := make(map[string]bool)
	var entities []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			entities = append(entities, name)
		}
	}

	for _, e := range knownEntities {
		if strings.Contains(normalized, e.cue) {
			add(e.name)
		}
	}
	for _, sym := range ticker.FindAllString(message, -1) {
		if !tickerStoplist[sym] {
			add(sym)
		}
	}

	return entities
}

// isFollowUp reports whether the message reads as a continuation of the
// previous turn: it only applies when history exists, and triggers on
// short continuation openers ("y ...", "pero ...", "sí, ...") or a very
// short message overall.
func (a *Analyzer) isFollowUp(normalized string, historyLen int) bool {
	if historyLen == 0 {
		return false
	}
	trimmed := strings.TrimSpace(normalized)
	if trimmed == "" {
		return false
	}
	if len(strings.Fields(trimmed)) <= 3 {
		return true
	}
	for _, c := range a.rules.continuations {
		if strings.HasPrefix(trimmed, c) {
			return true
		}
	}
	return false
}
