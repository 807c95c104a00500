package models

import "strings"

// Level is a seniority band. The zero value is an unknown level.
type Level int

const (
	LevelUnknown Level = iota
	Level1P
	Level2P
	Level3P
)

var levelNames = map[Level]string{
	Level1P: "1P",
	Level2P: "2P",
	Level3P: "3P",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "unknown"
}

// ParseLevel accepts "1P", "2p", " 3P " and similar.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "1P":
		return Level1P
	case "2P":
		return Level2P
	case "3P":
		return Level3P
	default:
		return LevelUnknown
	}
}

// CompareLevels orders two level strings along 1P < 2P < 3P. ok is false
// when either side is not a known level.
func CompareLevels(a, b string) (cmp int, ok bool) {
	la, lb := ParseLevel(a), ParseLevel(b)
	if la == LevelUnknown || lb == LevelUnknown {
		return 0, false
	}
	switch {
	case la < lb:
		return -1, true
	case la > lb:
		return 1, true
	default:
		return 0, true
	}
}

// Benchmark is the minimum billable amount for a level.
type Benchmark struct {
	Level Level
	INR   float64
	USD   float64
}

// Benchmarks lists the per-level minimum billable amounts, junior first.
var Benchmarks = []Benchmark{
	{Level: Level1P, INR: 8000, USD: 100},
	{Level: Level2P, INR: 12800, USD: 160},
	{Level: Level3P, INR: 19200, USD: 240},
}

// BenchmarkFor returns the benchmark of a level string.
func BenchmarkFor(level string) (Benchmark, bool) {
	l := ParseLevel(level)
	for _, b := range Benchmarks {
		if b.Level == l {
			return b, true
		}
	}
	return Benchmark{}, false
}

// Mismatch classifies how an engagement's levels line up.
type Mismatch string

const (
	MismatchPerfect     Mismatch = "perfect-match"
	MismatchOverbilling Mismatch = "overbilling-opportunity"
	MismatchUnderbilled Mismatch = "underbilling-loss"
	MismatchPerception  Mismatch = "client-perception"
	MismatchNone        Mismatch = ""
)

// MismatchRule is one entry of the level-mismatch taxonomy. Condition and
// Notes are the wording the answer model is given.
type MismatchRule struct {
	Kind      Mismatch
	Title     string
	Condition string
	Notes     []string
	matches   func(job, sow, billed, client string) bool
}

// MismatchTaxonomy lists the rules in precedence order: an underbilled
// engagement is also billed below its job level, so underbilling is tested
// before overbilling.
var MismatchTaxonomy = []MismatchRule{
	{
		Kind:      MismatchPerfect,
		Title:     "Perfect Match",
		Condition: "Job Level = SOW Level = Billed Level",
		Notes:     []string{"Optimal scenario, no issues"},
		matches: func(job, sow, billed, _ string) bool {
			return levelCmp(job, sow) == 0 && levelCmp(sow, billed) == 0
		},
	},
	{
		Kind:      MismatchUnderbilled,
		Title:     "Underbilling Loss",
		Condition: "SOW Level < Job Level AND Billed Level = SOW Level",
		Notes:     []string{"Example: Job 3P, SOW 2P, Billed 2P → Giving senior resource for junior billing"},
		matches: func(job, sow, billed, _ string) bool {
			return levelCmp(sow, job) == -1 && levelCmp(billed, sow) == 0
		},
	},
	{
		Kind:      MismatchOverbilling,
		Title:     "Overbilling Opportunity",
		Condition: "Job Level > Billed Level",
		Notes:     []string{"Example: Job Level 3P, Billed at 2P → Can upsell"},
		matches: func(job, _, billed, _ string) bool {
			return levelCmp(job, billed) == 1
		},
	},
	{
		Kind:      MismatchPerception,
		Title:     "Client Perception Mismatch",
		Condition: "Billed Level ≠ Client Assessed Level",
		Notes:     []string{"May indicate client dissatisfaction or opportunity"},
		matches: func(_, _, billed, client string) bool {
			c := levelCmp(billed, client)
			return c == -1 || c == 1
		},
	},
}

// levelCmp is CompareLevels with unknown levels reported as 2.
func levelCmp(a, b string) int {
	c, ok := CompareLevels(a, b)
	if !ok {
		return 2
	}
	return c
}

// ClassifyLevels returns the first taxonomy rule the record matches.
func ClassifyLevels(r Record) Mismatch {
	job, _ := r.String("Job Level")
	sow, _ := r.String("SOW Level")
	billed, _ := r.String("Billed Level")
	client, _ := r.String("Client Assessed Level")

	for _, rule := range MismatchTaxonomy {
		if rule.matches(job, sow, billed, client) {
			return rule.Kind
		}
	}
	return MismatchNone
}

// Profit is revenue minus the level's minimum billable benchmark, in the
// same currency as the benchmark column chosen.
func Profit(revenue float64, level string, usd bool) (float64, bool) {
	b, ok := BenchmarkFor(level)
	if !ok {
		return 0, false
	}
	if usd {
		return revenue - b.USD, true
	}
	return revenue - b.INR, true
}
