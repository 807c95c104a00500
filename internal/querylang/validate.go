package querylang

import (
	"regexp"
	"strings"
)

// RejectReason classifies why a synthesized query was replaced.
type RejectReason string

const (
	ReasonNone          RejectReason = ""
	ReasonEmpty         RejectReason = "empty"
	ReasonNotSelect     RejectReason = "not_select"
	ReasonBannedKeyword RejectReason = "banned_keyword"
	ReasonParse         RejectReason = "parse"
	// ReasonSynthesis means the model produced no query at all. Validate
	// never returns it; callers that absorb a failed model call do.
	ReasonSynthesis RejectReason = "synthesis_error"
)

// Banned constructs are aggregation and multi-collection clauses left to the
// answer model. They are matched on the token stream, so text inside string
// literals and member names after a dot never trigger them.
var (
	bannedClauses    = map[string]bool{"GROUP": true, "ORDER": true}
	bannedAggregates = map[string]bool{"COUNT": true, "SUM": true, "MIN": true, "MAX": true, "AVG": true}
)

// Verdict is the outcome of validating a synthesized query. Query is always
// executable: the accepted query or the pass-through query.
type Verdict struct {
	Query    Query
	Rejected bool
	Reason   RejectReason
	Detail   string
}

var codeFence = regexp.MustCompile("```(?i:sql)?\\n?")

// StripFences removes markdown code-fence decoration and surrounding space.
func StripFences(raw string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
}

// Validate turns model output into an executable query. Each check that
// fails short-circuits to the pass-through query. Validating the text of an
// accepted query returns the same query.
func Validate(raw string) Verdict {
	text := StripFences(raw)
	if text == "" {
		return reject(ReasonEmpty, "no query text")
	}

	upper := strings.ToUpper(text)
	if !strings.HasPrefix(upper, "SELECT") {
		return reject(ReasonNotSelect, "query does not start with SELECT")
	}
	toks, err := lex(text)
	if err != nil {
		return reject(ReasonParse, err.Error())
	}
	if kw, ok := bannedKeyword(toks); ok {
		return reject(ReasonBannedKeyword, kw)
	}

	q, err := parseTokens(text, toks)
	if err != nil {
		return reject(ReasonParse, err.Error())
	}
	return Verdict{Query: q}
}

// bannedKeyword returns the first banned construct in toks: GROUP BY,
// ORDER BY, JOIN, or an aggregate name called like a function.
func bannedKeyword(toks []token) (string, bool) {
	for i, t := range toks {
		if t.kind != tokIdent || (i > 0 && toks[i-1].kind == tokDot) {
			continue
		}
		word := strings.ToUpper(t.text)
		next := toks[i+1]
		switch {
		case word == "JOIN":
			return word, true
		case bannedClauses[word] && next.is("BY"):
			return word + " BY", true
		case bannedAggregates[word] && next.kind == tokLParen:
			return word + "(", true
		}
	}
	return "", false
}

func reject(reason RejectReason, detail string) Verdict {
	return Verdict{
		Query:    PassThrough(),
		Rejected: true,
		Reason:   reason,
		Detail:   detail,
	}
}
