// internal/workers/billing-analyst/synthesize-query/prompt.go
package synthesizequery

import (
	"fmt"
	"strings"
	"time"

	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
)

// DateLayout renders the current date the way the prompts show it.
const DateLayout = "Mon Jan 02 2006"

type example struct {
	question string
	query    string
}

func examples(r models.SerialRanges) []example {
	thisYear := fmt.Sprintf("%s WHERE c['Resource End Date'] >= %d AND c['Resource End Date'] <= %d",
		querylang.PassThroughText, r.CurrentYearStart, r.CurrentYearEnd)
	lastYear := fmt.Sprintf("%s WHERE c['Resource End Date'] >= %d AND c['Resource End Date'] <= %d",
		querylang.PassThroughText, r.LastYearStart, r.LastYearEnd)

	return []example{
		{"Who is Saiteja?", "SELECT * FROM c WHERE CONTAINS(LOWER(c.Name), 'saiteja')"},
		{"Which team has most employees?", querylang.PassThroughText},
		{"List employees below minimum billing rate", querylang.PassThroughText},
		{"Employees ending this year who are making profit", thisYear},
		{"Show profit for last year", lastYear},
		{"Show me upsell opportunities in Team Beta", "SELECT * FROM c WHERE CONTAINS(LOWER(c['Team Name']), 'beta')"},
		{"Calculate total ARR for 3P employees", "SELECT * FROM c WHERE c['SOW Level'] = '3P' OR c['Billed Level'] = '3P'"},
		{"Show me all 3P employees billed as 2P", "SELECT * FROM c WHERE c['SOW Level'] = '3P' AND c['Billed Level'] = '2P'"},
		{"Which employees have attrition risk?", "SELECT * FROM c WHERE CONTAINS(LOWER(c['Possible Attrition']), 'yes')"},
	}
}

// BuildPrompt returns the system instruction for query synthesis at now.
func BuildPrompt(now time.Time) string {
	r := models.RangesFor(now)
	var b strings.Builder

	b.WriteString("You are a Cosmos DB SQL query generator for a workforce billing system.\n\n")
	fmt.Fprintf(&b, "CURRENT DATE: %s\n", now.Format(DateLayout))
	fmt.Fprintf(&b, "Current Year: %d (Excel Serial Range: %d - %d)\n", r.CurrentYear, r.CurrentYearStart, r.CurrentYearEnd)
	fmt.Fprintf(&b, "Last Year: %d (Excel Serial Range: %d - %d)\n\n", r.LastYear, r.LastYearStart, r.LastYearEnd)

	b.WriteString("DATABASE SCHEMA (WFL Data):\n")
	for _, f := range models.QueryFields() {
		hint := f.QueryHint
		if hint == "" {
			hint = f.Description
		}
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, hint)
	}

	b.WriteString("\nDECISION LOGIC FOR HYBRID QUERIES:\n\n")
	b.WriteString("1. **STATIC FIELDS (Filter in SQL):**\n")
	b.WriteString("   - If the query includes conditions on: Name, Team, Level, Date, Status, Attrition.\n")
	b.WriteString("   - **ACTION:** Include these in the SQL WHERE clause.\n")
	b.WriteString("   - **Time Queries:**\n")
	fmt.Fprintf(&b, "     - \"This year\" -> c['Resource End Date'] >= %d AND c['Resource End Date'] <= %d\n", r.CurrentYearStart, r.CurrentYearEnd)
	fmt.Fprintf(&b, "     - \"Last year\" -> c['Resource End Date'] >= %d AND c['Resource End Date'] <= %d\n\n", r.LastYearStart, r.LastYearEnd)

	b.WriteString("2. **CALCULATED FIELDS & AGGREGATIONS (Ignore in SQL):**\n")
	b.WriteString("   - If the query includes:\n")
	fmt.Fprintf(&b, "     - %s.\n", quoteTerms(models.ConceptCalculation))
	fmt.Fprintf(&b, "     - %s.\n", quoteTerms(models.ConceptThreshold))
	fmt.Fprintf(&b, "     - **Aggregations:** %s.\n", quoteTerms(models.ConceptAggregation))
	b.WriteString("   - **ACTION:** Do NOT attempt to filter, group, or sort these in SQL.\n")
	fmt.Fprintf(&b, "   - **CRITICAL:** Return exactly: %s\n", querylang.PassThroughText)
	b.WriteString("   - (The intelligent system will handle all calculations, counting, and grouping).\n\n")

	b.WriteString("3. **MIXED QUERIES (The Golden Rule):**\n")
	b.WriteString("   - If user asks: \"Profit this year\"\n")
	b.WriteString("   - **SQL:** Filter ONLY by Date. Ignore \"Profit\".\n")
	fmt.Fprintf(&b, "   - Query: %s WHERE c['Resource End Date'] >= %d AND c['Resource End Date'] <= %d\n\n",
		querylang.PassThroughText, r.CurrentYearStart, r.CurrentYearEnd)

	b.WriteString("EXAMPLES:\n\n")
	for _, ex := range examples(r) {
		fmt.Fprintf(&b, "User: %q\nQuery: %s\n\n", ex.question, ex.query)
	}

	b.WriteString("NOW GENERATE THE QUERY FOR THIS USER QUESTION. RETURN ONLY THE SQL QUERY:")
	return b.String()
}

// Examples returns the worked question/query pairs embedded in the prompt.
func Examples(now time.Time) map[string]string {
	out := make(map[string]string)
	for _, ex := range examples(models.RangesFor(now)) {
		out[ex.question] = ex.query
	}
	return out
}

func quoteTerms(kind models.ConceptKind) string {
	terms := models.DerivedTerms(kind)
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}
