// internal/workers/billing-analyst/synthesize-answer/prompt.go
package synthesizeanswer

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"workforce-analyst/internal/models"
)

// DateLayout renders the current date the way the prompts show it.
const DateLayout = "Mon Jan 02 2006"

// serialAnchors are the January 1 serials quoted in the date instruction.
var serialAnchors = []int{2022, 2023, 2024, 2025, 2026}

// SystemPrompt returns the answer instruction for now.
func SystemPrompt(now time.Time) string {
	var b strings.Builder

	b.WriteString("You are an intelligent assistant for a Workforce & Billing Analysis system analyzing Statement of Work (SOW) data.\n\n")
	writeSchema(&b)
	writeBusinessLogic(&b)
	writeDateContext(&b, now)
	return b.String()
}

func writeSchema(b *strings.Builder) {
	fields := models.Schema()
	fmt.Fprintf(b, "DATABASE SCHEMA (%d fields):\n", len(fields))
	for _, group := range models.SchemaGroups() {
		fmt.Fprintf(b, "\n**%s:**\n", group)
		for _, f := range fields {
			if f.Group == group {
				fmt.Fprintf(b, "- %s: %s\n", f.Name, f.Description)
			}
		}
	}
}

func writeBusinessLogic(b *strings.Builder) {
	b.WriteString("\n**BUSINESS LOGIC - LEVEL MISMATCH ANALYSIS:**\n\n")
	for i, rule := range models.MismatchTaxonomy {
		fmt.Fprintf(b, "%d. **%s:**\n", i+1, rule.Title)
		fmt.Fprintf(b, "   - %s\n", rule.Condition)
		for _, note := range rule.Notes {
			fmt.Fprintf(b, "   - %s\n", note)
		}
		b.WriteString("\n")
	}
	b.WriteString(`**PROFIT/LOSS CALCULATIONS:**
- Revenue = ARR Value or Billing Rate × Hours
- Cost Benchmark (Minimum Billable):
`)
	for _, bm := range models.Benchmarks {
		fmt.Fprintf(b, "  - %s: ₹%s / $%s\n", bm.Level, thousands(bm.INR), thousands(bm.USD))
	}
	b.WriteString(`- Profit = Revenue - Cost Benchmark
- "Not making profit" = Revenue < Cost Benchmark OR Revenue Miss = "Yes"

**LEVEL HIERARCHY:**
1P < 2P < 3P (higher is more senior)

**YOUR TASKS:**
1. Understand complex SOW-related queries
2. Analyze across multiple dimensions (levels, teams, capabilities, dates)
3. Identify billing mismatches and opportunities
4. Calculate financial metrics (ARR, revenue, efficiency)
5. Provide actionable insights for resource optimization

**RESPONSE GUIDELINES:**
- Be concise and business-focused
- Use tables for multiple records
- Highlight revenue opportunities and risks
- Flag attrition risks and backup needs
- Include financial metrics when relevant
- Provide recommendations for optimization

**EXAMPLE QUERIES:**
- "Show employees with level mismatches" → Compare Job/SOW/Billed levels
- "Which SOWs expire soon?" → Check Valid Till dates
- "Calculate total ARR by team" → Sum ARR Value by Team Name
- "Find overbilling opportunities" → Job Level > Billed Level
- "Show attrition risks" → Filter Possible Attrition = Yes
- "Which employees need backups?" → Check Identified Backup status
- "Revenue miss analysis" → Filter Revenue Miss flags
- "Show me all 3P employees billed as 2P" → Level mismatch query
`)
}

func writeDateContext(b *strings.Builder, now time.Time) {
	r := models.RangesFor(now)

	fmt.Fprintf(b, "\nCURRENT DATE: %s (Year: %d)\n\n", now.Format(DateLayout), r.CurrentYear)
	b.WriteString("CRITICAL DATA FORMAT INSTRUCTION:\n")
	b.WriteString("- Dates (Resource start/end, Signed Date) are stored as EXCEL SERIAL NUMBERS (e.g., 45291.4375).\n")
	b.WriteString("- You MUST convert these to readable dates to answer questions.\n")
	b.WriteString("- Approximate conversion:\n")
	for _, year := range serialAnchors {
		start, _ := models.YearBounds(year)
		fmt.Fprintf(b, "  - %d = Jan 1, %d\n", start, year)
	}

	fmt.Fprintf(b, "\nWhen user asks \"ending this year (%d)\":\n", r.CurrentYear)
	fmt.Fprintf(b, "1. Look for 'Resource End Date' between approx %d and %d\n", r.CurrentYearStart, r.CurrentYearEnd)
	b.WriteString("2. Or simply convert the number to a date in your analysis.\n\n")

	b.WriteString("PROFIT CALCULATION UPDATE:\n")
	b.WriteString("- Revenue = 'Billing Rate' (if monthly) * 12 OR 'ARR Value'\n")
	b.WriteString("- Cost = Minimum Billable Amount (based on Level)\n")
	b.WriteString("- Profit = Revenue - Cost")
}

// UserMessage is the user turn of the answer call.
func UserMessage(question string, p models.Payload) string {
	return fmt.Sprintf("User Question: %s\n\nEmployee Data:\n%s", question, p.Render())
}

// thousands formats a whole amount with English digit grouping.
func thousands(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%d", int64(v))
}
