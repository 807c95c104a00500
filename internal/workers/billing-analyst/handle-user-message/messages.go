// internal/workers/billing-analyst/handle-user-message/messages.go
package handleusermessage

const (
	NoDataMessage  = "I couldn't find any data in the system. Please check if the database is empty."
	ApologyMessage = "Sorry, I encountered an error processing your request. Please try again."
)

const greeting = `Hello! 👋 I'm your Intelligent Employee & Billing Analyst.

I can help you with:
• Employee billing information
• Profit/loss analysis (individual or organization-wide)
• Skill-based queries
• Performance metrics
• Financial summaries

Try asking me:
- "What's the billing for Employee 5?"
- "Show me all employees with negative profit"
- "Calculate total profit for the organization"
- "Which Java developers are below minimum billable?"`

// Greeting is sent when a user joins a conversation.
func Greeting() string {
	return greeting
}
