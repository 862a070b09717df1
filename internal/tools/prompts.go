package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments"`
	render      func(args map[string]string) (PromptResult, error)
}

type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

type PromptResult struct {
	Description string          `json:"description"`
	Messages    []PromptMessage `json:"messages"`
}

func userPrompt(description, text string) PromptResult {
	return PromptResult{
		Description: description,
		Messages:    []PromptMessage{{Role: "user", Content: Content{Type: "text", Text: text}}},
	}
}

func (r *Registry) registerPrompts() {
	r.prompts["financial-insights"] = Prompt{
		Name:        "financial-insights",
		Description: "Generate financial insights and advice",
		Arguments: []PromptArgument{
			{Name: "startDate", Description: "Start date in YYYY-MM-DD format"},
			{Name: "endDate", Description: "End date in YYYY-MM-DD format"},
		},
		render: r.financialInsights,
	}
	r.prompts["budget-review"] = Prompt{
		Name:        "budget-review",
		Description: "Review my budget and spending",
		Arguments: []PromptArgument{
			{Name: "months", Description: "Number of months to analyze"},
		},
		render: r.budgetReview,
	}
}

// Prompts lists the registered prompts by name.
func (r *Registry) Prompts() []Prompt {
	out := make([]Prompt, 0, len(r.prompts))
	for _, p := range r.prompts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetPrompt renders a prompt. Unlike tools, prompt failures are returned
// as errors.
func (r *Registry) GetPrompt(_ context.Context, name string, args map[string]string) (PromptResult, error) {
	p, ok := r.prompts[name]
	if !ok {
		return PromptResult{}, fmt.Errorf("%s: %w", name, ErrUnknownPrompt)
	}
	if args == nil {
		args = map[string]string{}
	}
	return p.render(args)
}

func (r *Registry) financialInsights(args map[string]string) (PromptResult, error) {
	period, err := r.dateRange(args["startDate"], args["endDate"])
	if err != nil {
		return PromptResult{}, err
	}
	text := fmt.Sprintf(`Please analyze my financial data and provide insights and recommendations. Focus on spending patterns, savings rate, and potential areas to optimize my budget. Analyze data from %s to %s.

You can use these tools to gather the data you need:
1. Use the spending-by-category tool to analyze my spending breakdown
2. Use the monthly-summary tool to get my income, expenses, and savings rate
3. Use the get-transactions tool to examine specific transactions if needed

Based on this analysis, please provide:
1. A summary of my financial situation
2. Key insights about my spending patterns
3. Areas where I might be overspending
4. Recommendations to improve my savings rate
5. Any other relevant financial advice
`, period.Start, period.End)
	return userPrompt(fmt.Sprintf("Financial insights and recommendations from %s to %s", period.Start, period.End), text), nil
}

func (r *Registry) budgetReview(args map[string]string) (PromptResult, error) {
	months := defaultRangeMonths
	if raw := args["months"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return PromptResult{}, invalidf("months must be a whole number")
		}
		if months, err = monthsArg(&n, defaultRangeMonths, maxSummaryMonths); err != nil {
			return PromptResult{}, err
		}
	}
	text := fmt.Sprintf(`Please review my budget and spending for the past %d months. I'd like to understand how well I'm sticking to my budget and where I might be able to make adjustments.

To gather this data:
1. Use the spending-by-category tool to see my spending breakdown
2. Use the monthly-summary tool to get my overall income and expenses
3. Use the get-transactions tool if you need to look at specific transactions

Please provide:
1. An analysis of my top spending categories
2. Whether my spending is consistent month-to-month
3. Areas where I might be able to reduce spending
4. Suggestions for realistic budget adjustments
`, months)
	return userPrompt(fmt.Sprintf("Budget review for the past %d months", months), text), nil
}
