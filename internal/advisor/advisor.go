// Package advisor asks a language model for savings advice based on a
// user's transaction history.
package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/dvloznov/pocket-pulse/internal/domain"
	"github.com/dvloznov/pocket-pulse/internal/finance"
)

// TopCategories is how many spending categories the prompt lists.
const TopCategories = 5

// NoAdvice is returned when the model produced no text.
const NoAdvice = "Unable to generate suggestions"

// Advisor turns a prompt into advice text.
type Advisor interface {
	Advise(ctx context.Context, prompt string) (string, error)
}

// contentGenerator is satisfied by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAdvisor calls a Gemini model through the genai SDK.
type GeminiAdvisor struct {
	models contentGenerator
	model  string
}

// NewGeminiAdvisor creates a client using the ambient Google credentials
// (GOOGLE_API_KEY or Vertex settings).
func NewGeminiAdvisor(ctx context.Context, model string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiAdvisor: create genai client: %w", err)
	}
	return &GeminiAdvisor{models: client.Models, model: model}, nil
}

// Advise implements Advisor.
func (a *GeminiAdvisor) Advise(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 500,
	}

	resp, err := a.models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Advise: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return NoAdvice, nil
	}
	return text, nil
}

// BuildPrompt summarizes income, expenses, savings rate and the largest
// spending categories over all of txs.
func BuildPrompt(txs []domain.Transaction) string {
	var income, expenses decimal.Decimal
	var spending []domain.Transaction
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			income = income.Add(tx.Amount)
		case domain.TypeExpense:
			expenses = expenses.Add(tx.Amount)
			spending = append(spending, tx)
		}
	}

	rate := finance.SavingsRate(income, expenses)

	cats := finance.CategoryBreakdown(spending)
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].Value.GreaterThan(cats[j].Value)
	})
	if len(cats) > TopCategories {
		cats = cats[:TopCategories]
	}
	top := make([]string, len(cats))
	for i, c := range cats {
		top[i] = fmt.Sprintf("%s: $%s", c.Name, c.Value.StringFixed(2))
	}

	var b strings.Builder
	b.WriteString("Analyze this financial data and provide personalized advice:\n")
	fmt.Fprintf(&b, "Total Income: $%s\n", income.StringFixed(2))
	fmt.Fprintf(&b, "Total Expenses: $%s\n", expenses.StringFixed(2))
	fmt.Fprintf(&b, "Savings Rate: %s%%\n", rate.StringFixed(2))
	fmt.Fprintf(&b, "Top Spending Categories: %s\n\n", strings.Join(top, ", "))
	b.WriteString("Provide 3 specific ways to reduce spending and improve savings rate.\n")
	return b.String()
}
