package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/finsearch/finsearch/internal/llm"
	"github.com/finsearch/finsearch/internal/providers"
	"github.com/finsearch/finsearch/internal/session"
)

const synthesisSystemPrompt = `You are a specialized financial assistant that provides accurate information about stocks, financial markets, and company data. Use the provided financial data to give informative, concise, and accurate responses. If you don't have the data to answer a question, say so clearly. When providing financial analysis, include relevant metrics and comparisons when available.

You have access to the following data sources:
1. Perplexity Sonar - For real-time news and market insights
2. Perplexity Deep Research - For in-depth financial analysis
3. Polygon.io - For stock prices, charts, and technical data
4. FinancialDatasets.ai - For company filings, insider trades, and SEC filings

Format your response in a clear, structured way. Use markdown formatting for better readability. Include relevant numbers, percentages, and dates when available. Always cite your sources at the end of your response.

Be conversational and suggest relevant follow-up questions based on the data.`

const (
	synthesisTemperature = 0.5
	synthesisMaxTokens   = 2000
)

// display caps used when rendering collected data into the synthesis prompt
const (
	narrativeNewsLimit        = 3
	narrativeNewsDescChars    = 150
	narrativeStatementPeriods = 2
	narrativeFilingsLimit     = 3
	narrativeTradesLimit      = 5
)

// ExtractSources collects citations from search answers and news results.
// Perplexity sources come first (context documents, then citation URLs not
// already present), followed by up to three news articles per ticker.
func ExtractSources(results []TaskResult) []Source {
	var sources []Source
	seen := map[string]bool{}

	for _, res := range results {
		if res.Err != nil || res.Answer == nil {
			continue
		}
		if res.Kind != TaskSonar && res.Kind != TaskDeepResearch {
			continue
		}
		for _, doc := range res.Answer.Documents {
			title := doc.Title
			if title == "" {
				title = doc.URL
			}
			if title == "" {
				title = "Unknown Source"
			}
			sources = append(sources, Source{Title: title, URL: doc.URL})
			seen[doc.URL] = true
		}
		for _, cit := range res.Answer.Citations {
			if seen[cit] {
				continue
			}
			sources = append(sources, Source{Title: cit, URL: cit})
			seen[cit] = true
		}
	}

	for _, res := range results {
		if res.Err != nil || res.Kind != TaskNews {
			continue
		}
		news := res.News
		if len(news) > narrativeNewsLimit {
			news = news[:narrativeNewsLimit]
		}
		for _, a := range news {
			title := a.Title
			if title == "" {
				title = "News Article"
			}
			sources = append(sources, Source{Title: title, URL: a.URL})
		}
	}
	return sources
}

// FormatNarrative renders all successful results into the markdown digest
// fed to the synthesis model. Sections are grouped by kind: search answers,
// prices, news, statements, filings, then insider trades.
func FormatNarrative(results []TaskResult) string {
	var b strings.Builder

	for _, res := range ok(results, TaskSonar, TaskDeepResearch) {
		if res.Answer == nil || res.Answer.Content == "" {
			continue
		}
		label := "Perplexity Sonar"
		if res.Kind == TaskDeepResearch {
			label = "Perplexity Deep Research"
		}
		fmt.Fprintf(&b, "## %s Results\n%s\n\n", label, res.Answer.Content)
		if len(res.Answer.Citations) > 0 {
			b.WriteString("### Sources:\n")
			for i, cit := range res.Answer.Citations {
				fmt.Fprintf(&b, "[%d] %s\n", i+1, cit)
			}
			b.WriteString("\n")
		}
	}

	for _, res := range ok(results, TaskPrice) {
		fmt.Fprintf(&b, "## %s Stock Price\n", res.Ticker)
		if q := res.Quote; q != nil {
			fmt.Fprintf(&b, "- Close Price: $%g\n", q.Close)
			fmt.Fprintf(&b, "- Open Price: $%g\n", q.Open)
			fmt.Fprintf(&b, "- High: $%g\n", q.High)
			fmt.Fprintf(&b, "- Low: $%g\n", q.Low)
			fmt.Fprintf(&b, "- Volume: %g\n\n", q.Volume)
		}
	}

	for _, res := range ok(results, TaskNews) {
		fmt.Fprintf(&b, "## %s Recent News\n", res.Ticker)
		news := res.News
		if len(news) > narrativeNewsLimit {
			news = news[:narrativeNewsLimit]
		}
		for _, a := range news {
			title := a.Title
			if title == "" {
				title = "No title"
			}
			fmt.Fprintf(&b, "- %s\n", title)
			fmt.Fprintf(&b, "  Published: %s\n", valueOr(a.PublishedAt, "N/A"))
			if a.Description != "" {
				fmt.Fprintf(&b, "  Summary: %s...\n\n", truncate(a.Description, narrativeNewsDescChars))
			}
		}
	}

	for _, res := range ok(results, TaskFinancials) {
		fmt.Fprintf(&b, "## %s Financial Statements\n", res.Ticker)
		if res.Statements == nil {
			fmt.Fprintf(&b, "No detailed financial data available for %s\n\n", res.Ticker)
			continue
		}
		writeStatements(&b, "Income Statements", res.Statements.Income, providers.IncomeMetrics())
		writeStatements(&b, "Balance Sheets", res.Statements.Balance, providers.BalanceMetrics())
		writeStatements(&b, "Cash Flow Statements", res.Statements.CashFlow, providers.CashFlowMetrics())
	}

	for _, res := range ok(results, TaskFilings) {
		fmt.Fprintf(&b, "## %s SEC Filings\n", res.Ticker)
		if len(res.Filings) == 0 {
			fmt.Fprintf(&b, "No SEC filings data available for %s\n\n", res.Ticker)
			continue
		}
		filings := res.Filings
		if len(filings) > narrativeFilingsLimit {
			filings = filings[:narrativeFilingsLimit]
		}
		for _, f := range filings {
			fmt.Fprintf(&b, "- Form %s: Filed on %s\n", valueOr(f.FormType, "N/A"), valueOr(f.FilingDate, "N/A"))
			if f.Description != "" {
				fmt.Fprintf(&b, "  Description: %s\n", f.Description)
			}
			if f.URL != "" {
				fmt.Fprintf(&b, "  URL: %s\n", f.URL)
			}
			b.WriteString("\n")
		}
	}

	for _, res := range ok(results, TaskInsider) {
		fmt.Fprintf(&b, "## %s Insider Trades\n", res.Ticker)
		if len(res.Trades) == 0 {
			fmt.Fprintf(&b, "No insider trade data available for %s\n\n", res.Ticker)
			continue
		}
		b.WriteString("Recent insider trading activity:\n\n")
		trades := res.Trades
		if len(trades) > narrativeTradesLimit {
			trades = trades[:narrativeTradesLimit]
		}
		for _, tr := range trades {
			fmt.Fprintf(&b, "- **%s**", valueOr(tr.Name, "Unknown"))
			if tr.Title != "" {
				fmt.Fprintf(&b, " (%s)", tr.Title)
			}
			fmt.Fprintf(&b, ": %s %g shares", tr.TransactionType, tr.Shares)
			if tr.Price != 0 {
				fmt.Fprintf(&b, " at $%g", tr.Price)
			}
			fmt.Fprintf(&b, " on %s\n", valueOr(tr.Date, "N/A"))
			if tr.SharesBefore != nil && tr.SharesAfter != nil {
				fmt.Fprintf(&b, "  Shares owned: %g -> %g\n", *tr.SharesBefore, *tr.SharesAfter)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeStatements(b *strings.Builder, heading string, statements []providers.Statement, metricOrder []string) {
	if len(statements) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n", heading)
	if len(statements) > narrativeStatementPeriods {
		statements = statements[:narrativeStatementPeriods]
	}
	for _, st := range statements {
		fmt.Fprintf(b, "**Fiscal Year %s**\n", valueOr(st.FiscalYear, "N/A"))
		for _, metric := range metricOrder {
			if v, present := st.Metrics[metric]; present {
				fmt.Fprintf(b, "- %s: $%g million\n", titleCase(metric), v)
			}
		}
		b.WriteString("\n")
	}
}

func ok(results []TaskResult, kinds ...TaskKind) []TaskResult {
	var out []TaskResult
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, k := range kinds {
			if res.Kind == k {
				out = append(out, res)
				break
			}
		}
	}
	return out
}

// truncate caps s at n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func titleCase(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Synthesizer turns collected provider data into the final answer.
type Synthesizer struct {
	llm llm.Client
}

func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{llm: client}
}

// Synthesize generates the final answer from the query, the recent
// conversation and the formatted provider data.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, history []session.Message, narrative string) (string, error) {
	messages := make([]llm.Message, 0, len(history)+3)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: synthesisSystemPrompt})
	for _, msg := range tail(history, plannerHistoryLimit) {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: "Here is the financial data related to your query:\n\n" + narrative,
	})
	return s.llm.Complete(ctx, messages, synthesisTemperature, synthesisMaxTokens)
}
