// Package fastpath short-circuits simple single-ticker queries past the
// planner. A handful of regex shapes cover "price of X", "X news" and the
// like; anything else falls through to the full pipeline.
package fastpath

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/finsearch/finsearch/internal/providers"
)

// Kind classifies a matched fast-path query.
type Kind string

const (
	KindPrice      Kind = "price"
	KindNews       Kind = "news"
	KindFinancials Kind = "financials"
	KindInsider    Kind = "insider"
)

var pricePatterns = compile(
	`(?i)(?:what(?:'s| is) (?:the )?(?:current |latest )?(?:stock )?price (?:of |for )?)([A-Z]{1,5})`,
	`(?i)(?:how much (?:is |does )?)([A-Z]{1,5})(?: cost| trading for| worth)`,
	`(?i)([A-Z]{1,5}) (?:stock )?price`,
	`(?i)price (?:of |for )([A-Z]{1,5})`,
)

var newsPatterns = compile(
	`(?i)(?:what(?:'s| is) (?:the )?(?:latest |recent )?news (?:on |about |for )?)([A-Z]{1,5})`,
	`(?i)([A-Z]{1,5}) (?:latest |recent )?news`,
	`(?i)news (?:on |about |for )([A-Z]{1,5})`,
)

var financialsPatterns = compile(
	`(?i)(?:what (?:are|is) (?:the )?(?:latest |recent )?financials (?:of |for )?)([A-Z]{1,5})`,
	`(?i)([A-Z]{1,5}) (?:financials|financial statements|balance sheet|income statement)`,
	`(?i)financials (?:of |for )([A-Z]{1,5})`,
)

var insiderPatterns = compile(
	`(?i)(?:what (?:are|is) (?:the )?(?:latest |recent )?insider trades (?:of |for )?)([A-Z]{1,5})`,
	`(?i)([A-Z]{1,5}) (?:insider trades|insider activity)`,
	`(?i)insider trades (?:of |for )([A-Z]{1,5})`,
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Match reports whether the query fits a fast-path shape, and if so which
// kind and for which ticker.
func Match(query string) (Kind, string, bool) {
	query = strings.TrimSpace(query)
	if ticker, ok := match(pricePatterns, query); ok {
		return KindPrice, ticker, true
	}
	if ticker, ok := match(newsPatterns, query); ok {
		return KindNews, ticker, true
	}
	if ticker, ok := match(financialsPatterns, query); ok {
		return KindFinancials, ticker, true
	}
	if ticker, ok := match(insiderPatterns, query); ok {
		return KindInsider, ticker, true
	}
	return "", "", false
}

func match(patterns []*regexp.Regexp, query string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(query); m != nil {
			return strings.ToUpper(m[1]), true
		}
	}
	return "", false
}

// FormatPrice renders a markdown price summary for a previous-session quote.
func FormatPrice(ticker string, quote *providers.PriceQuote) string {
	if quote == nil {
		return fmt.Sprintf("Sorry, I couldn't find the current price for %s.", ticker)
	}
	change := quote.Change()
	direction := "down"
	if change > 0 {
		direction = "up"
	} else if change == 0 {
		direction = "unchanged"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Stock Price\n\n", ticker)
	fmt.Fprintf(&b, "The current price of %s is **$%.2f**, %s %.2f (%.2f%%) from the opening price.\n\n",
		ticker, quote.Close, direction, change, quote.ChangePercent())
	b.WriteString("**Today's Trading Range:**\n")
	fmt.Fprintf(&b, "- Open: $%.2f\n", quote.Open)
	fmt.Fprintf(&b, "- High: $%.2f\n", quote.High)
	fmt.Fprintf(&b, "- Low: $%.2f\n", quote.Low)
	fmt.Fprintf(&b, "- Volume: %.0f\n\n", quote.Volume)
	b.WriteString("*Data provided by Polygon.io*")
	return b.String()
}

// FormatNews renders a markdown digest of the top three articles.
func FormatNews(ticker string, articles []providers.NewsArticle) string {
	if len(articles) == 0 {
		return fmt.Sprintf("Sorry, I couldn't find any recent news for %s.", ticker)
	}
	if len(articles) > 3 {
		articles = articles[:3]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Latest News for %s\n\n", ticker)
	for _, a := range articles {
		title := a.Title
		if title == "" {
			title = "No title"
		}
		desc := a.Description
		if desc == "" {
			desc = "No description available."
		}
		desc = truncate(desc, 200)
		fmt.Fprintf(&b, "## %s\n", title)
		fmt.Fprintf(&b, "*Published: %s*\n\n", orNA(a.PublishedAt))
		fmt.Fprintf(&b, "%s...\n\n", desc)
		fmt.Fprintf(&b, "[Read more](%s)\n\n", orHash(a.URL))
	}
	b.WriteString("*Data provided by Polygon.io*")
	return b.String()
}

// FormatFinancials and FormatInsider point the user at the structured data
// already attached to the response rather than rendering it inline.
func FormatFinancials(ticker string) string {
	return fmt.Sprintf("Here are the financial statements for %s. This would typically include balance sheet, income statement, and cash flow data from FinancialDatasets.ai.", ticker)
}

func FormatInsider(ticker string) string {
	return fmt.Sprintf("Here are the recent insider trades for %s. This would typically include information about executives buying or selling shares from FinancialDatasets.ai.", ticker)
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

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orHash(s string) string {
	if s == "" {
		return "#"
	}
	return s
}
