package fastpath

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/finsearch/finsearch/internal/providers"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		query  string
		kind   Kind
		ticker string
	}{
		{"What is the price of AAPL", KindPrice, "AAPL"},
		{"what's the current stock price for TSLA", KindPrice, "TSLA"},
		{"NVDA stock price", KindPrice, "NVDA"},
		{"how much is MSFT worth", KindPrice, "MSFT"},
		{"AAPL news", KindNews, "AAPL"},
		{"what's the latest news on AMZN", KindNews, "AMZN"},
		{"TSLA financials", KindFinancials, "TSLA"},
		{"GOOG balance sheet", KindFinancials, "GOOG"},
		{"AAPL insider trades", KindInsider, "AAPL"},
		{"insider trades for META", KindInsider, "META"},
	}
	for _, tc := range cases {
		kind, ticker, ok := Match(tc.query)
		if !ok {
			t.Errorf("Match(%q) = no match", tc.query)
			continue
		}
		if kind != tc.kind || ticker != tc.ticker {
			t.Errorf("Match(%q) = (%s, %s), want (%s, %s)", tc.query, kind, ticker, tc.kind, tc.ticker)
		}
	}
}

func TestMatchRejectsComplexQueries(t *testing.T) {
	for _, q := range []string{
		"Compare the moats of Apple and Microsoft over the next decade",
		"Should I rebalance my portfolio given current rates?",
		"",
	} {
		if kind, ticker, ok := Match(q); ok {
			t.Errorf("Match(%q) = (%s, %s), want no match", q, kind, ticker)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	out := FormatPrice("AAPL", &providers.PriceQuote{
		Open: 145, High: 152, Low: 144, Close: 150, Volume: 1000000,
	})
	for _, want := range []string{
		"# AAPL Stock Price",
		"**$150.00**",
		"up 5.00 (3.45%)",
		"Open: $145.00",
		"Volume: 1000000",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPrice missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatPriceMissingQuote(t *testing.T) {
	out := FormatPrice("AAPL", nil)
	if !strings.Contains(out, "couldn't find the current price") {
		t.Errorf("unexpected fallback: %s", out)
	}
}

func TestFormatNewsLimitsToThree(t *testing.T) {
	articles := []providers.NewsArticle{
		{Title: "one", URL: "u1"},
		{Title: "two", URL: "u2"},
		{Title: "three", URL: "u3"},
		{Title: "four", URL: "u4"},
	}
	out := FormatNews("TSLA", articles)
	if strings.Contains(out, "four") {
		t.Error("FormatNews should render at most 3 articles")
	}
	if !strings.Contains(out, "# Latest News for TSLA") {
		t.Errorf("missing header: %s", out)
	}
}

func TestFormatNewsTruncatesDescriptions(t *testing.T) {
	long := strings.Repeat("x", 400)
	out := FormatNews("AAPL", []providers.NewsArticle{{Title: "t", Description: long}})
	if strings.Contains(out, strings.Repeat("x", 201)) {
		t.Error("description should be truncated to 200 chars")
	}
}

func TestFormatNewsTruncatesOnRuneBoundary(t *testing.T) {
	// 199 ASCII bytes followed by a 3-byte rune straddling the cut point.
	long := strings.Repeat("x", 199) + "€ and more"
	out := FormatNews("AAPL", []providers.NewsArticle{{Title: "t", Description: long}})
	if !utf8.ValidString(out) {
		t.Error("truncation must not split a multi-byte rune")
	}
	if strings.Contains(out, "€") {
		t.Error("rune straddling the limit should be dropped entirely")
	}
}
