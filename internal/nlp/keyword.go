package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// keywordPatterns are checked per intent, in declaration order. First
// matching keyword wins.
var keywordPatterns = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGetSales, []string{
		"sales", "revenue", "turnover", "total sales", "show sales", "how much was sold",
	}},
	{IntentGetPopularItems, []string{
		"popular", "best selling", "best-selling", "best sellers", "top products", "most sold",
	}},
	{IntentGetStock, []string{
		"stock", "inventory", "available products", "on hand", "check stock",
	}},
	{IntentGetMetrics, []string{
		"metrics", "statistics", "summary", "dashboard", "indicators", "performance", "numbers",
	}},
	{IntentRegisterMovement, []string{
		"register", "movement", "new entry", "new exit", "inbound", "outbound", "record a",
	}},
}

// stemPatterns are broader prefixes tried when no keyword matched.
var stemPatterns = []struct {
	intent Intent
	stems  []string
}{
	{IntentGetSales, []string{"sale", "sell", "sold"}},
	{IntentGetPopularItems, []string{"popular", "top-sell"}},
	{IntentGetStock, []string{"stock", "invent", "product"}},
	{IntentGetMetrics, []string{"metric", "statist", "summar"}},
	{IntentRegisterMovement, []string{"regist", "movement", "moviment"}},
}

// KeywordClassifier is the deterministic fallback path: normalized
// substring matching against fixed per-intent keyword lists, then broader
// stem prefixes.
type KeywordClassifier struct {
	normalizer transform.Transformer
}

// NewKeywordClassifier creates the rule-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		// NFD decomposition followed by removal of combining marks strips
		// diacritics ("métricas" -> "metricas").
		normalizer: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// Classify matches the normalized query against the keyword tables.
func (c *KeywordClassifier) Classify(text string) Intent {
	q := c.normalize(text)

	for _, entry := range keywordPatterns {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.intent
			}
		}
	}

	for _, entry := range stemPatterns {
		for _, stem := range entry.stems {
			if strings.Contains(q, stem) {
				return entry.intent
			}
		}
	}

	return IntentUnknown
}

// normalize lowercases the text and strips diacritics.
func (c *KeywordClassifier) normalize(text string) string {
	lowered := strings.ToLower(text)
	stripped, _, err := transform.String(c.normalizer, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}
