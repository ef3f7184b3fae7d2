package nlp

import (
	"regexp"
	"strconv"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// Period is a calendar-date range in YYYY-MM-DD form. EndDate may be empty
// when only a start date was mentioned.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
}

// ParameterSet holds the slots extracted from a query. Fields are mutually
// independent: absence of one never blocks extraction of another.
type ParameterSet struct {
	Period       *Period      `json:"period,omitempty"`
	ProductID    *int         `json:"product_id,omitempty"`
	Category     string       `json:"category,omitempty"`
	MovementType MovementType `json:"movement_type,omitempty"`
	Quantity     *int         `json:"quantity,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// Merge combines model-derived and rule-derived parameter sets. Whenever
// both provide the same slot, the rule-derived value wins: the regex path
// is more reliable than model output for structured data.
func Merge(model, rules ParameterSet) ParameterSet {
	merged := model
	if rules.Period != nil {
		merged.Period = rules.Period
	}
	if rules.ProductID != nil {
		merged.ProductID = rules.ProductID
	}
	if rules.Category != "" {
		merged.Category = rules.Category
	}
	if rules.MovementType != "" {
		merged.MovementType = rules.MovementType
	}
	if rules.Quantity != nil {
		merged.Quantity = rules.Quantity
	}
	if rules.Notes != "" {
		merged.Notes = rules.Notes
	}
	return merged
}

var (
	productIDPattern = regexp.MustCompile(`(?i)\bproduct\s+(?:id\s+)?(\d+)|\bid\s+(\d+)|\bitem\s+(\d+)`)
	categoryPattern  = regexp.MustCompile(`(?i)\bcategory\s+([a-zA-Z]+)|\bcategories\s+([a-zA-Z]+)|\btype\s+([a-zA-Z]+)`)
	quantityPattern  = regexp.MustCompile(`(?i)(\d+)\s+units?\b|\bquantity\s+(\d+)|(\d+)\s+items?\b|(\d+)\s+products?\b`)

	// Direction keyword classes. The in-class is checked before the
	// out-class; when a query mentions both directions the in-check wins
	// (see movementRules).
	inPattern  = regexp.MustCompile(`(?i)\b(?:inbound|incoming|entry|entries|received|restock(?:ing)?|add(?:ing|ed)?|in)\b`)
	outPattern = regexp.MustCompile(`(?i)\b(?:outbound|outgoing|exit|dispatch(?:ed)?|ship(?:ped)?|sold|sale|remove[d]?|withdraw(?:al|n)?|out)\b`)
)

// movementRules is the ordered direction rule list. Keeping the order in
// one place makes the in-before-out tie-break explicit: a query containing
// keywords from both classes resolves to MovementIn.
var movementRules = []struct {
	pattern *regexp.Regexp
	result  MovementType
}{
	{inPattern, MovementIn},
	{outPattern, MovementOut},
}

// Extractor performs deterministic, rule-based slot filling. It always
// runs, regardless of which classifier path resolved the intent, and it
// never fails: unmatched slots are simply absent from the result.
type Extractor struct {
	periods *PeriodResolver
}

// NewExtractor creates an extractor using the given period resolver.
func NewExtractor(periods *PeriodResolver) *Extractor {
	return &Extractor{periods: periods}
}

// Extract pulls every recognizable slot out of the text. The rules are
// independent of each other and the extraction is idempotent.
func (e *Extractor) Extract(text string) ParameterSet {
	var ps ParameterSet

	ps.Period = e.periods.Resolve(text)

	if n, ok := firstNumericCapture(productIDPattern, text); ok {
		ps.ProductID = &n
	}

	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		for _, group := range m[1:] {
			if group != "" {
				ps.Category = group
				break
			}
		}
	}

	for _, rule := range movementRules {
		if rule.pattern.MatchString(text) {
			ps.MovementType = rule.result
			break
		}
	}

	if n, ok := firstNumericCapture(quantityPattern, text); ok {
		ps.Quantity = &n
	}

	return ps
}

// firstNumericCapture returns the first non-empty capture group of the
// pattern's first match, parsed as an integer.
func firstNumericCapture(pattern *regexp.Regexp, text string) (int, bool) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	for _, group := range m[1:] {
		if group == "" {
			continue
		}
		n, err := strconv.Atoi(group)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}
