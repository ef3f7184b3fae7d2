// Package nlp turns free-form text into an intent and a set of extracted
// parameters.
//
// Classification is a two-variant strategy: ModelClassifier asks the
// generative model to label the query, KeywordClassifier matches normalized
// keywords and stems. Hybrid composes them, absorbing any primary-path
// failure into a fallback invocation.
//
// Parameter extraction (params.go, period.go) is deterministic and always
// runs regardless of which classifier path produced the intent.
package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockchat/stockchat/internal/log"
)

// Intent is one of the supported operations, or IntentUnknown.
// Values double as the action tags reported on replies.
type Intent string

const (
	IntentGetSales         Intent = "get_sales"
	IntentGetPopularItems  Intent = "get_popular_items"
	IntentGetStock         Intent = "get_stock"
	IntentGetMetrics       Intent = "get_metrics"
	IntentRegisterMovement Intent = "register_movement"
	IntentUnknown          Intent = "unknown"
)

// intentLabels maps the prompt-facing labels to intents, in scan order.
// The first label found as a substring of the model output wins.
var intentLabels = []struct {
	label  string
	intent Intent
}{
	{"GET_SALES", IntentGetSales},
	{"GET_POPULAR_ITEMS", IntentGetPopularItems},
	{"GET_STOCK", IntentGetStock},
	{"GET_METRICS", IntentGetMetrics},
	{"REGISTER_MOVEMENT", IntentRegisterMovement},
	{"UNKNOWN", IntentUnknown},
}

// intentAliases maps intent spellings the model may emit inside JSON
// output to intents.
var intentAliases = map[string]Intent{
	"get_sales":           IntentGetSales,
	"getsales":            IntentGetSales,
	"get_popular_items":   IntentGetPopularItems,
	"getpopularitems":     IntentGetPopularItems,
	"get_stock":           IntentGetStock,
	"getstock":            IntentGetStock,
	"get_metrics":         IntentGetMetrics,
	"getmetrics":          IntentGetMetrics,
	"register_movement":   IntentRegisterMovement,
	"registermovement":    IntentRegisterMovement,
	"createstockmovement": IntentRegisterMovement,
}

// Generator produces text from a prompt. Satisfied by *ollama.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier resolves a query to an intent plus any model-derived
// parameters. Implementations never partially fail: either they return a
// result or an error, and Hybrid guarantees the caller always gets a result.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, ParameterSet, error)
}

// Hybrid tries the model-backed classifier and falls back to keyword
// matching on any failure. It never returns an error.
type Hybrid struct {
	primary  Classifier
	fallback *KeywordClassifier
	logger   log.Logger
}

// NewHybrid builds the production classifier chain.
func NewHybrid(model Generator, logger log.Logger) *Hybrid {
	return &Hybrid{
		primary:  &ModelClassifier{model: model},
		fallback: NewKeywordClassifier(),
		logger:   logger,
	}
}

// Classify resolves the query's intent. A primary-path failure is absorbed:
// it is logged and the keyword fallback runs instead, so classification
// never propagates an error to the caller.
func (h *Hybrid) Classify(ctx context.Context, text string) (Intent, ParameterSet) {
	intent, params, err := h.primary.Classify(ctx, text)
	if err != nil {
		h.logger.Debug("model classification failed, using keyword fallback", "error", err)
		return h.fallback.Classify(text), ParameterSet{}
	}
	return intent, params
}

// ModelClassifier labels queries with the generative model.
type ModelClassifier struct {
	model Generator
}

// NewModelClassifier creates a model-backed classifier.
func NewModelClassifier(model Generator) *ModelClassifier {
	return &ModelClassifier{model: model}
}

const classifyPromptTemplate = `You are an assistant for an inventory management system.
Classify the following query into exactly one of these categories:
- GET_SALES (queries about sales data or revenue)
- GET_POPULAR_ITEMS (queries about popular or best-selling products)
- GET_STOCK (queries about inventory or product stock)
- GET_METRICS (queries about metrics, statistics or summaries)
- REGISTER_MOVEMENT (requests to register a stock movement)
- UNKNOWN (none of the above)

Query: "%s"

Answer with the category name. You may additionally include a JSON object
of the form {"intent": "<category>", "params": {...}} with any parameters
you can identify (product_id, quantity, movement_type, start_date,
end_date, category, notes).`

// Classify submits the labelling prompt and scans the output for an intent
// label. Output lacking any recognizable label degrades to IntentUnknown;
// only a failed model call is an error.
func (c *ModelClassifier) Classify(ctx context.Context, text string) (Intent, ParameterSet, error) {
	prompt := classifyPrompt(text)

	out, err := c.model.Generate(ctx, prompt)
	if err != nil {
		return IntentUnknown, ParameterSet{}, err
	}

	params := salvageParams(out)
	return scanIntent(out), params, nil
}

func classifyPrompt(text string) string {
	return fmt.Sprintf(classifyPromptTemplate, text)
}

// scanIntent finds the first known intent label appearing as a substring of
// the model output. No label means IntentUnknown.
func scanIntent(out string) Intent {
	upper := strings.ToUpper(out)
	for _, entry := range intentLabels {
		if strings.Contains(upper, entry.label) {
			return entry.intent
		}
	}
	// The model may have answered only inside a JSON object using an
	// aliased spelling.
	if obj := firstIntentObject(out); obj != nil {
		if intent, ok := intentAliases[strings.ToLower(obj.Intent)]; ok {
			return intent
		}
	}
	return IntentUnknown
}
