// Package agent implements the query pipeline: classify and extract in
// tandem, dispatch the merged parameters against the inventory backend,
// and compose a natural-language reply from the structured result.
//
// Every path through Process, success or failure, yields exactly one
// Reply with an action tag; no fault propagates to the caller.
package agent

import (
	"context"
	"time"

	"github.com/stockchat/stockchat/internal/inventory"
	"github.com/stockchat/stockchat/internal/log"
	"github.com/stockchat/stockchat/internal/nlp"
)

// Action tags for outcomes that executed no operation branch.
const (
	ActionError       = "error"
	ActionUnknown     = "unknown"
	ActionUnsupported = "unsupported"
)

// Deterministic user-facing messages for locally resolved outcomes.
const (
	unknownMessage = "Sorry, I could not understand what you want. Please try rephrasing your request."

	unsupportedMessage = "Sorry, that operation is not supported at the moment."

	missingMovementInfoMessage = "Some information needed to register the stock movement is missing. " +
		"Please provide the product ID, the quantity and the movement type (in or out)."

	insufficientStockMessage = "The movement was rejected: there is not enough stock for that outbound quantity."

	upstreamFailureMessage = "Something went wrong while talking to the inventory system. Please try again later."
)

// Model is the generative backend used for classification and composition.
// Satisfied by *ollama.Client.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	NotFoundMessage() string
}

// Inventory is the backend collaborator contract consumed by the
// dispatcher. Satisfied by *inventory.Client.
type Inventory interface {
	GetSales(ctx context.Context, filter inventory.SalesFilter) (*inventory.SalesSummary, error)
	GetCurrentStock(ctx context.Context) ([]inventory.StockLevel, error)
	GetProductStock(ctx context.Context, productID int) (*inventory.StockLevel, error)
	GetMetricsSummary(ctx context.Context, filter inventory.MetricsFilter) (inventory.MetricsSummary, error)
	GetProductByID(ctx context.Context, id int) (*inventory.Product, error)
	GetPopularProducts(ctx context.Context, limit int) ([]inventory.Product, error)
	CreateStockMovement(ctx context.Context, input inventory.MovementInput) (*inventory.Movement, error)
}

// classifier resolves a query to an intent plus model-derived parameters.
// It never fails; the hybrid absorbs primary-path errors.
type classifier interface {
	Classify(ctx context.Context, text string) (nlp.Intent, nlp.ParameterSet)
}

// Reply is the caller-facing outcome of one query.
type Reply struct {
	Response string `json:"response"`
	Action   string `json:"action"`
	Data     any    `json:"data,omitempty"`
}

// Agent wires the pipeline together. Agents hold no per-query state and
// are safe for concurrent use.
type Agent struct {
	classifier classifier
	extractor  *nlp.Extractor
	dispatcher *Dispatcher
	composer   *Composer
	logger     log.Logger
}

// Options tunes agent construction. The zero value is production behavior.
type Options struct {
	// Now overrides the clock used for period resolution. Nil means the
	// local wall clock.
	Now func() time.Time
}

// New creates an agent around the given model and inventory backends.
func New(model Model, inv Inventory, logger log.Logger) *Agent {
	return NewWithOptions(model, inv, logger, Options{})
}

// NewWithOptions creates an agent with explicit options.
func NewWithOptions(model Model, inv Inventory, logger log.Logger, opts Options) *Agent {
	return &Agent{
		classifier: nlp.NewHybrid(model, logger),
		extractor:  nlp.NewExtractor(nlp.NewPeriodResolver(opts.Now)),
		dispatcher: NewDispatcher(inv, logger),
		composer:   NewComposer(model, logger),
		logger:     logger,
	}
}

// Process runs one query end to end and always returns a reply.
func (a *Agent) Process(ctx context.Context, query string) Reply {
	intent, modelParams := a.classifier.Classify(ctx, query)

	// The rule-based extractor always runs; on conflict its values win.
	ruleParams := a.extractor.Extract(query)
	params := nlp.Merge(modelParams, ruleParams)

	a.logger.Info("query interpreted", "intent", intent,
		"has_period", params.Period != nil,
		"has_product", params.ProductID != nil)

	if intent == nlp.IntentUnknown {
		return Reply{Response: unknownMessage, Action: ActionUnknown}
	}

	result := a.dispatcher.Dispatch(ctx, intent, params)
	switch {
	case result.MissingInput:
		return Reply{Response: missingMovementInfoMessage, Action: ActionError}
	case result.Unsupported:
		return Reply{Response: unsupportedMessage, Action: ActionUnsupported}
	case result.Err != nil:
		return Reply{Response: result.Message, Action: ActionError}
	}

	response, degraded := a.composer.Compose(ctx, query, result.Data)
	if degraded {
		// The model-unavailable diagnostic is surfaced verbatim and tagged
		// as an error so callers can branch on it.
		return Reply{Response: response, Action: ActionError}
	}

	return Reply{Response: response, Action: string(intent), Data: result.Data}
}
