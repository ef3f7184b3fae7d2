package agent

import (
	"context"
	"errors"

	"github.com/stockchat/stockchat/internal/inventory"
	"github.com/stockchat/stockchat/internal/log"
	"github.com/stockchat/stockchat/internal/nlp"
)

// defaultMovementNotes annotates movements registered through the
// conversational interface.
const defaultMovementNotes = "Registered via stockchat assistant"

// popularItemsLimit bounds the popular-products listing.
const popularItemsLimit = 5

// Result is the structured outcome of dispatching one intent.
type Result struct {
	// Data is the collaborator payload, present on success.
	Data any

	// MissingInput marks a registration attempt lacking required slots.
	// No collaborator call was made.
	MissingInput bool

	// Unsupported marks an intent the dispatcher has no branch for.
	Unsupported bool

	// Err is the collaborator failure, with Message carrying the
	// user-facing rendition.
	Err     error
	Message string
}

// MovementRecord is the registration payload: the created movement
// enriched with the product record for presentation.
type MovementRecord struct {
	Movement *inventory.Movement `json:"movement"`
	Product  *inventory.Product  `json:"product,omitempty"`
}

// Dispatcher maps an intent plus merged parameters onto inventory
// collaborator calls. Read intents make exactly one call; registration
// makes up to two (create, then enrich).
type Dispatcher struct {
	inv    Inventory
	logger log.Logger
}

// NewDispatcher creates a dispatcher around the inventory collaborator.
func NewDispatcher(inv Inventory, logger log.Logger) *Dispatcher {
	return &Dispatcher{inv: inv, logger: logger}
}

// Dispatch executes the operation the intent names. It never panics or
// propagates a raw fault: collaborator errors come back inside the Result
// with a user-facing message attached.
func (d *Dispatcher) Dispatch(ctx context.Context, intent nlp.Intent, params nlp.ParameterSet) Result {
	switch intent {
	case nlp.IntentGetSales:
		return d.getSales(ctx, params)
	case nlp.IntentGetPopularItems:
		return d.getPopularItems(ctx)
	case nlp.IntentGetStock:
		return d.getStock(ctx, params)
	case nlp.IntentGetMetrics:
		return d.getMetrics(ctx, params)
	case nlp.IntentRegisterMovement:
		return d.registerMovement(ctx, params)
	default:
		return Result{Unsupported: true}
	}
}

func (d *Dispatcher) getSales(ctx context.Context, params nlp.ParameterSet) Result {
	filter := inventory.SalesFilter{Category: params.Category}
	if params.Period != nil {
		filter.StartDate = params.Period.StartDate
		filter.EndDate = params.Period.EndDate
	}
	if params.ProductID != nil {
		filter.ProductID = *params.ProductID
	}

	summary, err := d.inv.GetSales(ctx, filter)
	if err != nil {
		return d.failure("getSales", err)
	}
	return Result{Data: summary}
}

func (d *Dispatcher) getPopularItems(ctx context.Context) Result {
	products, err := d.inv.GetPopularProducts(ctx, popularItemsLimit)
	if err != nil {
		return d.failure("getPopularProducts", err)
	}
	return Result{Data: products}
}

func (d *Dispatcher) getStock(ctx context.Context, params nlp.ParameterSet) Result {
	if params.ProductID != nil {
		level, err := d.inv.GetProductStock(ctx, *params.ProductID)
		if err != nil {
			return d.failure("getProductStock", err)
		}
		return Result{Data: level}
	}

	levels, err := d.inv.GetCurrentStock(ctx)
	if err != nil {
		return d.failure("getCurrentStock", err)
	}
	return Result{Data: levels}
}

func (d *Dispatcher) getMetrics(ctx context.Context, params nlp.ParameterSet) Result {
	var filter inventory.MetricsFilter
	if params.Period != nil {
		filter.StartDate = params.Period.StartDate
		filter.EndDate = params.Period.EndDate
	}

	summary, err := d.inv.GetMetricsSummary(ctx, filter)
	if err != nil {
		return d.failure("getMetricsSummary", err)
	}
	return Result{Data: summary}
}

// registerMovement guards the required slots before touching the
// collaborator: productId, quantity and movementType must all be present.
// Sufficient-stock validation belongs to the backend; its structured
// rejection is forwarded, not re-checked here.
func (d *Dispatcher) registerMovement(ctx context.Context, params nlp.ParameterSet) Result {
	if params.ProductID == nil || params.Quantity == nil || params.MovementType == "" {
		return Result{MissingInput: true}
	}

	notes := params.Notes
	if notes == "" {
		notes = defaultMovementNotes
	}

	movement, err := d.inv.CreateStockMovement(ctx, inventory.MovementInput{
		ProductID:    *params.ProductID,
		Quantity:     *params.Quantity,
		MovementType: string(params.MovementType),
		Notes:        notes,
	})
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			d.logger.Warn("movement rejected by backend", "operation", "createStockMovement", "error", err)
			return Result{Err: err, Message: insufficientStockMessage}
		}
		return d.failure("createStockMovement", err)
	}

	record := &MovementRecord{Movement: movement}

	// Enrichment is best effort: the movement is already recorded, so a
	// failed product lookup only degrades the presentation.
	product, err := d.inv.GetProductByID(ctx, *params.ProductID)
	if err != nil {
		d.logger.Warn("product enrichment failed", "operation", "getProductById",
			"product_id", *params.ProductID, "error", err)
	} else {
		record.Product = product
	}

	return Result{Data: record}
}

// failure wraps a collaborator error with the generic user-facing message,
// correlated to the failing operation for logging.
func (d *Dispatcher) failure(operation string, err error) Result {
	d.logger.Error("inventory operation failed", "operation", operation, "error", err)
	return Result{Err: err, Message: upstreamFailureMessage}
}
