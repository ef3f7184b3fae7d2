package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stockchat/stockchat/internal/log"
	"github.com/stockchat/stockchat/internal/ollama"
)

// composeFailureMessage is returned when the model call fails for any
// reason other than a missing model.
const composeFailureMessage = "Sorry, I could not put the answer into words right now. Please try again."

const composePromptTemplate = `You are an assistant for an inventory management system.
The user asked:

"%s"

And the system returned this result:

%s

Write a clear and concise reply in plain language explaining the result in a
friendly way. Do not mention JSON or any technical details about the data format.
For sales queries the result contains the following keys; mention ALL of them
in the reply:
- total_in: quantity of inbound units
- total_out: quantity of outbound units
- total_in_value: total value of inbound movements
- total_out_value: total value of outbound movements
Monetary values are integers in cents: divide them by 100 and format with two
decimal places (for example, 10000 becomes 100.00).
If the result is a stock movement, confirm what was registered.`

// minProsePrefix is the prose length below which a leading fragment is not
// considered a real answer when deciding whether to cut a trailing
// JSON-shaped tail.
const minProsePrefix = 20

var fencedBlockPattern = regexp.MustCompile("(?s)```.*?```")

// Composer renders a structured command result into prose via the model,
// then deterministically post-processes the raw output.
type Composer struct {
	model  Model
	logger log.Logger
}

// NewComposer creates a composer around the model client.
func NewComposer(model Model, logger log.Logger) *Composer {
	return &Composer{model: model, logger: logger}
}

// Compose turns the result into a user-facing string. The degraded return
// is true only for the model-not-found condition, whose diagnostic message
// must be surfaced verbatim and tagged as an error by the caller. Any
// other model failure is absorbed into a generic apology.
func (c *Composer) Compose(ctx context.Context, query string, result any) (text string, degraded bool) {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		c.logger.Error("encoding result for composition", "error", err)
		return composeFailureMessage, false
	}

	prompt := fmt.Sprintf(composePromptTemplate, query, encoded)

	out, err := c.model.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ollama.ErrModelNotFound) {
			return c.model.NotFoundMessage(), true
		}
		c.logger.Error("composing reply failed", "error", err)
		return composeFailureMessage, false
	}

	return sanitize(out), false
}

// sanitize cleans raw model output: fenced code blocks are dropped, and a
// JSON-shaped tail following a long enough prose prefix is treated as
// hallucinated trailing structure and cut off.
func sanitize(raw string) string {
	clean := fencedBlockPattern.ReplaceAllString(raw, "")

	jsonStart := strings.Index(clean, "{")
	jsonEnd := strings.LastIndex(clean, "}")
	if jsonStart != -1 && jsonEnd > jsonStart {
		before := strings.TrimSpace(clean[:jsonStart])
		if len(before) > minProsePrefix {
			clean = before
		}
	}

	return strings.TrimSpace(clean)
}
