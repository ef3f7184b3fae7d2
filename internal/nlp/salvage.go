package nlp

import (
	"encoding/json"
	"strings"
)

// intentObject is the JSON shape the model is invited to emit alongside its
// label answer.
type intentObject struct {
	Intent string       `json:"intent"`
	Params intentParams `json:"params"`
}

// intentParams carries model-derived slot values in the wire spelling used
// by the inventory collaborator.
type intentParams struct {
	ProductID    *int    `json:"product_id"`
	Quantity     *int    `json:"quantity"`
	MovementType string  `json:"movement_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Category     string  `json:"category"`
	Notes        string  `json:"notes"`
}

// firstIntentObject scans the output for JSON-shaped substrings and returns
// the first one carrying an "intent" field. Model output often wraps or
// trails such objects with prose; anything unparseable is skipped.
func firstIntentObject(out string) *intentObject {
	for _, candidate := range jsonCandidates(out) {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
			continue
		}
		if _, ok := probe["intent"]; !ok {
			continue
		}
		var obj intentObject
		if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
			continue
		}
		return &obj
	}
	return nil
}

// jsonCandidates returns every balanced top-level {...} substring of s, in
// order of appearance.
func jsonCandidates(s string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					out = append(out, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}

// salvageParams converts the first intent-shaped JSON object in the output
// into a ParameterSet. Output without such an object yields an empty set.
func salvageParams(out string) ParameterSet {
	obj := firstIntentObject(out)
	if obj == nil {
		return ParameterSet{}
	}

	var ps ParameterSet
	ps.ProductID = obj.Params.ProductID
	ps.Quantity = obj.Params.Quantity
	ps.Category = strings.TrimSpace(obj.Params.Category)
	ps.Notes = strings.TrimSpace(obj.Params.Notes)

	switch strings.ToLower(strings.TrimSpace(obj.Params.MovementType)) {
	case "in":
		ps.MovementType = MovementIn
	case "out":
		ps.MovementType = MovementOut
	}

	start := strings.TrimSpace(obj.Params.StartDate)
	end := strings.TrimSpace(obj.Params.EndDate)
	if start != "" || end != "" {
		ps.Period = &Period{StartDate: start, EndDate: end}
	}

	return ps
}
