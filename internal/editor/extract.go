package editor

import (
	"gopkg.in/yaml.v3"
)

// PartialState carries the scalar parameters the controller recognizes
// inside a hand-edited document and pushes back into bound form widgets.
// A nil field means the parameter was absent or not textually well-formed.
type PartialState struct {
	Protocol     *string
	NumDesigns   *int
	Budget       *int
	FoldingModel *string
}

// Extract scans document text for the recognized scalar parameters. It is
// pure and side-effect-free so the debounced scheduler may fire it any
// number of times; malformed text yields an empty state.
func Extract(text string) PartialState {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return PartialState{}
	}

	var state PartialState
	if template, ok := doc["template_config"].(map[string]interface{}); ok {
		state.Protocol = stringParam(template, "protocol")
		state.NumDesigns = intParam(template, "num_designs")
		state.Budget = intParam(template, "budget")
	}
	if evaluation, ok := doc["evaluation_config"].(map[string]interface{}); ok {
		state.FoldingModel = stringParam(evaluation, "folding_model")
	}
	return state
}

func stringParam(section map[string]interface{}, name string) *string {
	if v, ok := section[name].(string); ok {
		return &v
	}
	return nil
}

func intParam(section map[string]interface{}, name string) *int {
	switch v := section[name].(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	}
	return nil
}
