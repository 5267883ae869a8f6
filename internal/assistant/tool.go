package assistant

import (
	"context"
	"encoding/json"
)

// Tool is a function the language model may call during a turn. Parameters
// is a JSON Schema describing the arguments the model should produce.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, args json.RawMessage) (string, error)
}
