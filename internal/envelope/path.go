package envelope

import (
	"fmt"
	"strings"
)

const maxPathDepth = 20

// Lookup navigates a decoded JSON object with a dotted key path such as
// "error.message".
func Lookup(data any, path string) (any, error) {
	if path == "" {
		return data, nil
	}
	keys := strings.Split(path, ".")
	if len(keys) > maxPathDepth {
		return nil, fmt.Errorf("%w: path depth limit exceeded (max %d segments)", ErrInvalidValue, maxPathDepth)
	}

	current := data
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected object at %q, got %T", ErrMissingField, key, current)
		}
		v, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		current = v
	}
	return current, nil
}
