package terminal

import (
	"encoding/json"
	"fmt"
	"math"
)

// Params are decoded from JSON, so numbers usually arrive as float64.

func stringParam(params map[string]interface{}, key string) (string, bool) {
	s, ok := params[key].(string)
	return s, ok
}

func requireString(params map[string]interface{}, key string) (string, error) {
	s, ok := stringParam(params, key)
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return s, nil
}

func intParam(params map[string]interface{}, key string) (int, bool, error) {
	raw, present := params[key]
	if !present || raw == nil {
		return 0, false, nil
	}

	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%w: %s must be an integer", ErrInvalidParams, key)
		}
		return int(v), true, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: %s must be an integer", ErrInvalidParams, key)
		}
		return int(n), true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s must be a number", ErrInvalidParams, key)
	}
}

func requireInt(params map[string]interface{}, key string) (int, error) {
	n, ok, err := intParam(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidParams, key)
	}
	return n, nil
}

func stringMapParam(params map[string]interface{}, key string) (map[string]string, error) {
	raw, present := params[key]
	if !present || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, val := range v {
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s must be a string", ErrInvalidParams, key, k)
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidParams, key)
	}
}
