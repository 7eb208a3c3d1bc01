package toolserver

import "time"

func argString(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func mustArgString(args map[string]interface{}, key string) (string, error) {
	s, ok := argString(args, key)
	if !ok || s == "" {
		return "", &ValidationError{Reason: key + " is required"}
	}
	return s, nil
}

func argBool(args map[string]interface{}, key string) (*bool, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	b, ok := v.(bool)
	if !ok {
		return nil, false
	}
	return &b, true
}

func argStringSlice(args map[string]interface{}, key string) []string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argTime(args map[string]interface{}, key string) (*time.Time, error) {
	s, ok := argString(args, key)
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, &ValidationError{Reason: key + " must be an RFC3339 timestamp"}
	}
	return &t, nil
}

func argPresent(args map[string]interface{}, key string) bool {
	_, ok := args[key]
	return ok
}

func argMap(args map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
