// internal/domain/homework/parser.go
package homework

import "fmt"

// ParseStatus converts one tracked item into the notification text.
// The name is read from "homework_name", falling back to "name".
func ParseStatus(item any, catalog Catalog) (string, error) {
	record, ok := item.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: expected an object, got %T", ErrMalformedItem, item)
	}

	name, err := stringField(record, "homework_name", "name")
	if err != nil {
		return "", err
	}

	statusRaw, hasStatus := record["status"]
	if hasStatus && statusRaw != nil && statusRaw != "" && name == "" {
		return "", fmt.Errorf("%w: status %v without a homework name", ErrMalformedItem, statusRaw)
	}

	status, ok := statusRaw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrVerdictLookup, statusRaw)
	}
	verdict, err := catalog.Verdict(status)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Изменился статус проверки работы \"%s\". %s", name, verdict), nil
}

// stringField returns the first present key among keys. A present non-string value is malformed.
func stringField(record map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		raw, ok := record[key]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("%w: %q is %T, expected a string", ErrMalformedItem, key, raw)
		}
		if s != "" {
			return s, nil
		}
	}
	return "", nil
}
