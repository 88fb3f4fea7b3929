package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetData decodes the JSON document under key, returning def on a miss.
func GetData[T any](ctx context.Context, p Provider, key string, def T) (T, error) {
	raw, ok, err := p.GetItem(ctx, key)
	if err != nil {
		return def, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return def, nil
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return def, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, nil
}

// SetData encodes v as JSON and stores it under key.
func SetData(ctx context.Context, p Provider, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := p.SetItem(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// UpdateData reads the document (or def), applies fn and writes the result
// back. fn errors abort the write.
func UpdateData[T any](ctx context.Context, p Provider, key string, def T, fn func(T) (T, error)) (T, error) {
	current, err := GetData(ctx, p, key, def)
	if err != nil {
		return current, err
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	if err := SetData(ctx, p, key, next); err != nil {
		return current, err
	}
	return next, nil
}

// RemoveData deletes the document under key.
func RemoveData(ctx context.Context, p Provider, key string) error {
	if err := p.RemoveItem(ctx, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
