package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSON stores values of T as JSON documents under Prefix+key.
type JSON[T any] struct {
	Underlying Interface
	Prefix     string
}

func (j *JSON[T]) Get(ctx context.Context, key string) (T, error) {
	var result T

	data, err := j.Underlying.Get(ctx, j.Prefix+key)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("store: decode %q: %w", j.Prefix+key, err)
	}
	return result, nil
}

func (j *JSON[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", j.Prefix+key, err)
	}
	return j.Underlying.Set(ctx, j.Prefix+key, data)
}

func (j *JSON[T]) Delete(ctx context.Context, key string) error {
	return j.Underlying.Delete(ctx, j.Prefix+key)
}
