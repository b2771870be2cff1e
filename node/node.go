// Package node runs the media operations over batches of workflow items.
// Every item is processed independently; a failing item either aborts the
// batch or, with continue-on-fail, yields an error object paired with it.
package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-utils/v2/log"
)

// ErrUnknownOperation ...
var ErrUnknownOperation = errors.New("unknown operation")

// Item is one unit of workflow input.
type Item struct {
	JSON   map[string]interface{}
	Binary map[string]*media.BinaryRef
}

// String returns the JSON field key as a string, or "" when it is missing
// or not a string.
func (i Item) String(key string) string {
	if v, ok := i.JSON[key].(string); ok {
		return v
	}
	return ""
}

// Output is one result object paired with the index of its input item.
type Output struct {
	JSON       map[string]interface{} `json:"json"`
	PairedItem int                    `json:"pairedItem"`
}

// ItemError is returned when an item fails and the batch is aborted.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// ItemFunc processes a single item and returns its result objects.
type ItemFunc func(ctx context.Context, index int, item Item) ([]map[string]interface{}, error)

// Execute runs fn for every item in order.
func Execute(ctx context.Context, items []Item, continueOnFail bool, logger log.Logger, fn ItemFunc) ([]Output, error) {
	var outputs []Output
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		results, err := fn(ctx, i, item)
		if err != nil {
			if !continueOnFail {
				return outputs, &ItemError{Index: i, Err: err}
			}
			logger.Warnf("Item %d failed: %s", i, err)
			outputs = append(outputs, Output{JSON: map[string]interface{}{"error": err.Error()}, PairedItem: i})
			continue
		}

		for _, result := range results {
			outputs = append(outputs, Output{JSON: result, PairedItem: i})
		}
	}
	return outputs, nil
}

// Operation names a node action.
type Operation string

const (
	// OperationUploadMedia ...
	OperationUploadMedia Operation = "uploadMedia"
	// OperationListMedia ...
	OperationListMedia Operation = "listMedia"
	// OperationGenerate ...
	OperationGenerate Operation = "generate"
)

// Dispatcher maps the operations a node supports to their handlers.
type Dispatcher map[Operation]ItemFunc

// Handler returns the handler of op, or ErrUnknownOperation.
func (d Dispatcher) Handler(op Operation) (ItemFunc, error) {
	fn, ok := d[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return fn, nil
}
