package node

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/google/uuid"
)

// RandomIDParams ...
type RandomIDParams struct {
	// Version is one of 1, 3, 4, 5, 6 or 7. Default: 4
	Version int
	// Name is hashed in the URL namespace by versions 3 and 5.
	Name string
}

// NewUUID generates a UUID of the given version.
func NewUUID(version int, name string) (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	switch version {
	case 1:
		id, err = uuid.NewUUID()
	case 3:
		if name == "" {
			return "", fmt.Errorf("version %d requires a name", version)
		}
		id = uuid.NewMD5(uuid.NameSpaceURL, []byte(name))
	case 0, 4:
		id, err = uuid.NewRandom()
	case 5:
		if name == "" {
			return "", fmt.Errorf("version %d requires a name", version)
		}
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
	case 6:
		id, err = uuid.NewV6()
	case 7:
		id, err = uuid.NewV7()
	default:
		return "", fmt.Errorf("invalid version: %d", version)
	}
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RandomID adds a "uuid" field to a copy of every item.
func RandomID(ctx context.Context, items []Item, params RandomIDParams, continueOnFail bool, logger log.Logger) ([]Output, error) {
	dispatcher := Dispatcher{
		OperationGenerate: func(_ context.Context, _ int, item Item) ([]map[string]interface{}, error) {
			id, err := NewUUID(params.Version, params.Name)
			if err != nil {
				return nil, err
			}

			result := make(map[string]interface{}, len(item.JSON)+1)
			for key, value := range item.JSON {
				result[key] = value
			}
			result["uuid"] = id
			return []map[string]interface{}{result}, nil
		},
	}
	fn, err := dispatcher.Handler(OperationGenerate)
	if err != nil {
		return nil, err
	}

	return Execute(ctx, items, continueOnFail, logger, fn)
}
