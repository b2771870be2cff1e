package node

import (
	"context"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUUID(t *testing.T) {
	for _, version := range []int{1, 3, 4, 5, 6, 7} {
		id, err := NewUUID(version, "https://example.com/cat.png")
		require.NoError(t, err, version)

		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(version), parsed.Version(), version)
	}
}

func TestNewUUID_NameBased(t *testing.T) {
	first, err := NewUUID(5, "https://example.com/cat.png")
	require.NoError(t, err)
	second, err := NewUUID(5, "https://example.com/cat.png")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = NewUUID(3, "")
	assert.Error(t, err)
}

func TestNewUUID_InvalidVersion(t *testing.T) {
	for _, version := range []int{2, 8, -1} {
		_, err := NewUUID(version, "")
		assert.Error(t, err, version)
	}
}

func TestRandomID(t *testing.T) {
	items := []Item{{JSON: map[string]interface{}{"title": "post"}}, {}}

	outputs, err := RandomID(context.Background(), items, RandomIDParams{}, false, log.NewLogger())
	require.NoError(t, err)

	require.Len(t, outputs, 2)
	assert.Equal(t, "post", outputs[0].JSON["title"])
	assert.NotEqual(t, outputs[0].JSON["uuid"], outputs[1].JSON["uuid"])
	parsed, err := uuid.Parse(outputs[1].JSON["uuid"].(string))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotContains(t, items[0].JSON, "uuid")
}

func TestRandomID_InvalidVersion(t *testing.T) {
	items := []Item{{JSON: map[string]interface{}{"title": "post"}}}

	outputs, err := RandomID(context.Background(), items, RandomIDParams{Version: 2}, true, log.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, []Output{{JSON: map[string]interface{}{"error": "invalid version: 2"}, PairedItem: 0}}, outputs)

	_, err = RandomID(context.Background(), items, RandomIDParams{Version: 2}, false, log.NewLogger())
	assert.Error(t, err)
}
