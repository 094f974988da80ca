package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "snapshots", map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	id, err = p.Publish(context.Background(), "snapshots", "second")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	messages := p.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "snapshots", messages[0].Topic)
	require.Equal(t, "second", messages[1].Payload)
}
