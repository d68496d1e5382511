package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	slot := NewFileSlot(path)

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, slot.Save(ctx, []byte(`{"id":"1"}`)))

	data, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(data))

	require.NoError(t, slot.Clear(ctx))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Clearing an empty slot is not an error.
	require.NoError(t, slot.Clear(ctx))
}

func TestMemorySlot_CopiesData(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()

	buf := []byte("abc")
	require.NoError(t, slot.Save(ctx, buf))
	buf[0] = 'x'

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))

	require.NoError(t, slot.Clear(ctx))
	data, err = slot.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}
