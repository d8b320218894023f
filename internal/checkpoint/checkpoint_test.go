package checkpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egraphlab/saturate/internal/checkpoint"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/saturate"
	"github.com/egraphlab/saturate/internal/unionfind"
)

func TestCaptureRestoreRoundTrip(t *testing.T) {
	store, err := checkpoint.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	out := saturate.Output{
		CanonicalEnodes: map[ids.ENodeID]enode.Shape{
			0: enode.Add{Lhs: 2, Rhs: 1},
			1: enode.Sub{Lhs: 3, Rhs: 2},
			2: enode.Constant{Value: 7},
		},
		EnodeToEClass: unionfind.Canon{0: 0, 1: 1, 2: 2, 3: 0},
	}

	require.NoError(t, store.Capture(out))

	restored, err := store.Restore()
	require.NoError(t, err)

	assert.Equal(t, out.CanonicalEnodes, restored.CanonicalEnodes)
	assert.Equal(t, out.EnodeToEClass, restored.EnodeToEClass)
}

func TestRestoreEmptyStoreYieldsEmptyOutput(t *testing.T) {
	store, err := checkpoint.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	out, err := store.Restore()
	require.NoError(t, err)
	assert.Empty(t, out.CanonicalEnodes)
	assert.Empty(t, out.EnodeToEClass)
}
