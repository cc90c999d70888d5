package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMethodTableEnsureInternsOnce(t *testing.T) {
	tbl := NewMethodTable()
	a := tbl.Ensure("foo(_,_)")
	b := tbl.Ensure("foo(_,_)")
	require.Equal(t, a, b)
	require.Equal(t, 1, tbl.Len())
}

func TestMethodTableEnsureAssignsStableIncreasingIndices(t *testing.T) {
	tbl := NewMethodTable()
	require.Equal(t, 0, tbl.Ensure("a"))
	require.Equal(t, 1, tbl.Ensure("b"))
	require.Equal(t, 0, tbl.Ensure("a"))
	require.Equal(t, 2, tbl.Len())
}

func TestMethodTableLookupUnknownSignature(t *testing.T) {
	tbl := NewMethodTable()
	_, ok := tbl.Lookup("nope")
	require.False(t, ok)

	tbl.Ensure("nope")
	i, ok := tbl.Lookup("nope")
	require.True(t, ok)
	require.Equal(t, 0, i)
}

func TestMethodTableNameRoundTrips(t *testing.T) {
	tbl := NewMethodTable()
	i := tbl.Ensure("call(_)")
	require.Equal(t, "call(_)", tbl.Name(i))
}

func TestMethodTableNameOutOfRange(t *testing.T) {
	tbl := NewMethodTable()
	require.Equal(t, "", tbl.Name(0))
	require.Equal(t, "", tbl.Name(-1))
}
