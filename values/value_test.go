package values

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValuePredicates(t *testing.T) {
	require.True(t, Null().IsNull())
	require.True(t, True().IsTrue())
	require.True(t, False().IsFalse())
	require.True(t, Number(3).IsNumber())
	require.True(t, False().Falsey())
	require.True(t, Null().Falsey())
	require.False(t, True().Falsey())
	require.False(t, Number(0).Falsey())
}

func TestValueEqualityIsStructuralForStringsAndRanges(t *testing.T) {
	a := FromObj(&ObjString{Bytes: []byte("hi")})
	b := FromObj(&ObjString{Bytes: []byte("hi")})
	require.True(t, Equal(a, b))

	r1 := FromObj(&ObjRange{From: 1, To: 5})
	r2 := FromObj(&ObjRange{From: 1, To: 5})
	require.True(t, Equal(r1, r2))

	r3 := FromObj(&ObjRange{From: 1, To: 6})
	require.False(t, Equal(r1, r3))
}

func TestValueEqualityIsIdentityForInstances(t *testing.T) {
	a := FromObj(&ObjInstance{})
	b := FromObj(&ObjInstance{})
	require.False(t, Equal(a, b))
	require.True(t, Equal(a, a))
}

func TestHashStableForEqualStrings(t *testing.T) {
	a := FromObj(&ObjString{Bytes: []byte("hi"), Hash: FNV1a("hi")})
	b := FromObj(&ObjString{Bytes: []byte("hi"), Hash: FNV1a("hi")})
	ha, ok := Hash(a)
	require.True(t, ok)
	hb, ok := Hash(b)
	require.True(t, ok)
	require.Equal(t, ha, hb)
}

func TestHashUnhashableKinds(t *testing.T) {
	_, ok := Hash(FromObj(&ObjInstance{}))
	require.False(t, ok)
	_, ok = Hash(FromObj(&ObjList{}))
	require.False(t, ok)
}

func TestNumberStringFormatsWithoutTrailingZeros(t *testing.T) {
	require.Equal(t, "3", Number(3).String())
	require.Equal(t, "3.5", Number(3.5).String())
}
