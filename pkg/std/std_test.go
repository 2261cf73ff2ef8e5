package std

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Berylsoft/Zeon/pkg/types"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup(UnixTs)
	require.True(t, ok)
	assert.Equal(t, "std:prim:unix-ts", p.String())

	ptr, ok := PtrOf(Path{Path: "meta", Name: "commit-ptr"})
	require.True(t, ok)
	assert.Equal(t, CommitPtr, ptr)

	_, ok = Lookup(types.MustStdPtr(0x0100))
	assert.False(t, ok)

	_, ok = PtrOf(Path{Path: "meta", Name: "nope"})
	assert.False(t, ok)
}

func TestEntriesRoundTrip(t *testing.T) {
	for ptr, path := range entries {
		back, ok := PtrOf(path)
		require.True(t, ok, path.String())
		assert.Equal(t, ptr, back)

		parsed, ok := ParsePath(path.String())
		require.True(t, ok)
		assert.Equal(t, path, parsed)
	}
}

func TestIsTrait(t *testing.T) {
	assert.True(t, IsTrait(ObjectMeta))
	assert.True(t, IsTrait(UniqueName))
	assert.False(t, IsTrait(Commit))
	assert.False(t, IsTrait(types.PtrFromPath("std:meta:name")))
}

func TestParsePath(t *testing.T) {
	for _, bad := range []string{"", "std", "std:meta", "foo:meta:commit", "std::commit", "std:meta:commit:x"} {
		_, ok := ParsePath(bad)
		assert.False(t, ok, bad)
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "std:meta:commit", Describe(Commit))
	assert.Equal(t, "std:0100", Describe(types.MustStdPtr(0x0100)))
}
