package erms

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAssembly(t *testing.T) {
	for _, code := range Assemblies() {
		require.True(t, IsAssembly(code), code)
	}
	require.Len(t, Assemblies(), 182)

	for _, code := range []string{"", "0", "183", "012", "+12", "12 ", "abc", "-1"} {
		require.False(t, IsAssembly(code), code)
	}
}
