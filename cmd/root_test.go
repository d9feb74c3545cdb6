package cmd_test

import (
	"testing"

	"github.com/kashguard/go-eos-signer/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	root := cmd.New()

	for _, path := range [][]string{
		{"sign"},
		{"pubkey"},
		{"device", "init"},
		{"device", "wipe"},
		{"device", "lock"},
		{"device", "status"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}

	sign, _, err := root.Find([]string{"sign"})
	require.NoError(t, err)
	assert.NotNil(t, sign.Flags().Lookup("chunk-size"))
	assert.NotNil(t, sign.Flags().Lookup("yes"))
}
