package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	repo, pr, err := parseTarget("acme/svc#42", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "acme/svc", repo)
	assert.Equal(t, 42, pr)

	repo, pr, err = parseTarget("", "acme/svc", 7)
	require.NoError(t, err)
	assert.Equal(t, "acme/svc", repo)
	assert.Equal(t, 7, pr)

	_, _, err = parseTarget("acme/svc", "", 0)
	assert.Error(t, err, "missing #N")

	_, _, err = parseTarget("acme/svc#zero", "", 0)
	assert.Error(t, err)

	_, _, err = parseTarget("acme/svc#0", "", 0)
	assert.Error(t, err)

	_, _, err = parseTarget("", "acme/svc", 0)
	assert.Error(t, err, "flag pair incomplete")

	_, _, err = parseTarget("", "", 9)
	assert.Error(t, err)
}
