package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSHA256Gate_HashIsStableHex(t *testing.T) {
	g := SHA256Gate{}

	digest, err := g.Hash("pw")
	require.NoError(t, err)

	assert.Equal(t, "30c952fab122c3f9759f02a6d95c3758b246b4fee239957b2d4fee46e26170c4", digest)
	again, _ := g.Hash("pw")
	assert.Equal(t, digest, again)
}

func TestSHA256Gate_Verify(t *testing.T) {
	g := SHA256Gate{}
	digest, _ := g.Hash("secret")

	assert.True(t, g.Verify("secret", digest))
	assert.False(t, g.Verify("Secret", digest))
	assert.False(t, g.Verify("", digest))
}

func TestBcryptGate_Verify(t *testing.T) {
	g := BcryptGate{Cost: bcrypt.MinCost}

	digest, err := g.Hash("secret")
	require.NoError(t, err)

	assert.True(t, g.Verify("secret", digest))
	assert.False(t, g.Verify("other", digest))
}

func TestNew(t *testing.T) {
	g, err := New("")
	require.NoError(t, err)
	assert.IsType(t, SHA256Gate{}, g)

	g, err = New("BCRYPT")
	require.NoError(t, err)
	assert.IsType(t, BcryptGate{}, g)

	_, err = New("md5")
	assert.Error(t, err)
}
