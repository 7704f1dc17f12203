package hashing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaves(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("leaf-%d", i))
	}
	return out
}

func TestBuildTreeEmpty(t *testing.T) {
	_, err := BuildTree(Blake3{}, nil)
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestSingleLeafRootIsLeafHash(t *testing.T) {
	tree, err := BuildTree(Blake3{}, [][]byte{[]byte("only")})
	require.NoError(t, err)
	assert.Equal(t, LeafHash(Blake3{}, []byte("only")), tree.Root())
}

func TestProofsVerifyForEveryLeaf(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 6, 7, 8} {
		data := leaves(n)
		tree, err := BuildTree(Blake3{}, data)
		require.NoError(t, err)

		for i := range data {
			proof, err := tree.Proof(i)
			require.NoError(t, err)
			assert.True(t, VerifyProof(Blake3{}, tree.Root(), data[i], proof), "n=%d leaf=%d", n, i)
			assert.False(t, VerifyProof(Blake3{}, tree.Root(), []byte("forged"), proof), "n=%d leaf=%d", n, i)
		}
	}
}

func TestRootIsOrderSensitive(t *testing.T) {
	a := [][]byte{[]byte("x"), []byte("y"), []byte("z")}
	b := [][]byte{[]byte("y"), []byte("x"), []byte("z")}

	ra, err := MerkleRoot(Blake3{}, a)
	require.NoError(t, err)
	rb, err := MerkleRoot(Blake3{}, b)
	require.NoError(t, err)
	assert.NotEqual(t, ra, rb)
}

func TestProofOutOfRange(t *testing.T) {
	tree, err := BuildTree(Blake3{}, leaves(3))
	require.NoError(t, err)

	_, err = tree.Proof(3)
	assert.ErrorIs(t, err, ErrLeafOutOfRange)
	_, err = tree.Proof(-1)
	assert.ErrorIs(t, err, ErrLeafOutOfRange)
}

func TestDigestEncodings(t *testing.T) {
	d := Blake3{}.Sum([]byte("evidence bundle"))

	parsed, err := ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	parsed, err = ParseDigest(d.B58())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	_, err = ParseDigest("not-a-digest")
	assert.ErrorIs(t, err, ErrInvalidDigest)

	assert.True(t, Verify(Blake3{}, []byte("evidence bundle"), d))
	assert.False(t, Verify(Blake3{}, []byte("evidence bundle!"), d))
	assert.True(t, Digest{}.IsZero())
}
