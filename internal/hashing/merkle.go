package hashing

import (
	"errors"
	"fmt"
)

// Leaves and interior nodes are hashed under distinct prefixes so a leaf can never be
// passed off as an interior node.
const (
	leafPrefix byte = 0x00
	nodePrefix byte = 0x01
)

var (
	ErrEmptyTree      = errors.New("merkle tree has no leaves")
	ErrLeafOutOfRange = errors.New("leaf index out of range")
)

// Tree is a binary Merkle tree over an ordered list of leaves. A node without a sibling
// is carried up unchanged rather than paired with itself.
type Tree struct {
	hasher Hasher
	levels [][]Digest
}

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	Sibling Digest
	// Left is true when the sibling sits to the left of the running hash.
	Left bool
}

type Proof struct {
	Index int
	Steps []ProofStep
}

func LeafHash(h Hasher, data []byte) Digest {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, leafPrefix)
	buf = append(buf, data...)
	return h.Sum(buf)
}

func nodeHash(h Hasher, left, right Digest) Digest {
	buf := make([]byte, 0, 2*Size+1)
	buf = append(buf, nodePrefix)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return h.Sum(buf)
}

func BuildTree(h Hasher, leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	level := make([]Digest, len(leaves))
	for i, leaf := range leaves {
		level[i] = LeafHash(h, leaf)
	}

	levels := [][]Digest{level}
	for len(level) > 1 {
		next := make([]Digest, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, nodeHash(h, level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{hasher: h, levels: levels}, nil
}

func (t *Tree) Root() Digest {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

func (t *Tree) LeafCount() int {
	return len(t.levels[0])
}

// Proof returns the inclusion proof for the leaf at index.
func (t *Tree) Proof(index int) (Proof, error) {
	if index < 0 || index >= t.LeafCount() {
		return Proof{}, fmt.Errorf("%w: %d", ErrLeafOutOfRange, index)
	}

	proof := Proof{Index: index}
	pos := index
	for _, level := range t.levels[:len(t.levels)-1] {
		if pos%2 == 1 {
			proof.Steps = append(proof.Steps, ProofStep{Sibling: level[pos-1], Left: true})
		} else if pos+1 < len(level) {
			proof.Steps = append(proof.Steps, ProofStep{Sibling: level[pos+1], Left: false})
		}
		pos /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the root from leaf data and a proof and compares it to root.
func VerifyProof(h Hasher, root Digest, leaf []byte, proof Proof) bool {
	running := LeafHash(h, leaf)
	for _, step := range proof.Steps {
		if step.Left {
			running = nodeHash(h, step.Sibling, running)
		} else {
			running = nodeHash(h, running, step.Sibling)
		}
	}
	return running == root
}

// MerkleRoot is a convenience for callers that only need the root.
func MerkleRoot(h Hasher, leaves [][]byte) (Digest, error) {
	tree, err := BuildTree(h, leaves)
	if err != nil {
		return Digest{}, err
	}
	return tree.Root(), nil
}
