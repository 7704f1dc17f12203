package oracle

import (
	"bytes"
	"fmt"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/hashing"
)

// commitLeaf is the index of the commit leaf, after the five category leaves.
var commitLeaf = len(governance.Categories)

func categoryLeaf(c governance.Category, score uint8) []byte {
	return []byte(fmt.Sprintf("score:%s:%d", c, score))
}

func merkleLeaves(s *Submission) [][]byte {
	leaves := make([][]byte, 0, len(governance.Categories)+1)
	for _, c := range governance.Categories {
		leaves = append(leaves, categoryLeaf(c, s.Scores.Get(c)))
	}
	return append(leaves, []byte("commit:"+s.CommitID))
}

func (o *Oracle) merkleRoot(s *Submission) (hashing.Digest, error) {
	return hashing.MerkleRoot(o.hasher, merkleLeaves(s))
}

// evidenceBundle is the canonical byte form of scores and evidence text.
func evidenceBundle(scores governance.Scores, evidence map[governance.Category]Evidence) []byte {
	var buf bytes.Buffer
	for _, c := range governance.Categories {
		fmt.Fprintf(&buf, "%s=%d;%q\n", c, scores.Get(c), evidence[c].Text)
	}
	return buf.Bytes()
}

// CreateMerkleProof recomputes and stores the submission's aggregate digest.
func (o *Oracle) CreateMerkleProof(id string) (hashing.Digest, error) {
	s, ok := o.submissions[id]
	if !ok {
		return hashing.Digest{}, ErrUnknownSubmission
	}
	root, err := o.merkleRoot(s)
	if err != nil {
		return hashing.Digest{}, err
	}
	s.MerkleRoot = root
	return root, nil
}

// VerifyMerkleProof reports whether root matches both the stored digest and one
// recomputed from the submission's current fields.
func (o *Oracle) VerifyMerkleProof(id string, root hashing.Digest) (bool, error) {
	s, ok := o.submissions[id]
	if !ok {
		return false, ErrUnknownSubmission
	}
	current, err := o.merkleRoot(s)
	if err != nil {
		return false, err
	}
	return current == s.MerkleRoot && root == s.MerkleRoot, nil
}

func (o *Oracle) MerkleRoot(id string) (hashing.Digest, error) {
	s, ok := o.submissions[id]
	if !ok {
		return hashing.Digest{}, ErrUnknownSubmission
	}
	return s.MerkleRoot, nil
}

// ProveCategory returns the leaf for one category score and its inclusion proof
// against the stored root.
func (o *Oracle) ProveCategory(id string, c governance.Category) ([]byte, hashing.Proof, error) {
	s, ok := o.submissions[id]
	if !ok {
		return nil, hashing.Proof{}, ErrUnknownSubmission
	}
	tree, err := hashing.BuildTree(o.hasher, merkleLeaves(s))
	if err != nil {
		return nil, hashing.Proof{}, err
	}
	idx := -1
	for i, cat := range governance.Categories {
		if cat == c {
			idx = i
		}
	}
	if idx < 0 {
		return nil, hashing.Proof{}, fmt.Errorf("%w: unknown category %d", ErrInvalidScore, int(c))
	}
	proof, err := tree.Proof(idx)
	if err != nil {
		return nil, hashing.Proof{}, err
	}
	return categoryLeaf(c, s.Scores.Get(c)), proof, nil
}

// ProveCommit returns the commit leaf and its inclusion proof.
func (o *Oracle) ProveCommit(id string) ([]byte, hashing.Proof, error) {
	s, ok := o.submissions[id]
	if !ok {
		return nil, hashing.Proof{}, ErrUnknownSubmission
	}
	leaves := merkleLeaves(s)
	tree, err := hashing.BuildTree(o.hasher, leaves)
	if err != nil {
		return nil, hashing.Proof{}, err
	}
	proof, err := tree.Proof(commitLeaf)
	if err != nil {
		return nil, hashing.Proof{}, err
	}
	return leaves[commitLeaf], proof, nil
}

func (o *Oracle) ComputeEvidenceHash(data []byte) hashing.Digest {
	return o.hasher.Sum(data)
}

func (o *Oracle) VerifyEvidenceHash(data []byte, expected hashing.Digest) bool {
	return hashing.Verify(o.hasher, data, expected)
}
