package oracle

import (
	"fmt"
	"time"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/hashing"

	"go.uber.org/zap"
)

// Level is the attestation stage of a submission. Levels are ordered.
type Level int

const (
	Unverified Level = iota
	Basic
	Advanced
	AuditComplete
)

func (l Level) String() string {
	switch l {
	case Unverified:
		return "unverified"
	case Basic:
		return "basic"
	case Advanced:
		return "advanced"
	case AuditComplete:
		return "audit_complete"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

type Evidence struct {
	Text string
	At   time.Time
}

type Submission struct {
	ID          string
	Submitter   string
	Contributor string
	Scores      governance.Scores
	Evidence    map[governance.Category]Evidence
	RepoURL     string
	CommitID    string
	// EvidenceHash covers the evidence bundle. Supplied by the submitter or computed.
	EvidenceHash  hashing.Digest
	MerkleRoot    hashing.Digest
	Level         Level
	VerifierCount int
	SubmittedAt   time.Time
	Records       []VerificationRecord
	Forwarded     bool
	ForwardedAt   time.Time
	// Upheld is set when a challenge against the submission was accepted.
	Upheld bool
}

func copySubmission(s *Submission) Submission {
	out := *s
	out.Evidence = make(map[governance.Category]Evidence, len(s.Evidence))
	for k, v := range s.Evidence {
		out.Evidence[k] = v
	}
	out.Records = append([]VerificationRecord(nil), s.Records...)
	return out
}

type SubmitParams struct {
	Contributor string
	// Submitter defaults to Contributor.
	Submitter string
	Scores    governance.Scores
	Evidence  map[governance.Category]string
	RepoURL   string
	CommitID  string
	// EvidenceHash is a hex digest or base58 multihash. Empty means compute it.
	EvidenceHash string
}

// SubmitScore validates and stores a new submission at level Unverified.
func (o *Oracle) SubmitScore(p SubmitParams) (string, error) {
	if err := validateAddress(p.Contributor); err != nil {
		return "", err
	}
	submitter := p.Submitter
	if submitter == "" {
		submitter = p.Contributor
	}
	if err := validateAddress(submitter); err != nil {
		return "", err
	}
	if err := p.Scores.Validate(); err != nil {
		return "", err
	}
	if err := validateRepository(p.RepoURL, p.CommitID); err != nil {
		return "", err
	}

	now := o.clock.Now()
	evidence := make(map[governance.Category]Evidence, len(governance.Categories))
	for _, c := range governance.Categories {
		evidence[c] = Evidence{Text: p.Evidence[c], At: now}
	}

	var digest hashing.Digest
	if p.EvidenceHash != "" {
		d, err := hashing.ParseDigest(p.EvidenceHash)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidEvidence, err)
		}
		digest = d
	} else {
		digest = o.hasher.Sum(evidenceBundle(p.Scores, evidence))
	}

	sub := &Submission{
		Submitter:    submitter,
		Contributor:  p.Contributor,
		Scores:       p.Scores,
		Evidence:     evidence,
		RepoURL:      p.RepoURL,
		CommitID:     p.CommitID,
		EvidenceHash: digest,
		Level:        Unverified,
		SubmittedAt:  now,
	}
	root, err := o.merkleRoot(sub)
	if err != nil {
		return "", err
	}
	sub.MerkleRoot = root
	sub.ID = o.nextID("submission", p.Contributor)

	o.submissions[sub.ID] = sub
	o.order = append(o.order, sub.ID)
	if p.RepoURL != "" {
		o.repos[p.Contributor] = p.RepoURL
	}
	o.recordAction("submit_score", submitter, sub.ID)

	zap.L().Info("Score submitted",
		zap.String("submission_id", sub.ID),
		zap.String("contributor", p.Contributor),
		zap.Uint64("composite", p.Scores.Composite()),
		zap.String("merkle_root", root.String()))
	return sub.ID, nil
}

func (o *Oracle) Submission(id string) (Submission, bool) {
	s, ok := o.submissions[id]
	if !ok {
		return Submission{}, false
	}
	return copySubmission(s), true
}

// SubmissionsFor returns a contributor's submission ids in submission order.
func (o *Oracle) SubmissionsFor(contributor string) []string {
	var out []string
	for _, id := range o.order {
		if o.submissions[id].Contributor == contributor {
			out = append(out, id)
		}
	}
	return out
}

func (o *Oracle) VerificationStatus(id string) (Level, error) {
	s, ok := o.submissions[id]
	if !ok {
		return Unverified, ErrUnknownSubmission
	}
	return s.Level, nil
}

// VerificationChain returns the submission's records, oldest first.
func (o *Oracle) VerificationChain(id string) ([]VerificationRecord, error) {
	s, ok := o.submissions[id]
	if !ok {
		return nil, ErrUnknownSubmission
	}
	return append([]VerificationRecord(nil), s.Records...), nil
}

func (o *Oracle) IsRegisteredWithDao(id string) bool {
	s, ok := o.submissions[id]
	return ok && s.Forwarded
}
