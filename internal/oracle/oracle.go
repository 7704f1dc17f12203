// Package oracle gates evidence-backed contributor scores behind a quorum of
// registered verifiers and forwards attested scores to the governance registry.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/hashing"
	"ucic-governance-go/internal/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidScore             = governance.ErrInvalidScore
	ErrUnknownSubmission        = errors.New("unknown submission")
	ErrNotAVerifier             = errors.New("not a verifier")
	ErrInsufficientVerification = errors.New("insufficient verification")
	ErrUnknownChallenge         = errors.New("unknown challenge")
	ErrAlreadyResolved          = errors.New("challenge already resolved")

	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidEvidence     = errors.New("invalid evidence hash")
	ErrAlreadyVerified     = errors.New("verifier already verified this submission")
	ErrAlreadyForwarded    = errors.New("submission already registered with governance")
	ErrAlreadyVerifier     = errors.New("already a verifier")
	ErrInvalidRepository   = errors.New("invalid repository reference")
	ErrVerificationTimeout = errors.New("git verification timed out")
	ErrChallengeUpheld     = errors.New("submission verification was successfully challenged")
	ErrNoGitVerifier       = errors.New("no git verifier configured")
)

// ScoreSink receives quorum-approved scores. *governance.Registry satisfies it.
type ScoreSink interface {
	SubmitCompositeScore(address string, scores governance.Scores) (uint64, error)
}

// GitVerifier confirms that a commit exists in a repository.
type GitVerifier interface {
	VerifyCommit(ctx context.Context, repoURL, commitID string) (bool, error)
}

type Params struct {
	Quorum     int
	GitTimeout time.Duration
}

func DefaultParams() Params {
	return Params{
		Quorum:     3,
		GitTimeout: 10 * time.Second,
	}
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ucic:oracle"))

// AuditEntry is one line of the oracle's action log.
type AuditEntry struct {
	Seq    uint64
	Action string
	Actor  string
	Target string
	At     time.Time
}

type Oracle struct {
	params Params
	clock  clock.Clock
	hasher hashing.Hasher
	sink   ScoreSink
	git    GitVerifier

	submissions map[string]*Submission
	order       []string
	verifiers   map[string]bool
	stats       map[string]*VerifierStats
	challenges  map[string]*Challenge
	repos       map[string]string

	totalVerifications    uint64
	acceptedVerifications uint64
	seq                   uint64
	audit                 []AuditEntry
}

// New builds an oracle. git may be nil, in which case commit verification fails with
// ErrNoGitVerifier.
func New(params Params, clk clock.Clock, hasher hashing.Hasher, sink ScoreSink, git GitVerifier) *Oracle {
	if params.Quorum <= 0 {
		params.Quorum = DefaultParams().Quorum
	}
	if params.GitTimeout <= 0 {
		params.GitTimeout = DefaultParams().GitTimeout
	}
	return &Oracle{
		params:      params,
		clock:       clk,
		hasher:      hasher,
		sink:        sink,
		git:         git,
		submissions: make(map[string]*Submission),
		verifiers:   make(map[string]bool),
		stats:       make(map[string]*VerifierStats),
		challenges:  make(map[string]*Challenge),
		repos:       make(map[string]string),
	}
}

// nextID derives a unique, replay-stable identifier.
func (o *Oracle) nextID(kind, subject string) string {
	o.seq++
	name := fmt.Sprintf("%s:%s:%d:%d", kind, subject, o.clock.Now().Unix(), o.seq)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

func (o *Oracle) recordAction(action, actor, target string) {
	o.audit = append(o.audit, AuditEntry{
		Seq:    uint64(len(o.audit)) + 1,
		Action: action,
		Actor:  actor,
		Target: target,
		At:     o.clock.Now(),
	})
}

func (o *Oracle) AuditLog() []AuditEntry {
	return append([]AuditEntry(nil), o.audit...)
}

func validateAddress(address string) error {
	if address == "" || len(address) > ledger.MaxAddressLength {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return nil
}

type VerifierStats struct {
	Address       string
	Active        bool
	RegisteredAt  time.Time
	Verifications uint64
	Approvals     uint64
	Rejections    uint64
}

func (o *Oracle) RegisterVerifier(address string) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	if o.verifiers[address] {
		return ErrAlreadyVerifier
	}
	o.verifiers[address] = true
	if st, ok := o.stats[address]; ok {
		st.Active = true
	} else {
		o.stats[address] = &VerifierStats{Address: address, Active: true, RegisteredAt: o.clock.Now()}
	}
	o.recordAction("register_verifier", address, address)

	zap.L().Info("Verifier registered", zap.String("verifier", address))
	return nil
}

// RemoveVerifier revokes future attestations. Records already written stand.
func (o *Oracle) RemoveVerifier(address string) error {
	if !o.verifiers[address] {
		return ErrNotAVerifier
	}
	delete(o.verifiers, address)
	o.stats[address].Active = false
	o.recordAction("remove_verifier", address, address)

	zap.L().Info("Verifier removed", zap.String("verifier", address))
	return nil
}

func (o *Oracle) IsVerifier(address string) bool {
	return o.verifiers[address]
}

func (o *Oracle) Verifiers() []string {
	out := make([]string, 0, len(o.verifiers))
	for addr := range o.verifiers {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// VerifierStats reports activity for current and former verifiers.
func (o *Oracle) VerifierStats(address string) (VerifierStats, bool) {
	st, ok := o.stats[address]
	if !ok {
		return VerifierStats{}, false
	}
	return *st, true
}
