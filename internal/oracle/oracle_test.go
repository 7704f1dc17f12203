package oracle

import (
	"context"
	"testing"
	"time"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/hashing"
	"ucic-governance-go/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type fakeSink struct {
	calls  []string
	scores []governance.Scores
	err    error
}

func (f *fakeSink) SubmitCompositeScore(address string, scores governance.Scores) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.calls = append(f.calls, address)
	f.scores = append(f.scores, scores)
	return scores.Composite(), nil
}

type fakeGit struct {
	known map[string]bool
	block bool
}

func (f *fakeGit) VerifyCommit(ctx context.Context, repoURL, commitID string) (bool, error) {
	if f.block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	return f.known[repoURL+"@"+commitID], nil
}

func sampleScores() governance.Scores {
	return governance.Scores{CodeQuality: 85, Documentation: 90, Testing: 80, Innovation: 95, Community: 75}
}

func newTestOracle(t *testing.T) (*Oracle, *clock.Manual, *fakeSink) {
	t.Helper()
	clk := clock.NewManual(epoch)
	sink := &fakeSink{}
	o := New(DefaultParams(), clk, hashing.Blake3{}, sink, &fakeGit{known: map[string]bool{}})
	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, o.RegisterVerifier(v))
	}
	return o, clk, sink
}

func submit(t *testing.T, o *Oracle, contributor string) string {
	t.Helper()
	id, err := o.SubmitScore(SubmitParams{
		Contributor: contributor,
		Scores:      sampleScores(),
		Evidence:    map[governance.Category]string{governance.CodeQuality: "PR #12 refactor"},
		RepoURL:     "https://github.com/ucic/core",
		CommitID:    "0123456789abcdef0123456789abcdef01234567",
	})
	require.NoError(t, err)
	return id
}

func TestQuorumScenario(t *testing.T) {
	o, clk, _ := newTestOracle(t)
	id := submit(t, o, "alice")

	level, err := o.VerificationStatus(id)
	require.NoError(t, err)
	assert.Equal(t, Unverified, level)

	for _, v := range []string{"v1", "v2", "v3"} {
		clk.Advance(time.Minute)
		_, err := o.VerifySubmission(id, v, true, "looks good")
		require.NoError(t, err)
	}

	level, err = o.VerificationStatus(id)
	require.NoError(t, err)
	assert.Equal(t, AuditComplete, level)

	_, err = o.VerifySubmission(id, "mallory", true, "")
	require.ErrorIs(t, err, ErrNotAVerifier)

	sub, ok := o.Submission(id)
	require.True(t, ok)
	assert.Equal(t, 3, sub.VerifierCount)
	assert.Len(t, sub.Records, 3)
}

func TestLevelTransitions(t *testing.T) {
	tests := []struct {
		name  string
		votes []bool
		want  []Level
	}{
		{name: "approvals reach audit", votes: []bool{true, true, true}, want: []Level{Advanced, Advanced, AuditComplete}},
		{name: "rejection first", votes: []bool{false, true, true}, want: []Level{Basic, Advanced, AuditComplete}},
		{name: "rejection at quorum", votes: []bool{true, true, false}, want: []Level{Advanced, Advanced, Advanced}},
		{name: "all reject", votes: []bool{false, false, false}, want: []Level{Basic, Basic, Basic}},
		{name: "late approval after quorum", votes: []bool{false, false, false, true}, want: []Level{Basic, Basic, Basic, AuditComplete}},
		{name: "audit is terminal", votes: []bool{true, true, true, false}, want: []Level{Advanced, Advanced, AuditComplete, AuditComplete}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _, _ := newTestOracle(t)
			require.NoError(t, o.RegisterVerifier("v4"))
			id := submit(t, o, "bob")

			verifiers := []string{"v1", "v2", "v3", "v4"}
			for i, approved := range tt.votes {
				level, err := o.VerifySubmission(id, verifiers[i], approved, "")
				require.NoError(t, err)
				assert.Equal(t, tt.want[i], level, "after vote %d", i+1)
			}
		})
	}
}

func TestAuditCompleteRequiresApprovedQuorum(t *testing.T) {
	o, _, _ := newTestOracle(t)
	id := submit(t, o, "carl")

	_, err := o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)
	level, err := o.VerifySubmission(id, "v2", true, "")
	require.NoError(t, err)
	assert.NotEqual(t, AuditComplete, level, "two approvals are below quorum")
}

func TestVerifyRejections(t *testing.T) {
	o, _, _ := newTestOracle(t)
	id := submit(t, o, "dina")

	_, err := o.VerifySubmission("missing", "v1", true, "")
	require.ErrorIs(t, err, ErrUnknownSubmission)

	_, err = o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)
	_, err = o.VerifySubmission(id, "v1", true, "again")
	require.ErrorIs(t, err, ErrAlreadyVerified)

	sub, _ := o.Submission(id)
	assert.Equal(t, 1, sub.VerifierCount)
}

func TestSubmitScoreValidation(t *testing.T) {
	o, _, _ := newTestOracle(t)

	tests := []struct {
		name   string
		params SubmitParams
		want   error
	}{
		{name: "score over 100", params: SubmitParams{Contributor: "a", Scores: governance.Scores{Innovation: 101}}, want: ErrInvalidScore},
		{name: "empty contributor", params: SubmitParams{Scores: sampleScores()}, want: ErrInvalidAddress},
		{name: "commit without repo", params: SubmitParams{Contributor: "a", CommitID: "abcdef0"}, want: ErrInvalidRepository},
		{name: "bad repo url", params: SubmitParams{Contributor: "a", RepoURL: "ftp://x/y"}, want: ErrInvalidRepository},
		{name: "bad commit", params: SubmitParams{Contributor: "a", RepoURL: "https://x/y", CommitID: "zz"}, want: ErrInvalidRepository},
		{name: "bad evidence hash", params: SubmitParams{Contributor: "a", EvidenceHash: "nope"}, want: ErrInvalidEvidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.SubmitScore(tt.params)
			require.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, o.Statistics().TotalSubmissions)
}

func TestSubmissionIDsUnique(t *testing.T) {
	o, _, _ := newTestOracle(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := submit(t, o, "same")
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, o.SubmissionsFor("same"), 20)
}

func TestSuppliedEvidenceHashIsKept(t *testing.T) {
	o, _, _ := newTestOracle(t)
	digest := hashing.Blake3{}.Sum([]byte("bundle"))

	id, err := o.SubmitScore(SubmitParams{Contributor: "eli", Scores: sampleScores(), EvidenceHash: digest.B58()})
	require.NoError(t, err)

	sub, _ := o.Submission(id)
	assert.Equal(t, digest, sub.EvidenceHash)
	assert.True(t, o.VerifyEvidenceHash([]byte("bundle"), sub.EvidenceHash))
	assert.Equal(t, digest, o.ComputeEvidenceHash([]byte("bundle")))
}

func TestMerkleProofs(t *testing.T) {
	o, _, _ := newTestOracle(t)
	id := submit(t, o, "finn")

	root, err := o.MerkleRoot(id)
	require.NoError(t, err)
	created, err := o.CreateMerkleProof(id)
	require.NoError(t, err)
	assert.Equal(t, root, created)

	ok, err := o.VerifyMerkleProof(id, root)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.VerifyMerkleProof(id, hashing.Blake3{}.Sum([]byte("forged")))
	require.NoError(t, err)
	assert.False(t, ok)

	for _, c := range governance.Categories {
		leaf, proof, err := o.ProveCategory(id, c)
		require.NoError(t, err)
		assert.True(t, hashing.VerifyProof(hashing.Blake3{}, root, leaf, proof), c.String())
	}

	leaf, proof, err := o.ProveCommit(id)
	require.NoError(t, err)
	assert.True(t, hashing.VerifyProof(hashing.Blake3{}, root, leaf, proof))

	_, err = o.MerkleRoot("missing")
	require.ErrorIs(t, err, ErrUnknownSubmission)
}

func TestMerkleRootDependsOnScoreOrder(t *testing.T) {
	o, _, _ := newTestOracle(t)

	a, err := o.SubmitScore(SubmitParams{Contributor: "g", Scores: governance.Scores{CodeQuality: 10, Documentation: 20}})
	require.NoError(t, err)
	b, err := o.SubmitScore(SubmitParams{Contributor: "g", Scores: governance.Scores{CodeQuality: 20, Documentation: 10}})
	require.NoError(t, err)

	ra, _ := o.MerkleRoot(a)
	rb, _ := o.MerkleRoot(b)
	assert.NotEqual(t, ra, rb)
}

func TestRegisterWithDao(t *testing.T) {
	o, _, sink := newTestOracle(t)
	id := submit(t, o, "gail")

	_, err := o.RegisterWithDao(id)
	require.ErrorIs(t, err, ErrInsufficientVerification)

	_, err = o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)

	composite, err := o.RegisterWithDao(id)
	require.NoError(t, err)
	assert.Equal(t, sampleScores().Composite(), composite)
	assert.True(t, o.IsRegisteredWithDao(id))

	_, err = o.RegisterWithDao(id)
	require.ErrorIs(t, err, ErrAlreadyForwarded)
	assert.Len(t, sink.calls, 1)

	_, err = o.RegisterWithDao("missing")
	require.ErrorIs(t, err, ErrUnknownSubmission)
}

func TestRegisterWithDaoSinkFailureLeavesSubmissionUnforwarded(t *testing.T) {
	o, _, sink := newTestOracle(t)
	id := submit(t, o, "hugo")
	_, err := o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)

	sink.err = governance.ErrUnknownContributor
	_, err = o.RegisterWithDao(id)
	require.ErrorIs(t, err, governance.ErrUnknownContributor)
	assert.False(t, o.IsRegisteredWithDao(id))

	sink.err = nil
	_, err = o.RegisterWithDao(id)
	require.NoError(t, err)
}

func TestForwardIntoRealRegistry(t *testing.T) {
	clk := clock.NewManual(epoch)
	l := ledger.New(ledger.ToUnits(1000), clk)
	reg, err := governance.NewRegistry(governance.DefaultParams(), clk, l)
	require.NoError(t, err)
	require.NoError(t, reg.RegisterContributor("ivan", ""))

	o := New(DefaultParams(), clk, hashing.Blake3{}, reg, nil)
	require.NoError(t, o.RegisterVerifier("v1"))
	id := submit(t, o, "ivan")
	_, err = o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)

	_, err = o.RegisterWithDao(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(85), reg.CompositeScore("ivan"))
	assert.Equal(t, governance.Recognized, reg.Tier("ivan"))
}

func TestChallengeLifecycle(t *testing.T) {
	o, _, _ := newTestOracle(t)
	id := submit(t, o, "jack")
	for _, v := range []string{"v1", "v2", "v3"} {
		_, err := o.VerifySubmission(id, v, true, "")
		require.NoError(t, err)
	}

	_, err := o.ChallengeVerification("missing", "kate", "copied code")
	require.ErrorIs(t, err, ErrUnknownSubmission)

	cid, err := o.ChallengeVerification(id, "kate", "copied code")
	require.NoError(t, err)
	require.Len(t, o.PendingChallenges(), 1)

	require.ErrorIs(t, o.ResolveChallenge("missing", true), ErrUnknownChallenge)
	require.NoError(t, o.ResolveChallenge(cid, true))
	require.ErrorIs(t, o.ResolveChallenge(cid, false), ErrAlreadyResolved)

	c, ok := o.Challenge(cid)
	require.True(t, ok)
	assert.True(t, c.Resolved)
	assert.True(t, c.Accepted, "second resolution must not flip the outcome")
	assert.Empty(t, o.PendingChallenges())

	level, _ := o.VerificationStatus(id)
	assert.Equal(t, Basic, level)

	_, err = o.RegisterWithDao(id)
	require.ErrorIs(t, err, ErrChallengeUpheld)

	require.NoError(t, o.RegisterVerifier("v4"))
	_, err = o.VerifySubmission(id, "v4", true, "")
	require.ErrorIs(t, err, ErrChallengeUpheld)
}

func TestRejectedChallengeKeepsLevel(t *testing.T) {
	o, _, _ := newTestOracle(t)
	id := submit(t, o, "lena")
	_, err := o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)

	cid, err := o.ChallengeVerification(id, "max", "disagree")
	require.NoError(t, err)
	require.NoError(t, o.ResolveChallenge(cid, false))

	level, _ := o.VerificationStatus(id)
	assert.Equal(t, Advanced, level)
	_, err = o.RegisterWithDao(id)
	require.NoError(t, err)
}

func TestVerifierManagement(t *testing.T) {
	o, _, _ := newTestOracle(t)

	require.ErrorIs(t, o.RegisterVerifier("v1"), ErrAlreadyVerifier)
	require.ErrorIs(t, o.RegisterVerifier(""), ErrInvalidAddress)
	assert.Equal(t, []string{"v1", "v2", "v3"}, o.Verifiers())

	id := submit(t, o, "nina")
	_, err := o.VerifySubmission(id, "v2", false, "missing tests")
	require.NoError(t, err)

	require.NoError(t, o.RemoveVerifier("v2"))
	require.ErrorIs(t, o.RemoveVerifier("v2"), ErrNotAVerifier)
	assert.False(t, o.IsVerifier("v2"))

	chain, err := o.VerificationChain(id)
	require.NoError(t, err)
	require.Len(t, chain, 1, "removal keeps existing records")
	assert.Equal(t, "v2", chain[0].Verifier)

	st, ok := o.VerifierStats("v2")
	require.True(t, ok)
	assert.False(t, st.Active)
	assert.Equal(t, uint64(1), st.Rejections)

	_, err = o.VerifySubmission(id, "v2", true, "")
	require.ErrorIs(t, err, ErrNotAVerifier)
}

func TestStatistics(t *testing.T) {
	o, clk, _ := newTestOracle(t)
	assert.Zero(t, o.AcceptanceRate())

	done := submit(t, o, "olga")
	rejected := submit(t, o, "olga")
	submit(t, o, "olga")

	clk.Advance(10 * time.Minute)
	for _, v := range []string{"v1", "v2", "v3"} {
		_, err := o.VerifySubmission(done, v, true, "")
		require.NoError(t, err)
	}
	clk.Advance(10 * time.Minute)
	_, err := o.VerifySubmission(rejected, "v1", false, "")
	require.NoError(t, err)

	_, err = o.ChallengeVerification(done, "pete", "check")
	require.NoError(t, err)

	st := o.Statistics()
	assert.Equal(t, 3, st.TotalSubmissions)
	assert.Equal(t, 1, st.VerifiedSubmissions)
	assert.Equal(t, 1, st.PendingSubmissions)
	assert.Equal(t, 1, st.RejectedSubmissions)
	assert.Equal(t, 3, st.Verifiers)
	assert.Equal(t, 1, st.PendingChallenges)
	assert.Equal(t, uint64(4), st.TotalVerifications)
	assert.Equal(t, uint64(75), st.AcceptanceRate)
	assert.Equal(t, 15*time.Minute, st.AverageVerificationTime)
}

func TestRepositoryLinkage(t *testing.T) {
	o, _, _ := newTestOracle(t)

	require.NoError(t, o.LinkGitRepository("quin", "https://github.com/quin/work"))
	repo, ok := o.LinkedRepository("quin")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/quin/work", repo)

	require.ErrorIs(t, o.LinkGitRepository("quin", "not a url"), ErrInvalidRepository)
}

func TestVerifyGitCommit(t *testing.T) {
	clk := clock.NewManual(epoch)
	git := &fakeGit{known: map[string]bool{"https://github.com/r/s@abcdef1": true}}
	o := New(Params{Quorum: 3, GitTimeout: 20 * time.Millisecond}, clk, hashing.Blake3{}, &fakeSink{}, git)

	ok, err := o.VerifyGitCommit(context.Background(), "https://github.com/r/s", "abcdef1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.VerifyGitCommit(context.Background(), "https://github.com/r/s", "abcdef2")
	require.NoError(t, err)
	assert.False(t, ok)

	git.block = true
	_, err = o.VerifyGitCommit(context.Background(), "https://github.com/r/s", "abcdef1")
	require.ErrorIs(t, err, ErrVerificationTimeout)

	nogit := New(DefaultParams(), clk, hashing.Blake3{}, &fakeSink{}, nil)
	_, err = nogit.VerifyGitCommit(context.Background(), "https://github.com/r/s", "abcdef1")
	require.ErrorIs(t, err, ErrNoGitVerifier)
}

func TestAuditLogRecordsActions(t *testing.T) {
	o, _, _ := newTestOracle(t)
	id := submit(t, o, "alice")
	_, err := o.VerifySubmission(id, "v1", true, "")
	require.NoError(t, err)

	log := o.AuditLog()
	require.Len(t, log, 5)
	assert.Equal(t, "register_verifier", log[0].Action)
	assert.Equal(t, "submit_score", log[3].Action)
	assert.Equal(t, id, log[4].Target)
	assert.Equal(t, "v1", log[4].Actor)
	assert.Equal(t, uint64(5), log[4].Seq)
}
