package oracle

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type VerificationRecord struct {
	Verifier string
	Approved bool
	Notes    string
	At       time.Time
}

// levelFor classifies a submission after its count-th verification.
func levelFor(count int, approved bool, quorum int) Level {
	switch {
	case count >= quorum && approved:
		return AuditComplete
	case count >= quorum || !approved:
		return Basic
	default:
		return Advanced
	}
}

// VerifySubmission appends an attestation. The level only ever advances; AuditComplete
// is terminal.
func (o *Oracle) VerifySubmission(id, verifier string, approved bool, notes string) (Level, error) {
	s, ok := o.submissions[id]
	if !ok {
		return Unverified, ErrUnknownSubmission
	}
	if !o.verifiers[verifier] {
		zap.L().Warn("Verification from unregistered address rejected",
			zap.String("submission_id", id),
			zap.String("verifier", verifier))
		return s.Level, ErrNotAVerifier
	}
	for _, rec := range s.Records {
		if rec.Verifier == verifier {
			return s.Level, ErrAlreadyVerified
		}
	}
	if s.Upheld {
		return s.Level, fmt.Errorf("%w: %s", ErrChallengeUpheld, id)
	}

	s.Records = append(s.Records, VerificationRecord{
		Verifier: verifier,
		Approved: approved,
		Notes:    notes,
		At:       o.clock.Now(),
	})
	s.VerifierCount++

	prev := s.Level
	if next := levelFor(s.VerifierCount, approved, o.params.Quorum); next > s.Level {
		s.Level = next
	}

	o.totalVerifications++
	st := o.stats[verifier]
	st.Verifications++
	if approved {
		o.acceptedVerifications++
		st.Approvals++
	} else {
		st.Rejections++
	}
	o.recordAction("verify_submission", verifier, id)

	zap.L().Info("Submission verified",
		zap.String("submission_id", id),
		zap.String("verifier", verifier),
		zap.Bool("approved", approved),
		zap.Int("verifier_count", s.VerifierCount),
		zap.Stringer("previous_level", prev),
		zap.Stringer("level", s.Level))
	return s.Level, nil
}

// RegisterWithDao forwards the submission's scores to the score sink, once.
func (o *Oracle) RegisterWithDao(id string) (uint64, error) {
	s, ok := o.submissions[id]
	if !ok {
		return 0, ErrUnknownSubmission
	}
	if s.Upheld {
		return 0, fmt.Errorf("%w: %s", ErrChallengeUpheld, id)
	}
	if s.Level < Advanced {
		return 0, fmt.Errorf("%w: %s is %s", ErrInsufficientVerification, id, s.Level)
	}
	if s.Forwarded {
		return 0, ErrAlreadyForwarded
	}

	composite, err := o.sink.SubmitCompositeScore(s.Contributor, s.Scores)
	if err != nil {
		return 0, fmt.Errorf("forwarding submission %s: %w", id, err)
	}
	s.Forwarded = true
	s.ForwardedAt = o.clock.Now()
	o.recordAction("register_with_dao", s.Contributor, id)

	zap.L().Info("Submission registered with governance",
		zap.String("submission_id", id),
		zap.String("contributor", s.Contributor),
		zap.Uint64("composite", composite))
	return composite, nil
}
