package oracle

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

type Challenge struct {
	ID           string
	SubmissionID string
	Challenger   string
	Reason       string
	OpenedAt     time.Time
	Resolved     bool
	Accepted     bool
	ResolvedAt   time.Time
}

func (o *Oracle) ChallengeVerification(submissionID, challenger, reason string) (string, error) {
	if _, ok := o.submissions[submissionID]; !ok {
		return "", ErrUnknownSubmission
	}
	if err := validateAddress(challenger); err != nil {
		return "", err
	}

	id := o.nextID("challenge", submissionID)
	o.challenges[id] = &Challenge{
		ID:           id,
		SubmissionID: submissionID,
		Challenger:   challenger,
		Reason:       reason,
		OpenedAt:     o.clock.Now(),
	}
	o.recordAction("challenge_verification", challenger, submissionID)

	zap.L().Info("Verification challenged",
		zap.String("challenge_id", id),
		zap.String("submission_id", submissionID),
		zap.String("challenger", challenger))
	return id, nil
}

// ResolveChallenge settles a challenge exactly once. Accepting it demotes the
// submission to Basic and bars further verification and forwarding. Points already
// forwarded to governance are not reversed.
func (o *Oracle) ResolveChallenge(challengeID string, accepted bool) error {
	c, ok := o.challenges[challengeID]
	if !ok {
		return ErrUnknownChallenge
	}
	if c.Resolved {
		return ErrAlreadyResolved
	}

	c.Resolved = true
	c.Accepted = accepted
	c.ResolvedAt = o.clock.Now()

	if accepted {
		s := o.submissions[c.SubmissionID]
		s.Upheld = true
		if s.Level > Basic {
			s.Level = Basic
		}
		if s.Forwarded {
			zap.L().Warn("Upheld challenge against an already forwarded submission",
				zap.String("submission_id", s.ID),
				zap.String("contributor", s.Contributor))
		}
	}
	o.recordAction("resolve_challenge", c.Challenger, challengeID)

	zap.L().Info("Challenge resolved",
		zap.String("challenge_id", challengeID),
		zap.Bool("accepted", accepted))
	return nil
}

func (o *Oracle) Challenge(id string) (Challenge, bool) {
	c, ok := o.challenges[id]
	if !ok {
		return Challenge{}, false
	}
	return *c, true
}

// PendingChallenges returns unresolved challenges ordered by opening time, then id.
func (o *Oracle) PendingChallenges() []Challenge {
	var out []Challenge
	for _, c := range o.challenges {
		if !c.Resolved {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].OpenedAt.Before(out[j].OpenedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
