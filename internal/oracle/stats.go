package oracle

import "time"

type Statistics struct {
	TotalSubmissions      int
	VerifiedSubmissions   int
	PendingSubmissions    int
	RejectedSubmissions   int
	Verifiers             int
	PendingChallenges     int
	TotalVerifications    uint64
	AcceptedVerifications uint64
	// AcceptanceRate is an integer percentage, 0 before any verification.
	AcceptanceRate          uint64
	AverageVerificationTime time.Duration
}

// AcceptanceRate is accepted over total verifications, as an integer percentage.
func (o *Oracle) AcceptanceRate() uint64 {
	if o.totalVerifications == 0 {
		return 0
	}
	return o.acceptedVerifications * 100 / o.totalVerifications
}

// AverageVerificationTime is the mean delay between submission and its latest
// verification record, over submissions with at least one record.
func (o *Oracle) AverageVerificationTime() time.Duration {
	var total time.Duration
	var n int64
	for _, s := range o.submissions {
		if len(s.Records) == 0 {
			continue
		}
		total += s.Records[len(s.Records)-1].At.Sub(s.SubmittedAt)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func (o *Oracle) Statistics() Statistics {
	st := Statistics{
		TotalSubmissions:        len(o.submissions),
		Verifiers:               len(o.verifiers),
		PendingChallenges:       len(o.PendingChallenges()),
		TotalVerifications:      o.totalVerifications,
		AcceptedVerifications:   o.acceptedVerifications,
		AcceptanceRate:          o.AcceptanceRate(),
		AverageVerificationTime: o.AverageVerificationTime(),
	}
	for _, s := range o.submissions {
		switch {
		case s.Level == AuditComplete:
			st.VerifiedSubmissions++
		case s.Level == Unverified:
			st.PendingSubmissions++
		}
		if n := len(s.Records); n > 0 && !s.Records[n-1].Approved {
			st.RejectedSubmissions++
		}
	}
	return st
}
