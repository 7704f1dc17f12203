package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountView is an account's balance in UC
type AccountView struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	Nonce   uint64          `json:"nonce"`
}

// TransactionRecord represents a transaction in an account's history
type TransactionRecord struct {
	Ref       string          `json:"ref"`
	Seq       uint64          `json:"seq"`
	Type      string          `json:"type"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// ContributorView summarizes a contributor's standing
type ContributorView struct {
	Address         string          `json:"address"`
	Tier            string          `json:"tier"`
	Founder         bool            `json:"founder"`
	CompositeScore  uint64          `json:"composite_score"`
	PointsEarned    uint64          `json:"points_earned"`
	VotingPower     uint64          `json:"voting_power"`
	RewardsReceived decimal.Decimal `json:"rewards_received"`
	PendingReward   decimal.Decimal `json:"pending_reward"`
	Balance         decimal.Decimal `json:"balance"`
	JoinedAt        time.Time       `json:"joined_at"`
	Submissions     []string        `json:"submissions,omitempty"`
}

// OracleStats mirrors the oracle's statistics in display form
type OracleStats struct {
	TotalSubmissions        uint64        `json:"total_submissions"`
	VerifiedSubmissions     uint64        `json:"verified_submissions"`
	PendingSubmissions      uint64        `json:"pending_submissions"`
	RejectedSubmissions     uint64        `json:"rejected_submissions"`
	Verifiers               uint64        `json:"verifiers"`
	PendingChallenges       uint64        `json:"pending_challenges"`
	AcceptanceRate          uint64        `json:"acceptance_rate"`
	AverageVerificationTime time.Duration `json:"average_verification_time"`
}

// HealthReport is the result of checking all three components
type HealthReport struct {
	Healthy     bool            `json:"healthy"`
	Ledger      string          `json:"ledger"`
	Registry    string          `json:"registry"`
	Journal     string          `json:"journal"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	Treasury    decimal.Decimal `json:"treasury"`
	CheckedAt   time.Time       `json:"checked_at"`
}
