package models

import "time"

// OperationKind names a state-changing operation accepted by the node
type OperationKind string

const (
	// Ledger
	OpTransfer          OperationKind = "transfer"
	OpApprove           OperationKind = "approve"
	OpIncreaseAllowance OperationKind = "increase_allowance"
	OpDecreaseAllowance OperationKind = "decrease_allowance"
	OpTransferFrom      OperationKind = "transfer_from"
	OpMint              OperationKind = "mint"
	OpBurn              OperationKind = "burn"
	OpRegisterAccount   OperationKind = "register_account"

	// Governance
	OpRegisterContributor OperationKind = "register_contributor"
	OpAssignFounder       OperationKind = "assign_founder"
	OpRecordScore         OperationKind = "record_score"
	OpApplyBonus          OperationKind = "apply_bonus"
	OpCreateProposal      OperationKind = "create_proposal"
	OpCastVote            OperationKind = "cast_vote"
	OpCancelProposal      OperationKind = "cancel_proposal"
	OpExecuteProposal     OperationKind = "execute_proposal"
	OpFinalizeProposals   OperationKind = "finalize_proposals"
	OpDistributeRewards   OperationKind = "distribute_rewards"

	// Oracle
	OpRegisterVerifier OperationKind = "register_verifier"
	OpRemoveVerifier   OperationKind = "remove_verifier"
	OpSubmitScore      OperationKind = "submit_score"
	OpVerifySubmission OperationKind = "verify_submission"
	OpLinkRepository   OperationKind = "link_repository"
	OpChallenge        OperationKind = "challenge"
	OpResolveChallenge OperationKind = "resolve_challenge"
	OpRegisterWithDao  OperationKind = "register_with_dao"
)

// OperationKinds lists every kind in dispatch order
var OperationKinds = []OperationKind{
	OpTransfer, OpApprove, OpIncreaseAllowance, OpDecreaseAllowance, OpTransferFrom,
	OpMint, OpBurn, OpRegisterAccount,
	OpRegisterContributor, OpAssignFounder, OpRecordScore, OpApplyBonus,
	OpCreateProposal, OpCastVote, OpCancelProposal, OpExecuteProposal,
	OpFinalizeProposals, OpDistributeRewards,
	OpRegisterVerifier, OpRemoveVerifier, OpSubmitScore, OpVerifySubmission,
	OpLinkRepository, OpChallenge, OpResolveChallenge, OpRegisterWithDao,
}

// Operation is the envelope for one state change. Which fields apply depends on Kind:
// Caller is the acting address (proposer, voter, verifier, challenger, submitter),
// Account is the address acted upon, and ID names a submission or challenge.
type Operation struct {
	Kind         OperationKind     `yaml:"kind" json:"kind"`
	Caller       string            `yaml:"caller,omitempty" json:"caller,omitempty"`
	Account      string            `yaml:"account,omitempty" json:"account,omitempty"`
	Owner        string            `yaml:"owner,omitempty" json:"owner,omitempty"`
	Referrer     string            `yaml:"referrer,omitempty" json:"referrer,omitempty"`
	Amount       string            `yaml:"amount,omitempty" json:"amount,omitempty"`
	ModuleID     uint32            `yaml:"module_id,omitempty" json:"module_id,omitempty"`
	Points       uint64            `yaml:"points,omitempty" json:"points,omitempty"`
	ProposalID   uint64            `yaml:"proposal_id,omitempty" json:"proposal_id,omitempty"`
	Title        string            `yaml:"title,omitempty" json:"title,omitempty"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Vote         string            `yaml:"vote,omitempty" json:"vote,omitempty"`
	Scores       map[string]uint8  `yaml:"scores,omitempty" json:"scores,omitempty"`
	Evidence     map[string]string `yaml:"evidence,omitempty" json:"evidence,omitempty"`
	EvidenceHash string            `yaml:"evidence_hash,omitempty" json:"evidence_hash,omitempty"`
	RepoURL      string            `yaml:"repo_url,omitempty" json:"repo_url,omitempty"`
	CommitID     string            `yaml:"commit_id,omitempty" json:"commit_id,omitempty"`
	ID           string            `yaml:"id,omitempty" json:"id,omitempty"`
	Approved     bool              `yaml:"approved,omitempty" json:"approved,omitempty"`
	Accepted     bool              `yaml:"accepted,omitempty" json:"accepted,omitempty"`
	Notes        string            `yaml:"notes,omitempty" json:"notes,omitempty"`
	Reason       string            `yaml:"reason,omitempty" json:"reason,omitempty"`
	Advance      time.Duration     `yaml:"advance,omitempty" json:"advance,omitempty"`
}

// Script is a replayable list of operations. Start fixes the replay clock; zero means
// the Unix epoch.
type Script struct {
	Start      time.Time   `yaml:"start"`
	Operations []Operation `yaml:"operations"`
}

// Receipt describes an applied operation
type Receipt struct {
	Seq       uint64        `json:"seq"`
	Kind      OperationKind `json:"kind"`
	Result    string        `json:"result,omitempty"`
	Postings  []string      `json:"postings,omitempty"`
	AppliedAt time.Time     `json:"applied_at"`
}
