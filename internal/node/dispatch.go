package node

import (
	"errors"
	"fmt"
	"strconv"

	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/oracle"
)

// DefaultAdmin is the governance caller used when none is configured.
const DefaultAdmin = "governance"

var ErrUnauthorized = errors.New("unauthorized")

// privileged lists the operations only the governance caller may run. record_score
// and apply_bonus write points without the oracle quorum.
var privileged = map[models.OperationKind]bool{
	models.OpMint:             true,
	models.OpBurn:             true,
	models.OpAssignFounder:    true,
	models.OpRecordScore:      true,
	models.OpApplyBonus:       true,
	models.OpRegisterVerifier: true,
	models.OpRemoveVerifier:   true,
	models.OpResolveChallenge: true,
}

func (n *Node) authorize(op models.Operation) error {
	if privileged[op.Kind] && op.Caller != n.admin {
		return fmt.Errorf("%w: %s requires the governance caller, got %q", ErrUnauthorized, op.Kind, op.Caller)
	}
	return nil
}

// dispatch applies a decoded operation to its component and returns a short result:
// the ledger ref, the created id, or a summary. Caller holds the write lock.
func (n *Node) dispatch(d decoded) (string, error) {
	op := d.op
	if err := n.authorize(op); err != nil {
		return "", err
	}
	switch op.Kind {
	// Ledger
	case models.OpTransfer:
		tx, err := n.ledger.Transfer(op.Account, d.amount)
		return tx.Ref, err
	case models.OpApprove:
		tx, err := n.ledger.Approve(op.Account, d.amount)
		return tx.Ref, err
	case models.OpIncreaseAllowance:
		tx, err := n.ledger.IncreaseAllowance(op.Account, d.amount)
		return tx.Ref, err
	case models.OpDecreaseAllowance:
		tx, err := n.ledger.DecreaseAllowance(op.Account, d.amount)
		return tx.Ref, err
	case models.OpTransferFrom:
		tx, err := n.ledger.TransferFrom(op.Owner, op.Account, d.amount)
		return tx.Ref, err
	case models.OpMint:
		tx, err := n.ledger.Mint(op.Account, d.amount)
		return tx.Ref, err
	case models.OpBurn:
		tx, err := n.ledger.Burn(op.Account, d.amount)
		return tx.Ref, err
	case models.OpRegisterAccount:
		created, err := n.ledger.RegisterAccount(op.Account)
		if err != nil {
			return "", err
		}
		if created {
			return "created", nil
		}
		return "exists", nil

	// Governance
	case models.OpRegisterContributor:
		return "", n.registry.RegisterContributor(op.Account, op.Referrer)
	case models.OpAssignFounder:
		return "", n.registry.AssignFounder(op.Account)
	case models.OpRecordScore:
		points, err := n.registry.SubmitCompositeScore(op.Account, d.scores)
		return strconv.FormatUint(points, 10), err
	case models.OpApplyBonus:
		return "", n.registry.ApplyModuleBonus(op.Account, op.ModuleID, op.Points)
	case models.OpCreateProposal:
		id, err := n.registry.CreateProposal(op.Caller, op.Title, op.Description)
		return strconv.FormatUint(id, 10), err
	case models.OpCastVote:
		return "", n.registry.CastVote(op.ProposalID, op.Caller, d.vote)
	case models.OpCancelProposal:
		return "", n.registry.CancelProposal(op.ProposalID, op.Caller)
	case models.OpExecuteProposal:
		return "", n.registry.ExecuteProposal(op.ProposalID)
	case models.OpFinalizeProposals:
		finalized := n.registry.FinalizeProposals(n.clock.Now())
		return fmt.Sprintf("%d finalized", len(finalized)), nil
	case models.OpDistributeRewards:
		report := n.registry.DistributeMonthlyRewards(n.clock.Now())
		return fmt.Sprintf("%d paid, %d failed, %s UC distributed",
			report.Paid, len(report.Failed), models.UnitsToUC(report.Distributed).String()), nil

	// Oracle
	case models.OpRegisterVerifier:
		return "", n.oracle.RegisterVerifier(op.Account)
	case models.OpRemoveVerifier:
		return "", n.oracle.RemoveVerifier(op.Account)
	case models.OpSubmitScore:
		return n.oracle.SubmitScore(oracle.SubmitParams{
			Contributor:  op.Account,
			Submitter:    op.Caller,
			Scores:       d.scores,
			Evidence:     d.evidence,
			RepoURL:      op.RepoURL,
			CommitID:     op.CommitID,
			EvidenceHash: op.EvidenceHash,
		})
	case models.OpVerifySubmission:
		level, err := n.oracle.VerifySubmission(op.ID, op.Caller, op.Approved, op.Notes)
		return level.String(), err
	case models.OpLinkRepository:
		return "", n.oracle.LinkGitRepository(op.Account, op.RepoURL)
	case models.OpChallenge:
		return n.oracle.ChallengeVerification(op.ID, op.Caller, op.Reason)
	case models.OpResolveChallenge:
		return "", n.oracle.ResolveChallenge(op.ID, op.Accepted)
	case models.OpRegisterWithDao:
		points, err := n.oracle.RegisterWithDao(op.ID)
		return strconv.FormatUint(points, 10), err
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
}
