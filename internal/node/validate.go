package node

import (
	"errors"
	"fmt"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidOperation marks an operation envelope that cannot be dispatched at all:
// unknown kind, missing fields or unparseable values.
var ErrInvalidOperation = errors.New("invalid operation")

// decoded is an operation with its string fields parsed into core types.
type decoded struct {
	op       models.Operation
	amount   uint64
	scores   governance.Scores
	evidence map[governance.Category]string
	vote     governance.VoteType
}

type requirement struct {
	name    string
	missing func(models.Operation) bool
}

var (
	needCaller   = requirement{"caller", func(op models.Operation) bool { return op.Caller == "" }}
	needAccount  = requirement{"account", func(op models.Operation) bool { return op.Account == "" }}
	needOwner    = requirement{"owner", func(op models.Operation) bool { return op.Owner == "" }}
	needAmount   = requirement{"amount", func(op models.Operation) bool { return op.Amount == "" }}
	needScores   = requirement{"scores", func(op models.Operation) bool { return len(op.Scores) == 0 }}
	needModule   = requirement{"module_id", func(op models.Operation) bool { return op.ModuleID == 0 }}
	needProposal = requirement{"proposal_id", func(op models.Operation) bool { return op.ProposalID == 0 }}
	needTitle    = requirement{"title", func(op models.Operation) bool { return op.Title == "" }}
	needVote     = requirement{"vote", func(op models.Operation) bool { return op.Vote == "" }}
	needID       = requirement{"id", func(op models.Operation) bool { return op.ID == "" }}
	needRepo     = requirement{"repo_url", func(op models.Operation) bool { return op.RepoURL == "" }}
)

var requirements = map[models.OperationKind][]requirement{
	models.OpTransfer:          {needAccount, needAmount},
	models.OpApprove:           {needAccount, needAmount},
	models.OpIncreaseAllowance: {needAccount, needAmount},
	models.OpDecreaseAllowance: {needAccount, needAmount},
	models.OpTransferFrom:      {needOwner, needAccount, needAmount},
	models.OpMint:              {needAccount, needAmount},
	models.OpBurn:              {needAccount, needAmount},
	models.OpRegisterAccount:   {needAccount},

	models.OpRegisterContributor: {needAccount},
	models.OpAssignFounder:       {needAccount},
	models.OpRecordScore:         {needAccount, needScores},
	models.OpApplyBonus:          {needAccount, needModule},
	models.OpCreateProposal:      {needCaller, needTitle},
	models.OpCastVote:            {needCaller, needProposal, needVote},
	models.OpCancelProposal:      {needCaller, needProposal},
	models.OpExecuteProposal:     {needProposal},
	models.OpFinalizeProposals:   {},
	models.OpDistributeRewards:   {},

	models.OpRegisterVerifier: {needAccount},
	models.OpRemoveVerifier:   {needAccount},
	models.OpSubmitScore:      {needAccount, needScores},
	models.OpVerifySubmission: {needCaller, needID},
	models.OpLinkRepository:   {needAccount, needRepo},
	models.OpChallenge:        {needCaller, needID},
	models.OpResolveChallenge: {needID},
	models.OpRegisterWithDao:  {needID},
}

// Validate checks an operation without looking at any state.
func Validate(op models.Operation) error {
	_, err := decode(op)
	return err
}

func decode(op models.Operation) (decoded, error) {
	d := decoded{op: op}

	reqs, ok := requirements[op.Kind]
	if !ok {
		return d, fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}
	for _, r := range reqs {
		if r.missing(op) {
			return d, fmt.Errorf("%w: %s requires %s", ErrInvalidOperation, op.Kind, r.name)
		}
	}

	if op.Amount != "" {
		amount, err := parseAmount(op.Amount)
		if err != nil {
			return d, err
		}
		d.amount = amount
	}

	if len(op.Scores) > 0 {
		for name, v := range op.Scores {
			c, err := governance.ParseCategory(name)
			if err != nil {
				return d, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
			}
			d.scores.Set(c, v)
		}
	}

	if len(op.Evidence) > 0 {
		d.evidence = make(map[governance.Category]string, len(op.Evidence))
		for name, text := range op.Evidence {
			c, err := governance.ParseCategory(name)
			if err != nil {
				return d, fmt.Errorf("%w: evidence: %v", ErrInvalidOperation, err)
			}
			d.evidence[c] = text
		}
	}

	if op.Vote != "" {
		vt, err := governance.ParseVoteType(op.Vote)
		if err != nil {
			return d, fmt.Errorf("%w: %v", ErrInvalidOperation, err)
		}
		d.vote = vt
	}

	return d, nil
}

// parseAmount reads a UC decimal such as "12.5" into smallest units.
func parseAmount(s string) (uint64, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrInvalidOperation, s, err)
	}
	units, ok := models.UCToUnits(amount)
	if !ok {
		return 0, fmt.Errorf("%w: amount %q is not a representable UC value", ErrInvalidOperation, s)
	}
	return units, nil
}
