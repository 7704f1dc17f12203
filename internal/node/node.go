// Package node is the single writer in front of the ledger, the governance registry
// and the verification oracle. Every mutation goes through Apply under one write lock;
// reads share a read lock. Applied operations and the ledger postings they produce are
// mirrored into a journal store.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ucic-governance-go/internal/clock"
	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/hashing"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/oracle"
	"ucic-governance-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

type Config struct {
	InitialSupply uint64
	Governance    governance.Params
	Oracle        oracle.Params
	Clock         clock.Clock
	// Journal may be nil, in which case nothing is mirrored.
	Journal store.JournalStore
	// Git may be nil; commit verification then fails with oracle.ErrNoGitVerifier.
	Git oracle.GitVerifier
	// PromRegistry defaults to a private registry.
	PromRegistry prometheus.Registerer
	// Admin is the governance caller allowed to run privileged operations. Defaults
	// to DefaultAdmin.
	Admin string
}

type Node struct {
	mu       sync.RWMutex
	clock    clock.Clock
	ledger   *ledger.Ledger
	registry *governance.Registry
	oracle   *oracle.Oracle
	journal  store.JournalStore
	metrics  nodeMetrics
	admin    string
	seq      uint64
	cursor   int
}

// New builds the three components, wires the oracle to the registry and the registry
// to the ledger treasury, and journals the genesis posting.
func New(ctx context.Context, cfg Config) (*Node, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System()
	}
	promRegistry := cfg.PromRegistry
	if promRegistry == nil {
		promRegistry = prometheus.NewRegistry()
	}

	admin := cfg.Admin
	if admin == "" {
		admin = DefaultAdmin
	}
	if len(admin) > ledger.MaxAddressLength || ledger.IsReserved(admin) {
		return nil, fmt.Errorf("invalid governance admin %q", admin)
	}

	l := ledger.New(cfg.InitialSupply, clk)
	registry, err := governance.NewRegistry(cfg.Governance, clk, l)
	if err != nil {
		return nil, fmt.Errorf("unable to create governance registry: %w", err)
	}

	n := &Node{
		clock:    clk,
		ledger:   l,
		registry: registry,
		journal:  cfg.Journal,
		admin:    admin,
	}
	n.oracle = oracle.New(cfg.Oracle, clk, hashing.Blake3{}, registry, cfg.Git)
	n.metrics.init(promRegistry)

	// Operation records continue the journal's numbering so a restarted node appends
	// instead of colliding with an earlier run.
	if n.journal != nil {
		last, err := n.journal.LastOperationSeq(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to read journal position: %w", err)
		}
		n.seq = last
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.flushPostings(ctx, 0)
	n.updateGauges()

	zap.L().Info("Node initialized",
		zap.Uint64("initial_supply", cfg.InitialSupply),
		zap.Uint64("journal_seq", n.seq),
		zap.String("admin", admin),
		zap.Bool("journal", cfg.Journal != nil),
		zap.Bool("git_verifier", cfg.Git != nil))
	return n, nil
}

// Apply validates and applies one operation. Rejected operations are journaled too.
func (n *Node) Apply(ctx context.Context, op models.Operation) (models.Receipt, error) {
	d, err := decode(op)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.reject(ctx, op, err)
		return models.Receipt{}, err
	}
	return n.apply(ctx, d)
}

// ApplyBatch validates every operation concurrently and, only if all are well formed,
// applies them in order. Application stops at the first operation the core rejects;
// the receipts of the operations applied before it are returned with the error.
func (n *Node) ApplyBatch(ctx context.Context, ops []models.Operation) ([]models.Receipt, error) {
	batch := make([]decoded, len(ops))
	g, _ := errgroup.WithContext(ctx)
	for i := range ops {
		g.Go(func() error {
			d, err := decode(ops[i])
			if err != nil {
				return fmt.Errorf("operation %d: %w", i, err)
			}
			batch[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Warn("Batch rejected", zap.Int("size", len(ops)), zap.Error(err))
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	receipts := make([]models.Receipt, 0, len(batch))
	for i, d := range batch {
		if err := ctx.Err(); err != nil {
			return receipts, err
		}
		receipt, err := n.apply(ctx, d)
		if err != nil {
			return receipts, fmt.Errorf("operation %d (%s): %w", i, d.op.Kind, err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

func (n *Node) apply(ctx context.Context, d decoded) (models.Receipt, error) {
	n.seq++
	seq := n.seq
	ctx = models.WithOperationContext(ctx, models.OperationContext{Seq: seq, Kind: string(d.op.Kind)})

	result, err := n.dispatch(d)
	postings := n.flushPostings(ctx, seq)
	if err != nil {
		n.metrics.operations.WithLabelValues(string(d.op.Kind), models.OutcomeRejected).Inc()
		n.journalOperation(ctx, seq, d.op, models.OutcomeRejected, "", err)
		zap.L().Debug("Operation rejected",
			zap.Uint64("seq", seq),
			zap.String("kind", string(d.op.Kind)),
			zap.Error(err))
		return models.Receipt{}, err
	}

	n.metrics.operations.WithLabelValues(string(d.op.Kind), models.OutcomeApplied).Inc()
	n.journalOperation(ctx, seq, d.op, models.OutcomeApplied, result, nil)
	n.updateGauges()

	return models.Receipt{
		Seq:       seq,
		Kind:      d.op.Kind,
		Result:    result,
		Postings:  postings,
		AppliedAt: n.clock.Now(),
	}, nil
}

// reject journals an operation that failed decoding. Caller holds the write lock.
func (n *Node) reject(ctx context.Context, op models.Operation, err error) {
	n.seq++
	n.metrics.operations.WithLabelValues(string(op.Kind), models.OutcomeRejected).Inc()
	n.journalOperation(ctx, n.seq, op, models.OutcomeRejected, "", err)
}

// flushPostings journals every ledger transaction since the last flush and returns the
// refs of those that move value.
func (n *Node) flushPostings(ctx context.Context, opSeq uint64) []string {
	txs, cursor := n.ledger.TransactionsSince(n.cursor)
	n.cursor = cursor

	var refs []string
	for _, tx := range txs {
		if !tx.Kind.MovesValue() {
			continue
		}
		refs = append(refs, tx.Ref)
		if n.journal == nil {
			continue
		}
		err := n.journal.RecordPosting(ctx, store.PostingParams{
			Ref:          tx.Ref,
			Seq:          tx.Seq,
			OperationSeq: opSeq,
			Kind:         string(tx.Kind),
			Source:       tx.From,
			Destination:  tx.To,
			Amount:       tx.Amount,
			Timestamp:    tx.Timestamp,
		})
		n.journalError(err, "posting", zap.String("ref", tx.Ref))
	}
	return refs
}

func (n *Node) journalOperation(ctx context.Context, seq uint64, op models.Operation, outcome, result string, opErr error) {
	if n.journal == nil {
		return
	}
	payload, err := yaml.Marshal(op)
	if err != nil {
		n.journalError(err, "operation", zap.Uint64("seq", seq))
		return
	}
	record := models.OperationRecord{
		Seq:       seq,
		Kind:      string(op.Kind),
		Payload:   string(payload),
		Outcome:   outcome,
		Result:    result,
		AppliedAt: n.clock.Now(),
	}
	if opErr != nil {
		record.Error = opErr.Error()
	}
	n.journalError(n.journal.RecordOperation(ctx, record), "operation", zap.Uint64("seq", seq))
}

// journalError logs a failed journal write. Duplicate postings come from replaying a
// ledger history the journal already holds and are expected.
func (n *Node) journalError(err error, what string, fields ...zap.Field) {
	if err == nil {
		return
	}
	fields = append(fields, zap.Error(err))
	if errors.Is(err, store.ErrDuplicateTransaction) {
		zap.L().Debug("Journal entry already present", append(fields, zap.String("entry", what))...)
		return
	}
	n.metrics.journalErrors.Inc()
	zap.L().Error("Journal write failed", append(fields, zap.String("entry", what))...)
}

func (n *Node) updateGauges() {
	n.metrics.totalSupply.Set(float64(n.ledger.TotalSupply()))
	n.metrics.treasury.Set(float64(n.ledger.TreasuryBalance()))
	n.metrics.contributors.Set(float64(n.registry.ContributorCount()))
}

// VerifyCommit checks a commit through the oracle's git capability. It takes no lock:
// the check reads only immutable oracle configuration.
func (n *Node) VerifyCommit(ctx context.Context, repoURL, commitID string) (bool, error) {
	return n.oracle.VerifyGitCommit(ctx, repoURL, commitID)
}

// View runs fn under the read lock. fn must not retain or mutate the components.
func (n *Node) View(fn func(l *ledger.Ledger, r *governance.Registry, o *oracle.Oracle)) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	fn(n.ledger, n.registry, n.oracle)
}

// Admin returns the caller that privileged operations must carry.
func (n *Node) Admin() string {
	return n.admin
}

func (n *Node) Clock() clock.Clock {
	return n.clock
}

// Journal returns the configured journal store, or nil.
func (n *Node) Journal() store.JournalStore {
	return n.journal
}

// VerifyIntegrity checks the ledger and registry invariants.
func (n *Node) VerifyIntegrity() error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if err := n.ledger.Reconcile(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := n.registry.VerifyIntegrity(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	return nil
}
