package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ucic-governance-go/internal/governance"
	"ucic-governance-go/internal/ledger"
	"ucic-governance-go/internal/models"
	"ucic-governance-go/internal/node"
	"ucic-governance-go/internal/oracle"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// GovernanceConfig is the YAML form of the governance, oracle and genesis parameters.
// UC amounts are decimal strings such as "30" or "0.5".
type GovernanceConfig struct {
	InitialSupply         string            `yaml:"initial_supply"`
	MonthlyPool           string            `yaml:"monthly_pool"`
	VotingPeriod          time.Duration     `yaml:"voting_period"`
	TierThresholds        map[string]uint64 `yaml:"tier_thresholds"`
	RewardWeights         map[string]uint64 `yaml:"reward_weights"`
	FounderReservePercent uint64            `yaml:"founder_reserve_percent"`
	ModuleBonuses         map[uint32]uint64 `yaml:"module_bonuses"`
	Quorum                int               `yaml:"quorum"`
	GitTimeout            time.Duration     `yaml:"git_timeout"`
	Admin                 string            `yaml:"admin"`
	Founders              []string          `yaml:"founders"`
	Verifiers             []string          `yaml:"verifiers"`
}

func DefaultGovernanceConfig() *GovernanceConfig {
	params := governance.DefaultParams()
	oracleParams := oracle.DefaultParams()

	cfg := &GovernanceConfig{
		InitialSupply:         "1000",
		MonthlyPool:           models.UnitsToUC(params.MonthlyPool).String(),
		VotingPeriod:          params.VotingPeriod,
		TierThresholds:        make(map[string]uint64, len(params.TierThresholds)),
		RewardWeights:         make(map[string]uint64, len(params.RewardWeights)),
		FounderReservePercent: params.FounderReservePercent,
		ModuleBonuses:         params.ModuleBonuses,
		Quorum:                oracleParams.Quorum,
		GitTimeout:            oracleParams.GitTimeout,
		Admin:                 node.DefaultAdmin,
	}
	for tier, threshold := range params.TierThresholds {
		cfg.TierThresholds[tier.String()] = threshold
	}
	for tier, weight := range params.RewardWeights {
		cfg.RewardWeights[tier.String()] = weight
	}
	return cfg
}

// LoadGovernanceParams reads governanceFile on top of the defaults. A missing file
// yields the defaults.
func LoadGovernanceParams(governanceFile string) (*GovernanceConfig, error) {
	var governancePath string
	if filepath.IsAbs(governanceFile) {
		governancePath = governanceFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		governancePath = filepath.Join(wd, governanceFile)
	}

	cfg := DefaultGovernanceConfig()
	data, err := os.ReadFile(governancePath)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Info("No governance file found, using defaults", zap.String("file", governanceFile))
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", governanceFile, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", governanceFile, err)
	}
	if _, err := cfg.Params(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", governanceFile, err)
	}
	if _, err := cfg.Supply(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", governanceFile, err)
	}
	if cfg.Admin == "" || ledger.IsReserved(cfg.Admin) {
		return nil, fmt.Errorf("invalid %s: admin %q", governanceFile, cfg.Admin)
	}
	for i, addr := range cfg.Verifiers {
		if addr == "" {
			return nil, fmt.Errorf("verifier at index %d is empty", i)
		}
	}
	for i, addr := range cfg.Founders {
		if addr == "" {
			return nil, fmt.Errorf("founder at index %d is empty", i)
		}
	}

	zap.L().Info("Governance parameters loaded",
		zap.String("file", governanceFile),
		zap.String("initial_supply", cfg.InitialSupply),
		zap.String("monthly_pool", cfg.MonthlyPool),
		zap.String("admin", cfg.Admin),
		zap.Int("founders", len(cfg.Founders)),
		zap.Int("verifiers", len(cfg.Verifiers)))
	return cfg, nil
}

// Supply returns the initial supply in smallest units.
func (c *GovernanceConfig) Supply() (uint64, error) {
	return parseUC("initial_supply", c.InitialSupply)
}

// Params converts the registry part of the configuration and validates it.
func (c *GovernanceConfig) Params() (governance.Params, error) {
	pool, err := parseUC("monthly_pool", c.MonthlyPool)
	if err != nil {
		return governance.Params{}, err
	}

	params := governance.Params{
		VotingPeriod:          c.VotingPeriod,
		MonthlyPool:           pool,
		TierThresholds:        make(map[governance.Tier]uint64, len(c.TierThresholds)),
		RewardWeights:         make(map[governance.Tier]uint64, len(c.RewardWeights)),
		FounderReservePercent: c.FounderReservePercent,
		ModuleBonuses:         c.ModuleBonuses,
	}
	for name, threshold := range c.TierThresholds {
		tier, err := governance.ParseTier(name)
		if err != nil {
			return governance.Params{}, fmt.Errorf("tier_thresholds: %w", err)
		}
		params.TierThresholds[tier] = threshold
	}
	for name, weight := range c.RewardWeights {
		tier, err := governance.ParseTier(name)
		if err != nil {
			return governance.Params{}, fmt.Errorf("reward_weights: %w", err)
		}
		params.RewardWeights[tier] = weight
	}
	if err := params.Validate(); err != nil {
		return governance.Params{}, err
	}
	return params, nil
}

func (c *GovernanceConfig) OracleParams() oracle.Params {
	return oracle.Params{
		Quorum:     c.Quorum,
		GitTimeout: c.GitTimeout,
	}
}

func parseUC(field, s string) (uint64, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, err)
	}
	units, ok := models.UCToUnits(amount)
	if !ok {
		return 0, fmt.Errorf("%s %q is not a representable UC amount", field, s)
	}
	return units, nil
}
