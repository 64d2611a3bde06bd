// Package issuance runs a token issuance end to end.
// It coordinates: airdrop (devnet) → create mint → token account → mint to → record
package issuance

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashicorp/go-hclog"

	"solana-token-mint/internal/amount"
	"solana-token-mint/internal/config"
	"solana-token-mint/internal/domain"
	"solana-token-mint/internal/observability"
	"solana-token-mint/internal/spl"
	"solana-token-mint/internal/storage"
)

// AirdropSOL is the faucet amount requested on devnet.
const AirdropSOL = 2

// Step names used in logs and metrics.
const (
	StepAirdrop      = "airdrop"
	StepCreateMint   = "create_mint"
	StepTokenAccount = "token_account"
	StepMintTo       = "mint_to"
	StepRecord       = "record"
)

// Chain is the ledger the orchestrator issues on. spl.Connection implements it.
type Chain interface {
	RequestAirdrop(ctx context.Context, to common.PublicKey, lamports uint64) (string, error)
	ConfirmTransaction(ctx context.Context, signature string) error
	CreateMint(ctx context.Context, payer types.Account, mintAuthority common.PublicKey, freezeAuthority *common.PublicKey, decimals uint8) (common.PublicKey, error)
	GetOrCreateAssociatedTokenAccount(ctx context.Context, payer types.Account, mint, owner common.PublicKey) (*spl.TokenAccount, error)
	MintTo(ctx context.Context, payer types.Account, mint, destination common.PublicKey, authority types.Account, amt *big.Int) (string, error)
}

var _ Chain = (*spl.Connection)(nil)

// Options for creating Orchestrator.
type Options struct {
	// Required
	Chain Chain
	Out   io.Writer // result lines

	// Optional
	Store   storage.IssuanceStore
	Metrics *observability.Metrics
	Logger  hclog.Logger
	Now     func() time.Time
}

// Orchestrator issues one token per Run.
type Orchestrator struct {
	chain   Chain
	out     io.Writer
	store   storage.IssuanceStore
	metrics *observability.Metrics
	logger  hclog.Logger
	now     func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		chain:   opts.Chain,
		out:     opts.Out,
		store:   opts.Store,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if o.out == nil {
		o.out = io.Discard
	}
	if o.metrics == nil {
		o.metrics = observability.NewMetrics("")
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run issues a new token paid for and owned by payer.
// Steps:
//  1. Print the payer address
//  2. On devnet, airdrop 2 SOL to the payer and wait for confirmation
//  3. Create a mint with the payer as mint authority and no freeze authority
//  4. Get or create the payer's associated token account
//  5. Mint supply × 10^decimals base units into it
//  6. Record the issuance when a store is configured
//
// Every run creates a new mint; nothing is retried.
func (o *Orchestrator) Run(ctx context.Context, cfg *config.Config, payer types.Account) (*domain.Issuance, error) {
	supply, err := config.ParseSupply(cfg.Supply)
	if err != nil {
		return nil, err
	}

	issuance := &domain.Issuance{
		Payer:       payer.PublicKey.ToBase58(),
		Decimals:    cfg.Decimals,
		Supply:      supply.String(),
		RPCEndpoint: cfg.RPCURL,
	}

	o.println("Payer:", issuance.Payer)

	if cfg.IsDevnet() {
		sig, err := o.airdrop(ctx, payer.PublicKey)
		if err != nil {
			return nil, err
		}
		issuance.AirdropSig = &sig
		o.println("Airdropped 2 SOL to payer (devnet)")
	}

	var mint common.PublicKey
	err = o.step(StepCreateMint, func() error {
		var err error
		mint, err = o.chain.CreateMint(ctx, payer, payer.PublicKey, nil, cfg.Decimals)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create mint: %w", err)
	}
	issuance.Mint = mint.ToBase58()
	o.logger.Info("mint created", "mint", issuance.Mint, "decimals", cfg.Decimals)
	o.println("Created mint:", issuance.Mint)

	var ata *spl.TokenAccount
	err = o.step(StepTokenAccount, func() error {
		var err error
		ata, err = o.chain.GetOrCreateAssociatedTokenAccount(ctx, payer, mint, payer.PublicKey)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get or create token account: %w", err)
	}
	issuance.TokenAccount = ata.Address.ToBase58()
	o.logger.Debug("token account ready", "ata", issuance.TokenAccount)

	baseUnits := amount.BaseUnits(supply, cfg.Decimals)
	issuance.Amount = baseUnits.String()

	err = o.step(StepMintTo, func() error {
		if _, err := amount.Uint64(baseUnits); err != nil {
			return err
		}
		sig, err := o.chain.MintTo(ctx, payer, mint, ata.Address, payer, baseUnits)
		issuance.MintToSig = sig
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mint to: %w", err)
	}

	at := o.now()
	issuance.CreatedAt = at.UnixMilli()
	minted, _ := new(big.Float).SetInt(baseUnits).Float64()
	o.metrics.RecordMinted(minted, at)
	o.logger.Info("tokens minted", "mint", issuance.Mint, "ata", issuance.TokenAccount,
		"amount", issuance.Amount, "signature", issuance.MintToSig)

	o.println("Minted", cfg.Supply, "tokens to", issuance.TokenAccount)
	o.println("Mint address:", issuance.Mint)

	if o.store != nil {
		if err := o.record(ctx, issuance); err != nil {
			return issuance, err
		}
	}

	return issuance, nil
}

func (o *Orchestrator) airdrop(ctx context.Context, to common.PublicKey) (string, error) {
	var sig string
	err := o.step(StepAirdrop, func() error {
		var err error
		sig, err = o.chain.RequestAirdrop(ctx, to, amount.SOL(AirdropSOL))
		if err != nil {
			return err
		}
		return o.chain.ConfirmTransaction(ctx, sig)
	})
	if err != nil {
		return "", fmt.Errorf("airdrop: %w", err)
	}
	o.logger.Info("airdrop confirmed", "signature", sig)
	return sig, nil
}

func (o *Orchestrator) record(ctx context.Context, issuance *domain.Issuance) error {
	start := time.Now()
	err := o.store.Insert(ctx, issuance)
	o.metrics.RecordDBQuery("insert_issuance", time.Since(start), err)
	o.metrics.RecordStep(StepRecord, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("record issuance: %w", err)
	}
	o.logger.Debug("issuance recorded", "mint", issuance.Mint)
	return nil
}

// step runs fn and records its outcome.
func (o *Orchestrator) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	o.metrics.RecordStep(name, time.Since(start), err)
	if err != nil {
		o.logger.Debug("step failed", "step", name, "error", err)
	}
	return err
}

func (o *Orchestrator) println(a ...interface{}) {
	fmt.Fprintln(o.out, a...)
}
