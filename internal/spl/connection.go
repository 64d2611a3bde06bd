// Package spl issues SPL tokens: mint creation, associated token accounts
// and minting, each submitted as a transaction and awaited to confirmation.
package spl

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashicorp/go-hclog"

	"solana-token-mint/internal/amount"
	"solana-token-mint/internal/solana"
)

// Confirmer blocks until a signature reaches the connection commitment.
type Confirmer interface {
	Confirm(ctx context.Context, signature string) error
}

// ConnectionOptions configures a Connection.
type ConnectionOptions struct {
	RPC       solana.RPCClient
	Confirmer Confirmer
	Logger    hclog.Logger
	// NewAccount generates mint keypairs; defaults to types.NewAccount.
	NewAccount func() types.Account
}

// Connection submits token program transactions over an RPC client.
type Connection struct {
	rpc        solana.RPCClient
	confirmer  Confirmer
	logger     hclog.Logger
	newAccount func() types.Account
}

// NewConnection creates a Connection.
func NewConnection(opts ConnectionOptions) *Connection {
	c := &Connection{
		rpc:        opts.RPC,
		confirmer:  opts.Confirmer,
		logger:     opts.Logger,
		newAccount: opts.NewAccount,
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	if c.newAccount == nil {
		c.newAccount = types.NewAccount
	}
	return c
}

// RequestAirdrop asks the faucet for lamports. The returned signature is not yet confirmed.
func (c *Connection) RequestAirdrop(ctx context.Context, to common.PublicKey, lamports uint64) (string, error) {
	sig, err := c.rpc.RequestAirdrop(ctx, to.ToBase58(), lamports)
	if err != nil {
		return "", fmt.Errorf("request airdrop: %w", err)
	}
	c.logger.Debug("airdrop requested", "to", to.ToBase58(), "lamports", lamports, "signature", sig)
	return sig, nil
}

// ConfirmTransaction blocks until signature is confirmed.
func (c *Connection) ConfirmTransaction(ctx context.Context, signature string) error {
	if err := c.confirmer.Confirm(ctx, signature); err != nil {
		return fmt.Errorf("confirm transaction: %w", err)
	}
	return nil
}

// CreateMint creates and initializes a new mint account funded by payer.
func (c *Connection) CreateMint(
	ctx context.Context,
	payer types.Account,
	mintAuthority common.PublicKey,
	freezeAuthority *common.PublicKey,
	decimals uint8,
) (common.PublicKey, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, MintSize)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("get mint rent: %w", err)
	}

	mint := c.newAccount()

	sig, err := c.sendAndConfirm(ctx, []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     payer.PublicKey,
			New:      mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: lamports,
			Space:    MintSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   decimals,
			Mint:       mint.PublicKey,
			MintAuth:   mintAuthority,
			FreezeAuth: freezeAuthority,
		}),
	}, payer, mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("create mint: %w", err)
	}

	c.logger.Debug("mint created", "mint", mint.PublicKey.ToBase58(), "decimals", decimals, "signature", sig)
	return mint.PublicKey, nil
}

// GetOrCreateAssociatedTokenAccount returns the associated token account of
// (mint, owner), creating it with payer as funder when it does not exist.
func (c *Connection) GetOrCreateAssociatedTokenAccount(
	ctx context.Context,
	payer types.Account,
	mint common.PublicKey,
	owner common.PublicKey,
) (*TokenAccount, error) {
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("find associated token address: %w", err)
	}

	info, err := c.rpc.GetAccountInfo(ctx, ata.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get associated token account: %w", err)
	}

	if info == nil {
		sig, sendErr := c.sendAndConfirm(ctx, []types.Instruction{
			associated_token_account.CreateAssociatedTokenAccount(
				associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 payer.PublicKey,
					Owner:                  owner,
					Mint:                   mint,
					AssociatedTokenAccount: ata,
				},
			),
		}, payer)
		if sendErr != nil {
			// Another funder may have created it concurrently; the re-read decides.
			c.logger.Debug("create associated token account failed", "ata", ata.ToBase58(), "error", sendErr)
		} else {
			c.logger.Debug("associated token account created", "ata", ata.ToBase58(), "signature", sig)
		}

		info, err = c.rpc.GetAccountInfo(ctx, ata.ToBase58())
		if err != nil {
			return nil, fmt.Errorf("get associated token account: %w", err)
		}
		if info == nil {
			if sendErr != nil {
				return nil, fmt.Errorf("create associated token account: %w", sendErr)
			}
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, ata.ToBase58())
		}
	}

	programID, err := PublicKeyFromBase58(info.Owner)
	if err != nil {
		return nil, err
	}
	if programID != common.TokenProgramID {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrInvalidAccountOwner, ata.ToBase58(), info.Owner)
	}

	data, err := info.DataBytes()
	if err != nil {
		return nil, err
	}
	acc, err := ParseTokenAccount(ata, data)
	if err != nil {
		return nil, err
	}
	if acc.Mint != mint {
		return nil, fmt.Errorf("%w: %s holds %s", ErrInvalidMint, ata.ToBase58(), acc.Mint.ToBase58())
	}
	if acc.Owner != owner {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrInvalidOwner, ata.ToBase58(), acc.Owner.ToBase58())
	}
	return acc, nil
}

// MintTo mints base-unit amt of mint into destination, authorized by authority.
func (c *Connection) MintTo(
	ctx context.Context,
	payer types.Account,
	mint common.PublicKey,
	destination common.PublicKey,
	authority types.Account,
	amt *big.Int,
) (string, error) {
	units, err := amount.Uint64(amt)
	if err != nil {
		return "", fmt.Errorf("mint to: %w", err)
	}

	signers := []types.Account{payer}
	if authority.PublicKey != payer.PublicKey {
		signers = append(signers, authority)
	}

	sig, err := c.sendAndConfirm(ctx, []types.Instruction{
		token.MintTo(token.MintToParam{
			Mint:   mint,
			To:     destination,
			Auth:   authority.PublicKey,
			Amount: units,
		}),
	}, signers...)
	if err != nil {
		return "", fmt.Errorf("mint to: %w", err)
	}

	c.logger.Debug("minted", "mint", mint.ToBase58(), "to", destination.ToBase58(), "amount", units, "signature", sig)
	return sig, nil
}

// sendAndConfirm builds a transaction paid by signers[0], submits it and
// waits for confirmation.
func (c *Connection) sendAndConfirm(ctx context.Context, instructions []types.Instruction, signers ...types.Account) (string, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: signers,
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        signers[0].PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    instructions,
		}),
	})
	if err != nil {
		return "", fmt.Errorf("new transaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := c.rpc.SendTransaction(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	if err := c.confirmer.Confirm(ctx, sig); err != nil {
		return sig, err
	}
	return sig, nil
}
