package solana

import "context"

// RPCClient defines the Solana RPC HTTP methods used to issue a token.
type RPCClient interface {
	// GetLatestBlockhash returns a recent blockhash for transaction construction.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// GetMinimumBalanceForRentExemption returns the rent-exempt lamports for an account of size bytes.
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)

	// GetAccountInfo retrieves account info by public key. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// SendTransaction submits a signed, serialized transaction and returns its signature.
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)

	// GetSignatureStatuses returns statuses in request order; unknown signatures yield nil entries.
	GetSignatureStatuses(ctx context.Context, signatures ...string) ([]*SignatureStatus, error)

	// RequestAirdrop asks the cluster faucet for lamports and returns the airdrop signature.
	RequestAirdrop(ctx context.Context, pubkey string, lamports uint64) (string, error)
}
