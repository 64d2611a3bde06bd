package stub

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"sync"

	"github.com/mr-tron/base58"

	"solana-token-mint/internal/solana"
)

// DefaultBlockhash is returned by GetLatestBlockhash unless overridden.
const DefaultBlockhash = "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"

// RPCClient implements solana.RPCClient for testing.
// Every submitted signature is reported as confirmed unless listed in Statuses.
type RPCClient struct {
	mu sync.Mutex

	Blockhash   string
	RentPerByte uint64
	Accounts    map[string]*solana.AccountInfo
	Statuses    map[string]*solana.SignatureStatus

	// Errors makes the named method fail.
	Errors map[string]error

	// OnSend runs after a transaction is accepted, e.g. to materialize accounts.
	OnSend func(rawTx []byte, signature string)

	// Calls records method names in call order.
	Calls []string
	// Sent holds submitted transactions in order.
	Sent [][]byte
	// Airdrops records requested lamports keyed by recipient.
	Airdrops map[string]uint64
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash:   DefaultBlockhash,
		RentPerByte: 6960,
		Accounts:    make(map[string]*solana.AccountInfo),
		Statuses:    make(map[string]*solana.SignatureStatus),
		Errors:      make(map[string]error),
		Airdrops:    make(map[string]uint64),
	}
}

func (c *RPCClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, method)
	return c.Errors[method]
}

// CallCount returns how many times method was invoked.
func (c *RPCClient) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.Calls {
		if m == method {
			n++
		}
	}
	return n
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	if err := c.record("getLatestBlockhash"); err != nil {
		return nil, err
	}
	return &solana.Blockhash{Blockhash: c.Blockhash, LastValidBlockHeight: 1000}, nil
}

// GetMinimumBalanceForRentExemption returns a size-proportional rent.
func (c *RPCClient) GetMinimumBalanceForRentExemption(_ context.Context, size uint64) (uint64, error) {
	if err := c.record("getMinimumBalanceForRentExemption"); err != nil {
		return 0, err
	}
	return (size + 128) * c.RentPerByte, nil
}

// GetAccountInfo retrieves an account from the stub store.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.record("getAccountInfo"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	infoCopy := *info
	return &infoCopy, nil
}

// SendTransaction stores the transaction and returns a signature derived from it.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte) (string, error) {
	if err := c.record("sendTransaction"); err != nil {
		return "", err
	}
	sig := Signature(rawTx)

	c.mu.Lock()
	c.Sent = append(c.Sent, rawTx)
	onSend := c.OnSend
	c.mu.Unlock()

	if onSend != nil {
		onSend(rawTx, sig)
	}
	return sig, nil
}

// GetSignatureStatuses reports listed statuses, defaulting to confirmed.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures ...string) ([]*solana.SignatureStatus, error) {
	if err := c.record("getSignatureStatuses"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if st, ok := c.Statuses[sig]; ok {
			out[i] = st
			continue
		}
		out[i] = &solana.SignatureStatus{Slot: 1, ConfirmationStatus: solana.CommitmentConfirmed}
	}
	return out, nil
}

// RequestAirdrop records the airdrop and returns a synthetic signature.
func (c *RPCClient) RequestAirdrop(_ context.Context, pubkey string, lamports uint64) (string, error) {
	if err := c.record("requestAirdrop"); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.Airdrops[pubkey] += lamports
	c.mu.Unlock()
	return Signature([]byte("airdrop:" + pubkey)), nil
}

// SetAccount stores raw account data under pubkey.
func (c *RPCClient) SetAccount(pubkey, owner string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = &solana.AccountInfo{
		Lamports: 2039280,
		Owner:    owner,
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

// Signature derives a deterministic base58 signature from arbitrary bytes.
func Signature(data []byte) string {
	sum := sha512.Sum512(data)
	return base58.Encode(sum[:])
}

var _ solana.RPCClient = (*RPCClient)(nil)
