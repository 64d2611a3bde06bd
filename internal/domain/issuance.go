package domain

// Issuance represents one completed token issuance.
// Corresponds to token_issuances table in PostgreSQL.
type Issuance struct {
	Mint         string  // mint address (PK)
	Payer        string  // payer and mint authority
	TokenAccount string  // payer's associated token account
	Decimals     uint8   // mint decimals
	Supply       string  // whole tokens, base-10
	Amount       string  // base units minted, base-10
	RPCEndpoint  string  // cluster the issuance ran against
	AirdropSig   *string // devnet airdrop signature (nullable)
	MintToSig    string  // mint-to transaction signature
	CreatedAt    int64   // completion timestamp (ms)
}
