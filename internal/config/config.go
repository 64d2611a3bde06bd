// Package config holds the resolved settings of a mint run.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Environment variables consulted when a flag is not given.
const (
	EnvRPCURL         = "SOLANA_RPC_URL"
	EnvKeypairPath    = "SOLANA_KEYPAIR_PATH"
	EnvDecimals       = "MINT_DECIMALS"
	EnvSupply         = "MINT_INITIAL_SUPPLY"
	EnvPostgresDSN    = "MINT_POSTGRES_DSN"
	EnvPushgatewayURL = "MINT_PUSHGATEWAY_URL"
	EnvLogLevel       = "MINT_LOG_LEVEL"
	EnvConfirmTimeout = "MINT_CONFIRM_TIMEOUT"
)

// Default values.
const (
	DefaultRPCURL         = "https://api.devnet.solana.com"
	DefaultDecimals       = "9"
	DefaultSupply         = "1000000"
	DefaultLogLevel       = "info"
	DefaultConfirmTimeout = 60 * time.Second
)

// DevnetMarker is the endpoint substring that enables the faucet airdrop.
const DevnetMarker = "devnet"

// MaxDecimals is the largest precision a mint can store (u8).
const MaxDecimals = 255

// MissingKeypairMessage is printed when no keypair source resolves.
const MissingKeypairMessage = "Provide --keypair <path> or set SOLANA_KEYPAIR_PATH in .env"

var (
	// ErrMissingKeypair is returned when neither flag nor env provides a keypair path.
	ErrMissingKeypair = errors.New(MissingKeypairMessage)

	// ErrInvalidDecimals is returned when decimals is not an integer in [0, 255].
	ErrInvalidDecimals = errors.New("invalid decimals")

	// ErrInvalidSupply is returned when supply is not a non-negative base-10 integer.
	ErrInvalidSupply = errors.New("invalid supply")
)

// Config is the resolved configuration of a single run.
type Config struct {
	RPCURL      string
	KeypairPath string
	Decimals    uint8
	// Supply is the whole-token supply as given, trimmed. It is validated
	// as a non-negative base-10 integer.
	Supply string

	PostgresDSN    string
	PushgatewayURL string
	LogLevel       string
	ConfirmTimeout time.Duration
}

// Raw holds configuration values as strings, already resolved through
// flag > env > default precedence.
type Raw struct {
	RPCURL         string
	KeypairPath    string
	Decimals       string
	Supply         string
	PostgresDSN    string
	PushgatewayURL string
	LogLevel       string
	ConfirmTimeout time.Duration
}

// Parse validates raw values and converts them into a Config.
// The keypair path is checked first so a missing keypair is always reported
// as ErrMissingKeypair regardless of other problems.
func Parse(raw Raw) (*Config, error) {
	if strings.TrimSpace(raw.KeypairPath) == "" {
		return nil, ErrMissingKeypair
	}

	decimals, err := ParseDecimals(raw.Decimals)
	if err != nil {
		return nil, err
	}

	supply := strings.TrimSpace(raw.Supply)
	if supply == "" {
		supply = DefaultSupply
	}
	if _, err := ParseSupply(supply); err != nil {
		return nil, err
	}

	rpcURL := raw.RPCURL
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}

	logLevel := raw.LogLevel
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}

	timeout := raw.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}

	return &Config{
		RPCURL:         rpcURL,
		KeypairPath:    raw.KeypairPath,
		Decimals:       decimals,
		Supply:         supply,
		PostgresDSN:    raw.PostgresDSN,
		PushgatewayURL: raw.PushgatewayURL,
		LogLevel:       logLevel,
		ConfirmTimeout: timeout,
	}, nil
}

// ParseDecimals parses a decimal precision. Empty input yields the default.
func ParseDecimals(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultDecimals
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q must be an integer between 0 and %d", ErrInvalidDecimals, s, MaxDecimals)
	}
	return uint8(v), nil
}

// ParseSupply parses a whole-token supply. Empty input yields the default.
func ParseSupply(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultSupply
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a base-10 integer", ErrInvalidSupply, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidSupply, s)
	}
	return v, nil
}

// IsDevnet reports whether the endpoint targets the test network.
func (c *Config) IsDevnet() bool {
	return strings.Contains(c.RPCURL, DevnetMarker)
}
