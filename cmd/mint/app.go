package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"

	"solana-token-mint/internal/config"
	"solana-token-mint/internal/issuance"
	"solana-token-mint/internal/keypair"
	"solana-token-mint/internal/observability"
	"solana-token-mint/internal/solana"
	"solana-token-mint/internal/spl"
	"solana-token-mint/internal/storage"
	"solana-token-mint/internal/storage/memory"
	"solana-token-mint/internal/storage/migrations"
	"solana-token-mint/internal/storage/postgres"
)

// pushTimeout bounds the final pushgateway request.
const pushTimeout = 10 * time.Second

// runtime holds the process collaborators; tests swap the network ones.
type runtime struct {
	stdout io.Writer
	stderr io.Writer

	dotEnvPath   string
	newRPC       func(endpoint string, opts ...solana.ClientOption) solana.RPCClient
	dial         solana.DialFunc // nil dials gorilla/websocket
	pollInterval time.Duration
	newAccount   func() types.Account // mint keypair source
}

func defaultRuntime(stdout, stderr io.Writer) *runtime {
	return &runtime{
		stdout:     stdout,
		stderr:     stderr,
		dotEnvPath: config.DefaultDotEnvPath,
		newRPC: func(endpoint string, opts ...solana.ClientOption) solana.RPCClient {
			return solana.NewHTTPClient(endpoint, opts...)
		},
	}
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, rt *runtime) int {
	if err := config.LoadDotEnv(rt.dotEnvPath); err != nil {
		fmt.Fprintln(rt.stderr, err)
		return 1
	}

	if err := newApp(rt).RunContext(ctx, args); err != nil {
		fmt.Fprintln(rt.stderr, err)
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}

func newApp(rt *runtime) *cli.App {
	return &cli.App{
		Name:            "spl-mint",
		Usage:           "Create a new SPL token and mint its initial supply to the payer",
		Flags:           flags(),
		Writer:          rt.stdout,
		ErrWriter:       rt.stderr,
		HideHelpCommand: true,
		// run reports errors and picks the exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			if err := rt.mint(c); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "rpc",
			Usage:   "Solana RPC HTTP endpoint",
			EnvVars: []string{config.EnvRPCURL},
			Value:   config.DefaultRPCURL,
		},
		&cli.StringFlag{
			Name:    "keypair",
			Usage:   "Path to the payer keypair file (solana-keygen JSON)",
			EnvVars: []string{config.EnvKeypairPath},
		},
		&cli.StringFlag{
			Name:    "decimals",
			Usage:   "Mint decimals (0-255)",
			EnvVars: []string{config.EnvDecimals},
			Value:   config.DefaultDecimals,
		},
		&cli.StringFlag{
			Name:    "supply",
			Usage:   "Initial supply in whole tokens",
			EnvVars: []string{config.EnvSupply},
			Value:   config.DefaultSupply,
		},
		&cli.StringFlag{
			Name:    "postgres-dsn",
			Usage:   "PostgreSQL connection string for the issuance ledger (optional)",
			EnvVars: []string{config.EnvPostgresDSN},
		},
		&cli.StringFlag{
			Name:    "pushgateway",
			Usage:   "Prometheus pushgateway URL (optional)",
			EnvVars: []string{config.EnvPushgatewayURL},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: trace, debug, info, warn, error",
			EnvVars: []string{config.EnvLogLevel},
			Value:   config.DefaultLogLevel,
		},
		&cli.DurationFlag{
			Name:    "confirm-timeout",
			Usage:   "Maximum wait for each transaction confirmation",
			EnvVars: []string{config.EnvConfirmTimeout},
			Value:   config.DefaultConfirmTimeout,
		},
	}
}

func rawConfig(c *cli.Context) config.Raw {
	return config.Raw{
		RPCURL:         c.String("rpc"),
		KeypairPath:    c.String("keypair"),
		Decimals:       c.String("decimals"),
		Supply:         c.String("supply"),
		PostgresDSN:    c.String("postgres-dsn"),
		PushgatewayURL: c.String("pushgateway"),
		LogLevel:       c.String("log-level"),
		ConfirmTimeout: c.Duration("confirm-timeout"),
	}
}

func (rt *runtime) mint(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.Parse(rawConfig(c))
	if err != nil {
		return err
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "mint",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: rt.stderr,
	})

	// No network activity before the keypair is known to be valid.
	payer, err := keypair.Load(cfg.KeypairPath)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics("")
	if cfg.PushgatewayURL != "" {
		defer pushMetrics(metrics, cfg.PushgatewayURL, logger)
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	rpc := rt.newRPC(cfg.RPCURL,
		solana.WithCommitment(solana.CommitmentConfirmed),
		solana.WithCallObserver(metrics.ObserveRPCCall),
	)

	wsURL, err := solana.WebSocketURL(cfg.RPCURL)
	if err != nil {
		logger.Warn("no websocket endpoint, confirming by polling", "rpc", cfg.RPCURL, "error", err)
		wsURL = ""
	}

	confirmer := solana.NewConfirmer(solana.ConfirmerOptions{
		RPC:          rpc,
		Commitment:   solana.CommitmentConfirmed,
		WSEndpoint:   wsURL,
		Dial:         rt.dial,
		Timeout:      cfg.ConfirmTimeout,
		PollInterval: rt.pollInterval,
		Logger:       logger.Named("confirm"),
	})

	conn := spl.NewConnection(spl.ConnectionOptions{
		RPC:        rpc,
		Confirmer:  confirmer,
		Logger:     logger.Named("spl"),
		NewAccount: rt.newAccount,
	})

	logger.Debug("starting issuance", "rpc", cfg.RPCURL, "ws", wsURL,
		"decimals", cfg.Decimals, "supply", cfg.Supply)

	_, err = issuance.New(issuance.Options{
		Chain:   conn,
		Out:     rt.stdout,
		Store:   store,
		Metrics: metrics,
		Logger:  logger,
	}).Run(ctx, cfg, payer)
	return err
}

// openStore connects the issuance ledger: Postgres when a DSN is set,
// memory otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger hclog.Logger) (storage.IssuanceStore, func(), error) {
	if cfg.PostgresDSN == "" {
		return memory.NewIssuanceStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Debug("issuance ledger connected", "backend", "postgres", "migrations_applied", applied)
	return postgres.NewIssuanceStore(pool), pool.Close, nil
}

func pushMetrics(metrics *observability.Metrics, url string, logger hclog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	if err := metrics.Push(ctx, url); err != nil {
		logger.Warn("metrics push failed", "error", err)
		return
	}
	logger.Debug("metrics pushed", "url", url, "job", observability.PushJob)
}
