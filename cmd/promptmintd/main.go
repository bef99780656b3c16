// promptmintd serves the prompt-reward minting API: it hashes prompt content,
// obtains authorization proofs from the Gateway, and submits mint
// transactions in direct, meta-transaction, and operator modes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/promptmint/promptmint/config"
	"github.com/promptmint/promptmint/gateway"
	"github.com/promptmint/promptmint/httpapi"
	"github.com/promptmint/promptmint/ledger"
	"github.com/promptmint/promptmint/mint"
	"github.com/promptmint/promptmint/noncer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(context.Background(), *configPath, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, log *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gatewayClient := gateway.NewClient(&gateway.Config{
		URL:         cfg.Gateway.URL,
		APIKey:      cfg.GatewayAPIKey,
		Timeout:     cfg.Gateway.Timeout,
		MaxAttempts: cfg.Gateway.MaxAttempts,
		BaseDelay:   cfg.Gateway.BaseDelay,
		Log:         log,
	})

	chains := make(map[uint64]mint.Chain, len(cfg.Chains))
	chainIDs := make([]uint64, 0, len(cfg.Chains))
	forwarderChainIDs := make([]uint64, 0, len(cfg.Chains))
	for _, chainCfg := range cfg.Chains {
		client, err := ledger.Dial(ctx, chainCfg.RPCURL, cfg.PrivateKey, chainCfg.ChainID, log)
		if err != nil {
			return fmt.Errorf("chain %s: %w", chainCfg.Name, err)
		}
		chains[chainCfg.ChainID] = mint.Chain{
			Ledger:            client,
			TokenContract:     chainCfg.TokenContract,
			ForwarderContract: chainCfg.ForwarderContract,
		}
		chainIDs = append(chainIDs, chainCfg.ChainID)
		if chainCfg.ForwarderContract != "" {
			forwarderChainIDs = append(forwarderChainIDs, chainCfg.ChainID)
		}
		log.Info("chain connected",
			"chain", chainCfg.Name, "chainId", chainCfg.ChainID,
			"signer", client.SignerAddress())
	}

	// Account nonces come from the wallet's pending count; forwarder nonces
	// from the forwarder contract's per-signer counter.
	txNonces := noncer.New(log)
	txNonces.Initialize(ctx, chainIDs, func(ctx context.Context, chainID uint64) (uint64, error) {
		chain := chains[chainID]
		return chain.Ledger.PendingNonce(ctx, chain.Ledger.SignerAddress())
	})

	fwdNonces := noncer.New(log.With("scope", "forwarder"))
	fwdNonces.Initialize(ctx, forwarderChainIDs, func(ctx context.Context, chainID uint64) (uint64, error) {
		chain := chains[chainID]
		return forwarderNonce(ctx, chain)
	})

	service, err := mint.NewService(mint.Config{
		Gateway:         gatewayClient,
		Chains:          chains,
		TxNonces:        txNonces,
		ForwarderNonces: fwdNonces,
		MetaTxValidity:  cfg.MetaTx.Validity,
		Log:             log,
	})
	if err != nil {
		return err
	}

	api := httpapi.NewServer(httpapi.Config{
		Service:  service,
		AdminKey: cfg.AdminKey,
		Log:      log,
	})

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// forwarderNonce reads the relay wallet's current nonce from the forwarder
// contract.
func forwarderNonce(ctx context.Context, chain mint.Chain) (uint64, error) {
	result, err := chain.Ledger.ReadContract(ctx, chain.ForwarderContract,
		ledger.ForwarderGetNonceABI, ledger.FunctionGetNonce,
		common.HexToAddress(chain.Ledger.SignerAddress()))
	if err != nil {
		return 0, err
	}
	nonce, ok := result.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected getNonce result type %T", result)
	}
	return nonce.Uint64(), nil
}
