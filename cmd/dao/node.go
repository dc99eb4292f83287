package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calehh/collector-dao/app"
	"github.com/calehh/collector-dao/config"
	"github.com/calehh/collector-dao/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

var homeDir string

var nodeCmd = &cobra.Command{
	Use:   "dao",
	Short: "Collector DAO node",
	Long: `A member governed organization that pools contributions and
spends them through proposals, votes and a timelock.`,
	SilenceUsage: true,
	RunE:         runNode,
}

func init() {
	nodeCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func loadConfig(home string) (*config.Config, error) {
	cfg := config.DefaultConfig(home)
	v := viper.New()
	v.SetConfigFile(filepath.Join(home, "config", "config.toml"))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Dao.Home = home
	return cfg, nil
}

func runNode(cmd *cobra.Command, args []string) error {
	if homeDir == "" {
		homeDir = os.ExpandEnv(config.DefaultHomeDir)
	}
	cfg, err := loadConfig(homeDir)
	if err != nil {
		return err
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	if logger, err = cmtflags.ParseLogLevel(cfg.LogLevel, logger, cmtconfig.DefaultLogLevel); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	pv := privval.LoadFilePV(cfg.PrivValidatorKeyFile(), cfg.PrivValidatorStateFile())
	nodeKey, err := p2p.LoadNodeKey(cfg.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("load node key: %w", err)
	}

	daoApp, err := app.NewDAOApp(cfg.Dao, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}
	node, err := nm.NewNode(
		cfg.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(daoApp),
		nm.DefaultGenesisDocProviderFunc(cfg.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(cfg.Instrumentation),
		logger,
	)
	if err != nil {
		daoApp.Stop()
		return fmt.Errorf("new node: %w", err)
	}

	daoApp.Start(node.BlockStore())
	if err = node.Start(); err != nil {
		daoApp.Stop()
		return fmt.Errorf("start node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Dao.IndexerEnable {
		if err = startIndexer(ctx, cfg, daoApp, logger); err != nil {
			logger.Error("indexer disabled", "err", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	cancel()

	done := make(chan error, 1)
	go func() {
		err := node.Stop()
		node.Wait()
		daoApp.Stop()
		done <- err
	}()
	select {
	case err = <-done:
		return err
	case <-time.After(shutdownTimeout):
		return errors.New("shutdown timed out")
	}
}

func startIndexer(ctx context.Context, cfg *config.Config, daoApp *app.DAOApp, logger cmtlog.Logger) error {
	rpcUrl, err := url.Parse(cfg.RPC.ListenAddress)
	if err != nil {
		return fmt.Errorf("parse rpc address: %w", err)
	}
	rpcUrl.Scheme = "http"
	idx, err := indexer.NewChainIndexer(logger, cfg.Dao.IndexerDBPath(), rpcUrl.String(), daoApp.Params().GracePeriod)
	if err != nil {
		return err
	}
	go func() {
		idx.Start(ctx, cfg.Dao.IndexerPollInterval)
		idx.Close()
	}()
	service := indexer.NewService(cfg.Dao.IndexerListen, idx)
	go func() {
		if err := service.Start(); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	return nil
}
