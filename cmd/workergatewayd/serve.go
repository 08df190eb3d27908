package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/giantswarm/workergateway/internal/config"
	"github.com/giantswarm/workergateway/internal/runtime"
	"github.com/giantswarm/workergateway/pkg/gateway"
	"github.com/giantswarm/workergateway/pkg/logging"
	"github.com/giantswarm/workergateway/pkg/supervisor"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway and supervised worker",
	Long: `Starts the gateway listener and the supervisor's worker process,
wired together via the GATEWAY_BASE_URL environment contract, and blocks
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "config.yaml", "path to config.yaml")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.Default()

	fc, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	gatewayConfig, err := fc.GatewayConfig()
	if err != nil {
		return fmt.Errorf("building gateway config: %w", err)
	}
	supervisorConfig, err := fc.SupervisorConfig()
	if err != nil {
		return fmt.Errorf("building supervisor config: %w", err)
	}

	registry := gateway.NewRegistry(logger)
	proxy := newProxyHandler(fmt.Sprintf("http://%s:%d", supervisorConfig.Host, supervisorConfig.Port))
	if _, err := registry.RegisterHandler("/work/:task", proxy, gateway.Template{}); err != nil {
		return fmt.Errorf("registering /work/:task: %w", err)
	}
	if _, err := registry.RegisterQueue("/events/:topic", 64, gateway.Template{}); err != nil {
		return fmt.Errorf("registering /events/:topic: %w", err)
	}

	healthy := make(chan struct{}, 1)
	onStatus := func(update supervisor.StatusUpdate) {
		logger.Info("Supervisor", "state transition %s -> %s", update.Previous, update.Current)
		if update.Current == supervisor.StateRunningHealthy {
			select {
			case healthy <- struct{}{}:
			default:
			}
		}
	}

	rt := runtime.New(gatewayConfig, registry, supervisorConfig, logger, onStatus)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Serve", "received interrupt, shutting down")
		cancel()
	}()

	startErrs := make(chan error, 1)
	go func() { startErrs <- rt.Start(ctx, func(err error) { logger.Error("Gateway", err, "listener error") }) }()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " waiting for worker to become healthy..."
	s.Start()
	select {
	case err := <-startErrs:
		s.Stop()
		if err != nil {
			return fmt.Errorf("starting runtime: %w", err)
		}
	case <-healthy:
		s.FinalMSG = "worker is healthy\n"
		s.Stop()
	case <-ctx.Done():
		s.Stop()
	case <-time.After(30 * time.Second):
		s.FinalMSG = "still waiting for worker health; continuing in background\n"
		s.Stop()
	}

	if rt.Listener() != nil {
		fmt.Printf("gateway listening on %s\n", rt.Listener().BoundAddr())
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), gatewayConfig.ShutdownGrace+5*time.Second)
	defer stopCancel()
	return rt.Stop(stopCtx)
}
