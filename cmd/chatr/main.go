package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/app"
	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/config"
	"github.com/matheus3301/chatr/internal/session"
	"github.com/matheus3301/chatr/internal/tui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	baseURLFlag := flag.String("base-url", "", "backend base URL (overrides config)")
	flag.Parse()

	profile := session.Resolve(*profileFlag)
	if err := session.ValidateName(profile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var (
		svc    *chat.Service
		cfg    *config.Config
		logger *zap.Logger
	)
	fxApp := fx.New(
		app.Options(app.Params{Profile: profile, Lock: true, BaseURL: *baseURLFlag}),
		fx.Populate(&svc, &cfg, &logger),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.NewApp(svc, profile, cfg.BaseURL, logger).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
