package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gardenseed/storefront/internal/app"
	"github.com/gardenseed/storefront/pkg/config"
	"github.com/gardenseed/storefront/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront", Output: os.Stderr})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	fs := flag.NewFlagSet("storefront", flag.ExitOnError)
	email := fs.String("email", os.Getenv("STOREFRONT_EMAIL"), "account email")
	password := fs.String("password", os.Getenv("STOREFRONT_PASSWORD"), "account password")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: storefront [-email e] [-password p] <command> [args]\n\ncommands:\n")
		for _, c := range commands {
			fmt.Fprintf(fs.Output(), "  %-28s %s\n", c.usage, c.help)
		}
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	a, err := app.New(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storefront", err)
		os.Exit(1)
	}
	code := run(ctx, a, *email, *password, fs.Args())
	if err := a.Close(); err != nil {
		logg.Error(ctx, "error closing storefront", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, a *app.App, email, password string, args []string) int {
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		return 2
	}

	if err := a.Start(ctx); err != nil {
		a.Logger.Error(ctx, "failed to restore session", err)
	}
	if cmd.auth && a.Session.CurrentUser() == nil {
		if email == "" {
			fmt.Fprintln(os.Stderr, "this command needs -email and -password")
			return 2
		}
		if err := a.Login(ctx, email, password); err != nil {
			a.Logger.Error(ctx, "login failed", err)
			return 1
		}
		if a.Session.CurrentUser() == nil {
			fmt.Fprintln(os.Stderr, "sign-in did not produce a backend user")
			return 1
		}
	}

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		a.Logger.Error(ctx, "command failed", err)
		return 1
	}
	return 0
}
