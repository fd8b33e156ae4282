package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "recipebook",
		Usage:   "Recipe sharing client and reference backend",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-url",
				Usage: "backend base URL (overrides RECIPEBOOK_API_URL)",
			},
			&cli.StringFlag{
				Name:  "credentials",
				Usage: "credential file path (overrides RECIPEBOOK_CREDENTIALS)",
			},
			&cli.StringFlag{
				Name:  "redis-url",
				Usage: "keep credentials and session events in Redis (overrides REDIS_URL)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides RECIPEBOOK_LOG_LEVEL)",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			signUpCmd(),
			signInCmd(),
			whoAmICmd(),
			feedCmd(),
			dashboardCmd(),
			recipeCmd(),
			profileCmd(),
			likeCmd(),
			unlikeCmd(),
			commentCmd(),
			uncommentCmd(),
			followCmd(),
			unfollowCmd(),
			signOutCmd(),
		},
	}
}
