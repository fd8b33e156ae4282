package main

import (
	"github.com/urfave/cli/v2"

	"github.com/layer-3/recipebook/adapters/store"
	"github.com/layer-3/recipebook/devserver"
	"github.com/layer-3/recipebook/ports"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the reference REST backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (overrides RECIPEBOOK_ADDR)",
			},
			&cli.StringFlag{
				Name:  "signing-key",
				Usage: "HMAC key for issued tokens (overrides RECIPEBOOK_SIGNING_KEY)",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := newInfra(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			if c.IsSet("addr") {
				rt.cfg.Addr = c.String("addr")
			}
			if c.IsSet("signing-key") {
				rt.cfg.SigningKey = c.String("signing-key")
			}

			var tokens ports.TokenStore
			if rt.redis != nil {
				tokens = store.NewRedisTokenStore(rt.redis)
			} else {
				tokens = store.NewMemoryTokenStore()
			}

			srv, err := devserver.New(rt.cfg, tokens, rt.eventPub, rt.logger)
			if err != nil {
				return err
			}
			return srv.Run(c.Context)
		},
	}
}
