package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/georgemunganga/qrpay/internal/modules/cashier"
	"github.com/georgemunganga/qrpay/internal/modules/customer"
	"github.com/georgemunganga/qrpay/internal/modules/document"
	"github.com/georgemunganga/qrpay/internal/modules/events"
	"github.com/georgemunganga/qrpay/internal/modules/qrcode"
	"github.com/georgemunganga/qrpay/internal/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			return server.Run(ctx, cfg)
		},
	}
}

func customerCommand() *cli.Command {
	return &cli.Command{
		Name:  "customer",
		Usage: "start a transaction, print its QR code and follow its status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "png", Usage: "also write the QR image to this file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := requireSharedStore(cfg); err != nil {
				return err
			}
			store, err := document.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			publisher, err := events.Open(cfg)
			if err != nil {
				return err
			}
			defer publisher.Close()

			encoder := qrcode.NewEncoder(qrcode.DefaultScale)
			sess := customer.NewSession(store, encoder, publisher)
			defer sess.Close()
			if err := sess.Start(ctx); err != nil {
				if sess.Status().IsError() {
					fmt.Fprintln(os.Stdout, sess.Status().Message())
				}
				return err
			}

			art, err := encoder.Text(sess.ID())
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, art)
			fmt.Fprintf(os.Stdout, "transaction %s\n", sess.ID())

			if path := cmd.String("png"); path != "" {
				img := sess.Image()
				if err := os.WriteFile(path, img.PNG, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "wrote %s (%dx%d, %s)\n", path, img.Size, img.Size, humanize.Bytes(uint64(len(img.PNG))))
			}

			updates, err := sess.ObserveStatus(ctx)
			if err != nil {
				return err
			}
			for st := range updates {
				fmt.Fprintf(os.Stdout, "status: %s\n", describe(st.View().Label, st.String()))
			}
			return nil
		},
	}
}

func cashierCommand() *cli.Command {
	return &cli.Command{
		Name:  "cashier",
		Usage: "scan a payload, select a status and commit it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "payload", Usage: "decoded QR payload", Required: true},
			&cli.StringFlag{Name: "status", Usage: "status label to commit"},
			&cli.IntFlag{Name: "code", Usage: "status code to commit"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := requireSharedStore(cfg); err != nil {
				return err
			}
			store, err := document.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			publisher, err := events.Open(cfg)
			if err != nil {
				return err
			}
			defer publisher.Close()

			u := cashier.NewUpdater(store, cashier.NewLocalScanner(), cashier.Options{
				TerminalID: "cli",
				Retries:    cfg.CommitRetries,
				Publisher:  publisher,
			})
			if err := u.Open(); err != nil {
				return err
			}
			defer u.Close()

			if err := u.HandleScan(ctx, cmd.String("payload")); err != nil {
				return err
			}
			switch {
			case cmd.IsSet("status") && cmd.IsSet("code"):
				return errors.New("use either --status or --code")
			case cmd.IsSet("status"):
				err = u.SelectLabel(cmd.String("status"))
			case cmd.IsSet("code"):
				err = u.SelectCode(int(cmd.Int("code")))
			}
			if err != nil {
				u.Cancel()
				return err
			}

			txID, st, _ := u.Selection()
			if err := u.Confirm(ctx); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s -> %s\n", txID, describe(st.Label(), st.String()))
			return nil
		},
	}
}

func describe(label, name string) string {
	if label == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", label, name)
}
