// Command callctl places a single call through the configured backend or
// edits the stored API keys, using the same configuration as the server.
//
//	callctl [-prompt P] <number>
//	callctl -test
//	callctl keys
//	callctl keys set <name> <value>
//	callctl keys delete <name>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/callpanel/internal/adapter/driven/callapi"
	sqliteadapter "github.com/ericfisherdev/callpanel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/callpanel/internal/application"
	"github.com/ericfisherdev/callpanel/internal/config"
	"github.com/ericfisherdev/callpanel/internal/domain/model"
)

var errCallFailed = errors.New("call failed")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errCallFailed) {
			fmt.Fprintln(os.Stderr, "callctl:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("callctl", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "prompt to send instead of the configured default")
	testCall := fs.Bool("test", false, "call the configured test number")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}

	encKey, err := sqliteadapter.DeriveKey(cfg.SecretKey)
	if err != nil {
		return err
	}
	store := sqliteadapter.NewAPIKeyRepo(db, encKey)

	backend, err := callapi.NewClient(cfg.BackendURL, cfg.CallTimeout, logger)
	if err != nil {
		return err
	}

	callSvc := application.NewCallService(backend, application.NewCredentialLoader(store), cfg.DefaultPrompt, cfg.TestNumber, logger)
	if err := callSvc.LoadCredentials(ctx); err != nil {
		fmt.Fprintln(out, "warning:", err)
	}

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "keys" {
		return runKeys(ctx, rest[1:], application.NewKeyService(store, callSvc), callSvc, out)
	}

	if *prompt != "" {
		callSvc.SetPrompt(*prompt)
	}

	var outcome model.CallState
	switch {
	case *testCall:
		outcome = callSvc.TestCall(ctx)
	case len(rest) == 1:
		outcome = callSvc.Initiate(ctx, rest[0])
	default:
		fs.Usage()
		return errors.New("expected exactly one phone number or -test")
	}

	printState(out, outcome)
	if outcome.Phase == model.CallPhaseFailed {
		return errCallFailed
	}
	return nil
}

func runKeys(ctx context.Context, args []string, keySvc *application.KeyService, callSvc *application.CallService, out io.Writer) error {
	switch {
	case len(args) == 0:
		masked := callSvc.MaskedCredentials()
		for _, name := range model.CredentialKeys {
			fmt.Fprintf(out, "%-20s %s\n", name, masked.Get(name))
		}
		return nil
	case args[0] == "set" && len(args) == 3:
		return keySvc.Save(ctx, args[1], args[2])
	case args[0] == "delete" && len(args) == 2:
		return keySvc.Delete(ctx, args[1])
	default:
		return errors.New("usage: callctl keys [set <name> <value> | delete <name>]")
	}
}

func printState(out io.Writer, s model.CallState) {
	fmt.Fprintln(out, s.Status)
	if s.ErrorDetails != "" {
		fmt.Fprintln(out, s.ErrorDetails)
	}
	if s.AIResponse != "" {
		fmt.Fprintln(out, s.AIResponse)
	}
}
