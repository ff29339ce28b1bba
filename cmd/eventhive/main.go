// Command-line client for the EventHive booking API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/ds124wfegd/eventhive/config"
	"github.com/ds124wfegd/eventhive/internal/appClient"
	"github.com/ds124wfegd/eventhive/internal/entity"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...appClient.Option) int {
	fs := flag.NewFlagSet("eventhive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a config file (default ./config/config.yaml)")
	as := fs.String("as", "", "log in as email:password before running the command")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n", name)
		fs.Usage()
		return 2
	}

	viperInstance, err := config.LoadConfigFrom(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load config: %v\n", err)
		return 1
	}
	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		fmt.Fprintf(stderr, "Error: parse config: %v\n", err)
		return 1
	}

	app, err := appClient.New(ctx, cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintf(stderr, "Error: close store: %v\n", err)
		}
	}()

	c := &cli{app: app, out: stdout}
	if *as != "" {
		email, password, _ := strings.Cut(*as, ":")
		if _, err := app.Account.Login(ctx, entity.Credentials{Email: email, Password: password}); err != nil {
			return fail(stderr, err)
		}
	}

	if err := cmd.run(ctx, c, fs.Args()[1:]); err != nil {
		return fail(stderr, err)
	}
	return 0
}

func fail(w io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 2
	}
	fmt.Fprintf(w, "Error: %s\n", entity.UserMessage(err, err.Error()))
	if entity.IsAuthError(err) {
		fmt.Fprintln(w, "Please log in: eventhive login <email> <password>")
	}
	return 1
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: eventhive [-config file] [-as email:password] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}
