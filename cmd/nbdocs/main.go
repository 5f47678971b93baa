package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/nbdocs/cmd/nbdocs/commands"
	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/nbdocs/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("nbdocs"),
		kong.Description("Convert a tree of notebooks into a static documentation site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&commands.Global{Stdout: os.Stdout}),
	)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	err = kctx.Run()
	return ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err, os.Stderr)
}
