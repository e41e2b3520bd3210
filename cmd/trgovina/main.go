package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/trgovina/internal/api"
	"github.com/erazemk/trgovina/internal/config"
	"github.com/erazemk/trgovina/internal/model"
	"github.com/erazemk/trgovina/internal/receipt"
	"github.com/erazemk/trgovina/internal/store"
)

const usage = `Usage: trgovina [flags] [command] [command flags]

Commands:
  serve                         answer JSON requests on stdin, one per line (default)
  export [-o <path>]            write a snapshot of all data (default: stdout)
  import -i <path> -yes         replace all data with a snapshot
  invoice-pdf -id <n> [-o <path>]
                                render an invoice as PDF
  stats                         print dashboard figures and table sizes as JSON

Flags:
  -c, -config <path>   config file (yaml, toml or json)
  -d, -db <path>       SQLite database path (default: trgovina.sqlite3)
  -l, -log <path>      log file path (default: no file, stderr only)
  -v, -verbose         log at debug level
  -h, -help            show this help and exit
`

// errUsage is returned after the usage text was printed for a bad invocation.
var errUsage = errors.New("invalid usage")

// env carries the process streams so commands can be tested.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, e env) int {
	fs := flag.NewFlagSet("trgovina", flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	var configPath, dbPath, logPath string
	var verbose bool
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")
	fs.StringVar(&logPath, "log", "", "")
	fs.StringVar(&logPath, "l", "", "")
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")
	fs.Usage = func() { fmt.Fprint(e.stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(e.stderr, "error: %v\n", err)
		return 1
	}
	// Flags override the config when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db", "d":
			cfg.DBPath = dbPath
		case "log", "l":
			cfg.LogPath = logPath
		case "verbose", "v":
			cfg.LogLevel = zerolog.DebugLevel.String()
		}
	})

	log, closeLog, err := setupLogger(cfg, e.stderr)
	if err != nil {
		fmt.Fprintf(e.stderr, "error: %v\n", err)
		return 1
	}
	defer closeLog()

	cmd, cmdArgs := "serve", []string(nil)
	if fs.NArg() > 0 {
		cmd, cmdArgs = fs.Arg(0), fs.Args()[1:]
	}

	switch cmd {
	case "serve", "export", "import", "invoice-pdf", "stats":
	default:
		fmt.Fprintf(e.stderr, "unknown command: %s\n", cmd)
		fmt.Fprint(e.stderr, usage)
		return 2
	}

	st, err := store.Open(cfg.DBPath, store.WithLogger(log))
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
		return 1
	}
	defer st.Close()
	log.Debug().Str("path", cfg.DBPath).Msg("database ready")

	switch cmd {
	case "serve":
		err = serve(ctx, st, cfg, log, e)
	case "export":
		err = exportCmd(ctx, st, cmdArgs, e)
	case "import":
		err = importCmd(ctx, st, cmdArgs, e)
	case "invoice-pdf":
		err = invoicePDFCmd(ctx, st, cfg, cmdArgs, e)
	case "stats":
		err = statsCmd(ctx, st, e)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, context.Canceled):
		log.Info().Msg("interrupted")
		return 130
	default:
		log.Error().Err(err).Str("command", cmd).Msg("command failed")
		fmt.Fprintf(e.stderr, "error: %v\n", err)
		return 1
	}
}

func serve(ctx context.Context, st *store.Store, cfg *config.Config, log zerolog.Logger, e env) error {
	router := api.NewRouter(st, api.Options{
		ShopName: cfg.ShopName,
		Location: time.Local,
		Logger:   log,
	})
	log.Info().Str("db", cfg.DBPath).Int("operations", len(router.Ops())).Msg("serving requests on stdin")
	if err := router.Serve(ctx, e.stdin, e.stdout); err != nil {
		return err
	}
	log.Info().Msg("input closed, shutting down")
	return nil
}

// subcommand parses the flags of one command.
func subcommand(name string, e env, args []string, define func(fs *flag.FlagSet)) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	define(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(e.stderr, "unexpected argument: %s\n", fs.Arg(0))
		return errUsage
	}
	return nil
}

// output opens path for writing, or returns stdout when path is empty or "-".
func output(path string, e env) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return e.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCmd(ctx context.Context, st *store.Store, args []string, e env) error {
	var out string
	if err := subcommand("export", e, args, func(fs *flag.FlagSet) {
		fs.StringVar(&out, "o", "", "output file")
	}); err != nil {
		return err
	}

	snap, err := st.ExportSnapshot(ctx)
	if err != nil {
		return err
	}
	w, closeOut, err := output(out, e)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		closeOut()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return closeOut()
}

func importCmd(ctx context.Context, st *store.Store, args []string, e env) error {
	var in string
	var yes bool
	if err := subcommand("import", e, args, func(fs *flag.FlagSet) {
		fs.StringVar(&in, "i", "", "snapshot file")
		fs.BoolVar(&yes, "yes", false, "confirm replacing all data")
	}); err != nil {
		return err
	}
	if in == "" {
		fmt.Fprintln(e.stderr, "import: -i <path> is required")
		return errUsage
	}
	if !yes {
		fmt.Fprintln(e.stderr, "import replaces all items, sales, invoices and alerts; pass -yes to continue")
		return errUsage
	}

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := model.DecodeSnapshot(f)
	if err != nil {
		return err
	}
	if err := st.ImportSnapshot(ctx, snap); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "imported %d items, %d sales, %d invoices, %d alerts\n",
		len(snap.Items), len(snap.Sales), len(snap.Invoices), len(snap.Alerts))
	return nil
}

func invoicePDFCmd(ctx context.Context, st *store.Store, cfg *config.Config, args []string, e env) error {
	var id int64
	var out string
	if err := subcommand("invoice-pdf", e, args, func(fs *flag.FlagSet) {
		fs.Int64Var(&id, "id", 0, "invoice id")
		fs.StringVar(&out, "o", "", "output file (default: derived from the invoice number)")
	}); err != nil {
		return err
	}
	if id <= 0 {
		fmt.Fprintln(e.stderr, "invoice-pdf: -id <n> is required")
		return errUsage
	}

	inv, err := st.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	doc, err := receipt.Render(inv, receipt.Options{ShopName: cfg.ShopName})
	if err != nil {
		return err
	}
	if out == "" {
		out = receipt.Filename(inv)
	}
	if err := os.WriteFile(out, doc, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "wrote %s\n", out)
	return nil
}

func statsCmd(ctx context.Context, st *store.Store, e env) error {
	stats, err := st.DashboardStats(ctx)
	if err != nil {
		return err
	}
	size, err := st.DatabaseSize(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Dashboard *model.DashboardStats `json:"dashboard"`
		Size      *model.DatabaseSize   `json:"size"`
	}{stats, size})
}
