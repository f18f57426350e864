// Command gitmark binds a git repository's history to an evolving chain
// of transaction outputs.
//
// Usage:
//
//	gitmark init -voucher <file> [-amount N] [-fee N] [-force]
//	gitmark mark [-m message] [-fee N]
//	gitmark reconcile
//	gitmark verify [-remote domain] [-dnssec]
//	gitmark key export|import -file <path> [-global]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"

	"github.com/solidpayorg/gitmark-go/discover"
	"github.com/solidpayorg/gitmark-go/git"
	"github.com/solidpayorg/gitmark-go/mark"
	"github.com/solidpayorg/gitmark-go/network"
)

var logger = slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit(os.Args[2:])
	case "mark":
		err = cmdMark(os.Args[2:])
	case "reconcile":
		err = cmdReconcile(os.Args[2:])
	case "verify":
		err = cmdVerify(os.Args[2:])
	case "key":
		err = cmdKey(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "gitmark: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: gitmark <command> [options]

commands:
  init       redeem a funding voucher and start the chain
  mark       commit the working tree and advance the chain
  reconcile  resolve an interrupted advance
  verify     check the ledger against keys and the chain
  key        export or import the base key as a sealed file

run 'gitmark <command> -h' for command options
`)
}

// commonFlags holds flags shared by every subcommand.
type commonFlags struct {
	dir     string
	chain   string
	rpcURL  string
	rpcUser string
	rpcPass string
	verbose bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.dir, "C", ".", "repository directory")
	fs.StringVar(&c.chain, "chain", "", "chain identifier (default: gitmark.chain config, then regtest)")
	fs.StringVar(&c.rpcURL, "rpc-url", "", "node RPC URL (overrides GITMARK_RPC_URL)")
	fs.StringVar(&c.rpcUser, "rpc-user", "", "node RPC user")
	fs.StringVar(&c.rpcPass, "rpc-pass", "", "node RPC password")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")
	return c
}

// newMark wires the production collaborators for a repository.
func newMark(ctx context.Context, c *commonFlags, needChain bool) (*mark.Mark, error) {
	if c.verbose {
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	}
	cfg := &git.CLIConfigStore{Dir: c.dir}
	vcs := &git.CLIProvider{Dir: c.dir}

	var chain network.BlockchainService
	if needChain {
		name := c.chain
		if name == "" {
			if v, err := cfg.Get(ctx, git.KeyChain, git.ScopeLocal); err == nil {
				name = v
			} else {
				name = "regtest"
			}
		}
		rpcCfg, err := network.ResolveConfig(&network.RPCConfig{
			URL:      c.rpcURL,
			User:     c.rpcUser,
			Password: c.rpcPass,
		}, envMap(), name)
		if err != nil {
			return nil, err
		}
		logger.Debug("rpc endpoint resolved", "chain", name, "url", rpcCfg.URL)
		chain = network.NewRPCClient(*rpcCfg)
	}

	return mark.New(c.dir, cfg, vcs, chain)
}

func envMap() map[string]string {
	return map[string]string{
		"GITMARK_RPC_URL":  os.Getenv("GITMARK_RPC_URL"),
		"GITMARK_RPC_USER": os.Getenv("GITMARK_RPC_USER"),
		"GITMARK_RPC_PASS": os.Getenv("GITMARK_RPC_PASS"),
	}
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	c := registerCommon(fs)
	voucherFlag := fs.String("voucher", "", "voucher URI or file (default: .gitmark-voucher in the repository)")
	amount := fs.Uint64("amount", 0, "seed amount in satoshis (default: everything the voucher holds)")
	fee := fs.Uint64("fee", 0, "miner fee in satoshis")
	force := fs.Bool("force", false, "replace an existing ledger")
	global := fs.Bool("global", false, "store a generated base key in global git config")
	_ = fs.Parse(args)

	ctx := context.Background()
	m, err := newMark(ctx, c, true)
	if err != nil {
		return err
	}
	defer m.Close()

	v := *voucherFlag
	if v == "" && fs.NArg() > 0 {
		v = fs.Arg(0)
	}
	if v == "" {
		v = mark.VoucherPathDefault(c.dir)
	}

	spinner, _ := pterm.DefaultSpinner.Start("Redeeming voucher and broadcasting seed transaction...")
	res, err := m.Init(ctx, mark.InitOptions{
		Voucher:   v,
		Amount:    *amount,
		Fee:       *fee,
		Force:     *force,
		GlobalKey: *global,
	})
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()

	pterm.Success.Println(res.Message)
	pterm.Info.Printfln("ledger: %s", m.LedgerPath())
	return nil
}

func cmdMark(args []string) error {
	fs := flag.NewFlagSet("mark", flag.ExitOnError)
	c := registerCommon(fs)
	message := fs.String("m", "", "commit message")
	fee := fs.Uint64("fee", 0, "miner fee in satoshis")
	_ = fs.Parse(args)

	ctx := context.Background()
	m, err := newMark(ctx, c, true)
	if err != nil {
		return err
	}
	defer m.Close()

	spinner, _ := pterm.DefaultSpinner.Start("Committing and advancing the chain...")
	res, err := m.Advance(ctx, mark.AdvanceOptions{Message: *message, Fee: *fee})
	if err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()

	pterm.Success.Println(res.Message)
	pterm.Info.Printfln("record: %s", res.Record.URI())
	return nil
}

func cmdReconcile(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	c := registerCommon(fs)
	_ = fs.Parse(args)

	ctx := context.Background()
	m, err := newMark(ctx, c, true)
	if err != nil {
		return err
	}
	defer m.Close()

	res, err := m.Reconcile(ctx)
	if err != nil {
		return err
	}
	pterm.Success.Println(res.Message)
	return nil
}

func cmdKey(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: gitmark key export|import -file <path> [-global]")
	}
	sub := args[0]

	fs := flag.NewFlagSet("key "+sub, flag.ExitOnError)
	c := registerCommon(fs)
	file := fs.String("file", "", "sealed key file")
	global := fs.Bool("global", false, "on import, store the key in global git config")
	_ = fs.Parse(args[1:])

	if *file == "" {
		return fmt.Errorf("gitmark key %s: -file is required", sub)
	}

	ctx := context.Background()
	m, err := newMark(ctx, c, false)
	if err != nil {
		return err
	}
	defer m.Close()

	pass, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Passphrase")
	if err != nil {
		return err
	}

	switch sub {
	case "export":
		if err := m.ExportBaseKey(ctx, *file, pass); err != nil {
			return err
		}
		pterm.Success.Printfln("base key sealed to %s", *file)
	case "import":
		if err := m.ImportBaseKey(ctx, *file, pass, *global); err != nil {
			return err
		}
		pterm.Success.Println("base key imported into git config")
	default:
		return fmt.Errorf("gitmark key: unknown subcommand %q", sub)
	}
	return nil
}

func cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	c := registerCommon(fs)
	remote := fs.String("remote", "", "verify another repository's published ledger by domain")
	dnssec := fs.Bool("dnssec", false, "require DNSSEC-validated DNS answers during discovery")
	offline := fs.Bool("offline", false, "skip the unspent check against the node")
	_ = fs.Parse(args)

	if *dnssec {
		discover.DefaultResolver = discover.NewDNSSECResolver("")
	}

	ctx := context.Background()
	m, err := newMark(ctx, c, !*offline)
	if err != nil {
		return err
	}
	defer m.Close()

	var rep *mark.VerifyReport
	if *remote != "" {
		rep, err = m.VerifyRemote(ctx, *remote)
	} else {
		rep, err = m.Verify(ctx)
	}
	if err != nil {
		return err
	}

	if rep.LedgerURL != "" {
		pterm.Info.Printfln("ledger: %s", rep.LedgerURL)
	}
	pterm.Info.Printfln("records: %d (%d commits)", rep.Records, rep.Commits)
	pterm.Info.Printfln("current: %s", rep.Current.URI())
	switch {
	case *offline:
		pterm.Info.Println("unspent check skipped (offline)")
	case rep.Unspent:
		pterm.Success.Println("current output is unspent")
	default:
		pterm.Warning.Println("current output not found unspent on the node")
	}
	return nil
}
