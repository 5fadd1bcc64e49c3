package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/storacha/go-esign/config"
	"github.com/storacha/go-esign/store"
	"github.com/storacha/go-esign/store/pgstore"
)

var log = logging.Logger("esign")

const usage = `usage: esign [-config FILE] <command> [flags]

commands:
  demo     run the two party employment agreement end to end
  inspect  print the records of a snapshot
`

func main() {
	fs := flag.NewFlagSet("esign", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	configPath := fs.String("config", "", "TOML configuration file")
	_ = fs.Parse(os.Args[1:])

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(2)
	}
	ctx := context.Background()
	var err error
	switch cmd, args := fs.Arg(0), fs.Args()[1:]; cmd {
	case "demo":
		err = demo(ctx, cfg, args)
	case "inspect":
		err = inspect(cfg, args)
	default:
		fs.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Errorw("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore returns the Postgres store when a database is configured and a
// fresh memory store otherwise.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemoryStore(), func() {}, nil
	}
	pool, err := pgstore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	s := pgstore.New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}
