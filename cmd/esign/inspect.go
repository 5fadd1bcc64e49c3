package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/storacha/go-esign/config"
	"github.com/storacha/go-esign/store/snapshot"
)

func inspect(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	path := fs.String("snapshot", cfg.SnapshotPath, "CAR file to read")
	_ = fs.Parse(args)

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := snapshot.Records(f)
	if err != nil {
		return err
	}
	for e, err := range records {
		if err != nil {
			return err
		}
		nd, err := ipld.Decode(e.Value, dagcbor.Decode)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", e.Key, err)
		}
		b, err := ipld.Encode(nd, dagjson.Encode)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", e.Key, err)
		}
		fmt.Printf("%s %s\n", e.Key, b)
	}
	return nil
}
