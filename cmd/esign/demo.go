package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/storacha/go-esign/attest"
	"github.com/storacha/go-esign/config"
	"github.com/storacha/go-esign/core/ipld/codec/json"
	"github.com/storacha/go-esign/core/result/failure"
	fdm "github.com/storacha/go-esign/core/result/failure/datamodel"
	"github.com/storacha/go-esign/ledger"
	"github.com/storacha/go-esign/principal"
	"github.com/storacha/go-esign/principal/ed25519/signer"
	"github.com/storacha/go-esign/store"
	"github.com/storacha/go-esign/store/snapshot"
)

func demo(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	out := fs.String("snapshot", "", "write the resulting records to this CAR file (defaults to snapshot_path)")
	_ = fs.Parse(args)
	if *out == "" {
		*out = cfg.SnapshotPath
	}

	s, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	platform, err := attest.NewEd25519(cfg.AttestOptions()...)
	if err != nil {
		return err
	}
	l := ledger.New(s, cfg.LedgerOptions()...)

	originator, manager, employee := mustGenerate(), mustGenerate(), mustGenerate()
	for _, p := range []principal.Signer{originator, manager, employee} {
		if _, err := l.CreateProfile(ctx, p.DID()); err != nil {
			return err
		}
	}

	a, err := l.InitializeAgreement(ctx, originator.DID(), ledger.AgreementParams{
		Identifier:     "employment contract",
		CID:            "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		DescriptionCID: "bafkreifau35r7vi37tvbvfy3hdwvgb4tlflqf7zcdzeujqcjk3rsphiwte",
		TotalPackets:   2,
	})
	if err != nil {
		return err
	}
	fmt.Printf("agreement %s (%d packets)\n", a.Address, a.TotalPackets)

	required := manager.DID()
	if _, err := l.InitializeSignaturePacket(ctx, originator.DID(), a.Address, "manager", &required); err != nil {
		return err
	}
	if _, err := l.InitializeSignaturePacket(ctx, originator.DID(), a.Address, "employee", nil); err != nil {
		return err
	}

	signAs := func(party principal.Signer, identifier string) error {
		msg := ledger.SigningMessage(identifier, a.Address)
		sig := party.Sign(msg)
		assertion, err := platform.Verify(party.DID(), msg, sig)
		if err != nil {
			return err
		}
		params := ledger.SignParams{
			Signature:    sig,
			FinalizedCID: "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku",
			Signer:       party.DID(),
		}
		_, err = l.SignSignaturePacket(ctx, party.DID(), a.Address, identifier, params, assertion)
		return err
	}

	for _, step := range []struct {
		party      principal.Signer
		identifier string
	}{
		{manager, "manager"},
		{employee, "employee"},
	} {
		if err := signAs(step.party, step.identifier); err != nil {
			return err
		}
		current, err := l.Agreement(ctx, a.Address)
		if err != nil {
			return err
		}
		fmt.Printf("%s signed by %s: %d/%d %s\n", step.identifier, step.party.DID(), current.SignedPackets, current.TotalPackets, current.Status)
	}

	err = signAs(manager, "manager")
	if err == nil {
		return fmt.Errorf("manager packet signed twice")
	}
	rendered, rerr := renderFailure(err)
	if rerr != nil {
		return rerr
	}
	fmt.Printf("signing again: %s\n", rendered)

	return writeSnapshot(ctx, s, *out)
}

func writeSnapshot(ctx context.Context, s store.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := snapshot.Export(ctx, s, f)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d records to %s\n", n, path)
	return nil
}

// renderFailure formats a ledger failure as DAG-JSON.
func renderFailure(err error) (string, error) {
	model := fdm.FailureModel{Message: err.Error()}
	if name := failure.Name(err); name != "" {
		model.Name = &name
	}
	b, err := json.Encode(&model, fdm.FailureType())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func mustGenerate() principal.Signer {
	s, err := signer.Generate()
	if err != nil {
		panic(err)
	}
	return s
}
