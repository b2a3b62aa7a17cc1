// Command tsig runs one complete threshold signing operation in a single
// process: trusted dealer, round 1, round 2, aggregation and verification.
// It prints the time spent in each phase.
//
//	tsig -n 5 -t 3 -msg-len 64
//	tsig -config tsig.json -seed 42
//	tsig -n 5 -t 3 -signers 3
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/f3rmion/tsig/logging"
	"github.com/f3rmion/tsig/session"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a JSON configuration (flags override it)")
		total      = flag.Int("n", 3, "number of participants")
		threshold  = flag.Int("t", 2, "signing threshold")
		signers    = flag.Int("signers", 0, "participants that sign (0 means all n)")
		msgLen     = flag.Int("msg-len", 32, "length of the random message to sign")
		seed       = flag.Uint64("seed", 0, "seed for deterministic randomness")
		curve      = flag.String("curve", session.CurveSecp256k1, "curve: secp256k1 or bjj")
		hasher     = flag.String("hasher", session.HasherSHA256, "hasher: sha256, blake2b or blake3")
		skipVerify = flag.Bool("skip-share-verification", false, "do not verify individual signature shares")
		verbose    = flag.Bool("v", false, "log protocol progress")
	)
	flag.Parse()

	cfg := session.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = session.LoadConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "n":
			cfg.Total = *total
		case "t":
			cfg.Threshold = *threshold
		case "signers":
			cfg.Signers = *signers
		case "seed":
			cfg.Seed = seed
		case "curve":
			cfg.Curve = *curve
		case "hasher":
			cfg.Hasher = *hasher
		case "skip-share-verification":
			verify := !*skipVerify
			cfg.VerifyShares = &verify
		}
	})
	if *msgLen < 0 {
		log.Fatalf("invalid -msg-len %d", *msgLen)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	base := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), cfg, *msgLen, logging.New(base), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Failure:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *session.Config, msgLen int, logger logging.Logger, out io.Writer) error {
	f, err := cfg.Build(logging.Slog(logger))
	if err != nil {
		return err
	}
	r := cfg.Rand()

	message := make([]byte, msgLen)
	if _, err := io.ReadFull(r, message); err != nil {
		return fmt.Errorf("generate message: %w", err)
	}

	logger.Info(ctx, "starting",
		"curve", f.Group().Name(),
		"threshold", cfg.Threshold,
		"total", cfg.Total,
		"signers", cfg.SignerCount(),
		logging.Redacted("seed"),
	)

	start := time.Now()
	deal, err := session.Deal(f, r, nil)
	if err != nil {
		return err
	}
	dealt := time.Now()

	signers := deal.Participants[:cfg.SignerCount()]
	coord, err := session.NewCoordinator(f, deal.PublicKeyPackage, message, session.WithLogger(logger))
	if err != nil {
		return err
	}

	sessions := make([]*session.SigningSession, len(signers))
	for i, p := range signers {
		sess, err := p.NewSigningSession(r)
		if err != nil {
			return err
		}
		if err := coord.AddCommitments(ctx, sess.ID(), sess.Commitments()); err != nil {
			return err
		}
		sessions[i] = sess
	}
	pkg, err := coord.SigningPackage(ctx)
	if err != nil {
		return err
	}
	round1 := time.Now()

	for _, sess := range sessions {
		share, err := sess.Sign(pkg)
		if err != nil {
			return err
		}
		if err := coord.AddSignatureShare(ctx, share); err != nil {
			return err
		}
	}
	round2 := time.Now()

	sig, err := coord.Aggregate(ctx)
	if err != nil {
		return err
	}
	aggregated := time.Now()

	if err := f.VerifySignature(message, sig, deal.PublicKeyPackage.GroupKey); err != nil {
		return err
	}
	verified := time.Now()

	fmt.Fprintln(out, "Success")
	fmt.Fprintf(out, "dealer:    %v\n", dealt.Sub(start))
	fmt.Fprintf(out, "round 1:   %v\n", round1.Sub(dealt))
	fmt.Fprintf(out, "round 2:   %v\n", round2.Sub(round1))
	fmt.Fprintf(out, "aggregate: %v\n", aggregated.Sub(round2))
	fmt.Fprintf(out, "verify:    %v\n", verified.Sub(aggregated))
	fmt.Fprintf(out, "signature: %x\n", sig.Bytes())
	return nil
}
