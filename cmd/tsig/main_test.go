package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/f3rmion/tsig/logging"
	"github.com/f3rmion/tsig/session"
)

func signatureLine(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "signature:") {
			return line
		}
	}
	t.Fatalf("no signature in output:\n%s", out)
	return ""
}

func TestRun(t *testing.T) {
	for _, curve := range []string{session.CurveSecp256k1, session.CurveBJJ} {
		t.Run(curve, func(t *testing.T) {
			seed := uint64(42)
			cfg := session.DefaultConfig()
			cfg.Curve = curve
			cfg.Threshold, cfg.Total = 3, 5
			cfg.Seed = &seed

			var first, second bytes.Buffer
			require.NoError(t, run(context.Background(), cfg, 64, logging.Discard(), &first))
			require.NoError(t, run(context.Background(), cfg, 64, logging.Discard(), &second))

			require.True(t, strings.HasPrefix(first.String(), "Success\n"))
			require.Equal(t, signatureLine(t, first.String()), signatureLine(t, second.String()))
		})
	}
}

func TestRunSignerSubset(t *testing.T) {
	seed := uint64(7)
	cfg := session.DefaultConfig()
	cfg.Threshold, cfg.Total = 3, 5
	cfg.Seed = &seed

	for _, signers := range []int{0, 3, 4} {
		cfg.Signers = signers
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), cfg, 32, logging.Discard(), &out), "signers=%d", signers)
		require.True(t, strings.HasPrefix(out.String(), "Success\n"))
	}

	cfg.Signers = 2
	var out bytes.Buffer
	require.Error(t, run(context.Background(), cfg, 32, logging.Discard(), &out))
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Threshold = 4

	var out bytes.Buffer
	require.Error(t, run(context.Background(), cfg, 32, logging.Discard(), &out))
	require.Empty(t, out.String())
}
