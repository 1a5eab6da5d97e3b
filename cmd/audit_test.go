package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"fairdraw/internal/fairness"
	"fairdraw/internal/models"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommitCommand(t *testing.T) {
	seed := models.Hash{3}
	out, err := run(t, "commit", "--seed", seed.String())
	require.NoError(t, err)
	require.Contains(t, out, fairness.Commit(seed).String())
}

func TestVerifyCommand(t *testing.T) {
	seed, snap := models.Hash{1}, models.Hash{2}
	numbers, err := fairness.DeriveRandomStream(seed, snap, 100, 4)
	require.NoError(t, err)
	published := strings.Trim(strings.Join(strings.Fields(fmt.Sprint(numbers)), ","), "[]")

	out, err := run(t, "verify", "--seed", seed.String(), "--snapshot", snap.String(),
		"--total", "100", "--commitment", fairness.Commit(seed).String(), "--published", published)
	require.NoError(t, err)
	require.Contains(t, out, "commitment: ok")
	require.Contains(t, out, "stream: ok (4 draws)")

	_, err = run(t, "verify", "--seed", models.Hash{9}.String(), "--snapshot", snap.String(),
		"--total", "100", "--commitment", fairness.Commit(seed).String(), "--published", "")
	require.ErrorIs(t, err, models.ErrInvalidSeed)
}
