package main

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"

	"fairdraw/internal/fairness"
	"fairdraw/internal/models"

	"github.com/spf13/cobra"
)

var commitSeed string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Print the commitment hash for a server seed, generating one if none is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		var seed models.Hash
		if commitSeed == "" {
			if _, err := rand.Read(seed[:]); err != nil {
				return fmt.Errorf("failed to generate seed: %w", err)
			}
		} else {
			var err error
			if seed, err = models.ParseHash(commitSeed); err != nil {
				return err
			}
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "seed:       %s\n", seed)
		fmt.Fprintf(out, "commitment: %s\n", fairness.Commit(seed))
		return nil
	},
}

var (
	verifySeed       string
	verifySnapshot   string
	verifyCommitment string
	verifyTotal      uint64
	verifyCount      int
	verifyPublished  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute a round's random stream from its published fairness tuple",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := models.ParseHash(verifySeed)
		if err != nil {
			return fmt.Errorf("--seed: %w", err)
		}
		snap, err := models.ParseHash(verifySnapshot)
		if err != nil {
			return fmt.Errorf("--snapshot: %w", err)
		}
		out := cmd.OutOrStdout()

		if verifyCommitment != "" {
			commitment, err := models.ParseHash(verifyCommitment)
			if err != nil {
				return fmt.Errorf("--commitment: %w", err)
			}
			committed, err := fairness.NewCommitted(commitment)
			if err != nil {
				return err
			}
			if _, err := committed.Reveal(seed); err != nil {
				return err
			}
			fmt.Fprintln(out, "commitment: ok")
		}

		if verifyPublished != "" {
			published, err := parseNumbers(verifyPublished)
			if err != nil {
				return err
			}
			if err := fairness.Verify(seed, snap, verifyTotal, published); err != nil {
				return err
			}
			fmt.Fprintf(out, "stream: ok (%d draws)\n", len(published))
			return nil
		}

		numbers, err := fairness.DeriveRandomStream(seed, snap, verifyTotal, verifyCount)
		if err != nil {
			return err
		}
		for i, n := range numbers {
			fmt.Fprintf(out, "%d\t%d\n", i+1, n)
		}
		return nil
	},
}

func parseNumbers(s string) ([]uint64, error) {
	fields := strings.Split(s, ",")
	out := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--published: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func init() {
	commitCmd.Flags().StringVar(&commitSeed, "seed", "", "32-byte hex server seed")

	verifyCmd.Flags().StringVar(&verifySeed, "seed", "", "revealed server seed")
	verifyCmd.Flags().StringVar(&verifySnapshot, "snapshot", "", "snapshot value captured at close")
	verifyCmd.Flags().StringVar(&verifyCommitment, "commitment", "", "published commitment hash to check the seed against")
	verifyCmd.Flags().Uint64Var(&verifyTotal, "total", 0, "total weight of the round")
	verifyCmd.Flags().IntVar(&verifyCount, "count", 33, "number of draws to derive")
	verifyCmd.Flags().StringVar(&verifyPublished, "published", "", "comma separated published random numbers to compare")
	verifyCmd.MarkFlagRequired("seed")
	verifyCmd.MarkFlagRequired("snapshot")
	verifyCmd.MarkFlagRequired("total")
}
