// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/suprsokr/go-rec"
)

const version = "0.1.0"

// NewRootCmd creates the root command for recanon.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recanon [flags] <input>...",
		Short: "Anonymize recorded-game files",
		Long: `recanon rewrites recorded-game files with player display names, rating
values and chat messages replaced, producing output that stays valid to
any reader of the original format.

By default every category is anonymized: names become "Player0",
"Player1" and so on, ratings become the unrated sentinel, and chat text
is emptied. Use the --keep-* flags to leave categories untouched.

Examples:
  # Anonymize a single recording
  recanon match.rec

  # Choose the output path
  recanon -o clean.rec match.rec

  # Anonymize a batch into one directory, keeping chat
  recanon --keep-chat --out-dir anonymized/ games/*.rec

  # Use custom pseudonyms from a YAML file
  recanon --names pseudonyms.yaml match.rec

Pseudonym file (pseudonyms.yaml) example:
  names:
    - Falcon
    - Magpie
    - Heron`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runRootCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (single input only)")
	cmd.Flags().String("out-dir", "", "Output directory for batch runs (default: alongside each input)")
	cmd.Flags().Bool("keep-names", false, "Keep player display names")
	cmd.Flags().Bool("keep-ratings", false, "Keep rating values")
	cmd.Flags().Bool("keep-chat", false, "Keep chat messages (may retain identifying text)")
	cmd.Flags().String("names", "", "YAML file with replacement names, one per slot")
	cmd.Flags().Bool("strict", false, "Fail on unknown event tags instead of skipping them")
	cmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "Number of files anonymized in parallel")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	return cmd
}

// runRootCmd executes an anonymization run over all input files.
func runRootCmd(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	outDir, _ := cmd.Flags().GetString("out-dir")
	jobs, _ := cmd.Flags().GetInt("jobs")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if output != "" && len(args) > 1 {
		return errors.New("--output is only valid with a single input; use --out-dir for batches")
	}
	if jobs < 1 {
		return errors.New("--jobs must be positive")
	}

	logger := newLogger(verbose)
	slog.SetDefault(logger)

	policies, err := buildPolicies(cmd)
	if err != nil {
		return err
	}

	// Each invocation owns its buffers exclusively, so files can be
	// processed in parallel without any shared state or locking.
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)

	var failed atomic.Int32
	for _, input := range args {
		input := input
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = outputPath(input, outDir)
			}
			if err := anonymizeFile(input, dest, policies, logger); err != nil {
				// A bad file is logged and skipped; the rest of the
				// batch keeps going.
				failed.Add(1)
				logger.Error("anonymization failed", "input", input, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(args))
	}
	return nil
}

// newLogger builds the CLI logger. Verbose mode enables debug records.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildPolicies maps the CLI flags onto replacement policies.
func buildPolicies(cmd *cobra.Command) (rec.Policies, error) {
	keepNames, _ := cmd.Flags().GetBool("keep-names")
	keepRatings, _ := cmd.Flags().GetBool("keep-ratings")
	keepChat, _ := cmd.Flags().GetBool("keep-chat")
	namesFile, _ := cmd.Flags().GetString("names")
	strict, _ := cmd.Flags().GetBool("strict")

	p := rec.Policies{Strict: strict}
	if !keepNames {
		p.Name = rec.DefaultName
	}
	if !keepRatings {
		p.Rating = rec.DefaultRating
	}
	if !keepChat {
		p.Chat = rec.DefaultChat
	}

	if namesFile != "" {
		if keepNames {
			return rec.Policies{}, errors.New("--names conflicts with --keep-names")
		}
		pseudonyms, err := loadPseudonyms(namesFile)
		if err != nil {
			return rec.Policies{}, err
		}
		p.Name = func(original string, slot int) string {
			if slot < len(pseudonyms) {
				return pseudonyms[slot]
			}
			return rec.DefaultName(original, slot)
		}
	}

	return p, nil
}

// pseudonymsFile is the YAML schema for the --names flag.
type pseudonymsFile struct {
	Names []string `yaml:"names"`
}

// loadPseudonyms reads per-slot replacement names from a YAML file.
// Slots beyond the list fall back to the default name policy.
func loadPseudonyms(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read names file: %w", err)
	}
	var f pseudonymsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse names file: %w", err)
	}
	if len(f.Names) == 0 {
		return nil, errors.New("names file lists no names")
	}
	return f.Names, nil
}

// outputPath derives the destination for one input file: the input name
// with an "_anon" suffix, in outDir when given or next to the input
// otherwise.
func outputPath(input, outDir string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext) + "_anon" + ext
	if outDir != "" {
		return filepath.Join(outDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

// anonymizeFile runs one complete parse, rewrite and atomic write.
func anonymizeFile(input, dest string, p rec.Policies, logger *slog.Logger) error {
	c, err := rec.ParseFile(input)
	if err != nil {
		return err
	}
	logger.Debug("parsed container",
		"input", input, "version", c.Version, "slots", len(c.Header.Slots))

	if err := c.Apply(p); err != nil {
		return err
	}
	if err := c.WriteFile(dest); err != nil {
		return err
	}

	logger.Info("anonymized", "input", input, "output", dest)
	return nil
}
