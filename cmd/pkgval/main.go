package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/probsetter/pkgval/internal/archive"
	"github.com/probsetter/pkgval/internal/judge"
	"github.com/probsetter/pkgval/internal/problem"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	root := &cli.Command{
		Name:  "pkgval",
		Usage: "validate a competitive programming problem package locally",
		Commands: []*cli.Command{
			verifyCommand(),
			runCommand(),
			packCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		slog.Error("pkgval failed", "err", err)
		os.Exit(1)
	}
}

func packageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "problem",
			Aliases: []string{"p"},
			Value:   ".",
			Usage:   "problem package directory",
		},
		&cli.StringFlag{
			Name:    "outputs",
			Usage:   "directory for captured solution outputs",
			Sources: cli.EnvVars("PKGVAL_OUTPUTS"),
		},
		&cli.StringFlag{
			Name:    "cache",
			Usage:   "build cache directory",
			Sources: cli.EnvVars("PKGVAL_CACHE"),
		},
	}
}

func newJudge(cmd *cli.Command) (*judge.Judge, error) {
	dir := cmd.String("problem")
	prob, err := problem.Load(dir)
	if err != nil {
		return nil, err
	}
	outputs := cmd.String("outputs")
	if outputs == "" {
		outputs = filepath.Join(dir, "outputs")
	}
	cache := cmd.String("cache")
	if cache == "" {
		cache = filepath.Join(dir, ".pkgval", "cache")
	}
	return judge.New(prob, outputs, cache)
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check every solution's declared tag against its observed behavior",
		Flags: packageFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			j, err := newJudge(cmd)
			if err != nil {
				return err
			}
			defer j.Close()
			return j.VerifyAll(ctx)
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run one solution over a testset, stopping at the first failing test",
		ArgsUsage: "<solution>",
		Flags: append(packageFlags(),
			&cli.StringFlag{
				Name:    "testset",
				Aliases: []string{"t"},
				Value:   "tests",
				Usage:   "testset to run",
			},
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g"},
				Usage:   "restrict the run to a named group",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sol := cmd.Args().First()
			if sol == "" {
				return fmt.Errorf("usage: pkgval run <solution>")
			}
			j, err := newJudge(cmd)
			if err != nil {
				return err
			}
			defer j.Close()
			return j.RunSolution(ctx, sol, cmd.String("testset"), cmd.String("group"))
		},
	}
}

func packCommand() *cli.Command {
	return &cli.Command{
		Name:  "pack",
		Usage: "archive the problem package into a .tar.gz",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "problem",
				Aliases: []string{"p"},
				Value:   ".",
				Usage:   "problem package directory",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "archive path (defaults to <name>.tar.gz)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.String("problem")
			prob, err := problem.Load(dir)
			if err != nil {
				return err
			}
			out := cmd.String("out")
			if out == "" {
				out = prob.Name + ".tar.gz"
			}
			if err := archive.Pack(dir, out); err != nil {
				return err
			}
			slog.Info("packed problem", "problem", prob.Name, "archive", out)
			return nil
		},
	}
}
