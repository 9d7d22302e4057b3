package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/example/go-spm-encode/internal/config"
	"github.com/example/go-spm-encode/internal/metrics"
	"github.com/example/go-spm-encode/internal/pipeline"
	"github.com/example/go-spm-encode/internal/segment"
	"github.com/example/go-spm-encode/internal/stream"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode and length-filter aligned text streams",
		Long: `Encode reads the --inputs in lock-step, one line from each per row,
segments every line with the SentencePiece --model and writes the row to the
matching --outputs. A row is dropped from all outputs when any of its lines is
empty or has a token count outside [--min-len, --max-len].`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			_, err = runEncode(cmd.Context(), cfg, encodeIO{
				Stdin:  cmd.InOrStdin(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			return err
		},
	}

	return cmd
}

type encodeIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// runEncode validates cfg, loads the model and runs the pipeline. Nothing is
// opened for writing until the stream layout, the format and the model have
// all been accepted.
func runEncode(ctx context.Context, cfg config.Config, stdio encodeIO) (stats pipeline.Stats, err error) {
	if err := pipeline.CheckPairs(len(cfg.Encode.Inputs), len(cfg.Encode.Outputs)); err != nil {
		return stats, err
	}

	if err := cfg.Validate(); err != nil {
		return stats, err
	}

	format, err := pipeline.ParseFormat(cfg.Encode.OutputFormat)
	if err != nil {
		return stats, err
	}

	seg, err := segment.Load(cfg.Paths.ModelPath)
	if err != nil {
		return stats, err
	}

	inputs, err := stream.OpenInputs(cfg.Encode.Inputs, stdio.Stdin)
	if err != nil {
		return stats, err
	}
	defer func() { err = errors.Join(err, inputs.Close()) }()

	outputs, err := stream.OpenOutputs(cfg.Encode.Outputs, stdio.Stdout)
	if err != nil {
		return stats, err
	}
	defer func() { err = errors.Join(err, outputs.Close()) }()

	bounds := pipeline.NewBounds(cfg.Encode.MinLen, cfg.Encode.MaxLen)
	slog.Debug("encoding",
		"model", cfg.Paths.ModelPath,
		"vocab_size", seg.VocabSize(),
		"inputs", inputs.Names(),
		"outputs", outputs.Names(),
		"format", format.String(),
		"bounds", bounds.String(),
	)

	start := time.Now()

	p := pipeline.New(seg, pipeline.Options{
		Format:        format,
		Bounds:        bounds,
		ProgressEvery: cfg.Encode.ProgressEvery,
		Diag:          stdio.Stderr,
	})

	stats, err = p.Run(ctx, inputs.Readers(), outputs.Writers())
	elapsed := time.Since(start)
	if err != nil {
		return stats, fmt.Errorf("encode: %w", err)
	}

	slog.Info("encode complete",
		"rows", stats.Rows,
		"written", stats.Written,
		"empty", stats.Empty,
		"filtered", stats.Filtered,
		"discarded", stats.Discarded,
		"duration", elapsed,
	)

	if cfg.Metrics.Textfile != "" {
		rec := metrics.NewRecorder(format)
		rec.Observe(stats, elapsed)
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
