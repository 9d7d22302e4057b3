package main

import (
	"errors"
	"fmt"

	"github.com/example/go-spm-encode/internal/doctor"
	"github.com/example/go-spm-encode/internal/segment"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the model and streams before encoding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			result := doctor.Run(doctor.Config{
				LoadModel: func() (int, error) {
					if err := cfg.Validate(); err != nil {
						return 0, err
					}
					sp, err := segment.Load(cfg.Paths.ModelPath)
					if err != nil {
						return 0, err
					}
					return sp.VocabSize(), nil
				},
				Inputs:  cfg.Encode.Inputs,
				Outputs: cfg.Encode.Outputs,
			}, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	return cmd
}
