package main

import (
	"fmt"
	"strconv"

	"psyfit/domain/psychometric"
	"psyfit/internal/errors"

	"github.com/spf13/cobra"
)

type pfRow struct {
	X float64 `json:"x"`
	P float64 `json:"p"`
}

func newPFCmd(opts *globalOptions) *cobra.Command {
	var m, s, a, b float64
	var yesNo, inverse bool

	cmd := &cobra.Command{
		Use:   "pf [values...]",
		Short: "Evaluate the psychometric function or its inverse",
		Long: `Evaluate PF(x) = a/(1+exp(-(x-m)/s)) + b at each level, or with --inverse
the level at which PF reaches each probability.

Example: psyfit pf --m 20 --s 1.5 10 20 30
         psyfit pf --m 20 --s 1.5 --inverse 0.75`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := psychometric.Params{M: m, S: s, A: a, B: b}
			if yesNo {
				p = psychometric.YesNo(m, s)
			}
			if err := p.Validate(); err != nil {
				return errors.Wrap(errors.InvalidInput(err.Error()), "psychometric parameters")
			}

			rows := make([]pfRow, 0, len(args))
			for _, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return errors.Wrapf(errors.InvalidInput(err.Error()), "argument %q", arg)
				}
				if !inverse {
					rows = append(rows, pfRow{X: v, P: p.Prob(v)})
					continue
				}
				x, err := p.Threshold(v)
				if err != nil {
					return errors.Wrapf(errors.InvalidInput(err.Error()), "argument %q", arg)
				}
				rows = append(rows, pfRow{X: x, P: v})
			}

			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", p)
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "x=%-12.6g p=%.6f\n", r.X, r.P)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&m, "m", 20, "Location")
	cmd.Flags().Float64Var(&s, "s", 1.5, "Scale")
	cmd.Flags().Float64Var(&a, "a", 0.5, "Slope coefficient")
	cmd.Flags().Float64Var(&b, "b", 0.5, "Bias (guess rate)")
	cmd.Flags().BoolVar(&yesNo, "yes-no", false, "Use a=1, b=0")
	cmd.Flags().BoolVar(&inverse, "inverse", false, "Treat arguments as probabilities")

	return cmd
}
