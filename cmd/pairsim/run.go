package main

import (
	"github.com/Dosada05/chatmatch/simulate"
	"github.com/Dosada05/chatmatch/utils"
	"github.com/spf13/cobra"
)

type runOptions struct {
	names      string
	rosterPath string
	rounds     int
	strategy   string
}

func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute pairing rounds for a roster",
		Long: `Compute pairing rounds for a roster given inline or as a YAML file.

With --rounds 0 rounds are computed until nobody can be paired with a new partner.`,
		Example: `  pairsim run --names "Alice,Bob,Carol,Dave" --rounds 3
  pairsim run --roster roster.yaml --format json
  pairsim run --names "A,B,C,D,E,F" --rounds 0 --strategy round-robin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := simulate.Generator(opts.strategy)
			if err != nil {
				return err
			}
			names := utils.SplitNames(opts.names)
			rounds := opts.rounds
			if opts.rosterPath != "" {
				rf, err := simulate.LoadRosterFile(opts.rosterPath)
				if err != nil {
					return err
				}
				names = rf.Names
				if !cmd.Flags().Changed("rounds") {
					rounds = rf.Rounds
				}
			}

			result, err := simulate.Run(names, rounds, gen)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return simulate.WriteJSON(cmd.OutOrStdout(), result)
			}
			return simulate.WriteText(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&opts.names, "names", "", "comma separated participant names")
	cmd.Flags().StringVar(&opts.rosterPath, "roster", "", "YAML file with a names list")
	cmd.Flags().IntVarP(&opts.rounds, "rounds", "r", 1, "number of rounds, 0 runs until exhausted")
	cmd.Flags().StringVar(&opts.strategy, "strategy", simulate.StrategyGreedy, "pairing strategy: greedy or round-robin")
	cmd.MarkFlagsMutuallyExclusive("names", "roster")
	cmd.MarkFlagsOneRequired("names", "roster")

	return cmd
}
