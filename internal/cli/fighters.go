package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArnavTamrakar/Fight-predict/internal/domain/fighter"
)

var fightersCount bool

// fightersCmd lists the known fighter names.
var fightersCmd = &cobra.Command{
	Use:   "fighters [FILTER]",
	Short: "List known fighter names",
	Long: `Print every fighter name from the configured lookup backend, sorted.
An optional FILTER keeps names whose folded form contains it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openService(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		names, err := rt.Service.Names(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			names = filterNames(names, args[0])
		}

		out := cmd.OutOrStdout()
		if fightersCount {
			_, err = fmt.Fprintln(out, len(names))
			return err
		}
		for _, n := range names {
			if _, err := fmt.Fprintln(out, n); err != nil {
				return err
			}
		}
		return nil
	},
}

func filterNames(names []string, filter string) []string {
	needle := fighter.Key(filter)
	out := names[:0:0]
	for _, n := range names {
		if strings.Contains(fighter.Key(n), needle) {
			out = append(out, n)
		}
	}
	return out
}

func init() {
	fightersCmd.Flags().BoolVar(&fightersCount, "count", false, "print only the number of matching fighters")
}
