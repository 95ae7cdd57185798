package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/bootstrap"
)

// openService wires a runtime without the event publisher.
func openService(cmd *cobra.Command) (*bootstrap.Runtime, error) {
	return bootstrap.New(cmd.Context(), cfg, bootstrap.WithoutEvents())
}

// explain adds name suggestions to a not-found error.
func explain(err error) error {
	var nf *service.NotFoundError
	if !errors.As(err, &nf) {
		return err
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for _, name := range nf.Missing {
		if s := nf.Suggestions[name]; len(s) > 0 {
			fmt.Fprintf(&b, "\n  %q: did you mean %s?", name, strings.Join(s, ", "))
		}
	}
	return errors.New(b.String())
}

// predictCmd runs one prediction through the configured lookup and model.
var predictCmd = &cobra.Command{
	Use:   "predict FIGHTER1 FIGHTER2",
	Short: "Predict the winner of a matchup",
	Long: `Look both fighters up, derive the 33-slot feature vector and ask the
configured inference backend for a verdict.

Examples:
  fightctl predict "Jon Jones" "Stipe Miocic"

  # Use a local go-deep model instead of the HTTP model service
  FIGHT_INFERENCE_BACKEND=local FIGHT_INFERENCE_MODEL_PATH=model.json fightctl predict "Jon Jones" "Stipe Miocic"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openService(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		res, err := rt.Service.Predict(cmd.Context(), args[0], args[1])
		if err != nil {
			return explain(err)
		}
		return writePrediction(cmd.OutOrStdout(), res, useColor)
	},
}

// featuresCmd derives the vector without calling the model.
var featuresCmd = &cobra.Command{
	Use:   "features FIGHTER1 FIGHTER2",
	Short: "Show the feature vector for a matchup",
	Long: `Derive and print the feature vector the model would receive, slot by slot.
Attributes that fail to parse show as NaN and are listed below the table.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openService(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		rep, err := rt.Service.Features(cmd.Context(), args[0], args[1])
		if err != nil {
			return explain(err)
		}
		return writeFeatures(cmd.OutOrStdout(), rep, useColor)
	},
}
