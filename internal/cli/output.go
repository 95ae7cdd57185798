package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	service "github.com/ArnavTamrakar/Fight-predict/internal/app"
	"github.com/ArnavTamrakar/Fight-predict/internal/domain/features"
)

type palette struct {
	red, green, yellow func(...any) string
}

func newPalette(colors bool) palette {
	if !colors {
		return palette{red: fmt.Sprint, green: fmt.Sprint, yellow: fmt.Sprint}
	}
	return palette{
		red:    color.New(color.FgRed).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
	}
}

func formatValue(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'f', 4, 64)
}

// writeFeatures renders every slot of the vector, then the parse issues
// behind any NaN slot.
func writeFeatures(w io.Writer, rep service.Report, colors bool) error { //nolint:gocritic // hugeParam: rendered once
	p := newPalette(colors)

	if _, err := fmt.Fprintf(w, "%s vs %s\n", rep.Fighters[0].Name, rep.Fighters[1].Name); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Slot", "Feature", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignRight, tw.AlignLeft, tw.AlignRight}
	})

	data := make([][]string, 0, features.Width)
	for i, x := range rep.Vector {
		value := formatValue(x)
		if math.IsNaN(x) {
			value = p.red(value)
		}
		data = append(data, []string{strconv.Itoa(i), features.SlotNames[i], value})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, is := range rep.Issues {
		if _, err := fmt.Fprintln(w, p.yellow("warning: "+is.String())); err != nil {
			return err
		}
	}
	return nil
}

// writePrediction renders both fighters with their win probability and
// marks the predicted winner.
func writePrediction(w io.Writer, res service.Result, colors bool) error { //nolint:gocritic // hugeParam: rendered once
	p := newPalette(colors)

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Corner", "Fighter", "Win probability", "Verdict"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignLeft}
	})

	// probabilities are [p(fighter 2 wins), p(fighter 1 wins)]
	probs := res.Prediction.Probabilities
	corner := func(side int) []string {
		prob := "-"
		idx := 1 - side
		if idx < len(probs) {
			prob = strconv.FormatFloat(probs[idx]*100, 'f', 1, 64) + "%"
		}
		verdict := ""
		if (side == 0) == (res.Prediction.Prediction == 1) {
			verdict = p.green("winner")
		}
		return []string{"Fighter " + strconv.Itoa(side+1), res.Fighters[side], prob, verdict}
	}
	if err := table.Bulk([][]string{corner(0), corner(1)}); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "confidence: %s\n", strconv.FormatFloat(res.Prediction.Confidence, 'f', 3, 64)); err != nil {
		return err
	}
	if len(res.NaNSlots) > 0 {
		names := make([]string, 0, len(res.NaNSlots))
		for _, i := range res.NaNSlots {
			names = append(names, features.SlotNames[i])
		}
		if _, err := fmt.Fprintln(w, p.yellow(fmt.Sprintf("warning: %d incomplete features %v", len(names), names))); err != nil {
			return err
		}
	}
	return nil
}
