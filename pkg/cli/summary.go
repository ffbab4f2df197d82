package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
)

// printSummary writes a human readable outcome of the fetch
func printSummary(w io.Writer, report *model.Report) {
	ok := color.New(color.FgGreen, color.Bold)
	ng := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)

	if report.Failure != "" {
		ng.Fprint(w, "✗ ")
		fmt.Fprintln(w, report.Failure)
		return
	}

	for _, res := range report.Results {
		if res.Succeeded() {
			ok.Fprint(w, "✓ ")
			fmt.Fprintf(w, "%-7s %s ", res.Kind, res.Suffix)
			dim.Fprintf(w, "(%d files → %s)\n", len(res.Files), res.Dir)
			continue
		}

		ng.Fprint(w, "✗ ")
		fmt.Fprintf(w, "%-7s %s ", res.Kind, res.Suffix)
		dim.Fprintf(w, "(%s)\n", res.Reason)
	}
}
