package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/where2work/internal/dataset"
)

var checkData string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a data file and summarise it",
	Long:  "Loads the data file with the same rules as serve and prints record, band and filter option counts. Exits non-zero when the file cannot be loaded.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := loadDataset(checkData)
		if err != nil {
			return err
		}
		return printSummary(cmd.OutOrStdout(), d)
	},
}

// printSummary writes a human-readable report of d.
func printSummary(w io.Writer, d *dataset.Dataset) error {
	opts := d.Options()

	fmt.Fprintf(w, "File:        %s\n", d.Path)
	fmt.Fprintf(w, "Version:     %s\n", d.Version)
	fmt.Fprintf(w, "Records:     %d\n", d.Len())
	fmt.Fprintf(w, "Locations:   %d\n", len(opts.Locations))
	fmt.Fprintf(w, "Types:       %d\n", len(opts.EntityTypes))
	fmt.Fprintf(w, "Industries:  %d\n\n", len(opts.Industries))

	counts := make(map[string]int)
	var unplaced, duplicates int
	seen := make(map[string]bool)
	for _, r := range d.Records() {
		if r.StandardBand == "" {
			unplaced++
		} else {
			counts[r.StandardBand]++
		}
		if seen[r.LegalName] {
			duplicates++
		}
		seen[r.LegalName] = true
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BAND\tCOMPANIES\tCONFIGURED")
	for _, band := range opts.Bands {
		configured := "yes"
		if !d.Bands.Contains(band) {
			configured = "no"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", band, counts[band], configured)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if unplaced > 0 {
		fmt.Fprintf(w, "\nWarning: %d %s without an employee band will not be plotted\n", unplaced, plural(unplaced, "record", "records"))
	}
	if duplicates > 0 {
		fmt.Fprintf(w, "Warning: %d duplicate legal %s; the first record wins\n", duplicates, plural(duplicates, "name", "names"))
	}
	return nil
}

func init() {
	checkCmd.Flags().StringVar(&checkData, "data", "", "data file, .csv or .xlsx (default from config)")
	rootCmd.AddCommand(checkCmd)
}
