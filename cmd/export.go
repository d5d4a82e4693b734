package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/where2work/internal/filter"
	"github.com/sells-group/where2work/internal/model"
)

var (
	exportData   string
	exportFormat string
	exportOutput string
	exportSel    filter.Selection
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered companies as CSV or JSON",
	Long:  "Applies the same filters as the page (repeat a flag to allow several values) and writes the matching records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := loadDataset(exportData)
		if err != nil {
			return err
		}
		records := filter.Apply(d.Records(), exportSel)

		w := cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", exportOutput)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		return writeRecords(w, records, exportFormat)
	},
}

// writeRecords encodes records as csv (the input column layout) or json
// (including derived fields). An empty csv export still carries the header.
func writeRecords(w io.Writer, records []model.Company, format string) error {
	switch format {
	case "csv", "":
		cw := csv.NewWriter(w)
		enc := csvutil.NewEncoder(cw)
		var err error
		if len(records) == 0 {
			err = enc.EncodeHeader(model.Company{})
		} else {
			err = enc.Encode(records)
		}
		if err != nil {
			return eris.Wrap(err, "export: encode csv")
		}
		cw.Flush()
		return eris.Wrap(cw.Error(), "export: write csv")
	case "json":
		if records == nil {
			records = []model.Company{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(records), "export: encode json")
	default:
		return eris.Errorf("export: unsupported format %q (want csv or json)", format)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportData, "data", "", "data file, .csv or .xlsx (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file, - for stdout")
	exportCmd.Flags().StringArrayVar(&exportSel.Locations, "location", nil, "headquarters location to include")
	exportCmd.Flags().StringArrayVar(&exportSel.EntityTypes, "entity-type", nil, "entity type to include")
	exportCmd.Flags().StringArrayVar(&exportSel.Bands, "band", nil, "employee band to include")
	exportCmd.Flags().StringArrayVar(&exportSel.Industries, "industry", nil, "industry code to include")
	rootCmd.AddCommand(exportCmd)
}
