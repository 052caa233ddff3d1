package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tidepool-org/timeline/data"
	"github.com/tidepool-org/timeline/dataset"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.json>",
	Short: "Ingest a device data file and print a dataset summary",
	Long:  "The ingest command loads a JSON array of device data records, runs the full pipeline and prints per-category counts and the resolved timezone timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(func(engine *dataset.Engine) error { return ingestFile(args[0], engine) })
	},
}

func ingestFile(path string, engine *dataset.Engine) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var batch []map[string]interface{}
	if err := json.Unmarshal(raw, &batch); err != nil {
		return err
	}

	added, err := engine.AddBatch(context.TODO(), batch)
	if err != nil {
		return err
	}

	ds := engine.DataSet()
	for _, t := range data.RequiredTypes {
		fmt.Printf("%-18s %d\n", t, len(ds.Grouped[t]))
	}
	for _, segment := range ds.Timeline {
		fmt.Printf("from %d: %s\n", segment.Epoch, segment.Zone)
	}
	fmt.Printf("Added %v of %v records\n", added, len(batch))

	return nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
