package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Guliveer/vitalis/monitor/internal/models"
)

var (
	queryField string
	queryPara  string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query MODULE PURPOSE",
	Short: "Sample a monitor once and print the selected fields",
	Long: `Sample a monitor once and print the selected fields.

--field is passed to the monitor's decoder and --para to its sampler:
  monitor query NET ESTAT --field="--nic=eth0 --fields=errs --fields=util"
  monitor query NET ESTAT --field="--fields=rxerrs" --para="--interval=5"
  monitor query NET STAT --field="--nic= --fields=nic --fields=util" --json

Without --field the raw sampler output is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryField, "field", "", "Decode parameters, e.g. \"--nic=eth0 --fields=errs\"")
	queryCmd.Flags().StringVar(&queryPara, "para", "", "Get parameters, e.g. \"--interval=2\"")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	res, err := state.svc.Query(cmd.Context(), models.Query{
		Module:  strings.ToUpper(args[0]),
		Purpose: strings.ToUpper(args[1]),
		Field:   queryField,
		Para:    queryPara,
	})
	if err != nil {
		return err
	}

	if queryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(os.Stdout, res.Value)
	return nil
}
