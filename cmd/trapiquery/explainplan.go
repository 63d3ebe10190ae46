package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/biograph/trapi-engine/internal/trapi"
)

var explainPlanCmd = &cobra.Command{
	Use:   "explain-plan <query-graph.json>",
	Short: "Print the execution order a query graph would be planned into, without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplainPlan,
}

func runExplainPlan(cmd *cobra.Command, args []string) error {
	req, err := readRequest(args[0])
	if err != nil {
		return err
	}

	steps, err := trapi.Plan(req.Message.QueryGraph)
	if err != nil {
		return fmt.Errorf("plan query graph: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(steps)
}
