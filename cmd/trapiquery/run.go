package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/biograph/trapi-engine/internal/trapi"
)

var runCmd = &cobra.Command{
	Use:   "run <query-graph.json>",
	Short: "Answer a TRAPI query graph and print the response",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	req, err := readRequest(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	deps, err := buildEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer deps.Close()

	resp, err := deps.engine.Answer(ctx, req)
	if err != nil {
		return fmt.Errorf("answer query: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func readRequest(path string) (trapi.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return trapi.Request{}, fmt.Errorf("read query graph file %s: %w", path, err)
	}

	var req trapi.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return trapi.Request{}, fmt.Errorf("parse query graph file %s: %w", path, err)
	}
	return req, nil
}
