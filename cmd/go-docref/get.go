package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <collection> <id>",
	Short: "Print one document",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	collName := args[0]
	id, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", args[1], err)
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ref, err := rt.reference(collName)
	if err != nil {
		return err
	}
	doc, found, err := ref.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("document %s not found in %s", id, collName)
	}
	return printJSON(cmd, doc)
}
