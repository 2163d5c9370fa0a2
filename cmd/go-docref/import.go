package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

var batchSize int

var importCmd = &cobra.Command{
	Use:   "import <collection> <file.json>",
	Short: "Import documents from a JSON array",
	Long: "Stage every document of a JSON array and commit them in batches. Documents without an _id get a new one; " +
		"documents whose _id already exists are replaced.",
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&batchSize, "batch-size", 500, "documents committed per batch")
}

func runImport(cmd *cobra.Command, args []string) error {
	collName, path := args[0], args[1]
	if batchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var docs []domain.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("%s must hold a JSON array of objects: %w", path, err)
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

	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]
		for _, doc := range batch {
			if doc == nil {
				return fmt.Errorf("%s contains a null document", path)
			}
			if _, ok := doc[domain.IDField]; !ok {
				doc[domain.IDField] = uuid.New().String()
			}
		}
		if err := ref.Modify(batch...); err != nil {
			return err
		}
		if err := ref.Commit(cmd.Context()); err != nil {
			return fmt.Errorf("failed to commit documents %d-%d: %w", start, end-1, err)
		}
		rt.logger.Debugf("Committed documents %d-%d into collection '%s'", start, end-1, collName)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents into %s\n", len(docs), collName)
	return nil
}
