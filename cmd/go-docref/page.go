package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/adfharrison1/go-docref/pkg/domain"
)

var (
	pageOffset int
	pageRows   int
	sortField  string
	sortDir    string
	whereField string
	whereOp    string
	whereValue string
)

var pageCmd = &cobra.Command{
	Use:   "page <collection>",
	Short: "Print one page of a collection",
	Long: "Print one page of a collection as JSON with its total row count. " +
		"--value is parsed as JSON when it can be, so --op in takes a JSON array.",
	Args: cobra.ExactArgs(1),
	RunE: runPage,
}

func init() {
	pageCmd.Flags().IntVar(&pageOffset, "offset", 0, "rows to skip")
	pageCmd.Flags().IntVar(&pageRows, "rows", 20, "rows to return")
	pageCmd.Flags().StringVar(&sortField, "sort", "", "field to sort by (default _id)")
	pageCmd.Flags().StringVar(&sortDir, "dir", "desc", "sort direction (asc, desc)")
	pageCmd.Flags().StringVar(&whereField, "field", "", "field to filter on")
	pageCmd.Flags().StringVar(&whereOp, "op", "eq", "filter operator (eq, gt, lt, in)")
	pageCmd.Flags().StringVar(&whereValue, "value", "", "filter value")
}

// parseFlagValue reads a JSON literal, falling back to the raw string
func parseFlagValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func runPage(cmd *cobra.Command, args []string) error {
	collName := args[0]

	page, err := domain.NewPage(pageOffset, pageRows)
	if err != nil {
		return err
	}
	direction, err := domain.ParseDirection(sortDir)
	if err != nil {
		return err
	}
	order := domain.NewSortWithDirection(direction, sortField)

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ref, err := rt.reference(collName)
	if err != nil {
		return err
	}

	if whereField == "" {
		result, err := ref.GetPaged(cmd.Context(), page, order)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	}

	op, err := domain.ParseOperator(whereOp)
	if err != nil {
		return err
	}
	filter := domain.NewFilter(whereField, op, parseFlagValue(whereValue))
	result, err := ref.GetPagedWhere(cmd.Context(), filter, page, order)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}
