package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"feedbacktool/internal/i18n"
	"feedbacktool/internal/parser"
)

func inspectCmd() *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:   "inspect [report.xlsx]",
		Short: "解析绩效报表并输出期间与员工记录 (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := i18n.LoadCatalog("cs")
			if err != nil {
				return err
			}
			loc, err := catalog.Locale(locale)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			loader := parser.NewLoader(loc)
			loader.SetClock(time.Now)
			res, err := loader.Load(data)
			if ve, ok := parser.IsValidationError(err); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "period: %s\n", res.Period)
				fmt.Fprintf(cmd.ErrOrStderr(), "expected: %v\nfound: %v\n", ve.Expected, ve.Found)
				return err
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&locale, "locale", "l", "cs", "期间识别使用的语言 (cs, sk, hu)")
	return cmd
}
