package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"feedbacktool/internal/config"
	"feedbacktool/internal/store"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "列出最近的报表上传记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := loadConfig()
			dataDir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return err
			}
			st, err := store.New(filepath.Join(dataDir, "feedback.db"))
			if err != nil {
				return err
			}
			defer st.Close()

			logs, err := st.ListImportLogs(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tFILE\tSTATUS\tPERIOD\tROWS\tERROR")
			for _, l := range logs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
					l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.Filename, l.Status, l.Period, l.EmployeeRows, l.ErrorCode)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "显示条数")
	return cmd
}
