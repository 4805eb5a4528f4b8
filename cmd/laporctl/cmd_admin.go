package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/laporkota/laporkit/pkg/lapor"
)

var (
	adminStatus     string
	adminCategory   string
	adminDepartment string
	adminNotes      string
	analyticsRange  string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Department dashboard operations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Root PersistentPreRunE is not inherited once a child defines
		// its own, so the app is built here too.
		if cli == nil {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			cli = a
		}
		if err := cli.requireAdmin(); err != nil {
			return err
		}
		_, err := cli.currentSession()
		return err
	},
}

var adminReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List reports routed to your department",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var (
			reports []lapor.Report
			err     error
		)
		if adminDepartment != "" {
			reports, err = cli.admin.ByDepartment(ctx, adminDepartment, adminStatus)
		} else {
			reports, err = cli.admin.List(ctx, lapor.ListFilters{
				Status:   adminStatus,
				Category: adminCategory,
				Page:     feedPage,
				Limit:    feedLimit,
			})
		}
		if err != nil {
			return err
		}
		printReports(reports)
		return nil
	},
}

var adminStatusCmd = &cobra.Command{
	Use:   "status <id> <new-status>",
	Short: "Move a report to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := cli.admin.UpdateStatus(cmd.Context(), args[0], args[1], adminNotes)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", statusBadge(r.Status), titleStyle.Render(r.Title))
		return nil
	},
}

var adminAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the department dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := cli.admin.Analytics(cmd.Context(), analyticsRange)
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render("Analytics (" + a.TimeRange + ")"))
		fmt.Printf("total: %d  pending: %d  in progress: %d  completed: %d\n",
			a.Total, a.Pending, a.InProgress, a.Completed)
		fmt.Printf("completion rate: %.1f%%  upvotes: %d  avg processing: %.1f days\n",
			a.CompletionRate, a.TotalUpvotes, a.AvgProcessTime)
		if len(a.Categories) > 0 {
			fmt.Println()
			for _, c := range a.Categories {
				fmt.Printf("  %-24s total %-4d done %-4d open %d\n",
					c.Name, c.Total, c.Resolved, c.Pending+c.InProgress)
			}
		}
		return nil
	},
}

var adminEscalateCmd = &cobra.Command{
	Use:   "escalate [id]",
	Short: "List overdue reports, or escalate one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(args) == 0 {
			reports, err := cli.admin.Escalation(ctx)
			if err != nil {
				return err
			}
			printReports(reports)
			return nil
		}
		if err := cli.admin.Escalate(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Report escalated."))
		return nil
	},
}

var adminForwardCmd = &cobra.Command{
	Use:   "forward <id> <destination>",
	Short: "Forward a report to an external agency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.admin.Forward(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Report forwarded to " + args[1]))
		return nil
	},
}

func init() {
	adminReportsCmd.Flags().StringVar(&adminStatus, "status", "", "filter by status")
	adminReportsCmd.Flags().StringVar(&adminCategory, "category", "", "filter by category")
	adminReportsCmd.Flags().StringVar(&adminDepartment, "department", "", "list another department's queue")
	adminReportsCmd.Flags().IntVar(&feedPage, "page", 1, "page number")
	adminReportsCmd.Flags().IntVar(&feedLimit, "limit", 20, "page size")
	adminStatusCmd.Flags().StringVar(&adminNotes, "notes", "", "handling notes attached to the update")
	adminAnalyticsCmd.Flags().StringVar(&analyticsRange, "range", "30d", "time range: 7d, 30d or 90d")

	adminCmd.AddCommand(adminReportsCmd)
	adminCmd.AddCommand(adminStatusCmd)
	adminCmd.AddCommand(adminAnalyticsCmd)
	adminCmd.AddCommand(adminEscalateCmd)
	adminCmd.AddCommand(adminForwardCmd)
}
