package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/laporkota/laporkit/pkg/lapor"
)

var (
	feedPage   int
	feedLimit  int
	mineStatus string

	createCategory  string
	createLocation  string
	createImage     string
	createImageFile string
	createAnonymous bool
	createPrivate   bool
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Browse and file citizen reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the public report feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := cli.reports.PublicFeed(cmd.Context(), feedPage, feedLimit)
		if err != nil {
			return err
		}
		printReports(reports)
		return nil
	},
}

var reportsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show your own reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.currentSession(); err != nil {
			return err
		}
		reports, err := cli.reports.Mine(cmd.Context(), feedPage, feedLimit, mineStatus)
		if err != nil {
			return err
		}
		printReports(reports)
		return nil
	},
}

var reportsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one report in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := cli.reports.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printReportDetail(r)
		return nil
	},
}

var reportsCreateCmd = &cobra.Command{
	Use:   "create <title> <description>",
	Short: "File a new report",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.currentSession(); err != nil {
			return err
		}
		imageURL := createImage
		if createImageFile != "" {
			if createImage != "" {
				return fmt.Errorf("--image and --image-file are mutually exclusive")
			}
			f, err := os.Open(createImageFile)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			img, err := cli.reports.Upload(cmd.Context(), filepath.Base(createImageFile), f)
			f.Close()
			if err != nil {
				return err
			}
			imageURL = img.URL
		}
		r, err := cli.reports.Create(cmd.Context(), lapor.NewReport{
			Title:       args[0],
			Description: args[1],
			Category:    createCategory,
			Location:    createLocation,
			ImageURL:    imageURL,
			IsAnonymous: createAnonymous,
			IsPublic:    !createPrivate,
		})
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Report filed: " + r.ID))
		return nil
	},
}

var reportsUpvoteCmd = &cobra.Command{
	Use:   "upvote <id>",
	Short: "Upvote a report (--remove to withdraw)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.currentSession(); err != nil {
			return err
		}
		remove, _ := cmd.Flags().GetBool("remove")
		if remove {
			if err := cli.reports.RemoveUpvote(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(okStyle.Render("Upvote removed."))
			return nil
		}
		if err := cli.reports.Upvote(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Upvoted."))
		return nil
	},
}

func init() {
	reportsCmd.PersistentFlags().IntVar(&feedPage, "page", 1, "page number")
	reportsCmd.PersistentFlags().IntVar(&feedLimit, "limit", 20, "page size")
	reportsMineCmd.Flags().StringVar(&mineStatus, "status", "", "filter by status (PENDING, IN_PROGRESS, RESOLVED, REJECTED)")

	reportsCreateCmd.Flags().StringVarP(&createCategory, "category", "c", "lainnya", "report category")
	reportsCreateCmd.Flags().StringVarP(&createLocation, "location", "l", "", "location description")
	reportsCreateCmd.Flags().StringVar(&createImage, "image", "", "URL of an already-hosted image")
	reportsCreateCmd.Flags().StringVar(&createImageFile, "image-file", "", "local image to upload before filing")
	reportsCreateCmd.Flags().BoolVar(&createAnonymous, "anonymous", false, "hide your name from the public feed")
	reportsCreateCmd.Flags().BoolVar(&createPrivate, "private", false, "keep the report off the public feed")

	reportsUpvoteCmd.Flags().Bool("remove", false, "withdraw a previous upvote")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsMineCmd)
	reportsCmd.AddCommand(reportsGetCmd)
	reportsCmd.AddCommand(reportsCreateCmd)
	reportsCmd.AddCommand(reportsUpvoteCmd)
}

func printReports(reports []lapor.Report) {
	if len(reports) == 0 {
		fmt.Println(dimStyle.Render("No reports."))
		return
	}
	for _, r := range reports {
		fmt.Printf("%s  %s  %s\n", statusBadge(r.Status), titleStyle.Render(r.Title), dimStyle.Render(r.ID))
		meta := fmt.Sprintf("   %s · %s · ▲%d", r.Category, r.CreatedAt.Format("2006-01-02"), r.Upvotes)
		if r.IsEscalated {
			meta += " · " + errorStyle.Render("ESKALASI")
		}
		fmt.Println(dimStyle.Render(meta))
	}
}

func printReportDetail(r lapor.Report) {
	fmt.Printf("%s  %s\n", statusBadge(r.Status), titleStyle.Render(r.Title))
	fmt.Println(r.Description)
	fmt.Println()
	fmt.Printf("id:        %s\n", r.ID)
	fmt.Printf("category:  %s\n", r.Category)
	if r.Location != "" {
		fmt.Printf("location:  %s\n", r.Location)
	}
	reporter := r.Reporter
	if r.IsAnonymous {
		reporter = "anonymous"
	}
	fmt.Printf("reporter:  %s\n", reporter)
	fmt.Printf("upvotes:   %d\n", r.Upvotes)
	fmt.Printf("created:   %s\n", r.CreatedAt.Format("2006-01-02 15:04"))
	if r.SlaDeadline != nil {
		fmt.Printf("sla:       %s\n", r.SlaDeadline.Format("2006-01-02 15:04"))
	}
	if r.ForwardedTo != "" {
		fmt.Printf("forwarded: %s\n", r.ForwardedTo)
	}
}
