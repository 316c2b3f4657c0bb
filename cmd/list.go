package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/daystar-sdg/sdgtrack/internal/utils"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

// listCmd implements: sdgtrack list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored activities",
	RunE: func(cmd *cobra.Command, args []string) error {
		typeFilter, _ := cmd.Flags().GetString("type")
		scrapedOnly, _ := cmd.Flags().GetBool("scraped")
		sinceStr, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")

		var since time.Time
		if sinceStr != "" {
			var err error
			since, err = time.Parse("2006-01-02", sinceStr)
			if err != nil {
				return fmt.Errorf("invalid --since date format. Use YYYY-MM-DD")
			}
		}

		dbPath, _ := cmd.Flags().GetString("dbpath")
		absPath, err := utils.GetAbsDBPath(dbPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", absPath)
		}
		db, err := storage.Open(absPath)
		if err != nil {
			return err
		}
		defer db.Close()

		activities, err := db.ListActivities(cmd.Context(), storage.ListOptions{
			Type:        storage.ActivityType(typeFilter),
			ScrapedOnly: scrapedOnly,
			Since:       since,
			Limit:       limit,
		})
		if err != nil {
			return err
		}

		if len(activities) == 0 {
			fmt.Println("No activities match the given filters.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tCLASSIFIED\tDATE\tTITLE\t")
		for _, a := range activities {
			date := "-"
			if a.OriginalPublicationDate != nil {
				date = a.OriginalPublicationDate.Format("2006-01-02")
			}
			title := a.Title
			if len(title) > 60 {
				title = title[:57] + "..."
			}
			fmt.Fprintf(w, "%d\t%s\t%v\t%s\t%s\t\n", a.ID, a.ActivityType, a.AIClassified, date, title)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("type", "", "Filter by activity type (Project, Publication, Research)")
	listCmd.Flags().Bool("scraped", false, "Only show harvested activities")
	listCmd.Flags().String("since", "", "Only show activities updated since this date (YYYY-MM-DD)")
	listCmd.Flags().Int("limit", 0, "Maximum rows to print (0 = all)")
}
