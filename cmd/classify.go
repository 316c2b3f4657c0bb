package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daystar-sdg/sdgtrack/internal/utils"
	"github.com/daystar-sdg/sdgtrack/pkg/ai"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

// classifyCmd implements: sdgtrack classify
//
// Runs the AI oracle over activities that have not been classified yet and
// stores one SDGImpact row per (activity, goal) pair. A transport failure
// aborts the command (the oracle is down for everyone); a validation failure
// only skips the offending activity.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify pending activities against the 17 SDGs using AI",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		maxResults, _ := cmd.Flags().GetInt("max-results")

		dbPath, _ := cmd.Flags().GetString("dbpath")
		lock, err := utils.NewDBLock(dbPath)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		absPath, err := utils.GetAbsDBPath(dbPath)
		if err != nil {
			return err
		}
		db, err := storage.Open(absPath)
		if err != nil {
			return err
		}
		defer db.Close()

		classifier := ai.NewClassifier(ai.Config{
			APIKey:   viper.GetString("gemini.api_key"),
			Model:    viper.GetString("gemini.model"),
			Endpoint: viper.GetString("gemini.endpoint"),
		})

		activities, err := db.ListUnclassified(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(activities) == 0 {
			fmt.Println("No unclassified activities found.")
			return nil
		}

		classified := 0
		skipped := 0
		for _, act := range activities {
			impacts, err := classifier.Classify(cmd.Context(), act.Title, act.Description, maxResults)
			if err != nil {
				var vErr *ai.ValidationError
				if errors.As(err, &vErr) {
					utils.Log.Errorf("Skipping activity %d (%s): %v", act.ID, act.Title, err)
					utils.Log.Debugf("Offending oracle output: %s", vErr.Raw)
					skipped++
					continue
				}
				return fmt.Errorf("classification aborted at activity %d: %w", act.ID, err)
			}

			for _, impact := range impacts {
				err := db.UpsertImpact(cmd.Context(), storage.SDGImpact{
					ActivityID:    act.ID,
					SDGNumber:     impact.SDGNumber,
					Score:         impact.RelevanceScore,
					Justification: impact.Justification,
				})
				if err != nil {
					return err
				}
			}
			if err := db.MarkClassified(cmd.Context(), act.ID); err != nil {
				return err
			}
			classified++
		}

		fmt.Printf("Classification completed: %d activities classified, %d skipped.\n", classified, skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().Int("limit", 0, "Classify at most this many activities (0 = all pending)")
	classifyCmd.Flags().Int("max-results", ai.DefaultMaxResults, "Maximum SDGs to score per activity")
}
