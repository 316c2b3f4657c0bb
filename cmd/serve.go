package cmd

import (
	"github.com/spf13/cobra"

	"github.com/daystar-sdg/sdgtrack/internal/server"
	"github.com/daystar-sdg/sdgtrack/internal/utils"
	"github.com/daystar-sdg/sdgtrack/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard JSON API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")

		dbPath, _ := cmd.Flags().GetString("dbpath")
		absPath, err := utils.GetAbsDBPath(dbPath)
		if err != nil {
			return err
		}
		db, err := storage.Open(absPath)
		if err != nil {
			return err
		}
		defer db.Close()

		return server.Run(server.Config{ListenAddr: listenAddr}, db)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
