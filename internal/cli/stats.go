package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics from the local database",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	local, err := openLocal()
	if err != nil {
		exitErr("open database", err)
	}
	if local == nil {
		exitErr("stats", fmt.Errorf("no database configured, set --db or $UAV_DB"))
	}
	defer func() { _ = local.Close() }()

	stats, err := local.GetStats()
	if err != nil {
		exitErr("stats", err)
	}

	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}
