package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"telegram_parser/internal/storage"
	"telegram_parser/internal/telegram"
)

func init() {
	var limit int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push the local archive to ClickHouse and PostgreSQL",
		Run: func(cmd *cobra.Command, args []string) {
			runSync(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10_000, "Max rows to sync per table")

	RootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, limit int) {
	local, err := openLocal()
	if err != nil {
		exitErr("open database", err)
	}
	if local == nil {
		exitErr("sync", fmt.Errorf("no database configured, set --db or $UAV_DB"))
	}
	defer func() { _ = local.Close() }()

	db, err := storage.Open(cmd.Context(), storage.DefaultConfig())
	if err != nil {
		exitErr("open warehouses", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := local.QueryTelegrams(storage.LocalQueryParams{Limit: limit})
	if err != nil {
		exitErr("read telegrams", err)
	}
	msgs := make([]*telegram.ParsedMessage, 0, len(rows))
	for _, row := range rows {
		msg := &telegram.ParsedMessage{
			ID:       row.MessageID,
			BatchID:  row.BatchID,
			Type:     telegram.MessageType(row.MessageType),
			Source:   telegram.Source(row.Source),
			FlightID: row.FlightID,
			Region:   row.Region,
			RawText:  row.RawText,
		}
		msg.AirportCode = row.AirportCode
		if row.ErrorsJSON != "" {
			_ = json.Unmarshal([]byte(row.ErrorsJSON), &msg.Errors)
		}
		msgs = append(msgs, msg)
	}
	if err := db.CH.InsertBatch(cmd.Context(), msgs); err != nil {
		exitErr("archive telegrams", err)
	}

	records, err := local.ListFlightRecords("", limit)
	if err != nil {
		exitErr("read records", err)
	}
	for _, rec := range records {
		if err := db.PG.UpsertFlightRecord(cmd.Context(), rec); err != nil {
			exitErr(fmt.Sprintf("upsert record %s", rec.FlightID), err)
		}
	}

	fmt.Printf("synced %d telegrams, %d flight records\n", len(msgs), len(records))
}
