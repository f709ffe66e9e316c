package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/publish"
	"telegram_parser/internal/telegram"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Consume telegram batches from NATS until interrupted",
		Run:   runIngest,
	}

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	url := getNATSURL()
	if url == "" {
		exitErr("ingest", fmt.Errorf("no NATS URL configured, set --nats or $UAV_NATS"))
	}

	p, err := newPipeline()
	if err != nil {
		exitErr("build pipeline", err)
	}

	local, err := openLocal()
	if err != nil {
		exitErr("open database", err)
	}
	if local != nil {
		defer func() { _ = local.Close() }()
	}

	pub, err := publish.Connect(publish.Config{URL: url, Name: "telegram-parser-ingest"})
	if err != nil {
		exitErr("connect nats", err)
	}
	defer func() { _ = pub.Close() }()

	p.proc.OnMessageParsed(func(msg *telegram.ParsedMessage) {
		if local != nil {
			if _, err := local.SaveTelegram(msg); err != nil {
				log.Printf("save telegram %s: %v", msg.ID, err)
			}
		}
		if err := pub.PublishMessage(msg); err != nil {
			log.Printf("publish message %s: %v", msg.ID, err)
		}
	})
	p.asm.OnRecordUpdated(func(rec assembler.FlightRecord) {
		if local != nil {
			if err := local.SaveFlightRecord(rec); err != nil {
				log.Printf("save record %s: %v", rec.FlightID, err)
			}
		}
		if err := pub.PublishRecord(rec); err != nil {
			log.Printf("publish record %s: %v", rec.FlightID, err)
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := pub.SubscribeIngest(ctx, func(ctx context.Context, req publish.IngestRequest) {
		batchID := req.BatchID
		if batchID == "" {
			batchID = uuid.NewString()
		}
		source := req.Source
		if source == "" {
			source = string(telegram.SourceAPI)
		}

		handle, err := p.proc.Submit(ctx, batchID, req.Lines, telegram.Source(source))
		if err != nil {
			log.Printf("ingest batch %s rejected: %v", batchID, err)
			return
		}
		go func() {
			snap := handle.Wait()
			if local != nil {
				if err := local.SaveBatch(snap, source); err != nil {
					log.Printf("save batch %s: %v", snap.ID, err)
				}
			}
			if err := pub.PublishBatch(snap); err != nil {
				log.Printf("publish batch %s: %v", snap.ID, err)
			}
			log.Printf("batch %s %s: %d/%d processed, %d valid, %d invalid",
				snap.ID, snap.Status, snap.Processed, snap.Total, snap.Valid, snap.Invalid)
		}()
	})
	if err != nil {
		exitErr("subscribe", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Printf("listening on %s, regions=%d", publish.SubjectIngest, p.index.Len())
	<-ctx.Done()
	log.Printf("shutting down")
}
