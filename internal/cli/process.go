package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"telegram_parser/internal/assembler"
	"telegram_parser/internal/publish"
	"telegram_parser/internal/telegram"
)

func init() {
	var (
		inputPath string
		batchID   string
		source    string
		pretty    bool
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a batch of telegrams from a file or stdin",
		Run: func(cmd *cobra.Command, args []string) {
			runProcess(cmd, inputPath, batchID, source, pretty, showStats)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file, one telegram per line (default: stdin)")
	cmd.Flags().StringVar(&batchID, "batch-id", "", "Batch id (default: random UUID)")
	cmd.Flags().StringVar(&source, "source", string(telegram.SourceFile), "Message source: api, file or web")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print batch and cache counters to stderr")

	RootCmd.AddCommand(cmd)
}

func runProcess(cmd *cobra.Command, inputPath, batchID, source string, pretty, showStats bool) {
	lines, err := readLines(inputPath)
	if err != nil {
		exitErr("read input", err)
	}
	if batchID == "" {
		batchID = uuid.NewString()
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

	var pub *publish.Publisher
	if url := getNATSURL(); url != "" {
		pub, err = publish.Connect(publish.Config{URL: url, Name: "telegram-parser"})
		if err != nil {
			exitErr("connect nats", err)
		}
		defer func() { _ = pub.Close() }()
	}

	p.proc.OnMessageParsed(func(msg *telegram.ParsedMessage) {
		if local != nil {
			if _, err := local.SaveTelegram(msg); err != nil {
				log.Printf("save telegram %s: %v", msg.ID, err)
			}
		}
		if pub != nil {
			if err := pub.PublishMessage(msg); err != nil {
				log.Printf("publish message %s: %v", msg.ID, err)
			}
		}
	})
	p.asm.OnRecordUpdated(func(rec assembler.FlightRecord) {
		if local != nil {
			if err := local.SaveFlightRecord(rec); err != nil {
				log.Printf("save record %s: %v", rec.FlightID, err)
			}
		}
		if pub != nil {
			if err := pub.PublishRecord(rec); err != nil {
				log.Printf("publish record %s: %v", rec.FlightID, err)
			}
		}
	})

	handle, err := p.proc.Submit(cmd.Context(), batchID, lines, telegram.Source(source))
	if err != nil {
		exitErr("submit batch", err)
	}
	snap := handle.Wait()

	if local != nil {
		if err := local.SaveBatch(snap, source); err != nil {
			log.Printf("save batch %s: %v", snap.ID, err)
		}
	}
	if pub != nil {
		if err := pub.PublishBatch(snap); err != nil {
			log.Printf("publish batch %s: %v", snap.ID, err)
		}
	}

	out := struct {
		Batch   interface{}              `json:"batch"`
		Records []assembler.FlightRecord `json:"records"`
	}{
		Batch:   snap,
		Records: p.asm.Records(),
	}
	printJSON(out, pretty)

	if showStats {
		cs := p.cache.Stats()
		fmt.Fprintf(os.Stderr, "stats: total=%d processed=%d valid=%d invalid=%d flights=%d cache(hits=%d misses=%d entries=%d)\n",
			snap.Total, snap.Processed, snap.Valid, snap.Invalid, p.asm.Len(),
			cs.Hits, cs.Misses, cs.Entries)
	}
}

func readLines(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func printJSON(v interface{}, pretty bool) {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		exitErr("encode json", err)
	}
	fmt.Println(string(b))
}
