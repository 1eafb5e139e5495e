package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/TRIBUI106/czGDriveDownloader/internal/batch"
	"github.com/TRIBUI106/czGDriveDownloader/internal/config"
	"github.com/TRIBUI106/czGDriveDownloader/internal/drive"
	"github.com/TRIBUI106/czGDriveDownloader/internal/expand"
	"github.com/TRIBUI106/czGDriveDownloader/internal/progress"
	"github.com/TRIBUI106/czGDriveDownloader/internal/repo"
	"github.com/TRIBUI106/czGDriveDownloader/internal/resolve"
	"github.com/TRIBUI106/czGDriveDownloader/internal/scrape"
	"github.com/TRIBUI106/czGDriveDownloader/internal/transfer"
)

var (
	configPath = flag.String("config", config.DefaultPath, "Path to the JSON config file.")
	outputDir  = flag.String("dir", "", "Download directory, overrides the config file.")
	workers    = flag.Int("workers", 0, "Worker limit, overrides the config file.")
	linksFile  = flag.String("links-file", "", "Read links from a file, one per line; use '-' for stdin.")
	quiet      = flag.Bool("quiet", false, "Suppress the progress bar.")
)

func main() {
	flag.Parse()
	godotenv.Load()

	links := flag.Args()
	if *linksFile != "" {
		fromFile, err := readLinks(*linksFile)
		if err != nil {
			log.Fatalf("read links: %v", err)
		}
		links = append(links, fromFile...)
	}
	if len(links) == 0 {
		fmt.Fprintln(os.Stderr, "at least one share link is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *outputDir != "" {
		cfg.DownloadDir = *outputDir
	}
	if *workers > 0 {
		cfg.WorkerLimit = *workers
	}

	logger := cliLogger(*quiet)

	client, err := drive.NewClientFromEnv()
	if err != nil {
		log.Fatalf("drive client: %v", err)
	}

	bus := progress.NewBus()
	parser := scrape.NewHTMLParser()
	resolver := resolve.New(logger, client, parser)
	expander := expand.New(logger, client, parser, resolver)
	engine := transfer.New(logger, client, bus, cfg.DownloadDir, cfg.TransferOptions())
	runner := batch.New(logger, resolver, expander, engine, repo.NewInMemoryTaskRepo(), bus, batch.Options{
		WorkerLimit: cfg.WorkerLimit,
		MaxDepth:    cfg.MaxDepth,
		Deduplicate: cfg.Deduplicate,
	})

	barDone := make(chan struct{})
	cancelBar := func() {}
	if *quiet {
		close(barDone)
	} else {
		events, cancel := bus.Subscribe(256)
		cancelBar = cancel
		go trackProgress(events, barDone)
	}

	sum := runner.Run(context.Background(), uuid.NewString(), links)
	cancelBar()
	<-barDone

	fmt.Printf("\nDownload finished.\n")
	fmt.Printf("  Successful: %d\n", sum.Successful)
	fmt.Printf("  Failed:     %d\n", sum.Failed)
	fmt.Printf("  Invalid:    %d\n", sum.Invalid)
	fmt.Printf("  Saved to:   %s\n", sum.OutputRoot)

	if sum.Failed > 0 {
		os.Exit(1)
	}
}

// trackProgress drives a batch-level bar off the event stream. The total
// grows as tasks are queued, since folder links expand into extra tasks
// only during the run.
func trackProgress(events <-chan progress.Event, done chan<- struct{}) {
	defer close(done)

	bar := progressbar.NewOptions64(0,
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	var total int64
	for e := range events {
		switch e.Type {
		case progress.EventQueued:
			total++
			bar.ChangeMax64(total)
		case progress.EventComplete, progress.EventFailed:
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
}

func cliLogger(quiet bool) *slog.Logger {
	level := slog.LevelWarn
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// readLinks loads share links from a file or stdin, skipping blank lines
// and '#' comments.
func readLinks(name string) ([]string, error) {
	input := os.Stdin
	if name != "-" {
		var err error
		input, err = os.Open(name)
		if err != nil {
			return nil, err
		}
		defer input.Close()
	}

	sc := bufio.NewScanner(input)
	var links []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	return links, sc.Err()
}
