package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"docuwise-client/internal/config"
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/documents"
	"docuwise-client/pkg/navigation"
	"docuwise-client/pkg/retrieval"
	"docuwise-client/pkg/store"

	"github.com/fatih/color"
)

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func main() {
	offline := flag.Bool("offline", false, "run without online insights")
	jump := flag.Int("jump", 0, "activate the n-th snippet (1-based) after the run")
	flag.Parse()

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		color.Red("Usage: selection_probe [-offline] [-jump n] <selected text>")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.NewNopLogger()
	ctx := context.Background()

	st := store.New(log)
	client := backend.NewHTTPClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)

	color.Cyan("🚀 Probing %s\n", cfg.Backend.BaseURL)

	color.Yellow("\n1. List Documents")
	if err := documents.NewManager(st, client).Refresh(ctx); err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	snap := st.Snapshot()
	for _, d := range snap.Documents {
		fmt.Printf("  %s\n", d.ID)
	}
	color.Green("Active: %q", snap.ActiveDocumentID)

	st.SetOnlineMode(!*offline)

	color.Yellow("\n2. Run Selection (online=%v)", !*offline)
	pipeline := retrieval.NewPipeline(st, client, retrieval.Config{
		MaxSnippets:     cfg.Retrieval.MaxSnippets,
		MaxInsightTexts: cfg.Retrieval.MaxInsightTexts,
		Persona:         cfg.Retrieval.Persona,
		Task:            cfg.Retrieval.Task,
	}, retrieval.WithReporter(stderrReporter{}))

	result := pipeline.Run(ctx, text)
	if result == retrieval.ResultCommitted {
		color.Green("Result: %s", result)
	} else {
		color.Red("Result: %s", result)
	}

	snap = st.Snapshot()
	color.Yellow("\n3. Snippets (%d)", len(snap.Snippets))
	for i, s := range snap.Snippets {
		page := "-"
		if s.PageNumber != nil {
			page = fmt.Sprint(*s.PageNumber)
		}
		color.Magenta("[%d] %s p.%s", i+1, navigation.CanonicalID(s, cfg.Retrieval.DocIDSuffix), page)
		fmt.Printf("    %s\n", s.Text)
	}

	color.Yellow("\n4. Insights")
	prettyPrint(snap.InsightsPack)

	if *jump > 0 && *jump <= len(snap.Snippets) {
		color.Yellow("\n5. Activate Snippet %d", *jump)
		nav := navigation.NewController(st, cfg.Retrieval.DocIDSuffix, log, nil)
		outcome := nav.Activate(snap.Snippets[*jump-1])
		color.Green("Outcome: %s", outcome)
		prettyPrint(st.Snapshot().NavigationIntent)
	}
}

type stderrReporter struct{}

func (stderrReporter) Report(_ context.Context, stage string, err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "%s failed: %v\n", stage, err)
}
