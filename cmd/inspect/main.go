// Command inspect runs one extractor over a single page and prints JSON, or
// prints selector matches while a layout change is being investigated.
//
// Usage (stdin):
//
//	curl -s "https://en.onepiece-cardgame.com/cardlist/?series=569101" | inspect -kind cards
//
// Usage (fetch URL):
//
//	inspect -url "https://en.onepiece-cardgame.com/rules/blockicon-card/" -kind blockrules
//
// Usage (saved file):
//
//	inspect -file page.html -kind sets
//
// Debug (print outer HTML blocks):
//
//	inspect -file page.html -selector "div.backCol"
//
// Debug (print text for selector matches):
//
//	inspect -file page.html -selector "div.cardName" -text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"cardscrape/internal/config"
	"cardscrape/internal/extracthtml"
	"cardscrape/internal/fetch"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	kind := fs.String("kind", "", "extractor to run: sets, cards or blockrules")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (not JSON)")
	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches")
	urlFlag := fs.String("url", "", "fetch HTML from URL instead of stdin")
	fileFlag := fs.String("file", "", "read HTML from file instead of stdin")
	timeout := fs.Duration("timeout", 20*time.Second, "timeout for -url fetch")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *debugSelector == "" && *kind == "" {
		fmt.Fprintf(stderr, "usage: inspect -kind sets|cards|blockrules | -selector CSS [-text]\n")
		return 2
	}
	switch *kind {
	case "", "sets", "cards", "blockrules":
	default:
		fmt.Fprintf(stderr, "unknown -kind %q\n", *kind)
		return 2
	}

	fetcher := fetch.New(httpClient, *timeout)
	html, err := fetcher.Load(ctx, fetch.Input{
		URL:   *urlFlag,
		File:  *fileFlag,
		Stdin: stdin,
	}, config.Default().RequestHeaders)
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	doc, err := extracthtml.ParseDocument(html)
	if err != nil {
		fmt.Fprintf(stderr, "parse html: %v\n", err)
		return 1
	}

	// Debug selector mode prints raw matches and ignores -kind.
	if *debugSelector != "" {
		n, err := extracthtml.DebugPrintSelector(stdout, doc, *debugSelector, *onlyText)
		if err != nil {
			fmt.Fprintf(stderr, "debug selector: %v\n", err)
			return 1
		}
		if n == 0 {
			fmt.Fprintf(stderr, "no matches for %q\n", *debugSelector)
		}
		return 0
	}

	var out any
	switch *kind {
	case "sets":
		sets, err := extracthtml.ExtractSets(doc)
		if err != nil {
			fmt.Fprintf(stderr, "extract sets: %v\n", err)
			return 1
		}
		out = sets
	case "cards":
		out = extracthtml.ExtractCards(doc)
	case "blockrules":
		rules := extracthtml.ExtractBlockRules(doc)
		if rules.Sections < 2 {
			fmt.Fprintf(stderr, "warning: found %d rule sections, want 2\n", rules.Sections)
		}
		out = rules
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "encode json: %v\n", err)
		return 1
	}
	return 0
}
