// Command retrieval loads a corpus and runs Boolean or vector queries from
// the command line, optionally scoring them against a ground-truth file.
//
// Usage:
//
//	retrieval -source fables.txt -start 10 -end 400 -query "fox"
//	retrieval -source https://example.org/book.txt -mode boolean -stemmed -stopwords frequency
//	retrieval -source fables.txt -query "dog" -truth relevant.txt
//
// Without -query, queries are read one per line from standard input.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/service"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
)

type options struct {
	configPath string
	query      string
	mode       string
	filtered   bool
	stemmed    bool
	limit      int
	truthPath  string
	jsonOut    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "retrieval: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	cfg := config.Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "text"

	fs := flag.NewFlagSet("retrieval", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "optional YAML config; flags override it")
	source := fs.String("source", "", "corpus file path or http(s) URL")
	start := fs.Int("start", 0, "first line of the corpus to read (0-based)")
	end := fs.Int("end", 0, "line after the last one to read (0 = end of file)")
	pattern := fs.String("pattern", "", "regular expression with title and body capture groups")
	stemmerName := fs.String("stemmer", "", "porter or snowball")
	strategy := fs.String("stopwords", "", "none, list, frequency or builtin")
	listPath := fs.String("stoplist", "", "stopword list file, one word per line")
	common := fs.Float64("common", -1, "frequency filter: drop terms in at least this fraction of documents")
	rare := fs.Float64("rare", -1, "frequency filter: drop terms in at most this fraction of documents")
	fs.StringVar(&opts.query, "query", "", "query to run; read from stdin when empty")
	fs.StringVar(&opts.mode, "mode", "", "boolean or vector")
	fs.BoolVar(&opts.filtered, "filtered", false, "search the stopword-filtered view")
	fs.BoolVar(&opts.stemmed, "stemmed", false, "search the stemmed view")
	fs.IntVar(&opts.limit, "limit", 0, "maximum results to print")
	fs.StringVar(&opts.truthPath, "truth", "", "ground-truth file of relevant document IDs")
	fs.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of a table")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	override(&cfg.Corpus.Source, *source)
	override(&cfg.Corpus.Pattern, *pattern)
	override(&cfg.Analysis.Stemmer, *stemmerName)
	override(&cfg.Analysis.Stopwords.Strategy, *strategy)
	override(&cfg.Analysis.Stopwords.ListPath, *listPath)
	override(&cfg.Search.DefaultMode, opts.mode)
	override(&cfg.Logging.Level, *logLevel)
	if *start > 0 {
		cfg.Corpus.StartLine = *start
	}
	if *end > 0 {
		cfg.Corpus.EndLine = *end
	}
	if *common >= 0 {
		cfg.Analysis.Stopwords.CommonCutoff = *common
	}
	if *rare >= 0 {
		cfg.Analysis.Stopwords.RareCutoff = *rare
	}
	if *listPath != "" && *strategy == "" {
		cfg.Analysis.Stopwords.Strategy = "list"
	}
	if cfg.Corpus.Source == "" {
		return fmt.Errorf("a corpus -source is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	collection, err := corpus.NewLoader(cfg.Corpus).LoadCollection(ctx, cfg.Corpus, cfg.Analysis.Stemmer)
	if err != nil {
		return err
	}
	svc := service.New(collection,
		service.WithDefaultMode(service.Mode(cfg.Search.DefaultMode)),
		service.WithLimits(cfg.Search.DefaultLimit, max(cfg.Search.MaxResults, opts.limit)),
	)
	removed, err := svc.ApplyStrategy(ctx, cfg.Analysis.Stopwords)
	if err != nil {
		return err
	}
	slog.Info("collection loaded", "documents", collection.Len(), "terms_removed", removed)

	var relevant evaluation.IDSet
	if opts.truthPath != "" {
		if relevant, err = evaluation.LoadGroundTruthFile(opts.truthPath); err != nil {
			return err
		}
	}

	if opts.query != "" {
		return answer(ctx, svc, opts, opts.query, relevant, stdout)
	}
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if err := answer(ctx, svc, opts, q, relevant, stdout); err != nil {
			fmt.Fprintf(stdout, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

type output struct {
	*service.Response
	Evaluation *evaluation.Report `json:"evaluation,omitempty"`
}

func answer(ctx context.Context, svc *service.Service, opts options, query string, relevant evaluation.IDSet, w io.Writer) error {
	req := service.Request{
		Query:    query,
		Mode:     service.Mode(opts.mode),
		Filtered: opts.filtered,
		Stemmed:  opts.stemmed,
		Limit:    opts.limit,
	}
	resp, err := svc.Search(ctx, req)
	if err != nil {
		return err
	}
	out := output{Response: resp}
	if relevant != nil {
		if out.Evaluation, err = svc.Evaluate(ctx, req, relevant); err != nil {
			return err
		}
	}

	if opts.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "%s query %q on %s view: %d matching documents\n", resp.Mode, resp.Query, resp.View, resp.TotalHits)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tID\tTITLE")
	for i, h := range resp.Hits {
		fmt.Fprintf(tw, "%d\t%.4f\t%d\t%s\n", i+1, h.Score, h.DocID, h.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if out.Evaluation != nil {
		fmt.Fprintf(w, "precision %.4f  recall %.4f  (%d of %d relevant retrieved)\n",
			out.Evaluation.Precision, out.Evaluation.Recall, out.Evaluation.Hits, len(out.Evaluation.Relevant))
	}
	return nil
}
