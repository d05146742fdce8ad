package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/viant/docrag/service"

	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "index":
		indexCmd(os.Args[2:])
	case "upload":
		uploadCmd(os.Args[2:])
	case "list":
		listCmd(os.Args[2:])
	case "delete":
		deleteCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	case "ask":
		askCmd(os.Args[2:])
	case "schema":
		schemaCmd(os.Args[2:])
	case "selftest":
		selftestCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: docrag <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  index     Index new documents under the documents folder")
	fmt.Fprintln(os.Stderr, "  upload    Save a file under uploads and index it")
	fmt.Fprintln(os.Stderr, "  list      List indexed documents")
	fmt.Fprintln(os.Stderr, "  delete    Remove a document by id")
	fmt.Fprintln(os.Stderr, "  search    Return the closest chunks for a query")
	fmt.Fprintln(os.Stderr, "  ask       Route a question to tables, documents or the web")
	fmt.Fprintln(os.Stderr, "  schema    Describe tables loaded from CSV files")
	fmt.Fprintln(os.Stderr, "  selftest  Generate questions from tables and documents and check their routes")
}

// common holds flags shared by every command
type common struct {
	config   *string
	data     *string
	docs     *string
	embedder *string
	model    *string
}

func commonFlags(flags *flag.FlagSet) *common {
	return &common{
		config:   flags.String("config", "", "config yaml (optional)"),
		data:     flags.String("data", "", "index/metadata location (overrides config)"),
		docs:     flags.String("docs", "", "documents folder (overrides config)"),
		embedder: flags.String("embedder", "", "embedder: simple|openai|ollama|vertexai (overrides config)"),
		model:    flags.String("model", "", "embedding model (overrides config)"),
	}
}

func (c *common) load(ctx context.Context) *service.Config {
	cfg := service.DefaultConfig()
	if *c.config != "" {
		var err error
		if cfg, err = service.LoadConfig(ctx, *c.config); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *c.data != "" {
		cfg.Store.URL = *c.data
	}
	if *c.docs != "" {
		cfg.Documents.Root = *c.docs
	}
	if *c.embedder != "" {
		cfg.Embedder.Type = *c.embedder
	}
	if *c.model != "" {
		cfg.Embedder.Model = *c.model
	}
	return cfg
}

func (c *common) open(ctx context.Context) *service.Service {
	svc, err := service.New(ctx, c.load(ctx))
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc
}

func closeService(ctx context.Context, svc *service.Service) {
	if err := svc.Close(ctx); err != nil {
		log.Printf("close: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func indexCmd(args []string) {
	flags := flag.NewFlagSet("index", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	stats, err := svc.Init(ctx)
	if err != nil {
		log.Fatalf("index: %v", err)
	}
	if stats != nil {
		fmt.Println(stats.String())
	}
}

func uploadCmd(args []string) {
	flags := flag.NewFlagSet("upload", flag.ExitOnError)
	c := commonFlags(flags)
	path := flags.String("file", "", "file to upload (required)")
	name := flags.String("name", "", "document name (defaults to the file name)")
	flags.Parse(args)
	if *path == "" {
		flags.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	if *name == "" {
		*name = filepath.Base(*path)
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	record, err := svc.Upload(ctx, *name, data)
	if err != nil {
		log.Fatalf("upload: %v", err)
	}
	printJSON(record.Summary())
}

func listCmd(args []string) {
	flags := flag.NewFlagSet("list", flag.ExitOnError)
	c := commonFlags(flags)
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	printJSON(svc.Documents())
}

func deleteCmd(args []string) {
	flags := flag.NewFlagSet("delete", flag.ExitOnError)
	c := commonFlags(flags)
	id := flags.String("id", "", "document id (required)")
	flags.Parse(args)
	if *id == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	if err := svc.Delete(ctx, *id); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Printf("deleted %s\n", *id)
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	c := commonFlags(flags)
	query := flags.String("query", "", "query text (required)")
	limit := flags.Int("limit", 5, "max results")
	flags.Parse(args)
	if *query == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	matches, err := svc.Search(ctx, *query, *limit)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	printJSON(matches)
}

func askCmd(args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	c := commonFlags(flags)
	query := flags.String("query", "", "question (required)")
	skipIndex := flags.Bool("skip-index", false, "do not index the documents folder first")
	flags.Parse(args)
	if *query == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	if !*skipIndex {
		if _, err := svc.Init(ctx); err != nil {
			log.Fatalf("index: %v", err)
		}
	}
	db, err := svc.OpenTabular(ctx)
	if err != nil {
		log.Printf("tabular: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	printJSON(svc.NewAgent(db, nil).Ask(ctx, *query))
}

func schemaCmd(args []string) {
	flags := flag.NewFlagSet("schema", flag.ExitOnError)
	c := commonFlags(flags)
	samples := flags.Bool("samples", false, "print sample queries instead of the schema")
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	db, err := svc.OpenTabular(ctx)
	if err != nil {
		log.Fatalf("tabular: %v", err)
	}
	defer db.Close()
	if *samples {
		queries, err := db.SampleQueries(ctx)
		if err != nil {
			log.Fatalf("schema: %v", err)
		}
		printJSON(queries)
		return
	}
	schema, err := db.Schema(ctx)
	if err != nil {
		log.Fatalf("schema: %v", err)
	}
	printJSON(schema)
}

func selftestCmd(args []string) {
	flags := flag.NewFlagSet("selftest", flag.ExitOnError)
	c := commonFlags(flags)
	live := flags.Bool("live", false, "answer every question through the LLM instead of only routing it")
	skipIndex := flags.Bool("skip-index", false, "do not index the documents folder first")
	flags.Parse(args)

	ctx, cancel := signalContext()
	defer cancel()
	svc := c.open(ctx)
	defer closeService(ctx, svc)
	if !*skipIndex {
		if _, err := svc.Init(ctx); err != nil {
			log.Fatalf("index: %v", err)
		}
	}
	db, err := svc.OpenTabular(ctx)
	if err != nil {
		log.Printf("tabular: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	report, err := svc.SelfTest(ctx, db, nil, *live)
	if err != nil {
		log.Fatalf("selftest: %v", err)
	}
	printJSON(report)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	fmt.Println(string(data))
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
