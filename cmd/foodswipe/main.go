package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/foodswipe/internal/api"
	"github.com/jask/foodswipe/internal/config"
	"github.com/jask/foodswipe/internal/search"
	"github.com/jask/foodswipe/internal/secrets"
	"github.com/jask/foodswipe/internal/service"
	"github.com/jask/foodswipe/internal/settings"
	"github.com/jask/foodswipe/internal/testdata"
	"github.com/jask/foodswipe/internal/tui"
)

const usage = `usage: foodswipe [command]

commands:
  tui                         swipe through nearby places (default)
  serve                       serve the session over a JWT-protected JSON API
  index -file venues.tsv      load venues into the Elasticsearch index
  index -sample 200 [-out f]  generate sample venues around location
  key set|get|delete|list     manage stored search API keys
  hash-password <password>    print a bcrypt hash for server.password_hash
  reset                       forget all liked places
`

func main() {
	log.SetPrefix("foodswipe: ")
	log.SetFlags(0)

	cmd := "tui"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "tui":
		err = runTUI(ctx)
	case "serve":
		err = runServe(ctx)
	case "index":
		err = runIndex(ctx, args)
	case "key":
		err = runKey(args)
	case "hash-password":
		err = runHashPassword(args)
	case "reset":
		err = runReset(ctx)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runTUI(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// the alt screen owns stdout; keep warnings out of the way
	logger := log.New(os.Stderr, "foodswipe: ", log.LstdFlags)
	if f, err := openLogFile(); err == nil {
		defer f.Close()
		logger.SetOutput(f)
	}
	env, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	app := tui.New(ctx, env.Session)
	defer app.Close()
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Server.Username == "" || cfg.Server.PasswordHash == "" {
		return fmt.Errorf("server.username and server.password_hash must be set (see hash-password)")
	}
	signingKey := os.Getenv(cfg.Server.SigningKeyEnv)
	if signingKey == "" {
		return fmt.Errorf("%s environment variable is not set", cfg.Server.SigningKeyEnv)
	}
	logger := log.New(os.Stderr, "foodswipe: ", log.LstdFlags)
	env, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	auth := &api.Auth{
		SigningKey:   []byte(signingKey),
		Username:     cfg.Server.Username,
		PasswordHash: cfg.Server.PasswordHash,
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(env.Session, auth, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Printf("serving on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runIndex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	file := fs.String("file", "", "tab-separated venue file with a header row")
	sample := fs.Int("sample", 0, "generate this many sample venues around location instead of reading -file")
	out := fs.String("out", "", "write the venues as TSV to this path instead of indexing them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var docs []search.ElasticDoc
	switch {
	case *sample > 0:
		ref, ok := cfg.Reference()
		if !ok {
			return fmt.Errorf("-sample needs location.latitude and location.longitude")
		}
		docs = testdata.Venues(ref, *sample, float64(settings.MaxRadiusMeters)/4, time.Now().UnixNano())
	case *file != "":
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		docs, err = search.ReadVenueTSV(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", *file, err)
		}
	default:
		return fmt.Errorf("one of -file or -sample is required")
	}

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := testdata.WriteTSV(f, docs); err != nil {
			f.Close()
			return err
		}
		log.Printf("wrote %d venues to %s", len(docs), *out)
		return f.Close()
	}

	client, err := search.NewElasticClient(cfg.Elastic.URL)
	if err != nil {
		return fmt.Errorf("connect elastic: %w", err)
	}
	defer client.Stop()
	ix := search.NewElasticIndexer(client, cfg.Elastic.Index)
	created, err := ix.EnsureIndex(ctx)
	if err != nil {
		return err
	}
	if created {
		log.Printf("created index %s", ix.Index)
	}
	n, err := ix.Load(ctx, docs)
	if err != nil {
		return err
	}
	log.Printf("indexed %d venues into %s", n, ix.Index)
	return nil
}

func runKey(args []string) error {
	store, err := secrets.Default()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("expected set, get, delete or list")
	}
	switch args[0] {
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: key set <provider> <key>")
		}
		if err := store.StoreAPIKey(args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("stored key for %s\n", args[1])
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: key get <provider>")
		}
		k, err := store.FetchAPIKey(args[1])
		if err != nil {
			return err
		}
		fmt.Println(maskKey(k))
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: key delete <provider>")
		}
		return store.DeleteAPIKey(args[1])
	case "list":
		providers, err := store.Providers()
		if err != nil {
			return err
		}
		for _, p := range providers {
			fmt.Println(p)
		}
	default:
		return fmt.Errorf("unknown key command %q", args[0])
	}
	return nil
}

func maskKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return k[:4] + "…" + k[len(k)-4:]
}

func runHashPassword(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: hash-password <password>")
	}
	h, err := api.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}

func runReset(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend == "file" {
		slot, err := fileSlot(cfg)
		if err != nil {
			return err
		}
		return slot.Store(ctx, likedKey, []byte("[]"))
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	n, err := (&service.MaintenanceService{DB: db}).Reset(ctx)
	if err != nil {
		return err
	}
	log.Printf("removed %d stored slots", n)
	return nil
}
