// Command kaori is the operator CLI for the Kaori personalization core.
// It speaks directly to the SQLite store — there is no network surface —
// and exists for onboarding users, inspecting personas, and exercising the
// extraction and compaction pipelines against real data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mfaleiro/kaori/common/environment"
	"github.com/mfaleiro/kaori/common/version"
	"github.com/mfaleiro/kaori/internal/kaori/chat"
	"github.com/mfaleiro/kaori/internal/kaori/config"
	"github.com/mfaleiro/kaori/internal/kaori/onboarding"
	"github.com/mfaleiro/kaori/internal/kaori/persona"
	"github.com/mfaleiro/kaori/internal/kaori/store"
)

const usage = `kaori — shopping-assistant personalization core

Usage:
  kaori onboard      -user <id> -f <submission.json>
  kaori persona      -user <id> [-json]
  kaori extract      <text>
  kaori interactions -user <id> [-limit N]
  kaori compact      -f <transcript.json> [-max-tokens N]
  kaori version

Environment:
  KAORI_CONFIG         path to YAML config (default: ./kaori.yaml)
  KAORI_DATABASE_PATH  overrides database.path from the config
  KAORI_LOG_LEVEL      debug | info | warn | error (default: info)
  KAORI_OP_TIMEOUT     per-command database timeout (default: 10s)
`

func main() {
	configureLogging()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "onboard":
		err = cmdOnboard(os.Args[2:])
	case "persona":
		err = cmdPersona(os.Args[2:])
	case "extract":
		err = cmdExtract(os.Args[2:])
	case "interactions":
		err = cmdInteractions(os.Args[2:])
	case "compact":
		err = cmdCompact(os.Args[2:])
	case "version":
		fmt.Println("kaori", version.Info())
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configureLogging() {
	level := slog.LevelInfo
	switch environment.StringOr("KAORI_LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// opContext bounds one CLI operation against the local database.
func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(),
		environment.DurationOr("KAORI_OP_TIMEOUT", 10*time.Second))
}

// loadConfig resolves the YAML config plus environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(environment.StringOr("KAORI_CONFIG", "./kaori.yaml"))
	if err != nil {
		return nil, err
	}
	if path, ok := environment.String("KAORI_DATABASE_PATH"); ok && path != "" {
		cfg.Database.Path = path
	}
	return cfg, nil
}

// openEngine opens the store and wraps it in a persona engine.
// The caller must Close the returned store.
func openEngine() (*store.Store, *persona.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return st, persona.NewEngine(st, slog.Default()), nil
}

func cmdOnboard(args []string) error {
	fs := flag.NewFlagSet("onboard", flag.ExitOnError)
	userID := fs.String("user", "", "user ID")
	file := fs.String("f", "", "path to the onboarding submission JSON")
	fs.Parse(args)

	if *userID == "" || *file == "" {
		return fmt.Errorf("onboard requires -user and -f")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	sub, err := onboarding.Parse(data)
	if err != nil {
		return err
	}

	st, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := opContext()
	defer cancel()

	stored, err := engine.Initialize(ctx, *userID, onboarding.InitialPersona(sub))
	if err != nil {
		return err
	}

	fmt.Printf("persona initialized for %s (confidence %.2f)\n", *userID, stored.Confidence)
	return nil
}

func cmdPersona(args []string) error {
	fs := flag.NewFlagSet("persona", flag.ExitOnError)
	userID := fs.String("user", "", "user ID")
	asJSON := fs.Bool("json", false, "print the raw persona document instead of the rendered block")
	fs.Parse(args)

	if *userID == "" {
		return fmt.Errorf("persona requires -user")
	}

	st, engine, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := opContext()
	defer cancel()

	stored, err := engine.Get(ctx, *userID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("no persona found for %s", *userID)
	}

	if *asJSON {
		out, err := json.MarshalIndent(stored.Record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(persona.Render(stored.Record, stored.Confidence))
	return nil
}

func cmdExtract(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("extract requires exactly one text argument")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	extractor := persona.NewExtractor(persona.ExtractorOptions{
		ExtraDietaryKeywords:  cfg.Persona.ExtraDietaryKeywords,
		ExtraCategoryKeywords: cfg.Persona.ExtraCategoryKeywords,
	})

	signals := extractor.ChatSignals(args[0])
	if len(signals) == 0 {
		fmt.Println("no signals")
		return nil
	}
	out, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdInteractions(args []string) error {
	fs := flag.NewFlagSet("interactions", flag.ExitOnError)
	userID := fs.String("user", "", "user ID")
	limit := fs.Int("limit", 20, "max rows to print")
	fs.Parse(args)

	if *userID == "" {
		return fmt.Errorf("interactions requires -user")
	}

	st, _, err := openEngine()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := opContext()
	defer cancel()

	rows, err := st.RecentInteractions(ctx, *userID, *limit)
	if err != nil {
		return err
	}
	for _, in := range rows {
		fmt.Printf("%s  %-15s  signals=%d\n", in.CreatedAt.Format(time.RFC3339), in.Type, len(in.Signals))
	}
	return nil
}

func cmdCompact(args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	file := fs.String("f", "", "path to a JSON transcript ([]Message)")
	maxTokens := fs.Float64("max-tokens", 0, "token budget (default: config history.maxTokens)")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("compact requires -f")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var msgs []chat.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}

	budget := *maxTokens
	if budget <= 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		budget = cfg.History.MaxTokens
	}

	compacted := chat.Compact(msgs, budget)
	out, err := json.MarshalIndent(compacted, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	slog.Info("compacted transcript",
		"messages_in", len(msgs),
		"messages_out", len(compacted),
		"tokens_estimate", int(chat.EstimateHistory(compacted)),
	)
	return nil
}
