package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/revisor/internal/handler"
	appI18n "github.com/pavelanni/revisor/internal/i18n"
	"github.com/pavelanni/revisor/internal/llm"
	"github.com/pavelanni/revisor/internal/model"
	"github.com/pavelanni/revisor/internal/revision"
	"github.com/pavelanni/revisor/internal/schedule"
	"github.com/pavelanni/revisor/internal/store"
	"github.com/pavelanni/revisor/internal/testgen"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "revisor",
		Short: "Adaptive revision planner with spaced repetition and AI practice tests",
	}

	serve := serveCmd()
	root.AddCommand(serve, planCmd(), generateCmd(), scheduleCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `revisor --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default language for messages (en, ru)")
	f.Float64("generate-rate", handler.DefaultGenerateRate, "Test generation requests per second per client")
	f.Int("generate-burst", handler.DefaultGenerateBurst, "Test generation burst per client")
	addStoreFlags(f)
	addLLMFlags(f)
	addScheduleFlags(f)
	addLogFlags(f)
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the revision plan and today's directive as JSON",
		RunE:  runPlan,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStoreFlags(f)
	addScheduleFlags(f)
	addLogFlags(f)
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate practice tests for one topic or all topics",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.Int64("topic-id", 0, "Topic to generate a test for")
	f.Bool("all", false, "Generate a test for every topic")
	f.Int("concurrency", 4, "Maximum concurrent generations with --all")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStoreFlags(f)
	addLLMFlags(f)
	addScheduleFlags(f)
	addLogFlags(f)

	cmd.MarkFlagsOneRequired("topic-id", "all")
	cmd.MarkFlagsMutuallyExclusive("topic-id", "all")
	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute the next review date for a topic state",
		RunE:  runSchedule,
	}
	f := cmd.Flags()
	f.StringP("difficulty", "d", "Medium", "Topic difficulty (Easy, Medium, Hard)")
	f.StringP("priority", "p", "Medium", "Topic priority (Low, Medium, High)")
	f.Int("score", -1, "Latest test score 0-100 (-1 = no test yet)")
	f.Int("interval", 0, "Current interval in days")
	f.Float64("topic-ease", 0, "Topic ease factor (0 = default ease factor)")
	addScheduleFlags(f)
	addLogFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export topics and attempts as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addStoreFlags(f)
	addLogFlags(f)
	return cmd
}

func addStoreFlags(f *pflag.FlagSet) {
	f.String("db", "revisor.db", "SQLite database path")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Duration("llm-timeout", testgen.DefaultTimeout, "Deadline for a single LLM call")
	f.Bool("llm-disabled", false, "Always use rule-based tests")
}

func addScheduleFlags(f *pflag.FlagSet) {
	def := schedule.DefaultConfig()
	f.Float64("ease-factor", def.DefaultEaseFactor, "Ease factor for new topics")
	f.Float64("easy-multiplier", def.Multipliers[model.DifficultyEasy], "Interval divisor for Easy topics")
	f.Float64("medium-multiplier", def.Multipliers[model.DifficultyMedium], "Interval divisor for Medium topics")
	f.Float64("hard-multiplier", def.Multipliers[model.DifficultyHard], "Interval divisor for Hard topics")
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("REVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("revisor")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/revisor")
	v.AddConfigPath("/etc/revisor")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func scheduleConfig(v *viper.Viper) schedule.Config {
	cfg := schedule.DefaultConfig()
	cfg.DefaultEaseFactor = v.GetFloat64("ease-factor")
	cfg.Multipliers = map[model.Difficulty]float64{
		model.DifficultyEasy:   v.GetFloat64("easy-multiplier"),
		model.DifficultyMedium: v.GetFloat64("medium-multiplier"),
		model.DifficultyHard:   v.GetFloat64("hard-multiplier"),
	}
	return cfg
}

func runtimeConfig(v *viper.Viper) model.RuntimeConfig {
	return model.RuntimeConfig{
		LLMTimeout:    v.GetDuration("llm-timeout"),
		LLMDisabled:   v.GetBool("llm-disabled"),
		GenerateRate:  v.GetFloat64("generate-rate"),
		GenerateBurst: v.GetInt("generate-burst"),
		Lang:          v.GetString("lang"),
	}
}

// newGenerator returns a generator backed by the LLM unless it is disabled.
// An unreachable endpoint is only logged: requests fall back to rule-based tests.
func newGenerator(ctx context.Context, v *viper.Viper, cfg model.RuntimeConfig) *testgen.Generator {
	var source testgen.QuestionSource
	if cfg.LLMDisabled {
		slog.Info("LLM disabled, using rule-based tests")
	} else {
		client := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			slog.Warn("LLM health check failed, tests may fall back to rule-based", "url", v.GetString("llm-url"), "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
		}
		source = client
	}
	return testgen.NewGenerator(source, cfg.LLMTimeout)
}

// openService opens the database and builds the revision service. The caller closes the store.
func openService(ctx context.Context, v *viper.Viper, withLLM bool) (*revision.Service, *store.Store, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	cfg := runtimeConfig(v)
	if !withLLM {
		cfg.LLMDisabled = true
	}
	svc := revision.New(
		db,
		schedule.NewWithConfig(scheduleConfig(v)),
		newGenerator(ctx, v, cfg),
	)
	return svc, db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	cfg := runtimeConfig(v)

	if err := appI18n.Init(cfg.Lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	svc, db, err := openService(cmd.Context(), v, true)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(svc, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Use(appI18n.Middleware(cfg.Lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"llm_timeout", cfg.LLMTimeout,
		"llm_disabled", cfg.LLMDisabled,
		"lang", cfg.Lang,
		"generate_rate", cfg.GenerateRate,
		"generate_burst", cfg.GenerateBurst,
	)
	return http.ListenAndServe(addr, r)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	svc, db, err := openService(cmd.Context(), v, false)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := svc.Plan()
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}
	directive, err := svc.Directive()
	if err != nil {
		return fmt.Errorf("build directive: %w", err)
	}

	return writeOutput(v.GetString("output"), map[string]any{
		"directive": directive,
		"plan":      entries,
	})
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	svc, db, err := openService(cmd.Context(), v, true)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if v.GetBool("all") {
		tests, err := svc.GenerateAll(ctx, v.GetInt("concurrency"))
		if err != nil {
			return fmt.Errorf("generate tests: %w", err)
		}
		slog.Info("generated tests", "count", len(tests))
		return writeOutput(v.GetString("output"), tests)
	}

	test, err := svc.GenerateTest(ctx, v.GetInt64("topic-id"))
	if err != nil {
		return fmt.Errorf("generate test: %w", err)
	}
	return writeOutput(v.GetString("output"), test)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	in := schedule.Input{
		Difficulty:      model.ParseDifficulty(v.GetString("difficulty")),
		Priority:        model.ParsePriority(v.GetString("priority")),
		CurrentInterval: v.GetInt("interval"),
		EaseFactor:      v.GetFloat64("topic-ease"),
	}
	if score := v.GetInt("score"); score >= 0 {
		in.LastScore = schedule.Score(score)
	}

	res := schedule.NewWithConfig(scheduleConfig(v)).Next(in)
	slog.Debug("computed schedule", "difficulty", in.Difficulty, "priority", in.Priority, "days", res.DaysUntilNext)
	return writeOutput("-", res)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	topics, err := db.ExportAllTopics()
	if err != nil {
		return fmt.Errorf("export topics: %w", err)
	}

	return writeOutput(v.GetString("output"), model.Export{
		ExportedAt: time.Now(),
		Topics:     topics,
	})
}

func writeOutput(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
