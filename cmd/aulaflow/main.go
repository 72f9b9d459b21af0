package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/aulaflow/aulaflow/internal/handler"
	appI18n "github.com/aulaflow/aulaflow/internal/i18n"
	"github.com/aulaflow/aulaflow/internal/llm"
	"github.com/aulaflow/aulaflow/internal/model"
	"github.com/aulaflow/aulaflow/internal/service"
	"github.com/aulaflow/aulaflow/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aulaflow",
		Short: "Class preparation and assessment workflow server",
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP workflow server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "aulaflow.db", "SQLite database path")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty for default)")
	f.String("llm-key", "", "API key for the generation service")
	f.String("llm-model", "gpt-4o-mini", "Generation model name")
	f.StringP("lang", "l", "es", "Default language for API messages (es, en)")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	f.Bool("skip-llm-check", false, "Skip the generation-service health check on startup")
	f.String("admin-password", "", "Initial admin password (or set AULAFLOW_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo teacher, group, and topics",
		RunE:  runSeed,
	}
	f := cmd.Flags()
	f.String("db", "aulaflow.db", "SQLite database path")
	f.String("teacher-password", "", "Password for the demo teacher account (required)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	_ = cmd.MarkFlagRequired("teacher-password")
	return cmd
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

// viperForCmd binds a command's flags and environment to a fresh viper
// instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("AULAFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("aulaflow")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/aulaflow")
	v.AddConfigPath("/etc/aulaflow")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if !v.GetBool("skip-llm-check") {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := llmClient.Ping(ctx); err != nil {
			return fmt.Errorf("generation service health check: %w", err)
		}
		slog.Info("generation endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	svc := service.New(db, llmClient)
	h := handler.New(db, svc)

	go sessionJanitor(db)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   v.GetStringSlice("cors-origins"),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Accept-Language"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appI18n.Middleware(lang))

	r.Route("/api/v1", h.Routes)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

// sessionJanitor sweeps expired auth sessions once an hour.
func sessionJanitor(db *store.Store) {
	for range time.Tick(time.Hour) {
		n, err := db.CleanupExpiredSessions()
		if err != nil {
			slog.Warn("session cleanup failed", "error", err)
			continue
		}
		if n > 0 {
			slog.Debug("removed expired sessions", "count", n)
		}
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(v.GetString("teacher-password")), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash teacher password: %w", err)
	}

	userID, err := db.CreateUser(model.User{
		Username:     "docente",
		DisplayName:  "Docente Demo",
		PasswordHash: string(hash),
		Role:         model.UserRoleTeacher,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create teacher user: %w", err)
	}
	teacherID, err := db.CreateTeacher(model.Teacher{UserID: userID, FullName: "Docente Demo"})
	if err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}

	groupID, err := db.CreateGroup(model.Group{Name: "3A", Grade: "3° secundaria"})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	for _, name := range []string{"Ana Torres", "Luis Mendoza", "María García"} {
		if _, err := db.CreateStudent(model.Student{GroupID: groupID, FullName: name}); err != nil {
			return fmt.Errorf("create student: %w", err)
		}
	}

	topics := []model.Topic{
		{Name: "Fracciones equivalentes", Summary: "Equivalencia y comparación de fracciones", GradeBand: "secundaria"},
		{Name: "La fotosíntesis", Summary: "Proceso de la fotosíntesis en plantas", GradeBand: "secundaria"},
		{Name: "Tema libre", Summary: "Tema extraordinario definido por el docente", Extraordinary: true},
	}
	for _, t := range topics {
		if _, err := db.CreateTopic(t); err != nil {
			return fmt.Errorf("create topic: %w", err)
		}
	}

	slog.Info("seeded demo data", "teacher_id", teacherID, "group_id", groupID, "topics", len(topics))
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or AULAFLOW_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
