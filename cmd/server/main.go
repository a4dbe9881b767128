package main

import (
	"context"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	httpadapter "haggle/internal/adapter/http"
	metricsinmem "haggle/internal/adapter/metrics/inmemory"
	staticphrasebook "haggle/internal/adapter/phrasebook/static"
	geminirender "haggle/internal/adapter/render/gemini"
	templaterender "haggle/internal/adapter/render/template"
	gormrepo "haggle/internal/adapter/repo/gorm"
	"haggle/internal/adapter/repo/memory"
	sqliterepo "haggle/internal/adapter/repo/sqlite"
	"haggle/internal/app/live"
	"haggle/internal/app/negotiate"
	"haggle/internal/app/ports"
	"haggle/internal/app/replay"
	"haggle/internal/domain/negotiation"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	ctx := context.Background()
	repo, txManager := mustBuildRepos(ctx)
	renderer, closer := mustBuildRenderer(ctx)
	if closer != nil {
		defer closer.Close()
	}
	kpiRecorder := metricsinmem.NewRecorder()
	maxRounds := intEnv("HAGGLE_MAX_ROUNDS", negotiation.DefaultMaxRounds)

	h := httpadapter.Handler{
		NegotiateUC: negotiate.UseCase{
			TxManager: txManager,
			Repo:      repo,
			Renderer:  renderer,
			Metrics:   kpiRecorder,
			Now:       time.Now,

			DefaultMaxRounds: maxRounds,
		},
		ReplayUC: replay.UseCase{Repo: repo},
		LiveUC: live.UseCase{
			Sessions: memory.NewLiveStore(),
			Repo:     repo,
			Renderer: renderer,
			Metrics:  kpiRecorder,
			Now:      time.Now,

			DefaultMaxRounds: maxRounds,
		},
		KPI: kpiRecorder,
	}

	addr := stringEnv("HAGGLE_HTTP_ADDR", ":8080")
	s := server.Default(server.WithHostPorts(addr))
	h.RegisterRoutes(s)

	log.Printf("haggle server listening on %s (default max rounds %d)", addr, maxRounds)
	s.Spin()
}

func mustBuildRepos(ctx context.Context) (ports.NegotiationRepository, ports.TxManager) {
	switch store := strings.ToLower(stringEnv("HAGGLE_STORE", "memory")); store {
	case "memory":
		mem := memory.NewStore()
		return memory.NewNegotiationRepo(mem), memory.NewTxManager(mem)
	case "postgres":
		dsn := strings.TrimSpace(os.Getenv("HAGGLE_DB_DSN"))
		if dsn == "" {
			log.Fatal("HAGGLE_DB_DSN is required for HAGGLE_STORE=postgres")
		}
		db, err := gormrepo.OpenPostgres(dsn)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		if _, err := gormrepo.ApplyMigrations(ctx, db, stringEnv("HAGGLE_MIGRATIONS_DIR", "./migrations")); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		return gormrepo.NewNegotiationRepo(db), gormrepo.NewTxManager(db)
	case "sqlite":
		db, err := sqliterepo.Open(stringEnv("HAGGLE_SQLITE_PATH", "data/haggle.db"))
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		return sqliterepo.NewNegotiationRepo(db), sqliterepo.NewTxManager(db)
	default:
		log.Fatalf("unsupported HAGGLE_STORE %q (want memory, postgres or sqlite)", store)
		return nil, nil
	}
}

func mustBuildRenderer(ctx context.Context) (ports.MessageRenderer, io.Closer) {
	switch kind := strings.ToLower(stringEnv("HAGGLE_RENDERER", "template")); kind {
	case "template":
		r := templaterender.New(time.Now().UnixNano())
		if root := resolvePhrasebookRoot(); root != "" {
			if err := r.LoadOverrides(ctx, staticphrasebook.Provider{Root: root}); err != nil {
				log.Fatalf("load phrasebooks from %s: %v", root, err)
			}
			log.Printf("phrasebook overrides loaded from %s", root)
		}
		return r, nil
	case "gemini":
		r, err := geminirender.New(ctx, os.Getenv("GEMINI_API_KEY"), os.Getenv("GEMINI_MODEL_NAME"))
		if err != nil {
			log.Fatalf("init gemini renderer: %v", err)
		}
		return r, r
	default:
		log.Fatalf("unsupported HAGGLE_RENDERER %q (want template or gemini)", kind)
		return nil, nil
	}
}

// resolvePhrasebookRoot returns "" when no override directory is available.
func resolvePhrasebookRoot() string {
	if root := strings.TrimSpace(os.Getenv("HAGGLE_PHRASEBOOK_ROOT")); root != "" {
		return root
	}
	if info, err := os.Stat("./phrasebooks"); err == nil && info.IsDir() {
		return "./phrasebooks"
	}
	return ""
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
