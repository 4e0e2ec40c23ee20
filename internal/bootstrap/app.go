package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tool-advisor/internal/recommend"
	"tool-advisor/internal/rules"
	"tool-advisor/internal/services/health"
	"tool-advisor/internal/shared/config"
	"tool-advisor/internal/shared/server"
	"tool-advisor/internal/shared/server/middleware"
	"tool-advisor/internal/shared/storage/db"
	"tool-advisor/internal/shared/storage/object"
	localstore "tool-advisor/internal/shared/storage/object/local"
	miniostore "tool-advisor/internal/shared/storage/object/minio"
	s3store "tool-advisor/internal/shared/storage/object/s3"
	"tool-advisor/internal/shared/telemetry"
)

const rulesLoadTimeout = 30 * time.Second

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	RulesSource      rules.Source
	Rules            *rules.Table
	Health           *health.Service
	RecommendService *recommend.Service
	RecommendHandler *recommend.Handler
}

// Build loads the rule table from the configured source and wires the router.
// A rule table that cannot be loaded is fatal.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := telemetry.SetLevel(cfg.LogLevel); err != nil {
		telemetry.Warn("bootstrap.log_level", map[string]any{"value": cfg.LogLevel, "error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(context.Background(), rulesLoadTimeout)
	defer cancel()

	app := &App{Config: cfg}

	if cfg.RulesSource == "postgres" {
		sqlDB, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.DB = sqlDB
	}
	if cfg.RulesSource == "object" {
		store, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.Store = store
	}

	src, err := NewRulesSource(cfg, app.Store, app.DB)
	if err != nil {
		return nil, err
	}
	app.RulesSource = src

	table, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", src.Describe(), err)
	}
	app.Rules = table
	opts := table.Options()
	telemetry.Info("rules.loaded", map[string]any{
		"source":         src.Describe(),
		"workpieces":     len(opts.Workpieces),
		"tool_materials": len(opts.ToolMaterials),
		"operations":     len(opts.Operations),
		"checksum":       table.Checksum(),
	})

	app.RecommendService = recommend.NewService(table, src.Describe())
	app.RecommendHandler = recommend.NewHandler(app.RecommendService)
	app.Health = health.NewService(src.Describe(), app.RecommendService, pinger(app.DB))
	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Health:           app.Health,
		RecommendHandler: app.RecommendHandler,
		RateLimiter:      middleware.NewRateLimiter(nil),
	})

	return app, nil
}

func pinger(sqlDB *sql.DB) health.Pinger {
	if sqlDB == nil {
		return nil
	}
	return sqlDB
}

// NewRulesSource picks the rule source named by cfg.RulesSource.
func NewRulesSource(cfg config.Config, store object.ObjectStore, sqlDB *sql.DB) (rules.Source, error) {
	format, err := rules.ParseFormat(cfg.RulesFormat)
	if err != nil {
		return nil, err
	}
	switch cfg.RulesSource {
	case "postgres":
		if sqlDB == nil {
			return nil, fmt.Errorf("RULES_SOURCE=postgres requires DATABASE_URL")
		}
		return rules.PGSource{Repo: &rules.PGRepo{DB: sqlDB}}, nil
	case "object":
		if store == nil {
			return nil, fmt.Errorf("RULES_SOURCE=object requires an object store")
		}
		if strings.TrimSpace(cfg.RulesKey) == "" {
			return nil, fmt.Errorf("RULES_KEY is required when RULES_SOURCE=object")
		}
		return rules.ObjectSource{Store: store, Key: cfg.RulesKey, Format: format, Name: cfg.ObjectStoreType}, nil
	default:
		if strings.TrimSpace(cfg.RulesPath) == "" {
			return nil, fmt.Errorf("RULES_PATH is required")
		}
		return rules.FileSource{Path: cfg.RulesPath, Format: format}, nil
	}
}

// OpenDB connects to Postgres with a pool sized for the runtime.
func OpenDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, db.ErrNoDatabaseURL
	}
	if db.IsLambdaRuntime() {
		return db.Shared(ctx, cfg.DatabaseURL, db.LambdaPool().WithEnv())
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.ServerPool().WithEnv())
}

// OpenStore builds the object store named by cfg.ObjectStoreType.
func OpenStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		store, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.MinioEndpoint,
			Region:    cfg.AWSRegion,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}
