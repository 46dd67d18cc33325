package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/MeganHarrison/alleato-core/internal/config"
	"github.com/MeganHarrison/alleato-core/internal/handler"
	"github.com/MeganHarrison/alleato-core/internal/middleware"
	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/schedule"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "alleato",
		Short: "alleato retrieval and reference lookup server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	var in lookupFlags
	lookupCmd := &cobra.Command{
		Use:   "lookup",
		Short: "resolve sprinkler design parameters for a ceiling height",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runLookup(cmd.Context(), cfg, in)
		},
	}
	lookupCmd.Flags().StringVar(&in.tableID, "table", "", "reference table id")
	lookupCmd.Flags().StringVar(&in.systemType, "system", "", "system type (wet|dry)")
	lookupCmd.Flags().StringVar(&in.asrsType, "asrs", "", "asrs type")
	lookupCmd.Flags().StringVar(&in.containerType, "container", "", "container type")
	lookupCmd.Flags().StringVar(&in.commodityClass, "commodity", "", "commodity class")
	lookupCmd.Flags().Float64Var(&in.kFactor, "k-factor", 0, "sprinkler k-factor, 0 for any")
	lookupCmd.Flags().Float64Var(&in.height, "height", 0, "ceiling height in feet")
	lookupCmd.Flags().Float64Var(&in.tolerance, "tolerance", -1, "exact match tolerance in feet, negative for the configured default")
	_ = lookupCmd.MarkFlagRequired("height")

	rootCmd.AddCommand(runCmd, lookupCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("reference_source", cfg.Reference.Source),
		zap.String("metric", cfg.Search.Metric),
		zap.Int("dimension", cfg.Search.Dimension),
	)
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sched := schedule.NewCronScheduler()
	if err := a.scheduleRefresh(ctx, sched); err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	defaults := handler.SearchDefaults{
		MatchCount:     cfg.Search.DefaultMatchCount,
		MatchThreshold: cfg.Search.DefaultMatchThreshold,
		PageSize:       cfg.Pagination.DefaultPageSize,
	}
	deps := handler.RouterDeps{
		Search:    handler.NewSearchHandler(a.search, defaults),
		Listings:  handler.NewListingHandler(a.listings),
		Reference: handler.NewReferenceHandler(a.reference),
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			middleware.RateLimit(cfg.RateLimitDuration()),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

type lookupFlags struct {
	tableID        string
	systemType     string
	asrsType       string
	containerType  string
	commodityClass string
	kFactor        float64
	height         float64
	tolerance      float64
}

func (f lookupFlags) keys() (model.ReferenceKeys, error) {
	var keys model.ReferenceKeys
	var err error
	keys.TableID = f.tableID
	keys.KFactor = f.kFactor
	if keys.SystemType, err = model.ParseSystemType(f.systemType); err != nil {
		return keys, err
	}
	if keys.ASRSType, err = model.ParseASRSType(f.asrsType); err != nil {
		return keys, err
	}
	if keys.ContainerType, err = model.ParseContainerType(f.containerType); err != nil {
		return keys, err
	}
	if keys.CommodityClass, err = model.ParseCommodityClass(f.commodityClass); err != nil {
		return keys, err
	}
	return keys, nil
}

func runLookup(ctx context.Context, cfg *config.Config, in lookupFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	keys, err := in.keys()
	if err != nil {
		return err
	}
	svc, closeFn, err := buildReferenceOnly(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var tolerance *float64
	if in.tolerance >= 0 {
		tolerance = &in.tolerance
	}
	res, err := svc.Lookup(ctx, keys, in.height, tolerance)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
