package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	domainagent "lens-server-go/internal/domain/agent"
	domainauth "lens-server-go/internal/domain/auth"
	"lens-server-go/internal/domain/eventbus"
	domainimage "lens-server-go/internal/domain/image"
	"lens-server-go/internal/domain/session"
	domaintool "lens-server-go/internal/domain/tool"
	"lens-server-go/internal/domain/vision"
	platformconfig "lens-server-go/internal/platform/config"
	platformerrors "lens-server-go/internal/platform/errors"
	platformlogging "lens-server-go/internal/platform/logging"
	platformstorage "lens-server-go/internal/platform/storage"
	httptransport "lens-server-go/internal/transport/http"
)

// Version is stamped at build time.
var Version = "dev"

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger

	sessionStore session.Store
	pipeline     *domainimage.Pipeline
	captioner    *vision.Captioner
	detector     *vision.Detector
	registry     *domaintool.Registry
	runner       *domainagent.Runner
	repo         *platformstorage.InvocationRepository
}

// Run drives the whole service lifecycle: configuration, dependency
// initialisation, serving and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	defer func() {
		eventbus.Shutdown()
		if state.sessionStore != nil {
			state.sessionStore.Close()
		}
		logger.Close()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	logger.InfoTag("BOOT", "service started")
	return waitForShutdown(signalCtx, cancel, logger, group)
}

// InitGraph lists the initialisation steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init",
			Title:     "Initialise database",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initStorageStep,
		},
		{
			ID:        "eventbus:init",
			Title:     "Initialise event handlers",
			DependsOn: []string{"storage:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "session:init",
			Title:     "Initialise session store",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindPlatform,
			Execute:   initSessionStep,
		},
		{
			ID:        "vision:init",
			Title:     "Initialise vision providers",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindVision,
			Execute:   initVisionStep,
		},
		{
			ID:        "tools:init",
			Title:     "Register tools",
			DependsOn: []string{"vision:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initToolsStep,
		},
		{
			ID:        "agent:init",
			Title:     "Build agent",
			DependsOn: []string{"tools:init", "session:init"},
			Kind:      platformerrors.KindAgent,
			Execute:   initAgentStep,
		},
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if stderrors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}
	state.logger = logger
	platformlogging.DefaultLogger = logger

	logger.InfoTag("BOOT", "logging ready [%s] %s", state.config.Log.Level, state.configPath)
	return nil
}

func initStorageStep(_ context.Context, state *appState) error {
	if !state.config.Storage.Enabled {
		state.logger.InfoTag("BOOT", "storage disabled, invocation history off")
		return nil
	}

	if err := platformstorage.InitDatabase(state.config.Storage.DSN); err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init", "failed to initialise database", err)
	}
	state.repo = platformstorage.NewInvocationRepository()
	state.logger.InfoTag("BOOT", "database ready: %s", state.config.Storage.DSN)
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	if state.repo == nil {
		return nil
	}

	recorder := eventbus.NewInvocationRecorder(state.repo, state.logger)
	if err := recorder.Register(eventbus.GetAsync()); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "eventbus:init", "failed to register invocation recorder", err)
	}
	state.logger.InfoTag("BOOT", "event handlers registered")
	return nil
}

func initSessionStep(_ context.Context, state *appState) error {
	store, err := session.NewStore(state.config.Session, state.config.Agent.HistoryWindow)
	if err != nil {
		return err
	}
	state.sessionStore = store
	state.logger.InfoTag("BOOT", "session store ready: %s", state.config.Session.Type)
	return nil
}

func initVisionStep(_ context.Context, state *appState) error {
	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: &state.config.Vision.Security,
		Logger:   state.logger,
	})
	if err != nil {
		return err
	}
	state.pipeline = pipeline

	captioner, err := vision.NewCaptioner(state.config.Vision.Captioner, state.logger)
	if err != nil {
		return err
	}
	state.captioner = captioner

	detector, err := vision.NewDetector(state.config.Vision.Detector, state.logger)
	if err != nil {
		return err
	}
	state.detector = detector

	state.logger.InfoTag("BOOT", "vision providers ready")
	return nil
}

func initToolsStep(_ context.Context, state *appState) error {
	registry := domaintool.NewRegistry()
	if err := registry.Register(domaintool.NewCaptionTool(state.pipeline, state.captioner)); err != nil {
		return err
	}
	if err := registry.Register(domaintool.NewDetectTool(state.pipeline, state.detector)); err != nil {
		return err
	}
	state.registry = registry

	state.logger.InfoTag("BOOT", "tools registered: %d", len(registry.All()))
	return nil
}

func initAgentStep(ctx context.Context, state *appState) error {
	runner, err := domainagent.NewRunner(ctx, state.config.Agent, state.registry, state.sessionStore, state.logger)
	if err != nil {
		return err
	}
	state.runner = runner

	state.logger.InfoTag("BOOT", "agent ready: model=%s max_steps=%d",
		state.config.Agent.Model.ModelName, state.config.Agent.MaxSteps)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) error {
	config := state.config
	logger := state.logger

	if !config.Web.Enabled {
		logger.WarnTag("BOOT", "web transport disabled by configuration")
		return nil
	}

	var authMiddleware gin.HandlerFunc
	if config.Server.Auth.Enabled {
		tokens := domainauth.NewAuthToken(config.Server.Token).WithTTL(config.Server.Auth.Expiry)
		authMiddleware = domainauth.Middleware(tokens)
	}

	router, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: authMiddleware,
		StaticRoot:     config.Web.StaticDir,
	})
	if err != nil {
		return err
	}

	visionService, err := httptransport.NewVisionService(state.pipeline, state.captioner, state.detector, logger)
	if err != nil {
		return err
	}
	visionService.Register(router.Protected())

	httptransport.NewChatService(state.runner, logger).Register(router.Protected())
	httptransport.NewStreamService(state.runner, logger).Register(router.Protected())
	httptransport.NewHealthService(Version).Register(router.API)

	if state.repo != nil {
		httptransport.NewInvocationService(state.repo, logger).Register(router.Protected())
	}

	router.Engine.NoRoute(func(c *gin.Context) {
		httptransport.RespondError(c, http.StatusNotFound, "not found", nil)
	})

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(config.Web.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "listening on http://localhost:%d", config.Web.Port)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server closed")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown signal received: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out")
		return stderrors.New("shutdown timed out")
	}
	return nil
}
