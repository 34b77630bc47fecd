package main

import (
	"fmt"
	"os"

	domainimage "lens-server-go/internal/domain/image"
	domaintool "lens-server-go/internal/domain/tool"
	"lens-server-go/internal/domain/vision"
	platformconfig "lens-server-go/internal/platform/config"
	platformlogging "lens-server-go/internal/platform/logging"
	mcptransport "lens-server-go/internal/transport/mcp"
)

// lens-mcp exposes the vision tools over the Model Context Protocol on
// stdio. Console logs go to stderr because stdout carries the protocol.
func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "lens-mcp failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return err
	}
	cfg := result.Config

	logger, err := platformlogging.NewWithConsole(platformlogging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: "mcp.log",
	}, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()
	platformlogging.DefaultLogger = logger

	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: &cfg.Vision.Security,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	captioner, err := vision.NewCaptioner(cfg.Vision.Captioner, logger)
	if err != nil {
		return err
	}
	detector, err := vision.NewDetector(cfg.Vision.Detector, logger)
	if err != nil {
		return err
	}

	registry := domaintool.NewRegistry()
	if err := registry.Register(domaintool.NewCaptionTool(pipeline, captioner)); err != nil {
		return err
	}
	if err := registry.Register(domaintool.NewDetectTool(pipeline, detector)); err != nil {
		return err
	}

	return mcptransport.NewServer("lens-server", "1.0.0", registry, logger).ServeStdio()
}
