// Command strapi-mcp bridges Strapi CMS backends into MCP tool calls over
// stdio.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/cms-mcp/strapi-mcp/internal/config"
	"github.com/cms-mcp/strapi-mcp/internal/media"
	"github.com/cms-mcp/strapi-mcp/internal/registry"
	"github.com/cms-mcp/strapi-mcp/internal/server"
	"github.com/cms-mcp/strapi-mcp/internal/strapi"
	"github.com/cms-mcp/strapi-mcp/internal/track"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to the server-profile document (default: "+config.DefaultConfigPath()+")")
	showVersion := flag.Bool("version", false, "print version")
	flag.Parse()

	if *showVersion {
		fmt.Println("strapi-mcp " + version)
		os.Exit(0)
	}

	// Optional; observability settings may live in a local .env.
	_ = godotenv.Load()

	opts := track.OptionsFromEnv()
	level, err := zerolog.ParseLevel(opts.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	// stdout carries the MCP transport; all logging goes to stderr.
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "strapi-mcp").Logger()

	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	profiles, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if len(profiles) == 0 {
		logger.Warn().Str("path", path).Msg("no servers configured; server-scoped tools will report setup guidance")
	}

	tracker, err := track.New(logger, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize request tracking: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = tracker.Close() }()

	reg := registry.New(path, profiles)
	client := strapi.NewClient(&http.Client{Timeout: 60 * time.Second}, logger)
	pipeline := media.NewPipeline(client, client, media.StdTransformer{}, logger)

	srv := server.New(reg, client, pipeline, tracker, version, logger)
	logger.Info().Int("servers", len(profiles)).Msg("starting strapi-mcp over stdio")
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
