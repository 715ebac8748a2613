// Command capctl hosts one builtin capability as an HTTP capability node,
// the process a registry "http" target points at.
package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/capability"
	"github.com/danmuck/loomctl/internal/capnode"
	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/logging"
)

func main() {
	logging.ConfigureRuntime("capctl")
	configPath := flag.String("config", "cmd/capctl/config.toml", "capability node config (TOML)")
	flag.Parse()

	cfg, err := loadNodeConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load capability config")
	}
	log.Info().Str("path", *configPath).Msg("loaded capability config")

	ctx := context.Background()
	var gen llm.Generator
	if capability.RequiresModel(cfg.Capability) {
		g, err := llm.NewGenerator(ctx, cfg.Model)
		if err != nil {
			log.Fatal().Err(err).Str("capability", cfg.Capability).Msg("failed to build chat model")
		}
		gen = g
	}

	handler, err := selectHandler(cfg.Capability, gen)
	if err != nil {
		log.Fatal().Err(err).Msg("unknown capability")
	}

	host, err := capnode.Appear(cfg.NodeID, cfg.ListenAddr, handler, cfg.CorsOrigins)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build capability host")
	}
	log.Info().
		Str("id", host.ID).
		Str("addr", host.Addr).
		Str("capability", handler.Name()).
		Msg("capability node started")
	if err := host.Run(); err != nil {
		log.Fatal().Err(err).Msg("capability node stopped")
	}
}

func selectHandler(name string, gen llm.Generator) (capability.Handler, error) {
	for _, h := range capability.Builtins(gen) {
		if h.Name() == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("no builtin named %q (have: %s)", name, strings.Join(builtinNames(), ", "))
}

func builtinNames() []string {
	handlers := capability.Builtins(nil)
	names := make([]string, len(handlers))
	for i, h := range handlers {
		names[i] = h.Name()
	}
	sort.Strings(names)
	return names
}
