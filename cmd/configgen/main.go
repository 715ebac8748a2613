// Command configgen writes and validates the TOML config files the loomctl
// binaries consume.
package main

import (
	"flag"
	"log"

	"github.com/danmuck/loomctl/internal/config"
)

func main() {
	kind := flag.String("kind", "coordinator", "config kind: coordinator|capability|registry")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "coordinator":
			if _, err := config.LoadCoordinatorFile(path); err != nil {
				log.Fatal(err)
			}
		case "capability":
			if _, err := config.LoadCapabilityFile(path); err != nil {
				log.Fatal(err)
			}
		case "registry":
			if _, err := config.LoadRegistryFile(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "coordinator":
		return "cmd/loomctl/config.toml"
	case "capability":
		return "cmd/capctl/config.toml"
	case "registry":
		return "cmd/loomctl/registry.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}
