// Command forge generates a Spring Boot project from the command line using
// the same stack as the API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"springforge/internal/gateway/app"
	"springforge/internal/gateway/config"
	"springforge/internal/projectspec"
	"springforge/internal/scaffold"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("forge", flag.ContinueOnError)
	specPath := fs.String("spec", "", "JSON spec file, or - for stdin")
	group := fs.String("group", "", "groupId, e.g. com.example")
	name := fs.String("name", "", "project name")
	features := fs.String("features", "", "comma separated features, e.g. database,security")
	output := fs.String("output", "", "output directory (overrides OUTPUT_DIR)")
	templates := fs.String("templates", "", "template directory (overrides TEMPLATE_DIR)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	spec, err := buildSpec(*specPath, *group, *name, *features, stdin)
	if err != nil {
		log.Printf("forge: %v", err)
		return 2
	}

	cfg, err := config.Load(nil)
	if err != nil {
		log.Printf("forge: %v", err)
		return 1
	}
	if *output != "" {
		cfg.OutputDir = *output
	}
	if *templates != "" {
		cfg.TemplateDir = *templates
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(ctx, cfg)
	if err != nil {
		log.Printf("forge: %v", err)
		return 1
	}
	defer core.Close()

	res, err := core.Service.Generate(ctx, spec)
	if err != nil {
		fmt.Fprintln(stdout, renderFailure(err))
		if scaffold.KindOf(err) == scaffold.KindInputValidation {
			return 2
		}
		return 1
	}
	fmt.Fprintln(stdout, renderSummary(res))
	return 0
}

// buildSpec reads a spec file when given, then applies the flag values on
// top of it.
func buildSpec(path, group, name, features string, stdin io.Reader) (projectspec.Spec, error) {
	spec := projectspec.Spec{}
	if path != "" {
		var (
			raw []byte
			err error
		)
		if path == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read spec: %w", err)
		}
		spec, err = projectspec.Parse(raw)
		if err != nil {
			return nil, err
		}
	}
	if group != "" {
		spec[projectspec.KeyGroupID] = group
	}
	if name != "" {
		spec[projectspec.KeyProjectName] = name
	}
	for _, f := range strings.Split(features, ",") {
		if f = strings.TrimSpace(f); f != "" {
			spec[f] = true
		}
	}
	return spec, nil
}
