package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hanpama/protograph/internal/blueprint"
	"github.com/hanpama/protograph/internal/cache"
	"github.com/hanpama/protograph/internal/config"
	"github.com/hanpama/protograph/internal/eventbus"
	"github.com/hanpama/protograph/internal/grpcrt"
	"github.com/hanpama/protograph/internal/grpctp"
	"github.com/hanpama/protograph/internal/jsvm"
	"github.com/hanpama/protograph/internal/otel"
	"github.com/hanpama/protograph/internal/protoreg"
	"github.com/hanpama/protograph/internal/server"
	"github.com/hanpama/protograph/internal/upstream"
)

const rootUsage = `protograph — declarative GraphQL gateway compiler & server

USAGE:
  protograph <command> [flags]

COMMANDS:
  serve            Load one or more config modules, compile a Blueprint, and serve it
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <path>                       Config module to load (yaml/json). Repeatable; modules merge in order
  -server.addr <addr>                  HTTP listen address override (default: from config, else :8080)
  -server.pretty                       Pretty-print JSON responses
  -server.timeout <duration>           Per-request timeout, e.g. 10s (default: 10s)
  -server.metadata-header <name>       Forward HTTP header to gRPC metadata. Repeatable
  -server.cache-entries <n>            Max entries in the in-process response cache (default: 10000)
  -transport.backend <Svc=host:port>   Map a gRPC service's full name to an endpoint. Repeatable; use
                                        "*=host:port" as a default for any service without a specific mapping
  -transport.max-conns-per-endpoint N  Max TCP conns per endpoint (default: 2)
  -transport.rpc-timeout <duration>    RPC timeout, e.g. 3s (default: 3s)
  -otel.endpoint <addr>                OTLP collector endpoint
  -otel.service <name>                 OpenTelemetry service name (default: protograph)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("protograph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type backendFlag struct {
	m map[string][]string
}

func (b *backendFlag) String() string { return "" }

func (b *backendFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid backend %q", v)
	}
	svc := strings.TrimSpace(parts[0])
	ep := strings.TrimSpace(parts[1])
	if svc == "" || ep == "" {
		return fmt.Errorf("invalid backend %q", v)
	}
	if b.m == nil {
		b.m = map[string][]string{}
	}
	b.m[svc] = append(b.m[svc], ep)
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// fileLoader resolves @link sources from the local filesystem, the only
// loader the serve command needs (spec §6 "local paths or URLs" — remote
// links are fetched by whichever deployment wiring replaces this loader).
type fileLoader struct{}

func (fileLoader) Load(src string) ([]byte, error) { return os.ReadFile(src) }

func cmdServe(args []string) error {
	addr := ""
	pretty := false
	timeout := 10 * time.Second
	maxConns := 2
	rpcTimeout := 3 * time.Second
	cacheEntries := 10000
	otelEndpoint := ""
	otelService := "protograph"
	var configPaths stringListFlag
	var metadataHeaders stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&configPaths, "config", "Config module to load (yaml/json). Repeatable")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address override")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Var(&metadataHeaders, "server.metadata-header", "Forward HTTP header to gRPC metadata")
	fs.IntVar(&cacheEntries, "server.cache-entries", cacheEntries, "Max entries in the in-process response cache")
	var bf backendFlag
	fs.Var(&bf, "transport.backend", "Map gRPC service to endpoint")
	fs.IntVar(&maxConns, "transport.max-conns-per-endpoint", maxConns, "Max conns per endpoint")
	fs.DurationVar(&rpcTimeout, "transport.rpc-timeout", rpcTimeout, "RPC timeout")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if len(configPaths) == 0 {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("at least one -config is required")
	}

	bp, links, extensions, err := loadBlueprint(configPaths)
	if err != nil {
		return err
	}

	providers := map[string][]string{}
	for svc, eps := range bf.m {
		providers[svc] = eps
	}
	var transport grpcrt.Transport
	if len(providers) > 0 {
		provider := grpctp.NewStaticEndpoints(providers)
		trOpts := []grpctp.Option{grpctp.WithProvider(provider), grpctp.WithMaxConnsPerEndpoint(maxConns)}
		if rpcTimeout > 0 {
			trOpts = append(trOpts, grpctp.WithRPCTimeout(rpcTimeout))
		}
		transport = grpctp.New(trOpts...)
	}

	protos, err := protoreg.Build(links)
	if err != nil {
		return fmt.Errorf("protoreg build: %w", err)
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	up := upstream.New(http.DefaultClient, transport, protos, extensions.Worker)
	store := cache.NewInMemory(cacheEntries)

	var sopts []server.Option
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(metadataHeaders) > 0 {
		sopts = append(sopts, server.WithMetadataHeaders(metadataHeaders...))
	}
	h, err := server.New(bp, up, store, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(bp.Server.GraphQLPath, h)

	listenAddr := addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", bp.Server.Port)
	}
	log.Printf("GraphQL server listening on %s%s", listenAddr, bp.Server.GraphQLPath)
	return http.ListenAndServe(listenAddr, mux)
}

// loadBlueprint reads every -config path, merges the resulting modules,
// resolves their @link directives against the local filesystem, and
// compiles the merged module into a Blueprint (spec §4.E "config ->
// blueprint"). No script functions are registered here: this deployment
// entry point carries no embedded JS engine (see internal/jsvm), so a
// project whose config links a Script resource gets a Worker with no
// functions registered — a build that forks this command to register its
// own scripted resolvers supplies the scripts map itself.
func loadBlueprint(paths []string) (*blueprint.Blueprint, []*config.Link, *config.Extensions, error) {
	modules := make([]*config.ConfigModule, 0, len(paths))
	for _, path := range paths {
		format := config.DetectFormat(path)
		if format == "" {
			return nil, nil, nil, fmt.Errorf("config: cannot detect format for %q", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("config: reading %q: %w", path, err)
		}
		mod, err := config.LoadBytes(format, data)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("config: loading %q: %w", path, err)
		}
		modules = append(modules, mod)
	}

	merged, err := config.Merge(modules...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: merging modules: %w", err)
	}

	if err := config.ResolveLinks(merged, fileLoader{}, map[string]jsvm.Func{}, nil); err != nil {
		return nil, nil, nil, fmt.Errorf("config: resolving links: %w", err)
	}

	bp, err := blueprint.Build(merged)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("blueprint: compiling: %w", err)
	}
	return bp, merged.Config.Links, merged.Extensions, nil
}
