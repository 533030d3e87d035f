package config

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hanpama/protograph/internal/auth"
	"github.com/hanpama/protograph/internal/jsvm"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// LinkLoader fetches the raw bytes a @link points to, abstracting local-path
// vs URL resolution (spec §6 "Linked resources (@link) can point to local
// paths or URLs"). The process wiring (cmd/protograph) supplies the real
// implementation; tests supply an in-memory one.
type LinkLoader interface {
	Load(src string) ([]byte, error)
}

// ResolveLinks walks Config.Links and populates ConfigModule.Extensions
// (spec §3.1 "Extensions (linked gRPC descriptors, optional script body,
// resolved auth providers)"). Operation/Data links name persisted
// query/data sources outside this system's scope (SPEC_FULL Non-goals
// carry the source's REST/admin surfaces, not query persistence) and are
// recorded but not fetched here.
func ResolveLinks(m *ConfigModule, loader LinkLoader, scripts map[string]jsvm.Func, jwtKeyFuncs map[string]jwt.Keyfunc) error {
	for _, link := range m.Config.Links {
		switch link.Kind {
		case LinkProtobuf:
			raw, err := loader.Load(link.Src)
			if err != nil {
				return fmt.Errorf("config: loading protobuf link %q: %w", link.Src, err)
			}
			var set descriptorpb.FileDescriptorSet
			if err := proto.Unmarshal(raw, &set); err != nil {
				return fmt.Errorf("config: decoding FileDescriptorSet for link %q: %w", link.Src, err)
			}
			m.Extensions.ProtoDescriptors[link.ID] = &set

		case LinkScript:
			if m.Extensions.Worker == nil {
				m.Extensions.Worker = jsvm.NewRegistry(scripts)
			}

		case LinkHtpasswd:
			raw, err := loader.Load(link.Src)
			if err != nil {
				return fmt.Errorf("config: loading htpasswd link %q: %w", link.Src, err)
			}
			creds, err := parseHtpasswd(raw)
			if err != nil {
				return fmt.Errorf("config: parsing htpasswd link %q: %w", link.Src, err)
			}
			m.Extensions.AuthProviders[link.ID] = &auth.Basic{Name: link.ID, Credentials: creds}

		case LinkJwks:
			// The JWKS document is not fetched here: a JWT provider is
			// registered under the link's ID only when the caller supplies
			// a key function for that ID in jwtKeyFuncs; otherwise no
			// provider is recorded for the link.
			if fn, ok := jwtKeyFuncs[link.ID]; ok {
				m.Extensions.AuthProviders[link.ID] = &auth.JWT{Name: link.ID, KeyFunc: fn}
			}

		case LinkConfig, LinkOperation, LinkData:
			// Config: already folded in via Merge before ResolveLinks runs.
			// Operation/Data: persisted-query and static-data sources are
			// outside this system's resolver algebra; recorded on Config.Links
			// for introspection/tooling but not resolved into Extensions.
		}
	}
	return nil
}

func parseHtpasswd(raw []byte) (map[string]string, error) {
	creds := map[string]string{}
	line := make([]byte, 0, 64)
	flush := func() error {
		if len(line) == 0 {
			return nil
		}
		s := string(line)
		for i := 0; i < len(s); i++ {
			if s[i] == ':' {
				creds[s[:i]] = s[i+1:]
				return nil
			}
		}
		return fmt.Errorf("malformed htpasswd line %q", s)
	}
	for _, b := range raw {
		if b == '\n' || b == '\r' {
			if err := flush(); err != nil {
				return nil, err
			}
			line = line[:0]
			continue
		}
		line = append(line, b)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return creds, nil
}
