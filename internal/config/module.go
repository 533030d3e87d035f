package config

import (
	"github.com/hanpama/protograph/internal/auth"
	"github.com/hanpama/protograph/internal/jsvm"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Extensions carries the resolved resources a ConfigModule's @link
// directives point to: linked gRPC descriptors, a script worker, and
// resolved auth providers (spec §3.1 "Extensions (linked gRPC descriptors,
// optional script body, resolved auth providers)").
type Extensions struct {
	ProtoDescriptors map[string]*descriptorpb.FileDescriptorSet // keyed by Link.ID
	Worker           jsvm.Worker
	AuthProviders    map[string]auth.Provider
}

// ConfigModule wraps a Config with its precomputed Cache and resolved
// Extensions (spec §3.1).
type ConfigModule struct {
	Config     *Config
	Cache      *ModuleCache
	Extensions *Extensions
}

// NewModule builds a ConfigModule from a raw Config, computing its Cache.
// Extensions are resolved separately (see internal/config/link.go) once the
// module's @link directives are known.
func NewModule(cfg *Config) *ConfigModule {
	return &ConfigModule{
		Config:     cfg,
		Cache:      BuildCache(cfg),
		Extensions: &Extensions{ProtoDescriptors: map[string]*descriptorpb.FileDescriptorSet{}, AuthProviders: map[string]auth.Provider{}},
	}
}
