// Package protoreg resolves the gRPC method a compiled GRPCResolver names
// (spec §4.B "gRPC template", §6 "@link ... Protobuf") against a
// precompiled FileDescriptorSet, handing back a live
// protoreflect.MethodDescriptor that internal/grpctp's Transport and
// internal/upstream's dynamicpb codec use to actually place the call.
//
// The teacher's protoreg synthesized a proto schema FROM the GraphQL
// schema (one federated service per GraphQL service, one RPC per
// resolver/loader). This system's GRPCResolver instead names an existing,
// independently-defined gRPC method to call, so there is nothing to
// synthesize — only a descriptor set to load and a method to look up.
package protoreg

import (
	"fmt"
	"os"

	"github.com/hanpama/protograph/internal/config"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Registry holds one *protoregistry.Files per "@link ... Protobuf"
// reference, keyed by the link's ID — the name a GRPCResolver's
// FileDescriptorRef names.
type Registry struct {
	files map[string]*protoregistry.Files
}

// Build loads every Protobuf link's FileDescriptorSet from disk. Links of
// other kinds are ignored; a config with no Protobuf links yields an empty,
// usable Registry (a project with only HTTP/GraphQL/script resolvers never
// needs one).
func Build(links []*config.Link) (*Registry, error) {
	reg := &Registry{files: map[string]*protoregistry.Files{}}
	for _, l := range links {
		if l.Kind != config.LinkProtobuf {
			continue
		}
		raw, err := os.ReadFile(l.Src)
		if err != nil {
			return nil, fmt.Errorf("protoreg: read %q: %w", l.Src, err)
		}
		var fdset descriptorpb.FileDescriptorSet
		if err := proto.Unmarshal(raw, &fdset); err != nil {
			return nil, fmt.Errorf("protoreg: decode %q as FileDescriptorSet: %w", l.Src, err)
		}
		files, err := protodesc.NewFiles(&fdset)
		if err != nil {
			return nil, fmt.Errorf("protoreg: build descriptors for %q: %w", l.Src, err)
		}
		reg.files[l.ID] = files
	}
	return reg, nil
}

// Method resolves a GRPCOperation's (FileDescriptorRef, Service,
// MethodName) triple to a live protoreflect.MethodDescriptor.
func (r *Registry) Method(fileDescriptorRef, service, method string) (protoreflect.MethodDescriptor, error) {
	files, ok := r.files[fileDescriptorRef]
	if !ok {
		return nil, fmt.Errorf("protoreg: no @link Protobuf named %q", fileDescriptorRef)
	}
	full := protoreflect.FullName(service + "." + method)
	desc, err := files.FindDescriptorByName(full)
	if err != nil {
		return nil, fmt.Errorf("protoreg: %s not found in %q: %w", full, fileDescriptorRef, err)
	}
	md, ok := desc.(protoreflect.MethodDescriptor)
	if !ok {
		return nil, fmt.Errorf("protoreg: %s is not a method", full)
	}
	return md, nil
}
