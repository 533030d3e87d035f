package grpcrt

import (
	"context"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Transport handles the actual gRPC communication. This interface allows
// for different transport implementations (real gRPC, mock, etc.).
// Implementations MUST be safe for concurrent use: a gRPC IO node's
// group_by batching dispatches one call per key concurrently.
//
// internal/grpctp.Transport is the production implementation: a pooled
// client with endpoint selection and deadline propagation.
type Transport interface {
	// Call executes a single gRPC method call.
	Call(ctx context.Context, method protoreflect.MethodDescriptor, request protoreflect.Message) (protoreflect.Message, error)
}
