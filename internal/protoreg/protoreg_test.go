package protoreg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hanpama/protograph/internal/config"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

func protoString(s string) *string { return &s }
func protoInt32(i int32) *int32    { return &i }

func writeFileDescriptorSet(t *testing.T) string {
	t.Helper()
	fdset := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{{
			Name:    protoString("greeter.proto"),
			Package: protoString("greeter"),
			Syntax:  protoString("proto3"),
			MessageType: []*descriptorpb.DescriptorProto{
				{
					Name: protoString("GreetRequest"),
					Field: []*descriptorpb.FieldDescriptorProto{{
						Name:     protoString("name"),
						Number:   protoInt32(1),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						JsonName: protoString("name"),
					}},
				},
				{
					Name: protoString("GreetResponse"),
					Field: []*descriptorpb.FieldDescriptorProto{{
						Name:     protoString("message"),
						Number:   protoInt32(1),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						JsonName: protoString("message"),
					}},
				},
			},
			Service: []*descriptorpb.ServiceDescriptorProto{{
				Name: protoString("Greeter"),
				Method: []*descriptorpb.MethodDescriptorProto{{
					Name:       protoString("Greet"),
					InputType:  protoString(".greeter.GreetRequest"),
					OutputType: protoString(".greeter.GreetResponse"),
				}},
			}},
		}},
	}
	raw, err := proto.Marshal(fdset)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "greeter.binpb")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestBuild_LoadsProtobufLinksOnly(t *testing.T) {
	path := writeFileDescriptorSet(t)
	reg, err := Build([]*config.Link{
		{Kind: config.LinkProtobuf, Src: path, ID: "greeter"},
		{Kind: config.LinkScript, Src: "ignored.js", ID: "ignored"},
	})
	require.NoError(t, err)
	require.NotNil(t, reg)

	md, err := reg.Method("greeter", "greeter.Greeter", "Greet")
	require.NoError(t, err)
	require.Equal(t, protoreflect.Name("Greet"), md.Name())
}

func TestMethod_UnknownLinkOrMethodErrors(t *testing.T) {
	path := writeFileDescriptorSet(t)
	reg, err := Build([]*config.Link{{Kind: config.LinkProtobuf, Src: path, ID: "greeter"}})
	require.NoError(t, err)

	_, err = reg.Method("missing", "greeter.Greeter", "Greet")
	require.Error(t, err)

	_, err = reg.Method("greeter", "greeter.Greeter", "NoSuchMethod")
	require.Error(t, err)
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	path := writeFileDescriptorSet(t)
	reg, err := Build([]*config.Link{{Kind: config.LinkProtobuf, Src: path, ID: "greeter"}})
	require.NoError(t, err)
	md, err := reg.Method("greeter", "greeter.Greeter", "Greet")
	require.NoError(t, err)

	reqMsg, err := Marshal(md, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "Ada"}, Unmarshal(reqMsg))
}
