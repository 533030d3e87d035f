package protoreg

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Marshal builds a dynamicpb request message for md.Input() from a
// JSON-shaped map (proto JSON field names), as rendered by a gRPC request
// template's Body (spec §4.B "gRPC template").
func Marshal(md protoreflect.MethodDescriptor, body map[string]any) (protoreflect.Message, error) {
	msg := dynamicpb.NewMessage(md.Input())
	if err := setFieldsByJSON(msg, body); err != nil {
		return nil, err
	}
	return msg, nil
}

// Unmarshal decodes a response message into a JSON-shaped map the evaluator
// can fold into a resolverir.Result (spec §4.B).
func Unmarshal(resp protoreflect.Message) map[string]any {
	return messageToMap(resp)
}

func messageToMap(msg protoreflect.Message) map[string]any {
	out := map[string]any{}
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if !msg.Has(fd) {
			continue
		}
		out[string(fd.JSONName())] = fieldToValue(fd, msg.Get(fd))
	}
	return out
}

func fieldToValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	if fd.IsList() {
		list := v.List()
		out := make([]any, 0, list.Len())
		for i := 0; i < list.Len(); i++ {
			out = append(out, scalarToValue(fd, list.Get(i)))
		}
		return out
	}
	return scalarToValue(fd, v)
}

func scalarToValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(v.Int())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return int64(v.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint32(v.Uint())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return uint64(v.Uint())
	case protoreflect.FloatKind:
		return float32(v.Float())
	case protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		return []byte(v.Bytes())
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return int32(v.Enum())
	case protoreflect.MessageKind:
		return messageToMap(v.Message())
	default:
		return nil
	}
}

func setFieldsByJSON(msg protoreflect.Message, data map[string]any) error {
	if data == nil {
		return nil
	}
	fields := msg.Descriptor().Fields()
	byJSON := make(map[string]protoreflect.FieldDescriptor, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		f := fields.Get(i)
		byJSON[string(f.JSONName())] = f
	}
	for k, v := range data {
		fd := byJSON[k]
		if fd == nil {
			continue
		}
		if v == nil {
			continue
		}
		if fd.IsList() {
			items, ok := v.([]any)
			if !ok {
				return fmt.Errorf("protoreg: field %q expects a list", k)
			}
			list := msg.Mutable(fd).List()
			for _, it := range items {
				pv, err := scalarFromValue(fd, it)
				if err != nil {
					return err
				}
				list.Append(pv)
			}
			msg.Set(fd, protoreflect.ValueOfList(list))
			continue
		}
		pv, err := scalarFromValue(fd, v)
		if err != nil {
			return err
		}
		msg.Set(fd, pv)
	}
	return nil
}

func scalarFromValue(fd protoreflect.FieldDescriptor, v any) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if b, ok := v.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfInt32(int32(n)), nil
		}
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfInt64(n), nil
		}
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfUint32(uint32(n)), nil
		}
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfUint64(uint64(n)), nil
		}
	case protoreflect.FloatKind:
		if f, ok := toFloat64(v); ok {
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}
	case protoreflect.DoubleKind:
		if f, ok := toFloat64(v); ok {
			return protoreflect.ValueOfFloat64(f), nil
		}
	case protoreflect.StringKind:
		if s, ok := v.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}
	case protoreflect.BytesKind:
		if b, ok := v.([]byte); ok {
			return protoreflect.ValueOfBytes(b), nil
		}
		if s, ok := v.(string); ok {
			return protoreflect.ValueOfBytes([]byte(s)), nil
		}
	case protoreflect.EnumKind:
		if s, ok := v.(string); ok {
			if val := fd.Enum().Values().ByName(protoreflect.Name(s)); val != nil {
				return protoreflect.ValueOfEnum(val.Number()), nil
			}
		}
	case protoreflect.MessageKind:
		if mv, ok := v.(map[string]any); ok {
			nested := dynamicpb.NewMessage(fd.Message())
			if err := setFieldsByJSON(nested, mv); err != nil {
				return protoreflect.Value{}, err
			}
			return protoreflect.ValueOfMessage(nested), nil
		}
	}
	return protoreflect.Value{}, fmt.Errorf("protoreg: unsupported value %v (%T) for field %q", v, v, fd.JSONName())
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
