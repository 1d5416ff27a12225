package hostbus

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Codec turns posted objects into bytes and back. WatermillBus uses it for
// message payloads.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes objects with encoding/json.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// TypeTag names the dynamic type of v, package-qualified.
func TypeTag(v any) string {
	if v == nil {
		return "nil"
	}
	return typeTag(reflect.TypeOf(v))
}

// TypeTagFor names T, package-qualified.
func TypeTagFor[T any]() string {
	return typeTag(reflect.TypeFor[T]())
}

func typeTag(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + typeTag(t.Elem())
	case reflect.Slice:
		return "[]" + typeTag(t.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), typeTag(t.Elem()))
	case reflect.Map:
		return "map[" + typeTag(t.Key()) + "]" + typeTag(t.Elem())
	case reflect.Chan:
		return t.ChanDir().String() + " " + typeTag(t.Elem())
	}
	return t.String()
}
