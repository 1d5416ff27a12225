package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/nfrund/typedbus/internal/hostbus"
	"github.com/nfrund/typedbus/internal/notify"
)

// Describe builds the definition of a channel of T without registering it.
// The payload type is package-qualified. The module is the part of the name before the first dot, and the payload
// fields are the json names of T's exported fields when T is a struct or a
// pointer to one.
func Describe[T any](name, description string) Definition {
	t := reflect.TypeFor[T]()

	module, _, found := strings.Cut(name, ".")
	if !found {
		module = ""
	}

	return Definition{
		Name:          name,
		Module:        module,
		Description:   description,
		PayloadType:   hostbus.TypeTagFor[T](),
		PayloadFields: payloadFields(t),
		Optional:      admitsNil(t),
		RegisteredAt:  time.Now(),
	}
}

// Define registers a channel of T with m and returns it.
func Define[T any](m *Manager, name, description string) (notify.Channel[T], error) {
	if err := m.Register(Describe[T](name, description)); err != nil {
		return notify.Channel[T]{}, err
	}
	return notify.New[T](notify.Name(name)), nil
}

// MustDefine is Define for package-level channel variables. A failure here
// is a configuration error that should stop startup.
func MustDefine[T any](m *Manager, name, description string) notify.Channel[T] {
	ch, err := Define[T](m, name, description)
	if err != nil {
		panic(fmt.Sprintf("failed to define channel %s: %v", name, err))
	}
	return ch
}

func payloadFields(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []string
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = field.Name
		}
		fields = append(fields, name)
	}
	return fields
}

func admitsNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}
