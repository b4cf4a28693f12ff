package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/knadh/koanf/v2"
)

var errReadBytes = errors.New("config: ReadBytes not supported")

// structProvider exposes a struct's non-zero koanf-tagged fields as a
// nested map, so defaults load like any other layer.
type structProvider struct {
	v any
}

func defaultsFrom(v any) koanf.Provider {
	return &structProvider{v: v}
}

func (p *structProvider) Read() (map[string]any, error) {
	return structToMap(p.v)
}

func (p *structProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytes
}

func structToMap(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("config: expected struct, got %T", v)
	}

	out := make(map[string]any)
	typ := val.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Tag.Get("koanf")
		if key == "" || key == "-" {
			continue
		}

		fv := val.Field(i)
		if isEmpty(fv) {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			fv = fv.Elem()
		}

		if fv.Kind() == reflect.Struct && fv.Type().PkgPath() != "time" {
			nested, err := structToMap(fv.Interface())
			if err != nil {
				return nil, err
			}
			if len(nested) > 0 {
				out[key] = nested
			}
			continue
		}
		out[key] = fv.Interface()
	}
	return out, nil
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

const fileURIPrefix = "file://"

// secretResolver replaces "file://<path>" string values already loaded into
// k with the trimmed contents of <path>.
type secretResolver struct {
	k *koanf.Koanf
}

func resolveSecrets(k *koanf.Koanf) koanf.Provider {
	return &secretResolver{k: k}
}

func (r *secretResolver) Read() (map[string]any, error) {
	return resolveMap(r.k.Raw(), "")
}

func (r *secretResolver) ReadBytes() ([]byte, error) {
	return nil, errReadBytes
}

func resolveMap(m map[string]any, prefix string) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, val := range m {
		path := prefix + key
		switch v := val.(type) {
		case string:
			resolved, err := resolveString(v)
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", path, err)
			}
			out[key] = resolved
		case map[string]any:
			nested, err := resolveMap(v, path+".")
			if err != nil {
				return nil, err
			}
			out[key] = nested
		default:
			out[key] = v
		}
	}
	return out, nil
}

func resolveString(s string) (string, error) {
	path, ok := strings.CutPrefix(s, fileURIPrefix)
	if !ok {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
