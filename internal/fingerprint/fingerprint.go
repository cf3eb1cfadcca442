// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fingerprint derives stable cache identities for menu render
// requests. Two condition sets that hold the same keys and values produce
// the same fingerprint no matter the order the keys were inserted in.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

const (
	// Length is the size of a fingerprint in characters (hex-encoded MD5).
	Length = 32

	// MaxTransientNameLength is the longest name the transient table accepts.
	MaxTransientNameLength = 172

	// LocationKey is the condition naming the theme location.
	LocationKey = "theme_location"

	// maxDepth caps how deep the walk descends.
	maxDepth = 32

	// maxNodes caps the total work for values that share substructure.
	maxNodes = 10000
)

// Conditions describes one menu render request: the location, container
// markup, depth and any other argument handed to the menu renderer.
type Conditions map[string]any

// Location returns the theme location the conditions ask for, or "" if
// none is set or it is not a string.
func (c Conditions) Location() string {
	if c == nil {
		return ""
	}
	loc, _ := c[LocationKey].(string)
	return strings.TrimSpace(loc)
}

// Fingerprint returns the hex-encoded MD5 of the canonical JSON form of c.
// Maps are serialized with their keys sorted at every level, so insertion
// order never changes the result. It never panics: values that cannot be
// represented as JSON are replaced by a descriptive string.
func Fingerprint(c Conditions) string {
	var v any = map[string]any{}
	if len(c) > 0 {
		w := &walker{onPath: map[ref]bool{}}
		v = w.canonical(reflect.ValueOf(map[string]any(c)), 0)
	}

	data, err := json.Marshal(v)
	if err != nil {
		// canonical only produces JSON-safe values; this is a last resort.
		data = []byte(fmt.Sprintf("%#v", v))
	}

	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Key prefixes fp with label and cuts the result to max bytes. Stores with
// a name length limit lose some collision resistance when the label is long.
func Key(label, fp string, max int) string {
	k := label + fp
	if max > 0 && len(k) > max {
		k = k[:max]
	}
	return k
}

// ref identifies a map, slice or pointer. Slices sharing a backing array
// differ by length.
type ref struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

// walker carries the state of one canonical walk. The walk order is
// fixed, so the node budget cuts the same values on every run.
type walker struct {
	onPath map[ref]bool
	nodes  int
}

// enter marks v as being walked. It reports false when v already is an
// ancestor of itself.
func (w *walker) enter(v reflect.Value) (leave func(), ok bool) {
	r := ref{ptr: v.Pointer(), typ: v.Type()}
	if v.Kind() == reflect.Slice {
		r.n = v.Len()
	}
	if w.onPath[r] {
		return nil, false
	}
	w.onPath[r] = true
	return func() { delete(w.onPath, r) }, true
}

// canonical converts v into a tree made only of nil, bool, float64,
// string, []any and map[string]any. encoding/json sorts map keys when
// marshaling, which gives the key-ordered serialization.
func (w *walker) canonical(v reflect.Value, depth int) any {
	if depth > maxDepth {
		return "<max depth>"
	}
	w.nodes++
	if w.nodes > maxNodes {
		return "<truncated>"
	}
	if !v.IsValid() {
		return nil
	}

	if t, ok := asTime(v); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return w.canonical(v.Elem(), depth+1)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		leave, ok := w.enter(v)
		if !ok {
			return "<cycle>"
		}
		defer leave()
		return w.canonical(v.Elem(), depth+1)

	case reflect.Bool:
		return v.Bool()

	case reflect.String:
		return v.String()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return json.Number(fmt.Sprintf("%d", v.Int()))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return json.Number(fmt.Sprintf("%d", v.Uint()))

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprintf("%v", f)
		}
		return f

	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("%v", v.Complex())

	case reflect.Map:
		if !v.IsNil() {
			leave, ok := w.enter(v)
			if !ok {
				return "<cycle>"
			}
			defer leave()
		}
		out := make(map[string]any, v.Len())
		keys := v.MapKeys()
		// Sort so that stringified keys colliding ("1" and 1) resolve the
		// same way on every run.
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			out[fmt.Sprint(k.Interface())] = w.canonical(v.MapIndex(k), depth+1)
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return []any{}
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		leave, ok := w.enter(v)
		if !ok {
			return "<cycle>"
		}
		defer leave()
		return w.list(v, depth)

	case reflect.Array:
		return w.list(v, depth)

	case reflect.Struct:
		return w.canonicalStruct(v, depth)

	default:
		// Channels, functions and unsafe pointers have no stable value.
		return "<" + v.Type().String() + ">"
	}
}

func (w *walker) list(v reflect.Value, depth int) []any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = w.canonical(v.Index(i), depth+1)
	}
	return out
}

// canonicalStruct maps exported fields by their JSON name.
func (w *walker) canonicalStruct(v reflect.Value, depth int) any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		out[name] = w.canonical(v.Field(i), depth+1)
	}
	return out
}

func asTime(v reflect.Value) (time.Time, bool) {
	if v.Kind() != reflect.Struct || !v.CanInterface() {
		return time.Time{}, false
	}
	t, ok := v.Interface().(time.Time)
	return t, ok
}
