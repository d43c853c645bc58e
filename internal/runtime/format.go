// Package runtime is the host side of a compiled script: it turns the boxed
// values a script hands to its interop services into console text.
package runtime

import (
	"strconv"
	"strings"

	"github.com/kolkov/neoc/internal/types"
)

// Box tags as laid out by the compiler.
const (
	tagUndefined = 0
	tagNull      = 1
	tagBoolean   = 2
	tagString    = 3
	tagSymbol    = 4
	tagNumber    = 5
	tagObject    = 6
	tagArray     = 7
	tagMap       = 8
	tagSet       = 9
)

// Object payload slots.
const (
	objProps     = 0
	objInternal  = 2
	objAccessors = 3
)

// maxDepth bounds nesting; deeper values print as a placeholder, which also
// stops cycles.
const maxDepth = 4

// Format renders one boxed value the way console.log prints a single
// argument: strings unquoted, everything else in its inspection form.
func Format(box types.Value) string {
	var b strings.Builder
	formatValue(&b, box, 0, true)
	return b.String()
}

// FormatArgs renders the argument array of a console call, separated by
// spaces. An item that is not an array is formatted as a single argument.
func FormatArgs(args types.Value) string {
	arr := args.Array()
	if args.Kind() != types.KindArray || arr == nil {
		return Format(args)
	}
	var b strings.Builder
	for i, item := range arr.Items {
		if i > 0 {
			b.WriteByte(' ')
		}
		formatValue(&b, item, 0, true)
	}
	return b.String()
}

// unbox splits a box into tag and payload. ok is false for items that are
// not boxes.
func unbox(v types.Value) (tag int64, payload types.Value, ok bool) {
	arr := v.Array()
	if arr == nil || len(arr.Items) != 2 {
		return 0, types.Value{}, false
	}
	n, err := arr.Items[0].BigInt()
	if err != nil || !n.IsInt64() {
		return 0, types.Value{}, false
	}
	return n.Int64(), arr.Items[1], true
}

func formatValue(b *strings.Builder, v types.Value, depth int, top bool) {
	tag, payload, ok := unbox(v)
	if !ok {
		formatRaw(b, v)
		return
	}
	switch tag {
	case tagUndefined:
		b.WriteString("undefined")
	case tagNull:
		b.WriteString("null")
	case tagBoolean:
		if payload.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case tagString:
		s := bytesOf(payload)
		if top {
			b.WriteString(s)
		} else {
			b.WriteByte('\'')
			b.WriteString(s)
			b.WriteByte('\'')
		}
	case tagSymbol:
		b.WriteString("Symbol(")
		b.WriteString(bytesOf(payload))
		b.WriteByte(')')
	case tagNumber:
		n, err := payload.BigInt()
		if err != nil {
			b.WriteString("NaN")
			return
		}
		b.WriteString(n.String())
	case tagArray:
		formatArray(b, payload, depth)
	case tagObject:
		formatObject(b, payload, depth)
	case tagMap:
		formatCollection(b, "Map", payload, depth, func(entry types.Value) {
			items := entry.Array()
			if items == nil || len(items.Items) != 2 {
				b.WriteString(entry.String())
				return
			}
			formatValue(b, items.Items[0], depth+1, false)
			b.WriteString(" => ")
			formatValue(b, items.Items[1], depth+1, false)
		})
	case tagSet:
		formatCollection(b, "Set", payload, depth, func(item types.Value) {
			formatValue(b, item, depth+1, false)
		})
	default:
		b.WriteString(v.String())
	}
}

// formatRaw renders a stack item that is not a box by its VM kind.
func formatRaw(b *strings.Builder, v types.Value) {
	switch v.Kind() {
	case types.KindInteger:
		n, _ := v.BigInt()
		b.WriteString(n.String())
	case types.KindByteArray:
		b.WriteString(bytesOf(v))
	case types.KindBoolean:
		b.WriteString(strconv.FormatBool(v.Bool()))
	default:
		b.WriteString(v.String())
	}
}

func formatArray(b *strings.Builder, payload types.Value, depth int) {
	arr := payload.Array()
	if arr == nil || len(arr.Items) == 0 {
		b.WriteString("[]")
		return
	}
	if depth >= maxDepth {
		b.WriteString("[Array]")
		return
	}
	b.WriteString("[ ")
	for i, item := range arr.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		formatValue(b, item, depth+1, false)
	}
	b.WriteString(" ]")
}

func formatObject(b *strings.Builder, payload types.Value, depth int) {
	slots := payload.Array()
	if slots == nil || len(slots.Items) <= objAccessors {
		b.WriteString(payload.String())
		return
	}
	props := slots.Items[objProps].Map()
	internal := slots.Items[objInternal].Map()

	if name, ok := lookup(internal, "error"); ok {
		b.WriteString(bytesOf(name))
		if msg, ok := lookup(props, "message"); ok {
			if _, text, ok := unbox(msg); ok && bytesOf(text) != "" {
				b.WriteString(": ")
				b.WriteString(bytesOf(text))
			}
		}
		return
	}
	if _, ok := lookup(internal, "call"); ok {
		if _, ok := lookup(internal, "construct"); ok {
			b.WriteString("[class]")
		} else {
			b.WriteString("[Function]")
		}
		return
	}

	accessors := slots.Items[objAccessors].Map()
	if mapLen(props)+mapLen(accessors) == 0 {
		b.WriteString("{}")
		return
	}
	if depth >= maxDepth {
		b.WriteString("[Object]")
		return
	}
	b.WriteString("{ ")
	first := true
	sep := func() {
		if !first {
			b.WriteString(", ")
		}
		first = false
	}
	var keys, values []types.Value
	if props != nil {
		keys, values = props.Keys(), props.Values()
	}
	for i := range keys {
		sep()
		b.WriteString(bytesOf(keys[i]))
		b.WriteString(": ")
		formatValue(b, values[i], depth+1, false)
	}
	if accessors != nil {
		for _, k := range accessors.Keys() {
			sep()
			b.WriteString(bytesOf(k))
			b.WriteString(": [Getter/Setter]")
		}
	}
	b.WriteString(" }")
}

func formatCollection(b *strings.Builder, name string, payload types.Value, depth int, item func(types.Value)) {
	m := payload.Map()
	n := mapLen(m)
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(n))
	b.WriteByte(')')
	if n == 0 {
		b.WriteString(" {}")
		return
	}
	if depth >= maxDepth {
		b.WriteString(" [...]")
		return
	}
	b.WriteString(" { ")
	for i, v := range m.Values() {
		if i > 0 {
			b.WriteString(", ")
		}
		item(v)
	}
	b.WriteString(" }")
}

func lookup(m *types.Map, key string) (types.Value, bool) {
	if m == nil {
		return types.Value{}, false
	}
	v, ok, err := m.Get(types.Str(key))
	if err != nil {
		return types.Value{}, false
	}
	return v, ok
}

func mapLen(m *types.Map) int {
	if m == nil {
		return 0
	}
	return m.Len()
}

func bytesOf(v types.Value) string {
	data, err := v.Bytes()
	if err != nil {
		return v.String()
	}
	return string(data)
}
