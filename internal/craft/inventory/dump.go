package inventory

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"craftbrowser.ai/internal/craft/item"
)

// DefaultDumpPath is where stacks live in a host inventory dump when no
// path is configured.
const DefaultDumpPath = "inventory"

var ErrBadDump = errors.New("bad inventory dump")

// ParseDump extracts stacks from a host inventory dump. path is a gjson path
// to an array of stack objects; each object needs "item" (or "id") and
// "count" (or "size"), with optional "variant" (or "damage"). Null entries
// are empty slots.
func ParseDump(raw []byte, path string) ([]item.Stack, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid json", ErrBadDump)
	}
	if path == "" {
		path = DefaultDumpPath
	}
	arr := gjson.GetBytes(raw, path)
	if !arr.Exists() {
		return nil, fmt.Errorf("%w: path %q not found", ErrBadDump, path)
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("%w: path %q is not an array", ErrBadDump, path)
	}

	var (
		out    []item.Stack
		parseE error
	)
	arr.ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Null {
			return true
		}
		id := firstOf(v, "item", "id").String()
		if id == "" {
			parseE = fmt.Errorf("%w: entry %d has no item id", ErrBadDump, k.Int())
			return false
		}
		count := firstOf(v, "count", "size")
		st := item.Stack{Item: id, Count: 1}
		if count.Exists() {
			st.Count = int(count.Int())
		}
		st.Variant = int(firstOf(v, "variant", "damage").Int())
		out = append(out, st)
		return true
	})
	if parseE != nil {
		return nil, parseE
	}
	return out, nil
}

func firstOf(v gjson.Result, fields ...string) gjson.Result {
	for _, f := range fields {
		if r := v.Get(f); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
