package schema

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a structural hash of the record. Records that are Equal
// have the same hash.
func (r *Record) Hash() uint64 {
	d := xxhash.New()
	r.hashInto(d)
	return d.Sum64()
}

func (r *Record) hashInto(d *xxhash.Digest) {
	// The definition's name and attribute layout stand in for its identity
	// so the hash is stable across loads of the same document.
	writeTag(d, 'R')
	writeString(d, r.def.name)
	writeUint(d, uint64(len(r.def.attrs)))
	for i := range r.def.attrs {
		writeString(d, r.def.attrs[i].Name)
	}
	for _, v := range r.values {
		hashValue(d, v)
	}
}

func hashValue(d *xxhash.Digest, v any) {
	switch x := v.(type) {
	case nil:
		writeTag(d, 'n')
	case *Record:
		x.hashInto(d)
	case []any:
		writeTag(d, 'a')
		writeUint(d, uint64(len(x)))
		for _, e := range x {
			hashValue(d, e)
		}
	case map[string]any:
		writeTag(d, 'm')
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		writeUint(d, uint64(len(keys)))
		for _, k := range keys {
			writeString(d, k)
			hashValue(d, x[k])
		}
	case string:
		writeTag(d, 's')
		writeString(d, x)
	case bool:
		writeTag(d, 'b')
		if x {
			writeUint(d, 1)
		} else {
			writeUint(d, 0)
		}
	case int64:
		writeTag(d, 'i')
		writeUint(d, uint64(x))
	case float64:
		writeTag(d, 'f')
		if x == 0 {
			x = 0 // -0 and +0 are equal
		}
		writeUint(d, math.Float64bits(x))
	default:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
			writeTag(d, 'p')
			hashValue(d, rv.Elem().Interface())
			return
		}
		writeTag(d, 'v')
		_, _ = d.WriteString(fmt.Sprintf("%T:%#v", v, v))
	}
}

func writeTag(d *xxhash.Digest, tag byte) {
	_, _ = d.Write([]byte{tag})
}

func writeUint(d *xxhash.Digest, n uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	_, _ = d.Write(buf[:])
}

func writeString(d *xxhash.Digest, s string) {
	writeUint(d, uint64(len(s)))
	_, _ = d.WriteString(s)
}
