package http

import "slices"

// Field is a single header line.
type Field struct{ Name, Value string }

func (f Field) Text() []byte {
	b := make([]byte, 0, len(f.Name)+len(f.Value)+2)
	b = append(b, f.Name...)
	b = append(b, ':', SP)
	return append(b, f.Value...)
}

// Headers is a header mapping with unique keys.
// Keys are compared verbatim. Iteration follows first insertion order,
// so the wire order of a message is deterministic.
//
// Headers has value semantics: a copy never observes changes made through another copy.
type Headers struct {
	fields []Field
}

func NewHeaders(fields ...Field) Headers {
	var h Headers
	for _, f := range fields {
		h.Set(f.Name, f.Value)
	}
	return h
}

// Messages carry a handful of fields, a scan beats a map here.
func (h *Headers) find(key string) int {
	for i, f := range h.fields {
		if f.Name == key {
			return i
		}
	}
	return -1
}

func (h *Headers) Get(key string) (value string, ok bool) {
	idx := h.find(key)
	if idx < 0 {
		return "", false
	}
	return h.fields[idx].Value, true
}

// Set overwrites the value of an existing key in place.
func (h *Headers) Set(key, value string) {
	if idx := h.find(key); idx >= 0 {
		fields := slices.Clone(h.fields)
		fields[idx].Value = value
		h.fields = fields
		return
	}

	// Clipping makes append reallocate instead of writing into an array a copy may share.
	h.fields = append(slices.Clip(h.fields), Field{Name: key, Value: value})
}

func (h *Headers) Del(key string) {
	idx := h.find(key)
	if idx < 0 {
		return
	}

	fields := make([]Field, 0, len(h.fields)-1)
	fields = append(fields, h.fields[:idx]...)
	h.fields = append(fields, h.fields[idx+1:]...)
}

func (h *Headers) Len() int { return len(h.fields) }

// Fields returns a copy of the fields in wire order.
func (h *Headers) Fields() []Field {
	return append([]Field(nil), h.fields...)
}

// Map returns the headers as an unordered mapping.
func (h *Headers) Map() map[string]string {
	m := make(map[string]string, len(h.fields))
	for _, f := range h.fields {
		m[f.Name] = f.Value
	}
	return m
}

func (h *Headers) Clone() Headers {
	return NewHeaders(h.fields...)
}
