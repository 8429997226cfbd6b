package core

import (
	"sort"
	"sync"
)

type codecPair struct {
	dec Decoder
	enc Encoder
}

// DefaultRegistry is the Registry used by the converter.  Backends register
// on top of each other; the last registration for a format wins.  Safe for
// concurrent use.
type DefaultRegistry struct {
	mu     sync.RWMutex
	codecs map[Format]codecPair
}

func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{codecs: make(map[Format]codecPair)}
}

func (r *DefaultRegistry) RegisterDecoder(f Format, d Decoder) {
	r.mu.Lock()
	c := r.codecs[f]
	c.dec = d
	r.codecs[f] = c
	r.mu.Unlock()
}

func (r *DefaultRegistry) RegisterEncoder(f Format, e Encoder) {
	r.mu.Lock()
	c := r.codecs[f]
	c.enc = e
	r.codecs[f] = c
	r.mu.Unlock()
}

func (r *DefaultRegistry) DecoderFor(f Format) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[f]
	return c.dec, ok && c.dec != nil
}

func (r *DefaultRegistry) EncoderFor(f Format) (Encoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[f]
	return c.enc, ok && c.enc != nil
}

// EncodableFormats lists the target formats with an encoder, sorted.
func (r *DefaultRegistry) EncodableFormats() []Format {
	return r.formats(func(c codecPair) bool { return c.enc != nil })
}

// DecodableFormats lists the source formats with a decoder, sorted.
func (r *DefaultRegistry) DecodableFormats() []Format {
	return r.formats(func(c codecPair) bool { return c.dec != nil })
}

func (r *DefaultRegistry) formats(keep func(codecPair) bool) []Format {
	r.mu.RLock()
	out := make([]Format, 0, len(r.codecs))
	for f, c := range r.codecs {
		if keep(c) {
			out = append(out, f)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
