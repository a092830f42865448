// Package metadata holds the string key/value attachments that travel with an
// invocation, plus the binary codec used to ship them across process
// boundaries.
package metadata

// Metadata represents invocation attachments. Keys are treated
// case-insensitively by the codec (lower-cased on encode).
type Metadata map[string]string

// Clone returns a copy of the metadata. A nil receiver yields an empty map.
func (md Metadata) Clone() Metadata {
	out := make(Metadata, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into md, overwriting existing keys.
func (md Metadata) Merge(other Metadata) {
	for k, v := range other {
		md[k] = v
	}
}
