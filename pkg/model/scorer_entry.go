package model

import "time"

// ScorerEntryInfo is the metadata view of a scorer registry record. The
// record itself, including the implementation, is pkg/registry's entry type
// (kept out of model to avoid an import cycle); registry.List returns this
// metadata-only view.
type ScorerEntryInfo struct {
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	SourceFile string    `json:"source_file,omitempty"`
	MTime      time.Time `json:"mtime,omitempty"`
}
