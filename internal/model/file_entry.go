package model

// FileEntry is computed from the filesystem on demand and never persisted.
// ID is only set on share listings, where it addresses the shared file in
// download requests.
type FileEntry struct {
	ID          string `json:"id,omitempty"`
	Filename    string `json:"filename"`
	Extension   string `json:"extension"`
	IsDirectory bool   `json:"is_directory"`
	Size        int64  `json:"size"`
}
