package media

// Type distinguishes stored objects from virtual directories.
type Type string

const (
	TypeFile Type = "file"
	TypeDir  Type = "dir"
)

// Media is the normalized view of one stored object or one virtual directory.
// Directory records never carry a preview URL.
type Media struct {
	ID         string `json:"id" jsonschema:"description=Full storage key for files or directory path for dirs"`
	Filename   string `json:"filename"`
	Directory  string `json:"directory"`
	Type       Type   `json:"type" jsonschema:"enum=file,enum=dir"`
	PreviewSrc string `json:"previewSrc,omitempty" jsonschema:"description=Public URL, set only for image files"`
}

// UploadRequest is one file to persist.
type UploadRequest struct {
	Directory   string
	Name        string
	ContentType string
	Content     []byte
}

// ListOptions selects a directory and a window of its entries.
type ListOptions struct {
	Directory string `json:"directory,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// ListPage is one window of a directory listing.
type ListPage struct {
	Items      []Media `json:"items"`
	Offset     int     `json:"offset"`
	Limit      int     `json:"limit"`
	TotalCount int     `json:"totalCount"`
}
