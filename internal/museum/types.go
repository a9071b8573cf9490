package museum

// PublicURL holds the configuration of one public link to a collection.
// A collection may carry several, but clients act on the first.
type PublicURL struct {
	URL             string
	DeviceLimit     int
	ValidTill       int64
	EnableDownload  bool
	EnableCollect   bool
	EnableJoin      bool
	PasswordEnabled bool

	// Key derivation parameters for password-protected links.
	// Nonce is the base64-encoded argon2 salt.
	Nonce    string
	OpsLimit uint32
	MemLimit uint32
}

// Collection is the remote-owned metadata of a shared album. It is a cache
// of server state — always replaced wholesale by a fresh pull, never merged
// field by field.
type Collection struct {
	ID           int64
	OwnerID      int64
	Name         string
	Type         string
	PublicURLs   []PublicURL
	UpdationTime int64

	// SortAsc is the sharer's ordering preference: oldest first when true,
	// newest first otherwise.
	SortAsc bool
}

// PublicURLConfig returns the active public URL configuration, or false
// when the collection carries none.
func (c *Collection) PublicURLConfig() (PublicURL, bool) {
	if len(c.PublicURLs) == 0 {
		return PublicURL{}, false
	}

	return c.PublicURLs[0], true
}

// IsPasswordProtected reports whether the link requires a verified password.
func (c *Collection) IsPasswordProtected() bool {
	pu, ok := c.PublicURLConfig()
	return ok && pu.PasswordEnabled
}

// DownloadEnabled reports whether the sharer allows downloads.
// Defaults to true when no public URL configuration is present.
func (c *Collection) DownloadEnabled() bool {
	pu, ok := c.PublicURLConfig()
	if !ok {
		return true
	}

	return pu.EnableDownload
}

// CollectEnabled reports whether visitors may add their own photos.
func (c *Collection) CollectEnabled() bool {
	pu, ok := c.PublicURLConfig()
	return ok && pu.EnableCollect
}

// IsHidden reports whether the collection is a hidden album.
func (c *Collection) IsHidden() bool {
	return c.Type == "hidden"
}

// File is one file record belonging to a collection.
type File struct {
	ID           int64
	CollectionID int64
	OwnerID      int64
	Name         string
	Size         int64
	CaptureTime  int64 // microseconds since epoch; zero if unknown
	ModifiedTime int64 // microseconds since epoch
	IsDeleted    bool
	UpdationTime int64
}

// SortTime returns the timestamp used for listing order: capture time when
// known, modification time otherwise.
func (f *File) SortTime() int64 {
	if f.CaptureTime != 0 {
		return f.CaptureTime
	}

	return f.ModifiedTime
}
