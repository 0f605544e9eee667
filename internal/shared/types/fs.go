package types

import "time"

// RootPath is the virtual "this PC" location that lists devices
// instead of files. It is the only path that cannot receive a paste.
const RootPath = ""

// Entry represents one file or directory row in a listing
type Entry struct {
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	IsDirectory    bool      `json:"isDirectory"`
	IsHidden       bool      `json:"isHidden"`
	IsSymbolicLink bool      `json:"isSymbolicLink"`
	Size           int64     `json:"size"`
	LastModified   time.Time `json:"lastModified"`
}

// Disk represents one device row on the virtual root listing
type Disk struct {
	Path       string `json:"path"`
	Type       string `json:"type"`
	TotalSpace int64  `json:"totalSpace"`
	FreeSpace  int64  `json:"freeSpace"`
}

// Listing holds the items fetched for one path. Exactly one of the two
// shapes is populated: Directories+Files for a real path, Disks for the
// virtual root.
type Listing struct {
	Directories []Entry `json:"directories,omitempty"`
	Files       []Entry `json:"files,omitempty"`
	Disks       []Disk  `json:"disks,omitempty"`
}

// Entries flattens a listing into display order: directories first, then
// files; the root listing maps each disk to a directory entry.
func (l *Listing) Entries() []Entry {
	if len(l.Disks) > 0 {
		entries := make([]Entry, 0, len(l.Disks))
		for _, d := range l.Disks {
			entries = append(entries, Entry{
				Name:        d.Path,
				Path:        d.Path,
				IsDirectory: true,
			})
		}
		return entries
	}
	entries := make([]Entry, 0, len(l.Directories)+len(l.Files))
	entries = append(entries, l.Directories...)
	entries = append(entries, l.Files...)
	return entries
}
