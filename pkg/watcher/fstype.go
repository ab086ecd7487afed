package watcher

// FilesystemType is a best-effort classification of the filesystem a
// watched file lives on. Remote filesystems get polling instead of
// fsnotify, whose events are unreliable over NFS/SMB.
type FilesystemType int

const (
	FSTypeUnknown FilesystemType = iota
	FSTypeLocal
	FSTypeNFS
	FSTypeSMB
	FSTypeFUSE
)

// String returns the filesystem type name.
func (t FilesystemType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeNFS:
		return "nfs"
	case FSTypeSMB:
		return "smb"
	case FSTypeFUSE:
		return "fuse"
	default:
		return "unknown"
	}
}

// isRemoteFilesystem reports whether fsnotify should be avoided for t.
func isRemoteFilesystem(t FilesystemType) bool {
	return t == FSTypeNFS || t == FSTypeSMB
}
