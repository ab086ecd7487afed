//go:build !linux

package watcher

// DetectFilesystemType classifies the filesystem holding path.
// Only implemented on Linux; elsewhere fsnotify is assumed workable.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
