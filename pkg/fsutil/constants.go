package fsutil

// File and directory permission constants used throughout the application.
const (
	// FileModeDefault is the default mode for downloaded data files (-rw-r--r--).
	FileModeDefault = 0o644

	// DirModeDefault is the default mode for destination directories (drwxr-xr-x).
	DirModeDefault = 0o755

	// DirModePrivate is used for cache directories (drwx------).
	DirModePrivate = 0o700
)
