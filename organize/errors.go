package organize

import (
	"errors"
	"fmt"
)

var (
	// ErrMetadataUnreadable is recovered inside Resolver: the file is
	// timestamped by its modification time instead.
	ErrMetadataUnreadable = errors.New("metadata unreadable")

	// ErrDirectoryUnreadable marks a directory whose subtree was skipped.
	ErrDirectoryUnreadable = errors.New("directory unreadable")

	// ErrSymlinkCycle marks a followed symlink that leads to an already
	// visited directory.
	ErrSymlinkCycle = errors.New("directory already visited through symlink")

	// ErrRelocateFailed means the file was left at its original location.
	ErrRelocateFailed = errors.New("relocate failed")

	ErrCrossVolumeMoveUnsupported = fmt.Errorf("%w: cross-volume move unsupported", ErrRelocateFailed)

	// ErrRootUnreadable is the only error that aborts a whole run.
	ErrRootUnreadable = errors.New("root directory unreadable")
)
