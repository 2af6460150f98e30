package organize

import "log/slog"

// Options configures the Move, Rename and Prune passes.
type Options struct {
	Extensions     Extensions // default: PhotoExtensions
	Pad            int        // sequence width, default DefaultPad
	Policy         TagPolicy
	Reader         MetadataReader
	DryRun         bool
	Verify         bool
	FollowSymlinks bool
	IncludeHidden  bool
	Logger         *slog.Logger

	// OnFile, if set, is called once per tracked file after it was handled.
	OnFile func(f *MediaFile, err error)
}

func (o Options) withDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = NewExtensions(PhotoExtensions...)
	}
	if o.Pad <= 0 {
		o.Pad = DefaultPad
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.OnFile == nil {
		o.OnFile = func(*MediaFile, error) {}
	}
	return o
}

// WalkOptions returns the walker settings of o, never entering exclude.
func (o Options) WalkOptions(exclude ...string) WalkOptions {
	return WalkOptions{
		FollowSymlinks: o.FollowSymlinks,
		IncludeHidden:  o.IncludeHidden,
		Exclude:        exclude,
	}
}
