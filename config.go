package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/levmv/photomover/organize"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every setting a command reads. It can come from a YAML
// file; flags given on the command line win over the file.
type Config struct {
	Extensions     []string `yaml:"extensions"`
	Videos         bool     `yaml:"videos"`
	Pad            int      `yaml:"pad"`
	TagPolicy      string   `yaml:"tag_policy"`
	FollowSymlinks bool     `yaml:"follow_symlinks"`
	Hidden         bool     `yaml:"hidden"`
	Verify         bool     `yaml:"verify"`
	Progress       bool     `yaml:"progress"`
	DryRun         bool     `yaml:"dry_run"`
	Exiftool       bool     `yaml:"exiftool"`
	Color          string   `yaml:"color"`
	Verbose        int      `yaml:"verbose"`
}

func DefaultConfig() Config {
	return Config{
		Extensions: []string{"jpg", "jpeg", "png"},
		Pad:        organize.DefaultPad,
		TagPolicy:  organize.PreferOriginal.String(),
		Exiftool:   true,
		Color:      "auto",
	}
}

// LoadFile reads path over the defaults, so keys missing from the file
// keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Pad < 1 || c.Pad > 9 {
		errs = append(errs, fmt.Errorf("pad must be between 1 and 9, got %d", c.Pad))
	}
	if _, err := organize.ParseTagPolicy(c.TagPolicy); err != nil {
		errs = append(errs, err)
	}
	if len(c.TrackedExtensions()) == 0 {
		errs = append(errs, errors.New("no file extensions to track"))
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		errs = append(errs, fmt.Errorf("unknown color mode %q", c.Color))
	}
	return errors.Join(errs...)
}

// TrackedExtensions is the configured extension set, plus the video
// extensions when Videos is on.
func (c Config) TrackedExtensions() organize.Extensions {
	list := c.Extensions
	if c.Videos {
		list = append(list[:len(list):len(list)], organize.VideoExtensions...)
	}
	return organize.NewExtensions(list...)
}

// Options translates the config for the organize passes.
func (c Config) Options() organize.Options {
	policy, _ := organize.ParseTagPolicy(c.TagPolicy)
	return organize.Options{
		Extensions:     c.TrackedExtensions(),
		Pad:            c.Pad,
		Policy:         policy,
		DryRun:         c.DryRun,
		Verify:         c.Verify,
		FollowSymlinks: c.FollowSymlinks,
		IncludeHidden:  c.Hidden,
	}
}

// bindFlags registers the config flags on fs with c's values as defaults.
func (c *Config) bindFlags(fs *pflag.FlagSet) {
	fs.CountVarP(&c.Verbose, "verbose", "v", "log each file action (-vv for debug output)")
	fs.BoolVarP(&c.DryRun, "dry-run", "n", c.DryRun, "report what would happen without touching the disk")
	fs.StringSliceVar(&c.Extensions, "ext", c.Extensions, "tracked file extensions")
	fs.BoolVar(&c.Videos, "videos", c.Videos, "also track "+fmt.Sprint(organize.VideoExtensions))
	fs.IntVar(&c.Pad, "pad", c.Pad, "digits in sequence names")
	fs.StringVar(&c.TagPolicy, "tag-policy", c.TagPolicy, "which EXIF date wins: original or saved")
	fs.BoolVar(&c.FollowSymlinks, "follow-symlinks", c.FollowSymlinks, "descend into symlinked directories")
	fs.BoolVar(&c.Hidden, "hidden", c.Hidden, "include dot files and directories")
	fs.BoolVar(&c.Verify, "verify", c.Verify, "compare content digests before and after each move")
	fs.BoolVar(&c.Progress, "progress", c.Progress, "show a progress bar instead of per-file lines")
	fs.BoolVar(&c.Exiftool, "exiftool", c.Exiftool, "use exiftool for formats the built-in readers do not know")
	fs.StringVar(&c.Color, "color", c.Color, "colored output: auto, always or never")
}

// overlay copies the values of the flags set on the command line from
// flags onto c.
func (c *Config) overlay(flags Config, fs *pflag.FlagSet) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "verbose":
			c.Verbose = flags.Verbose
		case "dry-run":
			c.DryRun = flags.DryRun
		case "ext":
			c.Extensions = flags.Extensions
		case "videos":
			c.Videos = flags.Videos
		case "pad":
			c.Pad = flags.Pad
		case "tag-policy":
			c.TagPolicy = flags.TagPolicy
		case "follow-symlinks":
			c.FollowSymlinks = flags.FollowSymlinks
		case "hidden":
			c.Hidden = flags.Hidden
		case "verify":
			c.Verify = flags.Verify
		case "progress":
			c.Progress = flags.Progress
		case "exiftool":
			c.Exiftool = flags.Exiftool
		case "color":
			c.Color = flags.Color
		}
	})
}
