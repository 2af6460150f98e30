package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/abema/go-mp4"
	"github.com/barasher/go-exiftool"
	"github.com/levmv/photomover/exifdate"
	"github.com/levmv/photomover/organize"
	"github.com/rwcarlsen/goexif/exif"
)

var (
	tiffExts = map[string]bool{".tif": true, ".tiff": true, ".dng": true, ".cr2": true, ".nef": true, ".arw": true}
	isoExts  = map[string]bool{".mp4": true, ".mov": true, ".m4v": true, ".3gp": true}
)

// seconds between 1904-01-01 (QuickTime epoch) and 1970-01-01
const appleEpochOffset = 2082844800

// MetadataService reads capture tags. JPEG and PNG go through the native
// exifdate parser, TIFF-based raw files through goexif, ISO media through
// go-mp4. Anything those report as unsupported is handed to exiftool, which
// is only started the first time it is needed.
type MetadataService struct {
	UseExiftool bool
	Logger      *slog.Logger

	mu    sync.Mutex
	et    *exiftool.Exiftool
	etErr error
}

var _ organize.MetadataReader = (*MetadataService)(nil)

func (s *MetadataService) ReadTags(f *os.File) ([]organize.Tag, error) {
	var (
		tags []organize.Tag
		err  error
	)
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch {
	case tiffExts[ext]:
		tags, err = readTIFFTags(f)
	case isoExts[ext]:
		tags, err = readMP4Tags(f)
	default:
		tags, err = readNativeTags(f)
	}

	if errors.Is(err, exifdate.ErrUnsupported) && s.UseExiftool {
		return s.readExiftoolTags(f.Name())
	}
	return tags, err
}

// Close stops the exiftool process if it was started.
func (s *MetadataService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.et != nil {
		s.et.Close()
		s.et = nil
	}
}

func readNativeTags(f *os.File) ([]organize.Tag, error) {
	d, err := exifdate.Read(f)
	if err != nil {
		return nil, err
	}
	return datesToTags(d), nil
}

func datesToTags(d exifdate.Dates) []organize.Tag {
	var tags []organize.Tag
	if !d.Original.IsZero() {
		tags = append(tags, organize.Tag{Kind: organize.TagOriginal, Time: d.Original})
	}
	if !d.Saved.IsZero() {
		tags = append(tags, organize.Tag{Kind: organize.TagSaved, Time: d.Saved})
	}
	return tags
}

func readTIFFTags(f *os.File) ([]organize.Tag, error) {
	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exifdate.ErrUnsupported, err)
	}

	var d exifdate.Dates
	for field, dst := range map[exif.FieldName]*time.Time{
		exif.DateTimeOriginal: &d.Original,
		exif.DateTime:         &d.Saved,
	} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		if t, err := exifdate.ParseTime(s); err == nil {
			*dst = t
		}
	}
	if d.IsZero() {
		return nil, exifdate.ErrNoDate
	}
	return datesToTags(d), nil
}

// readMP4Tags takes the movie header times: creation as the capture time,
// modification as the last save. Only moov is descended into, so the media
// payload is seeked over, never read.
func readMP4Tags(f *os.File) ([]organize.Tag, error) {
	boxes, err := mp4.ExtractBoxesWithPayload(f, nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", exifdate.ErrUnsupported, err)
	}

	var (
		found            bool
		created, changed uint64
	)
	for _, b := range boxes {
		mvhd, ok := b.Payload.(*mp4.Mvhd)
		if !ok {
			continue
		}
		found = true
		if mvhd.GetVersion() == 1 {
			created, changed = mvhd.CreationTimeV1, mvhd.ModificationTimeV1
		} else {
			created, changed = uint64(mvhd.CreationTimeV0), uint64(mvhd.ModificationTimeV0)
		}
		break
	}
	if !found {
		return nil, exifdate.ErrUnsupported
	}

	var tags []organize.Tag
	if t, ok := appleEpochTime(created); ok {
		tags = append(tags, organize.Tag{Kind: organize.TagOriginal, Time: t})
	}
	if t, ok := appleEpochTime(changed); ok {
		tags = append(tags, organize.Tag{Kind: organize.TagSaved, Time: t})
	}
	if len(tags) == 0 {
		return nil, exifdate.ErrNoDate
	}
	return tags, nil
}

// appleEpochTime converts a movie header timestamp to local time, the zone
// EXIF dates are read in. Zero and pre-1970 values are what cameras write
// when the clock was never set.
func appleEpochTime(secs uint64) (time.Time, bool) {
	if secs <= appleEpochOffset {
		return time.Time{}, false
	}
	return time.Unix(int64(secs-appleEpochOffset), 0).Local(), true
}

// ensureExiftool starts exiftool once. A failed start is remembered so a
// missing binary is reported a single time.
func (s *MetadataService) ensureExiftool() (*exiftool.Exiftool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.et != nil || s.etErr != nil {
		return s.et, s.etErr
	}
	s.et, s.etErr = exiftool.NewExiftool()
	if s.etErr != nil && s.Logger != nil {
		s.Logger.Warn("exiftool unavailable, unsupported formats fall back to modification time", "err", s.etErr)
	}
	return s.et, s.etErr
}

var (
	exiftoolOriginalKeys = []string{"DateTimeOriginal", "CreateDate", "MediaCreateDate"}
	exiftoolSavedKeys    = []string{"ModifyDate"}
)

func (s *MetadataService) readExiftoolTags(path string) ([]organize.Tag, error) {
	et, err := s.ensureExiftool()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", exifdate.ErrUnsupported, err)
	}

	for _, fm := range et.ExtractMetadata(path) {
		if fm.Err != nil {
			return nil, fm.Err
		}
		var tags []organize.Tag
		if t, ok := firstTime(fm, exiftoolOriginalKeys); ok {
			tags = append(tags, organize.Tag{Kind: organize.TagOriginal, Time: t})
		}
		if t, ok := firstTime(fm, exiftoolSavedKeys); ok {
			tags = append(tags, organize.Tag{Kind: organize.TagSaved, Time: t})
		}
		if len(tags) > 0 {
			return tags, nil
		}
	}
	return nil, exifdate.ErrNoDate
}

func firstTime(fm exiftool.FileMetadata, keys []string) (time.Time, bool) {
	for _, key := range keys {
		v, err := fm.GetString(key)
		if err != nil {
			continue
		}
		if t, err := exifdate.ParseTime(v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
