// Package exifdate reads capture dates out of the EXIF block embedded in
// JPEG and PNG files without decoding any image data.
package exifdate

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TagExifOffset       = 0x8769
	TagDateTime         = 0x0132
	TagDateTimeOriginal = 0x9003
)

var (
	// ErrUnsupported means the container or TIFF structure is not one this
	// package understands. Callers may retry with a heavier parser.
	ErrUnsupported = errors.New("unsupported format")

	// ErrNoDate means the EXIF block was readable but carried no usable date.
	ErrNoDate = errors.New("no date tag found")
)

// Dates holds the two timestamps of interest. Either may be zero.
//
// Original is DateTimeOriginal from the Exif sub-IFD (when the shutter fired).
// Saved is DateTime from IFD0, which editors rewrite on every save.
type Dates struct {
	Original time.Time
	Saved    time.Time
}

// IsZero reports whether neither date was found.
func (d Dates) IsZero() bool {
	return d.Original.IsZero() && d.Saved.IsZero()
}

// tiff is a bounds-checked view over a raw TIFF block.
type tiff struct {
	data  []byte
	order binary.ByteOrder
}

func newTIFF(data []byte) (*tiff, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("%w: data too short", ErrUnsupported)
	}

	var order binary.ByteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		order = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, 0, fmt.Errorf("%w: invalid tiff header", ErrUnsupported)
	}

	if order.Uint16(data[2:4]) != 42 {
		return nil, 0, fmt.Errorf("%w: invalid magic number", ErrUnsupported)
	}
	return &tiff{data: data, order: order}, int(order.Uint32(data[4:8])), nil
}

// entries calls fn with the tag id and the absolute offset of each 12-byte
// directory entry: [tag:2][type:2][count:4][value-or-offset:4].
func (t *tiff) entries(dirOffset int, fn func(tag uint16, at int)) error {
	if dirOffset < 0 || dirOffset+2 > len(t.data) {
		return errors.New("directory offset out of bounds")
	}
	n := int(t.order.Uint16(t.data[dirOffset : dirOffset+2]))
	at := dirOffset + 2
	for i := 0; i < n; i++ {
		if at+12 > len(t.data) {
			return errors.New("directory entry out of bounds")
		}
		fn(t.order.Uint16(t.data[at:at+2]), at)
		at += 12
	}
	return nil
}

func (t *tiff) long(at int) int {
	return int(t.order.Uint32(t.data[at+8 : at+12]))
}

// ascii returns the NUL-terminated string stored by the entry at `at`.
// Values of four bytes or less live inline in the entry itself.
func (t *tiff) ascii(at int) string {
	count := int(t.order.Uint32(t.data[at+4 : at+8]))
	start := at + 8
	if count > 4 {
		start = t.long(at)
	}
	if start < 0 || count < 0 || start+count > len(t.data) {
		return ""
	}

	raw := t.data[start : start+count]
	if i := bytes.IndexByte(raw, 0); i != -1 {
		raw = raw[:i]
	}
	return string(bytes.TrimSpace(raw))
}

// ParseDates reads both date tags from a raw TIFF block (as found after the
// "Exif\0\0" marker in JPEG, or verbatim in a PNG eXIf chunk).
func ParseDates(data []byte) (Dates, error) {
	t, ifd0, err := newTIFF(data)
	if err != nil {
		return Dates{}, err
	}

	var exifOffset int
	var saved, original string

	err = t.entries(ifd0, func(tag uint16, at int) {
		switch tag {
		case TagExifOffset:
			exifOffset = t.long(at)
		case TagDateTime:
			saved = t.ascii(at)
		}
	})
	if err != nil {
		return Dates{}, fmt.Errorf("%w: tiff structure corruption: %v", ErrUnsupported, err)
	}

	if exifOffset > 0 {
		// A broken sub-IFD still leaves IFD0's DateTime usable.
		_ = t.entries(exifOffset, func(tag uint16, at int) {
			if tag == TagDateTimeOriginal {
				original = t.ascii(at)
			}
		})
	}

	var d Dates
	if original != "" {
		if ts, err := ParseTime(original); err == nil {
			d.Original = ts
		}
	}
	if saved != "" {
		if ts, err := ParseTime(saved); err == nil {
			d.Saved = ts
		}
	}
	if d.IsZero() {
		return d, ErrNoDate
	}
	return d, nil
}

var layouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// ParseTime parses the date formats found in EXIF and XMP tags. Times
// without a zone are taken as local time, which is what cameras record.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 10 || strings.HasPrefix(s, "0000:00:00") || strings.HasPrefix(s, "    :  :  ") {
		return time.Time{}, ErrNoDate
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unknown date format %q", ErrUnsupported, s)
}
