package exifdate

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	exifHeader = []byte{'E', 'x', 'i', 'f', 0x00, 0x00}
	jpegMagic  = []byte{0xFF, 0xD8}
	pngMagic   = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
)

const (
	jpegScanLimit = 1 << 20
	pngChunkLimit = 10 << 20
)

// Read finds the EXIF block in r and returns its dates.
func Read(r io.ReadSeeker) (Dates, error) {
	blob, err := Extract(r)
	if err != nil {
		return Dates{}, err
	}
	if blob == nil {
		return Dates{}, ErrNoDate
	}
	return ParseDates(blob)
}

// Extract returns the raw TIFF block embedded in a JPEG or PNG stream, or
// nil if the container has none. Other containers yield ErrUnsupported.
func Extract(r io.ReadSeeker) ([]byte, error) {
	sniff := make([]byte, len(pngMagic))
	n, err := io.ReadFull(r, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	sniff = sniff[:n]

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(sniff, jpegMagic):
		return extractJPEG(bufio.NewReader(r))
	case bytes.Equal(sniff, pngMagic):
		return extractPNG(r)
	default:
		return nil, ErrUnsupported
	}
}

// extractJPEG walks marker segments until APP1/Exif, start of scan, or the
// scan limit.
func extractJPEG(br *bufio.Reader) ([]byte, error) {
	var lenBuf [2]byte
	scanned := 0

	for scanned < jpegScanLimit {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		scanned++
		if b != 0xFF {
			continue
		}

		marker := byte(0xFF)
		for marker == 0xFF {
			if marker, err = br.ReadByte(); err != nil {
				return nil, err
			}
			scanned++
		}

		switch {
		case marker == 0xD8, marker == 0x01, marker >= 0xD0 && marker <= 0xD7:
			continue
		case marker == 0xD9, marker == 0xDA:
			return nil, nil
		}

		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, err
		}
		size := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		scanned += 2
		if size < 0 {
			return nil, fmt.Errorf("%w: bad segment length", ErrUnsupported)
		}

		if marker == 0xE1 && size >= len(exifHeader) {
			if sig, err := br.Peek(len(exifHeader)); err == nil && bytes.Equal(sig, exifHeader) {
				seg := make([]byte, size)
				if _, err := io.ReadFull(br, seg); err != nil {
					return nil, err
				}
				return seg[len(exifHeader):], nil
			}
		}

		if size > jpegScanLimit-scanned {
			return nil, nil
		}
		skipped, err := br.Discard(size)
		if err != nil {
			return nil, err
		}
		scanned += skipped
	}
	return nil, nil
}

// extractPNG walks chunks looking for eXIf. The chunk holds a bare TIFF
// block without the JPEG "Exif\0\0" prefix.
func extractPNG(r io.Reader) ([]byte, error) {
	if _, err := io.CopyN(io.Discard, r, int64(len(pngMagic))); err != nil {
		return nil, err
	}

	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}

		size := binary.BigEndian.Uint32(hdr[0:4])
		switch string(hdr[4:8]) {
		case "eXIf":
			if size > pngChunkLimit {
				return nil, errors.New("exif chunk too large")
			}
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, err
			}
			return data, nil
		case "IEND":
			return nil, nil
		}

		// payload + CRC
		if _, err := io.CopyN(io.Discard, r, int64(size)+4); err != nil {
			return nil, err
		}
	}
}
