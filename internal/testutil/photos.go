// Package testutil builds photo fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"
	"math"
)

// EXIF describes the tags written into a fixture. Zero values are omitted.
type EXIF struct {
	GPS              bool
	Lat, Lng         float64
	DateTimeOriginal string // "2006:01:02 15:04:05"
	Description      string
}

const (
	typeASCII    = 2
	typeLong     = 4
	typeRational = 5

	tagImageDescription = 0x010e
	tagExifIFD          = 0x8769
	tagGPSIFD           = 0x8825
	tagDateTimeOriginal = 0x9003
	tagGPSLatitudeRef   = 0x0001
	tagGPSLatitude      = 0x0002
	tagGPSLongitudeRef  = 0x0003
	tagGPSLongitude     = 0x0004
)

// JPEG returns a small JPEG image carrying the given EXIF tags. A nil meta
// produces a JPEG with no APP1 segment at all. The pixels are derived from
// meta, so fixtures with different tags also differ in content.
func JPEG(meta *EXIF) []byte {
	return WithEXIF(Pixels(seed(meta)), meta)
}

// Pixels encodes a 16x12 gradient shifted by s.
func Pixels(s uint8) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x*16) + s, G: uint8(y*20) + s/2, B: 128 + s, A: 255})
		}
	}

	var body bytes.Buffer
	if err := jpeg.Encode(&body, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	return body.Bytes()
}

// WithEXIF splices an APP1 segment for meta into a bare JPEG produced by
// Pixels. A nil meta returns body unchanged.
func WithEXIF(body []byte, meta *EXIF) []byte {
	if meta == nil {
		return body
	}

	payload := append([]byte("Exif\x00\x00"), tiff(meta)...)

	var out bytes.Buffer
	out.Write([]byte{0xff, 0xd8, 0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(body[2:]) // skip the encoder's SOI
	return out.Bytes()
}

func seed(meta *EXIF) uint8 {
	if meta == nil {
		return 0
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%t|%v|%v|%s|%s", meta.GPS, meta.Lat, meta.Lng, meta.DateTimeOriginal, meta.Description)
	return uint8(h.Sum32()%200) + 20
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func tiff(meta *EXIF) []byte {
	var exifIFD, gpsIFD []entry
	if meta.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(tagDateTimeOriginal, meta.DateTimeOriginal))
	}
	if meta.GPS {
		latRef, lngRef := "N", "E"
		if meta.Lat < 0 {
			latRef = "S"
		}
		if meta.Lng < 0 {
			lngRef = "W"
		}
		gpsIFD = append(gpsIFD,
			ascii(tagGPSLatitudeRef, latRef),
			dms(tagGPSLatitude, math.Abs(meta.Lat)),
			ascii(tagGPSLongitudeRef, lngRef),
			dms(tagGPSLongitude, math.Abs(meta.Lng)),
		)
	}

	ifd0 := func(exifOff, gpsOff uint32) []entry {
		var es []entry
		if meta.Description != "" {
			es = append(es, ascii(tagImageDescription, meta.Description))
		}
		if len(exifIFD) > 0 {
			es = append(es, long(tagExifIFD, exifOff))
		}
		if len(gpsIFD) > 0 {
			es = append(es, long(tagGPSIFD, gpsOff))
		}
		return es
	}

	const headerLen = 8
	first := encodeIFD(ifd0(0, 0), headerLen)
	exifOff := uint32(headerLen + len(first))
	exifBytes := encodeIFD(exifIFD, exifOff)
	gpsOff := exifOff + uint32(len(exifBytes))
	gpsBytes := encodeIFD(gpsIFD, gpsOff)

	var out bytes.Buffer
	out.Write([]byte{'M', 'M', 0x00, 0x2a})
	_ = binary.Write(&out, binary.BigEndian, uint32(headerLen))
	out.Write(encodeIFD(ifd0(exifOff, gpsOff), headerLen))
	out.Write(exifBytes)
	out.Write(gpsBytes)
	return out.Bytes()
}

// encodeIFD lays out an IFD at offset followed by its out-of-line values.
func encodeIFD(entries []entry, offset uint32) []byte {
	if len(entries) == 0 {
		return nil
	}

	ifdLen := uint32(2 + 12*len(entries) + 4)
	var table, extra bytes.Buffer
	_ = binary.Write(&table, binary.BigEndian, uint16(len(entries)))

	for _, e := range entries {
		_ = binary.Write(&table, binary.BigEndian, e.tag)
		_ = binary.Write(&table, binary.BigEndian, e.typ)
		_ = binary.Write(&table, binary.BigEndian, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			table.Write(v)
			continue
		}
		_ = binary.Write(&table, binary.BigEndian, offset+ifdLen+uint32(extra.Len()))
		extra.Write(e.data)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	_ = binary.Write(&table, binary.BigEndian, uint32(0))

	return append(table.Bytes(), extra.Bytes()...)
}

func ascii(tag uint16, s string) entry {
	data := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(data)), data: data}
}

func long(tag uint16, v uint32) entry {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: data}
}

func dms(tag uint16, deg float64) entry {
	d := math.Floor(deg)
	m := math.Floor((deg - d) * 60)
	s := (deg - d - m/60) * 3600

	var buf bytes.Buffer
	for _, r := range [][2]uint32{
		{uint32(d), 1},
		{uint32(m), 1},
		{uint32(math.Round(s * 10000)), 10000},
	} {
		_ = binary.Write(&buf, binary.BigEndian, r[0])
		_ = binary.Write(&buf, binary.BigEndian, r[1])
	}
	return entry{tag: tag, typ: typeRational, count: 3, data: buf.Bytes()}
}
