package builder

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/klauspost/compress/flate"
)

// Fixed DOS timestamp (1980-01-01 00:00:00) so identical inputs
// produce byte-identical archives.
const (
	dosEpochDate = 0x0021
	dosEpochTime = 0x0000
)

const zipVersion = 20

// WriteArchive assembles a ZIP archive from the given files. Entries
// are written in sorted path order and deflated only when compression
// actually shrinks the payload, so the output is deterministic. The
// archive carries a full central directory and end-of-central-directory
// record and opens in standard tooling.
func WriteArchive(files map[string][]byte) []byte {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out bytes.Buffer
	type dirEntry struct {
		name         string
		method       uint16
		crc          uint32
		compressed   uint32
		uncompressed uint32
		offset       uint32
	}
	entries := make([]dirEntry, 0, len(paths))

	for _, p := range paths {
		content := files[p]
		crc := crc32.ChecksumIEEE(content)
		method := uint16(methodStored)
		payload := content

		if deflated, ok := deflate(content); ok {
			method = methodDeflated
			payload = deflated
		}

		offset := uint32(out.Len())
		var hdr [localFileHeaderLen]byte
		binary.LittleEndian.PutUint32(hdr[0:], localFileHeaderSig)
		binary.LittleEndian.PutUint16(hdr[4:], zipVersion)
		binary.LittleEndian.PutUint16(hdr[6:], 0) // flags
		binary.LittleEndian.PutUint16(hdr[8:], method)
		binary.LittleEndian.PutUint16(hdr[10:], dosEpochTime)
		binary.LittleEndian.PutUint16(hdr[12:], dosEpochDate)
		binary.LittleEndian.PutUint32(hdr[14:], crc)
		binary.LittleEndian.PutUint32(hdr[18:], uint32(len(payload)))
		binary.LittleEndian.PutUint32(hdr[22:], uint32(len(content)))
		binary.LittleEndian.PutUint16(hdr[26:], uint16(len(p)))
		binary.LittleEndian.PutUint16(hdr[28:], 0) // extra length
		out.Write(hdr[:])
		out.WriteString(p)
		out.Write(payload)

		entries = append(entries, dirEntry{
			name:         p,
			method:       method,
			crc:          crc,
			compressed:   uint32(len(payload)),
			uncompressed: uint32(len(content)),
			offset:       offset,
		})
	}

	dirOffset := uint32(out.Len())
	for _, e := range entries {
		var hdr [46]byte
		binary.LittleEndian.PutUint32(hdr[0:], centralDirSig)
		binary.LittleEndian.PutUint16(hdr[4:], zipVersion) // version made by
		binary.LittleEndian.PutUint16(hdr[6:], zipVersion) // version needed
		binary.LittleEndian.PutUint16(hdr[8:], 0)          // flags
		binary.LittleEndian.PutUint16(hdr[10:], e.method)
		binary.LittleEndian.PutUint16(hdr[12:], dosEpochTime)
		binary.LittleEndian.PutUint16(hdr[14:], dosEpochDate)
		binary.LittleEndian.PutUint32(hdr[16:], e.crc)
		binary.LittleEndian.PutUint32(hdr[20:], e.compressed)
		binary.LittleEndian.PutUint32(hdr[24:], e.uncompressed)
		binary.LittleEndian.PutUint16(hdr[28:], uint16(len(e.name)))
		// comment length, disk number, attributes and local offset
		binary.LittleEndian.PutUint32(hdr[42:], e.offset)
		out.Write(hdr[:])
		out.WriteString(e.name)
	}
	dirSize := uint32(out.Len()) - dirOffset

	var eocd [22]byte
	binary.LittleEndian.PutUint32(eocd[0:], endOfCentralDirSig)
	binary.LittleEndian.PutUint16(eocd[8:], uint16(len(entries)))
	binary.LittleEndian.PutUint16(eocd[10:], uint16(len(entries)))
	binary.LittleEndian.PutUint32(eocd[12:], dirSize)
	binary.LittleEndian.PutUint32(eocd[16:], dirOffset)
	out.Write(eocd[:])

	return out.Bytes()
}

// deflate compresses content and reports whether the compressed form
// is actually smaller. Tiny or incompressible payloads are stored raw.
func deflate(content []byte) ([]byte, bool) {
	if len(content) == 0 {
		return nil, false
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, false
	}
	if _, err := w.Write(content); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	if buf.Len() >= len(content) {
		return nil, false
	}
	return buf.Bytes(), true
}
