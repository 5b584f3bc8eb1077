package builder

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
)

// FileSet maps archive-relative file paths to their raw contents. Keys
// use forward slashes and never carry the wrapping top-level directory
// of the uploaded archive.
type FileSet map[string][]byte

// ZIP record signatures, little-endian.
const (
	localFileHeaderSig = 0x04034b50
	centralDirSig      = 0x02014b50
	endOfCentralDirSig = 0x06054b50
)

// Compression methods we understand.
const (
	methodStored   = 0
	methodDeflated = 8
)

const localFileHeaderLen = 30

// ReadArchive scans a ZIP buffer by walking consecutive local file
// headers from offset zero and returns the extracted files. It never
// fails: malformed or truncated input terminates the scan early,
// entries with unsupported compression methods are kept as empty
// placeholders, and every anomaly is reported through blog. A corrupt
// buffer therefore yields an empty FileSet rather than an error.
//
// The first path segment of every entry (the project folder most
// archive tools wrap around the tree) is stripped, so keys are
// relative to the project root.
func ReadArchive(data []byte, blog *Log) FileSet {
	files := make(FileSet)
	offset := 0

	for offset+localFileHeaderLen <= len(data) {
		if binary.LittleEndian.Uint32(data[offset:]) != localFileHeaderSig {
			// First record of the central directory, or garbage.
			// Either way the local entries are behind us.
			break
		}

		method := binary.LittleEndian.Uint16(data[offset+8:])
		compressedSize := int(binary.LittleEndian.Uint32(data[offset+18:]))
		nameLen := int(binary.LittleEndian.Uint16(data[offset+26:]))
		extraLen := int(binary.LittleEndian.Uint16(data[offset+28:]))

		nameStart := offset + localFileHeaderLen
		dataStart := nameStart + nameLen + extraLen
		dataEnd := dataStart + compressedSize
		if dataStart > len(data) || dataEnd > len(data) {
			blog.Warnf("archive entry at offset %d is truncated, stopping scan", offset)
			break
		}

		name := string(data[nameStart : nameStart+nameLen])
		raw := data[dataStart:dataEnd]
		offset = dataEnd

		if strings.HasSuffix(name, "/") {
			continue
		}
		key := stripRootSegment(name)
		if key == "" {
			continue
		}

		switch method {
		case methodStored:
			files[key] = append([]byte(nil), raw...)
		case methodDeflated:
			content, err := inflate(raw)
			if err != nil {
				blog.Warnf("failed to inflate %s: %v", name, err)
				files[key] = content
				continue
			}
			files[key] = content
		default:
			blog.Warnf("unsupported compression method %d for %s, keeping empty placeholder", method, name)
			files[key] = []byte{}
		}
	}

	return files
}

// inflate decompresses a raw deflate stream. Partial output is
// returned alongside the error so a truncated entry still yields
// whatever bytes could be recovered.
func inflate(raw []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()
	out, err := io.ReadAll(r)
	if out == nil {
		out = []byte{}
	}
	return out, err
}

// stripRootSegment removes the leading path segment from an archive
// entry name. Uploaded projects arrive wrapped in a single directory,
// so "my-app/src/main.tsx" becomes "src/main.tsx". Entries directly at
// the archive root reduce to "" and are skipped by the caller.
func stripRootSegment(name string) string {
	name = strings.TrimPrefix(name, "/")
	i := strings.Index(name, "/")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}
