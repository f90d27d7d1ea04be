package region

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/pierrec/lz4/v4"
)

// CompressionScheme identifies how a single chunk's NBT payload is
// compressed in the anvil format.
type CompressionScheme byte

const (
	SchemeGZip     CompressionScheme = 1
	SchemeZlib     CompressionScheme = 2
	SchemeNone     CompressionScheme = 3
	SchemeLZ4      CompressionScheme = 4
	SchemeExternal CompressionScheme = 127
)

func compressChunk(scheme CompressionScheme, raw []byte) ([]byte, error) {
	switch scheme {
	case SchemeGZip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, newError(KindCompression, "gzip write", err)
		}
		if err := w.Close(); err != nil {
			return nil, newError(KindCompression, "gzip close", err)
		}
		return buf.Bytes(), nil
	case SchemeZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, newError(KindCompression, "zlib write", err)
		}
		if err := w.Close(); err != nil {
			return nil, newError(KindCompression, "zlib close", err)
		}
		return buf.Bytes(), nil
	case SchemeNone:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case SchemeLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, newError(KindCompression, "lz4 write", err)
		}
		if err := w.Close(); err != nil {
			return nil, newError(KindCompression, "lz4 close", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, newError(KindCompression, "unsupported write scheme", nil)
	}
}

func decompressChunk(scheme CompressionScheme, data []byte, maxBytes int) ([]byte, error) {
	switch scheme {
	case SchemeGZip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, newError(KindCompression, "gzip open", err)
		}
		defer r.Close()
		return readLimited(r, maxBytes)
	case SchemeZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, newError(KindCompression, "zlib open", err)
		}
		defer r.Close()
		return readLimited(r, maxBytes)
	case SchemeNone:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case SchemeLZ4:
		r := lz4.NewReader(bytes.NewReader(data))
		return readLimited(r, maxBytes)
	case SchemeExternal:
		return nil, newError(KindCompression, "external chunk storage is not supported", nil)
	default:
		return nil, newError(KindCompression, "unknown compression scheme", nil)
	}
}

func readLimited(r io.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = 200 << 20 // 200 MiB safety valve against hostile length fields.
	}
	lr := io.LimitReader(r, int64(maxBytes)+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, newError(KindCompression, "decompress", err)
	}
	if len(data) > maxBytes {
		return nil, newError(KindCompression, "decompressed payload exceeds configured cap", nil)
	}
	return data, nil
}
