// Package reader opens profiling inputs: local files or stdin, with
// optional gzip/bzip2 decompression and text normalization for CSV.
package reader

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var bom = []byte{0xef, 0xbb, 0xbf}

// UniversalReader wraps an io.Reader to strip a UTF-8 BOM and replace
// carriage returns with newlines, so line-based parsers see one record
// per line regardless of the producing platform.
type UniversalReader struct {
	r       io.Reader
	started bool
}

func (r *UniversalReader) Read(buf []byte) (int, error) {
	n, err := r.r.Read(buf)

	// A BOM is only meaningful at the start of the stream. The same
	// bytes later on are data and must pass through untouched.
	if !r.started {
		r.started = true

		if n >= len(bom) && bytes.HasPrefix(buf[:n], bom) {
			copy(buf, buf[len(bom):n])
			n -= len(bom)
		}
	}

	for i, b := range buf[:n] {
		if b == '\r' {
			buf[i] = '\n'
		}
	}

	return n, err
}

func (r *UniversalReader) Close() error {
	if rc, ok := r.r.(io.Closer); ok {
		return rc.Close()
	}

	return nil
}

func NewUniversalReader(r io.Reader) *UniversalReader {
	return &UniversalReader{r: r}
}

// DetectType inspects a file path's extensions and returns the data
// format and compression type, either of which may be empty.
func DetectType(url string) (format, compression string) {
	_, name := path.Split(url)

	for _, ext := range strings.Split(name, ".")[1:] {
		switch ext {
		case "gz", "gzip":
			compression = "gzip"
		case "bz2", "bzip2":
			compression = "bzip2"
		case "csv":
			format = "csv"
		case "parquet":
			format = "parquet"
		}
	}

	return format, compression
}

func detectCompression(name string) string {
	switch filepath.Ext(name) {
	case ".gzip", ".gz":
		return "gzip"
	case ".bzip2", ".bz2":
		return "bzip2"
	}

	return ""
}

// Reader is an open input stream with decompression and normalization
// applied.
type Reader struct {
	Name        string
	Compression string

	reader io.Reader
	file   *os.File
}

func (r *Reader) Read(buf []byte) (int, error) {
	return r.reader.Read(buf)
}

func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// Open a reader by name with optional compression. If no name is given,
// stdin is used. If no compression is given, it is detected from the
// file extension.
func Open(name, compression string) (*Reader, error) {
	if compression == "" {
		compression = detectCompression(name)
	}

	switch compression {
	case "bzip2", "gzip", "":
	default:
		return nil, fmt.Errorf("unknown compression type %s", compression)
	}

	r := &Reader{
		Name:        name,
		Compression: compression,
	}

	if name == "" {
		r.reader = os.Stdin
	} else {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}

		r.file = file
		r.reader = file
	}

	switch compression {
	case "gzip":
		gr, err := gzip.NewReader(r.reader)
		if err != nil {
			r.Close()
			return nil, err
		}

		r.reader = gr
	case "bzip2":
		r.reader = bzip2.NewReader(r.reader)
	}

	r.reader = NewUniversalReader(r.reader)

	return r, nil
}
