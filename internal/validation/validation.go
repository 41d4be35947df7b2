// Package validation checks user-supplied source ids and import files
// before they reach the file system or the store.
package validation

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
)

// Limits on user input.
const (
	// MaxIDLength is the longest accepted source id.
	MaxIDLength = 128
	// MaxImportSize is the largest importable file (64 MB).
	MaxImportSize = 64 << 20
)

// Validation errors. Each matches errors.ErrInvalidInput.
var (
	ErrInvalidID = verrors.Wrap(verrors.ErrInvalidInput, "invalid source id")
	ErrNotText   = verrors.Wrap(verrors.ErrInvalidInput, "not a text file")
	ErrTooLarge  = verrors.Wrap(verrors.ErrInvalidInput, "file too large")
)

// SourceID checks that id can name a stored source and a <id>.txt file:
// non-empty, at most MaxIDLength bytes, no path separators, no "..", no
// control characters, and no leading hyphen.
func SourceID(id string) error {
	reject := func(msg string) error {
		return &verrors.ValidationError{Field: "source_id", Value: id, Message: msg, Err: ErrInvalidID}
	}

	switch {
	case id == "":
		return reject("cannot be empty")
	case len(id) > MaxIDLength:
		return reject(fmt.Sprintf("longer than %d bytes", MaxIDLength))
	case strings.ContainsAny(id, `/\`):
		return reject("path separator not allowed")
	case strings.Contains(id, ".."):
		return reject(`".." not allowed`)
	case strings.HasPrefix(id, "-"):
		return reject("cannot start with a hyphen")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return reject("control character not allowed")
		}
	}
	return nil
}

// Format is the layout of an import file.
type Format string

const (
	FormatText    Format = "text"    // one line per verse, as downloaded
	FormatZefania Format = "zefania" // Zefania XML
)

// DetectFormat sniffs the first 512 bytes of r. Binary content is rejected;
// an .xml or .zefania name, or content opening with '<', is Zefania.
func DetectFormat(r io.Reader, filename string) (Format, error) {
	head, err := bufio.NewReader(r).Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", verrors.NewIO("read", filename, err)
	}
	if !isLikelyText(head) {
		return "", &verrors.ValidationError{Field: "file", Value: filename, Message: "binary content", Err: ErrNotText}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xml", ".zefania":
		return FormatZefania, nil
	}
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf")), " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return FormatZefania, nil
	}
	return FormatText, nil
}

// ImportFile checks the size of the file at path and detects its format.
func ImportFile(path string) (Format, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", verrors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		return "", &verrors.ValidationError{Field: "file", Value: path, Message: "is a directory", Err: ErrNotText}
	}
	if info.Size() > MaxImportSize {
		return "", &verrors.ValidationError{Field: "file", Value: path,
			Message: fmt.Sprintf("%d bytes exceeds %d", info.Size(), MaxImportSize), Err: ErrTooLarge}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", verrors.NewIO("open", path, err)
	}
	defer f.Close()
	return DetectFormat(f, path)
}

// isLikelyText reports whether buf has no NUL bytes and at least 95% of
// its ASCII bytes are printable or whitespace. UTF-8 multibyte sequences
// count as neutral.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable, control := 0, 0
	for _, b := range buf {
		switch {
		case b >= 0x20 && b <= 0x7e, b == '\t', b == '\n', b == '\r':
			printable++
		case b < 0x20:
			control++
		}
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
