// Package drugparser reads the drug catalog source file into catalog records.
package drugparser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readCatalogFile returns a UTF-8 reader over the catalog file.
// Exports of the catalog come either in UTF-8 or in ISO-8859-1.
func readCatalogFile(path string) (io.Reader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Drop the UTF-8 BOM spreadsheet tools like to add, it would end up in the first header
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	if utf8.Valid(raw) {
		return bytes.NewReader(raw), nil
	}

	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)), nil
}
