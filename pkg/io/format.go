package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
)

// Format identifies a document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML}

// ParseFormat converts a format name to a Format. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidFormat, "unknown document format %q (must be json, yaml or toml)", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", apperr.New(apperr.ErrCodeInvalidFormat, "cannot infer document format of %s (no extension)", path)
	}
	return ParseFormat(ext)
}

// FormatFromContentType maps an HTTP media type to a Format. Parameters such
// as charset are ignored; an empty content type means JSON.
func FormatFromContentType(ct string) (Format, error) {
	mt, _, _ := strings.Cut(ct, ";")
	switch strings.ToLower(strings.TrimSpace(mt)) {
	case "", "application/json":
		return FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return FormatYAML, nil
	case "application/toml":
		return FormatTOML, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidFormat, "unsupported content type %q", ct)
}

// ReadDocument decodes a document in format f from r.
//
// Only the encoding is checked here; call [Document.Resolve] to validate the
// contents. ReadDocument does not close r.
func ReadDocument(r io.Reader, f Format) (*Document, error) {
	var doc Document
	var err error
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	case FormatTOML:
		var md toml.MetaData
		md, err = toml.NewDecoder(r).Decode(&doc)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown field %q", undecoded[0].String())
			}
		}
	default:
		return nil, apperr.New(apperr.ErrCodeInvalidFormat, "unknown document format %q", f)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "decode %s", f)
	}
	return &doc, nil
}

// ImportDocument reads the document at path, inferring the format from the
// file extension.
func ImportDocument(path string) (*Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return ReadDocument(file, f)
}

// WriteDocument encodes doc in format f and writes it to w. Documents
// written here can be read back with [ReadDocument].
func WriteDocument(w io.Writer, doc *Document, f Format) error {
	var err error
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(doc)
	default:
		return apperr.New(apperr.ErrCodeInvalidFormat, "unknown document format %q", f)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// ExportDocument writes doc to path in the format given by its extension.
func ExportDocument(doc *Document, path string) error {
	if err := apperr.ValidatePath(path); err != nil {
		return err
	}
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc, f); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Canonical returns the compact JSON encoding of doc. Member maps are
// encoded with sorted keys, so equal documents produce equal bytes
// regardless of their source format.
func Canonical(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode canonical document: %w", err)
	}
	return data, nil
}
