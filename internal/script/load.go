package script

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE []byte

// Format is a script document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported script extension %q (want .yaml, .yml or .cue)", filepath.Ext(path))
}

// SourceError is a decode failure with a source position when one is known.
type SourceError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *SourceError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// Load reads and compiles the script document at path.
func Load(path string) (*Script, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return parse(path, data, format)
}

// Parse compiles a script document held in memory.
func Parse(data []byte, format Format) (*Script, error) {
	return parse("", data, format)
}

func parse(file string, data []byte, format Format) (*Script, error) {
	var doc scriptDoc
	switch format {
	case FormatYAML:
		if err := decodeYAML(data, &doc); err != nil {
			return nil, &SourceError{File: file, Message: err.Error()}
		}
	case FormatCUE:
		if err := decodeCUE(file, data, &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown script format %q", format)
	}
	if doc.Name == "" && file != "" {
		doc.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return doc.compile()
}

// decodeYAML rejects unknown keys so that typos in documents surface early.
func decodeYAML(data []byte, doc *scriptDoc) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty document")
		}
		return err
	}
	return nil
}

func decodeCUE(file string, data []byte, doc *scriptDoc) error {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile script schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(file))
	if err := v.Err(); err != nil {
		return cueSourceError(file, err)
	}
	v = schema.LookupPath(cue.ParsePath("#Script")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cueSourceError(file, err)
	}

	// JSON export keeps declaration order, which field_updates rely on.
	js, err := v.MarshalJSON()
	if err != nil {
		return cueSourceError(file, err)
	}
	if err := decodeYAML(js, doc); err != nil {
		return &SourceError{File: file, Message: err.Error()}
	}
	return nil
}

// cueSourceError keeps the first CUE error and its position.
func cueSourceError(file string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &SourceError{File: file, Message: err.Error()}
	}
	first := errs[0]
	se := &SourceError{File: file, Message: first.Error()}
	for _, p := range cueerrors.Positions(first) {
		if p.IsValid() && p.Filename() != "schema.cue" {
			fillPos(se, p)
			break
		}
	}
	return se
}

func fillPos(se *SourceError, p token.Pos) {
	if p.Filename() != "" {
		se.File = p.Filename()
	}
	se.Line = p.Line()
	se.Column = p.Column()
}
