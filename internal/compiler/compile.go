package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/packtrack/internal/ir"
	"github.com/roach88/packtrack/internal/item"
)

// Kind names an authoring file type.
type Kind string

const (
	KindMaps      Kind = "maps"
	KindItems     Kind = "items"
	KindLocations Kind = "locations"
	KindLayouts   Kind = "layouts"
)

// Kinds lists the authoring kinds in load order.
func Kinds() []Kind {
	return []Kind{KindMaps, KindItems, KindLocations, KindLayouts}
}

var bom = []byte("\xef\xbb\xbf")

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, bom)
}

// Compiler reads authoring files. It holds one CUE context and is not safe
// for concurrent use.
type Compiler struct {
	ctx    *cue.Context
	schema cue.Value
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger dropped records are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New creates a Compiler with the authoring schema loaded.
func New(opts ...Option) (*Compiler, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile authoring schema: %w", err)
	}

	c := &Compiler{
		ctx:    ctx,
		schema: schema,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// load parses data, unifies it with the schema for kind and checks that the
// result is concrete.
func (c *Compiler) load(kind Kind, data []byte, filename string) (cue.Value, error) {
	v := c.ctx.CompileBytes(StripBOM(data), cue.Filename(filename))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(ErrCodeSyntax, filename, err)
	}

	schema := c.schema.LookupPath(cue.ParsePath(string(kind)))
	if !schema.Exists() {
		return cue.Value{}, &CompileError{
			Code:    ErrCodeUnsupported,
			File:    filename,
			Message: fmt.Sprintf("unknown authoring kind %q", kind),
		}
	}

	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEError(ErrCodeSchema, filename, err)
	}
	return v, nil
}

func (c *Compiler) decode(kind Kind, data []byte, filename string, out any) error {
	v, err := c.load(kind, data, filename)
	if err != nil {
		return err
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return formatCUEError(ErrCodeDecode, filename, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CompileError{Code: ErrCodeDecode, File: filename, Message: err.Error(), Err: err}
	}
	return nil
}

// CompileMaps reads a maps file: a list of Map records.
func (c *Compiler) CompileMaps(data []byte, filename string) ([]ir.Map, error) {
	var maps []ir.Map
	if err := c.decode(KindMaps, data, filename, &maps); err != nil {
		return nil, err
	}
	for i := range maps {
		if maps[i].LocationShape == "" {
			maps[i].LocationShape = ir.ShapeRect
		}
	}
	return maps, nil
}

// CompileItems reads an items file: a list of Item records tagged by "type".
func (c *Compiler) CompileItems(data []byte, filename string) ([]item.Item, error) {
	var items []item.Item
	if err := c.decode(KindItems, data, filename, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// LocationsResult is a compiled locations file.
type LocationsResult struct {
	Locations []ir.Location

	// Dropped lists records removed because an access rule did not parse.
	Dropped []*Diagnostic
}

// CompileLocations reads a locations file: a list of nested Location trees.
// Every access rule is parsed; a location or section with a malformed rule
// is dropped and reported in the result rather than failing the file.
func (c *Compiler) CompileLocations(data []byte, filename string) (*LocationsResult, error) {
	var nested []ir.Location
	if err := c.decode(KindLocations, data, filename, &nested); err != nil {
		return nil, err
	}

	res := &LocationsResult{Locations: make([]ir.Location, 0, len(nested))}
	for i := range nested {
		if loc, ok := c.parseLocation(filename, "", nested[i], &res.Dropped); ok {
			res.Locations = append(res.Locations, loc)
		}
	}
	return res, nil
}

// CompileLayouts reads a layouts file: an object of named layout trees. The
// trees are kept as JSON in file order.
func (c *Compiler) CompileLayouts(data []byte, filename string) ([]ir.Layout, error) {
	v, err := c.load(KindLayouts, data, filename)
	if err != nil {
		return nil, err
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(ErrCodeDecode, filename, err)
	}

	var layouts []ir.Layout
	for iter.Next() {
		raw, err := iter.Value().MarshalJSON()
		if err != nil {
			return nil, formatCUEError(ErrCodeDecode, filename, err)
		}
		layouts = append(layouts, ir.Layout{Name: iter.Label(), Tree: raw})
	}
	return layouts, nil
}
