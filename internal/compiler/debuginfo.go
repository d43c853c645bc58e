package compiler

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SourceMapEntry ties one instruction to the node it was emitted for.
type SourceMapEntry struct {
	Offset int    `cbor:"1,keyasint"`
	Unit   string `cbor:"2,keyasint"`
	Line   int    `cbor:"3,keyasint"`
	Column int    `cbor:"4,keyasint"`
	Kind   string `cbor:"5,keyasint"`
}

// sourceMap lists the instructions that carry a source node, in address
// order. Call it after patchJumps.
func (sb *ScriptBuilder) sourceMap() []SourceMapEntry {
	var entries []SourceMapEntry
	for _, in := range sb.code {
		if in.node == nil {
			continue
		}
		pos := in.node.Pos()
		entries = append(entries, SourceMapEntry{
			Offset: in.offset,
			Unit:   sb.units[in.unit].Name,
			Line:   pos.Line,
			Column: pos.Column,
			Kind:   in.node.Kind().String(),
		})
	}
	return entries
}

var debugEncMode cbor.EncMode

func init() {
	var err error
	debugEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// EncodeSourceMap encodes entries as canonical CBOR, so equal maps always
// encode to equal bytes.
func EncodeSourceMap(entries []SourceMapEntry) ([]byte, error) {
	if entries == nil {
		entries = []SourceMapEntry{}
	}
	data, err := debugEncMode.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding source map: %w", err)
	}
	return data, nil
}

// DecodeSourceMap is the inverse of EncodeSourceMap.
func DecodeSourceMap(data []byte) ([]SourceMapEntry, error) {
	var entries []SourceMapEntry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding source map: %w", err)
	}
	return entries, nil
}
