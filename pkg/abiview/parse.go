// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package abiview

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/openrepublic/jitabi-go/internal/codecmsgs"
)

// contractABISchema matches shape 1 of spec.md §4.B: the classic
// { version, types[], structs[], ... } contract ABI document.
const contractABISchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version"],
	"properties": {
		"version": {"type": "string"},
		"types": {"type": "array", "items": {"type": "object", "required": ["new_type_name", "type"]}},
		"structs": {"type": "array", "items": {"type": "object", "required": ["name", "fields"]}},
		"variants": {"type": "array", "items": {"type": "object", "required": ["name", "types"]}},
		"actions": {"type": "array"},
		"tables": {"type": "array"},
		"ricardian_clauses": {"type": "array"},
		"error_messages": {"type": "array"},
		"action_results": {"type": "array"},
		"abi_extensions": {"type": "array"}
	}
}`

// streamingABISchema matches shape 2 of spec.md §4.B: same logical
// content, structs listed ahead of types, a tables section but no
// action/ricardian sections.
const streamingABISchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version"],
	"properties": {
		"version": {"type": "string"},
		"structs": {"type": "array", "items": {"type": "object", "required": ["name", "fields"]}},
		"types": {"type": "array", "items": {"type": "object", "required": ["new_type_name", "type"]}},
		"variants": {"type": "array", "items": {"type": "object", "required": ["name", "types"]}},
		"tables": {"type": "array"}
	}
}`

var (
	compiledContractSchema  = mustCompileSchema("contract-abi.json", contractABISchema)
	compiledStreamingSchema = mustCompileSchema("streaming-abi.json", streamingABISchema)
)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader([]byte(schema))); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

// wireType / wireStruct / wireVariant are the JSON-tagged shapes shared by
// both document flavors - the document's own raw declarations, ahead of
// any built-in injection or semantic validation.
type wireType struct {
	NewTypeName string `json:"new_type_name"`
	Type        string `json:"type"`
}

type wireField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireStruct struct {
	Name   string      `json:"name"`
	Base   string      `json:"base"`
	Fields []wireField `json:"fields"`
}

type wireVariant struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

type contractABIDoc struct {
	Version  string        `json:"version"`
	Types    []wireType    `json:"types"`
	Structs  []wireStruct  `json:"structs"`
	Variants []wireVariant `json:"variants"`
}

type streamingABIDoc struct {
	Version  string        `json:"version"`
	Structs  []wireStruct  `json:"structs"`
	Types    []wireType    `json:"types"`
	Variants []wireVariant `json:"variants"`
}

// ParseABI accepts a UTF-8 JSON document in either of the two shapes
// named in spec.md §4.B, runs it through the matching structural schema,
// and converts it into a shape-independent RawABI. Unknown top-level
// keys are ignored; missing optional sections default to empty.
func ParseABI(ctx context.Context, data []byte) (*RawABI, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
	}
	if _, hasVersion := probe["version"]; !hasVersion {
		return nil, i18n.NewError(ctx, codecmsgs.MsgUnknownABIShape, "missing 'version'")
	}

	shape, err := detectShape(ctx, data)
	if err != nil {
		return nil, err
	}

	var schema *jsonschema.Schema
	switch shape {
	case shapeContract:
		schema = compiledContractSchema
	case shapeStreaming:
		schema = compiledStreamingSchema
	}
	var validationDoc interface{}
	if err := json.Unmarshal(data, &validationDoc); err != nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
	}
	if err := schema.Validate(validationDoc); err != nil {
		return nil, i18n.NewError(ctx, codecmsgs.MsgSchemaValidation, err)
	}

	switch shape {
	case shapeContract:
		var doc contractABIDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
		}
		return rawFromWire(doc.Types, doc.Structs, doc.Variants), nil
	default:
		var doc streamingABIDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
		}
		return rawFromWire(doc.Types, doc.Structs, doc.Variants), nil
	}
}

type abiShape int

const (
	shapeContract abiShape = iota
	shapeStreaming
)

// detectShape probes which of "types"/"structs" appears first among the
// document's top-level keys, per spec.md §4.B's "structs listed before
// types" distinction between the two shapes. Object key order is not
// normally significant in JSON, but both reference producers emit these
// documents with a stable field order, so a raw-token scan is a reliable
// and I/O-free way to tell them apart without a bespoke heuristic.
func detectShape(ctx context.Context, data []byte) (abiShape, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return 0, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, i18n.NewError(ctx, codecmsgs.MsgUnknownABIShape, "top level is not an object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
		}
		key, _ := keyTok.(string)
		switch key {
		case "structs":
			// Consume and discard the value so the decoder can continue,
			// but it was the first shape-distinguishing key to appear.
			var v json.RawMessage
			_ = dec.Decode(&v)
			return shapeStreaming, nil
		case "types":
			var v json.RawMessage
			_ = dec.Decode(&v)
			return shapeContract, nil
		default:
			var v json.RawMessage
			if err := dec.Decode(&v); err != nil {
				return 0, i18n.NewError(ctx, codecmsgs.MsgMalformedABI, err)
			}
		}
	}
	// Neither key present: an ABI with no structs/types at all is valid
	// (just built-ins); treat it as the simpler streaming shape.
	return shapeStreaming, nil
}

func rawFromWire(types []wireType, structs []wireStruct, variants []wireVariant) *RawABI {
	raw := &RawABI{
		Aliases:  make([]AliasDef, 0, len(types)),
		Structs:  make([]StructDef, 0, len(structs)),
		Variants: make([]VariantDef, 0, len(variants)),
	}
	for _, t := range types {
		raw.Aliases = append(raw.Aliases, AliasDef{NewTypeName: t.NewTypeName, Target: t.Type})
	}
	for _, s := range structs {
		fields := make([]FieldDef, 0, len(s.Fields))
		for _, f := range s.Fields {
			fields = append(fields, FieldDef{Name: f.Name, TypeExpr: f.Type})
		}
		raw.Structs = append(raw.Structs, StructDef{Name: s.Name, Base: s.Base, Fields: fields})
	}
	for _, v := range variants {
		raw.Variants = append(raw.Variants, VariantDef{Name: v.Name, Members: append([]string{}, v.Types...)})
	}
	return raw
}
