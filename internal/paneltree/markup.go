/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package paneltree

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"gocomicpanels/internal/geometry"
	"gocomicpanels/internal/media"
)

// CurrentVersion is the markup version written by Encode and the only one
// Parse accepts.
const CurrentVersion = 1

//go:embed markup.schema.json
var schemaJSON []byte

var schema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("paneltree: bad embedded schema: %v", err))
	}
	schema = s
}

// Document is the serialized form of a page's panel tree.
type Document struct {
	Version int     `yaml:"version"`
	Root    NodeDoc `yaml:"root"`
}

// NodeDoc is the serialized form of a PanelNode. Pointer fields distinguish
// absent values so defaults can be applied.
type NodeDoc struct {
	ID         string       `yaml:"id,omitempty"`
	Size       *float64     `yaml:"size,omitempty"`
	Direction  string       `yaml:"direction,omitempty"`
	Divider    *DividerDoc  `yaml:"divider,omitempty"`
	Padding    *PaddingDoc  `yaml:"padding,omitempty"`
	Visibility *int         `yaml:"visibility,omitempty"`
	Z          int          `yaml:"z,omitempty"`
	Prompt     string       `yaml:"prompt,omitempty"`
	Media      *media.Stack `yaml:"media,omitempty"`
	Children   []NodeDoc    `yaml:"children,omitempty"`
}

type DividerDoc struct {
	Spacing float64 `yaml:"spacing,omitempty"`
	Slant   float64 `yaml:"slant,omitempty"`
}

type PaddingDoc struct {
	TopLeft     geometry.Vector2 `yaml:"topLeft,omitempty"`
	TopRight    geometry.Vector2 `yaml:"topRight,omitempty"`
	BottomLeft  geometry.Vector2 `yaml:"bottomLeft,omitempty"`
	BottomRight geometry.Vector2 `yaml:"bottomRight,omitempty"`
}

// Parse reads YAML (or JSON) markup, validates it and builds the tree.
// All failures wrap ErrInvalidMarkup.
func Parse(data []byte) (*PanelNode, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}
	if generic == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidMarkup)
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidMarkup, strings.Join(msgs, "; "))
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMarkup, err)
	}
	if doc.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidMarkup, doc.Version)
	}
	return Build(doc.Root)
}

// Build turns a node document into a tree, applying defaults and checking the
// structural rules markup validation cannot express.
func Build(doc NodeDoc) (*PanelNode, error) {
	seen := map[NodeID]bool{}
	n, err := build(doc, "root", seen)
	if err != nil {
		return nil, err
	}
	n.RecalculateLengthAndBreadth()
	return n, nil
}

func build(doc NodeDoc, path string, seen map[NodeID]bool) (*PanelNode, error) {
	n := &PanelNode{
		ID:         NodeID(doc.ID),
		RawSize:    1,
		Visibility: Bordered,
		Z:          doc.Z,
		Prompt:     doc.Prompt,
		Media:      doc.Media,
	}
	if n.ID == "" {
		n.ID = NewID()
	}
	if n.Media != nil {
		for _, f := range n.Media.Films {
			if f.Scale == 0 {
				f.Scale = 1
			}
		}
	}
	if seen[n.ID] {
		return nil, fmt.Errorf("%w: %s: duplicate id %q", ErrInvalidMarkup, path, n.ID)
	}
	seen[n.ID] = true

	if doc.Size != nil {
		if *doc.Size <= 0 {
			return nil, fmt.Errorf("%w: %s: size must be positive", ErrInvalidMarkup, path)
		}
		n.RawSize = *doc.Size
	}
	if doc.Visibility != nil {
		v := Visibility(*doc.Visibility)
		if v < Hidden || v > Bordered {
			return nil, fmt.Errorf("%w: %s: visibility %d out of range", ErrInvalidMarkup, path, v)
		}
		n.Visibility = v
	}
	if doc.Divider != nil {
		n.Divider = Divider{Spacing: doc.Divider.Spacing, Slant: doc.Divider.Slant}
	}
	if doc.Padding != nil {
		n.CornerOffsets = geometry.CornerOffsets{
			TopLeft:     doc.Padding.TopLeft,
			TopRight:    doc.Padding.TopRight,
			BottomLeft:  doc.Padding.BottomLeft,
			BottomRight: doc.Padding.BottomRight,
		}
	}

	dir, err := ParseAxis(doc.Direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMarkup, path, err)
	}
	n.Direction = dir
	switch {
	case dir == None && len(doc.Children) > 0:
		return nil, fmt.Errorf("%w: %s: children without direction", ErrInvalidMarkup, path)
	case dir != None && len(doc.Children) == 0:
		return nil, fmt.Errorf("%w: %s: %s container without children", ErrInvalidMarkup, path, dir)
	case dir != None && (doc.Media != nil || doc.Prompt != ""):
		return nil, fmt.Errorf("%w: %s: content on a container", ErrInvalidMarkup, path)
	}
	for i, cd := range doc.Children {
		c, err := build(cd, fmt.Sprintf("%s.children[%d]", path, i), seen)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// ParseAxis maps a markup direction name to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	}
	return None, fmt.Errorf("unknown direction %q", s)
}

// Encode writes the tree in the current markup version.
func Encode(root *PanelNode) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Version: CurrentVersion, Root: ToDoc(root)}); err != nil {
		return nil, fmt.Errorf("encode panel tree: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode panel tree: %w", err)
	}
	return buf.Bytes(), nil
}

// ToDoc converts a tree into its document form.
func ToDoc(n *PanelNode) NodeDoc {
	size := n.RawSize
	vis := int(n.Visibility)
	d := NodeDoc{
		ID:         string(n.ID),
		Size:       &size,
		Visibility: &vis,
		Z:          n.Z,
		Prompt:     n.Prompt,
		Media:      n.Media.Clone(),
	}
	if n.Direction != None {
		d.Direction = n.Direction.String()
	}
	if n.Divider != (Divider{}) {
		d.Divider = &DividerDoc{Spacing: n.Divider.Spacing, Slant: n.Divider.Slant}
	}
	if n.CornerOffsets != (geometry.CornerOffsets{}) {
		o := n.CornerOffsets
		d.Padding = &PaddingDoc{TopLeft: o.TopLeft, TopRight: o.TopRight, BottomLeft: o.BottomLeft, BottomRight: o.BottomRight}
	}
	for _, c := range n.Children {
		d.Children = append(d.Children, ToDoc(c))
	}
	return d
}
