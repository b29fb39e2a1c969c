// Package hclmodel reads models written in HCL.
//
//	model {
//	  name = "hodgkin_huxley"
//	}
//	input "time" { unit = "ms" }
//	constant "membrane.C" {
//	  value = 1
//	  unit  = "uF/cm^2"
//	}
//	state "membrane.V" {
//	  initial = -75
//	  rate    = -(membrane.i_ion) / membrane.C
//	}
//	variable "membrane.i_ion" { value = pow(membrane.V, 2) }
//
// Expressions use HCL operators and calls. pow(a, b) and quot(a, b) stand
// for the power and floored quotient operators.
package hclmodel

import (
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/formats"
)

// Key is the registry key of the importer.
const Key = "hcl"

// DefaultName names models without a model block.
const DefaultName = "model"

// Importer reads HCL model descriptions.
type Importer struct{}

// Register adds the HCL importer to r.
func Register(r *formats.Registry) error {
	return r.RegisterImporter(Importer{})
}

// Descriptor implements formats.Importer.
func (Importer) Descriptor() core.Descriptor {
	return core.Descriptor{Key: Key, Label: "HCL model description"}
}

// Extensions implements formats.Importer.
func (Importer) Extensions() []string {
	return []string{".hcl"}
}

// Import implements formats.Importer.
func (Importer) Import(r io.Reader) (*core.Model, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading hcl model: %w", err)
	}
	return Parse(src, "model.hcl")
}

// blockSchema lists the attributes each block accepts and which are required.
type blockSchema struct {
	role     core.Role
	labeled  bool
	required []string
	optional []string
}

var schemas = map[string]blockSchema{
	"model":    {optional: []string{"name", "doc"}},
	"input":    {role: core.RoleInput, labeled: true, optional: []string{"unit", "doc"}},
	"constant": {role: core.RoleConstant, labeled: true, required: []string{"value"}, optional: []string{"unit", "doc"}},
	"state":    {role: core.RoleState, labeled: true, required: []string{"initial", "rate"}, optional: []string{"unit", "doc"}},
	"variable": {role: core.RoleVariable, labeled: true, required: []string{"value"}, optional: []string{"unit", "doc"}},
}

// Parse reads a model from src. filename appears in diagnostics only.
func Parse(src []byte, filename string) (*core.Model, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diagError("", diags)
	}
	body := file.Body.(*hclsyntax.Body)
	if attrs := sortedAttributes(body.Attributes); len(attrs) > 0 {
		return nil, &core.MalformedInputError{Format: Key, Path: attrs[0].Name, Line: attrs[0].SrcRange.Start.Line,
			Msg: "top-level attributes are not allowed"}
	}

	m := core.NewModel(DefaultName)
	seenModel := false
	for _, block := range body.Blocks {
		schema, ok := schemas[block.Type]
		if !ok {
			return nil, blockError(block, block.Type, "unknown block type %q", block.Type)
		}
		path := block.Type
		if schema.labeled {
			if len(block.Labels) != 1 {
				return nil, blockError(block, path, "%s block needs exactly one name label", block.Type)
			}
			path += "." + block.Labels[0]
		} else if len(block.Labels) != 0 {
			return nil, blockError(block, path, "%s block takes no labels", block.Type)
		}
		if err := checkAttributes(block, schema, path); err != nil {
			return nil, err
		}

		if block.Type == "model" {
			if seenModel {
				return nil, blockError(block, path, "duplicate model block")
			}
			seenModel = true
			if err := readModel(m, block, path); err != nil {
				return nil, err
			}
			continue
		}

		b, err := readBinding(block, schema, path)
		if err != nil {
			return nil, err
		}
		if err := m.Add(b); err != nil {
			return nil, blockError(block, path, "%v", err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, &core.MalformedInputError{Format: Key, Msg: err.Error()}
	}
	return m, nil
}

func blockError(block *hclsyntax.Block, path, format string, args ...any) error {
	return &core.MalformedInputError{
		Format: Key,
		Path:   path,
		Line:   block.TypeRange.Start.Line,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func sortedAttributes(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SrcRange.Start.Byte < out[j].SrcRange.Start.Byte
	})
	return out
}

func checkAttributes(block *hclsyntax.Block, schema blockSchema, path string) error {
	if len(block.Body.Blocks) > 0 {
		nested := block.Body.Blocks[0]
		return blockError(nested, path+"."+nested.Type, "nested blocks are not allowed")
	}
	allowed := make(map[string]bool)
	for _, name := range append(schema.required, schema.optional...) {
		allowed[name] = true
	}
	for _, attr := range sortedAttributes(block.Body.Attributes) {
		if !allowed[attr.Name] {
			return &core.MalformedInputError{Format: Key, Path: path + "." + attr.Name,
				Line: attr.SrcRange.Start.Line, Msg: fmt.Sprintf("unsupported attribute in %s block", block.Type)}
		}
	}
	for _, name := range schema.required {
		if _, ok := block.Body.Attributes[name]; !ok {
			return blockError(block, path, "missing required attribute %q", name)
		}
	}
	return nil
}

func readModel(m *core.Model, block *hclsyntax.Block, path string) error {
	name, err := stringAttr(block, "name", path)
	if err != nil {
		return err
	}
	if name != "" {
		m.Name = name
	}
	doc, err := stringAttr(block, "doc", path)
	if err != nil {
		return err
	}
	if doc != "" {
		m.Meta["doc"] = doc
	}
	return nil
}

func readBinding(block *hclsyntax.Block, schema blockSchema, path string) (*core.Binding, error) {
	b := &core.Binding{Name: block.Labels[0], Role: schema.role}
	var err error
	if b.Unit, err = stringAttr(block, "unit", path); err != nil {
		return nil, err
	}
	if b.Doc, err = stringAttr(block, "doc", path); err != nil {
		return nil, err
	}

	attrs := block.Body.Attributes
	switch schema.role {
	case core.RoleState:
		if b.Initial, err = convert(attrs["initial"].Expr, path+".initial"); err != nil {
			return nil, err
		}
		b.Expr, err = convert(attrs["rate"].Expr, path+".rate")
	case core.RoleConstant, core.RoleVariable:
		b.Expr, err = convert(attrs["value"].Expr, path+".value")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// stringAttr returns the literal string value of an optional attribute.
func stringAttr(block *hclsyntax.Block, name, path string) (string, error) {
	attr, ok := block.Body.Attributes[name]
	if !ok {
		return "", nil
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return "", diagError(path+"."+name, diags)
	}
	if v.IsNull() || v.Type() != cty.String {
		return "", &core.MalformedInputError{Format: Key, Path: path + "." + name,
			Line: attr.SrcRange.Start.Line, Msg: "must be a string"}
	}
	return v.AsString(), nil
}
