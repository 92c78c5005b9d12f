// Package document reads call bodies written as YAML documents.
//
// A document describes one source file:
//
//	file: src/app.rs
//	code: |
//	  fn app() -> Element { rsx! { ... } }
//	calls:
//	  - line: 3
//	    column: 4
//	    body:
//	      - element: div
//	        attrs:
//	          - {name: class, value: "item {class_name}"}
//	        children:
//	          - text: "hello {name}"
//
// The code field stands in for everything outside the calls; when it
// changes the file cannot be hot reloaded.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/rsxhot/internal/filemap"
	"github.com/livefir/rsxhot/rsx"
)

var validate = validator.New()

// File is a decoded document.
type File struct {
	File  string `yaml:"file,omitempty"`
	Code  string `yaml:"code,omitempty"`
	Calls []Call `yaml:"calls" validate:"dive"`
}

// Call is one template invocation.
type Call struct {
	Line   int    `yaml:"line" validate:"gte=1"`
	Column int    `yaml:"column" validate:"gte=0"`
	Body   []Node `yaml:"body" validate:"dive"`
}

// Node is a body node; exactly one of Element, Text, Component, For, If
// and Expr is set.
type Node struct {
	Element   string  `yaml:"element,omitempty"`
	Text      *string `yaml:"text,omitempty"`
	Component string  `yaml:"component,omitempty"`
	For       string  `yaml:"for,omitempty"`
	If        string  `yaml:"if,omitempty"`
	Expr      string  `yaml:"expr,omitempty"`

	// element and component
	Attrs    []Attr `yaml:"attrs,omitempty"`
	Children []Node `yaml:"children,omitempty" validate:"dive"`

	// for loop
	In   string `yaml:"in,omitempty" validate:"required_with=For"`
	Body []Node `yaml:"body,omitempty" validate:"dive"`

	// if chain
	Then   []Node  `yaml:"then,omitempty" validate:"dive"`
	ElseIf *Node   `yaml:"else_if,omitempty"`
	Else   *[]Node `yaml:"else,omitempty" validate:"omitempty,dive"`
}

// Attr is an attribute or component field. Exactly one of Name, Custom and
// Spread names it; a named attribute carries exactly one value, optionally
// guarded by If.
type Attr struct {
	Name   string `yaml:"name,omitempty"`
	Custom string `yaml:"custom,omitempty"`
	Spread string `yaml:"spread,omitempty"`

	Value     *string  `yaml:"value,omitempty"`
	Int       *int64   `yaml:"int,omitempty"`
	Float     *float64 `yaml:"float,omitempty"`
	Bool      *bool    `yaml:"bool,omitempty"`
	Expr      string   `yaml:"expr,omitempty"`
	Event     string   `yaml:"event,omitempty"`
	Shorthand bool     `yaml:"shorthand,omitempty"`

	If string `yaml:"if,omitempty"`
}

// Read decodes and validates a document.
func Read(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &f, nil
}

// Parse decodes src and builds every call body. It satisfies
// filemap.Parser.
func Parse(path string, src []byte) (*filemap.ParsedFile, error) {
	f, err := Read(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	out := &filemap.ParsedFile{Code: f.Code}
	for i, call := range f.Calls {
		body, err := buildBody(call.Body, fmt.Sprintf("calls[%d].body", i))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out.Calls = append(out.Calls, filemap.Call{
			Line:   call.Line,
			Column: call.Column,
			Body:   rsx.NewCallBody(body),
		})
	}
	return out, nil
}

// Decode reads a document holding a single body: either a list of nodes
// or a full document with exactly one call.
func Decode(r io.Reader) (*rsx.CallBody, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return DecodeBody(data)
}

// DecodeBody is Decode on a byte slice.
func DecodeBody(data []byte) (*rsx.CallBody, error) {
	var nodes []Node
	if err := yaml.Unmarshal(data, &nodes); err == nil {
		if err := validate.Struct(&Call{Line: 1, Body: nodes}); err != nil {
			return nil, fmt.Errorf("invalid body: %w", err)
		}
		body, err := buildBody(nodes, "body")
		if err != nil {
			return nil, err
		}
		return rsx.NewCallBody(body), nil
	}

	f, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(f.Calls) != 1 {
		return nil, fmt.Errorf("expected exactly one call, found %d", len(f.Calls))
	}
	body, err := buildBody(f.Calls[0].Body, "calls[0].body")
	if err != nil {
		return nil, err
	}
	return rsx.NewCallBody(body), nil
}

// ReadFile decodes a single body from path.
func ReadFile(path string) (*rsx.CallBody, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	body, err := DecodeBody(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return body, nil
}
