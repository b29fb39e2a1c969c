package sbml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
)

// element is one node of the parsed document.
type element struct {
	name     string
	attrs    map[string]string
	children []*element
	// segments holds the character data between child elements; a leaf
	// has exactly one segment.
	segments []string
	path     string
	line     int
}

func (e *element) attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *element) text() string {
	return strings.TrimSpace(strings.Join(e.segments, ""))
}

// child returns the first child called name.
func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// all returns the children of the list child listName that are called name.
func (e *element) all(listName, name string) []*element {
	list := e.child(listName)
	if list == nil {
		return nil
	}
	var out []*element
	for _, c := range list.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (e *element) errorf(format string, args ...any) error {
	return &core.MalformedInputError{Format: Key, Path: e.path, Line: e.line, Msg: fmt.Sprintf(format, args...)}
}

// parseTree reads the whole document. Element paths index repeated
// siblings from 1, e.g. /sbml/model/listOfRules/assignmentRule[2].
func parseTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	var root *element
	var stack []*element
	var counts []map[string]int

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			path := ""
			if len(stack) > 0 {
				path = stack[len(stack)-1].path
			}
			return nil, &core.MalformedInputError{Format: Key, Path: path, Line: line, Msg: err.Error()}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			el := &element{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr)), line: line}
			for _, a := range t.Attr {
				el.attrs[a.Name.Local] = a.Value
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, el.errorf("multiple root elements")
				}
				el.path = "/" + el.name
				root = el
			} else {
				parent := stack[len(stack)-1]
				siblings := counts[len(counts)-1]
				siblings[el.name]++
				el.path = parent.path + "/" + el.name
				if n := siblings[el.name]; n > 1 {
					el.path += "[" + strconv.Itoa(n) + "]"
				}
				parent.children = append(parent.children, el)
				parent.segments = append(parent.segments, "")
			}
			el.segments = []string{""}
			stack = append(stack, el)
			counts = append(counts, make(map[string]int))

		case xml.EndElement:
			stack = stack[:len(stack)-1]
			counts = counts[:len(counts)-1]

		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.segments[len(cur.segments)-1] += string(t)
			}
		}
	}

	if root == nil {
		return nil, &core.MalformedInputError{Format: Key, Msg: "empty document"}
	}
	return root, nil
}
