package template

import (
	"regexp"
	"strings"
)

type dirKind int

const (
	dirFor dirKind = iota
	dirEndFor
	dirIf
	dirElif
	dirElse
	dirEndIf
)

var dirNames = [...]string{"for", "endfor", "if", "elif", "else", "endif"}

func (k dirKind) String() string { return dirNames[k] }

type directive struct {
	kind dirKind
	pos  Pos
	name string // loop variable
	arg  string // condition or iterable
}

var (
	loopHead = regexp.MustCompile(`^for\s+([A-Za-z_]\w*)\s+in\s+(.+?):?$`)
	condHead = regexp.MustCompile(`^(?:if|elif)\s+(.+?):?$`)
)

// Parse parses template source. name is reported in error positions.
func Parse(src, name string) (*Template, error) {
	items, err := scan(src, name)
	if err != nil {
		return nil, err
	}
	p := &parser{items: items}
	body, stop, err := p.block()
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, unbalanced(stop.pos, "%s without an open block", stop.kind)
	}
	return &Template{Name: name, Body: body}, nil
}

type parser struct {
	items []item
	next  int
}

// block collects nodes until the items run out or a directive that continues
// or closes the enclosing block, which is handed back to the caller.
func (p *parser) block() ([]Node, *directive, error) {
	var nodes []Node
	for p.next < len(p.items) {
		it := p.items[p.next]
		p.next++

		switch it.kind {
		case itemText:
			nodes = append(nodes, &Text{At: it.pos, Value: it.val})
		case itemExpr:
			if it.val == "" {
				return nil, nil, errorf(PhaseParse, it.pos, "empty expression")
			}
			nodes = append(nodes, &Expr{At: it.pos, Src: it.val})
		case itemDirective:
			d, err := parseDirective(it)
			if err != nil {
				return nil, nil, err
			}
			var n Node
			switch d.kind {
			case dirFor:
				n, err = p.loop(d)
			case dirIf:
				n, err = p.cond(d)
			default:
				return nodes, d, nil
			}
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil, nil
}

func (p *parser) loop(head *directive) (*Loop, error) {
	body, stop, err := p.block()
	if err != nil {
		return nil, err
	}
	if stop == nil {
		return nil, unbalanced(head.pos, "for without endfor")
	}
	if stop.kind != dirEndFor {
		return nil, unbalanced(stop.pos, "%s inside for block", stop.kind)
	}
	return &Loop{At: head.pos, Var: head.name, Iter: head.arg, Body: body}, nil
}

func (p *parser) cond(head *directive) (*Cond, error) {
	c := &Cond{At: head.pos}
	arm := head // nil once the else arm is open
	for {
		body, stop, err := p.block()
		if err != nil {
			return nil, err
		}
		if stop == nil {
			return nil, unbalanced(head.pos, "if without endif")
		}
		if arm != nil {
			c.Arms = append(c.Arms, Arm{At: arm.pos, Test: arm.arg, Body: body})
		} else {
			c.Else = body
			if c.Else == nil {
				c.Else = []Node{}
			}
		}

		switch stop.kind {
		case dirEndIf:
			return c, nil
		case dirElif:
			if arm == nil {
				return nil, errorf(PhaseParse, stop.pos, "elif after else")
			}
			arm = stop
		case dirElse:
			if arm == nil {
				return nil, errorf(PhaseParse, stop.pos, "duplicate else")
			}
			arm = nil
		default:
			return nil, unbalanced(stop.pos, "%s inside if block", stop.kind)
		}
	}
}

func parseDirective(it item) (*directive, error) {
	src := it.val
	kw := src
	if i := strings.IndexAny(src, " \t:"); i >= 0 {
		kw = src[:i]
	}

	d := &directive{pos: it.pos}
	switch kw {
	case "for":
		m := loopHead.FindStringSubmatch(src)
		if m == nil {
			return nil, errorf(PhaseParse, it.pos, "malformed for directive %q", src)
		}
		d.kind, d.name, d.arg = dirFor, m[1], strings.TrimSpace(m[2])
	case "if", "elif":
		m := condHead.FindStringSubmatch(src)
		if m == nil {
			return nil, errorf(PhaseParse, it.pos, "%s needs a condition", kw)
		}
		d.kind, d.arg = dirIf, strings.TrimSpace(m[1])
		if kw == "elif" {
			d.kind = dirElif
		}
	case "else":
		if strings.TrimSuffix(src, ":") != "else" {
			return nil, errorf(PhaseParse, it.pos, "unexpected text after else: %q", src)
		}
		d.kind = dirElse
	case "endfor", "endif":
		if src != kw {
			return nil, errorf(PhaseParse, it.pos, "unexpected text after %s: %q", kw, src)
		}
		d.kind = dirEndFor
		if kw == "endif" {
			d.kind = dirEndIf
		}
	default:
		return nil, errorf(PhaseParse, it.pos, "unknown directive %q", src)
	}
	return d, nil
}
