package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PrereqOperator joins subclauses of a compound prerequisite.
type PrereqOperator string

const (
	PrereqAnd PrereqOperator = "and"
	PrereqOr  PrereqOperator = "or"
)

// PrereqClause is either a single course requirement or an and/or group of
// further clauses. The catalog feed encodes these as nested heterogeneous
// arrays; decoding them into a closed set of types rules out malformed
// operator tags at the boundary.
type PrereqClause interface {
	prereqClause()
}

// PrereqCourse is a leaf clause: one course, optionally with a minimum grade.
type PrereqCourse struct {
	ID    string `json:"id"`
	Grade string `json:"grade,omitempty"`
}

// PrereqGroup is a compound clause joining two or more subclauses.
type PrereqGroup struct {
	Op      PrereqOperator
	Clauses []PrereqClause
}

func (PrereqCourse) prereqClause() {}
func (PrereqGroup) prereqClause()  {}

// RenderPrereq serializes a clause tree into the human-readable form shown on
// course detail pages. The openParen and closeParen flags wrap the first and
// last elements of an enclosing "and" group to keep mixed and/or nesting
// readable; "or" groups never add parentheses of their own, their wrapping is
// decided one level up.
func RenderPrereq(clause PrereqClause, openParen, closeParen bool) string {
	switch c := clause.(type) {
	case PrereqCourse:
		out := c.ID
		if openParen {
			out = "(" + out
		}
		if closeParen {
			out += ")"
		}
		return out
	case PrereqGroup:
		parts := make([]string, len(c.Clauses))
		for i, sub := range c.Clauses {
			switch c.Op {
			case PrereqAnd:
				parts[i] = RenderPrereq(sub, openParen && i == 0, closeParen && i == len(c.Clauses)-1)
			default:
				parts[i] = RenderPrereq(sub, false, false)
			}
		}
		return strings.Join(parts, " "+string(c.Op)+" ")
	default:
		return ""
	}
}

// DecodePrereqs parses the catalog's nested-array encoding, e.g.
// ["and", {"id": "CS 1331"}, ["or", {"id": "MATH 1551"}, {"id": "MATH 1501"}]].
// Empty input yields a nil clause (no prerequisites).
func DecodePrereqs(raw []byte) (PrereqClause, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "[]" {
		return nil, nil
	}
	var node json.RawMessage = raw
	return decodePrereqNode(node)
}

func decodePrereqNode(node json.RawMessage) (PrereqClause, error) {
	trimmed := strings.TrimSpace(string(node))
	if strings.HasPrefix(trimmed, "{") {
		var course PrereqCourse
		if err := json.Unmarshal(node, &course); err != nil {
			return nil, fmt.Errorf("decode prereq course: %w", err)
		}
		if course.ID == "" {
			return nil, fmt.Errorf("prereq course missing id")
		}
		return course, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(node, &items); err != nil {
		return nil, fmt.Errorf("decode prereq group: %w", err)
	}
	if len(items) < 2 {
		return nil, fmt.Errorf("prereq group needs an operator and at least one clause")
	}

	var op string
	if err := json.Unmarshal(items[0], &op); err != nil {
		return nil, fmt.Errorf("decode prereq operator: %w", err)
	}
	operator := PrereqOperator(strings.ToLower(op))
	if operator != PrereqAnd && operator != PrereqOr {
		return nil, fmt.Errorf("unknown prereq operator %q", op)
	}

	group := PrereqGroup{Op: operator, Clauses: make([]PrereqClause, 0, len(items)-1)}
	for _, item := range items[1:] {
		sub, err := decodePrereqNode(item)
		if err != nil {
			return nil, err
		}
		group.Clauses = append(group.Clauses, sub)
	}
	return group, nil
}

// EncodePrereqs is the storage-side inverse of DecodePrereqs.
func EncodePrereqs(clause PrereqClause) ([]byte, error) {
	if clause == nil {
		return []byte("null"), nil
	}
	switch c := clause.(type) {
	case PrereqCourse:
		return json.Marshal(c)
	case PrereqGroup:
		items := make([]interface{}, 0, len(c.Clauses)+1)
		items = append(items, string(c.Op))
		for _, sub := range c.Clauses {
			encoded, err := EncodePrereqs(sub)
			if err != nil {
				return nil, err
			}
			items = append(items, json.RawMessage(encoded))
		}
		return json.Marshal(items)
	default:
		return nil, fmt.Errorf("unknown prereq clause type %T", clause)
	}
}
