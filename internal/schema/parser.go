package schema

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

type blockKind int

const (
	noBlock blockKind = iota
	modelBlock
	enumBlock
	otherBlock // datasource, generator, type, view
)

var (
	blockOpenRe = regexp.MustCompile(`^(model|enum|datasource|generator|type|view)\s+([A-Za-z_]\w*)\s*(\{\s*(\})?)?$`)
	identRe     = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// ParseFile reads and parses the schema file at path.
func ParseFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(string(data))
}

// Parse tokenizes schema text one line at a time. Model blocks become Models,
// enum blocks become Enums, and other top-level blocks are skipped. A stray
// line outside any block is recorded in Set.Warnings and does not discard
// the blocks around it.
func Parse(text string) (*Set, error) {
	set := &Set{Models: map[string]*Model{}, Enums: map[string]*Enum{}}

	kind := noBlock
	var model *Model
	var enum *Enum
	openedAt := 0
	var header []string // block keyword and name waiting for a "{" line
	headerLine := 0

	open := func(keyword, name string, lineNo int) error {
		openedAt = lineNo
		switch keyword {
		case "model":
			if _, dup := set.Models[name]; dup {
				return &ParseError{Line: lineNo, Message: fmt.Sprintf("duplicate model %s", name)}
			}
			kind = modelBlock
			model = &Model{Name: name, Properties: map[string]map[string]any{}}
		case "enum":
			kind = enumBlock
			enum = &Enum{Name: name}
		default:
			kind = otherBlock
		}
		return nil
	}
	closeBlock := func() {
		switch kind {
		case modelBlock:
			set.Models[model.Name] = model
		case enumBlock:
			set.Enums[enum.Name] = enum
		}
		kind, model, enum = noBlock, nil, nil
	}
	stray := func(lineNo int, line string) {
		set.Warnings = append(set.Warnings, &ParseError{Line: lineNo, Message: fmt.Sprintf("unexpected %q outside a block", line)})
	}

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := stripLineComment(raw)
		if line == "" {
			continue
		}

		if kind == noBlock {
			if header != nil {
				h := header
				header = nil
				if line == "{" {
					if err := open(h[0], h[1], headerLine); err != nil {
						return nil, err
					}
					continue
				}
				stray(headerLine, h[0]+" "+h[1])
			}
			m := blockOpenRe.FindStringSubmatch(line)
			if m == nil {
				stray(lineNo, line)
				continue
			}
			if m[3] == "" {
				header, headerLine = []string{m[1], m[2]}, lineNo
				continue
			}
			if err := open(m[1], m[2], lineNo); err != nil {
				return nil, err
			}
			if m[4] != "" {
				closeBlock()
			}
			continue
		}

		if line == "}" {
			closeBlock()
			continue
		}

		switch kind {
		case modelBlock:
			if err := model.addField(line); err != nil {
				return nil, &ParseError{Line: lineNo, Message: err.Error()}
			}
		case enumBlock:
			if strings.HasPrefix(line, "@@") {
				continue
			}
			value := strings.Fields(line)[0]
			enum.Values = append(enum.Values, value)
		}
	}

	if header != nil {
		stray(headerLine, header[0]+" "+header[1])
	}
	if kind != noBlock {
		return nil, &ParseError{Line: openedAt, Message: "block is never closed"}
	}
	return set, nil
}

// addField parses one "name Type[?][] @attr..." line.
func (m *Model) addField(line string) error {
	if strings.HasPrefix(line, "@@") {
		return nil
	}
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return fmt.Errorf("field %q has no type", line)
	}
	name, typeTok := tokens[0], tokens[1]
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid field name %q", name)
	}

	optional := strings.HasSuffix(typeTok, "?")
	base := strings.TrimSuffix(typeTok, "?")
	array := strings.HasSuffix(base, "[]")
	base = strings.TrimSuffix(base, "[]")

	attrs := ""
	if at := strings.Index(line, "@"); at >= 0 {
		attrs = line[at:]
	}

	m.Properties[name] = fieldSchema(base, array)
	if isRequired(optional, attrs) {
		m.Required = append(m.Required, name)
	}
	return nil
}

// stripLineComment drops "//" comments and surrounding whitespace.
func stripLineComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
