package scan

import (
	"regexp"
	"strings"
)

// Body and query inference are text heuristics. They can report fields that a
// handler never reads and miss validation written in other idioms; results are
// hints for documentation only.

// BodyField is a request body property discovered in route source.
type BodyField struct {
	Name     string
	Required bool
}

// BodyHint is the inferred shape of a JSON request body.
type BodyHint struct {
	Fields []BodyField
}

// Required returns the names of required fields in discovery order.
func (h *BodyHint) Required() []string {
	if h == nil {
		return nil
	}
	var out []string
	for _, f := range h.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

var (
	jsonBodyReadRe    = regexp.MustCompile(`\b[A-Za-z_$][\w$]*\.json\(\s*\)`)
	bodyDestructureRe = regexp.MustCompile(`(?:const|let|var)\s*\{([^}]*)\}\s*=\s*body\b`)
	bodyAccessorRe    = regexp.MustCompile(`(?:const|let|var)\s+[A-Za-z_$][\w$]*\s*=\s*body\.([A-Za-z_$][\w$]*)`)
	identifierRe      = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	queryAccessorRe   = regexp.MustCompile("searchParams\\.get\\(\\s*['\"`]([^'\"`]+)['\"`]\\s*\\)")
)

// InferBody looks for fields read off a parsed request body. It returns nil
// unless the text reads a JSON body and at least one field is found.
func InferBody(text string) *BodyHint {
	if !jsonBodyReadRe.MatchString(text) {
		return nil
	}

	var names []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if !identifierRe.MatchString(name) {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, m := range bodyDestructureRe.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			add(destructuredKey(part))
		}
	}
	for _, m := range bodyAccessorRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	if len(names) == 0 {
		return nil
	}

	hint := &BodyHint{Fields: make([]BodyField, 0, len(names))}
	for _, name := range names {
		hint.Fields = append(hint.Fields, BodyField{Name: name, Required: hasNegationGuard(text, name)})
	}
	return hint
}

// destructuredKey returns the property name of one destructuring element:
// "a", "a: alias" and "a = 1" all yield "a".
func destructuredKey(part string) string {
	part = strings.TrimSpace(part)
	if i := strings.IndexAny(part, ":="); i >= 0 {
		part = part[:i]
	}
	return strings.TrimSpace(part)
}

// hasNegationGuard reports whether text contains "!name" as a standalone
// identifier, which also covers "if (!name".
func hasNegationGuard(text, name string) bool {
	re := regexp.MustCompile(`!` + regexp.QuoteMeta(name) + `(?:[^\w$]|$)`)
	return re.MatchString(text)
}

// InferQuery returns the distinct literal names passed to searchParams.get,
// in order of first appearance.
func InferQuery(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, m := range queryAccessorRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
