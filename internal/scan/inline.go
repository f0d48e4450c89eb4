package scan

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// InlineSpecTag marks a block comment as carrying an OpenAPI fragment.
const InlineSpecTag = "@openapi"

// Block is one decoded inline spec fragment. Its top-level keys are either
// "paths" (global injection) or HTTP methods (overrides for the current file).
type Block map[string]any

// Paths returns the block's "paths" object, if any.
func (b Block) Paths() (map[string]any, bool) {
	p, ok := b["paths"].(map[string]any)
	return p, ok
}

// Operations returns the override objects for method. Keys match without
// regard to case and are visited in sorted order, so "post" and "POST" in the
// same block both apply, deterministically.
func (b Block) Operations(m HTTPMethod) []map[string]any {
	keys := make([]string, 0, len(b))
	for k := range b {
		if strings.EqualFold(k, string(m)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var ops []map[string]any
	for _, k := range keys {
		if op, ok := b[k].(map[string]any); ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// InlineSpecError reports a tagged comment whose JSON fragment could not be decoded.
type InlineSpecError struct {
	Index int // zero-based position among tagged blocks in the file
	Cause error
}

func (e *InlineSpecError) Error() string {
	return fmt.Sprintf("inline spec block %d: %v", e.Index, e.Cause)
}

func (e *InlineSpecError) Unwrap() error { return e.Cause }

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*(.*?)\*/`)
	commentDecorRe = regexp.MustCompile(`^\s*\*+ ?`)
)

// ExtractInlineSpecs decodes every tagged block comment in text, in source
// order. Malformed blocks are reported in errs and skipped; they never stop
// the remaining blocks from being read.
func ExtractInlineSpecs(text string) (blocks []Block, errs []error) {
	index := 0
	for _, m := range blockCommentRe.FindAllStringSubmatch(text, -1) {
		body := m[1]
		if !strings.Contains(body, InlineSpecTag) {
			continue
		}
		idx := index
		index++

		cleaned := stripCommentDecoration(body)
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			errs = append(errs, &InlineSpecError{Index: idx, Cause: fmt.Errorf("no JSON object after %s tag", InlineSpecTag)})
			continue
		}

		var block Block
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &block); err != nil {
			errs = append(errs, &InlineSpecError{Index: idx, Cause: err})
			continue
		}
		blocks = append(blocks, block)
	}
	return blocks, errs
}

func stripCommentDecoration(body string) string {
	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		lines[i] = commentDecorRe.ReplaceAllString(ln, "")
	}
	return strings.Join(lines, "\n")
}
