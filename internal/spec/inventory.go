package spec

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/medflow/medflow-openapi/internal/scan"
)

// InventoryOption configures how an Inventory is built from a document.
type InventoryOption func(*inventoryConfig)

type inventoryConfig struct {
	methods map[scan.HTTPMethod]struct{}
	pathRes []*regexp.Regexp
	tags    map[string]struct{}
}

// WithMethods keeps only endpoints using one of the provided HTTP methods.
func WithMethods(methods []scan.HTTPMethod) InventoryOption {
	return func(c *inventoryConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[scan.HTTPMethod]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[scan.HTTPMethod(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only endpoints whose path matches at least one of
// the provided regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) InventoryOption {
	return func(c *inventoryConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithTags keeps only endpoints carrying at least one of the given tags.
func WithTags(tags []string) InventoryOption {
	return func(c *inventoryConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.tags == nil {
				c.tags = map[string]struct{}{}
			}
			c.tags[t] = struct{}{}
		}
	}
}

// BuildInventory flattens a loaded document into sorted endpoints.
func BuildInventory(doc *openapi3.T, opts ...InventoryOption) (*Inventory, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &inventoryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	inv := &Inventory{}
	if doc.Info != nil {
		inv.Title = strings.TrimSpace(doc.Info.Title)
		inv.Version = strings.TrimSpace(doc.Info.Version)
	}
	for _, s := range doc.Servers {
		if s != nil {
			inv.Servers = append(inv.Servers, s.URL)
		}
	}
	if doc.Components != nil && doc.Components.Schemas != nil {
		for name := range doc.Components.Schemas {
			inv.Schemas = append(inv.Schemas, name)
		}
		sort.Strings(inv.Schemas)
	}

	pathKeys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	for _, p := range pathKeys {
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		ops := []struct {
			m scan.HTTPMethod
			o *openapi3.Operation
		}{
			{scan.GET, item.Get},
			{scan.POST, item.Post},
			{scan.PUT, item.Put},
			{scan.PATCH, item.Patch},
			{scan.DELETE, item.Delete},
			{scan.OPTIONS, item.Options},
		}
		for _, pair := range ops {
			if pair.o == nil || !cfg.allowMethod(pair.m) {
				continue
			}
			tags := make([]string, 0, len(pair.o.Tags))
			for _, t := range pair.o.Tags {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			if !cfg.allowTags(tags) {
				continue
			}
			inv.Endpoints = append(inv.Endpoints, EndpointModel{
				ID:          string(pair.m) + " " + p,
				Method:      pair.m,
				Path:        p,
				OperationID: pair.o.OperationID,
				Summary:     strings.TrimSpace(pair.o.Summary),
				Tags:        tags,
				Parameters:  toParameterModels(item.Parameters, pair.o.Parameters),
				HasBody:     pair.o.RequestBody != nil,
				Responses:   toResponseModels(pair.o.Responses),
			})
		}
	}
	inv.Tags = collectSortedTags(inv.Endpoints)
	return inv, nil
}

func (c *inventoryConfig) allowMethod(m scan.HTTPMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *inventoryConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *inventoryConfig) allowTags(tags []string) bool {
	if len(c.tags) == 0 {
		return true
	}
	for _, t := range tags {
		if _, ok := c.tags[t]; ok {
			return true
		}
	}
	return false
}

// toParameterModels merges path-level and operation-level parameters, the
// latter taking precedence, sorted by location then name.
func toParameterModels(base, own openapi3.Parameters) []ParameterModel {
	merged := map[string]ParameterModel{}
	for _, list := range []openapi3.Parameters{base, own} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			merged[p.In+":"+p.Name] = ParameterModel{Name: p.Name, In: p.In, Required: p.Required}
		}
	}
	out := make([]ParameterModel, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].In == out[j].In {
			return out[i].Name < out[j].Name
		}
		return out[i].In < out[j].In
	})
	return out
}

func toResponseModels(responses openapi3.Responses) []ResponseModel {
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]ResponseModel, 0, len(codes))
	for _, code := range codes {
		ref := responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		rm := ResponseModel{Status: code}
		if ref.Value.Description != nil {
			rm.Description = *ref.Value.Description
		}
		if mt := ref.Value.Content.Get(jsonMime); mt != nil && mt.Schema != nil {
			rm.SchemaRef = schemaRefName(mt.Schema)
		}
		out = append(out, rm)
	}
	return out
}

func schemaRefName(s *openapi3.SchemaRef) string {
	if s.Ref != "" {
		return s.Ref
	}
	if s.Value != nil && s.Value.Items != nil && s.Value.Items.Ref != "" {
		return s.Value.Items.Ref + "[]"
	}
	return ""
}

func collectSortedTags(endpoints []EndpointModel) []string {
	set := make(map[string]struct{})
	for _, ep := range endpoints {
		for _, t := range ep.Tags {
			set[t] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
