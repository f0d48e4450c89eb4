package scan

import (
	"regexp"
	"sort"
	"strings"
)

// HTTPMethod is a lower-cased HTTP verb as used for OpenAPI operation keys.
type HTTPMethod string

const (
	GET     HTTPMethod = "get"
	POST    HTTPMethod = "post"
	PUT     HTTPMethod = "put"
	PATCH   HTTPMethod = "patch"
	DELETE  HTTPMethod = "delete"
	OPTIONS HTTPMethod = "options"
)

// KnownMethods lists the verbs a route file may export, in document order.
var KnownMethods = []HTTPMethod{GET, POST, PUT, PATCH, DELETE, OPTIONS}

// IsMethod reports whether key names one of KnownMethods.
func IsMethod(key string) bool {
	for _, m := range KnownMethods {
		if string(m) == key {
			return true
		}
	}
	return false
}

// MethodSet is a de-duplicated set of HTTP methods.
type MethodSet map[HTTPMethod]struct{}

// Has reports whether m is in the set.
func (s MethodSet) Has(m HTTPMethod) bool {
	_, ok := s[m]
	return ok
}

// Sorted returns the methods in KnownMethods order.
func (s MethodSet) Sorted() []HTTPMethod {
	out := make([]HTTPMethod, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return methodRank(out[i]) < methodRank(out[j]) })
	return out
}

func methodRank(m HTTPMethod) int {
	for i, k := range KnownMethods {
		if k == m {
			return i
		}
	}
	return len(KnownMethods)
}

const verbAlt = `GET|POST|PUT|PATCH|DELETE|OPTIONS`

var (
	exportFuncRe  = regexp.MustCompile(`export\s+(?:async\s+)?function\s+(` + verbAlt + `)\b`)
	exportConstRe = regexp.MustCompile(`export\s+(?:const|let|var)\s+(` + verbAlt + `)\s*=`)
	exportListRe  = regexp.MustCompile(`export\s*\{([^}]*)\}`)
	listVerbRe    = regexp.MustCompile(`^(?:[A-Za-z_$][\w$]*\s+as\s+)?(` + verbAlt + `)$`)
)

// ScanExports returns the HTTP methods a route file exports. Function
// declarations, const bindings and export lists are scanned independently and
// unioned, so a verb exported twice is only counted once.
func ScanExports(text string) MethodSet {
	set := MethodSet{}
	for _, m := range exportFuncRe.FindAllStringSubmatch(text, -1) {
		set[HTTPMethod(strings.ToLower(m[1]))] = struct{}{}
	}
	for _, m := range exportConstRe.FindAllStringSubmatch(text, -1) {
		set[HTTPMethod(strings.ToLower(m[1]))] = struct{}{}
	}
	for _, list := range exportListRe.FindAllStringSubmatch(text, -1) {
		for _, item := range strings.Split(list[1], ",") {
			item = strings.TrimSpace(item)
			if m := listVerbRe.FindStringSubmatch(item); m != nil {
				set[HTTPMethod(strings.ToLower(m[1]))] = struct{}{}
			}
		}
	}
	return set
}

// MethodsOrDefault returns set, or {get} when nothing was detected. An
// undetectable export is most likely a read endpoint.
func MethodsOrDefault(set MethodSet) MethodSet {
	if len(set) == 0 {
		return MethodSet{GET: {}}
	}
	return set
}
