package scan

import (
	"path/filepath"
	"regexp"
	"strings"
)

// apiSegment is the first directory below the app root that holds API routes.
const apiSegment = "api"

// MapRoutePath converts a route file location into a URL path template.
// It returns false when file does not live under <appRoot>/api.
//
//	src/app/api/clinics/[id]/route.ts -> /api/clinics/{id}
func MapRoutePath(appRoot, file string) (string, bool) {
	rel, err := filepath.Rel(appRoot, file)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", false
	}

	parts := strings.Split(rel, "/")
	if len(parts) < 2 || parts[0] != apiSegment {
		return "", false
	}
	// drop "api" and the route file itself
	dirs := parts[1 : len(parts)-1]

	segments := make([]string, 0, len(dirs))
	for _, seg := range dirs {
		if seg == "" {
			continue
		}
		segments = append(segments, mapSegment(seg))
	}
	if len(segments) == 0 {
		return "/" + apiSegment, true
	}
	return "/" + apiSegment + "/" + strings.Join(segments, "/"), true
}

func mapSegment(seg string) string {
	if !strings.HasPrefix(seg, "[") || !strings.HasSuffix(seg, "]") {
		return seg
	}
	name := strings.Trim(seg, "[]")
	name = strings.TrimPrefix(name, "...")
	if name == "" {
		return seg
	}
	return "{" + name + "}"
}

var placeholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// PathParams returns the placeholder names of a URL path template in order.
func PathParams(urlPath string) []string {
	matches := placeholderRe.FindAllStringSubmatch(urlPath, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
