package hdf5

import (
	"fmt"
	"path"
	"strings"
)

// ParseAttrPath splits "/group/object@attr" into the object path and the
// attribute name. "/@attr" names an attribute of the root group.
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(p, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: %q has no '@' separator", ErrInvalidPath, p)
	}
	objectPath, attrName = p[:at], p[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: %q has an empty attribute name", ErrInvalidPath, p)
	}
	return CleanPath(objectPath), attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	objectPath = CleanPath(objectPath)
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}

// SplitPath returns the non-empty components of p.
func SplitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

// CleanPath returns p as an absolute path without a trailing slash.
func CleanPath(p string) string {
	return path.Clean("/" + p)
}
