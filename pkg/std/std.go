// Package std is the table of standard type and trait pointers. Codes below
// 0x8000 name types, codes from 0x8000 name traits.
package std

import (
	"strings"

	"github.com/Berylsoft/Zeon/pkg/types"
)

// TraitBase is the first code used by traits
const TraitBase uint16 = 0x8000

// Path is the human-readable name of a standard entry
type Path struct {
	Path string
	Name string
}

func (p Path) String() string {
	return "std:" + p.Path + ":" + p.Name
}

// ParsePath parses the "std:<path>:<name>" form
func ParsePath(s string) (Path, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != "std" || parts[1] == "" || parts[2] == "" {
		return Path{}, false
	}
	return Path{Path: parts[1], Name: parts[2]}, true
}

// Standard types
var (
	DefType       = types.MustStdPtr(0x0000)
	UnixTs        = types.MustStdPtr(0x0001)
	TraitAttr     = types.MustStdPtr(0x0002)
	TraitAttrType = types.MustStdPtr(0x0003)
	SimpleName    = types.MustStdPtr(0x0004)
	Trait         = types.MustStdPtr(0x0005)
	Rev           = types.MustStdPtr(0x0006)
	RevPtr        = types.MustStdPtr(0x0007)
	CommitPtr     = types.MustStdPtr(0x0008)
	Commit        = types.MustStdPtr(0x0009)
)

// Standard traits
var (
	ObjectMeta = types.MustStdPtr(0x8000)
	Name       = types.MustStdPtr(0x8001)
	UniqueName = types.MustStdPtr(0x8002)
)

var entries = map[types.TypePtr]Path{
	DefType:       {"types", "deftype"},
	UnixTs:        {"prim", "unix-ts"},
	TraitAttr:     {"types", "trait-attr"},
	TraitAttrType: {"types", "trait-attr-type"},
	SimpleName:    {"prim", "simple-name"},
	Trait:         {"types", "trait"},
	Rev:           {"meta", "rev"},
	RevPtr:        {"meta", "rev-ptr"},
	CommitPtr:     {"meta", "commit-ptr"},
	Commit:        {"meta", "commit"},
	ObjectMeta:    {"meta", "object-meta"},
	Name:          {"meta", "name"},
	UniqueName:    {"meta", "unique-name"},
}

var byPath = func() map[Path]types.TypePtr {
	m := make(map[Path]types.TypePtr, len(entries))
	for ptr, path := range entries {
		m[path] = ptr
	}
	return m
}()

// Lookup returns the path registered for ptr
func Lookup(ptr types.TypePtr) (Path, bool) {
	p, ok := entries[ptr]
	return p, ok
}

// PtrOf returns the standard pointer registered for path
func PtrOf(path Path) (types.TypePtr, bool) {
	p, ok := byPath[path]
	return p, ok
}

// IsTrait reports whether ptr is a standard pointer in the trait range
func IsTrait(ptr types.TypePtr) bool {
	n, ok := ptr.Std()
	return ok && n >= TraitBase
}

// Describe names ptr by its registered path when it has one
func Describe(ptr types.TypePtr) string {
	if p, ok := Lookup(ptr); ok {
		return p.String()
	}
	return ptr.String()
}
