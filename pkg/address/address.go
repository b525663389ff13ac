// Package address encodes and decodes schema addresses.
//
// A schema address locates one block instance inside one region of one
// page, and optionally a value inside that block's props. Rendered markup
// carries addresses in data attributes so editing tools can map DOM nodes
// back to page configuration.
//
// The wire format is
//
//	pageId::region::blockId
//	pageId::region::blockId::propPath
//
// An explicit empty prop path ("home::main::hero::") is distinct from an
// absent one ("home::main::hero").
package address

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
)

// Delimiter separates the address fields.
const Delimiter = "::"

// Address identifies a block instance, or a value within it. PropPath is
// nil when the address points at the block itself.
type Address struct {
	PageID   string  `json:"pageId"`
	Region   string  `json:"region"`
	BlockID  string  `json:"blockId"`
	PropPath *string `json:"propPath,omitempty"`
}

// New returns the address of a whole block.
func New(pageID, region, blockID string) Address {
	return Address{PageID: pageID, Region: region, BlockID: blockID}
}

// HasPropPath reports whether a prop path is present, even an empty one.
func (a Address) HasPropPath() bool {
	return a.PropPath != nil
}

// Path returns the prop path, or "" when absent.
func (a Address) Path() string {
	if a.PropPath == nil {
		return ""
	}

	return *a.PropPath
}

// String returns the encoded form.
func (a Address) String() string {
	return Encode(a)
}

// Encode joins the fields with Delimiter. The fourth field is written
// whenever PropPath is non-nil, including the empty string.
func Encode(a Address) string {
	parts := []string{a.PageID, a.Region, a.BlockID}
	if a.PropPath != nil {
		parts = append(parts, *a.PropPath)
	}

	return strings.Join(parts, Delimiter)
}

// Decode parses an encoded address. Anything after the third delimiter,
// delimiters included, belongs to the prop path.
func Decode(s string) (Address, error) {
	parts := strings.Split(s, Delimiter)
	if len(parts) < 3 {
		return Address{}, kiterrors.NewValidationError(
			kiterrors.ErrCodeInvalidAddress,
			fmt.Sprintf("invalid schema address: %q", s),
		).WithContext("parts", len(parts))
	}

	a := Address{PageID: parts[0], Region: parts[1], BlockID: parts[2]}
	if len(parts) > 3 {
		path := strings.Join(parts[3:], Delimiter)
		a.PropPath = &path
	}

	return a, nil
}

// MustDecode is like Decode but panics on error.
func MustDecode(s string) Address {
	a, err := Decode(s)
	if err != nil {
		panic(err)
	}

	return a
}

// WithPropPath returns a copy of a pointing at path.
func WithPropPath(a Address, path string) Address {
	a.PropPath = &path

	return a
}

// WithoutPropPath returns a copy of a pointing at the whole block.
func WithoutPropPath(a Address) Address {
	a.PropPath = nil

	return a
}

// IsSameBlock reports whether a and b point into the same block instance.
func IsSameBlock(a, b Address) bool {
	return a.PageID == b.PageID && a.Region == b.Region && a.BlockID == b.BlockID
}

// Equal compares all fields, distinguishing empty from absent prop paths.
func Equal(a, b Address) bool {
	if !IsSameBlock(a, b) {
		return false
	}
	if a.PropPath == nil || b.PropPath == nil {
		return a.PropPath == nil && b.PropPath == nil
	}

	return *a.PropPath == *b.PropPath
}

// Validate rejects addresses that would not survive an encode/decode
// round trip.
func Validate(a Address) error {
	fields := []struct{ name, value string }{
		{"pageId", a.PageID},
		{"region", a.Region},
		{"blockId", a.BlockID},
	}
	for _, f := range fields {
		if strings.Contains(f.value, Delimiter) {
			return kiterrors.NewValidationError(
				kiterrors.ErrCodeInvalidAddress,
				fmt.Sprintf("%s %q must not contain %q", f.name, f.value, Delimiter),
			)
		}
	}

	return nil
}

// ChildIndex extends the prop path with an index segment, producing
// "parent[i]" or "[i]" when there is no parent path.
func ChildIndex(a Address, i int) Address {
	return WithPropPath(a, fmt.Sprintf("%s[%d]", a.Path(), i))
}

// Resolve evaluates the prop path of a against props and returns the value
// it points at. A missing or empty path resolves to props itself.
func Resolve(props any, a Address) (any, error) {
	path := a.Path()
	if path == "" {
		return props, nil
	}

	root, err := generic(props)
	if err != nil {
		return nil, err
	}

	expr := "$." + path
	if strings.HasPrefix(path, "[") {
		expr = "$" + path
	}
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, kiterrors.NewValidationError(
			kiterrors.ErrCodeInvalidAddress,
			fmt.Sprintf("invalid prop path %q", path),
		).WithCause(err)
	}

	results := x.Get(root)
	if len(results) == 0 {
		return nil, kiterrors.NewLookupError(
			kiterrors.ErrCodeInvalidAddress,
			fmt.Sprintf("prop path %q not found in %s", path, Encode(WithoutPropPath(a))),
		)
	}

	return results[0], nil
}

// generic converts typed props into maps and slices that jp can walk.
func generic(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any, nil:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, kiterrors.NewInternalError(kiterrors.ErrCodeInternalError, "encode props", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, kiterrors.NewInternalError(kiterrors.ErrCodeInternalError, "decode props", err)
	}

	return out, nil
}
