package domain

import "strconv"

// FrontMatterKind identifies the shape of a front-matter value.
type FrontMatterKind string

// Available front-matter value kinds.
const (
	// FrontMatterString is a plain text value.
	FrontMatterString FrontMatterKind = "string"

	// FrontMatterNumber is a numeric value.
	FrontMatterNumber FrontMatterKind = "number"

	// FrontMatterList is a list of strings.
	FrontMatterList FrontMatterKind = "list"

	// FrontMatterUnknown is a value that matched no recognised shape.
	FrontMatterUnknown FrontMatterKind = "unknown"
)

// FrontMatterValue is a tagged front-matter value. Consumers switch on
// Kind rather than reflecting over a dynamic type.
type FrontMatterValue struct {
	// Kind identifies which of the fields below carries the value.
	Kind FrontMatterKind `json:"kind"`

	// Str holds the value when Kind is FrontMatterString.
	Str string `json:"str,omitempty"`

	// Num holds the value when Kind is FrontMatterNumber.
	Num float64 `json:"num,omitempty"`

	// List holds the value when Kind is FrontMatterList.
	List []string `json:"list,omitempty"`

	// Raw holds the unparsed text when Kind is FrontMatterUnknown.
	Raw string `json:"raw,omitempty"`
}

// StringValue builds a string-kinded front-matter value.
func StringValue(s string) FrontMatterValue {
	return FrontMatterValue{Kind: FrontMatterString, Str: s}
}

// NumberValue builds a number-kinded front-matter value.
func NumberValue(n float64) FrontMatterValue {
	return FrontMatterValue{Kind: FrontMatterNumber, Num: n}
}

// ListValue builds a list-kinded front-matter value.
func ListValue(items []string) FrontMatterValue {
	return FrontMatterValue{Kind: FrontMatterList, List: items}
}

// UnknownValue builds an unknown-kinded front-matter value carrying the
// raw text for consumers that want to attempt their own parsing.
func UnknownValue(raw string) FrontMatterValue {
	return FrontMatterValue{Kind: FrontMatterUnknown, Raw: raw}
}

// Display returns a human-readable rendering of the value.
func (v FrontMatterValue) Display() string {
	switch v.Kind {
	case FrontMatterString:
		return v.Str
	case FrontMatterNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case FrontMatterList:
		out := ""
		for i, item := range v.List {
			if i > 0 {
				out += ", "
			}
			out += item
		}
		return out
	default:
		return v.Raw
	}
}
