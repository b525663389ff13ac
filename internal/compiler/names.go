package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PascalName turns a dash-separated block name into an exported Go
// identifier suffix: "hero-banner" becomes "HeroBanner". Only the first
// rune of each part changes case. Any other character that cannot appear
// in an identifier separates parts the same way a dash does.
func PascalName(name string) string {
	upper := cases.Upper(language.Und)

	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, isSeparator) {
		r, size := utf8.DecodeRuneInString(part)
		b.WriteString(upper.String(string(r)))
		b.WriteString(part[size:])
	}

	return b.String()
}

func isSeparator(r rune) bool {
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// BlockName derives a block name from a template file name:
// "hero-banner.block.html" and "hero-banner/template.html" both give
// "hero-banner".
func BlockName(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	if strings.HasSuffix(path, "/"+templateFile) {
		path = strings.TrimSuffix(path, "/"+templateFile)
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[i+1:]
		}

		return path
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}

	return strings.TrimSuffix(path, blockSuffix)
}
