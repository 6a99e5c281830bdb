package plural

import (
	"strings"
)

const pluralFormsKey = "plural-forms:"

// ParseHeader extracts the Plural-Forms value from a PO or MO header. The
// header may be given decoded, or as the quoted msgstr lines of a PO file.
// A missing trailing ';' is added.
func ParseHeader(header string) (string, error) {
	for _, line := range strings.Split(unquote(header), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len(pluralFormsKey) || !strings.EqualFold(line[:len(pluralFormsKey)], pluralFormsKey) {
			continue
		}
		value := strings.TrimSpace(line[len(pluralFormsKey):])
		if value == "" {
			return "", ErrNoPluralForms
		}
		if !strings.HasSuffix(value, ";") {
			value += ";"
		}
		return value, nil
	}
	return "", ErrNoPluralForms
}

// CompileHeader compiles the Plural-Forms entry of a header.
func CompileHeader(header string, opts ...Option) (*Program, error) {
	source, err := ParseHeader(header)
	if err != nil {
		return nil, err
	}
	return Compile(source, opts...)
}

// unquote turns PO string lines ("Key: value\n") into plain header text.
func unquote(header string) string {
	var sb strings.Builder
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "msgstr ")
		if len(line) >= 2 && line[0] == '"' && line[len(line)-1] == '"' {
			line = line[1 : len(line)-1]
			line = strings.ReplaceAll(line, `\n`, "\n")
			line = strings.ReplaceAll(line, `\"`, `"`)
			sb.WriteString(line)
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
