package eval

import (
	"encoding/base32"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/cwbudde/jqlite/internal/errors"
	"github.com/cwbudde/jqlite/internal/value"
)

// ApplyFormat implements the `@name` string/value encoders. It is called
// directly from eval.go's ast.Format case and, via `@name "interpolated \(e)"`
// desugaring, from whatever expression the parser rewrote into a pipe into
// a Format node.
func ApplyFormat(name string, input value.Value) (value.Value, error) {
	switch name {
	case "text":
		return value.String(stringify(input)), nil
	case "json":
		return value.String(value.ToJSON(input, "")), nil
	case "html":
		return value.String(htmlEscape(stringify(input))), nil
	case "uri":
		return value.String(uriEscape(stringify(input))), nil
	case "csv":
		return formatRow(input, "csv", ",", csvCell)
	case "tsv":
		return formatRow(input, "tsv", "\t", tsvCell)
	case "sh":
		return formatSh(input)
	case "base64":
		return value.String(base64.StdEncoding.EncodeToString([]byte(stringify(input)))), nil
	case "base64d":
		if input.Kind() != value.KindString {
			return value.Null, errors.TypeError("@base64d input must be a string")
		}
		dec, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(input.Str(), "="))
		if err != nil {
			return value.Null, errors.Runtime("invalid base64: %v", err)
		}
		return value.String(string(dec)), nil
	case "base32":
		return value.String(base32.StdEncoding.EncodeToString([]byte(stringify(input)))), nil
	case "base32d":
		if input.Kind() != value.KindString {
			return value.Null, errors.TypeError("@base32d input must be a string")
		}
		dec, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(input.Str(), "="))
		if err != nil {
			return value.Null, errors.Runtime("invalid base32: %v", err)
		}
		return value.String(string(dec)), nil
	default:
		return value.Null, errors.UndefinedFunction("@"+name, 0)
	}
}

func stringify(v value.Value) string {
	if v.Kind() == value.KindString {
		return v.Str()
	}
	return value.ToJSON(v, "")
}

func htmlEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '&':
			sb.WriteString("&amp;")
		case '\'':
			sb.WriteString("&#39;")
		case '"':
			sb.WriteString("&quot;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func uriEscape(s string) string {
	return url.QueryEscape(s)
}

func formatRow(input value.Value, format, sep string, cell func(value.Value) (string, error)) (value.Value, error) {
	if input.Kind() != value.KindArray {
		return value.Null, errors.TypeError("%s cannot be %s-formatted, only array rows can", input.TypeName(), format)
	}
	parts := make([]string, input.Len())
	for i, el := range input.Elements() {
		c, err := cell(el)
		if err != nil {
			return value.Null, err
		}
		parts[i] = c
	}
	return value.String(strings.Join(parts, sep)), nil
}

func csvCell(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "", nil
	case value.KindBool, value.KindNumber:
		return stringify(v), nil
	case value.KindString:
		return `"` + strings.ReplaceAll(v.Str(), `"`, `""`) + `"`, nil
	default:
		return "", errors.TypeError("%s is not valid in a csv row", v.TypeName())
	}
}

func tsvCell(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindNull:
		return "", nil
	case value.KindBool, value.KindNumber:
		return stringify(v), nil
	case value.KindString:
		r := strings.NewReplacer("\\", `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
		return r.Replace(v.Str()), nil
	default:
		return "", errors.TypeError("%s is not valid in a tsv row", v.TypeName())
	}
}

func formatSh(v value.Value) (value.Value, error) {
	if v.Kind() == value.KindArray {
		parts := make([]string, v.Len())
		for i, el := range v.Elements() {
			s, err := shQuote(el)
			if err != nil {
				return value.Null, err
			}
			parts[i] = s
		}
		return value.String(strings.Join(parts, " ")), nil
	}
	s, err := shQuote(v)
	if err != nil {
		return value.Null, err
	}
	return value.String(s), nil
}

func shQuote(v value.Value) (string, error) {
	switch v.Kind() {
	case value.KindString:
		return "'" + strings.ReplaceAll(v.Str(), "'", `'\''`) + "'", nil
	case value.KindNull, value.KindBool, value.KindNumber:
		return stringify(v), nil
	default:
		return "", errors.TypeError("%s can not be escaped for shell", v.TypeName())
	}
}
