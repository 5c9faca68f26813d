package encoding

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/vvka-141/metafmt/internal/schema"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// encodeHTML renders a human-readable report: one section per element,
// nested by heading level, each with a table of its fields. The report is
// written as Markdown and converted with goldmark.
func encodeHTML(root *schema.Element) ([]byte, error) {
	var src bytes.Buffer
	writeMarkdown(&src, root, 1, "")

	var body bytes.Buffer
	if err := markdown.Convert(src.Bytes(), &body); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
`, html.EscapeString(title(root)))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

func title(e *schema.Element) string {
	if name := e.GetString("short_name"); name != "" {
		return e.Type + ": " + name
	}
	return e.Type
}

func writeMarkdown(b *bytes.Buffer, e *schema.Element, level int, slot string) {
	heading := escapeMarkdown(title(e))
	if slot != "" {
		heading += " (" + escapeMarkdown(slot) + ")"
	}
	fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", min(level, 6)), heading)

	b.WriteString("| attribute | value |\n|---|---|\n")
	fmt.Fprintf(b, "| %s | `%s` |\n", metaID, e.ID)
	for _, f := range e.Fields {
		if f.Value == nil {
			continue
		}
		fmt.Fprintf(b, "| %s | %s |\n", escapeMarkdown(f.Name), escapeMarkdown(text(f.Value)))
	}
	b.WriteByte('\n')

	for _, s := range e.Slots {
		for _, c := range s.Elements {
			writeMarkdown(b, c, level+1, s.Name)
		}
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
)

// escapeMarkdown makes free text safe inside a heading or table cell.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
