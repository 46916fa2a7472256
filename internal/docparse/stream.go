package docparse

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
)

// pdfStringRe matches PDF string literals: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// extractTextFromStream decodes the text show operators of a PDF content
// stream. Line structure matters downstream (section and subsection
// patterns are line anchored), so positioning operators become newlines
// rather than spaces.
func extractTextFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		// (text) Tj and [(text) -100 (more)] TJ show text at the current position.
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}

		// (text) ' moves to the next line before showing text.
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}

		// Td/TD reposition the text cursor; estimates lay out one visual
		// line per positioning call.
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}

		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return cleanStreamText(sb.String())
}

// decodePDFString resolves backslash escapes and octal character codes
// inside a PDF string literal.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

// cleanStreamText drops unprintable runes and trims lines while keeping
// line breaks. Runs of horizontal whitespace collapse to at most two
// spaces so column gaps stay visible to table inference.
func cleanStreamText(text string) string {
	var sb strings.Builder
	var line strings.Builder
	spaces := 0
	flush := func() {
		trimmed := strings.TrimSpace(line.String())
		line.Reset()
		spaces = 0
		if trimmed == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(trimmed)
	}
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			flush()
		case unicode.IsSpace(r):
			if line.Len() > 0 && spaces < 2 {
				line.WriteByte(' ')
				spaces++
			}
		case unicode.IsPrint(r):
			line.WriteRune(r)
			spaces = 0
		}
	}
	flush()
	return sb.String()
}
