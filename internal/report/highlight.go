package report

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// HighlightedLine is one line of output split into colored tokens.
type HighlightedLine struct {
	Tokens []Token
}

// Token is a syntax-highlighted chunk of text.
type Token struct {
	Text  string
	Color string // hex color, empty for default
}

// Plain returns the concatenated plain text of all tokens.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Render returns the line with each token colored for the terminal.
func (hl HighlightedLine) Render() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		if t.Color == "" {
			b.WriteString(t.Text)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render(t.Text))
	}
	return b.String()
}

// HighlightLines tokenizes text in the given output format and returns one
// HighlightedLine per line. Formats without a lexer come back uncolored.
func HighlightLines(format Format, text string) []HighlightedLine {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	lexer := lexerFor(format)
	if lexer == nil {
		return plainLines(lines)
	}
	iterator, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return plainLines(lines)
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	result := make([]HighlightedLine, 0, len(lines))
	current := HighlightedLine{}
	for _, token := range iterator.Tokens() {
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				result = append(result, current)
				current = HighlightedLine{}
			}
			if part != "" {
				current.Tokens = append(current.Tokens, Token{
					Text:  part,
					Color: tokenColor(style, token.Type),
				})
			}
		}
	}
	result = append(result, current)

	// The lexer may drop a trailing empty line.
	for len(result) < len(lines) {
		result = append(result, HighlightedLine{})
	}
	return result[:len(lines)]
}

// Highlight colors text for a terminal.
func Highlight(format Format, text string) string {
	var b strings.Builder
	for _, line := range HighlightLines(format, text) {
		b.WriteString(line.Render())
		b.WriteByte('\n')
	}
	return b.String()
}

func plainLines(lines []string) []HighlightedLine {
	result := make([]HighlightedLine, len(lines))
	for i, line := range lines {
		result[i] = HighlightedLine{Tokens: []Token{{Text: line}}}
	}
	return result
}

func lexerFor(format Format) chroma.Lexer {
	var lexer chroma.Lexer
	switch format {
	case FormatJSON:
		lexer = lexers.Get("json")
	case FormatYAML:
		lexer = lexers.Get("yaml")
	case FormatMarkdown:
		lexer = lexers.Get("markdown")
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
