// Package knowledge answers policy questions from a local document base.
// Documents are markdown or HTML files on disk; HTML is reduced to
// readable markdown at load time.
package knowledge

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Pre-compiled regexes to avoid runtime compilation on every document
var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// ConvertResult contains the result of HTML to markdown conversion.
type ConvertResult struct {
	Title    string
	Markdown string
}

// Converter converts HTML policy pages to markdown.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a new HTML to markdown converter.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Convert transforms HTML content to markdown. name is used as the
// document URL for content extraction and is typically the file path.
func (c *Converter) Convert(htmlContent []byte, name string) (*ConvertResult, error) {
	title := extractHTMLTitle(htmlContent)

	// Readability strips navigation, boilerplate, and chrome, leaving the
	// article body. Fall back to regex cleanup when it cannot parse.
	source := string(htmlContent)
	docURL := &url.URL{Scheme: "file", Path: name}
	if article, err := readability.FromReader(bytes.NewReader(htmlContent), docURL); err == nil && article.Content != "" {
		source = article.Content
		if title == "" {
			title = strings.TrimSpace(article.Title)
		}
	} else {
		source = basicHTMLCleanup(source)
	}

	markdown, err := c.converter.ConvertString(source)
	if err != nil {
		return nil, err
	}
	markdown = cleanMarkdown(markdown)

	if title == "" {
		title = extractMarkdownTitle(markdown)
	}
	if title == "" {
		// Readability may consume the page heading into the article body,
		// leaving no markdown H1. Scrape it from the original HTML instead.
		title = extractFirstHeading(htmlContent)
	}

	return &ConvertResult{Title: title, Markdown: markdown}, nil
}

// extractHTMLTitle extracts the <title> text from HTML.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if title != "" {
				return
			}
			extract(c)
		}
	}
	extract(doc)

	return title
}

// extractFirstHeading extracts the text of the first <h1> element.
func extractFirstHeading(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var heading string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "h1" {
			heading = strings.TrimSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if heading != "" {
				return
			}
			extract(c)
		}
	}
	extract(doc)

	return heading
}

// nodeText concatenates the text content of a node's descendants.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

// basicHTMLCleanup strips script and style blocks when parsing fails.
func basicHTMLCleanup(content string) string {
	content = scriptRe.ReplaceAllString(content, "")
	content = styleRe.ReplaceAllString(content, "")
	return content
}

// cleanMarkdown normalizes converted markdown.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	return strings.TrimSpace(content)
}

// extractMarkdownTitle extracts the first H1 heading from markdown.
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
