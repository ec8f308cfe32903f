package models

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark/util"
)

// Segment is one renderable unit of a message: either plain text or a product card. Segments are derived
// from the immutable message content on every render and are never stored.
type Segment struct {
	Type SegmentType

	// Text would be filled if Type is SegmentTypeText.
	Text string

	// Product would be filled if Type is SegmentTypeProduct.
	Product Product

	// Source is the slice of the message content this segment was produced from. Concatenating the
	// sources of a parse result yields the parsed content.
	Source string
}

// Product is a product card recommended by the assistant, or the card showing an image the shopper uploaded.
type Product struct {
	Name        string
	Price       string
	Stock       StockStatus
	Description string
	ImageURL    string
}

// SegmentType represents the type of a segment.
type SegmentType string

// StockStatus is the availability classification shown on a product card.
type StockStatus string

const (
	// SegmentTypeText represents plain, inline-formatted text.
	SegmentTypeText SegmentType = "text"
	// SegmentTypeProduct represents a product card.
	SegmentTypeProduct SegmentType = "product"

	StockIn  StockStatus = "In Stock"
	StockLow StockStatus = "Low Stock"
	StockOut StockStatus = "Out of Stock"

	// UploadedImageName is the card title of an image attached by the shopper.
	UploadedImageName = "Uploaded Image"

	defaultPrice = "₦0"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*([^\r\x{2028}\x{2029}]+?)\*\*`)
	italicPattern = regexp.MustCompile(`\*([^\r\x{2028}\x{2029}]+?)\*`)
)

// Icon returns the glyph displayed next to the stock status. Uploaded image cards have no status and no icon.
func (s StockStatus) Icon() string {
	switch s {
	case StockIn:
		return "✓"
	case StockLow:
		return "⚠️"
	case StockOut:
		return "❌"
	}
	return ""
}

// MessageSegments returns the segments to render for msg. Assistant messages are parsed for product blocks,
// user messages are shown verbatim, followed by a card for the attached image if there is one.
func MessageSegments(msg Message) []Segment {
	if msg.Role != RoleUser {
		return ParseContent(msg.Content)
	}
	segments := []Segment{textSegment(msg.Content)}
	if msg.ImageURL != "" {
		segments = append(segments, Segment{
			Type: SegmentTypeProduct,
			Product: Product{
				Name:     UploadedImageName,
				ImageURL: msg.ImageURL,
			},
		})
	}
	return segments
}

// ParseContent splits content into text segments and product segments. A product block spans four lines:
//
//	**<name>**
//	*<price and stock>*
//	<optional description>
//	![<alt>](<image url>)
//
// Blocks are matched left to right without overlapping. Text between, before and after blocks becomes text
// segments; empty gaps produce no segment. Anything that does not form a complete block stays text, so
// ParseContent accepts every input. Content without blocks yields a single text segment.
func ParseContent(content string) []Segment {
	var segments []Segment
	last := 0
	for pos := 0; pos < len(content); {
		idx := strings.Index(content[pos:], "**")
		if idx < 0 {
			break
		}
		start := pos + idx

		b, ok := matchBlock(content, start)
		if !ok {
			pos = start + 1
			continue
		}

		if start > last {
			segments = append(segments, textSegment(content[last:start]))
		}
		segments = append(segments, b.segment(content[start:b.end]))
		last = b.end
		pos = b.end
	}

	if last < len(content) {
		segments = append(segments, textSegment(content[last:]))
	}
	if len(segments) == 0 {
		return []Segment{textSegment(content)}
	}
	return segments
}

// FormatText converts the inline markup of a text segment into HTML. Horizontal rules ("---") are dropped,
// then every line is escaped and its **bold** and *italic* spans are converted. Lines are joined with
// <br /> tags. Emphasis does not nest and never crosses a line.
func FormatText(text string) string {
	text = strings.ReplaceAll(text, "---", "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = string(util.EscapeHTML([]byte(line)))
		line = boldPattern.ReplaceAllString(line, "<strong>${1}</strong>")
		line = italicPattern.ReplaceAllString(line, "<em>${1}</em>")
		lines[i] = line
	}
	return strings.Join(lines, "<br />")
}

func textSegment(s string) Segment {
	return Segment{
		Type:   SegmentTypeText,
		Text:   s,
		Source: s,
	}
}

// block holds the captures of one matched product block.
type block struct {
	end int

	name        string
	priceLine   string
	description string
	imageURL    string
}

func (b block) segment(source string) Segment {
	return Segment{
		Type: SegmentTypeProduct,
		Product: Product{
			Name:        trim(b.name),
			Price:       extractPrice(b.priceLine),
			Stock:       classifyStock(b.priceLine),
			Description: trim(b.description),
			ImageURL:    trim(b.imageURL),
		},
		Source: source,
	}
}

// matchBlock tries to match a product block starting at s[start]. The sub-matchers below try their
// alternatives in a fixed order: the shortest name, price, alt text and URL first, the longest whitespace
// run first, and a block with a description before one without. The first complete block wins.
func matchBlock(s string, start int) (block, bool) {
	if !strings.HasPrefix(s[start:], "**") {
		return block{}, false
	}
	nameStart := start + 2
	limit := lineEnd(s, nameStart)
	for j := nameStart + 1; j < limit; j++ {
		if !strings.HasPrefix(s[j:], "**") {
			continue
		}
		if b, ok := matchPriceLine(s, j+2); ok {
			b.name = s[nameStart:j]
			return b, true
		}
	}
	return block{}, false
}

// matchPriceLine matches the line break after the name and the *price and stock* line.
func matchPriceLine(s string, pos int) (block, bool) {
	for _, next := range lineBreaks(s, pos) {
		if next >= len(s) || s[next] != '*' {
			continue
		}
		priceStart := next + 1
		limit := lineEnd(s, priceStart)
		for j := priceStart + 1; j < limit; j++ {
			if s[j] != '*' {
				continue
			}
			if b, ok := matchTail(s, j+1); ok {
				b.priceLine = s[priceStart:j]
				return b, true
			}
		}
	}
	return block{}, false
}

// matchTail matches the line break after the price line, the optional description and the image line.
func matchTail(s string, pos int) (block, bool) {
	for _, next := range lineBreaks(s, pos) {
		if end := lineEnd(s, next); end > next && end < len(s) && s[end] == '\n' {
			if b, ok := matchImage(s, end+1); ok {
				b.description = s[next:end]
				return b, true
			}
		}
		if b, ok := matchImage(s, next); ok {
			return b, true
		}
	}
	return block{}, false
}

// matchImage matches ![alt](url) at pos.
func matchImage(s string, pos int) (block, bool) {
	if !strings.HasPrefix(s[pos:], "![") {
		return block{}, false
	}
	altStart := pos + 2
	limit := lineEnd(s, altStart)
	for j := altStart + 1; j < limit; j++ {
		if !strings.HasPrefix(s[j:], "](") {
			continue
		}
		urlStart := j + 2
		urlLimit := lineEnd(s, urlStart)
		if urlStart+1 >= urlLimit {
			continue
		}
		if k := strings.IndexByte(s[urlStart+1:urlLimit], ')'); k >= 0 {
			closing := urlStart + 1 + k
			return block{
				end:      closing + 1,
				imageURL: s[urlStart:closing],
			}, true
		}
	}
	return block{}, false
}

// lineBreaks returns, longest whitespace run first, the positions right after every "\n" that ends a
// whitespace run starting at pos.
func lineBreaks(s string, pos int) []int {
	end := pos
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !isSpace(r) {
			break
		}
		end += size
	}

	var res []int
	for i := end - 1; i >= pos; i-- {
		if s[i] == '\n' {
			res = append(res, i+1)
		}
	}
	return res
}

// lineEnd returns the index of the first line terminator at or after pos, or len(s).
func lineEnd(s string, pos int) int {
	for i, r := range s[pos:] {
		if isLineTerminator(r) {
			return pos + i
		}
	}
	return len(s)
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func isSpace(r rune) bool {
	return (unicode.IsSpace(r) && r != '\u0085') || r == '\ufeff'
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// extractPrice returns the first amount following a ₦ or $ sign, always shown with the ₦ sign.
func extractPrice(line string) string {
	for i, r := range line {
		if r != '₦' && r != '$' {
			continue
		}
		rest := line[i+utf8.RuneLen(r):]
		n := 0
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n > 0 {
			return "₦" + rest[:n]
		}
	}
	return defaultPrice
}

func classifyStock(line string) StockStatus {
	switch {
	case strings.Contains(line, string(StockLow)):
		return StockLow
	case strings.Contains(line, string(StockOut)):
		return StockOut
	}
	return StockIn
}
