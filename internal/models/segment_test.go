package models_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/models"
)

func TestParseContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.Segment
	}{
		{
			name:    "Plain text",
			content: "Hello, how can I help?",
			want: []models.Segment{
				{Type: models.SegmentTypeText, Text: "Hello, how can I help?"},
			},
		},
		{
			name:    "Empty content",
			content: "",
			want: []models.Segment{
				{Type: models.SegmentTypeText, Text: ""},
			},
		},
		{
			name: "Text around a product",
			content: "Check this out:\n**Red Dress**\n*₦3000 Low Stock*\nLovely summer dress\n" +
				"![img](http://x/img.png)\nEnjoy!",
			want: []models.Segment{
				{Type: models.SegmentTypeText, Text: "Check this out:\n"},
				{Type: models.SegmentTypeProduct, Product: models.Product{
					Name:        "Red Dress",
					Price:       "₦3000",
					Stock:       models.StockLow,
					Description: "Lovely summer dress",
					ImageURL:    "http://x/img.png",
				}},
				{Type: models.SegmentTypeText, Text: "\nEnjoy!"},
			},
		},
		{
			name:    "Product only, no description",
			content: "**Black Heels**\n*$45 ✓ In Stock*\n![Black Heels](https://img.example/heels.png)",
			want: []models.Segment{
				{Type: models.SegmentTypeProduct, Product: models.Product{
					Name:     "Black Heels",
					Price:    "₦45",
					Stock:    models.StockIn,
					ImageURL: "https://img.example/heels.png",
				}},
			},
		},
		{
			name: "Two products back to back",
			content: "**A**\n*₦1 Out of Stock*\n![a](u1)\n" +
				"**B**\n*no price*\nnice\n![b]( u2 )",
			want: []models.Segment{
				{Type: models.SegmentTypeProduct, Product: models.Product{
					Name: "A", Price: "₦1", Stock: models.StockOut, ImageURL: "u1",
				}},
				{Type: models.SegmentTypeText, Text: "\n"},
				{Type: models.SegmentTypeProduct, Product: models.Product{
					Name: "B", Price: "₦0", Stock: models.StockIn, Description: "nice", ImageURL: "u2",
				}},
			},
		},
		{
			name:    "Block starting mid-line",
			content: "Try: **Scarf**\n*₦700*\n![s](u)",
			want: []models.Segment{
				{Type: models.SegmentTypeText, Text: "Try: "},
				{Type: models.SegmentTypeProduct, Product: models.Product{
					Name: "Scarf", Price: "₦700", Stock: models.StockIn, ImageURL: "u",
				}},
			},
		},
		{
			name:    "Missing image line stays text",
			content: "**Red Dress**\n*₦3000*\nLovely summer dress\n",
			want: []models.Segment{
				{Type: models.SegmentTypeText, Text: "**Red Dress**\n*₦3000*\nLovely summer dress\n"},
			},
		},
		{
			name:    "Unclosed price line stays text",
			content: "**Red Dress**\n*₦3000\n![img](u)",
			want: []models.Segment{
				{Type: models.SegmentTypeText, Text: "**Red Dress**\n*₦3000\n![img](u)"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := models.ParseContent(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseContent() returned %d segments, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Type != tt.want[i].Type {
					t.Errorf("segment %d type = %v, want %v", i, got[i].Type, tt.want[i].Type)
				}
				if got[i].Text != tt.want[i].Text {
					t.Errorf("segment %d text = %q, want %q", i, got[i].Text, tt.want[i].Text)
				}
				if got[i].Product != tt.want[i].Product {
					t.Errorf("segment %d product = %+v, want %+v", i, got[i].Product, tt.want[i].Product)
				}
			}
		})
	}
}

func TestParseContentReconstructsInput(t *testing.T) {
	inputs := []string{
		"",
		"no products here",
		"**bold** but *not* a product",
		"Intro\n\n**A**\n*$10 Low Stock*\n![a](http://a)\nmiddle **B**  \n*₦20*  \n  \n![b](http://b) tail",
		"***Triple***\n**x**\n*₦5*\n![x](y)",
		"**A**\n*₦1*\n![a](u)**B**\n*₦2*\n![b](v)",
		"**broken**\n*price*\n![alt](",
	}

	for _, in := range inputs {
		var sb strings.Builder
		for _, s := range models.ParseContent(in) {
			sb.WriteString(s.Source)
		}
		if sb.String() != in {
			t.Errorf("sources of %q concatenate to %q", in, sb.String())
		}
	}
}

func TestParseContentPrice(t *testing.T) {
	tests := []struct {
		priceLine string
		wantPrice string
		wantStock models.StockStatus
	}{
		{"₦500 — Low Stock", "₦500", models.StockLow},
		{"Price on request", "₦0", models.StockIn},
		{"$89 Out of Stock", "₦89", models.StockOut},
		{"$ 5 then ₦12", "₦12", models.StockIn},
		{"₦3,000", "₦3", models.StockIn},
		{"Low Stock, soon Out of Stock", "₦0", models.StockLow},
	}

	for _, tt := range tests {
		t.Run(tt.priceLine, func(t *testing.T) {
			got := models.ParseContent("**Item**\n*" + tt.priceLine + "*\n![i](u)")
			if len(got) != 1 || got[0].Type != models.SegmentTypeProduct {
				t.Fatalf("ParseContent() = %+v, want one product", got)
			}
			if got[0].Product.Price != tt.wantPrice {
				t.Errorf("price = %q, want %q", got[0].Product.Price, tt.wantPrice)
			}
			if got[0].Product.Stock != tt.wantStock {
				t.Errorf("stock = %q, want %q", got[0].Product.Stock, tt.wantStock)
			}
		})
	}
}

func TestMessageSegments(t *testing.T) {
	content := "**Red Dress**\n*₦3000*\n![img](u)"

	user := models.MessageSegments(models.Message{Role: models.RoleUser, Content: content})
	if len(user) != 1 || user[0].Type != models.SegmentTypeText || user[0].Text != content {
		t.Errorf("user message segments = %+v, want verbatim text", user)
	}

	withImage := models.MessageSegments(models.Message{
		Role:     models.RoleUser,
		Content:  "[Image Uploaded] Finding similar items...",
		ImageURL: "/blobs/1",
	})
	if len(withImage) != 2 {
		t.Fatalf("user image message segments = %+v, want 2", withImage)
	}
	card := withImage[1].Product
	if withImage[1].Type != models.SegmentTypeProduct || card.Name != models.UploadedImageName ||
		card.ImageURL != "/blobs/1" || card.Price != "" || card.Stock != "" || card.Stock.Icon() != "" {
		t.Errorf("uploaded image card = %+v", withImage[1])
	}

	assistant := models.MessageSegments(models.Message{Role: models.RoleAssistant, Content: content})
	if len(assistant) != 1 || assistant[0].Type != models.SegmentTypeProduct {
		t.Errorf("assistant message segments = %+v, want one product", assistant)
	}
}

func TestFormatText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "hello", "hello"},
		{"Bold and italic", "**big** and *small*", "<strong>big</strong> and <em>small</em>"},
		{"Line breaks", "one\ntwo", "one<br />two"},
		{"Horizontal rule", "above\n---\nbelow", "above<br /><br />below"},
		{"No emphasis across lines", "*start\nend*", "*start<br />end*"},
		{"Escapes markup", "<b>x</b> & *y*", "&lt;b&gt;x&lt;/b&gt; &amp; <em>y</em>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := models.FormatText(tt.in); got != tt.want {
				t.Errorf("FormatText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStockStatusIcon(t *testing.T) {
	icons := map[models.StockStatus]string{
		models.StockIn:  "✓",
		models.StockLow: "⚠️",
		models.StockOut: "❌",
		"":              "",
	}
	for status, want := range icons {
		if got := status.Icon(); got != want {
			t.Errorf("%q.Icon() = %q, want %q", status, got, want)
		}
	}
}
