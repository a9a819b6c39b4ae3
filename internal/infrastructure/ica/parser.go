package ica

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/agnesleth/hello-poor/internal/domain"
	"golang.org/x/net/html"
)

// maxBlockRunes bounds the text of a candidate block; longer elements are
// page sections wrapping many offers
const maxBlockRunes = 500

var (
	blockClassHints = []string{"product", "offer", "item", "article"}

	infoTextRegex   = regexp.MustCompile(`(?i)jmfpris|ord\.?\s*pris`)
	pricedTextRegex = regexp.MustCompile(`(?i)\d+\s+för\s+\d+|\d+\s*kr\s*/\s*(?:st|kg)|\d+:-`)
	imageTextRegex  = regexp.MustCompile(`(?i)kr|för|ord\.?\s*pris|jmfpris`)

	descriptionRegex = regexp.MustCompile(`(?i)((?:\bjmfpris|\bmax\b|\bord\.?\s*pris).*?)(?:lägg i inköpslista|$)`)

	// priceRegexes are tried in order; the first capture group is the price text
	priceRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+\s*för\s*\d+(?:[.,]\d+)?\s*(?:kr|:-))`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?\s*kr\s*/\s*(?:st|kg))`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?\s*kr)(?:[^\p{L}/]|$)`),
		regexp.MustCompile(`(?i)(\d+:-(?:/(?:st|kg))?)`),
	}

	nameNoiseRegex = regexp.MustCompile(`(?i)\bkr\b|\bför\b|:-|jmfpris|ord\.?\s*pris|\bmax\b`)
	priceHintRegex = regexp.MustCompile(`(?i)kr|för|:-`)
)

// ParseOfferPage parses an offer page and yields one candidate per offer block
func ParseOfferPage(r io.Reader) (*domain.OfferPage, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	page := &domain.OfferPage{
		StoreName: storeName(doc),
	}

	for _, block := range findOfferBlocks(doc) {
		candidate, ok := extractCandidate(block)
		if !ok {
			continue
		}
		page.Candidates = append(page.Candidates, candidate)
	}

	return page, nil
}

func storeName(doc *goquery.Document) string {
	if name := collapseSpace(doc.Find("h1").First().Text()); name != "" {
		return name
	}
	return collapseSpace(doc.Find("title").First().Text())
}

// findOfferBlocks collects candidate blocks in strategy order. A block never
// overlaps an earlier one: elements inside or around an accepted block are skipped.
func findOfferBlocks(doc *goquery.Document) []*goquery.Selection {
	var blocks []*goquery.Selection
	seen := make(map[*html.Node]bool)

	overlaps := func(sel *goquery.Selection) bool {
		for n := sel.Get(0); n != nil; n = n.Parent {
			if seen[n] {
				return true
			}
		}
		inner := false
		sel.Find("*").EachWithBreak(func(_ int, child *goquery.Selection) bool {
			inner = seen[child.Get(0)]
			return !inner
		})
		return inner
	}

	add := func(sel *goquery.Selection) {
		if sel.Length() == 0 || sel.Is("html, body") || overlaps(sel) {
			return
		}
		if utf8.RuneCountInString(blockText(sel)) >= maxBlockRunes {
			return
		}
		seen[sel.Get(0)] = true
		blocks = append(blocks, sel)
	}

	// Offer cards carrying a promotion id
	doc.Find("article[data-promotion-id]").Each(func(_ int, sel *goquery.Selection) {
		add(sel)
	})

	doc.Find("div, section, article").Each(func(_ int, sel *goquery.Selection) {
		class := strings.ToLower(sel.AttrOr("class", ""))
		for _, hint := range blockClassHints {
			if strings.Contains(class, hint) {
				add(sel)
				return
			}
		}
	})

	doc.Find("div, section, article").Each(func(_ int, sel *goquery.Selection) {
		if infoTextRegex.MatchString(blockText(sel)) {
			add(sel)
		}
	})

	doc.Find("div, p, section, article").Each(func(_ int, sel *goquery.Selection) {
		if pricedTextRegex.MatchString(blockText(sel)) {
			add(sel.Parent())
		}
	})

	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		parent := img.ParentsFiltered("div, section, article").First()
		if imageTextRegex.MatchString(blockText(parent)) {
			add(parent)
		}
	})

	return blocks
}

// extractCandidate reads name, price and description out of one block
func extractCandidate(block *goquery.Selection) (domain.Candidate, bool) {
	name := blockName(block)
	if name == "" {
		return domain.Candidate{}, false
	}

	text := blockText(block)
	lead := text

	description := ""
	if m := descriptionRegex.FindStringSubmatchIndex(text); m != nil {
		description = strings.TrimSpace(text[m[2]:m[3]])
		lead = text[:m[2]]
	}

	return domain.Candidate{
		Name:        name,
		Price:       blockPrice(block, lead, text),
		Description: description,
	}, true
}

func blockName(block *goquery.Selection) string {
	for _, selector := range []string{".offer-card__title", "h2, h3, h4, strong", "[class*=name], [class*=title]"} {
		if name := firstText(block.Find(selector)); name != "" {
			return name
		}
	}

	var name string
	block.Find("p, div, span, strong").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := collapseSpace(sel.Text())
		if utf8.RuneCountInString(text) <= 3 || nameNoiseRegex.MatchString(text) {
			return true
		}
		first, _ := utf8.DecodeRuneInString(text)
		if !unicode.IsUpper(first) {
			return true
		}
		name = text
		return false
	})
	return name
}

// blockPrice prefers the offer splash, then the price notations in the text
// before the description, then anywhere in the block, then price-looking elements
func blockPrice(block *goquery.Selection, lead, text string) string {
	if splash := firstText(block.Find(".price-splash__text")); splash != "" {
		return splash
	}

	for _, t := range []string{lead, text} {
		for _, re := range priceRegexes {
			if m := re.FindStringSubmatch(t); m != nil {
				return strings.TrimSpace(m[1])
			}
		}
	}

	if price := firstText(block.Find("[class*=price]")); price != "" {
		return price
	}

	var price string
	block.Find("strong, b, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := collapseSpace(sel.Text())
		if priceHintRegex.MatchString(text) {
			price = text
			return false
		}
		return true
	})
	return price
}

func firstText(sel *goquery.Selection) string {
	var text string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = collapseSpace(s.Text())
		return text == ""
	})
	return text
}

// blockText joins the text nodes of a selection with single spaces,
// skipping script and style content
func blockText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return collapseSpace(strings.Join(parts, " "))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
