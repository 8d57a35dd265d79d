package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"NewsFetcher/internal/infrastructure/web"
)

const (
	bodyLimit    = 1000
	summaryLimit = 300
)

var errEmptyArticle = errors.New("readability returned no content")

// article is the readable part of a linked page.
type article struct {
	Title string
	Text  string
	Image string
}

// readArticle fetches link and runs readability over it.
func readArticle(ctx context.Context, fetcher *web.Fetcher, link string) (article, []byte, error) {
	page, err := fetcher.Get(ctx, link)
	if err != nil {
		return article{}, nil, err
	}
	parsed, err := parseArticle(page.Body, page.FinalURL)
	return parsed, page.Body, err
}

func parseArticle(body []byte, pageURL string) (article, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return article{}, fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	extracted, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return article{}, fmt.Errorf("readability %s: %w", pageURL, err)
	}

	result := article{
		Title: collapse(extracted.Title),
		Text:  collapse(extracted.TextContent),
		Image: strings.TrimSpace(extracted.Image),
	}
	if result.Title == "" || result.Text == "" {
		return result, errEmptyArticle
	}
	return result, nil
}

// scrapeArticle is the generic fallback when readability yields nothing usable.
func scrapeArticle(body []byte) (article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return article{}, fmt.Errorf("parse document: %w", err)
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()

	title := collapse(doc.Find("title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}

	var text string
	for _, selector := range []string{"article", "main", "[role=main]", ".content", ".post", ".entry-content"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			text = collapse(sel.Text())
			if text != "" {
				break
			}
		}
	}
	if text == "" {
		text = collapse(doc.Find("body").Text())
	}

	image, _ := doc.Find(`meta[property="og:image"]`).Attr("content")

	return article{Title: title, Text: text, Image: strings.TrimSpace(image)}, nil
}

// htmlText strips markup from a feed summary.
func htmlText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
