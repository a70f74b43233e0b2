package fetch

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/aryankodi12/AmazonWebScraper/internal/config"
)

// priceSelectors are tried in order; Amazon renders the price in different
// elements depending on the product and the experiment bucket.
var priceSelectors = []string{
	"#priceblock_ourprice",
	"#priceblock_dealprice",
	"#price_inside_buybox",
	".a-price .a-offscreen",
}

var _ Fetcher = (*AmazonFetcher)(nil)

// AmazonFetcher resolves an ASIN to the product's title and price by
// fetching and parsing its detail page.
type AmazonFetcher struct {
	client  *resty.Client
	baseURL string
}

func NewAmazonFetcher(cfg config.Fetcher) *AmazonFetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &AmazonFetcher{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (f *AmazonFetcher) Fetch(ctx context.Context, productRef string) (Snapshot, error) {
	url := fmt.Sprintf("%s/dp/%s", f.baseURL, productRef)

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get product page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Snapshot{}, fmt.Errorf("get product page: unexpected status code %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse product page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("#productTitle").First().Text())
	if title == "" {
		return Snapshot{}, fmt.Errorf("product title not found on page")
	}

	priceText := findPriceText(doc)
	if priceText == "" {
		return Snapshot{}, fmt.Errorf("product price not found on page")
	}

	price, err := ParsePrice(priceText)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse price: %w", err)
	}

	return Snapshot{Title: title, Price: price}, nil
}

func findPriceText(doc *goquery.Document) string {
	for _, selector := range priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}
