// Package importer finds the main product photo of a shop's product page.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/fitly-outfits/utils"
)

// ErrNoImage means the page carries no usable product image.
var ErrNoImage = errors.New("no product image found on page")

// image sources in order of preference
var imageSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[property="og:image"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
	{`img#landingImage`, "src"},
	{`img[itemprop="image"]`, "src"},
}

// ImageFinder reads product pages over HTTP.
type ImageFinder struct {
	client *http.Client
}

func NewImageFinder(client *http.Client) *ImageFinder {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ImageFinder{client: client}
}

// FindImage returns the absolute URL of the product image on pageURL.
func (f *ImageFinder) FindImage(ctx context.Context, pageURL string) (string, error) {
	resolved, err := utils.ResolveShortenedURL(ctx, f.client, pageURL)
	if err != nil {
		resolved = pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch product page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch product page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse product page: %w", err)
	}
	return FindImageInDocument(doc, resp.Request.URL)
}

// FindImageInDocument picks the product image from a parsed page.
func FindImageInDocument(doc *goquery.Document, base *url.URL) (string, error) {
	for _, s := range imageSelectors {
		var found string
		doc.Find(s.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			v, ok := sel.Attr(s.attr)
			v = strings.TrimSpace(v)
			if !ok || v == "" || strings.HasPrefix(v, "data:") {
				return true
			}
			found = v
			return false
		})
		if found == "" {
			continue
		}
		ref, err := url.Parse(found)
		if err != nil {
			continue
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		return ref.String(), nil
	}
	return "", ErrNoImage
}
