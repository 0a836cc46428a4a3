// Package discovery renders the mirror's search page in a headless
// browser and extracts candidate posts from the resulting DOM.
package discovery

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rafaelpirescs/X-Web-Scraping/internal/collector"
)

// postContainerSelector matches both Nitter card layouts.
const postContainerSelector = "div.tweet-card, div.timeline-item"

var statCleaner = regexp.MustCompile(`[^\d.km]`)

// ParsePosts extracts candidate posts from a rendered search page.
// Posts without a resolvable id, text, or username are dropped; they
// cannot be deduplicated or attributed.
func ParsePosts(html string, instanceURL string) ([]collector.CandidatePost, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	instanceURL = strings.TrimSuffix(instanceURL, "/")
	var posts []collector.CandidatePost
	doc.Find(postContainerSelector).Each(func(_ int, item *goquery.Selection) {
		post, ok := parsePostItem(item, instanceURL)
		if !ok {
			return
		}
		posts = append(posts, post)
	})
	return posts, nil
}

func parsePostItem(item *goquery.Selection, instanceURL string) (collector.CandidatePost, bool) {
	postPath, _ := item.Find(`a[href*="/status/"]`).First().Attr("href")
	if i := strings.Index(postPath, "#"); i >= 0 {
		postPath = postPath[:i]
	}
	id := postIDFromPath(postPath)
	if id == "" {
		return collector.CandidatePost{}, false
	}

	text := strings.TrimSpace(item.Find("div.tweet-content").First().Text())
	if text == "" {
		return collector.CandidatePost{}, false
	}

	username := strings.TrimPrefix(strings.TrimSpace(item.Find("a.username").First().Text()), "@")
	if username == "" {
		return collector.CandidatePost{}, false
	}

	dateText, _ := item.Find(".tweet-date a").First().Attr("title")

	stats := item.Find(".tweet-stats").First()
	post := collector.CandidatePost{
		ID:          id,
		URL:         fmt.Sprintf("https://x.com/%s/status/%s", username, id),
		PublishedAt: ParseNitterDate(dateText),
		Username:    username,
		DisplayName: strings.TrimSpace(item.Find("a.fullname").First().Text()),
		Verified:    item.Find(".icon-verified").Length() > 0,
		Replies:     statValue(stats, ".icon-comment"),
		Reposts:     statValue(stats, ".icon-retweet"),
		Likes:       statValue(stats, ".icon-heart"),
		Text:        text,
		Attachments: parseAttachments(item, instanceURL, postPath),
	}
	return post, true
}

func parseAttachments(item *goquery.Selection, instanceURL, postPath string) []collector.Attachment {
	if item.Find("div.attachments .attachment.video-container").Length() > 0 {
		// Video streams are not directly addressable on the mirror; the
		// downloader resolves them from the post page itself.
		return []collector.Attachment{{
			MediaURL: instanceURL + postPath,
			TypeHint: "video",
		}}
	}
	src, ok := item.Find("div.attachments .attachment.image img").First().Attr("src")
	if !ok || src == "" {
		return nil
	}
	if strings.HasPrefix(src, "/") {
		src = instanceURL + src
	}
	return []collector.Attachment{{
		MediaURL: src,
		TypeHint: "image",
	}}
}

func postIDFromPath(path string) string {
	const marker = "/status/"
	i := strings.LastIndex(path, marker)
	if i < 0 {
		return ""
	}
	return path[i+len(marker):]
}

func statValue(stats *goquery.Selection, iconSelector string) *int {
	icon := stats.Find(iconSelector)
	if icon.Length() == 0 {
		return nil
	}
	return ParseStatValue(icon.Parent().Text())
}

// ParseStatValue parses an engagement counter like "1,234", "5.2K", or
// "1.1M". It returns nil when the text carries no readable number, which
// the record preserves as unknown rather than zero.
func ParseStatValue(text string) *int {
	cleaned := statCleaner.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "")
	if cleaned == "" {
		return nil
	}
	multiplier := 1.0
	switch {
	case strings.Contains(cleaned, "k"):
		multiplier = 1_000
		cleaned = strings.ReplaceAll(cleaned, "k", "")
	case strings.Contains(cleaned, "m"):
		multiplier = 1_000_000
		cleaned = strings.ReplaceAll(cleaned, "m", "")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	n := int(value * multiplier)
	return &n
}

// nitterDateLayout matches the tweet-date title attribute once the
// decorations ("· ", " UTC") are stripped.
const nitterDateLayout = "Jan 2, 2006 3:04 PM"

// ParseNitterDate converts the mirror's timestamp text to RFC 3339 UTC.
// Unparseable input is returned verbatim so no information is lost.
func ParseNitterDate(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, "· ", ""), " UTC", ""))
	parsed, err := time.Parse(nitterDateLayout, cleaned)
	if err != nil {
		return text
	}
	return parsed.UTC().Format("2006-01-02T15:04:05Z")
}
