package importer

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wattfinder/wattfinder/pkg/sources/shared"
)

// DiscoveryTimeout controls how long we wait for a provider landing page.
var DiscoveryTimeout = 10 * time.Second

// DiscoverEFLURL fetches a provider landing page and discovers the most
// plausible Electricity Facts Label PDF URL on it.
func DiscoverEFLURL(landingURL string) (string, error) {
	if landingURL == "" {
		return "", errors.New("no landing URL")
	}

	client := &http.Client{Timeout: DiscoveryTimeout}
	resp, err := client.Get(landingURL)
	if err != nil {
		return "", fmt.Errorf("fetch landing url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("landing url returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read landing body: %w", err)
	}

	return discoverEFLURLFromHTML(landingURL, string(body))
}

func discoverEFLURLFromHTML(baseURL, html string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	type candidate struct {
		rawHref string
		text    string
		score   int
	}

	var candidates []candidate

	// Anchor tags with link text
	anchorRe := regexp.MustCompile(`(?is)<a[^>]+href="([^"]+\.pdf)"[^>]*>([^<]*)</a>`)
	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		text := strings.TrimSpace(htmlUnescape(m[2]))
		candidates = append(candidates, candidate{rawHref: href, text: text, score: scoreEFLCandidate(href, text)})
	}

	// Fallback: any href="...pdf"
	if len(candidates) == 0 {
		hrefRe := regexp.MustCompile(`(?i)href="([^"]+\.pdf)"`)
		for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
			href := strings.TrimSpace(m[1])
			candidates = append(candidates, candidate{rawHref: href, score: scoreEFLCandidate(href, "")})
		}
	}

	if len(candidates) == 0 {
		return "", errors.New("no PDF links found on page")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		iHTTPS := strings.HasPrefix(strings.ToLower(candidates[i].rawHref), "https://")
		jHTTPS := strings.HasPrefix(strings.ToLower(candidates[j].rawHref), "https://")
		if iHTTPS != jHTTPS {
			return iHTTPS
		}
		return candidates[i].rawHref < candidates[j].rawHref
	})

	best := candidates[0].rawHref
	bestURL, err := base.Parse(best)
	if err != nil {
		return "", fmt.Errorf("resolve href %q: %w", best, err)
	}

	return bestURL.String(), nil
}

func scoreEFLCandidate(href, text string) int {
	hrefLower := strings.ToLower(href)
	textLower := strings.ToLower(text)

	score := 0

	if strings.Contains(textLower, "electricity facts") || strings.Contains(textLower, "facts label") {
		score += 5
	}
	if strings.Contains(textLower, "efl") {
		score += 4
	}
	if strings.Contains(hrefLower, "efl") || strings.Contains(hrefLower, "facts") {
		score += 3
	}
	if strings.Contains(textLower, "residential") || strings.Contains(hrefLower, "residential") {
		score += 2
	}
	if strings.Contains(textLower, "current") {
		score += 1
	}

	return score
}

func htmlUnescape(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return replacer.Replace(s)
}

// DownloadEFL downloads an EFL PDF into path, atomically.
func DownloadEFL(eflURL, path string) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(eflURL)
	if err != nil {
		return fmt.Errorf("download efl: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("efl download returned status %d", resp.StatusCode)
	}
	if path == "" {
		return errors.New("no download path configured")
	}
	return shared.WriteFileAtomically(path, resp.Body)
}
