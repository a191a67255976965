package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/ramizpolic/agenthost/internal/tools"
)

const (
	fetchMaxBody        = 4 << 20
	fetchDefaultTimeout = 30 * time.Second
)

func registerFetchTool(registry *tools.Registry) error {
	def := tools.Definition{
		Name:        "fetch",
		Description: "Fetches a web page and returns its content as markdown, plain text or raw HTML.",
		Category:    "web",
		Version:     "1.0",
		Parameters: []tools.Parameter{
			{
				Name:        "url",
				Type:        tools.TypeString,
				Description: "The http(s) URL to fetch",
				Required:    true,
			},
			{
				Name:        "format",
				Type:        tools.TypeString,
				Description: "How to render the fetched page",
				Enum:        []string{"markdown", "text", "html"},
				Default:     "markdown",
			},
			{
				Name:        "timeout",
				Type:        tools.TypeInteger,
				Description: "Request timeout in seconds",
				Minimum:     floatPtr(1),
				Maximum:     floatPtr(120),
			},
		},
		Returns: map[string]any{"type": "string"},
	}

	return registry.Register(def, fetchPage)
}

func fetchPage(ctx context.Context, params map[string]any) (*tools.ExecutionResult, error) {
	url, _ := params["url"].(string)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return tools.Fail(fmt.Sprintf("unsupported URL scheme in %q", url)), nil
	}

	timeout := fetchDefaultTimeout
	if secs, ok := params["timeout"].(float64); ok {
		timeout = time.Duration(secs) * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return tools.Fail(fmt.Sprintf("invalid URL %q: %v", url, err)), nil
	}
	req.Header.Set("User-Agent", "agenthost/1.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return tools.Fail(fmt.Sprintf("fetch failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return tools.Fail(fmt.Sprintf("fetch failed: %s returned status %d", url, resp.StatusCode)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBody))
	if err != nil {
		return tools.Fail(fmt.Sprintf("reading response failed: %v", err)), nil
	}
	log.Debug("fetched page", "url", url, "bytes", len(body))

	format, _ := params["format"].(string)
	if format == "html" || !strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return tools.Succeed(string(body), "text"), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return tools.Fail(fmt.Sprintf("parsing HTML failed: %v", err)), nil
	}
	doc.Find("script, style, noscript").Remove()

	if format == "text" {
		return tools.Succeed(strings.TrimSpace(doc.Text()), "text"), nil
	}

	converter := md.NewConverter("", true, nil)
	markdown := converter.Convert(doc.Selection)
	return tools.Succeed(strings.TrimSpace(markdown), "text"), nil
}
