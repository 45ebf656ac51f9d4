package extract

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/summarizely/pdf-summarizer/internal/common"
)

// Document is the normalized output of extraction: page texts in
// document order with page-boundary markers, each page's detected
// tables serialized right after its text.
type Document struct {
	Filename  string
	Text      string
	Pages     int // pages actually processed
	Total     int // pages in the PDF
	Truncated bool
}

// Config tunes the extractor.
type Config struct {
	Timeout      time.Duration // bound on the whole fetch
	MaxPages     int           // pages beyond this are silently dropped
	MaxBodyBytes int64         // 0 means no limit
}

// Extractor downloads one PDF and returns its normalized content.
type Extractor struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	return &Extractor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Extract fetches rawURL and pulls text and tables out of the PDF.
// Fetch-level problems surface as *common.FetchError; a PDF with no
// extractable text surfaces as *common.EmptyContentError.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (Document, error) {
	start := time.Now()
	e.log.Info("extract.fetch.start", "url", rawURL)

	body, filename, err := e.fetch(ctx, rawURL)
	if err != nil {
		e.log.Error("extract.fetch.failed", "url", rawURL, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Document{}, err
	}

	doc, err := e.parse(body, filename)
	if err != nil {
		e.log.Error("extract.parse.failed", "url", rawURL, "filename", filename, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Document{}, err
	}

	e.log.Info("extract.ok",
		"url", rawURL,
		"filename", doc.Filename,
		"pages", doc.Pages,
		"total_pages", doc.Total,
		"text_bytes", len(doc.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", common.NewFetchError(rawURL, "build request", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", common.NewFetchError(rawURL, "request failed", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			e.log.Warn("extract.body_close_failed", "url", rawURL, "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", common.NewFetchError(rawURL,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(strings.ToLower(ct), "pdf") {
		return nil, "", common.NewFetchError(rawURL,
			fmt.Sprintf("not a PDF (Content-Type: %s)", ct), nil)
	}

	var r io.Reader = resp.Body
	if e.cfg.MaxBodyBytes > 0 {
		r = io.LimitReader(resp.Body, e.cfg.MaxBodyBytes)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, "", common.NewFetchError(rawURL, "read body", err)
	}

	return body, filenameFor(rawURL, resp.Header.Get("Content-Disposition")), nil
}

// parse walks the PDF page by page, concatenating page text with
// boundary markers and appending each page's serialized tables.
func (e *Extractor) parse(body []byte, filename string) (doc Document, err error) {
	// The PDF parser panics on some malformed files; contain that to
	// this URL's processing.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return Document{}, fmt.Errorf("open pdf %s: %w", filename, err)
	}

	total := reader.NumPage()
	maxPages := total
	if maxPages > e.cfg.MaxPages {
		maxPages = e.cfg.MaxPages
	}

	var b strings.Builder
	for n := 1; n <= maxPages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}

		text, terr := page.GetPlainText(nil)
		if terr != nil {
			e.log.Warn("extract.page_text_failed", "filename", filename, "page", n, "error", terr)
			text = ""
		}
		appendPage(&b, n, text, detectTables(page))
	}

	if total > maxPages {
		fmt.Fprintf(&b, "\n[Note: only first %d of %d pages processed]\n", maxPages, total)
	}

	full := b.String()
	if strings.TrimSpace(full) == "" {
		return Document{}, &common.EmptyContentError{Filename: filename}
	}

	return Document{
		Filename:  filename,
		Text:      full,
		Pages:     maxPages,
		Total:     total,
		Truncated: total > maxPages,
	}, nil
}

// appendPage writes one page's text and serialized tables into the
// document buffer. Each block ends with a newline and each marker
// starts with one, so blocks stay blank-line separated paragraphs and
// downstream chunking never cuts inside a table.
func appendPage(b *strings.Builder, n int, text string, tables []tableGrid) {
	if strings.TrimSpace(text) != "" {
		fmt.Fprintf(b, "\n--- Page %d ---\n", n)
		b.WriteString(text)
		// GetPlainText output carries no trailing newline.
		b.WriteString("\n")
	}

	for i, tbl := range tables {
		fmt.Fprintf(b, "\n[Table %d on Page %d]\n", i+1, n)
		b.WriteString(serializeTable(tbl))
		b.WriteString("\n")
	}
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// filenameFor derives a stored filename: Content-Disposition first,
// then the URL path basename, then a hash-based fallback.
func filenameFor(rawURL, contentDisposition string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := params["filename"]; name != "" {
				return sanitizeFilename(name)
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "." && name != "/" && strings.HasSuffix(strings.ToLower(name), ".pdf") {
			return sanitizeFilename(name)
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(rawURL))
	return fmt.Sprintf("document_%05d.pdf", h.Sum32()%100000)
}

func sanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "_")
	if len(name) > 200 {
		ext := path.Ext(name)
		name = name[:200-len(ext)] + ext
	}
	return name
}
