package report

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joelkehle/circuit-architect/internal/solution"
)

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	sectionBreakRe = regexp.MustCompile(`(?i)<h2([^>]*)>\s*(Architecture|R&amp;D Workflow)\s*</h2>`)
	riskCellRe     = regexp.MustCompile(`<td>(low|medium|high)</td>`)
)

const documentCSS = `body{font-family:-apple-system,"Segoe UI",Helvetica,Arial,sans-serif;color:#1c1917;background:#fff;margin:0;padding:0.6rem;line-height:1.45;}
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
.report{max-width:1000px;margin:0 auto;}
.report h1{border-bottom:3px solid #0f766e;padding-bottom:0.3rem;}
.report h2{margin-top:1.6rem;color:#134e4a;}
.report table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.8rem;}
.report th,.report td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;vertical-align:top;}
.report thead th{background:#f1f5f9;font-weight:700;}
.risk-low{background:#dcfce7;} .risk-medium{background:#fef9c3;} .risk-high{background:#fee2e2;}
h2[data-page-break-before="true"]{break-before:page;page-break-before:always;}
@media print{@page{size:auto;margin:12mm;} body{padding:0;}}`

// HTML converts report Markdown to an HTML fragment.
func HTML(markdown string) (string, error) {
	var out strings.Builder
	if err := md.Convert([]byte(markdown), &out); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return out.String(), nil
}

// Document renders a solution as a standalone HTML page.
func Document(sol solution.DesignSolution) (string, error) {
	content, err := HTML(Markdown(sol))
	if err != nil {
		return "", err
	}
	title := sol.Name
	if title == "" {
		title = "Design Solution"
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + documentCSS + "</style></head><body><main class='report'>" +
		applyPrintLayoutHooks(content) +
		"</main></body></html>", nil
}

func applyPrintLayoutHooks(contentHTML string) string {
	out := sectionBreakRe.ReplaceAllString(contentHTML, `<h2$1 data-page-break-before="true">$2</h2>`)
	return riskCellRe.ReplaceAllString(out, `<td class="risk-$1">$1</td>`)
}
