package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/circuit-architect/internal/solution"
)

func TestDetectChromePathPrefersEnv(t *testing.T) {
	t.Setenv("CHROME_PATH", "/opt/chrome/chrome")
	assert.Equal(t, "/opt/chrome/chrome", detectChromePath())
}

func TestNewPDFRendererDefaultsAndOptions(t *testing.T) {
	r := NewPDFRenderer()
	assert.Equal(t, PageA4, r.page)
	assert.Equal(t, DefaultPDFTimeout, r.timeout)

	r = NewPDFRenderer(
		WithChromePath("/bin/chrome"),
		WithTimeout(5*time.Second),
		WithPageSize(PageLetter),
		WithMargins(Margins{Top: 1, Right: 1, Bottom: 1, Left: 1}),
	)
	assert.Equal(t, "/bin/chrome", r.chromePath)
	assert.Equal(t, 5*time.Second, r.timeout)
	assert.Equal(t, PageLetter, r.page)

	r = NewPDFRenderer(WithTimeout(0), WithPageSize(PageSize{}))
	assert.Equal(t, DefaultPDFTimeout, r.timeout)
	assert.Equal(t, PageA4, r.page)
}

func TestPrintParamsFollowRendererSettings(t *testing.T) {
	r := NewPDFRenderer(WithPageSize(PageLetter), WithMargins(Margins{Top: 0.2, Right: 0.3, Bottom: 0.4, Left: 0.5}))
	p := r.printParams("Hub <v2>")
	assert.Equal(t, 8.5, p.PaperWidth)
	assert.Equal(t, 11.0, p.PaperHeight)
	assert.Equal(t, 0.2, p.MarginTop)
	assert.Equal(t, 0.3, p.MarginRight)
	assert.Equal(t, 0.4, p.MarginBottom)
	assert.Equal(t, 0.5, p.MarginLeft)
	assert.True(t, p.PrintBackground)
	assert.Contains(t, p.FooterTemplate, "Hub &lt;v2&gt;")
	assert.Contains(t, p.FooterTemplate, `class="totalPages"`)
}

func TestParsePageSize(t *testing.T) {
	for in, want := range map[string]PageSize{"": PageA4, "A4": PageA4, " letter ": PageLetter} {
		got, err := ParsePageSize(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
	_, err := ParsePageSize("legal")
	assert.Error(t, err)
}

func TestRenderFailsWithoutBrowser(t *testing.T) {
	r := NewPDFRenderer(WithChromePath(filepath.Join(t.TempDir(), "no-chrome")), WithTimeout(5*time.Second))
	_, err := r.Render(context.Background(), solution.DesignSolution{ID: "s1", Name: "Hub"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "print s1")
}

func TestApplyPrintLayoutHooksNoopWithoutMatches(t *testing.T) {
	in := "<h2>Modules</h2><table><tr><td>x</td></tr></table>"
	assert.Equal(t, in, applyPrintLayoutHooks(in))
}
