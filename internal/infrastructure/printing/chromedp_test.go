package printing

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChromedpRenderer_Defaults(t *testing.T) {
	r := NewChromedpRenderer(nil)
	defer r.Close()

	assert.Equal(t, defaultChromeTimeout, r.config.DefaultTimeout)
	assert.NotNil(t, r.logger)
	assert.NotNil(t, r.allocCtx)
}

func TestChromedpRenderer_EmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	defer r.Close()

	for _, req := range []*RenderRequest{nil, {HTML: "   "}} {
		_, err := r.Render(context.Background(), req)
		require.Error(t, err)
		var renderErr *RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
	}
}

func TestMmToInches(t *testing.T) {
	assert.InDelta(t, 8.27, mmToInches(PageWidth), 0.01)
	assert.InDelta(t, 11.69, mmToInches(PageHeight), 0.01)
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount(nil))
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
}

func TestChromedpRenderer_Render(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	execPath := ""
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			execPath = p
			break
		}
	}
	if execPath == "" {
		t.Skip("no Chrome binary available")
	}

	r := NewChromedpRenderer(&ChromedpConfig{ExecPath: execPath, NoSandbox: true, DefaultTimeout: 30 * time.Second})
	defer r.Close()

	engine, err := NewTemplateEngine("")
	require.NoError(t, err)
	html, err := engine.Render(Layout(sampleDocument(3), ModeWarehouse))
	require.NoError(t, err)

	result, err := r.Render(context.Background(), &RenderRequest{HTML: html})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(result.PDFData[:4]))
	assert.GreaterOrEqual(t, result.PageCount, 1)
}
