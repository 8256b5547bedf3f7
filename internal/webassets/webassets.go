// Package webassets mirrors the front-end libraries (KaTeX, Chart.js,
// ECharts, Mermaid) into the output tree so generated pages work when
// opened over file:// where browsers block CDN requests.
package webassets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hzhou/vibepapers/internal/fileutil"
)

const (
	katexVersion  = "0.16.21"
	katexCDN      = "https://cdn.jsdelivr.net/npm/katex@" + katexVersion + "/dist"
	downloadLimit = 4
	fetchTimeout  = 60 * time.Second
)

// Asset is one downloadable file, addressed relative to the assets dir.
type Asset struct {
	RelPath string
	URL     string
}

// katexFonts lists the woff2 files KaTeX needs for correct rendering.
var katexFonts = []string{
	"KaTeX_AMS-Regular.woff2",
	"KaTeX_Caligraphic-Bold.woff2",
	"KaTeX_Caligraphic-Regular.woff2",
	"KaTeX_Fraktur-Bold.woff2",
	"KaTeX_Fraktur-Regular.woff2",
	"KaTeX_Main-Bold.woff2",
	"KaTeX_Main-BoldItalic.woff2",
	"KaTeX_Main-Italic.woff2",
	"KaTeX_Main-Regular.woff2",
	"KaTeX_Math-BoldItalic.woff2",
	"KaTeX_Math-Italic.woff2",
	"KaTeX_Math-Regular.woff2",
	"KaTeX_SansSerif-Bold.woff2",
	"KaTeX_SansSerif-Italic.woff2",
	"KaTeX_SansSerif-Regular.woff2",
	"KaTeX_Script-Regular.woff2",
	"KaTeX_Size1-Regular.woff2",
	"KaTeX_Size2-Regular.woff2",
	"KaTeX_Size3-Regular.woff2",
	"KaTeX_Size4-Regular.woff2",
	"KaTeX_Typewriter-Regular.woff2",
}

// Manifest returns every asset the generated pages reference.
func Manifest() []Asset {
	assets := []Asset{
		{RelPath: "katex/katex.min.css", URL: katexCDN + "/katex.min.css"},
		{RelPath: "katex/katex.min.js", URL: katexCDN + "/katex.min.js"},
		{RelPath: "katex/contrib/auto-render.min.js", URL: katexCDN + "/contrib/auto-render.min.js"},
	}
	for _, font := range katexFonts {
		assets = append(assets, Asset{
			RelPath: "katex/fonts/" + font,
			URL:     katexCDN + "/fonts/" + font,
		})
	}
	assets = append(assets,
		Asset{RelPath: "chart.umd.min.js", URL: "https://cdn.jsdelivr.net/npm/chart.js@4/dist/chart.umd.min.js"},
		Asset{RelPath: "echarts.min.js", URL: "https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"},
		// Mermaid UMD is self-contained and works over file://, unlike the ESM build.
		Asset{RelPath: "mermaid.min.js", URL: "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"},
	)
	return assets
}

// Ensure downloads every manifest asset into <htmlRoot>/assets. Files that
// already exist with size > 0 are kept. Individual download failures are
// logged but never fail the run; the returned count is how many manifest
// files are present afterwards.
func Ensure(ctx context.Context, log zerolog.Logger, htmlRoot string) (string, int) {
	assetsDir := filepath.Join(htmlRoot, "assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", assetsDir).Msg("assets dir not created")
		return assetsDir, 0
	}

	manifest := Manifest()
	client := &http.Client{Timeout: fetchTimeout}

	sem := make(chan struct{}, downloadLimit)
	var wg sync.WaitGroup
	for _, asset := range manifest {
		dest := filepath.Join(assetsDir, filepath.FromSlash(asset.RelPath))
		if cached(dest) {
			continue
		}

		wg.Add(1)
		go func(asset Asset, dest string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := downloadOne(ctx, client, asset.URL, dest); err != nil {
				log.Warn().Err(err).Str("url", asset.URL).Msg("asset download failed")
				return
			}
			log.Debug().Str("path", asset.RelPath).Msg("asset downloaded")
		}(asset, dest)
	}
	wg.Wait()

	present := 0
	for _, asset := range manifest {
		if cached(filepath.Join(assetsDir, filepath.FromSlash(asset.RelPath))) {
			present++
		}
	}
	log.Info().Int("present", present).Int("total", len(manifest)).Str("dir", assetsDir).Msg("assets ready")
	return assetsDir, present
}

func cached(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

func downloadOne(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(dest, data, 0o644)
}
