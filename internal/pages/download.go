package pages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/polzovatel/uibdd/internal/assert"
	"github.com/polzovatel/uibdd/internal/web"
)

// DownloadPageURL lists files served for download.
const DownloadPageURL = "https://the-internet.herokuapp.com/download"

// DownloadPage is a file listing whose links start downloads.
type DownloadPage struct {
	ui    *web.UI
	check *assert.Asserter
	url   string
}

func NewDownloadPage(ui *web.UI, check *assert.Asserter, url string) DownloadPage {
	if url == "" {
		url = DownloadPageURL
	}
	return DownloadPage{ui: ui, check: check, url: url}
}

func (p DownloadPage) Navigate(ctx context.Context) error {
	return p.ui.Goto(ctx, p.url)
}

func fileLink(name string) string {
	return fmt.Sprintf(`a[href="download/%s"]`, name)
}

// Download fetches the linked file and returns the name it was saved under.
func (p DownloadPage) Download(ctx context.Context, name string) (string, error) {
	return p.ui.DownloadFile(ctx, fileLink(name))
}

// Saved checks that name sits in the download directory and is not empty.
func (p DownloadPage) Saved(name string) error {
	info, err := os.Stat(filepath.Join(p.ui.DownloadPath(), name))
	if err != nil {
		return fmt.Errorf("downloaded file %s: %w", name, err)
	}
	return p.check.True(info.Size() > 0, false)
}
