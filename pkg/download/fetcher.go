// Package download fetches imported media into the uploads directory.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/modularwp/media-import/pkg/sources/types"
)

// sniffLen is how many leading bytes are used to detect the MIME type.
const sniffLen = 3072

type Result struct {
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	Size      int64  `json:"size"`
	HumanSize string `json:"humanSize"`
}

type sizeObserver interface {
	ObserveDownload(size int64)
}

type Fetcher struct {
	fs         afero.Fs
	dir        string
	httpClient *http.Client
	observer   sizeObserver
	logger     *zerolog.Logger
}

// NewFetcher writes downloads below cfg.Dir on fs. A nil transport uses NewTransport(cfg).
// A custom transport should wrap NewTransport to keep the address checks.
func NewFetcher(fs afero.Fs, cfg Config, transport http.RoundTripper, logger *zerolog.Logger) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if transport == nil {
		transport = NewTransport(cfg)
	}

	return &Fetcher{
		fs:  fs,
		dir: cfg.Dir,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		logger: logger,
	}
}

func (f *Fetcher) WithObserver(o sizeObserver) *Fetcher {
	f.observer = o
	return f
}

// Fetch downloads the asset described by res, sending its headers.
func (f *Fetcher) Fetch(ctx context.Context, res *types.ImportResult) (*Result, error) {
	u, err := url.Parse(res.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, types.ValidationError{Field: "url", Reason: "Invalid download URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range res.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if errors.Is(err, ErrForbiddenAddress) {
		f.logger.Warn().Err(err).Str("host", u.Host).Msg("Refused download from a private address")
		return nil, types.ValidationError{Field: "url", Reason: "Download URL is not allowed"}
	}
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.UpstreamError{
			Service:    u.Host,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Download failed with status %d", resp.StatusCode),
		}
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read response: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head)

	name := filenameFor(res, detected)

	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}

	path, err := f.uniquePath(name)
	if err != nil {
		return nil, err
	}

	size, err := f.write(path, io.MultiReader(bytes.NewReader(head), resp.Body))
	if err != nil {
		return nil, err
	}

	if f.observer != nil {
		f.observer.ObserveDownload(size)
	}

	out := &Result{
		Path:      path,
		Filename:  filepath.Base(path),
		MimeType:  detected.String(),
		Size:      size,
		HumanSize: humanize.Bytes(uint64(size)),
	}

	f.logger.Info().
		Str("path", out.Path).
		Str("mime_type", out.MimeType).
		Str("size", out.HumanSize).
		Msg("Downloaded media")

	return out, nil
}

// write streams r into a partial file and renames it into place once complete.
func (f *Fetcher) write(path string, r io.Reader) (int64, error) {
	partial := path + ".part"

	file, err := f.fs.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	size, err := io.Copy(file, r)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = f.fs.Remove(partial)
		return 0, fmt.Errorf("write file: %w", err)
	}

	if err := f.fs.Rename(partial, path); err != nil {
		_ = f.fs.Remove(partial)
		return 0, fmt.Errorf("rename file: %w", err)
	}

	return size, nil
}

// uniquePath appends -1, -2, ... to the base name until it is free.
func (f *Fetcher) uniquePath(name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	path := filepath.Join(f.dir, name)
	for i := 1; ; i++ {
		exists, err := afero.Exists(f.fs, path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		if !exists {
			return path, nil
		}
		path = filepath.Join(f.dir, base+"-"+strconv.Itoa(i)+ext)
	}
}

func filenameFor(res *types.ImportResult, detected *mimetype.MIME) string {
	name := types.SanitizeFilename(res.Filename)
	if name == "" {
		name = types.SanitizeFilename(types.FilenameFromURL(res.URL))
	}
	if name == "" {
		name = "media-import-" + uuid.NewString()
	}

	if filepath.Ext(name) == "" {
		name += detected.Extension()
	}
	return name
}
