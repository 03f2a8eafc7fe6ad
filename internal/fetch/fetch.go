// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads provider files into the output directory. A file
// is fetched at most once per name and an existing file is never replaced.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/shelfgrab/internal/httputil"
)

// ErrDownloadFailed wraps every reason a download did not produce a file.
var ErrDownloadFailed = errors.New("download failed")

// Result describes a successful download.
type Result struct {
	// Name is the file name inside the output directory.
	Name string
	// Path is the full path of the file.
	Path string
	// AlreadyPresent is true when the file existed and nothing was fetched.
	AlreadyPresent bool
	// Bytes is the number of bytes written; zero when AlreadyPresent.
	Bytes int64
}

// Downloader writes files into a single output directory.
type Downloader struct {
	client *httputil.Client
	dir    string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a Downloader writing into dir. The directory is created on
// first use.
func New(client *httputil.Client, dir string) *Downloader {
	return &Downloader{
		client: client,
		dir:    dir,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Dir returns the output directory.
func (d *Downloader) Dir() string { return d.dir }

// TargetName returns name when set, otherwise the URL-decoded last path
// segment of locator. Path separators are replaced so the result always
// names a file directly inside the output directory.
func TargetName(locator, name string) (string, error) {
	if name == "" {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("parsing locator %q: %w", locator, err)
		}
		seg := path.Base(u.EscapedPath())
		if seg == "/" || seg == "." {
			return "", fmt.Errorf("no file name in %q", locator)
		}
		if dec, err := url.PathUnescape(seg); err == nil {
			seg = dec
		}
		name = seg
	}
	name = strings.TrimSpace(strings.NewReplacer("/", "_", "\\", "_").Replace(name))
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("no usable file name for %q", locator)
	}
	return name, nil
}

// Download fetches locator into the output directory under TargetName.
// When the locator carries a query string and no name is given, the
// response's Content-Disposition filename names the file. Otherwise an
// existing target returns immediately with AlreadyPresent set and no
// request is made. A non-2xx response or a streaming error leaves no file
// behind and returns ErrDownloadFailed.
func (d *Downloader) Download(ctx context.Context, locator, name string) (Result, error) {
	var resp *http.Response
	if name == "" && hasQuery(locator) {
		r, err := d.get(ctx, locator)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
		}
		defer r.Body.Close()
		resp = r
		name = attachmentName(r.Header.Get("Content-Disposition"))
	}

	name, err := TargetName(locator, name)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	dest := filepath.Join(d.dir, name)

	unlock := d.lock(name)
	defer unlock()

	if exists(dest) {
		slog.Debug("file already present", "file", name)
		return Result{Name: name, Path: dest, AlreadyPresent: true}, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: creating %s: %v", ErrDownloadFailed, d.dir, err)
	}

	if resp == nil {
		r, err := d.get(ctx, locator)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, name, err)
		}
		defer r.Body.Close()
		resp = r
	}

	n, err := d.writeTo(resp.Body, dest)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Result{Name: name, Path: dest, AlreadyPresent: true}, nil
		}
		return Result{}, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, name, err)
	}

	if !exists(dest) {
		return Result{}, fmt.Errorf("%w: %s missing after write", ErrDownloadFailed, name)
	}
	return Result{Name: name, Path: dest, Bytes: n}, nil
}

// get issues the request and rejects non-2xx responses.
func (d *Downloader) get(ctx context.Context, locator string) (*http.Response, error) {
	resp, err := d.client.Get(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, locator)
	}
	return resp, nil
}

// link is replaced in tests to simulate filesystems without hard links.
var link = os.Link

// writeTo streams body into a temporary file next to dest and moves it into
// place without ever replacing an existing file.
func (d *Downloader) writeTo(body io.Reader, dest string) (int64, error) {
	tmp, err := os.CreateTemp(d.dir, ".shelfgrab-*.part")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return n, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("closing temp file: %w", closeErr)
	}

	err = link(tmpPath, dest)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return n, err
	}
	slog.Debug("hard link unavailable, copying", "file", filepath.Base(dest), "error", err)
	return n, copyExclusive(tmpPath, dest)
}

// copyExclusive copies src to a newly created dest. It fails with
// fs.ErrExist when dest exists and removes a partial dest on error.
func copyExclusive(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(dest)
		return fmt.Errorf("copying into place: %w", err)
	}
	return nil
}

// attachmentName returns the filename parameter of a Content-Disposition
// header, or "" when there is none.
func attachmentName(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil || params["filename"] == "" {
		return ""
	}
	return filepath.Base(params["filename"])
}

func hasQuery(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && u.RawQuery != ""
}

func (d *Downloader) lock(name string) func() {
	d.mu.Lock()
	l, ok := d.locks[name]
	if !ok {
		l = &sync.Mutex{}
		d.locks[name] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
