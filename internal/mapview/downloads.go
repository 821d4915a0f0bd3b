package mapview

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"travelmap-api/internal/errors"
)

// DownloadPathPrefix is where download handles are served.
const DownloadPathPrefix = "/downloads/"

// Download is the viewer's download affordance for one image.
type Download struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ImageData string    `json:"-"`
	FileName  string    `json:"fileName"`
	CreatedAt time.Time `json:"createdAt"`
}

// Downloads keeps at most one live download handle. Creating a handle
// releases the previous one first.
type Downloads struct {
	mu        sync.Mutex
	current   *Download
	onRelease func(Download)
}

// NewDownloads returns an empty registry. onRelease, when non-nil, is called
// for every handle that is released.
func NewDownloads(onRelease func(Download)) *Downloads {
	return &Downloads{onRelease: onRelease}
}

// Create releases the live handle, if any, and issues a new one.
func (d *Downloads) Create(imageData, fileName string) Download {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.releaseLocked()

	token := uuid.NewString()
	d.current = &Download{
		Token:     token,
		URL:       DownloadPathPrefix + token,
		ImageData: imageData,
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
	}
	return *d.current
}

// Resolve returns the handle for token if it is the live one.
func (d *Downloads) Resolve(token string) (Download, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil || d.current.Token != token {
		return Download{}, errors.ErrNotFound
	}
	return *d.current, nil
}

// Current returns the live handle.
func (d *Downloads) Current() (Download, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return Download{}, false
	}
	return *d.current, true
}

// Release drops the live handle.
func (d *Downloads) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseLocked()
}

func (d *Downloads) releaseLocked() {
	if d.current == nil {
		return
	}
	released := *d.current
	d.current = nil
	if d.onRelease != nil {
		d.onRelease(released)
	}
}
