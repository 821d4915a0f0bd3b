// Package controller owns the application state and turns user commands
// into store calls and map updates.
package controller

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/feed"
	"travelmap-api/internal/mapview"
	"travelmap-api/internal/models"
	"travelmap-api/internal/services"
	"travelmap-api/internal/utils"
)

type Mode string

const (
	ModeMain   Mode = "main"
	ModeShared Mode = "shared"
)

// genericNotice is shown for failures that are not user-facing rejections.
const genericNotice = "Something went wrong. Please try again."

// AppState is the controller's mutable state.
type AppState struct {
	Photos          []models.PhotoRecord
	Feed            []models.SharedPhotoRecord
	SelectedPhotoID int64 // 0 when nothing is selected
	Mode            Mode
	Uploading       bool
	PanelOpen       bool
}

// Ingester turns uploaded files into photo records.
type Ingester interface {
	Ingest(ctx context.Context, files []models.Upload) *services.IngestResult
}

// Publisher receives the scene after every state change.
type Publisher interface {
	Publish(scene Scene)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Scene)

func (f PublisherFunc) Publish(s Scene) { f(s) }

// ThumbnailCache holds thumbnails derived from personal photos.
type ThumbnailCache interface {
	ForgetThumbnails()
}

// Result is the outcome of one command.
type Result struct {
	Scene  Scene  `json:"scene"`
	Notice string `json:"notice,omitempty"`
}

type Controller struct {
	mu         sync.Mutex
	state      AppState
	photos     services.PhotoStore
	feed       *feed.Service
	ingester   Ingester
	view       *mapview.Map
	downloads  *mapview.Downloads
	publisher  Publisher
	thumbnails ThumbnailCache
	logger     *zap.Logger
}

type Option func(*Controller)

func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithThumbnailCache makes ClearPhotos drop cached thumbnails.
func WithThumbnailCache(tc ThumbnailCache) Option {
	return func(c *Controller) { c.thumbnails = tc }
}

func New(photos services.PhotoStore, feedService *feed.Service, ingester Ingester, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		state:    AppState{Mode: ModeMain},
		photos:   photos,
		feed:     feedService,
		ingester: ingester,
		view:     mapview.New(),
		logger:   logger,
	}
	c.downloads = mapview.NewDownloads(func(d mapview.Download) {
		c.logger.Debug("download handle released", zap.String("token", d.Token))
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch runs one command. The returned Result always carries the current
// scene; when err is non-nil it also carries the notice to show. Rejections
// (errors.IsNotice) leave the state unchanged.
func (c *Controller) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	if up, ok := cmd.(UploadPhotos); ok {
		return c.uploadPhotos(ctx, up.Files)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch cmd := cmd.(type) {
	case LoadState:
		err = c.loadLocked(ctx)
	case SetDateFilter:
		err = c.view.SetFilter(cmd.Date, c.state.Photos)
	case ToggleRoute:
		err = c.view.ToggleRoute(c.state.Photos)
	case SelectPhoto:
		err = c.selectPhotoLocked(cmd.ID)
	case ClearPhotos:
		err = c.clearPhotosLocked(ctx, cmd.Confirmed)
	case SharePhoto:
		err = c.sharePhotoLocked(ctx)
	case SwitchView:
		err = c.switchViewLocked(cmd.Mode)
	case ToggleLike:
		err = c.replaceSharedLocked(c.feed.ToggleLike(ctx, cmd.ID))
	case AddComment:
		err = c.replaceSharedLocked(c.feed.AddComment(ctx, cmd.ID, cmd.Text))
	case SelectFeedItem:
		err = c.selectFeedItemLocked(cmd.ID)
	default:
		err = fmt.Errorf("%w: unsupported command %T", errors.ErrInvalidInput, cmd)
	}

	c.logCommand(cmd, err)
	if err == nil {
		c.publishLocked()
	}
	return c.resultLocked("", err), err
}

// Scene returns the current scene.
func (c *Controller) Scene() Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sceneLocked()
}

// State returns a copy of the application state.
func (c *Controller) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Photos = slices.Clone(c.state.Photos)
	s.Feed = make([]models.SharedPhotoRecord, len(c.state.Feed))
	for i, r := range c.state.Feed {
		s.Feed[i] = r.Clone()
	}
	return s
}

// Photo returns a personal photo by id.
func (c *Controller) Photo(id int64) (models.PhotoRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.photoLocked(id)
}

// Downloads is the registry behind the viewer's download link.
func (c *Controller) Downloads() *mapview.Downloads {
	return c.downloads
}

func (c *Controller) resultLocked(notice string, err error) *Result {
	r := &Result{Scene: c.sceneLocked(), Notice: notice}
	if err != nil {
		r.Notice = noticeFor(err)
	}
	return r
}

func noticeFor(err error) string {
	switch {
	case errors.IsNotice(err):
		return err.Error()
	case stderrors.Is(err, errors.ErrNotFound), stderrors.Is(err, errors.ErrInvalidInput):
		return err.Error()
	default:
		return genericNotice
	}
}

func (c *Controller) logCommand(cmd Command, err error) {
	switch {
	case err == nil:
		c.logger.Debug("command applied", zap.String("command", cmd.name()))
	case errors.IsNotice(err):
		c.logger.Info("command rejected", zap.String("command", cmd.name()), zap.Error(err))
	default:
		c.logger.Error("command failed", zap.String("command", cmd.name()), zap.Error(err))
	}
}

func (c *Controller) publishLocked() {
	if c.publisher != nil {
		c.publisher.Publish(c.sceneLocked())
	}
}

func (c *Controller) loadLocked(ctx context.Context) error {
	photos, err := c.photos.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load photos: %w", err)
	}
	shared, err := c.feed.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	c.state.Photos = photos
	c.state.Feed = shared
	if _, ok := c.selectedLocked(); !ok {
		c.state.SelectedPhotoID = 0
		c.downloads.Release()
	}
	c.view.RenderPersonal(c.state.Photos)
	c.view.RenderShared(c.state.Feed)
	return nil
}

// uploadPhotos runs the pipeline without holding c.mu so other commands stay
// responsive; only one batch may run at a time.
func (c *Controller) uploadPhotos(ctx context.Context, files []models.Upload) (res *Result, err error) {
	c.mu.Lock()
	if c.state.Uploading {
		defer c.mu.Unlock()
		err = errors.ErrUploadInProgress
		c.logCommand(UploadPhotos{}, err)
		return c.resultLocked("", err), err
	}
	c.state.Uploading = true
	c.publishLocked()
	c.mu.Unlock()

	var summary string
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if r := recover(); r != nil {
			err = fmt.Errorf("%w: upload batch panicked: %v", errors.ErrInternal, r)
		}
		c.state.Uploading = false
		c.logCommand(UploadPhotos{}, err)
		c.publishLocked()
		res = c.resultLocked(summary, err)
	}()

	// A started batch runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	batch := c.ingester.Ingest(ctx, files)

	c.mu.Lock()
	defer c.mu.Unlock()

	added, err := c.photos.AddAll(ctx, batch.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to save photos: %w", err)
	}
	c.state.Photos = append(c.state.Photos, added...)
	c.view.RenderPersonal(c.state.Photos)
	summary = batch.Summary()
	return nil, nil
}

func (c *Controller) photoLocked(id int64) (models.PhotoRecord, bool) {
	for _, p := range c.state.Photos {
		if p.ID == id {
			return p, true
		}
	}
	return models.PhotoRecord{}, false
}

func (c *Controller) selectedLocked() (models.PhotoRecord, bool) {
	if c.state.SelectedPhotoID == 0 {
		return models.PhotoRecord{}, false
	}
	return c.photoLocked(c.state.SelectedPhotoID)
}

func (c *Controller) selectPhotoLocked(id int64) error {
	p, ok := c.photoLocked(id)
	if !ok {
		return fmt.Errorf("%w: photo %d", errors.ErrNotFound, id)
	}

	c.state.SelectedPhotoID = id
	c.state.PanelOpen = true
	c.downloads.Create(p.ImageData, utils.JPEGName(downloadName(p)))
	return nil
}

func downloadName(p models.PhotoRecord) string {
	if p.FileName != "" {
		return p.FileName
	}
	return fmt.Sprintf("photo-%d", p.ID)
}

func (c *Controller) clearPhotosLocked(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return errors.ErrConfirmationRequired
	}
	if err := c.photos.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear photos: %w", err)
	}

	if c.thumbnails != nil {
		c.thumbnails.ForgetThumbnails()
	}

	c.state.Photos = nil
	c.state.SelectedPhotoID = 0
	c.state.PanelOpen = false
	c.downloads.Release()
	c.view.ClearPersonal()
	return nil
}

func (c *Controller) sharePhotoLocked(ctx context.Context) error {
	p, ok := c.selectedLocked()
	if !ok {
		return errors.ErrNoSelection
	}

	rec, err := c.feed.Share(ctx, p)
	if err != nil {
		return err
	}
	c.state.Feed = append(c.state.Feed, *rec)
	c.view.RenderShared(c.state.Feed)
	return nil
}

func (c *Controller) switchViewLocked(mode Mode) error {
	var layer mapview.Layer
	switch mode {
	case ModeMain:
		layer = mapview.LayerPersonal
	case ModeShared:
		layer = mapview.LayerShared
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownView, mode)
	}

	c.state.Mode = mode
	c.view.ShowLayer(layer)
	return nil
}

// replaceSharedLocked swaps an updated shared record into the state.
func (c *Controller) replaceSharedLocked(rec *models.SharedPhotoRecord, err error) error {
	if err != nil {
		return err
	}
	for i := range c.state.Feed {
		if c.state.Feed[i].ID == rec.ID {
			c.state.Feed[i] = *rec
		}
	}
	c.view.RenderShared(c.state.Feed)
	return nil
}

func (c *Controller) selectFeedItemLocked(id string) error {
	i := slices.IndexFunc(c.state.Feed, func(r models.SharedPhotoRecord) bool { return r.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: shared photo %s", errors.ErrNotFound, id)
	}

	if c.state.Mode != ModeShared {
		c.state.Mode = ModeShared
		c.view.ShowLayer(mapview.LayerShared)
	}
	handle, _ := c.view.Table().Handle(mapview.LayerShared, id)
	c.view.Focus(c.state.Feed[i].Coordinates(), handle)
	return nil
}
