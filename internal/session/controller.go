package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/constants"
	"photo-architect/internal/editor"
	apperrors "photo-architect/internal/errors"
	"photo-architect/internal/events"
	"photo-architect/internal/history"
	"photo-architect/internal/i18n"
	"photo-architect/internal/imagecodec"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/upstream"

	log "github.com/sirupsen/logrus"
)

// Options configure a controller. Editor is required.
type Options struct {
	Editor         editor.Editor
	Publisher      events.Publisher
	BaseContext    context.Context
	Locale         i18n.Locale
	DownloadPrefix string
	// InFlight, when set, additionally tracks edits for a process-wide Wait.
	InFlight *sync.WaitGroup
	// Versions, when set, is shared by every controller of a manager so a
	// session re-created under the same id never reissues a version.
	Versions *atomic.Uint64
}

// Controller is one session's state machine. Every event is handled under
// mu; the only suspending operation, the edit call, runs in its own
// goroutine and re-enters through finishEdit.
type Controller struct {
	id      string
	editor  editor.Editor
	pub     events.Publisher
	baseCtx context.Context
	prefix  string
	shared  *sync.WaitGroup
	clock   *atomic.Uint64

	mu             sync.Mutex
	status         Status
	original       string
	current        string
	currentEntryID string
	pendingPrompt  string
	lastError      string
	locale         i18n.Locale
	history        *history.Store
	epoch          uint64 // bumped by upload and reset
	editPending    bool
	version        uint64
	lastActive     time.Time
	streams        int // attached event streams

	inflight sync.WaitGroup
}

func NewController(id string, opts Options) *Controller {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	if opts.Locale == "" {
		opts.Locale = i18n.Default
	}
	if opts.DownloadPrefix == "" {
		opts.DownloadPrefix = config.DefaultDownloadPrefix
	}
	return &Controller{
		id:         id,
		editor:     opts.Editor,
		pub:        opts.Publisher,
		baseCtx:    opts.BaseContext,
		prefix:     opts.DownloadPrefix,
		shared:     opts.InFlight,
		clock:      opts.Versions,
		status:     StatusIdle,
		locale:     opts.Locale,
		history:    history.New(),
		lastActive: time.Now(),
	}
}

func (c *Controller) ID() string { return c.id }

// Upload decodes raw file bytes and starts a new lineage. Undecodable input
// leaves the state untouched.
func (c *Controller) Upload(data []byte, declaredMIME string) error {
	img, err := imagecodec.FromUpload(data, declaredMIME)
	if err != nil {
		mw.RecordUpload(false)
		return err
	}
	c.load(img)
	mw.RecordUpload(true)
	return nil
}

// UploadDataURL accepts an already encoded image and verifies it decodes.
func (c *Controller) UploadDataURL(dataURL string) error {
	mime, raw, err := imagecodec.Bytes(dataURL)
	if err != nil {
		mw.RecordUpload(false)
		return err
	}
	return c.Upload(raw, mime)
}

func (c *Controller) load(img string) {
	c.mu.Lock()
	c.epoch++
	root := history.NewRoot(img)
	c.history.Seed(root)
	c.original = img
	c.current = img
	c.currentEntryID = root.ID
	c.lastError = ""
	// an outstanding call now belongs to the previous lineage; editPending
	// keeps new submits out until it lands
	c.status = StatusIdle
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// SetPrompt stores the not-yet-submitted instruction as typed.
func (c *Controller) SetPrompt(p string) error {
	if len(p) > constants.MaxPromptLength {
		return ErrPromptTooLong
	}
	c.mu.Lock()
	if c.pendingPrompt == p {
		c.lastActive = time.Now()
		c.mu.Unlock()
		return nil
	}
	c.pendingPrompt = p
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
	return nil
}

// Submit starts an edit of the current image. A non-empty custom prompt is
// used instead of the pending one and leaves the pending prompt alone.
// reqCtx only contributes its request id; the edit outlives the request.
func (c *Controller) Submit(reqCtx context.Context, custom string) error {
	c.mu.Lock()
	if c.status == StatusEditing || c.editPending {
		c.mu.Unlock()
		return ErrEditInProgress
	}
	prompt := strings.TrimSpace(custom)
	fromPending := prompt == ""
	if fromPending {
		prompt = strings.TrimSpace(c.pendingPrompt)
	}
	if prompt == "" {
		c.mu.Unlock()
		return ErrEmptyPrompt
	}
	if len(prompt) > constants.MaxPromptLength {
		c.mu.Unlock()
		return ErrPromptTooLong
	}
	if c.current == "" {
		c.mu.Unlock()
		return ErrNoImage
	}

	c.status = StatusEditing
	c.lastError = ""
	c.editPending = true
	epoch := c.epoch
	source := c.current
	loc := c.locale
	c.inflight.Add(1)
	if c.shared != nil {
		c.shared.Add(1)
	}
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)

	ctx := i18n.WithLocale(c.baseCtx, loc)
	if rid := upstream.RequestID(reqCtx); rid != "" {
		ctx = upstream.WithRequestID(ctx, rid)
	}
	mw.EditStarted()
	mw.SafeGo(func() {
		defer func() {
			mw.EditFinished()
			c.inflight.Done()
			if c.shared != nil {
				c.shared.Done()
			}
		}()
		start := time.Now()
		result, err := mw.SafeCallWithValue(func() (string, error) {
			return c.editor.EditImage(ctx, source, prompt)
		})
		c.finishEdit(epoch, prompt, fromPending, result, err, time.Since(start))
	})
	return nil
}

func (c *Controller) finishEdit(epoch uint64, prompt string, fromPending bool, result string, err error, dur time.Duration) {
	c.mu.Lock()
	c.editPending = false
	outcome := events.OutcomeSuccess
	switch {
	case epoch != c.epoch:
		outcome = events.OutcomeDiscarded
		if c.status == StatusEditing {
			c.status = StatusIdle
		}
		log.WithFields(log.Fields{"session_id": c.id, "error": err}).Info("discarding edit result from a previous upload")
	case err != nil:
		outcome = outcomeOf(err)
		c.status = StatusError
		c.lastError = c.failureMessageLocked(err)
		log.WithFields(log.Fields{"session_id": c.id, "outcome": outcome}).WithError(err).Warn("edit failed")
	default:
		entry := history.NewEntry(result, prompt)
		if aerr := c.history.Append(entry); aerr != nil {
			// uuid collision; keep the state consistent and report it
			c.status = StatusError
			c.lastError = i18n.T(c.locale, i18n.MsgServiceDown)
			outcome = events.OutcomeServiceError
			break
		}
		c.current = result
		c.currentEntryID = entry.ID
		if fromPending {
			c.pendingPrompt = ""
		}
		c.status = StatusIdle
		c.lastError = ""
	}
	snap := c.changedLocked()
	c.mu.Unlock()

	mw.RecordEdit(outcome, dur)
	c.publish(snap)
	if c.pub != nil {
		c.pub.Publish(c.baseCtx, events.TopicEditFinished, events.EditOutcome{
			SessionID: c.id,
			Outcome:   outcome,
			Duration:  dur,
			At:        time.Now(),
		}, map[string]string{events.MetaSessionID: c.id})
	}
}

func outcomeOf(err error) string {
	var noImage *apperrors.EditNoImageReturnedError
	if errors.As(err, &noImage) {
		return events.OutcomeNoImage
	}
	return events.OutcomeServiceError
}

// failureMessageLocked picks the banner text for a failed edit.
func (c *Controller) failureMessageLocked(err error) string {
	var noImage *apperrors.EditNoImageReturnedError
	var svcErr *apperrors.EditServiceError
	var malformed *apperrors.MalformedImageError
	switch {
	case errors.As(err, &noImage):
		return noImage.Message
	case errors.As(err, &svcErr) && strings.TrimSpace(svcErr.Message) != "":
		return svcErr.Message
	case errors.As(err, &malformed):
		return i18n.T(c.locale, i18n.MsgMalformedImage)
	}
	// panics and anything unexpected
	return i18n.T(c.locale, i18n.MsgServiceDown)
}

// Reset discards everything (new project).
func (c *Controller) Reset() {
	c.mu.Lock()
	c.epoch++
	c.history.Clear()
	c.original = ""
	c.current = ""
	c.currentEntryID = ""
	c.pendingPrompt = ""
	c.lastError = ""
	c.status = StatusIdle
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// RevertToOriginal shows the unedited upload again. History is untouched.
func (c *Controller) RevertToOriginal() error {
	c.mu.Lock()
	if c.original == "" {
		c.mu.Unlock()
		return ErrNoImage
	}
	c.current = c.original
	c.currentEntryID = history.RootID
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
	return nil
}

// SelectHistory displays a stored entry. It does not start a new lineage, so
// an edit in flight still lands on top of it.
func (c *Controller) SelectHistory(id string) error {
	c.mu.Lock()
	e, ok := c.history.Select(id)
	if !ok {
		c.mu.Unlock()
		return history.ErrNotFound
	}
	c.current = e.Image
	c.currentEntryID = e.ID
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
	return nil
}

func (c *Controller) DismissError() {
	c.mu.Lock()
	if c.status == StatusError {
		c.status = StatusIdle
	}
	c.lastError = ""
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Controller) SetLocale(l i18n.Locale) {
	c.mu.Lock()
	c.locale = l
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Controller) Locale() i18n.Locale {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locale
}

// Download returns the displayed image with a timestamped filename.
func (c *Controller) Download() (Download, error) {
	c.mu.Lock()
	current := c.current
	c.lastActive = time.Now()
	c.mu.Unlock()
	if current == "" {
		return Download{}, ErrNoImage
	}
	mime, data, err := imagecodec.Bytes(current)
	if err != nil {
		return Download{}, err
	}
	return Download{
		Filename: imagecodec.DownloadName(c.prefix, mime, time.Now()),
		MIMEType: mime,
		Data:     data,
	}, nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until no edit of this controller is in flight.
func (c *Controller) Wait() { c.inflight.Wait() }

// Touch marks the session as used without changing its state.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Attach registers an open event stream. The session is not swept while any
// stream is attached; the returned func detaches it and is safe to call twice.
func (c *Controller) Attach() (detach func()) {
	c.mu.Lock()
	c.streams++
	c.lastActive = time.Now()
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.streams--
			c.lastActive = time.Now()
			c.mu.Unlock()
		})
	}
}

// idleSince reports how long the controller has been untouched and whether
// it is busy: an edit outstanding or a stream attached.
func (c *Controller) idleSince(now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastActive), c.editPending || c.streams > 0
}

func (c *Controller) changedLocked() Snapshot {
	if c.clock != nil {
		c.version = c.clock.Add(1)
	} else {
		c.version++
	}
	c.lastActive = time.Now()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:      c.id,
		Version:        c.version,
		Status:         c.status,
		HasImage:       c.current != "",
		EditPending:    c.editPending,
		OriginalImage:  c.original,
		CurrentImage:   c.current,
		CurrentEntryID: c.currentEntryID,
		PendingPrompt:  c.pendingPrompt,
		LastError:      c.lastError,
		Locale:         c.locale,
		History:        c.history.Entries(),
		UpdatedAt:      c.lastActive,
	}
}

// publish runs outside the lock; the hub calls handlers synchronously.
func (c *Controller) publish(s Snapshot) {
	if c.pub == nil {
		return
	}
	c.pub.Publish(c.baseCtx, events.TopicSessionUpdated, s, map[string]string{events.MetaSessionID: c.id})
}
