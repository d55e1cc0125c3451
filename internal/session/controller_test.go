package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "photo-architect/internal/errors"
	"photo-architect/internal/events"
	"photo-architect/internal/history"
	"photo-architect/internal/i18n"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	sources  []string
	locales  []i18n.Locale
	result   string
	err      error
	panicMsg string
	release  chan struct{}
	started  chan struct{}
}

func (f *fakeEditor) EditImage(ctx context.Context, source, instruction string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, instruction)
	f.sources = append(f.sources, source)
	f.locales = append(f.locales, i18n.FromContext(ctx))
	release, started := f.release, f.started
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result, f.err
}

func (f *fakeEditor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURL(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

func newTestController(ed *fakeEditor, pub events.Publisher) *Controller {
	return NewController("s1", Options{Editor: ed, Publisher: pub, Locale: i18n.English})
}

func uploaded(t *testing.T, ed *fakeEditor) (*Controller, string) {
	t.Helper()
	c := newTestController(ed, nil)
	raw := pngBytes(t, color.White)
	require.NoError(t, c.Upload(raw, "image/png"))
	return c, dataURL(raw)
}

func TestUploadSeedsHistory(t *testing.T) {
	c, img := uploaded(t, &fakeEditor{})
	s := c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.True(t, s.HasImage)
	assert.Equal(t, img, s.OriginalImage)
	assert.Equal(t, img, s.CurrentImage)
	require.Len(t, s.History, 1)
	assert.Equal(t, history.RootID, s.History[0].ID)
	assert.Equal(t, history.RootLabel, s.History[0].Label)
	assert.Equal(t, history.RootID, s.CurrentEntryID)
}

func TestUploadRejectsGarbageWithoutStateChange(t *testing.T) {
	c, img := uploaded(t, &fakeEditor{})
	before := c.Snapshot()

	err := c.Upload([]byte("definitely not an image"), "image/png")
	var malformed *apperrors.MalformedImageError
	require.ErrorAs(t, err, &malformed)
	err = c.UploadDataURL("data:image/png;base64,!!!")
	require.ErrorAs(t, err, &malformed)

	after := c.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, img, after.CurrentImage)
}

func TestUploadDataURL(t *testing.T) {
	c := newTestController(&fakeEditor{}, nil)
	img := dataURL(pngBytes(t, color.Black))
	require.NoError(t, c.UploadDataURL(img))
	assert.Equal(t, img, c.Snapshot().CurrentImage)
}

func TestSubmitGuards(t *testing.T) {
	ed := &fakeEditor{result: "data:image/png;base64,QUJD"}
	c := newTestController(ed, nil)

	assert.ErrorIs(t, c.Submit(context.Background(), "make it red"), ErrNoImage)

	require.NoError(t, c.Upload(pngBytes(t, color.White), ""))
	require.NoError(t, c.SetPrompt("   "))
	assert.ErrorIs(t, c.Submit(context.Background(), ""), ErrEmptyPrompt)
	assert.ErrorIs(t, c.Submit(context.Background(), strings.Repeat("x", 5000)), ErrPromptTooLong)
	assert.ErrorIs(t, c.SetPrompt(strings.Repeat("x", 5000)), ErrPromptTooLong)
	assert.Equal(t, 0, ed.callCount())
}

// Happy path: upload, type, submit, the result becomes current and is logged.
func TestHappyPath(t *testing.T) {
	ed := &fakeEditor{result: "data:image/jpeg;base64,RURJVA=="}
	c, img := uploaded(t, ed)
	require.NoError(t, c.SetPrompt("make the sky purple"))
	require.NoError(t, c.Submit(context.Background(), ""))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, "data:image/jpeg;base64,RURJVA==", s.CurrentImage)
	assert.Equal(t, img, s.OriginalImage)
	assert.Empty(t, s.PendingPrompt)
	assert.Empty(t, s.LastError)
	assert.False(t, s.EditPending)
	require.Len(t, s.History, 2)
	assert.Equal(t, "make the sky purple", s.History[0].Label)
	assert.Equal(t, s.History[0].ID, s.CurrentEntryID)
	assert.Equal(t, []string{img}, ed.sources)
	assert.Equal(t, []i18n.Locale{i18n.English}, ed.locales)
}

func TestCustomPromptKeepsPendingPrompt(t *testing.T) {
	ed := &fakeEditor{result: "data:image/png;base64,QUJD"}
	c, _ := uploaded(t, ed)
	require.NoError(t, c.SetPrompt("typed text"))
	require.NoError(t, c.Submit(context.Background(), "Change the background to "))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, "typed text", s.PendingPrompt)
	assert.Equal(t, []string{"Change the background to"}, ed.prompts)
	assert.Equal(t, "Change the background to", s.History[0].Label)
}

// At most one edit in flight per session.
func TestAtMostOneInFlight(t *testing.T) {
	ed := &fakeEditor{result: "data:image/png;base64,QUJD", release: make(chan struct{}), started: make(chan struct{}, 1)}
	c, _ := uploaded(t, ed)
	require.NoError(t, c.Submit(context.Background(), "first"))
	<-ed.started

	assert.Equal(t, StatusEditing, c.Snapshot().Status)
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, c.Submit(context.Background(), "again"), ErrEditInProgress)
	}
	close(ed.release)
	c.Wait()
	assert.Equal(t, 1, ed.callCount())

	ed.mu.Lock()
	ed.release = nil
	ed.started = nil
	ed.mu.Unlock()
	require.NoError(t, c.Submit(context.Background(), "second"))
	c.Wait()
	assert.Equal(t, 2, ed.callCount())
	assert.Equal(t, 3, len(c.Snapshot().History))
}

// A failed edit leaves the image and history untouched.
func TestErrorDoesNotMutate(t *testing.T) {
	ed := &fakeEditor{err: &apperrors.EditServiceError{Message: "API key not valid"}}
	c, img := uploaded(t, ed)
	before := c.Snapshot()

	require.NoError(t, c.Submit(context.Background(), "remove the car"))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, "API key not valid", s.LastError)
	assert.Equal(t, img, s.CurrentImage)
	assert.Equal(t, before.History, s.History)
	assert.Equal(t, before.CurrentEntryID, s.CurrentEntryID)

	// a new submit clears the old error
	ed.mu.Lock()
	ed.err = nil
	ed.result = "data:image/png;base64,QUJD"
	ed.mu.Unlock()
	require.NoError(t, c.Submit(context.Background(), "remove the car"))
	c.Wait()
	s = c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.LastError)
}

func TestNoImageReturned(t *testing.T) {
	msg := i18n.T(i18n.English, i18n.MsgNoImageReturned)
	ed := &fakeEditor{err: &apperrors.EditNoImageReturnedError{Message: msg, FinishReason: "IMAGE_SAFETY"}}
	c, img := uploaded(t, ed)
	require.NoError(t, c.SetPrompt("add a dragon"))
	require.NoError(t, c.Submit(context.Background(), ""))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, msg, s.LastError)
	assert.Equal(t, img, s.CurrentImage)
	assert.Len(t, s.History, 1)
	assert.Equal(t, "add a dragon", s.PendingPrompt)
}

func TestEditorPanicBecomesError(t *testing.T) {
	ed := &fakeEditor{panicMsg: "boom"}
	c, img := uploaded(t, ed)
	require.NoError(t, c.Submit(context.Background(), "x"))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusError, s.Status)
	assert.Equal(t, i18n.T(i18n.English, i18n.MsgServiceDown), s.LastError)
	assert.Equal(t, img, s.CurrentImage)
}

// Selecting history changes the displayed image but never the log.
func TestHistoryRecall(t *testing.T) {
	ed := &fakeEditor{result: "data:image/png;base64,RURJVDE="}
	c, img := uploaded(t, ed)
	require.NoError(t, c.Submit(context.Background(), "edit one"))
	c.Wait()
	first := c.Snapshot().History[0]

	ed.mu.Lock()
	ed.result = "data:image/png;base64,RURJVDI="
	ed.mu.Unlock()
	require.NoError(t, c.Submit(context.Background(), "edit two"))
	c.Wait()
	before := c.Snapshot().History
	require.Len(t, before, 3)

	require.NoError(t, c.SelectHistory(history.RootID))
	s := c.Snapshot()
	assert.Equal(t, img, s.CurrentImage)
	assert.Equal(t, before, s.History)

	require.NoError(t, c.SelectHistory(first.ID))
	assert.Equal(t, "data:image/png;base64,RURJVDE=", c.Snapshot().CurrentImage)

	assert.ErrorIs(t, c.SelectHistory("nope"), history.ErrNotFound)
	assert.Equal(t, before, c.Snapshot().History)

	// editing from a recalled entry uses that entry as the source
	ed.mu.Lock()
	ed.result = "data:image/png;base64,RURJVDM="
	ed.mu.Unlock()
	require.NoError(t, c.Submit(context.Background(), "edit three"))
	c.Wait()
	assert.Equal(t, "data:image/png;base64,RURJVDE=", ed.sources[2])
	assert.Len(t, c.Snapshot().History, 4)
}

func TestUploadDuringEditDiscardsResult(t *testing.T) {
	ed := &fakeEditor{result: "data:image/png;base64,U1RBTEU=", release: make(chan struct{}), started: make(chan struct{}, 1)}
	c, _ := uploaded(t, ed)
	require.NoError(t, c.Submit(context.Background(), "old lineage"))
	<-ed.started

	raw := pngBytes(t, color.Black)
	require.NoError(t, c.Upload(raw, "image/png"))
	s := c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.True(t, s.EditPending)
	assert.ErrorIs(t, c.Submit(context.Background(), "too soon"), ErrEditInProgress)

	close(ed.release)
	c.Wait()

	s = c.Snapshot()
	assert.Equal(t, dataURL(raw), s.CurrentImage)
	assert.Len(t, s.History, 1)
	assert.False(t, s.EditPending)
	assert.Equal(t, StatusIdle, s.Status)
}

func TestResetDiscardsEverything(t *testing.T) {
	ed := &fakeEditor{err: &apperrors.EditServiceError{Message: "down"}}
	c, _ := uploaded(t, ed)
	require.NoError(t, c.SetPrompt("x"))
	require.NoError(t, c.Submit(context.Background(), ""))
	c.Wait()
	require.Equal(t, StatusError, c.Snapshot().Status)

	c.Reset()
	s := c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.False(t, s.HasImage)
	assert.Empty(t, s.OriginalImage)
	assert.Empty(t, s.CurrentImage)
	assert.Empty(t, s.PendingPrompt)
	assert.Empty(t, s.LastError)
	assert.Empty(t, s.History)
	assert.ErrorIs(t, c.RevertToOriginal(), ErrNoImage)
	_, err := c.Download()
	assert.ErrorIs(t, err, ErrNoImage)
}

func finishedOutcomes(hub *events.Hub) func() []string {
	var mu sync.Mutex
	var outcomes []string
	hub.Subscribe(events.TopicEditFinished, func(_ context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, e.Payload.(events.EditOutcome).Outcome)
	})
	return func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), outcomes...)
	}
}

func TestResetDuringEditDiscardsResult(t *testing.T) {
	hub := events.NewHub()
	outcomes := finishedOutcomes(hub)
	ed := &fakeEditor{result: "data:image/png;base64,TEFURQ==", release: make(chan struct{}), started: make(chan struct{}, 1)}
	c := newTestController(ed, hub)
	require.NoError(t, c.Upload(pngBytes(t, color.White), ""))
	require.NoError(t, c.Submit(context.Background(), "late"))
	<-ed.started

	c.Reset()
	s := c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.True(t, s.EditPending)

	close(ed.release)
	c.Wait()

	s = c.Snapshot()
	assert.Empty(t, s.History)
	assert.False(t, s.HasImage)
	assert.Empty(t, s.CurrentImage)
	assert.Empty(t, s.CurrentEntryID)
	assert.False(t, s.EditPending)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, []string{events.OutcomeDiscarded}, outcomes())
}

func TestSelectHistoryDuringEditKeepsResult(t *testing.T) {
	hub := events.NewHub()
	outcomes := finishedOutcomes(hub)
	ed := &fakeEditor{result: "data:image/png;base64,RklSU1Q="}
	c := newTestController(ed, hub)
	require.NoError(t, c.Upload(pngBytes(t, color.White), ""))
	require.NoError(t, c.Submit(context.Background(), "first"))
	c.Wait()
	require.Len(t, c.Snapshot().History, 2)

	ed.mu.Lock()
	ed.result = "data:image/png;base64,U0VDT05E"
	ed.release = make(chan struct{})
	ed.started = make(chan struct{}, 1)
	release, started := ed.release, ed.started
	ed.mu.Unlock()
	require.NoError(t, c.Submit(context.Background(), "second"))
	<-started

	require.NoError(t, c.SelectHistory(history.RootID))
	assert.Equal(t, history.RootID, c.Snapshot().CurrentEntryID)

	close(release)
	c.Wait()

	s := c.Snapshot()
	require.Len(t, s.History, 3)
	top := s.History[0]
	assert.Equal(t, "second", top.Label)
	assert.Equal(t, top.ID, s.CurrentEntryID)
	assert.Equal(t, "data:image/png;base64,U0VDT05E", s.CurrentImage)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, []string{events.OutcomeSuccess, events.OutcomeSuccess}, outcomes())
}

func TestRevertToOriginal(t *testing.T) {
	ed := &fakeEditor{result: "data:image/png;base64,QUJD"}
	c, img := uploaded(t, ed)
	require.NoError(t, c.Submit(context.Background(), "x"))
	c.Wait()
	require.NoError(t, c.RevertToOriginal())
	s := c.Snapshot()
	assert.Equal(t, img, s.CurrentImage)
	assert.Equal(t, history.RootID, s.CurrentEntryID)
	assert.Len(t, s.History, 2)
}

func TestDismissError(t *testing.T) {
	ed := &fakeEditor{err: &apperrors.EditServiceError{Message: "down"}}
	c, _ := uploaded(t, ed)
	require.NoError(t, c.Submit(context.Background(), "x"))
	c.Wait()
	c.DismissError()
	s := c.Snapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.LastError)
}

func TestLocaleAppliesToFailures(t *testing.T) {
	ed := &fakeEditor{panicMsg: "boom"}
	c, _ := uploaded(t, ed)
	c.SetLocale(i18n.Bengali)
	require.NoError(t, c.Submit(context.Background(), "x"))
	c.Wait()
	assert.Equal(t, i18n.T(i18n.Bengali, i18n.MsgServiceDown), c.Snapshot().LastError)
	assert.Equal(t, i18n.Bengali, ed.locales[0])
}

func TestDownload(t *testing.T) {
	c, _ := uploaded(t, &fakeEditor{})
	d, err := c.Download()
	require.NoError(t, err)
	assert.Equal(t, "image/png", d.MIMEType)
	assert.True(t, strings.HasPrefix(d.Filename, "photo-architect-"))
	assert.True(t, strings.HasSuffix(d.Filename, ".png"))
	assert.Equal(t, pngBytes(t, color.White), d.Data)
}

func TestSnapshotsArePublished(t *testing.T) {
	hub := events.NewHub()
	var mu sync.Mutex
	var versions []uint64
	var outcomes []string
	hub.Subscribe(events.TopicSessionUpdated, func(_ context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "s1", e.Metadata[events.MetaSessionID])
		versions = append(versions, e.Payload.(Snapshot).Version)
	})
	hub.Subscribe(events.TopicEditFinished, func(_ context.Context, e events.Event) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, e.Payload.(events.EditOutcome).Outcome)
	})

	ed := &fakeEditor{result: "data:image/png;base64,QUJD"}
	c := newTestController(ed, hub)
	require.NoError(t, c.Upload(pngBytes(t, color.White), ""))
	require.NoError(t, c.SetPrompt("x"))
	require.NoError(t, c.Submit(context.Background(), ""))
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	// upload, prompt, editing, finished
	require.Len(t, versions, 4)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Equal(t, []string{events.OutcomeSuccess}, outcomes)
}

func TestWaitReturnsWithoutEdits(t *testing.T) {
	c := newTestController(&fakeEditor{}, nil)
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked with nothing in flight")
	}
}
