package editor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/protein-design-studio/pkg/designspec"
)

// DefaultDebounce is the delay before a text edit triggers widget-state
// extraction. Validation itself is never debounced.
const DefaultDebounce = 400 * time.Millisecond

// Controller reconciles the two edit sources of a design document: form
// edits, which regenerate the document from the entity model, and direct
// text edits, which replace the document as typed. Validation runs
// synchronously on every edit against the exact text just produced, so a
// validation result never refers to a stale document. Extraction of widget
// state from hand-edited text runs on a separate, debounced cadence with
// last-edit-wins semantics.
//
// Form-driven regeneration overwrites the document wholesale; content the
// entity model cannot represent (a hand-written constraints block, comments)
// is discarded on the next regeneration.
type Controller struct {
	mu       sync.Mutex
	session  *Session
	document string
	result   designspec.ValidationResult

	debounce time.Duration
	timer    *time.Timer
	closed   bool

	onValidation func(designspec.ValidationResult)
	onExtract    func(PartialState)

	log *logrus.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDebounce overrides the extraction debounce delay.
func WithDebounce(d time.Duration) ControllerOption {
	return func(c *Controller) { c.debounce = d }
}

// WithValidationHandler registers the callback receiving every fresh
// validation result.
func WithValidationHandler(fn func(designspec.ValidationResult)) ControllerOption {
	return func(c *Controller) { c.onValidation = fn }
}

// WithExtractHandler registers the callback receiving debounced widget-state
// extractions.
func WithExtractHandler(fn func(PartialState)) ControllerOption {
	return func(c *Controller) { c.onExtract = fn }
}

// NewController creates a controller over the given session. The initial
// document is the serialization of the session's (usually empty) entity
// list.
func NewController(session *Session, log *logrus.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		session:  session,
		debounce: DefaultDebounce,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.document = designspec.Serialize(session.Entities())
	c.result = designspec.Validate(c.document)
	return c
}

// Document returns the current document of record.
func (c *Controller) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// Result returns the validation result for the current document.
func (c *Controller) Result() designspec.ValidationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// OnFormEdit applies a mutation to the entity model, then synchronously
// regenerates the document and validates it. Form edits are discrete,
// low-frequency events; no debounce is involved.
func (c *Controller) OnFormEdit(mutate func(*Session) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	if err := mutate(c.session); err != nil {
		c.mu.Unlock()
		return err
	}

	c.document = designspec.Serialize(c.session.Entities())
	c.result = designspec.Validate(c.document)
	result := c.result
	c.mu.Unlock()

	c.notifyValidation(result)
	return nil
}

// OnTextEdit replaces the document as typed and validates it immediately.
// A debounced extraction pass is (re)scheduled: a new edit arriving before
// the timer fires resets the delay.
func (c *Controller) OnTextEdit(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.document = text
	c.result = designspec.Validate(text)
	result := c.result

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.runExtraction)
	c.mu.Unlock()

	c.notifyValidation(result)
}

// runExtraction is the debounce timer callback. It re-reads the document
// under the lock so a firing timer always extracts from the latest text.
func (c *Controller) runExtraction() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	text := c.document
	handler := c.onExtract
	c.mu.Unlock()

	if handler == nil {
		return
	}
	handler(Extract(text))
}

// Close cancels any pending extraction timer. After Close the controller
// ignores further edits; a dangling callback can no longer fire into
// torn-down state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notifyValidation(result designspec.ValidationResult) {
	if c.onValidation != nil {
		c.onValidation(result)
	}
	if !result.IsValid && c.log != nil {
		c.log.WithField("errors", len(result.Errors)).Debug("Document failed validation")
	}
}
