// Package mutation serializes create, update and delete requests issued from
// a single form, runs the local pre-checks and drives the list refresh that
// follows a successful change.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/engine/item"
	"github.com/limitedeportes/panel/engine/notify"
	"github.com/limitedeportes/panel/engine/session"
	"github.com/limitedeportes/panel/pkg/logger"
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrSubmissionInFlight rejects a submit issued while another one runs.
	// Nothing is notified and no request is made.
	ErrSubmissionInFlight = errors.New("mutation: submission already in flight")
	// ErrDeclined is returned when the operator does not confirm a removal.
	ErrDeclined = errors.New("mutation: removal declined")
	// ErrUnsupported is returned for operations the resource does not allow.
	ErrUnsupported = errors.New("mutation: operation not supported by resource")
)

// Outcome is the decoded 2xx answer of a mutation request.
type Outcome struct {
	// OK is false only when the backend explicitly answered "ok": false.
	OK      bool
	Message string
	// EditedSelf reports the backend's editing_self flag.
	EditedSelf bool
	Key        string
	Fields     map[string]string
}

// Backend performs the remote half of a mutation.
type Backend interface {
	Get(ctx context.Context, key string) (item.Item, error)
	Create(ctx context.Context, body map[string]any) (Outcome, error)
	Update(ctx context.Context, key string, body map[string]any) (Outcome, error)
	Delete(ctx context.Context, key string) (Outcome, error)
}

// Refresher is the list a coordinator reloads after a change and checks
// for duplicates. *listview.Controller satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) error
	Items() []item.Item
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// Always confirms without asking. It backs --force flags.
var Always Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

type FormMode string

const (
	ModeCreate FormMode = "create"
	ModeEdit   FormMode = "edit"
)

// Form is the single form a coordinator drives.
type Form struct {
	Mode FormMode `json:"mode"`
	// Original is the key of the record being edited.
	Original   string            `json:"original,omitempty"`
	Values     map[string]string `json:"values"`
	Invalid    []string          `json:"invalid,omitempty"`
	Submitting bool              `json:"submitting"`
}

// Result describes a successful submit.
type Result struct {
	Mode    FormMode `json:"mode"`
	Key     string   `json:"key"`
	Message string   `json:"message"`
	// EditedSelf is set when the backend reported that the change renamed
	// the operator's own account. NewIdentity is the name to display.
	EditedSelf  bool   `json:"edited_self,omitempty"`
	NewIdentity string `json:"new_identity,omitempty"`
}

type Option func(*Coordinator)

func WithRefresher(r Refresher) Option { return func(c *Coordinator) { c.refresher = r } }

func WithNotifier(n notify.Notifier) Option { return func(c *Coordinator) { c.notifier = n } }

func WithSession(s *session.Store) Option { return func(c *Coordinator) { c.session = s } }

func WithConfirmer(cf Confirmer) Option { return func(c *Coordinator) { c.confirmer = cf } }

// WithTimeout bounds each backend call. When it expires the submission
// lock is released even if the request never answers. Zero disables it.
func WithTimeout(d time.Duration) Option { return func(c *Coordinator) { c.timeout = d } }

func WithMessages(m Messages) Option { return func(c *Coordinator) { c.msgs = m } }

func WithLogger(l logger.Logger) Option { return func(c *Coordinator) { c.log = l } }

// Coordinator owns one form of one resource.
type Coordinator struct {
	schema    item.Schema
	backend   Backend
	refresher Refresher
	notifier  notify.Notifier
	session   *session.Store
	confirmer Confirmer
	timeout   time.Duration
	msgs      Messages
	log       logger.Logger
	validate  *validator.Validate

	submitting atomic.Bool

	mu   sync.Mutex
	form Form
	// loaded holds the values of the record being edited as fetched.
	loaded map[string]string
}

func New(schema item.Schema, backend Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		schema:   schema,
		backend:  backend,
		notifier: notify.Discard,
		timeout:  DefaultTimeout,
		msgs:     MessagesFor(schema),
		log:      logger.GetDefault(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.msgs.Table == nil {
		c.msgs.Table = apperr.DefaultTable()
	}
	c.form = c.blankForm()
	return c
}

// blankForm returns a create form. Called with c.mu held.
func (c *Coordinator) blankForm() Form {
	c.loaded = nil
	values := make(map[string]string, len(c.schema.Fields))
	for _, f := range c.schema.Fields {
		values[f.Name] = f.Default
	}
	return Form{Mode: ModeCreate, Values: values}
}

// Form returns a copy of the current form.
func (c *Coordinator) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.form
	f.Values = maps.Clone(f.Values)
	f.Invalid = append([]string(nil), f.Invalid...)
	return f
}

// Submitting reports whether a submit holds the lock.
func (c *Coordinator) Submitting() bool {
	return c.submitting.Load()
}

// BeginCreate resets the form to an empty create form.
func (c *Coordinator) BeginCreate() Form {
	c.mu.Lock()
	c.form = c.blankForm()
	c.mu.Unlock()
	return c.Form()
}

// BeginEdit loads the record detail and prefills the form with it. Secret
// fields are left blank.
func (c *Coordinator) BeginEdit(ctx context.Context, key string) (Form, error) {
	if c.schema.ReadOnly || c.schema.CreateOnly {
		return Form{}, ErrUnsupported
	}
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	it, err := c.backend.Get(callCtx, strings.TrimSpace(key))
	if err != nil {
		err = normalize(apperr.OpGet, err)
		c.notifier.Notify(ctx, apperr.Message(err, c.msgs.Table), notify.Error)
		return Form{}, err
	}
	c.mu.Lock()
	c.loaded = c.schema.Values(it)
	c.form = Form{Mode: ModeEdit, Original: it.Key, Values: maps.Clone(c.loaded)}
	c.mu.Unlock()
	return c.Form(), nil
}

// Submit validates values against the schema and sends them as a create or
// an update depending on the form mode. At most one submit runs at a time.
func (c *Coordinator) Submit(ctx context.Context, values map[string]string) (Result, error) {
	if c.schema.ReadOnly {
		return Result{}, ErrUnsupported
	}
	if !c.submitting.CompareAndSwap(false, true) {
		c.log.Debug("submit rejected while another is in flight", "resource", c.schema.Name)
		return Result{}, ErrSubmissionInFlight
	}

	c.mu.Lock()
	mode, original := c.form.Mode, c.form.Original
	values = c.merge(values)
	c.form.Values = maps.Clone(values)
	c.form.Submitting = true
	c.form.Invalid = nil
	c.mu.Unlock()

	op := apperr.OpCreate
	if mode == ModeEdit {
		op = apperr.OpUpdate
	}

	if msg, err := c.precheck(op, original, values); err != nil {
		c.reject(err)
		c.notifier.Notify(ctx, msg, notify.Error)
		return Result{}, err
	}

	body := c.schema.Body(values, mode == ModeEdit)
	outcome, err := c.call(ctx, op, func(callCtx context.Context) (Outcome, error) {
		if mode == ModeEdit {
			return c.backend.Update(callCtx, original, body)
		}
		return c.backend.Create(callCtx, body)
	})
	if err != nil {
		c.reject(err)
		c.log.Warn("mutation failed", "resource", c.schema.Name, "op", op, "error", err)
		c.notifier.Notify(ctx, apperr.Message(err, c.msgs.Table), notify.Error)
		return Result{}, err
	}

	key := firstNonEmpty(outcome.Key, strings.TrimSpace(values[c.schema.KeyField]), original)
	res := Result{Mode: mode, Key: key, Message: c.msgs.Created}
	if mode == ModeEdit {
		res.Message = c.msgs.Updated
	}
	if outcome.Message != "" {
		res.Message = outcome.Message
	}
	if outcome.EditedSelf {
		res.EditedSelf = true
		res.NewIdentity = key
		if mode == ModeEdit && c.msgs.SelfUpdated != "" && !item.SameKey(original, key) {
			res.Message = c.msgs.SelfUpdated
		}
	}

	c.submitting.Store(false)
	c.mu.Lock()
	c.form = c.blankForm()
	c.mu.Unlock()
	c.refresh(ctx)
	c.log.Info("mutation applied", "resource", c.schema.Name, "op", op, "key", key)
	c.notifier.Notify(ctx, res.Message, notify.Success)
	return res, nil
}

// merge fills values left out of an edit submit from the loaded record.
// Called with c.mu held.
func (c *Coordinator) merge(values map[string]string) map[string]string {
	out := make(map[string]string, len(c.schema.Fields))
	if c.form.Mode == ModeEdit {
		for _, f := range c.schema.Fields {
			if !f.Secret {
				out[f.Name] = c.loaded[f.Name]
			}
		}
	}
	for k, v := range values {
		if _, known := c.schema.Field(k); known {
			out[k] = v
		}
	}
	return out
}

// precheck runs every local check and returns the failure with the text
// to notify.
func (c *Coordinator) precheck(op apperr.Op, original string, values map[string]string) (string, error) {
	update := op == apperr.OpUpdate
	var missing, malformed []string
	var labels []string
	for _, f := range c.schema.Fields {
		if f.Hidden {
			continue
		}
		v := strings.TrimSpace(values[f.Name])
		required := f.Requirement == item.Required || (f.Requirement == item.RequiredOnCreate && !update)
		if v == "" {
			if required {
				missing = append(missing, f.Name)
			}
			continue
		}
		if f.Rules == "" {
			continue
		}
		if err := c.validate.Var(v, f.Rules); err != nil {
			malformed = append(malformed, f.Name)
			labels = append(labels, label(f))
		}
	}
	if len(missing) > 0 {
		err := apperr.Validation(op, append(missing, malformed...)...)
		return apperr.Message(err, c.msgs.Table), err
	}
	if len(malformed) > 0 {
		err := apperr.Validation(op, malformed...)
		return fmt.Sprintf("%s %s", c.msgs.InvalidFormat, strings.Join(labels, ", ")), err
	}
	if !update {
		return "", nil
	}

	key := strings.TrimSpace(values[c.schema.KeyField])
	if item.SameKey(key, original) {
		return "", nil
	}
	if c.schema.KeySpec().Immutable {
		err := apperr.Validation(op, c.schema.KeyField)
		return fmt.Sprintf("%s no se puede modificar", label(c.schema.KeySpec())), err
	}
	if c.refresher == nil {
		return "", nil
	}
	for _, it := range c.refresher.Items() {
		if item.SameKey(it.Key, key) && !item.SameKey(it.Key, original) {
			err := &apperr.Error{Kind: apperr.KindConflict, Op: op, Fields: []string{c.schema.KeyField}}
			return apperr.Message(err, c.msgs.Table), err
		}
	}
	return "", nil
}

// reject releases the lock and keeps the form for another attempt.
func (c *Coordinator) reject(err error) {
	c.mu.Lock()
	c.form.Submitting = false
	var e *apperr.Error
	if errors.As(err, &e) {
		c.form.Invalid = append([]string(nil), e.Fields...)
	}
	c.mu.Unlock()
	c.submitting.Store(false)
}

// Remove deletes the record with the given key after the operator confirms.
// The operator's own account is never removed.
func (c *Coordinator) Remove(ctx context.Context, key string) error {
	if c.schema.ReadOnly || c.schema.CreateOnly {
		return ErrUnsupported
	}
	key = strings.TrimSpace(key)
	if c.session.Matches(key) {
		err := apperr.New(apperr.KindSelfDeletion, apperr.OpDelete, nil)
		c.notifier.Notify(ctx, apperr.Message(err, c.msgs.Table), notify.Error)
		return err
	}
	if c.confirmer == nil {
		return ErrDeclined
	}
	ok, err := c.confirmer.Confirm(ctx, c.msgs.ConfirmPrompt(key))
	if err != nil {
		return fmt.Errorf("mutation: confirm removal: %w", err)
	}
	if !ok {
		return ErrDeclined
	}

	if _, err := c.call(ctx, apperr.OpDelete, func(callCtx context.Context) (Outcome, error) {
		return c.backend.Delete(callCtx, key)
	}); err != nil {
		c.log.Warn("removal failed", "resource", c.schema.Name, "key", key, "error", err)
		c.notifier.Notify(ctx, apperr.Message(err, c.msgs.Table), notify.Error)
		return err
	}

	c.mu.Lock()
	if c.form.Mode == ModeEdit && item.SameKey(c.form.Original, key) {
		c.form = c.blankForm()
	}
	c.mu.Unlock()
	c.refresh(ctx)
	c.log.Info("record removed", "resource", c.schema.Name, "key", key)
	c.notifier.Notify(ctx, c.msgs.Deleted, notify.Success)
	return nil
}

// call runs fn under the coordinator deadline. It returns as soon as the
// deadline passes, whether or not fn has returned.
func (c *Coordinator) call(ctx context.Context, op apperr.Op, fn func(context.Context) (Outcome, error)) (Outcome, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	type reply struct {
		outcome Outcome
		err     error
	}
	done := make(chan reply, 1)
	go func() {
		o, err := fn(callCtx)
		done <- reply{o, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Outcome{}, normalize(op, r.err)
		}
		if !r.outcome.OK {
			return Outcome{}, &apperr.Error{Kind: apperr.KindUnexpected, Op: op, ServerMessage: r.outcome.Message}
		}
		return r.outcome, nil
	case <-callCtx.Done():
		err := callCtx.Err()
		return Outcome{}, apperr.Network(op, err, errors.Is(err, context.DeadlineExceeded))
	}
}

func (c *Coordinator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Coordinator) refresh(ctx context.Context) {
	if c.refresher == nil {
		return
	}
	// The list notifies its own failures.
	if err := c.refresher.Refresh(ctx); err != nil {
		c.log.Debug("refresh after mutation did not complete", "resource", c.schema.Name, "error", err)
	}
}

// normalize turns foreign errors into the panel taxonomy.
func normalize(op apperr.Op, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Network(op, err, errors.Is(err, context.DeadlineExceeded))
	}
	return apperr.New(apperr.KindUnexpected, op, err)
}

func label(f item.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
