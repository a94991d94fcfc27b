package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"staffportal/internal/platform/authsvc"
	"staffportal/internal/platform/docstore"
)

// Stage tracks where a confirmed employee mutation currently stands.
type Stage int

const (
	StageIdle Stage = iota
	StageValidating
	StageConfirmed
	StageIdentityCreated
	StageProfilePersisted
	StageDone
	StagePartialFailure
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageValidating:
		return "validating"
	case StageConfirmed:
		return "confirmed"
	case StageIdentityCreated:
		return "identity_created"
	case StageProfilePersisted:
		return "profile_persisted"
	case StageDone:
		return "done"
	case StagePartialFailure:
		return "partial_failure"
	}
	return "unknown"
}

var (
	ErrValidation   = errors.New("directory: form validation failed")
	ErrEmailInUse   = errors.New("directory: email already in use")
	ErrWeakPassword = errors.New("directory: password too weak")
)

// PartialFailureError reports a create flow that minted a login identity but
// failed to persist the matching profile document. The identity is left
// behind and needs manual cleanup.
type PartialFailureError struct {
	IdentityID string
	cause      error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("directory: identity %s created but profile write failed: %v", e.IdentityID, e.cause)
}

func (e *PartialFailureError) Unwrap() error { return e.cause }

// Coordinator drives the two-step employee create flow (login identity first,
// profile document second) and the single-step edit flow. Both are gated
// behind an explicit confirmation so validation alone never mutates anything.
type Coordinator struct {
	docs       docstore.Store
	auth       *authsvc.Service
	collection string
	log        zerolog.Logger

	mu          sync.Mutex
	stage       Stage
	formVisible bool
	danglingID  string
}

func NewCoordinator(docs docstore.Store, auth *authsvc.Service, collection string, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		docs:        docs,
		auth:        auth,
		collection:  collection,
		log:         log,
		stage:       StageIdle,
		formVisible: true,
	}
}

func (c *Coordinator) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// FormVisible reports whether the entry form should currently be shown. It
// goes false while a confirmed create is in flight and is restored on any
// outcome, success or failure.
func (c *Coordinator) FormVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.formVisible
}

// DanglingIdentity returns the identity id of the last partial failure, or
// empty when there is none outstanding.
func (c *Coordinator) DanglingIdentity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.danglingID
}

// AcknowledgePartialFailure clears the recorded dangling identity and returns
// the coordinator to idle. It does not delete the identity.
func (c *Coordinator) AcknowledgePartialFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stage == StagePartialFailure {
		c.stage = StageIdle
	}
	c.danglingID = ""
}

// PendingCreate is a validated create awaiting confirmation. Nothing has been
// mutated yet; Confirm performs the identity plus profile writes and Cancel
// discards the attempt.
type PendingCreate struct {
	c    *Coordinator
	form *Form
}

// StageCreate validates the draft against the current directory snapshot.
// On validation failure the form keeps its per-field errors and no pending
// operation is produced.
func (c *Coordinator) StageCreate(form *Form, snapshot []Record) (*PendingCreate, error) {
	c.mu.Lock()
	c.stage = StageValidating
	c.mu.Unlock()

	if !form.Validate(snapshot, true) {
		c.mu.Lock()
		c.stage = StageIdle
		c.mu.Unlock()
		return nil, ErrValidation
	}
	return &PendingCreate{c: c, form: form}, nil
}

// Confirm executes the create: a throwaway auth session registers the new
// login (so the operator's own session is untouched), signs straight back
// out, and the profile document is written keyed by the new identity id.
// A profile write failure after the identity exists is reported as a
// PartialFailureError and the identity id is retained for cleanup.
func (p *PendingCreate) Confirm(ctx context.Context) (string, error) {
	c := p.c
	c.mu.Lock()
	c.stage = StageConfirmed
	c.formVisible = false
	c.mu.Unlock()

	secondary := c.auth.NewSession()
	ident, err := secondary.SignUp(ctx, p.form.Field("email"), p.form.Password())
	if err != nil {
		c.mu.Lock()
		c.stage = StageIdle
		c.formVisible = true
		c.mu.Unlock()
		switch {
		case errors.Is(err, authsvc.ErrEmailInUse):
			return "", ErrEmailInUse
		case errors.Is(err, authsvc.ErrWeakPassword):
			return "", ErrWeakPassword
		}
		return "", err
	}
	_ = secondary.SignOut(ctx)

	c.mu.Lock()
	c.stage = StageIdentityCreated
	c.mu.Unlock()

	if err := c.docs.CreateOrReplace(ctx, c.collection, ident.ID, p.form.Document()); err != nil {
		c.mu.Lock()
		c.stage = StagePartialFailure
		c.danglingID = ident.ID
		c.formVisible = true
		c.mu.Unlock()
		c.log.Error().Err(err).
			Str("identity_id", ident.ID).
			Msg("employee profile write failed after identity creation")
		return "", &PartialFailureError{IdentityID: ident.ID, cause: err}
	}

	c.mu.Lock()
	c.stage = StageProfilePersisted
	c.mu.Unlock()

	p.form.Reset()

	c.mu.Lock()
	c.stage = StageDone
	c.formVisible = true
	c.mu.Unlock()
	return ident.ID, nil
}

// Cancel abandons the pending create without side effects. The draft keeps
// its values so the operator can adjust and retry.
func (p *PendingCreate) Cancel() {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageIdle
	c.formVisible = true
}

// PendingUpdate is a validated edit awaiting confirmation.
type PendingUpdate struct {
	c    *Coordinator
	form *Form
	id   string
}

// StageUpdate validates an edit draft. The form must have been built with
// FormFor so the uniqueness checks exclude the record being edited.
func (c *Coordinator) StageUpdate(form *Form, snapshot []Record) (*PendingUpdate, error) {
	if form.Editing() == nil {
		return nil, errors.New("directory: update staged without a record under edit")
	}

	c.mu.Lock()
	c.stage = StageValidating
	c.mu.Unlock()

	if !form.Validate(snapshot, false) {
		c.mu.Lock()
		c.stage = StageIdle
		c.mu.Unlock()
		return nil, ErrValidation
	}
	return &PendingUpdate{c: c, form: form, id: form.Editing().ID}, nil
}

// Confirm writes the edited fields. On failure the draft stays intact so the
// operator can retry without re-entering everything.
func (p *PendingUpdate) Confirm(ctx context.Context) error {
	c := p.c
	c.mu.Lock()
	c.stage = StageConfirmed
	c.mu.Unlock()

	if err := c.docs.Update(ctx, c.collection, p.id, p.form.Document()); err != nil {
		c.mu.Lock()
		c.stage = StageIdle
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.stage = StageDone
	c.mu.Unlock()
	p.form.Reset()
	return nil
}

func (p *PendingUpdate) Cancel() {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stage = StageIdle
}

// UserMessage maps a coordinator error to the operator-facing alert text.
func UserMessage(err error) string {
	var partial *PartialFailureError
	switch {
	case errors.Is(err, ErrEmailInUse):
		return "The email address is already in use by another account."
	case errors.Is(err, ErrWeakPassword):
		return "Password is too weak. Please choose a stronger password."
	case errors.As(err, &partial):
		return "Employee login was created but saving the profile failed. Please contact support."
	}
	return "Failed to save employee. Please try again."
}
