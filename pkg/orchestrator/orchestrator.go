package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/deepstock/pkg/domain"
	"github.com/aretw0/deepstock/pkg/ports"
	"github.com/aretw0/deepstock/pkg/prompt"
	"github.com/aretw0/deepstock/pkg/render"
)

// ErrUnknownTicket is returned by Wait for a ticket that was never issued.
var ErrUnknownTicket = errors.New("unknown request ticket")

// CredentialStore is the credential lifecycle the orchestrator depends on.
type CredentialStore interface {
	Current() domain.Credential
	Save(ctx context.Context, value string) error
}

// PromptBuilder maps a subject to the prompt text.
type PromptBuilder interface {
	Build(subject domain.Subject) string
}

// Snapshot is a read-only view of the orchestrator for presentation layers.
type Snapshot struct {
	State              domain.RequestState `json:"state"`
	CredentialRequired bool                `json:"credential_required"`
	CredentialSet      bool                `json:"credential_set"`
}

// Orchestrator owns the request state machine.
type Orchestrator struct {
	creds     CredentialStore
	generator ports.Generator
	prompts   PromptBuilder
	render    func(string) []domain.ContentBlock
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	timeout   time.Duration
	subBuffer int

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu                 sync.Mutex
	state              domain.RequestState
	ticket             uint64
	credentialRequired bool
	changed            chan struct{}
	subscribers        map[chan domain.RequestState]struct{}
	closed             bool
}

// New creates an Orchestrator in the idle state.
func New(creds CredentialStore, generator ports.Generator, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		creds:       creds,
		generator:   generator,
		prompts:     prompt.Default(),
		render:      render.Render,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		subBuffer:   16,
		baseCtx:     ctx,
		cancel:      cancel,
		state:       domain.IdleState(),
		changed:     make(chan struct{}),
		subscribers: make(map[chan domain.RequestState]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit starts a request for raw. An empty or whitespace-only subject is
// ignored and reports ok=false. The returned ticket identifies the request for Wait.
func (o *Orchestrator) Submit(raw string) (ticket uint64, ok bool) {
	subject, err := domain.NewSubject(raw)
	if err != nil {
		return 0, false
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return 0, false
	}

	o.ticket++
	ticket = o.ticket
	requestID := uuid.NewString()
	logger := o.logger.With("request_id", requestID, "ticket", ticket, "subject", subject)

	var transitions []*domain.TransitionEvent
	validating := domain.ValidatingState(ticket, requestID, subject, time.Now())
	transitions = append(transitions, o.setStateLocked(validating))

	cred := o.creds.Current()
	if !cred.IsSet() {
		genErr := domain.MissingCredentialError()
		o.credentialRequired = true
		transitions = append(transitions, o.setStateLocked(validating.Failed(genErr.Kind, genErr.Message, time.Now())))
		o.mu.Unlock()

		logger.Warn("Request rejected: credential required")
		o.emitTransitions(transitions)
		return ticket, true
	}

	inFlight := validating.InFlight()
	transitions = append(transitions, o.setStateLocked(inFlight))
	o.wg.Add(1)
	o.mu.Unlock()

	logger.Info("Request submitted", "credential", cred)
	o.emitTransitions(transitions)

	go o.run(inFlight, cred, logger)
	return ticket, true
}

// run performs the generator call for one ticket and applies its result if still current.
func (o *Orchestrator) run(st domain.RequestState, cred domain.Credential, logger *slog.Logger) {
	defer o.wg.Done()

	ctx := o.baseCtx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	text, genErr := o.generate(ctx, o.prompts.Build(st.Subject), cred)
	elapsed := time.Since(start)

	genEvent := &domain.GenerateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGenerate, RequestID: st.RequestID, Ticket: st.Ticket},
		Subject:   st.Subject,
		Duration:  elapsed,
	}
	if genErr != nil {
		genEvent.Kind = genErr.Kind
	}
	if o.hooks.OnGenerate != nil {
		o.hooks.OnGenerate(ctx, genEvent)
	}

	o.mu.Lock()
	if st.Ticket != o.ticket {
		current := o.ticket
		o.mu.Unlock()

		logger.Debug("Discarding superseded result", "current_ticket", current, "duration", elapsed)
		if o.hooks.OnDiscard != nil {
			o.hooks.OnDiscard(ctx, &domain.DiscardEvent{
				EventBase:     domain.EventBase{Timestamp: time.Now(), Type: domain.EventDiscard, RequestID: st.RequestID, Ticket: st.Ticket},
				Subject:       st.Subject,
				CurrentTicket: current,
			})
		}
		return
	}

	var next domain.RequestState
	if genErr != nil {
		if genErr.Kind == domain.ErrorMissingCredential {
			o.credentialRequired = true
		}
		next = st.Failed(genErr.Kind, genErr.Message, time.Now())
	} else {
		next = st.Succeeded(text, o.render(text), time.Now())
	}
	event := o.setStateLocked(next)
	o.mu.Unlock()

	if genErr != nil {
		logger.Warn("Request failed", "kind", genErr.Kind, "status", genErr.Status, "duration", elapsed, "error", genErr.Message)
	} else {
		logger.Info("Request succeeded", "chars", len(text), "blocks", len(next.Blocks), "duration", elapsed)
	}
	o.emitTransitions([]*domain.TransitionEvent{event})
}

// generate invokes the generator and normalizes every failure, including panics, to a GenerationError.
func (o *Orchestrator) generate(ctx context.Context, prompt string, cred domain.Credential) (text string, genErr *domain.GenerationError) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			genErr = domain.TransportError(fmt.Errorf("generator panic: %v", r))
		}
	}()

	text, err := o.generator.Generate(ctx, prompt, cred)
	if err == nil {
		return text, nil
	}
	if errors.As(err, &genErr) {
		return "", genErr
	}
	return "", domain.TransportError(err)
}

// setStateLocked replaces the state, wakes waiters and feeds subscribers.
// The returned event is for hooks, which run after the lock is released.
func (o *Orchestrator) setStateLocked(next domain.RequestState) *domain.TransitionEvent {
	prev := o.state.Phase
	o.state = next

	close(o.changed)
	o.changed = make(chan struct{})

	for ch := range o.subscribers {
		deliver(ch, next.Snapshot())
	}

	return &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition, RequestID: next.RequestID, Ticket: next.Ticket},
		From:      prev,
		To:        next.Snapshot(),
	}
}

func (o *Orchestrator) emitTransitions(events []*domain.TransitionEvent) {
	if o.hooks.OnTransition == nil {
		return
	}
	for _, e := range events {
		o.hooks.OnTransition(o.baseCtx, e)
	}
}

// deliver sends without blocking. A full buffer drops its oldest entry so the
// newest state always reaches the subscriber.
func deliver(ch chan domain.RequestState, st domain.RequestState) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

// SetCredential stores a new credential. A non-empty value clears the
// credential-required flag even if persisting it fails.
func (o *Orchestrator) SetCredential(ctx context.Context, value string) error {
	err := o.creds.Save(ctx, value)

	o.mu.Lock()
	if value != "" {
		o.credentialRequired = false
	}
	o.mu.Unlock()

	return err
}

// Snapshot returns a copy of the current observable state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:              o.state.Snapshot(),
		CredentialRequired: o.credentialRequired,
		CredentialSet:      o.creds.Current().IsSet(),
	}
}

// Credential returns the active credential.
func (o *Orchestrator) Credential() domain.Credential {
	return o.creds.Current()
}

// Wait blocks until the request identified by ticket is terminal.
// It returns domain.ErrSuperseded once a newer submission has replaced it.
func (o *Orchestrator) Wait(ctx context.Context, ticket uint64) (domain.RequestState, error) {
	for {
		o.mu.Lock()
		current, state, changed := o.ticket, o.state, o.changed
		o.mu.Unlock()

		switch {
		case ticket == 0 || ticket > current:
			return domain.RequestState{}, fmt.Errorf("%w: %d", ErrUnknownTicket, ticket)
		case ticket < current:
			return domain.RequestState{}, domain.ErrSuperseded
		case state.Phase.IsTerminal():
			return state.Snapshot(), nil
		}

		select {
		case <-ctx.Done():
			return domain.RequestState{}, ctx.Err()
		case <-changed:
		}
	}
}

// Subscribe returns a channel that first receives the current state and then
// every subsequent transition. Call cancel to release it.
func (o *Orchestrator) Subscribe() (<-chan domain.RequestState, func()) {
	ch := make(chan domain.RequestState, o.subBuffer)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	ch <- o.state.Snapshot()
	o.subscribers[ch] = struct{}{}
	o.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if _, ok := o.subscribers[ch]; ok {
				delete(o.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Close stops accepting submissions, cancels outstanding generator calls
// and waits for their goroutines to exit.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	for ch := range o.subscribers {
		delete(o.subscribers, ch)
		close(ch)
	}
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	return nil
}
