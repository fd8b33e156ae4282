package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/internal/slogx"
	"github.com/layer-3/recipebook/ports"
)

// DefaultRefreshTimeout bounds a single credential refresh
const DefaultRefreshTimeout = 10 * time.Second

// Guard owns the client session and mediates every outbound request. It
// attaches the bearer credential, and on a 401 runs at most one refresh at a
// time while later 401s wait in a FIFO queue for that refresh to settle.
//
// Guard implements http.RoundTripper so it can be composed around any
// transport.
type Guard struct {
	next      http.RoundTripper
	store     ports.CredentialStore
	refresher ports.Refresher
	eventPub  ports.EventPublisher
	logger    *slog.Logger

	refreshTimeout time.Duration

	// persist orders store writes. It is taken before mu, never after.
	persist sync.Mutex

	mu    sync.Mutex
	state session
}

// session is the mutable state shared by every request path. All fields are
// guarded by Guard.mu.
type session struct {
	identity   *core.Identity
	creds      core.Credentials
	refreshing bool
	pending    []*replay

	// gen changes whenever the session is replaced or ended. A refresh only
	// applies its outcome to the generation it started in.
	gen uint64
}

// replay is a deferred request waiting for a refresh to settle. result has
// capacity one and receives exactly one value.
type replay struct {
	req    *http.Request
	result chan replayResult
}

type replayResult struct {
	resp *http.Response
	err  error
}

func newReplay(req *http.Request) *replay {
	return &replay{req: req, result: make(chan replayResult, 1)}
}

func (r *replay) settle(resp *http.Response, err error) {
	r.result <- replayResult{resp: resp, err: err}
}

// discard closes the response of a replay whose caller stopped waiting
func (r *replay) discard() {
	res := <-r.result
	if res.resp != nil {
		res.resp.Body.Close()
	}
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithTransport sets the transport requests are sent through
func WithTransport(next http.RoundTripper) GuardOption {
	return func(g *Guard) { g.next = next }
}

// WithRefreshTimeout bounds each refresh call. A refresh that does not settle
// in time fails the session.
func WithRefreshTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.refreshTimeout = d
		}
	}
}

// WithEventPublisher sets where session-ended events go
func WithEventPublisher(pub ports.EventPublisher) GuardOption {
	return func(g *Guard) { g.eventPub = pub }
}

// WithLogger sets the logger for refresh and replay events
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) { g.logger = logger }
}

// NewGuard creates a guard with an empty session. Call Restore to pick up
// credentials persisted by a previous run.
func NewGuard(store ports.CredentialStore, refresher ports.Refresher, opts ...GuardOption) *Guard {
	g := &Guard{
		next:           http.DefaultTransport,
		store:          store,
		refresher:      refresher,
		logger:         slog.Default(),
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Restore loads persisted credentials into the session
func (g *Guard) Restore(ctx context.Context) error {
	creds, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore credentials: %w", err)
	}

	g.mu.Lock()
	g.state.creds = creds
	g.mu.Unlock()

	return nil
}

// Identity returns the signed-in user, or nil when logged out
func (g *Guard) Identity() *core.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.identity == nil {
		return nil
	}
	identity := *g.state.identity
	return &identity
}

// Credentials returns the current credential pair
func (g *Guard) Credentials() core.Credentials {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.creds
}

// SetIdentity records the signed-in user without touching credentials
func (g *Guard) SetIdentity(identity *core.Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.identity = identity
}

// SetSession persists creds and records the signed-in user. Requests queued
// behind a refresh of the previous session are rejected with
// core.ErrUnauthenticated.
func (g *Guard) SetSession(ctx context.Context, identity *core.Identity, creds core.Credentials) error {
	g.persist.Lock()
	defer g.persist.Unlock()

	if err := g.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	g.mu.Lock()
	g.state.identity = identity
	g.state.creds = creds
	entries := g.resetLocked()
	g.mu.Unlock()

	reject(entries, core.ErrUnauthenticated)
	return nil
}

// Clear drops identity and both credentials. In-memory state is cleared even
// when the store fails. A refresh still in flight is abandoned: its outcome
// is discarded and its queue is rejected with core.ErrUnauthenticated.
func (g *Guard) Clear(ctx context.Context) error {
	g.persist.Lock()
	defer g.persist.Unlock()

	g.mu.Lock()
	g.state.identity = nil
	g.state.creds = core.Credentials{}
	entries := g.resetLocked()
	g.mu.Unlock()

	reject(entries, core.ErrUnauthenticated)

	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// resetLocked starts a new session generation and detaches the refresh queue
// of the previous one. g.mu must be held.
func (g *Guard) resetLocked() []*replay {
	g.state.gen++
	g.state.refreshing = false
	entries := g.state.pending
	g.state.pending = nil
	return entries
}

func reject(entries []*replay, err error) {
	for _, entry := range entries {
		entry.settle(nil, err)
	}
}

// Refreshing reports whether a refresh is in flight
func (g *Guard) Refreshing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.refreshing
}

// Pending returns the number of requests waiting on the in-flight refresh
func (g *Guard) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.state.pending)
}

// RoundTrip sends req with the current credential and recovers from a single
// expired-credential response.
func (g *Guard) RoundTrip(req *http.Request) (*http.Response, error) {
	prepared, err := rewindable(req)
	if err != nil {
		return nil, err
	}

	sent := g.AttachCredential(prepared)
	resp, err := g.next.RoundTrip(sent)
	return g.HandleResponse(sent, resp, err)
}

// AttachCredential returns a copy of req carrying the access credential, if any.
// Without a credential the request goes out unauthenticated.
func (g *Guard) AttachCredential(req *http.Request) *http.Request {
	g.mu.Lock()
	access := g.state.creds.Access
	g.mu.Unlock()

	out := req.Clone(req.Context())
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	return out
}

type action int

const (
	passThrough action = iota
	lead
	wait
	replayNow
)

// HandleResponse inspects the outcome of sent. Everything except a first 401
// on a session that holds credentials is returned unchanged.
func (g *Guard) HandleResponse(sent *http.Request, resp *http.Response, err error) (*http.Response, error) {
	if err != nil || resp.StatusCode != http.StatusUnauthorized || isRetried(sent) {
		return resp, err
	}

	entry := newReplay(markRetried(sent))
	ctx := sent.Context()

	g.mu.Lock()
	var (
		next    action
		current = g.state.creds
		gen     = g.state.gen
	)
	switch {
	case g.state.refreshing:
		g.state.pending = append(g.state.pending, entry)
		next = wait
	case current.Empty():
		next = passThrough
	case current.Access != "" && current.Access != bearer(sent):
		// The credential was rotated after this request went out
		next = replayNow
	default:
		g.state.refreshing = true
		g.state.pending = append(g.state.pending, entry)
		next = lead
	}
	queued := len(g.state.pending)
	g.mu.Unlock()

	if next == passThrough {
		return resp, err
	}

	drainBody(resp)

	switch next {
	case wait:
		g.logger.Debug("request queued behind refresh",
			"method", sent.Method, "url", sent.URL.Redacted(), "queued", queued)
	case replayNow:
		g.logger.Debug("replaying request with rotated credential",
			"method", sent.Method, "url", sent.URL.Redacted())
		return g.send(entry.req, current.Access)
	case lead:
		g.logger.Debug("access credential expired, refreshing",
			"method", sent.Method, "url", sent.URL.Redacted())
		go g.refresh(ctx, gen, current.Refresh)
	}

	return g.await(ctx, entry)
}

// refresh runs the single in-flight refresh of session generation gen and
// settles the queue. It outlives the leader's context because other requests
// depend on it.
func (g *Guard) refresh(ctx context.Context, gen uint64, refreshToken string) {
	base := context.WithoutCancel(ctx)

	creds, err := g.exchange(base, refreshToken)
	if err != nil {
		g.fail(base, gen, err)
		return
	}
	g.succeed(base, gen, creds)
}

func (g *Guard) exchange(ctx context.Context, refreshToken string) (core.Credentials, error) {
	if refreshToken == "" {
		return core.Credentials{}, core.ErrNoRefreshCredential
	}

	ctx, cancel := context.WithTimeout(ctx, g.refreshTimeout)
	defer cancel()

	// The refresher may ignore ctx, so the timeout is enforced here as well
	done := make(chan refreshResult, 1)
	go func() {
		creds, err := g.refresher.Refresh(ctx, refreshToken)
		done <- refreshResult{creds: creds, err: err}
	}()

	var res refreshResult
	select {
	case res = <-done:
	case <-ctx.Done():
		return core.Credentials{}, fmt.Errorf("%w after %s", core.ErrRefreshTimeout, g.refreshTimeout)
	}

	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			return core.Credentials{}, fmt.Errorf("%w after %s: %w", core.ErrRefreshTimeout, g.refreshTimeout, res.err)
		}
		return core.Credentials{}, res.err
	}
	if res.creds.Access == "" {
		return core.Credentials{}, errors.New("refresh response carried no access credential")
	}
	if res.creds.Refresh == "" {
		res.creds.Refresh = refreshToken
	}
	return res.creds, nil
}

type refreshResult struct {
	creds core.Credentials
	err   error
}

// current reports whether gen is still the live session generation
func (g *Guard) current(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.gen == gen
}

func (g *Guard) succeed(ctx context.Context, gen uint64, creds core.Credentials) {
	g.persist.Lock()
	defer g.persist.Unlock()

	if !g.current(gen) {
		g.logger.Debug("session ended during refresh, discarding refreshed credentials")
		return
	}

	if err := g.store.Save(ctx, creds); err != nil {
		// The session keeps working from memory
		g.logger.Warn("failed to persist refreshed credentials", "error", err)
	}

	g.mu.Lock()
	g.state.creds = creds
	g.state.refreshing = false
	entries := g.state.pending
	g.state.pending = nil
	g.mu.Unlock()

	g.logger.Info("access credential refreshed",
		slogx.Token("access", creds.Access), "replays", len(entries))

	go g.drain(entries, creds.Access)
}

func (g *Guard) fail(ctx context.Context, gen uint64, cause error) {
	g.persist.Lock()

	g.mu.Lock()
	if g.state.gen != gen {
		g.mu.Unlock()
		g.persist.Unlock()
		g.logger.Debug("session ended during refresh, ignoring refresh failure", "error", cause)
		return
	}
	identity := g.state.identity
	g.state.identity = nil
	g.state.creds = core.Credentials{}
	entries := g.resetLocked()
	g.mu.Unlock()

	if err := g.store.Clear(ctx); err != nil {
		g.logger.Warn("failed to clear credentials", "error", err)
	}
	g.persist.Unlock()

	var username string
	if identity != nil {
		username = identity.Username
	}
	g.logger.Warn("credential refresh failed, session ended",
		"username", username, "error", cause, "rejected", len(entries))

	// The sign-in prompt goes out before any caller sees the failure
	if g.eventPub != nil {
		if err := g.eventPub.PublishSessionEnded(ctx, username, core.SessionEndRefreshFailed); err != nil {
			g.logger.Error("failed to publish session ended event", "error", err)
		}
	}

	reject(entries, fmt.Errorf("%w: %w", core.ErrRefreshFailed, cause))
}

// drain replays entries in arrival order. Each replay is dispatched once the
// previous one has been written to the wire, without waiting for its response.
func (g *Guard) drain(entries []*replay, access string) {
	for _, entry := range entries {
		if err := entry.req.Context().Err(); err != nil {
			entry.settle(nil, err)
			continue
		}

		wrote := make(chan struct{})
		var once sync.Once
		written := func() { once.Do(func() { close(wrote) }) }

		req := entry.req.WithContext(httptrace.WithClientTrace(entry.req.Context(),
			&httptrace.ClientTrace{WroteRequest: func(httptrace.WroteRequestInfo) { written() }}))

		go func() {
			// Transports without trace support release the next replay on return
			defer written()
			entry.settle(g.send(req, access))
		}()
		<-wrote
	}
}

func (g *Guard) send(req *http.Request, access string) (*http.Response, error) {
	out, err := withCredential(req, access)
	if err != nil {
		return nil, err
	}
	return g.next.RoundTrip(out)
}

func (g *Guard) await(ctx context.Context, entry *replay) (*http.Response, error) {
	select {
	case res := <-entry.result:
		return res.resp, res.err
	case <-ctx.Done():
		go entry.discard()
		return nil, ctx.Err()
	}
}

type retriedKey struct{}

func markRetried(req *http.Request) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), retriedKey{}, true))
}

func isRetried(req *http.Request) bool {
	retried, _ := req.Context().Value(retriedKey{}).(bool)
	return retried
}

func bearer(req *http.Request) string {
	return strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
}

// withCredential clones req with a fresh body and the given bearer token
func withCredential(req *http.Request, access string) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	} else {
		out.Header.Del("Authorization")
	}
	return out, nil
}

// rewindable returns a copy of req whose body can be sent again
func rewindable(req *http.Request) (*http.Request, error) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return out, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}

	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return out, nil
}

func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}
