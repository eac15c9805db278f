package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"siteplan/internal/queue"
)

// fakeQueue treats the visibility timeout as elapsed between reads, so
// every retained message is returned again by the next Read.
type fakeQueue struct {
	msgs     map[int64]*queue.Message
	nextID   int64
	deleted  []int64
	archived []int64
	readErr  error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{msgs: map[int64]*queue.Message{}}
}

func (q *fakeQueue) enqueue(t *testing.T, ev Event) int64 {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return q.enqueueRaw(b, 0)
}

func (q *fakeQueue) enqueueRaw(payload []byte, readCt int) int64 {
	q.nextID++
	q.msgs[q.nextID] = &queue.Message{MsgID: q.nextID, ReadCt: readCt, Message: payload}
	return q.nextID
}

func (q *fakeQueue) Read(_ context.Context, n int, _ time.Duration) ([]queue.Message, error) {
	if q.readErr != nil {
		return nil, q.readErr
	}
	ids := make([]int64, 0, len(q.msgs))
	for id := range q.msgs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []queue.Message
	for _, id := range ids {
		if len(out) == n {
			break
		}
		m := q.msgs[id]
		m.ReadCt++
		out = append(out, *m)
	}
	return out, nil
}

func (q *fakeQueue) Delete(_ context.Context, id int64) error {
	delete(q.msgs, id)
	q.deleted = append(q.deleted, id)
	return nil
}

func (q *fakeQueue) Archive(_ context.Context, id int64) error {
	delete(q.msgs, id)
	q.archived = append(q.archived, id)
	return nil
}

type fakeUsers map[string]string

func (u fakeUsers) Email(_ context.Context, userID string) (string, error) {
	email, ok := u[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return email, nil
}

type fakePrefs map[string]Preferences

func (p fakePrefs) Preferences(_ context.Context, userID string) (Preferences, error) {
	return p[userID], nil
}

type fakeTokens map[string][]string

func (f fakeTokens) ActivePushTokens(_ context.Context, userID string) ([]string, error) {
	return f[userID], nil
}

type fakeLog struct {
	entries []LogEntry
}

func (l *fakeLog) SentSince(_ context.Context, key DedupKey, since time.Time) (bool, error) {
	for _, e := range l.entries {
		if e.UserID == key.UserID && e.Type == key.Type && e.RelatedID == key.RelatedID &&
			e.Channel == key.Channel && e.Status == StatusSent && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLog) Record(_ context.Context, e LogEntry) error {
	l.entries = append(l.entries, e)
	return nil
}

func (l *fakeLog) count(ch Channel, status Status) int {
	n := 0
	for _, e := range l.entries {
		if e.Channel == ch && e.Status == status {
			n++
		}
	}
	return n
}

type pushCall struct {
	tokens []string
	title  string
	body   string
	data   map[string]any
}

type fakePush struct {
	calls []pushCall
	err   error
}

func (p *fakePush) Send(_ context.Context, tokens []string, title, body string, data map[string]any) error {
	p.calls = append(p.calls, pushCall{tokens: tokens, title: title, body: body, data: data})
	return p.err
}

type emailCall struct {
	to      string
	subject string
	html    string
}

type fakeEmail struct {
	calls []emailCall
	// errs is consumed one per call; nil entries and an exhausted slice
	// mean success
	errs []error
}

func (e *fakeEmail) Send(_ context.Context, to, subject, html string) error {
	e.calls = append(e.calls, emailCall{to: to, subject: subject, html: html})
	if len(e.errs) == 0 {
		return nil
	}
	err := e.errs[0]
	e.errs = e.errs[1:]
	return err
}

var errGateway = errors.New("email gateway status 503: unavailable")

type harness struct {
	queue  *fakeQueue
	users  fakeUsers
	prefs  fakePrefs
	tokens fakeTokens
	log    *fakeLog
	push   *fakePush
	email  *fakeEmail
	now    time.Time
	cfg    Config
}

func newHarness() *harness {
	return &harness{
		queue:  newFakeQueue(),
		users:  fakeUsers{"u1": "owner@example.com"},
		prefs:  fakePrefs{},
		tokens: fakeTokens{"u1": {"ExponentPushToken[a]", "ExponentPushToken[b]"}},
		log:    &fakeLog{},
		push:   &fakePush{},
		email:  &fakeEmail{},
		now:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		cfg:    Config{MaxRetries: 3, AppURL: "https://app.siteplan.test"},
	}
}

func (h *harness) processor() *Processor {
	return h.processorWith(h.push, h.email)
}

func (h *harness) processorWith(push PushSender, email EmailSender) *Processor {
	return NewProcessor(Deps{
		Queue:       h.queue,
		Users:       h.users,
		Preferences: h.prefs,
		Tokens:      h.tokens,
		Log:         h.log,
		Push:        push,
		Email:       email,
		Now:         func() time.Time { return h.now },
	}, h.cfg, nil)
}

func (h *harness) run(t *testing.T) Summary {
	t.Helper()
	sum, err := h.processor().ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	return sum
}

func boolPtr(b bool) *bool { return &b }
