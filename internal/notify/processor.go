package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"siteplan/internal/email"
	"siteplan/internal/queue"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBatchSize         = 10
	defaultVisibilityTimeout = 30 * time.Second
	defaultMaxRetries        = 3
)

type Config struct {
	BatchSize         int
	VisibilityTimeout time.Duration
	// MaxRetries is the last delivery attempt that is still dispatched.
	// A message read for the (MaxRetries+1)th time is archived.
	MaxRetries int
	// AppURL is the base for deep links in email bodies.
	AppURL   string
	Location *time.Location
}

func (c Config) normalized() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.VisibilityTimeout <= 0 {
		c.VisibilityTimeout = defaultVisibilityTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

type Deps struct {
	Queue       Queue
	Users       UserDirectory
	Preferences PreferenceSource
	Tokens      TokenSource
	Log         LogStore
	Push        PushSender
	Email       EmailSender
	Now         func() time.Time
}

type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeFailed       Outcome = "failed"
	OutcomeDeduplicated Outcome = "deduplicated"
	OutcomeNoTokens     Outcome = "no_tokens"
	OutcomeNoEmail      Outcome = "no_email"
	OutcomeDisabled     Outcome = "disabled"
)

const SkippedCategoryDisabled = "category_disabled"

type Result struct {
	MsgID    int64               `json:"msgId"`
	Success  bool                `json:"success"`
	Error    string              `json:"error,omitempty"`
	Archived bool                `json:"archived,omitempty"`
	Skipped  string              `json:"skipped,omitempty"`
	Channels map[Channel]Outcome `json:"channels,omitempty"`
}

type Summary struct {
	Processed int      `json:"processed"`
	Success   int      `json:"success"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Processor runs batch passes over the notification queue. Passes on one
// Processor never overlap, so the same-day duplicate check and the send
// it guards cannot interleave with another pass.
type Processor struct {
	mu     sync.Mutex
	deps   Deps
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

func NewProcessor(deps Deps, cfg Config, logger *slog.Logger) *Processor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		deps:   deps,
		cfg:    cfg.normalized(),
		logger: logger,
		tracer: otel.Tracer("siteplan/internal/notify"),
	}
}

// ProcessBatch reads one batch and handles every message in it. The only
// error it returns is a failed queue read; per-message failures are
// reported in the summary.
func (p *Processor) ProcessBatch(ctx context.Context) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := p.tracer.Start(ctx, "notify.ProcessBatch")
	defer span.End()

	msgs, err := p.deps.Queue.Read(ctx, p.cfg.BatchSize, p.cfg.VisibilityTimeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue read failed")
		return Summary{}, fmt.Errorf("read queue: %w", err)
	}

	sum := Summary{Results: make([]Result, 0, len(msgs))}
	for _, m := range msgs {
		res := p.processMessage(ctx, m)
		sum.Processed++
		if res.Success {
			sum.Success++
		} else {
			sum.Failed++
		}
		sum.Results = append(sum.Results, res)
	}

	span.SetAttributes(
		attribute.Int("notify.processed", sum.Processed),
		attribute.Int("notify.failed", sum.Failed),
	)
	if sum.Processed > 0 {
		p.logger.Info("notification batch processed",
			"processed", sum.Processed,
			"success", sum.Success,
			"failed", sum.Failed,
		)
	}
	return sum, nil
}

func (p *Processor) processMessage(ctx context.Context, m queue.Message) Result {
	ctx, span := p.tracer.Start(ctx, "notify.processMessage", trace.WithAttributes(
		attribute.Int64("queue.msg_id", m.MsgID),
		attribute.Int("queue.read_ct", m.ReadCt),
	))
	defer span.End()

	res := Result{MsgID: m.MsgID}
	log := p.logger.With("msg_id", m.MsgID, "attempt", m.ReadCt)

	if m.ReadCt > p.cfg.MaxRetries {
		if err := p.deps.Queue.Archive(ctx, m.MsgID); err != nil {
			res.Error = fmt.Sprintf("archive after %d attempts: %v", m.ReadCt, err)
			log.Error("archive notification message", "error", err)
		} else {
			res.Archived = true
			res.Error = fmt.Sprintf("max retries exceeded (%d attempts)", m.ReadCt)
			log.Warn("notification message dead-lettered")
		}
		span.SetStatus(codes.Error, res.Error)
		return res
	}

	ev, err := DecodeEvent(m.Message)
	if err != nil {
		res.Error = err.Error()
		log.Error("decode notification event", "error", err)
		span.SetStatus(codes.Error, res.Error)
		return res
	}
	log = log.With("user_id", ev.UserID, "type", ev.Type)

	skipped, channels, err := p.deliver(ctx, ev)
	res.Skipped = skipped
	res.Channels = channels
	if err != nil {
		res.Error = err.Error()
		log.Warn("notification delivery failed, leaving for retry", "error", err)
		span.SetStatus(codes.Error, res.Error)
		return res
	}

	if err := p.deps.Queue.Delete(ctx, m.MsgID); err != nil {
		res.Error = fmt.Sprintf("delete message: %v", err)
		log.Error("delete notification message", "error", err)
		span.SetStatus(codes.Error, res.Error)
		return res
	}
	res.Success = true
	return res
}

// deliver resolves preferences and runs every enabled channel. Channels
// are independent: a failure on one does not stop the other.
func (p *Processor) deliver(ctx context.Context, ev Event) (string, map[Channel]Outcome, error) {
	address, err := p.deps.Users.Email(ctx, ev.UserID)
	if err != nil {
		return "", nil, fmt.Errorf("lookup user %s: %w", ev.UserID, err)
	}
	prefs, err := p.deps.Preferences.Preferences(ctx, ev.UserID)
	if err != nil {
		return "", nil, fmt.Errorf("load preferences: %w", err)
	}
	if !prefs.CategoryEnabled(ev.Type) {
		return SkippedCategoryDisabled, nil, nil
	}

	outcomes := make(map[Channel]Outcome, 2)
	var errs []error

	out, err := p.dispatchPush(ctx, ev, prefs)
	outcomes[ChannelPush] = out
	if err != nil {
		errs = append(errs, fmt.Errorf("push: %w", err))
	}

	out, err = p.dispatchEmail(ctx, ev, prefs, address)
	outcomes[ChannelEmail] = out
	if err != nil {
		errs = append(errs, fmt.Errorf("email: %w", err))
	}

	return "", outcomes, errors.Join(errs...)
}

func (p *Processor) dispatchPush(ctx context.Context, ev Event, prefs Preferences) (Outcome, error) {
	if !prefs.ChannelEnabled(ChannelPush) {
		return OutcomeDisabled, nil
	}
	dup, err := p.alreadySent(ctx, ev, ChannelPush)
	if err != nil {
		return OutcomeFailed, err
	}
	if dup {
		return OutcomeDeduplicated, nil
	}

	tokens, err := p.deps.Tokens.ActivePushTokens(ctx, ev.UserID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return OutcomeNoTokens, nil
	}

	sendErr := p.deps.Push.Send(ctx, tokens, ev.Title, ev.Body, ev.Data)
	return p.record(ctx, ev, ChannelPush, sendErr)
}

func (p *Processor) dispatchEmail(ctx context.Context, ev Event, prefs Preferences, address string) (Outcome, error) {
	if !prefs.ChannelEnabled(ChannelEmail) {
		return OutcomeDisabled, nil
	}
	if strings.TrimSpace(address) == "" {
		return OutcomeNoEmail, nil
	}
	dup, err := p.alreadySent(ctx, ev, ChannelEmail)
	if err != nil {
		return OutcomeFailed, err
	}
	if dup {
		return OutcomeDeduplicated, nil
	}

	html, err := email.Render(email.Content{
		Title:       ev.Title,
		Body:        ev.Body,
		ProjectName: ev.ProjectName(),
		ActionURL:   p.actionURL(ev),
	})
	if err != nil {
		return p.record(ctx, ev, ChannelEmail, fmt.Errorf("render email: %w", err))
	}

	sendErr := p.deps.Email.Send(ctx, address, ev.Title, html)
	return p.record(ctx, ev, ChannelEmail, sendErr)
}

// alreadySent reports whether the channel already has a sent log row for
// this event today. Events without a related id are never deduplicated.
func (p *Processor) alreadySent(ctx context.Context, ev Event, ch Channel) (bool, error) {
	if strings.TrimSpace(ev.RelatedID) == "" {
		return false, nil
	}
	key := DedupKey{UserID: ev.UserID, Type: ev.Type, RelatedID: ev.RelatedID, Channel: ch}
	found, err := p.deps.Log.SentSince(ctx, key, p.startOfDay())
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return found, nil
}

func (p *Processor) record(ctx context.Context, ev Event, ch Channel, sendErr error) (Outcome, error) {
	now := p.deps.Now()
	entry := LogEntry{
		UserID:      ev.UserID,
		Type:        ev.Type,
		Title:       ev.Title,
		Body:        ev.Body,
		Data:        ev.Data,
		Channel:     ch,
		RelatedType: ev.RelatedType,
		RelatedID:   ev.RelatedID,
		CreatedAt:   now,
	}
	if sendErr != nil {
		entry.Status = StatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		entry.Status = StatusSent
		entry.SentAt = &now
	}

	if err := p.deps.Log.Record(ctx, entry); err != nil {
		return OutcomeFailed, errors.Join(sendErr, fmt.Errorf("record log: %w", err))
	}
	if sendErr != nil {
		return OutcomeFailed, sendErr
	}
	return OutcomeSent, nil
}

func (p *Processor) startOfDay() time.Time {
	now := p.deps.Now().In(p.cfg.Location)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.cfg.Location)
}

func (p *Processor) actionURL(ev Event) string {
	base := strings.TrimRight(strings.TrimSpace(p.cfg.AppURL), "/")
	if base == "" {
		return ""
	}
	if id := ev.ProjectID(); id != "" {
		return base + "/projects/" + url.PathEscape(id)
	}
	return base
}
