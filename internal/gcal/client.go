package gcal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Calendar is a remote calendar as seen by the gateway.
type Calendar struct {
	ID      string
	Title   string
	ColorID string
	Primary bool
}

// Event is a remote event reduced to the fields the reconciler cares about.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// Gateway is the remote calendar surface the reconciler drives. Implemented
// by Client; reconciler tests supply a mock.
type Gateway interface {
	ListCalendars(ctx context.Context) ([]Calendar, error)
	CreateCalendar(ctx context.Context, title, colorID string) (string, error)
	DeleteCalendar(ctx context.Context, calendarID string) error
	ListEvents(ctx context.Context, calendarID string) ([]Event, error)
	CreateEvent(ctx context.Context, calendarID string, event *Event) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// RetryPolicy bounds the backoff loop around rate-limited calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy mirrors the service's documented quota behavior:
// up to 5 attempts starting at 10s, doubling each time.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Second, Multiplier: 2}
}

// Options tunes pacing and retries. Zero values take defaults.
type Options struct {
	// CalendarPause is the minimum gap between calendar-level mutations.
	CalendarPause time.Duration
	// EventPause is the minimum gap between event-level mutations.
	EventPause time.Duration
	Retry      RetryPolicy
	Timezone   string
}

// Client wraps the Google Calendar API with pacing between mutating calls
// and bounded retry on rate limits. All calls are synchronous; the only
// waiting is the explicit pause and the backoff sleeps, both of which abort
// when ctx is done.
type Client struct {
	service *calendar.Service
	opts    Options

	lastCalendarMutation time.Time
	lastEventMutation    time.Time
}

// NewClient builds a gateway over an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, opts Options) (*Client, error) {
	service, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if opts.CalendarPause == 0 {
		opts.CalendarPause = 30 * time.Second
	}
	if opts.EventPause == 0 {
		opts.EventPause = 500 * time.Millisecond
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Timezone == "" {
		opts.Timezone = "Europe/Paris"
	}
	return &Client{service: service, opts: opts}, nil
}

// pace blocks until at least min has elapsed since the last mutation of the
// same kind, or ctx is cancelled.
func (c *Client) pace(ctx context.Context, last *time.Time, min time.Duration) error {
	if !last.IsZero() {
		if wait := min - time.Since(*last); wait > 0 {
			log.Printf("pacing: waiting %s before next call", wait.Round(time.Millisecond))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	*last = time.Now()
	return nil
}

// withRetry runs fn under the retry policy. Rate-limit responses back off
// and retry; auth failures and other API errors stop immediately. The
// returned error is already classified into the gateway taxonomy.
func (c *Client) withRetry(ctx context.Context, label string, fn func() error) error {
	policy := c.opts.Retry

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.Multiplier = policy.Multiplier
	b.MaxInterval = 5 * time.Minute
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0

	attempt := 0
	op := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if isAuthFailure(err) {
			return backoff.Permanent(&AuthError{Err: err})
		}
		if isRateLimited(err) {
			log.Printf("%s: rate limited, retrying (attempt %d/%d)", label, attempt, policy.MaxAttempts)
			return err
		}
		if isTransient(err) {
			log.Printf("%s: transient failure, retrying (attempt %d/%d): %v", label, attempt, policy.MaxAttempts, err)
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.MaxAttempts-1)), ctx))
	if err == nil {
		return nil
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	if isRateLimited(err) {
		return &QuotaError{Attempts: attempt, Err: err}
	}
	if isTransient(err) {
		return &NetworkError{Err: fmt.Errorf("%s: %w", label, err)}
	}
	return fmt.Errorf("%s: %w", label, err)
}

// ListCalendars returns every calendar on the account, following pagination.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var calendars []Calendar
	pageToken := ""
	for {
		call := c.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *calendar.CalendarList
		err := c.withRetry(ctx, "list calendars", func() error {
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			calendars = append(calendars, Calendar{
				ID:      item.Id,
				Title:   item.Summary,
				ColorID: item.ColorId,
				Primary: item.Primary,
			})
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return calendars, nil
		}
	}
}

// CreateCalendar creates a calendar and applies the palette color, pacing
// against the previous calendar mutation. Returns the new calendar ID. A
// color-setting failure is logged, not fatal.
func (c *Client) CreateCalendar(ctx context.Context, title, colorID string) (string, error) {
	if err := c.pace(ctx, &c.lastCalendarMutation, c.opts.CalendarPause); err != nil {
		return "", err
	}

	var created *calendar.Calendar
	err := c.withRetry(ctx, fmt.Sprintf("create calendar %q", title), func() error {
		var err error
		created, err = c.service.Calendars.Insert(&calendar.Calendar{
			Summary:  title,
			TimeZone: c.opts.Timezone,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}

	if colorID != "" {
		err := c.withRetry(ctx, fmt.Sprintf("set color for %q", title), func() error {
			_, err := c.service.CalendarList.Patch(created.Id, &calendar.CalendarListEntry{
				ColorId: colorID,
			}).Context(ctx).Do()
			return err
		})
		if err != nil {
			log.Printf("warning: failed to set color for calendar %q: %v", title, err)
		}
	}

	return created.Id, nil
}

// DeleteCalendar removes a calendar outright.
func (c *Client) DeleteCalendar(ctx context.Context, calendarID string) error {
	if err := c.pace(ctx, &c.lastCalendarMutation, c.opts.CalendarPause); err != nil {
		return err
	}
	return c.withRetry(ctx, "delete calendar", func() error {
		err := c.service.Calendars.Delete(calendarID).Context(ctx).Do()
		if isNotFound(err) {
			return nil
		}
		return err
	})
}

// ListEvents returns every single-instance event in a calendar.
func (c *Client) ListEvents(ctx context.Context, calendarID string) ([]Event, error) {
	var events []Event
	pageToken := ""
	for {
		call := c.service.Events.List(calendarID).SingleEvents(true).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var resp *calendar.Events
		err := c.withRetry(ctx, "list events", func() error {
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			ev, err := fromAPIEvent(item)
			if err != nil {
				log.Printf("warning: skipping unparseable event %s: %v", item.Id, err)
				continue
			}
			events = append(events, ev)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return events, nil
		}
	}
}

// CreateEvent inserts an event, pacing against the previous event mutation.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, event *Event) error {
	if err := c.pace(ctx, &c.lastEventMutation, c.opts.EventPause); err != nil {
		return err
	}
	return c.withRetry(ctx, fmt.Sprintf("create event %q", event.Title), func() error {
		_, err := c.service.Events.Insert(calendarID, c.toAPIEvent(event)).
			SendUpdates("none").
			Context(ctx).Do()
		return err
	})
}

// DeleteEvent removes a single event; already-gone events are not an error.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.pace(ctx, &c.lastEventMutation, c.opts.EventPause); err != nil {
		return err
	}
	return c.withRetry(ctx, "delete event", func() error {
		err := c.service.Events.Delete(calendarID, eventID).
			SendUpdates("none").
			Context(ctx).Do()
		if isNotFound(err) {
			return nil
		}
		return err
	})
}

func (c *Client) toAPIEvent(ev *Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
	}
	if ev.AllDay {
		out.Start = &calendar.EventDateTime{Date: ev.Start.Format("2006-01-02")}
		out.End = &calendar.EventDateTime{Date: ev.End.Format("2006-01-02")}
	} else {
		out.Start = &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: c.opts.Timezone,
		}
		out.End = &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: c.opts.Timezone,
		}
	}
	return out
}

func fromAPIEvent(item *calendar.Event) (Event, error) {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}
	if item.Start == nil || item.End == nil {
		return ev, fmt.Errorf("event has no start or end")
	}
	if item.Start.Date != "" {
		ev.AllDay = true
		start, err := time.Parse("2006-01-02", item.Start.Date)
		if err != nil {
			return ev, err
		}
		end, err := time.Parse("2006-01-02", item.End.Date)
		if err != nil {
			return ev, err
		}
		ev.Start, ev.End = start, end
		return ev, nil
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return ev, err
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return ev, err
	}
	ev.Start, ev.End = start, end
	return ev, nil
}
