// Package googlecal adapts the Google Calendar API to the calendar provider
// interface used by the task sync layer.
package googlecal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/daybookhq/daybook-api/internal/domain"
	"github.com/daybookhq/daybook-api/internal/service"
)

// dateFormat renders whole dates for all-day events.
const dateFormat = "2006-01-02"

// Client talks to Google Calendar on behalf of individual users. A fresh
// service is built per call from the user's stored token; the client itself
// holds no per-user state and is safe for concurrent use.
type Client struct {
	calendarID string
	logger     *slog.Logger
}

// Ensure Client implements the provider interface.
var _ service.CalendarAPI = (*Client)(nil)

// NewClient creates a calendar client targeting the given calendar ID.
// "primary" addresses the user's default calendar.
func NewClient(calendarID string, log *slog.Logger) *Client {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		calendarID: calendarID,
		logger:     log.With(slog.String("component", "googlecal")),
	}
}

// service builds a calendar API service authenticated as the user.
func (c *Client) service(ctx context.Context, cred domain.CalendarCredential) (*calendar.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
	})

	svc, err := calendar.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}
	return svc, nil
}

// event converts the provider-neutral representation into a calendar event.
// All-day events carry whole dates; timed events carry RFC 3339 instants in
// UTC.
func (c *Client) event(in service.CalendarEvent) *calendar.Event {
	event := &calendar.Event{
		Summary:     in.Title,
		Description: in.Description,
	}

	if in.AllDay {
		event.Start = &calendar.EventDateTime{Date: in.Start.UTC().Format(dateFormat)}
		event.End = &calendar.EventDateTime{Date: in.End.UTC().Format(dateFormat)}
		return event
	}

	event.Start = &calendar.EventDateTime{
		DateTime: in.Start.UTC().Format(time.RFC3339),
		TimeZone: "UTC",
	}
	event.End = &calendar.EventDateTime{
		DateTime: in.End.UTC().Format(time.RFC3339),
		TimeZone: "UTC",
	}
	return event
}

// CreateEvent inserts a new event and returns Google's event ID.
func (c *Client) CreateEvent(ctx context.Context, cred domain.CalendarCredential, in service.CalendarEvent) (string, error) {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return "", err
	}

	created, err := svc.Events.Insert(c.calendarID, c.event(in)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	c.logger.Debug("calendar event created",
		slog.String("event_id", created.Id))
	return created.Id, nil
}

// UpdateEvent overwrites the event identified by eventID.
func (c *Client) UpdateEvent(ctx context.Context, cred domain.CalendarCredential, eventID string, in service.CalendarEvent) error {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return err
	}

	if _, err := svc.Events.Update(c.calendarID, eventID, c.event(in)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update calendar event %s: %w", eventID, err)
	}
	return nil
}

// DeleteEvent removes the event identified by eventID.
func (c *Client) DeleteEvent(ctx context.Context, cred domain.CalendarCredential, eventID string) error {
	svc, err := c.service(ctx, cred)
	if err != nil {
		return err
	}

	if err := svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}
