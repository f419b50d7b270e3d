package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnnounceFansOutToAllSenders(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := New([]Sender{a, b}, nil, testLogger())

	require.NoError(t, n.Announce(context.Background(), EventMarketResolved, "Resolved", "body"))
	assert.Equal(t, []string{"Resolved"}, a.titles)
	assert.Equal(t, []string{"Resolved"}, b.titles)
}

func TestAnnounceFiltersByAllowList(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := New([]Sender{s}, []string{"platform_reset"}, testLogger())

	require.NoError(t, n.Announce(context.Background(), EventMarketResolved, "Resolved", "body"))
	assert.Empty(t, s.titles)

	require.NoError(t, n.Announce(context.Background(), EventPlatformReset, "Reset", "body"))
	assert.Equal(t, []string{"Reset"}, s.titles)
}

func TestAnnounceCollectsSenderFailures(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("webhook 500")}
	good := &recordingSender{name: "good"}
	n := New([]Sender{bad, good}, nil, testLogger())

	err := n.Announce(context.Background(), EventPlatformReset, "Reset", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	// The healthy sender still received the announcement.
	assert.Equal(t, []string{"Reset"}, good.titles)
}
