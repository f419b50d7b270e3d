package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahminpazari/marketd/internal/domain"
	"github.com/tahminpazari/marketd/internal/notify"
)

func TestResolveSettlesAnnouncesAndArchives(t *testing.T) {
	ledger := &stubLedger{payout: 420}
	markets := &stubMarketStore{markets: map[string]domain.Market{
		"m1": {ID: "m1", Question: "Will it rain?"},
	}}
	bus := &stubBus{}
	announcer := &stubAnnouncer{}
	archiver := &stubArchiver{records: 7}

	svc := NewResolutionService(ledger, markets, bus, announcer, archiver, discardLogger())

	res, err := svc.Resolve(context.Background(), "m1", domain.OutcomeYes)
	require.NoError(t, err)

	assert.Equal(t, 420.0, res.TotalPayout)
	assert.Equal(t, []string{"m1"}, ledger.resolved)
	assert.Len(t, bus.published[settlementsChannel], 1)
	assert.Equal(t, []notify.Event{notify.EventMarketResolved}, announcer.events)
	assert.Equal(t, []string{"m1"}, archiver.archived)
}

func TestResolveRejectsUnknownOutcome(t *testing.T) {
	ledger := &stubLedger{}
	svc := NewResolutionService(ledger, &stubMarketStore{}, &stubBus{}, nil, nil, discardLogger())

	_, err := svc.Resolve(context.Background(), "m1", "MAYBE")
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))
	assert.Empty(t, ledger.resolved)
}

func TestResolvePropagatesAlreadyResolved(t *testing.T) {
	ledger := &stubLedger{err: domain.ErrAlreadyResolved}
	announcer := &stubAnnouncer{}
	svc := NewResolutionService(ledger, &stubMarketStore{}, &stubBus{}, announcer, nil, discardLogger())

	_, err := svc.Resolve(context.Background(), "m1", domain.OutcomeNo)
	assert.True(t, errors.Is(err, domain.ErrAlreadyResolved))
	assert.Empty(t, announcer.events)
}

func TestResolveSurvivesArchiveFailure(t *testing.T) {
	ledger := &stubLedger{payout: 10}
	archiver := &stubArchiver{err: errors.New("s3 unreachable")}
	svc := NewResolutionService(ledger, &stubMarketStore{}, &stubBus{}, nil, archiver, discardLogger())

	res, err := svc.Resolve(context.Background(), "m1", domain.OutcomeYes)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.TotalPayout)
}

func TestAdminResetAnnounces(t *testing.T) {
	ledger := &stubLedger{}
	bus := &stubBus{}
	announcer := &stubAnnouncer{}
	svc := NewAdminService(ledger, bus, announcer, discardLogger())

	require.NoError(t, svc.Reset(context.Background()))
	assert.Equal(t, 1, ledger.resets)
	assert.Len(t, bus.published[settlementsChannel], 1)
	assert.Equal(t, []notify.Event{notify.EventPlatformReset}, announcer.events)
}
