package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/events"
	"github.com/talentmap/bidding-api/internal/repository"
	"github.com/talentmap/bidding-api/internal/service"
	"github.com/talentmap/bidding-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	bidderA    = "1001"
	bidderB    = "1002"
	cdoPerdet  = "2001"
	aoPerdet   = "3001"
	otherAO    = "3002"
	orgPerdet  = "4001"
	stranger   = "9999"
	bureauCode = "AF"
	orgCode    = "AF-ABUJA"
	cycleID    = int64(7)
	cpID       = int64(42)
)

// recordingPublisher keeps published events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]string, len(p.events))
	for i, e := range p.events {
		result[i] = e.Type
	}
	return result
}

type fixture struct {
	db            *gorm.DB
	position      *domain.Position
	publisher     *recordingPublisher
	permissions   *service.PermissionService
	stats         *service.StatisticsService
	notifications *service.NotificationService
	bids          *service.BidService
	handshakes    *service.HandshakeService
	rankings      *service.RankingService
}

// newFixture seeds an active cycle with position 42 in bureau AF, two bidders
// counselled by the same CDO, an AO for AF, an AO for EUR and an org user for
// the position's organisation
func newFixture(t *testing.T) *fixture {
	return newFixtureWithBidSource(t, nil)
}

func newFixtureWithBidSource(t *testing.T, source service.ExternalBidSource) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	testutil.CreateBidCycle(t, db, cycleID, true, nil)
	position := testutil.CreatePosition(t, db, cpID, cycleID, bureauCode, orgCode)
	testutil.CreateBidder(t, db, bidderA, cdoPerdet)
	testutil.CreateBidder(t, db, bidderB, cdoPerdet)
	testutil.GrantScope(t, db, aoPerdet, domain.ScopeBureau, bureauCode)
	testutil.GrantScope(t, db, otherAO, domain.ScopeBureau, "EUR")
	testutil.GrantScope(t, db, orgPerdet, domain.ScopeOrg, orgCode)

	cycleRepo := repository.NewBidCycleRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	bidderRepo := repository.NewBidderRepository(db)
	grantRepo := repository.NewAccessGrantRepository(db)
	bidRepo := repository.NewBidRepository(db)
	handshakeRepo := repository.NewHandshakeRepository(db)
	rankingRepo := repository.NewRankingRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	publisher := &recordingPublisher{}
	permissions := service.NewPermissionService(grantRepo, bidderRepo, positionRepo, logger)
	stats := service.NewStatisticsService(bidRepo, bidderRepo, cycleRepo, statsRepo, permissions, logger)
	notifications := service.NewNotificationService(notificationRepo, bidRepo, bidderRepo, publisher, logger)

	if source == nil {
		source = service.NewLocalBidSource(bidRepo)
	}

	return &fixture{
		db:            db,
		position:      position,
		publisher:     publisher,
		permissions:   permissions,
		stats:         stats,
		notifications: notifications,
		bids: service.NewBidService(bidRepo, cycleRepo, permissions, stats, notifications,
			&config.BiddingConfig{SubmittedBidLimit: config.DefaultSubmittedBidLimit}, db, logger),
		handshakes: service.NewHandshakeService(handshakeRepo, permissions, notifications, db, logger),
		rankings:   service.NewRankingService(rankingRepo, permissions, source, notifications, db, logger),
	}
}

func asBidder(perdet string) context.Context {
	return testutil.ContextWithUser(perdet, domain.RoleBidder)
}

func asAO(perdet string) context.Context {
	return testutil.ContextWithUser(perdet, domain.RoleBureau)
}

func asCDO() context.Context {
	return testutil.ContextWithUser(cdoPerdet, domain.RoleCDO)
}

// messagesFor returns every notification message addressed to perdet
func messagesFor(t *testing.T, db *gorm.DB, perdet string) []string {
	t.Helper()
	var messages []string
	if err := db.Model(&domain.Notification{}).
		Where("owner_perdet = ?", perdet).
		Order("created_at").
		Pluck("message", &messages).Error; err != nil {
		t.Fatalf("failed to load notifications: %v", err)
	}
	return messages
}
