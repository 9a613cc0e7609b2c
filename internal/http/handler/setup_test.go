package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"github.com/talentmap/bidding-api/internal/events"
	"github.com/talentmap/bidding-api/internal/http/handler"
	"github.com/talentmap/bidding-api/internal/repository"
	"github.com/talentmap/bidding-api/internal/service"
	"github.com/talentmap/bidding-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	bidderPerdet = "1001"
	cdoPerdet    = "2001"
	aoPerdet     = "3001"
	otherAO      = "3002"
	orgPerdet    = "4001"
	adminPerdet  = "0001"
	testCycleID  = int64(7)
	testCpID     = int64(42)
)

type handlers struct {
	db            *gorm.DB
	position      *domain.Position
	auth          *handler.AuthHandler
	bids          *handler.BidHandler
	handshakes    *handler.HandshakeHandler
	rankings      *handler.RankingHandler
	statistics    *handler.StatisticsHandler
	notifications *handler.NotificationHandler
}

func setupHandlers(t *testing.T) *handlers {
	return setupHandlersWithBidSource(t, nil)
}

func setupHandlersWithBidSource(t *testing.T, source service.ExternalBidSource) *handlers {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	testutil.CreateBidCycle(t, db, testCycleID, true, nil)
	position := testutil.CreatePosition(t, db, testCpID, testCycleID, "AF", "AF-ABUJA")
	testutil.CreateBidder(t, db, bidderPerdet, cdoPerdet)
	testutil.GrantScope(t, db, aoPerdet, domain.ScopeBureau, "AF")
	testutil.GrantScope(t, db, otherAO, domain.ScopeBureau, "EUR")
	testutil.GrantScope(t, db, orgPerdet, domain.ScopeOrg, "AF-ABUJA")

	cycleRepo := repository.NewBidCycleRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	bidderRepo := repository.NewBidderRepository(db)
	bidRepo := repository.NewBidRepository(db)

	permissions := service.NewPermissionService(repository.NewAccessGrantRepository(db), bidderRepo, positionRepo, logger)
	stats := service.NewStatisticsService(bidRepo, bidderRepo, cycleRepo, repository.NewStatisticsRepository(db), permissions, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), bidRepo, bidderRepo, events.NopPublisher{}, logger)
	bids := service.NewBidService(bidRepo, cycleRepo, permissions, stats, notifications, &config.BiddingConfig{}, db, logger)
	handshakes := service.NewHandshakeService(repository.NewHandshakeRepository(db), permissions, notifications, db, logger)
	if source == nil {
		source = service.NewLocalBidSource(bidRepo)
	}
	rankings := service.NewRankingService(repository.NewRankingRepository(db), permissions, source, notifications, db, logger)

	return &handlers{
		db:            db,
		position:      position,
		auth:          handler.NewAuthHandler(permissions, logger),
		bids:          handler.NewBidHandler(bids, logger),
		handshakes:    handler.NewHandshakeHandler(handshakes, logger),
		rankings:      handler.NewRankingHandler(rankings, logger),
		statistics:    handler.NewStatisticsHandler(stats, logger),
		notifications: handler.NewNotificationHandler(notifications, logger),
	}
}

// newRequest builds a request carrying the caller and chi URL params given as name/value pairs
func newRequest(t *testing.T, method, target string, body interface{}, ctx context.Context, params ...string) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
	return apiErr
}

func asUser(perdet string, roles ...domain.Role) context.Context {
	return testutil.ContextWithUser(perdet, roles...)
}
