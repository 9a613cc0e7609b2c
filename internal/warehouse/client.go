// Package warehouse provides read-only access to the personnel data warehouse
// (MS SQL Server). It is the source of posted positions, bid cycles and the
// employee bid history shown to bureau ranking views.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/talentmap/bidding-api/internal/config"
	"github.com/talentmap/bidding-api/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

const (
	positionsQuery = `SELECT cp_id, pos_seq_num, pos_title_desc, bureau_code, org_code,
	pos_grade_code, pos_skill_code, cycle_id
FROM dbo.available_positions WHERE cp_status = 'OP'`

	bidCyclesQuery = `SELECT cycle_id, cycle_name_text, cycle_status_code, cycle_deadline_date
FROM dbo.bid_cycles`

	userBidsQuery = `SELECT b.cp_id, b.cycle_id, p.pos_title_desc, p.bureau_code, b.bid_status_code
FROM dbo.employee_bids b
JOIN dbo.available_positions p ON p.cp_id = b.cp_id
WHERE b.perdet_seq_num = @p1`
)

// Client provides read-only access to the warehouse through a pooled connection
type Client struct {
	db           *sql.DB
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the warehouse connection
type HealthStatus struct {
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	MaxOpen   int           `json:"max_open_connections"`
	Open      int           `json:"open_connections"`
	InUse     int           `json:"in_use"`
	Idle      int           `json:"idle"`
	WaitCount int64         `json:"wait_count"`
}

// NewClient connects to the warehouse. It returns nil without error when the
// warehouse is disabled or its credentials are missing.
func NewClient(cfg *config.WarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Warehouse connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr := buildConnectionString(cfg)

	var (
		db  *sql.DB
		err error
	)
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err = sql.Open("sqlserver", connStr)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

			ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				logger.Info("Warehouse connection established", zap.Int("attempts_taken", attempt))
				return &Client{
					db:           db,
					logger:       logger,
					queryTimeout: cfg.QueryTimeoutDuration(),
				}, nil
			}
			_ = db.Close()
		}

		logger.Warn("Warehouse connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to warehouse after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString converts host:port/database into a sqlserver:// URL
func buildConnectionString(cfg *config.WarehouseConfig) string {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(urlParts[0], ":", 2)
	host := hostParts[0]
	port := "1433"
	if len(hostParts) > 1 && hostParts[1] != "" {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	query.Add("ApplicationIntent", "ReadOnly")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// IsEnabled returns true if the client is initialized and ready for queries
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	if !c.IsEnabled() {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close warehouse connection: %w", err)
	}
	c.logger.Info("Warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Status:    "healthy",
		Latency:   time.Since(start),
		MaxOpen:   stats.MaxOpenConnections,
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
		WaitCount: stats.WaitCount,
	}
	if err != nil {
		c.logger.Warn("Warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// GetPositions returns every open position
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	rows, err := c.query(ctx, positionsQuery)
	if err != nil {
		return nil, err
	}
	positions := make([]domain.Position, 0, len(rows))
	for _, row := range rows {
		positions = append(positions, toPosition(row))
	}
	return positions, nil
}

// GetBidCycles returns every bid cycle
func (c *Client) GetBidCycles(ctx context.Context) ([]domain.BidCycle, error) {
	rows, err := c.query(ctx, bidCyclesQuery)
	if err != nil {
		return nil, err
	}
	cycles := make([]domain.BidCycle, 0, len(rows))
	for _, row := range rows {
		cycles = append(cycles, toBidCycle(row))
	}
	return cycles, nil
}

// GetUserBids returns the employee's bids as recorded by the warehouse
func (c *Client) GetUserBids(ctx context.Context, perdet string) ([]domain.ExternalBid, error) {
	rows, err := c.query(ctx, userBidsQuery, perdet)
	if err != nil {
		return nil, err
	}
	bids := make([]domain.ExternalBid, 0, len(rows))
	for _, row := range rows {
		bids = append(bids, toExternalBid(row))
	}
	return bids, nil
}

// query runs a read-only query and returns each row keyed by column name
func (c *Client) query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("warehouse client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Error("Warehouse query failed",
			zap.Error(err),
			zap.String("query", truncateQuery(query, 200)),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get column names: %w", err)
	}

	var results []map[string]interface{}
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	c.logger.Debug("Warehouse query completed",
		zap.Int("rows_returned", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func truncateQuery(query string, maxLen int) string {
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
