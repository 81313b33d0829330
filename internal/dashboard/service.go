// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

// Package dashboard serves the read side: aggregated views over players,
// events and the ledger for the analytics UI. Hot counts go through a short
// TTL cache so dashboard polling cannot hammer the database.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/playgrid/playgrid/internal/cache"
	"github.com/playgrid/playgrid/internal/database"
	"github.com/playgrid/playgrid/internal/economy"
	"github.com/playgrid/playgrid/internal/logging"
	"github.com/playgrid/playgrid/internal/metrics"
	"github.com/playgrid/playgrid/internal/models"
)

const (
	onlineWindow    = 5 * time.Minute
	onlineCountTTL  = 30 * time.Second
	riskThreshold   = 50
	defaultEventCap = 50
	maxEventCap     = 500
)

// Timeseries metrics the economy endpoint accepts.
var metricSelectors = map[string]func(models.EconomicMetric) float64{
	"totalMoney":      func(m models.EconomicMetric) float64 { return m.TotalMoney },
	"moneyInCirc":     func(m models.EconomicMetric) float64 { return m.MoneyInCirc },
	"avgPlayerWealth": func(m models.EconomicMetric) float64 { return m.AvgPlayerWealth },
	"inflationRate":   func(m models.EconomicMetric) float64 { return m.InflationRate },
}

// Timeseries periods the economy endpoint accepts.
var periodWindows = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// Service answers the dashboard's read queries.
type Service struct {
	db      *database.DB
	economy *economy.Aggregator
	cache   *cache.Cache
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates the query service.
func NewService(db *database.DB, agg *economy.Aggregator) *Service {
	return &Service{
		db:      db,
		economy: agg,
		cache:   cache.New(onlineCountTTL),
		logger:  logging.With().Str("component", "dashboard").Logger(),
		now:     time.Now,
	}
}

// OnlineCount returns the number of players seen within the online window,
// cache-aside with a 30s TTL.
func (s *Service) OnlineCount(ctx context.Context) (int64, error) {
	const key = "online-count"
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("dashboard").Inc()
		return cached.(int64), nil
	}
	metrics.CacheMisses.WithLabelValues("dashboard").Inc()

	count, err := s.db.CountOnlinePlayers(ctx, onlineWindow)
	if err != nil {
		return 0, fmt.Errorf("count online players: %w", err)
	}
	s.cache.Set(key, count)
	return count, nil
}

// Dashboard assembles the initial overview payload.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardSnapshot, error) {
	total, err := s.db.CountPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}
	online, err := s.OnlineCount(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.db.GetRecentEvents(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	snapshot, err := s.economy.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("economy snapshot: %w", err)
	}
	riskAlerts, err := s.db.CountRiskPlayers(ctx, riskThreshold)
	if err != nil {
		return nil, fmt.Errorf("count risk players: %w", err)
	}
	newThisWeek, err := s.db.CountPlayersCreatedSince(ctx, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, fmt.Errorf("count new players: %w", err)
	}

	return &models.DashboardSnapshot{
		TotalPlayers:     total,
		OnlinePlayers:    online,
		RecentEvents:     recent,
		EconomicSnapshot: snapshot,
		RiskAlerts:       riskAlerts,
		Trends: models.DashboardTrends{
			PlayerGrowth: growthLabel(newThisWeek, total),
			OnlineTrend:  "stable",
		},
		Timestamp: s.now().UnixMilli(),
	}, nil
}

// growthLabel renders the week-over-week player growth as a signed percent.
func growthLabel(newPlayers, total int64) string {
	prior := total - newPlayers
	if prior <= 0 {
		if newPlayers > 0 {
			return "+100%"
		}
		return "+0%"
	}
	return fmt.Sprintf("%+.1f%%", float64(newPlayers)/float64(prior)*100)
}

// Heatmap returns the normalized positional heatmap for one event type over
// the trailing window. Empty cells are omitted; X/Y are cell origins in
// world units.
func (s *Service) Heatmap(ctx context.Context, eventType string, window time.Duration) ([]models.HeatmapCell, error) {
	rows, err := s.db.GetHeatmapRows(ctx, eventType, window)
	if err != nil {
		return nil, fmt.Errorf("heatmap rows: %w", err)
	}

	var max int64
	for _, row := range rows {
		if row.Count > max {
			max = row.Count
		}
	}
	cells := make([]models.HeatmapCell, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, models.HeatmapCell{
			X:         float64(row.GridX * 50),
			Y:         float64(row.GridY * 50),
			Intensity: float64(row.Count) / float64(max),
			Count:     row.Count,
		})
	}
	return cells, nil
}

// DailyRevenue returns per-day SPEND totals for the trailing week, labelled
// "Jan 2"-style, oldest day first.
func (s *Service) DailyRevenue(ctx context.Context) ([]models.DailyRevenue, error) {
	days, err := s.db.GetDailySpend(ctx, 7)
	if err != nil {
		return nil, fmt.Errorf("daily spend: %w", err)
	}
	out := make([]models.DailyRevenue, 0, len(days))
	for _, d := range days {
		out = append(out, models.DailyRevenue{
			Name:  d.Day.Format("Jan 2"),
			Total: d.Total,
		})
	}
	return out, nil
}

// Overview bundles the daily revenue chart with the event volume per type
// over the same seven-day window.
func (s *Service) Overview(ctx context.Context) (*models.OverviewStats, error) {
	revenue, err := s.DailyRevenue(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.db.GetEventCountsByType(ctx, 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	return &models.OverviewStats{
		DailyRevenue: revenue,
		EventsByType: counts,
	}, nil
}

// RecentEvents returns the newest processed events with the owner joined.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	return s.db.GetRecentEvents(ctx, clampLimit(limit))
}

// PlayerTimeline returns one player's events within the trailing hours.
func (s *Service) PlayerTimeline(ctx context.Context, playerID int64, hours int) ([]models.Event, error) {
	if hours <= 0 {
		hours = 24
	}
	return s.db.GetPlayerTimeline(ctx, playerID, time.Duration(hours)*time.Hour, maxEventCap)
}

// ResourceStats splits SPEND activity in the trailing window into vehicle
// and shop sales with aggregate totals.
func (s *Service) ResourceStats(ctx context.Context, window time.Duration) (*models.ResourceStats, error) {
	txs, err := s.db.GetSpendTransactions(ctx, window, maxEventCap)
	if err != nil {
		return nil, fmt.Errorf("spend transactions: %w", err)
	}

	stats := &models.ResourceStats{
		VehicleSales: []models.ResourceSale{},
		ShopSales:    []models.ResourceSale{},
	}
	for _, tx := range txs {
		sale := models.ResourceSale{
			ID:        tx.ID.String(),
			Player:    tx.PlayerUsername,
			Amount:    tx.Amount,
			Timestamp: tx.Timestamp,
		}
		var payload map[string]interface{}
		if len(tx.Metadata) > 0 {
			_ = json.Unmarshal(tx.Metadata, &payload)
		}
		if isVehicleSource(tx.Source) {
			sale.Vehicle = payloadString(payload, "vehicleName")
			stats.VehicleSales = append(stats.VehicleSales, sale)
			stats.Stats.VehicleRevenue += tx.Amount
			stats.Stats.VehicleCount++
		} else {
			sale.ItemName = payloadString(payload, "itemName")
			stats.ShopSales = append(stats.ShopSales, sale)
			stats.Stats.ShopRevenue += tx.Amount
			stats.Stats.ShopCount++
		}
	}
	stats.Stats.TotalRevenue = stats.Stats.VehicleRevenue + stats.Stats.ShopRevenue
	stats.Stats.TotalTransactions = len(txs)

	sources, err := s.db.GetSpendBySource(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("spend by source: %w", err)
	}
	stats.TopSources = make([]models.SourceRevenue, 0, len(sources))
	for _, src := range sources {
		stats.TopSources = append(stats.TopSources, models.SourceRevenue{
			Source: src.Source,
			Total:  src.Total,
			Count:  src.Count,
		})
	}
	return stats, nil
}

func isVehicleSource(source string) bool {
	return source == "carshop" || strings.Contains(source, "vehicle")
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// EconomySnapshot returns the current economy snapshot, computing one when
// none exists yet.
func (s *Service) EconomySnapshot(ctx context.Context) (*models.EconomicMetric, error) {
	return s.economy.Latest(ctx)
}

// EconomyTimeseries returns one metric's history over a named period.
// metric must be one of totalMoney, moneyInCirc, avgPlayerWealth,
// inflationRate; period one of 24h, 7d, 30d.
func (s *Service) EconomyTimeseries(ctx context.Context, metric, period string) ([]models.MetricPoint, error) {
	selector, ok := metricSelectors[metric]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	window, ok := periodWindows[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	snapshots, err := s.economy.Timeseries(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("metric timeseries: %w", err)
	}
	points := make([]models.MetricPoint, 0, len(snapshots))
	for _, snap := range snapshots {
		points = append(points, models.MetricPoint{
			Timestamp: snap.Timestamp,
			Value:     selector(snap),
		})
	}
	return points, nil
}

// Transactions returns a page of the global ledger, newest first.
func (s *Service) Transactions(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	if offset < 0 {
		offset = 0
	}
	return s.db.GetRecentTransactions(ctx, clampLimit(limit), offset)
}

// PlayerTransactions returns one player's newest ledger entries.
func (s *Service) PlayerTransactions(ctx context.Context, playerID int64, limit int) ([]models.Transaction, error) {
	return s.db.GetPlayerTransactions(ctx, playerID, clampLimit(limit))
}

// OnlinePlayers returns the players seen within the online window as
// trimmed list rows.
func (s *Service) OnlinePlayers(ctx context.Context, limit int) ([]models.OnlinePlayer, error) {
	players, err := s.db.GetOnlinePlayers(ctx, onlineWindow, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("online players: %w", err)
	}
	out := make([]models.OnlinePlayer, 0, len(players))
	for _, p := range players {
		out = append(out, models.OnlinePlayer{
			ID:           p.ID,
			Serial:       p.Serial,
			LastUsername: p.LastUsername,
			LastSeen:     p.LastSeen,
			RiskScore:    p.RiskScore,
			PlayedTime:   p.PlayedTime,
			Level:        p.Level,
			Job:          p.Job,
		})
	}
	return out, nil
}

// SearchPlayers finds players whose name or serial contains the term.
func (s *Service) SearchPlayers(ctx context.Context, term string, limit int) ([]models.Player, error) {
	return s.db.SearchPlayers(ctx, term, clampLimit(limit))
}

// PlayerDetail returns the full player view with recent ledger entries and
// relationships attached.
func (s *Service) PlayerDetail(ctx context.Context, playerID int64) (*models.PlayerDetail, error) {
	player, err := s.db.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	txs, err := s.db.GetPlayerTransactions(ctx, playerID, 20)
	if err != nil {
		return nil, fmt.Errorf("player transactions: %w", err)
	}
	rels, err := s.db.GetPlayerRelationships(ctx, playerID, 20)
	if err != nil {
		return nil, fmt.Errorf("player relationships: %w", err)
	}
	return &models.PlayerDetail{
		Player:        *player,
		Transactions:  txs,
		Relationships: rels,
	}, nil
}

// PlayerStats returns a player row with event and transaction counts.
func (s *Service) PlayerStats(ctx context.Context, playerID int64) (*models.PlayerStats, error) {
	player, err := s.db.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	events, err := s.db.CountPlayerEvents(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("count player events: %w", err)
	}
	txs, err := s.db.CountPlayerTransactions(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("count player transactions: %w", err)
	}

	stats := &models.PlayerStats{Player: *player}
	stats.Stats.TotalEvents = events
	stats.Stats.TotalTransactions = txs
	return stats, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultEventCap
	}
	if limit > maxEventCap {
		return maxEventCap
	}
	return limit
}
