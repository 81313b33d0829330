// Playgrid - Game Server Telemetry Analytics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playgrid/playgrid

package models

import "time"

// DashboardSnapshot is the initial payload pushed to a dashboard client on
// connect and served by GET /api/analytics/dashboard.
type DashboardSnapshot struct {
	TotalPlayers     int64            `json:"totalPlayers"`
	OnlinePlayers    int64            `json:"onlinePlayers"`
	RecentEvents     []Event          `json:"recentEvents"`
	EconomicSnapshot *EconomicMetric  `json:"economicSnapshot"`
	RiskAlerts       int64            `json:"riskAlerts"`
	Trends           DashboardTrends  `json:"trends"`
	Timestamp        int64            `json:"timestamp"`
}

// DashboardTrends carries coarse trend figures for the overview header.
type DashboardTrends struct {
	PlayerGrowth string `json:"playerGrowth"`
	OnlineTrend  string `json:"onlineTrend"`
}

// HeatmapCell is one occupied cell of the positional-event heatmap grid.
// X and Y are the cell origin in world units (gridX*cellSize); Intensity is
// the cell count normalized by the maximum cell count, in (0, 1].
type HeatmapCell struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Intensity float64 `json:"intensity"`
	Count     int64   `json:"count"`
}

// OverviewStats is the analytics overview: the last-7-days revenue chart
// plus event volume per type over the same window.
type OverviewStats struct {
	DailyRevenue []DailyRevenue   `json:"dailyRevenue"`
	EventsByType map[string]int64 `json:"eventsByType"`
}

// DailyRevenue is one day of summed SPEND amounts for the overview chart.
type DailyRevenue struct {
	Name  string  `json:"name"` // "Jan 2"-style day label
	Total float64 `json:"total"`
}

// OnlinePlayer is the trimmed player row for the online-players list.
type OnlinePlayer struct {
	ID           int64     `json:"id"`
	Serial       string    `json:"serial"`
	LastUsername string    `json:"lastUsername"`
	LastSeen     time.Time `json:"lastSeen"`
	RiskScore    int       `json:"riskScore"`
	PlayedTime   int64     `json:"playedTime,omitempty"`
	Level        int       `json:"level,omitempty"`
	Job          string    `json:"job,omitempty"`
}

// ResourceSale is one vehicle or shop sale in the revenue breakdown.
type ResourceSale struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	Amount    float64   `json:"amount"`
	ItemName  string    `json:"itemName,omitempty"`
	Vehicle   string    `json:"vehicleName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ResourceStats is the revenue breakdown over a trailing window.
type ResourceStats struct {
	VehicleSales []ResourceSale     `json:"vehicleSales"`
	ShopSales    []ResourceSale     `json:"shopSales"`
	TopSources   []SourceRevenue    `json:"topSources"`
	Stats        ResourceStatsTotal `json:"stats"`
}

// SourceRevenue is the SPEND total attributed to one source.
type SourceRevenue struct {
	Source string  `json:"source"`
	Total  float64 `json:"total"`
	Count  int64   `json:"count"`
}

// ResourceStatsTotal carries the aggregate figures of a ResourceStats.
type ResourceStatsTotal struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	VehicleRevenue    float64 `json:"vehicleRevenue"`
	ShopRevenue       float64 `json:"shopRevenue"`
	TotalTransactions int     `json:"totalTransactions"`
	VehicleCount      int     `json:"vehicleCount"`
	ShopCount         int     `json:"shopCount"`
}

// MetricPoint is one point of an economy timeseries.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PlayerStats is a player row with event/transaction counts attached.
type PlayerStats struct {
	Player
	Stats struct {
		TotalEvents       int64 `json:"totalEvents"`
		TotalTransactions int64 `json:"totalTransactions"`
	} `json:"stats"`
}

// PlayerDetail is the full player view: recent transactions and
// relationships included.
type PlayerDetail struct {
	Player
	Transactions  []Transaction        `json:"transactions"`
	Relationships []PlayerRelationship `json:"relationships"`
}
