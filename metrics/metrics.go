// Package metrics 拍賣服務的 prometheus 指標
// 初始化時註冊到預設的 registry，由 API 的 /metrics 輸出
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bidhouse"

// BidsTotal 依結果統計出價次數
// 標籤:
//   - result: "accepted", "invalid", "not_found", "inactive", "forbidden", "stale_description", "outbid", "lock_timeout", "error"
var BidsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_total",
		Help:      "Total number of bid attempts, by outcome.",
	},
	[]string{"result"},
)

// DeadlineExtensionsTotal 接近截止時的出價延長了截止時間的次數
var DeadlineExtensionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deadline_extensions_total",
		Help:      "Total number of deadline extensions caused by late bids.",
	},
)

// AuctionsClosedTotal 進入終止狀態的拍賣數
// 標籤:
//   - outcome: "sold"、"unsold" 或 "banned"
var AuctionsClosedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auctions_closed_total",
		Help:      "Total number of auctions closed, by outcome.",
	},
	[]string{"outcome"},
)

// LockWaitDuration 等待單一拍賣的鎖所花的時間
var LockWaitDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lock_wait_duration_seconds",
		Help:      "Time spent waiting to acquire a per-auction lock.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
	},
)

// LockTimeoutsTotal 等鎖逾時而放棄的次數
var LockTimeoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lock_timeouts_total",
		Help:      "Total number of lock acquisitions that exceeded the wait bound.",
	},
)

// NotificationsTotal 通知寄送次數
// 標籤:
//   - kind: 事件種類，例如 "bid_registered"
//   - result: "sent"、"failed" 或 "dead_letter"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notification deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)
