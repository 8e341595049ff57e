package treasury

import "github.com/shopspring/decimal"

// MetricsCollector defines the interface for collecting ledger metrics.
type MetricsCollector interface {
	RecordTransaction(txType string, amount decimal.Decimal)
	RecordBalanceChange(adminID uint, before, after decimal.Decimal)
	RecordError(operation, errType string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransaction(string, decimal.Decimal)                  {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, decimal.Decimal, decimal.Decimal) {}
func (n *NoopMetricsCollector) RecordError(string, string)                                 {}
