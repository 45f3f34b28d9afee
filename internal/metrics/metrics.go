// Package metrics exposes Prometheus counters for the attendance core.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector groups the service counters. A nil *Collector is a no-op.
type Collector struct {
	logins      *prometheus.CounterVec
	issued      *prometheus.CounterVec
	checkIns    *prometheus.CounterVec
	fraudAlerts *prometheus.CounterVec
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "tokens_issued_total",
			Help:      "QR tokens issued by subject.",
		}, []string{"subject"}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "checkins_total",
			Help:      "Check-in verifications by outcome and whether they were recorded.",
		}, []string{"outcome", "recorded"}),
		fraudAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendance",
			Name:      "fraud_alerts_total",
			Help:      "Fraud alerts ingested by severity.",
		}, []string{"severity"}),
	}
	reg.MustRegister(c.logins, c.issued, c.checkIns, c.fraudAlerts)
	return c
}

func (c *Collector) Login(ok bool) {
	if c == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

func (c *Collector) TokenIssued(subject string) {
	if c == nil {
		return
	}
	c.issued.WithLabelValues(subject).Inc()
}

func (c *Collector) CheckIn(outcome string, recorded bool) {
	if c == nil {
		return
	}
	c.checkIns.WithLabelValues(outcome, strconv.FormatBool(recorded)).Inc()
}

func (c *Collector) FraudAlert(severity string) {
	if c == nil {
		return
	}
	c.fraudAlerts.WithLabelValues(severity).Inc()
}
