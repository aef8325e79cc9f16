package api

import (
	"context"

	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var titlesDesc = prometheus.NewDesc(
	"animetrack_titles",
	"Titles per completion tier, resolved at scrape time.",
	[]string{"tier"}, nil,
)

// tierCollector reports how many titles sit in each completion tier
type tierCollector struct {
	completionCtrl *controllers.CompletionController
	logger         *logrus.Logger
}

func newTierCollector(completionCtrl *controllers.CompletionController, logger *logrus.Logger) *tierCollector {
	return &tierCollector{completionCtrl: completionCtrl, logger: logger}
}

func (c *tierCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- titlesDesc
}

func (c *tierCollector) Collect(ch chan<- prometheus.Metric) {
	summaries, err := c.completionCtrl.ResolveAll(context.Background(), controllers.ListOptions{})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to resolve tiers for metrics")
		ch <- prometheus.NewInvalidMetric(titlesDesc, err)
		return
	}

	counts := make(map[completion.Tier]int)
	for _, summary := range summaries {
		counts[summary.Completion]++
	}
	for tier := completion.TierNotStarted; tier <= completion.TierComplete; tier++ {
		ch <- prometheus.MustNewConstMetric(titlesDesc, prometheus.GaugeValue, float64(counts[tier]), tier.String())
	}
}
