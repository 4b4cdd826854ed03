package insights

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// Generator synthesizes a Report from the resident datasets. Column picks go
// through the role resolver, so renamed-but-recognizable datasets still work.
type Generator struct {
	resolver *analytics.Resolver
	log      zerolog.Logger
	now      func() time.Time
}

// NewGenerator builds a Generator; nil resolver selects default role keywords.
func NewGenerator(resolver *analytics.Resolver, log zerolog.Logger) *Generator {
	if resolver == nil {
		resolver = analytics.NewResolver(nil)
	}
	return &Generator{resolver: resolver, log: log, now: time.Now}
}

// Synthesize runs every applicable per-dataset analysis plus the cross-table
// consistency checks, interleaving insight lines and closing with the top
// five recommendations. Missing datasets are skipped; a failing section
// contributes an error line instead of aborting.
func (g *Generator) Synthesize(tables map[dataset.Kind]*dataset.Table) *Report {
	var insights, recommendations []string
	var sources []string

	run := func(kind dataset.Kind, analyze func(*dataset.Table) section) {
		t, ok := tables[kind]
		if !ok || t == nil {
			return
		}
		sources = append(sources, string(kind))
		sec := analyze(t)
		insights = append(insights, sec.insights...)
		recommendations = append(recommendations, sec.recommendations...)
		g.log.Debug().Str("dataset", string(kind)).
			Int("insights", len(sec.insights)).
			Int("recommendations", len(sec.recommendations)).
			Msg("insight section generated")
	}

	run(dataset.KindOrders, g.analyzeRevenue)
	run(dataset.KindCustomers, g.analyzeCustomers)
	run(dataset.KindInventory, g.analyzeInventory)
	run(dataset.KindProducts, g.analyzeProducts)

	insights = append(insights, g.crossDatasetInsights(tables)...)

	if len(recommendations) > 0 {
		insights = append(insights, "🎯 **Key Recommendations:**")
		top := recommendations
		if len(top) > 5 {
			top = top[:5]
		}
		for _, rec := range top {
			insights = append(insights, fmt.Sprintf("• %s", rec))
		}
	}

	return &Report{
		Insights:        insights,
		Recommendations: recommendations,
		GeneratedAt:     g.now(),
		DataSources:     sources,
	}
}
