package website

import (
	"sort"
)

// Perfmon dumps per-route timings gathered by the perf collector. It is only
// routed in development.
func Perfmon(c *RequestContext) ResponseData {
	b := c.Perf.StartBlock("PERF", "Requesting perf data")
	perfData := c.PerfCollector.GetPerfCopy()
	b.End()

	type RouteRecord struct {
		Route   string  `json:"route"`
		Count   int     `json:"count"`
		AvgMs   float64 `json:"avgMs"`
		MaxMs   float64 `json:"maxMs"`
		TotalMs float64 `json:"totalMs"`
	}

	records := make([]RouteRecord, 0, len(perfData.Routes))
	for _, s := range perfData.Routes {
		total := float64(s.TotalTime.Microseconds()) / 1000
		record := RouteRecord{
			Route:   s.Route,
			Count:   s.Count,
			MaxMs:   float64(s.MaxTime.Microseconds()) / 1000,
			TotalMs: total,
		}
		if s.Count > 0 {
			record.AvgMs = total / float64(s.Count)
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].TotalMs > records[j].TotalMs
	})

	var res ResponseData
	res.WriteJson(records, c.Perf)
	return res
}
