package engine

import "sync"

// ImportanceRecord carries the risk importance factors of one basic event.
type ImportanceRecord struct {
	Event      string  `json:"event"`
	Occurrence int     `json:"occurrence"`
	MIF        float64 `json:"mif"`
	CIF        float64 `json:"cif"`
	DIF        float64 `json:"dif"`
	RAW        float64 `json:"raw"`
	RRW        float64 `json:"rrw"`
}

// Importance computes the importance factors of every basic event that
// occurs in the container. Events are processed concurrently; the result
// slice keeps the container's sorted event order. Warnings raised while
// quantifying the base or conditioned probabilities are returned
// deduplicated.
func Importance(c *ProductContainer, probs map[string]float64, settings Settings) ([]ImportanceRecord, []Finding) {
	events := c.Events()
	if len(events) == 0 {
		return nil, nil
	}
	baseQ := NewQuantifier(settings)
	base := baseQ.Probability(c, probs)

	records := make([]ImportanceRecord, len(events))
	warnings := make([][]Finding, len(events))
	var wg sync.WaitGroup
	for i, ev := range events {
		wg.Add(1)
		go func(i int, ev string) {
			defer wg.Done()
			records[i], warnings[i] = importanceOf(c, probs, settings, ev, base)
		}(i, ev)
	}
	wg.Wait()

	findings := baseQ.Findings()
	for _, fs := range warnings {
		for _, f := range fs {
			findings = appendFinding(findings, f)
		}
	}
	return records, findings
}

// importanceOf evaluates one event by recomputing the top probability
// with the event forced to certain failure and to certain success.
// Ratios with a zero denominator are reported as 0.
func importanceOf(c *ProductContainer, probs map[string]float64, settings Settings, ev string, base float64) (ImportanceRecord, []Finding) {
	p := probs[ev]
	q := NewQuantifier(settings)
	p1 := conditioned(q, c, probs, ev, 1)
	p0 := conditioned(q, c, probs, ev, 0)

	rec := ImportanceRecord{
		Event:      ev,
		Occurrence: c.Occurrences(ev),
		MIF:        p1 - p0,
	}
	if base > 0 {
		rec.CIF = p * rec.MIF / base
		rec.DIF = p * p1 / base
		rec.RAW = p1 / base
	}
	if p0 > 0 {
		rec.RRW = base / p0
	}
	return rec, q.Findings()
}

func conditioned(q *Quantifier, c *ProductContainer, probs map[string]float64, ev string, value float64) float64 {
	cond := make(map[string]float64, len(probs))
	for k, v := range probs {
		cond[k] = v
	}
	cond[ev] = value
	return q.Probability(c, cond)
}

func appendFinding(findings []Finding, f Finding) []Finding {
	for _, have := range findings {
		if have == f {
			return findings
		}
	}
	return append(findings, f)
}
