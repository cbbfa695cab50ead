package engine

import (
	"strings"

	"gocorr/domain/dataset"
)

// Group is one partition of the dataset
type Group struct {
	// Label joins the key values with " - "; empty when ungrouped
	Label string
	Rows  []int
	Data  *dataset.Dataset
}

// Stratify splits rows by the distinct combinations of the key columns,
// in order of first appearance. Rows with a missing key are dropped.
// Without keys the whole dataset is a single unlabelled group.
func Stratify(ds *dataset.Dataset, keys []string) ([]Group, error) {
	if len(keys) == 0 {
		rows := make([]int, ds.Rows())
		for i := range rows {
			rows[i] = i
		}
		return []Group{{Rows: rows, Data: ds}}, nil
	}

	cols := make([]*dataset.Column, len(keys))
	for i, k := range keys {
		c, err := ds.Column(k)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	index := make(map[string]int)
	var groups []Group
	parts := make([]string, len(cols))
rows:
	for r := 0; r < ds.Rows(); r++ {
		for i, c := range cols {
			parts[i] = c.Label(r)
			if parts[i] == "" {
				continue rows
			}
		}
		key := strings.Join(parts, "\x00")
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, Group{Label: strings.Join(parts, " - ")})
		}
		groups[g].Rows = append(groups[g].Rows, r)
	}

	for i := range groups {
		groups[i].Data = ds.Subset(groups[i].Rows)
	}
	return groups, nil
}

// Labels returns the group labels in order
func Labels(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Label
	}
	return out
}
