package curation

// Diversify builds the final curated ordering. It first takes one article per
// distinct source until target or minSources is reached, then fills from
// preferred under the per-source cap, then from all candidates under the cap,
// and only then overflows the cap. It returns exactly target ids whenever at
// least target distinct known ids exist.
func Diversify(preferred, candidates []string, sourceOf map[string]string, target, minSources, maxPerSource int) []string {
	combined := make([]string, 0, len(preferred)+len(candidates))
	inCombined := map[string]struct{}{}
	for _, list := range [][]string{preferred, candidates} {
		for _, id := range list {
			if _, known := sourceOf[id]; !known {
				continue
			}
			if _, dup := inCombined[id]; dup {
				continue
			}
			inCombined[id] = struct{}{}
			combined = append(combined, id)
		}
	}

	out := make([]string, 0, target)
	picked := map[string]struct{}{}
	perSource := map[string]int{}
	take := func(id string) {
		picked[id] = struct{}{}
		perSource[sourceOf[id]]++
		out = append(out, id)
	}

	for _, id := range combined {
		if len(out) >= target || len(perSource) >= minSources {
			break
		}
		if perSource[sourceOf[id]] > 0 {
			continue
		}
		take(id)
	}

	fill := func(list []string, capped bool) {
		for _, id := range list {
			if len(out) >= target {
				return
			}
			if _, ok := picked[id]; ok {
				continue
			}
			if _, known := sourceOf[id]; !known {
				continue
			}
			if capped && perSource[sourceOf[id]] >= maxPerSource {
				continue
			}
			take(id)
		}
	}
	fill(preferred, true)
	fill(combined, true)
	fill(combined, false)

	return out
}
