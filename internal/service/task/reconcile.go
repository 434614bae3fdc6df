package task

// diff is the output of one reconcile pass: disjoint create/update/delete
// sets. toUpdate holds desired descriptors whose identity matched an existing
// child and whose fields differ from it.
type diff[D any, K comparable] struct {
	toCreate []D
	toUpdate []D
	toDelete []K
}

// reconcile converts a current keyed collection and a desired descriptor list
// into create/update/delete sets.
//
// Desired descriptors are deduplicated by identity, first occurrence wins, so
// the result is idempotent regardless of caller-supplied duplicates. A
// descriptor without identity, or with an identity absent from current, is
// created. A descriptor whose identity exists in current keeps that child and,
// when changed reports a difference, updates it. Current children never named
// by a desired descriptor are deleted.
//
// changed may be nil for pure associations with no mutable fields; the pass
// then degenerates to a set difference with an empty toUpdate.
func reconcile[C, D any, K comparable](
	current []C,
	desired []D,
	currentKey func(C) K,
	desiredKey func(D) (K, bool),
	changed func(C, D) bool,
) diff[D, K] {
	byKey := make(map[K]C, len(current))
	for _, c := range current {
		byKey[currentKey(c)] = c
	}

	var out diff[D, K]
	seen := make(map[K]bool, len(desired))
	kept := make(map[K]bool, len(current))
	for _, d := range desired {
		k, ok := desiredKey(d)
		if !ok {
			out.toCreate = append(out.toCreate, d)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true

		c, exists := byKey[k]
		if !exists {
			out.toCreate = append(out.toCreate, d)
			continue
		}
		kept[k] = true
		if changed != nil && changed(c, d) {
			out.toUpdate = append(out.toUpdate, d)
		}
	}

	for _, c := range current {
		if k := currentKey(c); !kept[k] {
			out.toDelete = append(out.toDelete, k)
		}
	}
	return out
}

// reconcileIDs is the pure-association instantiation: both sides are bare
// identifiers and there is nothing to update.
func reconcileIDs(current, desired []int) diff[int, int] {
	return reconcile(
		current,
		desired,
		func(id int) int { return id },
		func(id int) (int, bool) { return id, true },
		nil,
	)
}
