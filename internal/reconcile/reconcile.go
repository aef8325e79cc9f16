// Package reconcile computes the writes needed to bring a parent's child
// collection in line with a complete desired state.
package reconcile

// Entry is one child of a parent. ID is zero for children not yet stored.
type Entry[F comparable] struct {
	ID     uint64
	Fields F
}

// Plan lists the writes that turn the existing children into the desired ones
type Plan[F comparable] struct {
	ParentID uint64
	Delete   []uint64
	Update   []Entry[F]
	Insert   []F

	// Unknown holds desired ids that are not children of the parent
	Unknown []uint64
}

// Empty reports whether applying the plan would change nothing
func (p Plan[F]) Empty() bool {
	return len(p.Delete) == 0 && len(p.Update) == 0 && len(p.Insert) == 0 && len(p.Unknown) == 0
}

// Diff reconciles existing children against desired. Desired is the full set:
// existing children it does not name are deleted. Entries with an id update the
// child in place when their fields changed, entries without one are inserted.
func Diff[F comparable](parentID uint64, existing, desired []Entry[F]) Plan[F] {
	plan := Plan[F]{ParentID: parentID}

	current := make(map[uint64]F, len(existing))
	for _, e := range existing {
		current[e.ID] = e.Fields
	}

	kept := make(map[uint64]bool, len(desired))
	for _, d := range desired {
		if d.ID == 0 {
			plan.Insert = append(plan.Insert, d.Fields)
			continue
		}
		if kept[d.ID] {
			continue
		}
		kept[d.ID] = true

		fields, ok := current[d.ID]
		switch {
		case !ok:
			plan.Unknown = append(plan.Unknown, d.ID)
		case fields != d.Fields:
			plan.Update = append(plan.Update, d)
		}
	}

	for _, e := range existing {
		if !kept[e.ID] {
			plan.Delete = append(plan.Delete, e.ID)
		}
	}

	return plan
}

// SetPlan lists the ids to add to and remove from an id set
type SetPlan struct {
	Delete []uint64
	Insert []uint64
}

// Empty reports whether applying the plan would change nothing
func (p SetPlan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Insert) == 0
}

// Sync reconciles an id-only association (title tags, watched extras).
// Duplicates in either list are collapsed, input order is preserved.
func Sync(existing, desired []uint64) SetPlan {
	var plan SetPlan

	have := make(map[uint64]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}

	want := make(map[uint64]bool, len(desired))
	for _, id := range desired {
		if want[id] {
			continue
		}
		want[id] = true
		if !have[id] {
			plan.Insert = append(plan.Insert, id)
		}
	}

	deleted := make(map[uint64]bool)
	for _, id := range existing {
		if !want[id] && !deleted[id] {
			deleted[id] = true
			plan.Delete = append(plan.Delete, id)
		}
	}

	return plan
}
