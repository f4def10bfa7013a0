package todo

// Migrate upgrades records written by older versions: tasks without a known
// priority become Medium, the default category is restored at the front when
// missing and duplicate categories are dropped. It returns the repaired
// snapshot and the number of fixes applied.
func Migrate(snap Snapshot) (Snapshot, int) {
	out := make(Snapshot, len(snap))
	fixes := 0
	for id, rec := range snap {
		r := rec.Clone()
		if r.Tasks == nil {
			r.Tasks = []Task{}
		}
		for i := range r.Tasks {
			if _, ok := ParsePriority(string(r.Tasks[i].Priority)); !ok {
				r.Tasks[i].Priority = PriorityMedium
				fixes++
			}
		}

		seen := make(map[string]bool, len(r.Categories))
		cats := make([]string, 0, len(r.Categories)+1)
		for _, c := range r.Categories {
			if seen[c] {
				fixes++
				continue
			}
			seen[c] = true
			cats = append(cats, c)
		}
		if !seen[DefaultCategory] {
			cats = append([]string{DefaultCategory}, cats...)
			fixes++
		}
		r.Categories = cats
		out[id] = r
	}
	return out, fixes
}
