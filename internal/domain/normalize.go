package domain

// NormalizeStats fills fields absent from older persisted records so that
// accounts created before a schema change load cleanly. Records written
// before achievements existed have a nil UnlockedAchievements slice, and
// records from before a subject was added miss its counter entry.
func NormalizeStats(s Stats) Stats {
	if s.UnlockedAchievements == nil {
		s.UnlockedAchievements = []string{}
	}
	if s.Subjects == nil {
		s.Subjects = make(map[Subject]SubjectStats, 2)
	}
	for _, subject := range []Subject{SubjectMath, SubjectEnglish} {
		if _, ok := s.Subjects[subject]; !ok {
			s.Subjects[subject] = SubjectStats{}
		}
	}
	return s
}

// CloneStats returns a deep copy so that callers can hand out snapshots
// without sharing the live maps and slices.
func CloneStats(s Stats) Stats {
	out := s
	out.UnlockedAchievements = append([]string(nil), s.UnlockedAchievements...)
	out.Subjects = make(map[Subject]SubjectStats, len(s.Subjects))
	for k, v := range s.Subjects {
		out.Subjects[k] = v
	}
	return NormalizeStats(out)
}
