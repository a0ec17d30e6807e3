package solution

// normalizeOpenQuestions keeps entries that carry question text, accepting
// bare strings, and truncates to MaxOpenQuestions.
func normalizeOpenQuestions(v any) []OpenQuestion {
	items := asList(v)
	if s := scalarString(v); s != "" {
		items = []any{s}
	}
	out := make([]OpenQuestion, 0, min(len(items), MaxOpenQuestions))
	for _, item := range items {
		if len(out) == MaxOpenQuestions {
			break
		}
		var q OpenQuestion
		if o := asObject(item); o == nil {
			q.Question = scalarString(item)
		} else {
			q = OpenQuestion{
				ID:       text(o, "id", "key"),
				Question: text(o, "question", "text", "title"),
				Context:  text(o, "context", "why", "rationale"),
				Priority: levelField(o, LevelMedium, "priority", "importance"),
				Options:  listField(o, "options", "choices"),
			}
		}
		if q.Question == "" {
			continue
		}
		if q.ID == "" {
			q.ID = positionalID("question", len(out))
		}
		if q.Priority == "" {
			q.Priority = LevelMedium
		}
		if q.Options == nil {
			q.Options = []string{}
		}
		out = append(out, q)
	}
	return out
}
