package history

// summaryTail bounds how many entries a summary renders.
const summaryTail = 3

// BuildSummary renders up to the last three entries as display lines,
// "You: ..." for the user and "Bot: ..." for everyone else. An empty input
// yields an empty result. The input is not mutated.
func BuildSummary(entries []Entry) []string {
	if len(entries) == 0 {
		return nil
	}

	start := len(entries) - summaryTail
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(entries)-start)
	for _, e := range entries[start:] {
		prefix := "Bot"
		if e.Speaker == SpeakerUser {
			prefix = "You"
		}
		lines = append(lines, prefix+": "+e.Text)
	}
	return lines
}
