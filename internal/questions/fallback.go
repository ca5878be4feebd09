package questions

import "github.com/yungbote/specforge-backend/internal/prompt"

// FallbackContractVersion is reported whenever the whole set comes from Fallback.
const FallbackContractVersion = 1

// Fallback returns the fixed platform/auth/database questions, recommending the simplest option
// for mvp and the more capable one otherwise.
func Fallback(specMode string) []Question {
	mvp := specMode == prompt.ModeMVP
	pick := func(mvpIdx, otherIdx int) int {
		if mvp {
			return mvpIdx
		}
		return otherIdx
	}
	return []Question{
		{
			ID:               "platform",
			Question:         "What platform are you building for?",
			Options:          []string{"Web application", "Mobile app", "Desktop app", "All platforms"},
			RecommendedIndex: pick(0, 3),
			Required:         true,
		},
		{
			ID:       "auth",
			Question: "What type of authentication do you need?",
			Options: []string{
				"Social login (Google/Apple)",
				"Email/password",
				"Magic links",
				"No authentication needed",
			},
			RecommendedIndex: pick(0, 1),
			Required:         true,
		},
		{
			ID:       "database",
			Question: "What kind of data storage do you need?",
			Options: []string{
				"Simple key-value storage",
				"SQL database (PostgreSQL)",
				"NoSQL database (MongoDB)",
				"Real-time database (Supabase/Firebase)",
			},
			RecommendedIndex: pick(0, 3),
			Required:         true,
		},
	}
}

// Usable drops questions that cannot be answered as multiple choice.
func Usable(qs []Question) []Question {
	out := make([]Question, 0, len(qs))
	for _, q := range qs {
		if len(q.Options) < MinOptions {
			continue
		}
		out = append(out, q)
	}
	return out
}

// EnsureMinimum pads qs with fallback questions whose ids are not already used until it has
// MinQuestions entries, then caps it at MaxQuestions.
func EnsureMinimum(qs []Question, specMode string) []Question {
	out := append([]Question(nil), qs...)
	if len(out) < MinQuestions {
		seen := make(map[string]bool, len(out))
		for _, q := range out {
			seen[q.ID] = true
		}
		for _, fb := range Fallback(specMode) {
			if len(out) >= MinQuestions {
				break
			}
			if !seen[fb.ID] {
				out = append(out, fb)
			}
		}
	}
	if len(out) > MaxQuestions {
		out = out[:MaxQuestions]
	}
	return out
}
