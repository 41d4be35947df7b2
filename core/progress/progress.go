// Package progress tracks practice results for individual verses.
//
// Functions here are pure: they take the previous state and return the
// next one. Persisting progress is the caller's concern.
package progress

import "time"

// MaxMastery is the mastery level at which a verse counts as completed.
const MaxMastery = 5

// Ref identifies a verse within a source.
type Ref struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// Progress is the practice record of one verse.
type Progress struct {
	Ref
	Attempts       int       `json:"attempts"`
	CorrectGuesses int       `json:"correct_guesses"`
	LastPracticed  time.Time `json:"last_practiced"`
	Completed      bool      `json:"completed"`
	Started        bool      `json:"started"`
	MasteryLevel   int       `json:"mastery_level"`
	Memorized      bool      `json:"memorized"`
}

// Status is the coarse state shown next to a verse.
type Status string

const (
	NotStarted Status = "not-started"
	Started    Status = "started"
	Completed  Status = "completed"
)

// Status returns the verse's coarse state.
func (p Progress) Status() Status {
	switch {
	case p.Completed:
		return Completed
	case p.Started:
		return Started
	default:
		return NotStarted
	}
}

// Record applies one attempt. A correct attempt raises mastery by one, up
// to MaxMastery.
func Record(prev Progress, ref Ref, correct bool, now time.Time) Progress {
	next := prev
	next.Ref = ref
	next.Attempts++
	if correct {
		next.CorrectGuesses++
		if next.MasteryLevel < MaxMastery {
			next.MasteryLevel++
		}
	}
	next.Completed = next.MasteryLevel >= MaxMastery
	next.Started = true
	next.LastPracticed = now
	return next
}

// ToggleMemorized flips the memorized flag. A verse with no prior record
// gets a fresh one stamped with now.
func ToggleMemorized(prev *Progress, ref Ref, now time.Time) Progress {
	if prev == nil {
		return Progress{Ref: ref, LastPracticed: now, Memorized: true}
	}
	next := *prev
	next.Memorized = !next.Memorized
	return next
}

// Summary aggregates many verse records.
type Summary struct {
	Total          int     `json:"total"`
	Started        int     `json:"started"`
	Completed      int     `json:"completed"`
	Memorized      int     `json:"memorized"`
	Attempts       int     `json:"attempts"`
	CorrectGuesses int     `json:"correct_guesses"`
	Accuracy       float64 `json:"accuracy"` // percent, 0 when there are no attempts
}

// Summarize aggregates records.
func Summarize(records []Progress) Summary {
	var s Summary
	s.Total = len(records)
	for _, p := range records {
		if p.Started {
			s.Started++
		}
		if p.Completed {
			s.Completed++
		}
		if p.Memorized {
			s.Memorized++
		}
		s.Attempts += p.Attempts
		s.CorrectGuesses += p.CorrectGuesses
	}
	if s.Attempts > 0 {
		s.Accuracy = float64(s.CorrectGuesses) / float64(s.Attempts) * 100
	}
	return s
}
