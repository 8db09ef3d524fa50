// Package numbering assigns book entry numbers and validates entry dates
// against a book's control window.
package numbering

import (
	"sort"
	"time"

	"landrec/internal/registration/models"
	dErrors "landrec/pkg/domain-errors"
)

// NextEntryNumber returns the number the next entry of book must take.
//
// entries must hold every entry of the book, deleted ones included: under
// no-reuse the highest number ever assigned is never handed out again, even
// when its entry was later deleted. Callers must hold the book lock.
func NextEntryNumber(book *models.RecordingBook, entries []*models.BookEntry) (int, error) {
	if book.Policy == models.NumberingPolicyReuse {
		return nextReusing(book, entries)
	}
	return nextAppending(book, entries), nil
}

func firstNumber(book *models.RecordingBook) int {
	if book.Perpetual && book.StartIndex > 0 {
		return book.StartIndex
	}
	return 1
}

// nextAppending counts deleted entries too, so a no-reuse book never hands
// out a number it has already used, even when the highest entry was deleted.
func nextAppending(book *models.RecordingBook, entries []*models.BookEntry) int {
	highest := 0
	for _, e := range entries {
		if e.Number > highest {
			highest = e.Number
		}
	}
	if highest == 0 {
		return firstNumber(book)
	}
	return highest + 1
}

// nextReusing walks active numbers in ascending order from the start index
// and returns the first gap. A number below the expected one means two
// active entries share a slot or a slot sits below the start index; that is
// reported, never repaired.
func nextReusing(book *models.RecordingBook, entries []*models.BookEntry) (int, error) {
	expected := max(book.StartIndex, 1)

	numbers := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsActive() {
			numbers = append(numbers, e.Number)
		}
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		switch {
		case n == expected:
			expected++
		case n > expected:
			return expected, nil
		default:
			return 0, dErrors.New(dErrors.CodeBookEntryNumberAlreadyExists,
				"book entry number already exists").
				WithDetail("book", book.UID).
				WithDetail("number", n).
				WithDetail("expected", expected)
		}
	}
	return expected, nil
}

// ValidatePresentationTime checks t against the book's control window.
func ValidatePresentationTime(book *models.RecordingBook, t time.Time) error {
	if book.InWindow(t) {
		return nil
	}
	return windowError(book, dErrors.CodeInvalidBookEntryPresentationTime,
		"presentation time is outside the book's control window", t)
}

// ValidateAuthorizationDate checks t against the book's control window.
func ValidateAuthorizationDate(book *models.RecordingBook, t time.Time) error {
	if book.InWindow(t) {
		return nil
	}
	return windowError(book, dErrors.CodeInvalidBookEntryAuthorizationDate,
		"authorization date is outside the book's control window", t)
}

func windowError(book *models.RecordingBook, code dErrors.Code, msg string, t time.Time) error {
	err := dErrors.New(code, msg).
		WithDetail("book", book.UID).
		WithDetail("date", t.UTC().Format(time.RFC3339))
	if book.ControlFrom != nil {
		err = err.WithDetail("valid_from", book.ControlFrom.UTC().Format(time.RFC3339))
	}
	if book.ControlTo != nil {
		err = err.WithDetail("valid_to", book.ControlTo.UTC().Format(time.RFC3339))
	}
	return err
}
