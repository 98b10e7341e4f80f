package ocr

import (
	"testing"

	"github.com/dotscramble/redact/internal/region"
)

func word(text string, x, y, w, h, conf int) Word {
	return Word{Text: text, Box: region.Box{X: x, Y: y, Width: w, Height: h}, Confidence: conf}
}

func TestFindPhrase_MultiWordGrouping(t *testing.T) {
	words := []Word{
		word("Remind", 10, 10, 50, 20, 90),
		word("Me", 65, 10, 30, 20, 88),
	}

	boxes := FindPhrase(words, "Remind Me", MatchOptions{}, 200, 100)

	if len(boxes) != 1 {
		t.Fatalf("expected one grouped phrase box, got %d: %v", len(boxes), boxes)
	}

	// Union of both words is (10,10,85,20); 10px padding clamps at the
	// image origin.
	want := region.Box{X: 0, Y: 0, Width: 105, Height: 40}
	if boxes[0] != want {
		t.Errorf("grouped box: got %+v, want %+v", boxes[0], want)
	}
}

func TestFindPhrase_WordsOnDifferentLinesNotGrouped(t *testing.T) {
	words := []Word{
		word("Remind", 10, 10, 50, 20, 90),
		word("Me", 10, 200, 30, 20, 88),
	}

	boxes := FindPhrase(words, "Remind Me", MatchOptions{}, 400, 400)

	if len(boxes) != 2 {
		t.Fatalf("expected two separate boxes, got %d: %v", len(boxes), boxes)
	}
}

func TestFindPhrase_SingleWordExactMatch(t *testing.T) {
	words := []Word{
		word("category", 10, 10, 80, 20, 80),
		word("cat", 10, 50, 30, 20, 80),
	}

	boxes := FindPhrase(words, "cat", MatchOptions{ExactMatch: true}, 200, 200)

	if len(boxes) != 1 {
		t.Fatalf("exact match: expected only the literal word, got %d boxes", len(boxes))
	}
	// "cat" at (10,50,30,20) with 8px padding.
	want := region.Box{X: 2, Y: 42, Width: 46, Height: 36}
	if boxes[0] != want {
		t.Errorf("got %+v, want %+v", boxes[0], want)
	}
}

func TestFindPhrase_SingleWordSubstringMatch(t *testing.T) {
	words := []Word{
		word("password123", 10, 10, 110, 20, 80),
	}

	boxes := FindPhrase(words, "password", MatchOptions{}, 400, 100)
	if len(boxes) != 1 {
		t.Fatalf("substring match failed: got %d boxes", len(boxes))
	}
}

func TestFindPhrase_PrefixLengthGuard(t *testing.T) {
	// "Remind" (6 chars) may match "Reminders" (9 <= 12) but not a word
	// longer than twice its length.
	words := []Word{
		word("Reminders", 10, 10, 90, 20, 90),
		word("Me", 110, 10, 30, 20, 90),
		word("Remindersssssssss", 10, 100, 170, 20, 90),
	}

	boxes := FindPhrase(words, "Remind Me", MatchOptions{}, 400, 400)

	for _, b := range boxes {
		if b.Y > 80 {
			t.Errorf("over-long word should not have matched, got box %+v", b)
		}
	}
	if len(boxes) != 1 {
		t.Errorf("expected one grouped box from the first line, got %d", len(boxes))
	}
}

func TestFindPhrase_ConfidenceFloor(t *testing.T) {
	words := []Word{
		word("secret", 10, 10, 60, 20, 29),
		word("secret", 10, 50, 60, 20, 31),
	}

	boxes := FindPhrase(words, "secret", MatchOptions{}, 200, 200)

	if len(boxes) != 1 {
		t.Fatalf("confidence floor: got %d boxes, want 1", len(boxes))
	}
	if boxes[0].Y > 50 {
		t.Error("kept the low-confidence word instead of the confident one")
	}
}

func TestFindPhrase_CaseSensitivity(t *testing.T) {
	words := []Word{
		word("Password", 10, 10, 80, 20, 90),
	}

	if got := FindPhrase(words, "password", MatchOptions{}, 200, 100); len(got) != 1 {
		t.Errorf("case-insensitive search should match, got %d boxes", len(got))
	}
	opts := MatchOptions{CaseSensitive: true, ExactMatch: true}
	if got := FindPhrase(words, "password", opts, 200, 100); len(got) != 0 {
		t.Errorf("case-sensitive search should not match, got %d boxes", len(got))
	}
}

func TestFindPhrase_EmptyPhrase(t *testing.T) {
	words := []Word{word("anything", 10, 10, 80, 20, 90)}

	if got := FindPhrase(words, "", MatchOptions{}, 200, 100); got != nil {
		t.Errorf("empty phrase should yield nothing, got %v", got)
	}
	if got := FindPhrase(words, "   ", MatchOptions{}, 200, 100); got != nil {
		t.Errorf("whitespace phrase should yield nothing, got %v", got)
	}
}

func TestFindPhrase_NoMatches(t *testing.T) {
	words := []Word{word("hello", 10, 10, 50, 20, 90)}

	if got := FindPhrase(words, "goodbye", MatchOptions{}, 200, 100); len(got) != 0 {
		t.Errorf("expected no boxes, got %v", got)
	}
}

func TestFindPhrase_BoxesStayInBounds(t *testing.T) {
	// Word flush against the image edge: padding must clamp.
	words := []Word{
		word("edge", 0, 0, 40, 15, 90),
		word("case", 44, 0, 40, 15, 90),
	}

	boxes := FindPhrase(words, "edge case", MatchOptions{}, 90, 20)

	for _, b := range boxes {
		if !b.Within(90, 20) {
			t.Errorf("box %+v escapes 90x20 image", b)
		}
	}
}

func TestFindPhrase_DegenerateBoxesDropped(t *testing.T) {
	// A grouped box that clamps to a sliver must be discarded.
	words := []Word{
		word("tiny", 0, 0, 2, 2, 90),
	}

	if got := FindPhrase(words, "tiny", MatchOptions{}, 3, 3); len(got) != 0 {
		t.Errorf("degenerate box should be dropped, got %v", got)
	}
}
