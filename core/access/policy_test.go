package access

import (
	"testing"

	"github.com/ahmednader515/answer-guide-platform/core/course"
)

func chapter(id string, free bool) course.Chapter {
	return course.Chapter{ID: id, IsFree: free, IsPublished: true}
}

func TestGrantSetMode(t *testing.T) {
	if got := NewGrantSet().Mode(); got != CourseWide {
		t.Errorf("Mode() = %v; want %v", got, CourseWide)
	}
	if got := NewGrantSet("ch1").Mode(); got != FineGrained {
		t.Errorf("Mode() = %v; want %v", got, FineGrained)
	}
}

func TestResolveChapter(t *testing.T) {
	tests := []struct {
		name            string
		ch              course.Chapter
		hasCourseAccess bool
		grants          GrantSet
		want            Decision
	}{
		{
			name: "free chapter is always visible",
			ch:   chapter("ch1", true),
			want: Decision{Granted: true},
		},
		{
			name:            "free chapter ignores grants and purchases",
			ch:              chapter("ch1", true),
			hasCourseAccess: true,
			grants:          NewGrantSet("other"),
			want:            Decision{Granted: true},
		},
		{
			name:            "purchase unlocks chapter when no grants exist",
			ch:              chapter("ch1", false),
			hasCourseAccess: true,
			want:            Decision{Granted: true},
		},
		{
			name:            "purchaser with grants needs a grant for this chapter",
			ch:              chapter("ch1", false),
			hasCourseAccess: true,
			grants:          NewGrantSet("ch1", "ch2"),
			want:            Decision{Granted: true},
		},
		{
			name:            "purchaser with grants is denied ungranted chapters",
			ch:              chapter("ch3", false),
			hasCourseAccess: true,
			grants:          NewGrantSet("ch1", "ch2"),
			want:            Decision{Reason: ReasonChapterNotGranted},
		},
		{
			name:   "standalone grant unlocks without purchase",
			ch:     chapter("ch1", false),
			grants: NewGrantSet("ch1"),
			want:   Decision{Granted: true},
		},
		{
			name: "no purchase and no grant is denied",
			ch:   chapter("ch1", false),
			want: Decision{Reason: ReasonCourseNotPurchased},
		},
		{
			name:   "grant on another chapter does not help without purchase",
			ch:     chapter("ch2", false),
			grants: NewGrantSet("ch1"),
			want:   Decision{Reason: ReasonCourseNotPurchased},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveChapter(tt.ch, tt.hasCourseAccess, tt.grants); got != tt.want {
				t.Errorf("ResolveChapter() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

// A course has chapters A (free, pos 1), B (paid, pos 2) and C (paid, pos 3).
// Student U purchased the course and was granted B only; V holds nothing.
func TestResolveChapter_scenarios(t *testing.T) {
	chA := course.Chapter{ID: "A", Position: 1, IsFree: true, IsPublished: true}
	chB := course.Chapter{ID: "B", Position: 2, IsPublished: true}
	chC := course.Chapter{ID: "C", Position: 3, IsPublished: true}

	uGrants := NewGrantSet("B")
	vGrants := NewGrantSet()

	tests := []struct {
		name            string
		ch              course.Chapter
		hasCourseAccess bool
		grants          GrantSet
		want            Decision
	}{
		{"U sees A", chA, true, uGrants, Decision{Granted: true}},
		{"U sees B", chB, true, uGrants, Decision{Granted: true}},
		{"U denied C", chC, true, uGrants, Decision{Reason: ReasonChapterNotGranted}},
		{"V sees A", chA, false, vGrants, Decision{Granted: true}},
		{"V denied B", chB, false, vGrants, Decision{Reason: ReasonCourseNotPurchased}},
		{"V denied C", chC, false, vGrants, Decision{Reason: ReasonCourseNotPurchased}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveChapter(tt.ch, tt.hasCourseAccess, tt.grants); got != tt.want {
				t.Errorf("ResolveChapter() = %+v; want %+v", got, tt.want)
			}
		})
	}
}
