package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Template struct {
	ID        int64
	Name      string
	Body      string
	RatingMin int
	RatingMax int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Placeholders recognised in template bodies.
var knownPlaceholders = map[string]struct{}{
	"author":  {},
	"rating":  {},
	"comment": {},
}

// Validate checks the rating range and rejects bodies referencing
// placeholders outside the supported set.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrBadTemplate)
	}
	if strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrBadTemplate)
	}
	if t.RatingMin < 1 || t.RatingMax > 5 || t.RatingMin > t.RatingMax {
		return fmt.Errorf("%w: rating range must satisfy 1 <= min <= max <= 5", ErrBadTemplate)
	}
	return CheckBody(t.Body)
}

// CheckBody verifies that every {placeholder} in body is a supported one.
func CheckBody(body string) error {
	for _, m := range placeholderRe.FindAllStringSubmatch(body, -1) {
		if _, ok := knownPlaceholders[m[1]]; !ok {
			return fmt.Errorf("%w: unknown placeholder {%s}", ErrBadTemplate, m[1])
		}
	}
	return nil
}

// MatchTemplate picks the template for a rating: active, range containing
// the rating, narrowest range first, most recently updated on equal width.
// Returns nil when nothing qualifies.
func MatchTemplate(ts []Template, rating int) *Template {
	var best *Template
	for i := range ts {
		t := &ts[i]
		if !t.Active || rating < t.RatingMin || rating > t.RatingMax {
			continue
		}
		if best == nil {
			best = t
			continue
		}
		bw := best.RatingMax - best.RatingMin
		tw := t.RatingMax - t.RatingMin
		if tw < bw || (tw == bw && t.UpdatedAt.After(best.UpdatedAt)) {
			best = t
		}
	}
	return best
}

// Render substitutes the review's fields into body. A review without a
// comment renders {comment} as the empty string.
func Render(body string, r Review) string {
	comment := ""
	if r.Comment != nil {
		comment = *r.Comment
	}
	return strings.NewReplacer(
		"{author}", r.Author,
		"{rating}", strconv.Itoa(r.Rating),
		"{comment}", comment,
	).Replace(body)
}
