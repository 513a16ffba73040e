package app

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"replydesk/internal/domain"
)

/********** alias registries (single source of truth) **********/

var locationAliases = map[string][]string{
	"google_id": {"name", "locationName", "location_id", "locationId"},
	"title":     {"title", "locationName", "location_name", "storeName"},
}

var reviewAliases = map[string][]string{
	"google_id":  {"reviewId", "review_id", "name"},
	"author":     {"reviewer.displayName", "reviewer.display_name", "reviewer.name", "author"},
	"comment":    {"comment", "review_text", "text"},
	"reply":      {"reviewReply.comment", "review_reply.comment", "reply.comment"},
	"reply_time": {"reviewReply.updateTime", "review_reply.update_time"},
	"created":    {"createTime", "create_time", "created_at"},
}

// starRating comes back as an enum word in v4 payloads.
var starWords = map[string]int{
	"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4, "FIVE": 5,
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// trailingSegment strips a resource path prefix: "accounts/1/locations/2" -> "2".
func trailingSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ratingFrom coerces the platform star rating (enum word, number, or
// numeric string) into 1..5; 0 means unparsable.
func ratingFrom(m map[string]any) int {
	for _, p := range []string{"starRating", "star_rating", "rating", "rating.value"} {
		switch v := lookupAny(m, p).(type) {
		case string:
			s := strings.ToUpper(strings.TrimSpace(v))
			if n, ok := starWords[s]; ok {
				return n
			}
			if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 5 {
				return n
			}
		case float64:
			if n := int(v); n >= 1 && n <= 5 {
				return n
			}
		case int:
			if v >= 1 && v <= 5 {
				return v
			}
		}
	}
	return 0
}

// timeFrom parses the first RFC3339 timestamp found at the given paths.
func timeFrom(m map[string]any, paths ...string) *time.Time {
	for _, p := range paths {
		s := lookupStr(m, p)
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// addressFrom flattens storefrontAddress (or a v4-style address object) into
// a single display string.
func addressFrom(m map[string]any) *string {
	for _, key := range []string{"storefrontAddress", "address"} {
		v := lookupAny(m, key)
		switch obj := v.(type) {
		case string:
			if s := strings.TrimSpace(obj); s != "" {
				return &s
			}
		case map[string]any:
			parts := make([]string, 0, 8)
			if lines, ok := obj["addressLines"].([]any); ok {
				for _, l := range lines {
					if s, ok := l.(string); ok && strings.TrimSpace(s) != "" {
						parts = append(parts, strings.TrimSpace(s))
					}
				}
			}
			for _, k := range []string{"locality", "administrativeArea", "postalCode", "regionCode"} {
				if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			if len(parts) > 0 {
				joined := strings.Join(parts, ", ")
				return &joined
			}
		}
	}
	return nil
}

/********** location mapper **********/

func mapLocation(accountID int64, m map[string]any) domain.Location {
	gid := ""
	if s := firstNonEmptyAlias(m, locationAliases, "google_id"); s != nil {
		gid = trailingSegment(*s)
	}
	name := deref(firstNonEmptyAlias(m, locationAliases, "title"))
	if name == "" {
		name = gid
	}
	return domain.Location{
		AccountID: accountID,
		GoogleID:  gid,
		Name:      name,
		Address:   addressFrom(m),
	}
}

/********** review mappers **********/

func mapReview(locationID int64, m map[string]any) domain.Review {
	rv := domain.Review{LocationID: locationID}

	if s := firstNonEmptyAlias(m, reviewAliases, "google_id"); s != nil {
		rv.GoogleID = trailingSegment(*s)
	}

	rv.Author = deref(firstNonEmptyAlias(m, reviewAliases, "author"))
	if rv.Author == "" {
		rv.Author = "Anonymous"
	}

	rv.Rating = ratingFrom(m)
	rv.Comment = firstNonEmptyAlias(m, reviewAliases, "comment")
	rv.CreatedAt = timeFrom(m, reviewAliases["created"]...)

	// Only carry a reply timestamp alongside an actual reply.
	if rep := firstNonEmptyAlias(m, reviewAliases, "reply"); rep != nil {
		rv.Reply = rep
		rv.RepliedAt = timeFrom(m, reviewAliases["reply_time"]...)
	}

	if raw, err := json.Marshal(m); err == nil {
		rv.RawJSON = raw
	} else {
		log.Error().Err(err).Str("context", "mapReview").Msg("marshal review failed")
	}
	return rv
}

func mapReviews(locationID int64, in []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, m := range in {
		rv := mapReview(locationID, m)
		if rv.GoogleID == "" {
			log.Warn().Int64("location", locationID).Msg("skipping review without id")
			continue
		}
		out = append(out, rv)
	}
	return out
}
