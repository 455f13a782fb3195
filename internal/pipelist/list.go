package pipelist

import (
	"fmt"
	"strings"
	"time"
)

// Separator joins items in the serialized form.
const Separator = "|"

// Parse splits text on the separator, trims each piece and drops empty
// pieces. The result is never nil.
func Parse(text string) []string {
	items := []string{}
	if strings.TrimSpace(text) == "" {
		return items
	}
	for _, piece := range strings.Split(text, Separator) {
		if p := strings.TrimSpace(piece); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// Serialize trims each item, drops empty ones and joins the rest with the
// separator. Order is kept exactly as given.
func Serialize(items []string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, Separator)
}

// Add appends item to the list in text.
//
// When allowDuplicates is false and the trimmed item is already present, the
// original text is returned unchanged. An empty item is also a no-op.
func Add(text, item string, allowDuplicates bool) string {
	item = strings.TrimSpace(item)
	if item == "" {
		return text
	}
	items := Parse(text)
	if !allowDuplicates && indexOf(items, item) >= 0 {
		return text
	}
	return Serialize(append(items, item))
}

// Remove drops every entry equal to item. Removing an absent item still
// returns the canonical form, so Remove(Remove(t, x), x) == Remove(t, x).
func Remove(text, item string) string {
	item = strings.TrimSpace(item)
	items := Parse(text)
	kept := items[:0]
	for _, it := range items {
		if it != item {
			kept = append(kept, it)
		}
	}
	return Serialize(kept)
}

// Update replaces every entry equal to oldItem with newItem. When oldItem is
// absent the original text is returned unchanged. An empty newItem removes
// the matching entries.
func Update(text, oldItem, newItem string) string {
	oldItem = strings.TrimSpace(oldItem)
	newItem = strings.TrimSpace(newItem)
	items := Parse(text)
	if indexOf(items, oldItem) < 0 {
		return text
	}
	for i, it := range items {
		if it == oldItem {
			items[i] = newItem
		}
	}
	return Serialize(items)
}

// Reorder moves the items named in newOrder to the front, in that order, and
// keeps the remaining items after them in their original relative order.
//
// The result is always a permutation of the current items: names that are
// not present are ignored and a name is used at most as many times as it
// occurs in text.
func Reorder(text string, newOrder []string) string {
	items := Parse(text)

	available := make(map[string]int, len(items))
	for _, it := range items {
		available[it]++
	}

	out := make([]string, 0, len(items))
	placed := make(map[string]int, len(newOrder))
	for _, want := range newOrder {
		want = strings.TrimSpace(want)
		if available[want] == 0 {
			continue
		}
		available[want]--
		placed[want]++
		out = append(out, want)
	}

	for _, it := range items {
		if placed[it] > 0 {
			placed[it]--
			continue
		}
		out = append(out, it)
	}
	return Serialize(out)
}

// Contains reports whether item is present.
func Contains(text, item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	return indexOf(Parse(text), item) >= 0
}

// Merge concatenates the lists in texts in order. With removeDuplicates the
// first occurrence of each item is kept.
func Merge(texts []string, removeDuplicates bool) string {
	var all []string
	for _, t := range texts {
		all = append(all, Parse(t)...)
	}
	if removeDuplicates {
		all = dedupe(all)
	}
	return Serialize(all)
}

// StampLayout is the date layout of the marker written by AppendStamped.
const StampLayout = "2006-01-02"

// AppendStamped adds entry prefixed with a "[YYYY-MM-DD]" marker for at.
// Duplicates are suppressed, so adding the same entry twice on one day
// leaves the list unchanged.
func AppendStamped(text, entry string, at time.Time) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return text
	}
	return Add(text, Stamp(entry, at), false)
}

// Stamp formats entry with the AppendStamped date marker.
func Stamp(entry string, at time.Time) string {
	return fmt.Sprintf("[%s] %s", at.Format(StampLayout), strings.TrimSpace(entry))
}

func indexOf(items []string, item string) int {
	for i, it := range items {
		if it == item {
			return i
		}
	}
	return -1
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}
