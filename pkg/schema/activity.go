package schema

import (
	"fmt"
	"strings"
	"time"
)

// Action is the kind of mutation recorded in the activity log.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionPublish Action = "publish"
)

// Actions lists every recordable action in display order.
var Actions = []Action{ActionCreate, ActionUpdate, ActionDelete, ActionPublish}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionPublish:
		return true
	}
	return false
}

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Collection is a logical resource type managed by the CMS.
type Collection string

const (
	CollectionArticles     Collection = "articles"
	CollectionTools        Collection = "tools"
	CollectionPortfolio    Collection = "portfolio"
	CollectionTestimonials Collection = "testimonials"
	CollectionSettings     Collection = "settings"
	CollectionCarousels    Collection = "carousels"
)

// Collections lists every managed collection.
var Collections = []Collection{
	CollectionArticles,
	CollectionTools,
	CollectionPortfolio,
	CollectionTestimonials,
	CollectionSettings,
	CollectionCarousels,
}

// Valid reports whether c is a managed collection.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCollection parses a case-insensitive collection name.
func ParseCollection(s string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, s)
	}
	return c, nil
}

// FilterAll matches every action or collection.
const FilterAll = "all"

// ActionFilter is either FilterAll or a concrete Action.
type ActionFilter string

// Matches reports whether a passes the filter.
func (f ActionFilter) Matches(a Action) bool {
	return f == FilterAll || Action(f) == a
}

// ParseActionFilter accepts "", "all" or an action name.
func ParseActionFilter(s string) (ActionFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, FilterAll) {
		return FilterAll, nil
	}
	a, err := ParseAction(s)
	if err != nil {
		return "", err
	}
	return ActionFilter(a), nil
}

// CollectionFilter is either FilterAll or a concrete Collection.
type CollectionFilter string

// Matches reports whether c passes the filter.
func (f CollectionFilter) Matches(c Collection) bool {
	return f == FilterAll || Collection(f) == c
}

// ParseCollectionFilter accepts "", "all" or a collection name.
func ParseCollectionFilter(s string) (CollectionFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, FilterAll) {
		return FilterAll, nil
	}
	c, err := ParseCollection(s)
	if err != nil {
		return "", err
	}
	return CollectionFilter(c), nil
}

// DefaultActor is shown when a record carries no user email.
const DefaultActor = "Admin"

// ActivityRecord is one immutable entry of the activity log.
type ActivityRecord struct {
	ID            string     `json:"id"`
	Action        Action     `json:"action"`
	Collection    Collection `json:"collection"`
	DocumentID    string     `json:"documentId"`
	DocumentTitle string     `json:"documentTitle,omitempty"`
	UserEmail     string     `json:"userEmail,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Document returns the stored form of the record. The ID is the document key
// and is not repeated inside the document.
func (r ActivityRecord) Document() Document {
	doc := Document{
		"action":     string(r.Action),
		"collection": string(r.Collection),
		"documentId": r.DocumentID,
		"createdAt":  r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.DocumentTitle != "" {
		doc["documentTitle"] = r.DocumentTitle
	}
	if r.UserEmail != "" {
		doc["userEmail"] = r.UserEmail
	}
	return doc
}

// Validate checks the required fields of a record before it is appended.
func (r ActivityRecord) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("%w: action %q", ErrInvalidDocument, r.Action)
	}
	if !r.Collection.Valid() {
		return fmt.Errorf("%w: collection %q", ErrInvalidDocument, r.Collection)
	}
	if strings.TrimSpace(r.DocumentID) == "" {
		return fmt.Errorf("%w: documentId is required", ErrInvalidDocument)
	}
	return nil
}

// DecodeActivity converts a stored document into an ActivityRecord.
// Optional display fields are resolved here, once: a missing title falls back
// to the document ID and a missing email to DefaultActor.
func DecodeActivity(id string, doc Document) (ActivityRecord, error) {
	rec := ActivityRecord{
		ID:            id,
		Action:        Action(doc.String("action")),
		Collection:    Collection(doc.String("collection")),
		DocumentID:    doc.String("documentId"),
		DocumentTitle: doc.String("documentTitle"),
		UserEmail:     doc.String("userEmail"),
	}
	if err := rec.Validate(); err != nil {
		return ActivityRecord{}, err
	}
	createdAt, ok := TimeValue(doc["createdAt"])
	if !ok {
		return ActivityRecord{}, fmt.Errorf("%w: createdAt missing or malformed", ErrInvalidDocument)
	}
	rec.CreatedAt = createdAt.UTC()

	if rec.DocumentTitle == "" {
		rec.DocumentTitle = rec.DocumentID
	}
	if rec.UserEmail == "" {
		rec.UserEmail = DefaultActor
	}
	return rec, nil
}
