package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestUserRepositoryGetByID(t *testing.T) {
	recordedAt := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	coll := newFakeFindCollection(t)
	coll.seed(t, bson.M{
		"user_id":     int64(100),
		"username":    "alice",
		"first_name":  "Alice",
		"answer":      string(AnswerYes),
		"recorded_at": recordedAt,
	})

	repo := NewUserRepository(coll)

	user, err := repo.GetByID(context.Background(), 100)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	if user.UserID != 100 {
		t.Fatalf("expected user_id 100, got %d", user.UserID)
	}
	if user.Username != "alice" {
		t.Fatalf("expected username alice, got %q", user.Username)
	}
	if user.Answer == nil || *user.Answer != AnswerYes {
		t.Fatalf("expected answer %s, got %v", AnswerYes, user.Answer)
	}
	if !user.RecordedAt.Equal(recordedAt) {
		t.Fatalf("expected recorded_at %v, got %v", recordedAt, user.RecordedAt)
	}
}

func TestUserRepositoryGetByIDNotFound(t *testing.T) {
	repo := NewUserRepository(newFakeFindCollection(t))

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepositoryListSnapshot(t *testing.T) {
	coll := newFakeFindCollection(t)
	coll.seed(t, bson.M{"user_id": int64(1), "recorded_at": time.Now().UTC()})
	coll.seed(t, bson.M{"user_id": int64(2), "answer": string(AnswerNo), "recorded_at": time.Now().UTC()})

	repo := NewUserRepository(coll)

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	byID := make(map[int64]User, len(users))
	for _, u := range users {
		byID[u.UserID] = u
	}

	if first, ok := byID[1]; !ok || first.Answer != nil {
		t.Fatalf("expected user 1 with no answer, got %+v", first)
	}
	if second, ok := byID[2]; !ok || second.Answer == nil || *second.Answer != AnswerNo {
		t.Fatalf("expected user 2 with answer %s, got %+v", AnswerNo, byID[2])
	}
}

func TestUserRepositoryListEmpty(t *testing.T) {
	repo := NewUserRepository(newFakeFindCollection(t))

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected empty snapshot, got %d users", len(users))
	}
}

func TestUserRepositoryRequiresInitialization(t *testing.T) {
	var repo *UserRepository

	if _, err := repo.GetByID(context.Background(), 1); err == nil {
		t.Fatalf("expected error for nil repository")
	}
	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("expected error for nil repository")
	}
}

func TestUserStateDerivation(t *testing.T) {
	answer := AnswerYes

	tests := []struct {
		name     string
		user     *User
		expected SurveyState
	}{
		{"never seen", nil, StateUnregistered},
		{"registered without answer", &User{UserID: 1}, StateUnanswered},
		{"registered with answer", &User{UserID: 1, Answer: &answer}, StateAnswered},
	}

	for _, tt := range tests {
		if got := tt.user.State(); got != tt.expected {
			t.Fatalf("%s: State() = %s, want %s", tt.name, got, tt.expected)
		}
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		raw   string
		want  Answer
		valid bool
	}{
		{"Yes", AnswerYes, true},
		{"No", AnswerNo, true},
		{"yes", Answer("yes"), false},
		{"Maybe", Answer("Maybe"), false},
		{"", Answer(""), false},
	}

	for _, tt := range tests {
		got, ok := ParseAnswer(tt.raw)
		if got != tt.want || ok != tt.valid {
			t.Fatalf("ParseAnswer(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.valid)
		}
	}
}

type fakeFindCollection struct {
	t    *testing.T
	docs []bson.M
}

func newFakeFindCollection(t *testing.T) *fakeFindCollection {
	t.Helper()
	return &fakeFindCollection{t: t}
}

func (f *fakeFindCollection) seed(t *testing.T, doc bson.M) {
	t.Helper()
	if _, ok := doc["user_id"]; !ok {
		t.Fatalf("seed document missing user_id: %v", doc)
	}
	f.docs = append(f.docs, doc)
}

func (f *fakeFindCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	filterDoc, ok := filter.(bson.M)
	if !ok {
		return mongo.NewSingleResultFromDocument(nil, fmt.Errorf("unexpected filter type %T", filter), nil)
	}

	want, ok := filterDoc["user_id"]
	if !ok {
		return mongo.NewSingleResultFromDocument(nil, fmt.Errorf("missing user_id filter in %v", filterDoc), nil)
	}

	for _, doc := range f.docs {
		if doc["user_id"] == want {
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		}
	}

	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (f *fakeFindCollection) Find(_ context.Context, _ interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	docs := make([]interface{}, 0, len(f.docs))
	for _, doc := range f.docs {
		docs = append(docs, doc)
	}

	return mongo.NewCursorFromDocuments(docs, nil, nil)
}
