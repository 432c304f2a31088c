// Package mongo provides a MongoDB-backed epic.Store for multi-host
// deployments that need epic context durable outside any single process,
// alongside the default file-backed store (epic/store/file).
package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/polka-codes/agentflow/epic"
)

// documentID is the fixed _id every epic context document is stored under:
// one collection per epic, one document per epic.
const documentID = "epic"

// Store persists a single epic.Context document per collection.
type Store struct {
	collection *mongo.Collection
}

// New returns a Store backed by collection, which should be dedicated to a
// single epic (the teacher's per-run-collection convention).
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

type document struct {
	ID         string            `bson:"_id"`
	Task       string            `bson:"task,omitempty"`
	Plan       string            `bson:"plan,omitempty"`
	BranchName string            `bson:"branchName,omitempty"`
	Todos      []todoDocument    `bson:"todos,omitempty"`
	Memory     map[string]string `bson:"memory,omitempty"`
}

type todoDocument struct {
	ID     string `bson:"id"`
	Title  string `bson:"title"`
	Status string `bson:"status"`
}

// Load fetches the stored context, reporting (zero Context, false, nil) when
// nothing has been saved yet.
func (s *Store) Load(ctx context.Context) (epic.Context, bool, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": documentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return epic.Context{}, false, nil
	}
	if err != nil {
		return epic.Context{}, false, err
	}
	return fromDocument(doc), true, nil
}

// Save upserts the context document.
func (s *Store) Save(ctx context.Context, c epic.Context) error {
	doc := toDocument(c)
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": documentID}, doc, opts)
	return err
}

func toDocument(c epic.Context) document {
	todos := make([]todoDocument, 0, len(c.Todos))
	for _, t := range c.Todos {
		todos = append(todos, todoDocument{ID: t.ID, Title: t.Title, Status: t.Status})
	}
	return document{
		ID:         documentID,
		Task:       c.Task,
		Plan:       c.Plan,
		BranchName: c.BranchName,
		Todos:      todos,
		Memory:     c.Memory,
	}
}

func fromDocument(doc document) epic.Context {
	todos := make([]epic.TodoRef, 0, len(doc.Todos))
	for _, t := range doc.Todos {
		todos = append(todos, epic.TodoRef{ID: t.ID, Title: t.Title, Status: t.Status})
	}
	return epic.Context{
		Task:       doc.Task,
		Plan:       doc.Plan,
		BranchName: doc.BranchName,
		Todos:      todos,
		Memory:     doc.Memory,
	}
}
