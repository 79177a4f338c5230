package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type taskDocument struct {
	ID        string     `bson:"_id"`
	OwnerID   string     `bson:"owner_id"`
	Text      string     `bson:"text"`
	Completed bool       `bson:"completed"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at"`
}

func newTaskDocument(task *domain.Task) taskDocument {
	return taskDocument{
		ID:        task.ID.String(),
		OwnerID:   task.OwnerID.String(),
		Text:      task.Text,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	ownerID, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return nil, err
	}
	return &domain.Task{
		ID:        id,
		OwnerID:   ownerID,
		Text:      d.Text,
		Completed: d.Completed,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

type taskRepository struct {
	coll *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *taskRepository {
	return &taskRepository{coll: db.Collection(tasksCollection)}
}

func ownedFilter(ownerID, id uuid.UUID) bson.M {
	return bson.M{"_id": id.String(), "owner_id": ownerID.String()}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	_, err := r.coll.InsertOne(ctx, newTaskDocument(task))
	return err
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"owner_id": ownerID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	if err := r.coll.FindOne(ctx, ownedFilter(ownerID, id)).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain()
}

func (r *taskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error) {
	set := bson.M{"updated_at": changes.UpdatedAt}
	if changes.Text != nil {
		set["text"] = *changes.Text
	}
	if changes.Completed != nil {
		set["completed"] = *changes.Completed
	}
	return r.findOneAndUpdate(ctx, ownerID, id, bson.M{"$set": set})
}

// Toggle uses an update pipeline so the flip happens server-side.
func (r *taskRepository) Toggle(ctx context.Context, ownerID, id uuid.UUID, at time.Time) (*domain.Task, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "completed", Value: bson.D{{Key: "$not", Value: bson.A{"$completed"}}}},
			{Key: "updated_at", Value: at},
		}}},
	}
	return r.findOneAndUpdate(ctx, ownerID, id, pipeline)
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, ownedFilter(ownerID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *taskRepository) findOneAndUpdate(ctx context.Context, ownerID, id uuid.UUID, update interface{}) (*domain.Task, error) {
	var doc taskDocument
	err := r.coll.FindOneAndUpdate(ctx,
		ownedFilter(ownerID, id),
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return doc.toDomain()
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
