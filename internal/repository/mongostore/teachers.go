package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resourceroom/internal/models"
	"resourceroom/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type teacherDoc struct {
	ID           docID     `bson:"_id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	FirstName    string    `bson:"firstName"`
	LastName     string    `bson:"lastName"`
	School       string    `bson:"school"`
	IsActive     bool      `bson:"isActive"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d teacherDoc) model() *models.Teacher {
	return &models.Teacher{
		ID:           string(d.ID),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		School:       d.School,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// TeacherRepository stores teacher accounts in MongoDB
type TeacherRepository struct {
	coll *mongo.Collection
}

// NewTeacherRepository creates a teacher repository on store
func NewTeacherRepository(store *Store) *TeacherRepository {
	return &TeacherRepository{coll: store.collection(teachersCollection)}
}

// Create inserts a new teacher, filling in the ID and timestamps
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Email = strings.ToLower(t.Email)

	doc := teacherDoc{
		ID:           docID(t.ID),
		Username:     t.Username,
		Email:        t.Email,
		PasswordHash: t.PasswordHash,
		FirstName:    t.FirstName,
		LastName:     t.LastName,
		School:       t.School,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	return nil
}

// GetByID retrieves a teacher by ID
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*models.Teacher, error) {
	return r.findOne(ctx, bson.M{"_id": idFilter(id)})
}

// GetByLogin retrieves a teacher by username or email
func (r *TeacherRepository) GetByLogin(ctx context.Context, login string) (*models.Teacher, error) {
	return r.findOne(ctx, bson.M{"$or": []bson.M{
		{"username": login},
		{"email": strings.ToLower(login)},
	}})
}

// ListActive retrieves every active teacher
func (r *TeacherRepository) ListActive(ctx context.Context) ([]models.Teacher, error) {
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query teachers: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []teacherDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode teachers: %w", err)
	}

	teachers := make([]models.Teacher, 0, len(docs))
	for _, d := range docs {
		teachers = append(teachers, *d.model())
	}
	return teachers, nil
}

func (r *TeacherRepository) findOne(ctx context.Context, filter bson.M) (*models.Teacher, error) {
	var doc teacherDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	return doc.model(), nil
}
