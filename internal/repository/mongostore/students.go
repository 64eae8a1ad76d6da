package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resourceroom/internal/models"
	"resourceroom/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type purchaseDoc struct {
	Item        string    `bson:"item"`
	Cost        int       `bson:"cost"`
	PurchasedAt time.Time `bson:"purchasedAt"`
}

// studentDoc keeps the legacy single "group" field so documents written by the
// first schema decode unchanged
type studentDoc struct {
	ID              docID         `bson:"_id"`
	TeacherID       string        `bson:"teacherId"`
	Name            string        `bson:"name"`
	Group           string        `bson:"group,omitempty"`
	Groups          []string      `bson:"groups,omitempty"`
	PrimaryGroup    string        `bson:"primaryGroup,omitempty"`
	SkillsCompleted int           `bson:"skillsCompleted"`
	TotalSkills     int           `bson:"totalSkills"`
	Tokens          int           `bson:"tokens"`
	Purchases       []purchaseDoc `bson:"purchases"`
	IsActive        bool          `bson:"isActive"`
	CreatedAt       time.Time     `bson:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt"`
}

func (d studentDoc) model() *models.Student {
	s := &models.Student{
		ID:              string(d.ID),
		TeacherID:       d.TeacherID,
		Name:            d.Name,
		Groups:          d.Groups,
		PrimaryGroup:    d.PrimaryGroup,
		LegacyGroup:     d.Group,
		SkillsCompleted: d.SkillsCompleted,
		TotalSkills:     d.TotalSkills,
		Tokens:          d.Tokens,
		IsActive:        d.IsActive,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, p := range d.Purchases {
		s.Purchases = append(s.Purchases, models.Purchase{Item: p.Item, Cost: p.Cost, PurchasedAt: p.PurchasedAt})
	}
	return s
}

// StudentRepository stores students, their balances and purchases in MongoDB
type StudentRepository struct {
	coll *mongo.Collection
}

// NewStudentRepository creates a student repository on store
func NewStudentRepository(store *Store) *StudentRepository {
	return &StudentRepository{coll: store.collection(studentsCollection)}
}

func activeStudent(teacherID, studentID string) bson.M {
	return bson.M{"_id": idFilter(studentID), "teacherId": teacherID, "isActive": true}
}

// Create inserts a new student
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	s.IsActive = true

	doc := studentDoc{
		ID:              docID(s.ID),
		TeacherID:       s.TeacherID,
		Name:            s.Name,
		Group:           s.LegacyGroup,
		Groups:          s.Groups,
		PrimaryGroup:    s.PrimaryGroup,
		SkillsCompleted: s.SkillsCompleted,
		TotalSkills:     s.TotalSkills,
		Tokens:          s.Tokens,
		Purchases:       []purchaseDoc{},
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetActive retrieves an active student owned by teacherID
func (r *StudentRepository) GetActive(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	var doc studentDoc
	err := r.coll.FindOne(ctx, activeStudent(teacherID, studentID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return doc.model(), nil
}

// ListActive retrieves every active student of a teacher ordered by name
func (r *StudentRepository) ListActive(ctx context.Context, teacherID string) ([]models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"teacherId": teacherID, "isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}

	students := make([]models.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, *d.model())
	}
	return students, nil
}

// SetGroups stores a canonical group set and primary group
func (r *StudentRepository) SetGroups(ctx context.Context, teacherID, studentID string, groups []string, primary string) error {
	update := bson.M{"$set": bson.M{"groups": groups, "primaryGroup": primary, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, activeStudent(teacherID, studentID), update, "failed to update student groups")
}

// ReplaceGroups writes to only while the stored groups and primary group still equal from.
// It reports false when the document changed since it was read, or is gone.
func (r *StudentRepository) ReplaceGroups(ctx context.Context, teacherID, studentID string, from, to models.GroupAssignment) (bool, error) {
	filter := activeStudent(teacherID, studentID)
	if len(from.Groups) == 0 {
		filter["groups"] = bson.M{"$in": bson.A{nil, bson.A{}}}
	} else {
		filter["groups"] = from.Groups
	}
	if from.Primary == "" {
		filter["primaryGroup"] = bson.M{"$in": bson.A{nil, ""}}
	} else {
		filter["primaryGroup"] = from.Primary
	}

	update := bson.M{"$set": bson.M{"groups": to.Groups, "primaryGroup": to.Primary, "updatedAt": time.Now().UTC()}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to replace student groups: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// Update applies the non-nil fields of upd
func (r *StudentRepository) Update(ctx context.Context, teacherID, studentID string, upd models.StudentUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.SkillsCompleted != nil {
		set["skillsCompleted"] = *upd.SkillsCompleted
	}
	if upd.TotalSkills != nil {
		set["totalSkills"] = *upd.TotalSkills
	}
	return r.updateOne(ctx, activeStudent(teacherID, studentID), bson.M{"$set": set}, "failed to update student")
}

// Deactivate soft-deletes a student
func (r *StudentRepository) Deactivate(ctx context.Context, teacherID, studentID string) error {
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, activeStudent(teacherID, studentID), update, "failed to deactivate student")
}

// AddTokens atomically increments the balance and returns the new value
func (r *StudentRepository) AddTokens(ctx context.Context, teacherID, studentID string, amount int) (int, error) {
	update := bson.M{
		"$inc": bson.M{"tokens": amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	doc, err := r.findAndUpdate(ctx, activeStudent(teacherID, studentID), update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add tokens: %w", err)
	}
	return doc.Tokens, nil
}

// Purchase decrements the balance and appends the purchase in one conditional update
func (r *StudentRepository) Purchase(ctx context.Context, teacherID, studentID string, p models.Purchase) (int, error) {
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now().UTC()
	}

	filter := activeStudent(teacherID, studentID)
	filter["tokens"] = bson.M{"$gte": p.Cost}
	update := bson.M{
		"$inc":  bson.M{"tokens": -p.Cost},
		"$push": bson.M{"purchases": purchaseDoc{Item: p.Item, Cost: p.Cost, PurchasedAt: p.PurchasedAt}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	doc, err := r.findAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := r.coll.CountDocuments(ctx, activeStudent(teacherID, studentID))
		if countErr != nil {
			return 0, fmt.Errorf("failed to check student: %w", countErr)
		}
		if count == 0 {
			return 0, repository.ErrNotFound
		}
		return 0, repository.ErrInsufficientTokens
	}
	if err != nil {
		return 0, fmt.Errorf("failed to spend tokens: %w", err)
	}
	return doc.Tokens, nil
}

func (r *StudentRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*studentDoc, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc studentDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *StudentRepository) updateOne(ctx context.Context, filter, update bson.M, failure string) error {
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("%s: %w", failure, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
