package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/models"
	"resourceroom/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sessionDoc struct {
	ID               string    `bson:"_id"`
	StudentID        string    `bson:"studentId"`
	TeacherID        string    `bson:"teacherId"`
	Day              string    `bson:"day"`
	SubjectsAttended []string  `bson:"subjectsAttended"`
	TokensEarned     int       `bson:"tokensEarned"`
	Present          bool      `bson:"present"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

func (d sessionDoc) model(loc *time.Location) (*models.DailySession, error) {
	day, err := calendar.ParseKey(d.Day, loc)
	if err != nil {
		return nil, err
	}
	return &models.DailySession{
		ID:               d.ID,
		StudentID:        d.StudentID,
		TeacherID:        d.TeacherID,
		Day:              day,
		SubjectsAttended: d.SubjectsAttended,
		TokensEarned:     d.TokensEarned,
		Present:          d.Present,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

// SessionRepository stores daily attendance sessions in MongoDB
type SessionRepository struct {
	coll *mongo.Collection
	loc  *time.Location
}

// NewSessionRepository creates a session repository on store
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{coll: store.collection(sessionsCollection), loc: store.loc}
}

// GetForDay retrieves a student's session for day
func (r *SessionRepository) GetForDay(ctx context.Context, teacherID, studentID string, day time.Time) (*models.DailySession, error) {
	filter := bson.M{"studentId": studentID, "teacherId": teacherID, "day": calendar.Key(day, r.loc)}
	var doc sessionDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return doc.model(r.loc)
}

// ListForDay retrieves every session of a teacher's students for day
func (r *SessionRepository) ListForDay(ctx context.Context, teacherID string, day time.Time) ([]models.DailySession, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"teacherId": teacherID, "day": calendar.Key(day, r.loc)})
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []sessionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	sessions := make([]models.DailySession, 0, len(docs))
	for _, d := range docs {
		s, err := d.model(r.loc)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

// RecordCheckIn adds group to the day's session with one token in a single update,
// creating the session on first use. The filter only matches while group is absent,
// so a repeat either matches nothing or collides with the (student, day) index.
func (r *SessionRepository) RecordCheckIn(ctx context.Context, teacherID, studentID string, day time.Time, group string) (*models.DailySession, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"studentId":        studentID,
		"teacherId":        teacherID,
		"day":              calendar.Key(day, r.loc),
		"subjectsAttended": bson.M{"$ne": group},
	}
	update := bson.M{
		"$addToSet":    bson.M{"subjectsAttended": group},
		"$inc":         bson.M{"tokensEarned": 1},
		"$set":         bson.M{"present": true, "updatedAt": now},
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "createdAt": now},
	}

	doc, err := r.checkIn(ctx, filter, update, true)
	if mongo.IsDuplicateKeyError(err) {
		// Either the subject is already recorded or another request created the session first
		doc, err = r.checkIn(ctx, filter, update, false)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrAlreadyAttended
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	return doc.model(r.loc)
}

func (r *SessionRepository) checkIn(ctx context.Context, filter, update bson.M, upsert bool) (*sessionDoc, error) {
	opts := options.FindOneAndUpdate().SetUpsert(upsert).SetReturnDocument(options.After)
	var doc sessionDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// AddBonus adds amount to the day's session when one exists and reports whether it did
func (r *SessionRepository) AddBonus(ctx context.Context, teacherID, studentID string, day time.Time, amount int) (bool, error) {
	filter := bson.M{"studentId": studentID, "teacherId": teacherID, "day": calendar.Key(day, r.loc)}
	update := bson.M{
		"$inc": bson.M{"tokensEarned": amount},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to add bonus to session: %w", err)
	}
	return result.MatchedCount > 0, nil
}
