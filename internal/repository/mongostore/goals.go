package mongostore

import (
	"context"
	"fmt"
	"time"

	"resourceroom/internal/calendar"
	"resourceroom/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type goalDoc struct {
	ID        string    `bson:"_id"`
	TeacherID string    `bson:"teacherId"`
	Group     string    `bson:"group"`
	Topic     string    `bson:"topic"`
	Goal      string    `bson:"goal"`
	Icon      string    `bson:"icon"`
	WeekOf    string    `bson:"weekOf"`
	IsActive  bool      `bson:"isActive"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// GoalRepository stores weekly goals in MongoDB
type GoalRepository struct {
	coll *mongo.Collection
	loc  *time.Location
}

// NewGoalRepository creates a goal repository on store
func NewGoalRepository(store *Store) *GoalRepository {
	return &GoalRepository{coll: store.collection(goalsCollection), loc: store.loc}
}

// ListActive retrieves the active goals of a teacher for the week starting at weekOf
func (r *GoalRepository) ListActive(ctx context.Context, teacherID string, weekOf time.Time) ([]models.WeeklyGoal, error) {
	filter := bson.M{"teacherId": teacherID, "weekOf": calendar.Key(weekOf, r.loc), "isActive": true}
	opts := options.Find().SetSort(bson.D{{Key: "group", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []goalDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}

	goals := make([]models.WeeklyGoal, 0, len(docs))
	for _, d := range docs {
		week, err := calendar.ParseKey(d.WeekOf, r.loc)
		if err != nil {
			return nil, err
		}
		goals = append(goals, models.WeeklyGoal{
			ID:        d.ID,
			TeacherID: d.TeacherID,
			Group:     d.Group,
			Topic:     d.Topic,
			Goal:      d.Goal,
			Icon:      d.Icon,
			WeekOf:    week,
			IsActive:  d.IsActive,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return goals, nil
}

// Upsert writes the single active goal for (teacher, group, week)
func (r *GoalRepository) Upsert(ctx context.Context, g *models.WeeklyGoal) error {
	filter, update := r.upsertDoc(g)
	opts := options.Update().SetUpsert(true)

	_, err := r.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert inserted first; the retry matches its document
		_, err = r.coll.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert goal: %w", err)
	}
	return nil
}

// InsertBatch upserts all goals in a single bulk write
func (r *GoalRepository) InsertBatch(ctx context.Context, goals []models.WeeklyGoal) error {
	if len(goals) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(goals))
	for i := range goals {
		filter, update := r.upsertDoc(&goals[i])
		writes = append(writes, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}
	if _, err := r.coll.BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("failed to insert goal batch: %w", err)
	}
	return nil
}

// ListWeeks returns up to limit distinct weeks with active goals, most recent first
func (r *GoalRepository) ListWeeks(ctx context.Context, teacherID string, limit int) ([]models.GoalWeek, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"teacherId": teacherID, "isActive": true}},
		{"$group": bson.M{"_id": "$weekOf", "goalCount": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": -1}},
		{"$limit": limit},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate goal weeks: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		WeekOf    string `bson:"_id"`
		GoalCount int    `bson:"goalCount"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode goal weeks: %w", err)
	}

	weeks := make([]models.GoalWeek, 0, len(rows))
	for _, row := range rows {
		week, err := calendar.ParseKey(row.WeekOf, r.loc)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, models.GoalWeek{WeekOf: week, GoalCount: row.GoalCount})
	}
	return weeks, nil
}

func (r *GoalRepository) upsertDoc(g *models.WeeklyGoal) (bson.M, bson.M) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	g.UpdatedAt = now
	g.IsActive = true

	filter := bson.M{
		"teacherId": g.TeacherID,
		"group":     g.Group,
		"weekOf":    calendar.Key(g.WeekOf, r.loc),
		"isActive":  true,
	}
	update := bson.M{
		"$set":         bson.M{"topic": g.Topic, "goal": g.Goal, "icon": g.Icon, "updatedAt": now},
		"$setOnInsert": bson.M{"_id": g.ID, "createdAt": now},
	}
	return filter, update
}
