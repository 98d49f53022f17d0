// Package mongostore implements the document-store repositories on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/fitcoach/internal/domain"
)

const (
	workoutsCollection      = "workouts"
	usersCollection         = "users"
	exercisesCollection     = "exercises"
	notificationsCollection = "notifications"
)

// Repositories bundles the per-collection repositories behind one database
// handle.
type Repositories struct {
	Workouts      *WorkoutRepository
	Users         *UserRepository
	Exercises     *ExerciseRepository
	Notifications *NotificationRepository
}

// NewRepositories constructs repositories over a database.
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Workouts:      &WorkoutRepository{coll: db.Collection(workoutsCollection)},
		Users:         &UserRepository{coll: db.Collection(usersCollection)},
		Exercises:     &ExerciseRepository{coll: db.Collection(exercisesCollection)},
		Notifications: &NotificationRepository{coll: db.Collection(notificationsCollection)},
	}
}

// EnsureIndexes creates the indexes the query paths depend on.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	_, err := r.Workouts.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return err
	}
	_, err = r.Notifications.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "delivered_at", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = r.Exercises.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "muscle_group", Value: 1}},
	})
	return err
}

// workoutDoc is the persisted shape of a workout.
type workoutDoc struct {
	ID            string               `bson:"_id"`
	UserID        string               `bson:"user_id"`
	Date          time.Time            `bson:"date"`
	Exercises     []workoutEntryDoc    `bson:"exercises"`
	TotalDuration int                  `bson:"total_duration"`
	TotalCalories float64              `bson:"total_calories"`
	Intensity     string               `bson:"intensity"`
	Notes         string               `bson:"notes,omitempty"`
	AssignedBy    string               `bson:"assigned_by,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

type workoutEntryDoc struct {
	Name     string  `bson:"name"`
	Type     string  `bson:"type"`
	Duration int     `bson:"duration,omitempty"`
	Sets     int     `bson:"sets,omitempty"`
	Reps     int     `bson:"reps,omitempty"`
	Weight   float64 `bson:"weight,omitempty"`
	Distance float64 `bson:"distance,omitempty"`
	Notes    string  `bson:"notes,omitempty"`
}

func toWorkoutDoc(w domain.Workout) workoutDoc {
	entries := make([]workoutEntryDoc, 0, len(w.Exercises))
	for _, e := range w.Exercises {
		entries = append(entries, workoutEntryDoc(e))
	}
	return workoutDoc{
		ID:            w.ID,
		UserID:        w.UserID,
		Date:          w.Date,
		Exercises:     entries,
		TotalDuration: w.TotalDuration,
		TotalCalories: w.TotalCalories,
		Intensity:     w.Intensity,
		Notes:         w.Notes,
		AssignedBy:    w.AssignedBy,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func (d workoutDoc) toDomain() domain.Workout {
	entries := make([]domain.ExerciseEntry, 0, len(d.Exercises))
	for _, e := range d.Exercises {
		entries = append(entries, domain.ExerciseEntry(e))
	}
	return domain.Workout{
		ID:            d.ID,
		UserID:        d.UserID,
		Date:          d.Date,
		Exercises:     entries,
		TotalDuration: d.TotalDuration,
		TotalCalories: d.TotalCalories,
		Intensity:     d.Intensity,
		Notes:         d.Notes,
		AssignedBy:    d.AssignedBy,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// WorkoutRepository persists workouts.
type WorkoutRepository struct {
	coll *mongo.Collection
}

func (r *WorkoutRepository) Create(ctx context.Context, workout domain.Workout) error {
	_, err := r.coll.InsertOne(ctx, toWorkoutDoc(workout))
	return err
}

func (r *WorkoutRepository) Get(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	var doc workoutDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": workoutID, "user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	workout := doc.toDomain()
	return &workout, nil
}

func (r *WorkoutRepository) Update(ctx context.Context, workout domain.Workout) error {
	result, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": workout.ID, "user_id": workout.UserID},
		toWorkoutDoc(workout),
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

func (r *WorkoutRepository) Delete(ctx context.Context, userID, workoutID string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": workoutID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

func (r *WorkoutRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Workout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeWorkouts(ctx, cursor)
}

func (r *WorkoutRepository) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]domain.Workout, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": since},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeWorkouts(ctx, cursor)
}

func decodeWorkouts(ctx context.Context, cursor *mongo.Cursor) ([]domain.Workout, error) {
	var docs []workoutDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	workouts := make([]domain.Workout, 0, len(docs))
	for _, doc := range docs {
		workouts = append(workouts, doc.toDomain())
	}
	return workouts, nil
}

// Stats runs the all-time group aggregation for a user.
func (r *WorkoutRepository) Stats(ctx context.Context, userID string) (domain.WorkoutStats, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_workouts": bson.M{"$sum": 1},
			"total_calories": bson.M{"$sum": "$total_calories"},
			"total_duration": bson.M{"$sum": "$total_duration"},
			"avg_calories":   bson.M{"$avg": "$total_calories"},
			"avg_duration":   bson.M{"$avg": "$total_duration"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.WorkoutStats{}, err
	}

	var rows []struct {
		TotalWorkouts int     `bson:"total_workouts"`
		TotalCalories float64 `bson:"total_calories"`
		TotalDuration int     `bson:"total_duration"`
		AvgCalories   float64 `bson:"avg_calories"`
		AvgDuration   float64 `bson:"avg_duration"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return domain.WorkoutStats{}, err
	}
	if len(rows) == 0 {
		return domain.WorkoutStats{}, nil
	}
	row := rows[0]
	return domain.WorkoutStats{
		TotalWorkouts: row.TotalWorkouts,
		TotalCalories: row.TotalCalories,
		TotalDuration: row.TotalDuration,
		AvgCalories:   row.AvgCalories,
		AvgDuration:   row.AvgDuration,
	}, nil
}

// userDoc is the persisted shape of an account; only core-relevant fields.
type userDoc struct {
	ID        string `bson:"_id"`
	Username  string `bson:"username"`
	Email     string `bson:"email"`
	Role      string `bson:"role"`
	TrainerID string `bson:"trainer_id,omitempty"`
	FirstName string `bson:"first_name,omitempty"`
	LastName  string `bson:"last_name,omitempty"`
}

// UserRepository persists accounts.
type UserRepository struct {
	coll *mongo.Collection
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*domain.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user := domain.User(doc)
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, userDoc(user))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListClients(ctx context.Context, trainerID string) ([]domain.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"trainer_id": trainerID},
		options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, domain.User(doc))
	}
	return users, nil
}

// exerciseDoc is the persisted shape of a catalog entry.
type exerciseDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	MuscleGroup string `bson:"muscle_group"`
	Equipment   string `bson:"equipment,omitempty"`
	Difficulty  string `bson:"difficulty,omitempty"`
	Description string `bson:"description,omitempty"`
}

// ExerciseRepository persists the exercise catalog.
type ExerciseRepository struct {
	coll *mongo.Collection
}

func (r *ExerciseRepository) List(ctx context.Context) ([]domain.Exercise, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeExercises(ctx, cursor)
}

func (r *ExerciseRepository) Get(ctx context.Context, exerciseID string) (*domain.Exercise, error) {
	var doc exerciseDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": exerciseID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	exercise := domain.Exercise(doc)
	return &exercise, nil
}

func (r *ExerciseRepository) ListByMuscleGroup(ctx context.Context, muscleGroup string) ([]domain.Exercise, error) {
	filter := bson.M{"muscle_group": bson.M{"$regex": "^" + muscleGroup + "$", "$options": "i"}}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeExercises(ctx, cursor)
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise domain.Exercise) error {
	_, err := r.coll.InsertOne(ctx, exerciseDoc(exercise))
	return err
}

func (r *ExerciseRepository) Update(ctx context.Context, exercise domain.Exercise) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": exercise.ID}, exerciseDoc(exercise))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}

func (r *ExerciseRepository) Delete(ctx context.Context, exerciseID string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": exerciseID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrExerciseNotFound
	}
	return nil
}

func decodeExercises(ctx context.Context, cursor *mongo.Cursor) ([]domain.Exercise, error) {
	var docs []exerciseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	exercises := make([]domain.Exercise, 0, len(docs))
	for _, doc := range docs {
		exercises = append(exercises, domain.Exercise(doc))
	}
	return exercises, nil
}

// notificationDoc is the persisted shape of a notification.
type notificationDoc struct {
	ID          string                 `bson:"_id"`
	UserID      string                 `bson:"user_id"`
	Type        string                 `bson:"type"`
	Title       string                 `bson:"title"`
	Message     string                 `bson:"message"`
	Metadata    map[string]interface{} `bson:"metadata,omitempty"`
	Read        bool                   `bson:"read"`
	CreatedAt   time.Time              `bson:"created_at"`
	DeliveredAt *time.Time             `bson:"delivered_at,omitempty"`
}

// NotificationRepository persists notifications; it doubles as the durable
// queue the dispatcher drains.
type NotificationRepository struct {
	coll *mongo.Collection
}

func (r *NotificationRepository) Create(ctx context.Context, notification domain.Notification) error {
	_, err := r.coll.InsertOne(ctx, notificationDoc(notification))
	return err
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, domain.Notification(doc))
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	return int(count), err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	var doc notificationDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": notificationID, "user_id": userID},
		bson.M{"$set": bson.M{"read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	notification := domain.Notification(doc)
	return &notification, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return int(result.ModifiedCount), nil
}

func (r *NotificationRepository) ClaimUndelivered(ctx context.Context, batch int) ([]domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if batch > 0 {
		opts.SetLimit(int64(batch))
	}
	cursor, err := r.coll.Find(ctx, bson.M{"delivered_at": nil}, opts)
	if err != nil {
		return nil, err
	}
	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notifications = append(notifications, domain.Notification(doc))
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkDelivered(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"delivered_at": at}},
	)
	return err
}
