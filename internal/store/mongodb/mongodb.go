// Package mongodb is the MongoDB quiz.Store. Quizzes embed their questions,
// so question edits are single-document $push and $pull updates.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/myquiz/backend/internal/quiz"
)

const (
	quizzesCollection = "quizzes"
	scoresCollection  = "scores"
	adminCollection   = "admin"
)

type Store struct {
	client  *mongo.Client
	quizzes *mongo.Collection
	scores  *mongo.Collection
	admin   *mongo.Collection
}

var _ quiz.Store = (*Store)(nil)

// New binds the store to database name on client and ensures its indexes.
func New(ctx context.Context, client *mongo.Client, name string) (*Store, error) {
	db := client.Database(name)
	s := &Store{
		client:  client,
		quizzes: db.Collection(quizzesCollection),
		scores:  db.Collection(scoresCollection),
		admin:   db.Collection(adminCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	if err := s.backfillEmailKeys(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// backfillEmailKeys derives emailKey for score documents written without
// one, so lookups by email find them.
func (s *Store) backfillEmailKeys(ctx context.Context) error {
	filter := bson.M{
		"emailKey": bson.M{"$exists": false},
		"email":    bson.M{"$type": "string"},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "emailKey", Value: bson.D{{Key: "$toLower", Value: bson.D{
				{Key: "$trim", Value: bson.D{{Key: "input", Value: "$email"}}},
			}}}},
		}}},
	}
	if _, err := s.scores.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("backfilling score email keys: %w", err)
	}
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.scores.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "emailKey", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("creating score indexes: %w", err)
	}
	_, err = s.quizzes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating quiz indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type questionDoc struct {
	ID        string    `bson:"id"`
	Text      string    `bson:"text"`
	Type      string    `bson:"type"`
	Choices   []string  `bson:"choices,omitempty"`
	Correct   any       `bson:"correct"`
	CreatedAt time.Time `bson:"createdAt"`
}

type quizDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Questions   []questionDoc `bson:"questions"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

type summaryDoc struct {
	ID            bson.ObjectID `bson:"_id"`
	Title         string        `bson:"title"`
	Description   string        `bson:"description"`
	QuestionCount int           `bson:"questionCount"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt"`
}

type scoreDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	EmailKey  string        `bson:"emailKey"`
	QuizID    string        `bson:"quizId"`
	QuizTitle string        `bson:"quizTitle"`
	Score     int           `bson:"score"`
	Total     int           `bson:"total"`
	Date      time.Time     `bson:"date"`
}

type adminDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func toQuestionDocs(qs []quiz.Question) []questionDoc {
	out := make([]questionDoc, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionDoc{
			ID:        q.ID,
			Text:      q.Text,
			Type:      string(q.Type),
			Choices:   q.Choices,
			Correct:   q.Correct.Value(),
			CreatedAt: q.CreatedAt,
		})
	}
	return out
}

func (d quizDoc) toQuiz() (quiz.Quiz, error) {
	q := quiz.Quiz{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Questions:   make([]quiz.Question, 0, len(d.Questions)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, qd := range d.Questions {
		correct, err := quiz.AnswerFromValue(qd.Correct)
		if err != nil {
			return quiz.Quiz{}, fmt.Errorf("quiz %s question %s: %w", q.ID, qd.ID, err)
		}
		q.Questions = append(q.Questions, quiz.Question{
			ID:        qd.ID,
			Text:      qd.Text,
			Type:      quiz.QuestionType(qd.Type),
			Choices:   qd.Choices,
			Correct:   correct,
			CreatedAt: qd.CreatedAt,
		})
	}
	return q, nil
}

// objectID parses a quiz id. Malformed ids cannot match any document.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, quiz.ErrNotFound
	}
	return oid, nil
}

// Admin credential

func (s *Store) AdminCredential(ctx context.Context) (quiz.AdminCredential, error) {
	var doc adminDoc
	err := s.admin.FindOne(ctx, bson.M{"_id": quiz.AdminCredentialID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return quiz.AdminCredential{}, quiz.ErrNotFound
	}
	if err != nil {
		return quiz.AdminCredential{}, err
	}
	return quiz.AdminCredential{
		Email:     doc.Email,
		Password:  quiz.DecodePassword(doc.Password),
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) SaveAdminCredential(ctx context.Context, cred quiz.AdminCredential) error {
	_, err := s.admin.UpdateOne(ctx,
		bson.M{"_id": quiz.AdminCredentialID},
		bson.M{"$set": bson.M{
			"email":     cred.Email,
			"password":  cred.Password.Encode(),
			"updatedAt": cred.UpdatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	return err
}

// Quizzes

func (s *Store) ListQuizzes(ctx context.Context) ([]quiz.QuizSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1},
			{Key: "description", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "updatedAt", Value: 1},
			{Key: "questionCount", Value: bson.D{{Key: "$size", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$questions", bson.A{}}},
			}}}},
		}}},
	}
	cur, err := s.quizzes.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []summaryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]quiz.QuizSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, quiz.QuizSummary{
			ID:            d.ID.Hex(),
			Title:         d.Title,
			Description:   d.Description,
			QuestionCount: d.QuestionCount,
			CreatedAt:     d.CreatedAt,
			UpdatedAt:     d.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	oid, err := objectID(id)
	if err != nil {
		return quiz.Quiz{}, err
	}
	var doc quizDoc
	err = s.quizzes.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	if err != nil {
		return quiz.Quiz{}, err
	}
	return doc.toQuiz()
}

func (s *Store) InsertQuiz(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	doc := quizDoc{
		ID:          bson.NewObjectID(),
		Title:       q.Title,
		Description: q.Description,
		Questions:   toQuestionDocs(q.Questions),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
	if _, err := s.quizzes.InsertOne(ctx, doc); err != nil {
		return quiz.Quiz{}, err
	}
	return doc.toQuiz()
}

func (s *Store) ReplaceQuiz(ctx context.Context, q quiz.Quiz) error {
	oid, err := objectID(q.ID)
	if err != nil {
		return err
	}
	res, err := s.quizzes.ReplaceOne(ctx, bson.M{"_id": oid}, quizDoc{
		ID:          oid,
		Title:       q.Title,
		Description: q.Description,
		Questions:   toQuestionDocs(q.Questions),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.quizzes.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (s *Store) PushQuestions(ctx context.Context, quizID string, qs []quiz.Question, updatedAt time.Time) error {
	oid, err := objectID(quizID)
	if err != nil {
		return err
	}
	res, err := s.quizzes.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$push": bson.M{"questions": bson.M{"$each": toQuestionDocs(qs)}},
			"$set":  bson.M{"updatedAt": updatedAt},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

func (s *Store) PullQuestion(ctx context.Context, quizID, questionID string, updatedAt time.Time) error {
	oid, err := objectID(quizID)
	if err != nil {
		return err
	}
	res, err := s.quizzes.UpdateOne(ctx,
		bson.M{"_id": oid, "questions.id": questionID},
		bson.M{
			"$pull": bson.M{"questions": bson.M{"id": questionID}},
			"$set":  bson.M{"updatedAt": updatedAt},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return quiz.ErrNotFound
	}
	return nil
}

// Scores

func (s *Store) InsertScore(ctx context.Context, sc quiz.Score) (quiz.Score, error) {
	doc := scoreDoc{
		ID:        bson.NewObjectID(),
		Email:     sc.Email,
		EmailKey:  emailKey(sc.Email),
		QuizID:    sc.QuizID,
		QuizTitle: sc.QuizTitle,
		Score:     sc.Score,
		Total:     sc.Total,
		Date:      sc.Date,
	}
	if _, err := s.scores.InsertOne(ctx, doc); err != nil {
		return quiz.Score{}, err
	}
	sc.ID = doc.ID.Hex()
	return sc, nil
}

func (s *Store) ListScores(ctx context.Context) ([]quiz.Score, error) {
	return s.findScores(ctx, bson.M{})
}

func (s *Store) ListScoresByEmail(ctx context.Context, email string) ([]quiz.Score, error) {
	return s.findScores(ctx, bson.M{"emailKey": emailKey(email)})
}

func (s *Store) findScores(ctx context.Context, filter bson.M) ([]quiz.Score, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.scores.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []scoreDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]quiz.Score, 0, len(docs))
	for _, d := range docs {
		out = append(out, quiz.Score{
			ID:        d.ID.Hex(),
			Email:     d.Email,
			QuizID:    d.QuizID,
			QuizTitle: d.QuizTitle,
			Score:     d.Score,
			Total:     d.Total,
			Date:      d.Date,
		})
	}
	return out, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
