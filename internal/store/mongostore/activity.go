package mongostore

import (
	"context"
	"errors"
	"fmt"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewRepo struct {
	s *Store
}

func (r reviewRepo) ListByGame(ctx context.Context, gameCode int) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reviewed_at", Value: -1}, {Key: "serie", Value: -1}})
	cur, err := r.s.col(reviewsCollection).Find(ctx, bson.M{"game_code": gameCode}, opts)
	if err != nil {
		return nil, err
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r reviewRepo) Get(ctx context.Context, gameCode, serie int) (models.Review, error) {
	var doc reviewDoc
	err := r.s.col(reviewsCollection).FindOne(ctx, bson.M{"game_code": gameCode, "serie": serie}).Decode(&doc)
	if err != nil {
		return models.Review{}, translate(err)
	}
	return doc.model(), nil
}

func (r reviewRepo) Create(ctx context.Context, review *models.Review) error {
	n, err := r.s.col(reviewsCollection).CountDocuments(ctx, bson.M{"game_code": review.GameCode, "author": review.Author})
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s already reviewed game %d", store.ErrConflict, review.Author, review.GameCode)
	}

	floor, err := r.s.maxInt(ctx, reviewsCollection, "serie", bson.M{"game_code": review.GameCode})
	if err != nil {
		return err
	}
	serie, err := r.s.nextValue(ctx, store.ReviewSeq(review.GameCode), floor)
	if err != nil {
		return err
	}
	review.Serie = serie
	if review.ReviewedAt.IsZero() {
		review.ReviewedAt = now()
	}
	_, err = r.s.col(reviewsCollection).InsertOne(ctx, fromReview(*review))
	return translate(err)
}

func (r reviewRepo) Update(ctx context.Context, gameCode, serie int, patch models.ReviewPatch) (models.Review, error) {
	review, err := r.Get(ctx, gameCode, serie)
	if err != nil {
		return review, err
	}
	patch.Apply(&review)
	_, err = r.s.col(reviewsCollection).UpdateOne(ctx,
		bson.M{"game_code": gameCode, "serie": serie},
		bson.M{"$set": bson.M{"rating": review.Rating, "comment": review.Comment}},
	)
	return review, err
}

func (r reviewRepo) Delete(ctx context.Context, gameCode, serie int) error {
	res, err := r.s.col(reviewsCollection).DeleteOne(ctx, bson.M{"game_code": gameCode, "serie": serie})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r reviewRepo) Stats(ctx context.Context) (map[int]models.ReviewStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$game_code"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
	cur, err := r.s.col(reviewsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		GameCode int     `bson:"_id"`
		Count    int     `bson:"count"`
		Average  float64 `bson:"average"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	stats := make(map[int]models.ReviewStats, len(rows))
	for _, row := range rows {
		stats[row.GameCode] = models.ReviewStats{GameCode: row.GameCode, Count: row.Count, Average: row.Average}
	}
	return stats, nil
}

type rankingRepo struct {
	s *Store
}

func (r rankingRepo) list(ctx context.Context, filter bson.M, sort string) ([]models.Ranking, error) {
	cur, err := r.s.col(rankingsCollection).Find(ctx, filter, sortBy(sort, 1))
	if err != nil {
		return nil, err
	}
	var docs []rankingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Ranking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r rankingRepo) ListByCategory(ctx context.Context, categoryCode int) ([]models.Ranking, error) {
	return r.list(ctx, bson.M{"category_code": categoryCode}, "_id")
}

func (r rankingRepo) ListByAuthor(ctx context.Context, author string) ([]models.Ranking, error) {
	return r.list(ctx, bson.M{"author": author}, "category_code")
}

func (r rankingRepo) Get(ctx context.Context, author string, categoryCode int) (models.Ranking, error) {
	var doc rankingDoc
	err := r.s.col(rankingsCollection).FindOne(ctx, bson.M{"author": author, "category_code": categoryCode}).Decode(&doc)
	if err != nil {
		return models.Ranking{}, translate(err)
	}
	return doc.model(), nil
}

// Upsert overwrites the author's list for the category or creates it. A
// duplicate key on insert means a concurrent first save won, so the update
// is retried once and the later write lands.
func (r rankingRepo) Upsert(ctx context.Context, author string, categoryCode int, games []int) (models.Ranking, bool, error) {
	list := append([]int{}, games...)
	ranking, created, err := r.save(ctx, author, categoryCode, list)
	if errors.Is(err, store.ErrConflict) {
		ranking, created, err = r.save(ctx, author, categoryCode, list)
	}
	return ranking, created, err
}

func (r rankingRepo) save(ctx context.Context, author string, categoryCode int, list []int) (models.Ranking, bool, error) {
	rankedAt := now()

	var doc rankingDoc
	err := r.s.col(rankingsCollection).FindOneAndUpdate(ctx,
		bson.M{"author": author, "category_code": categoryCode},
		bson.M{"$set": bson.M{"ranked_games": list, "ranked_at": rankedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.model(), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Ranking{}, false, err
	}

	floor, err := r.s.maxInt(ctx, rankingsCollection, "_id", nil)
	if err != nil {
		return models.Ranking{}, false, err
	}
	code, err := r.s.nextValue(ctx, store.SeqRankings, floor)
	if err != nil {
		return models.Ranking{}, false, err
	}
	doc = rankingDoc{
		Code:         code,
		Author:       author,
		CategoryCode: categoryCode,
		RankedAt:     rankedAt,
		RankedGames:  list,
	}
	if _, err := r.s.col(rankingsCollection).InsertOne(ctx, doc); err != nil {
		return models.Ranking{}, false, translate(err)
	}
	return doc.model(), true, nil
}

func (r rankingRepo) Delete(ctx context.Context, author string, categoryCode int) error {
	res, err := r.s.col(rankingsCollection).DeleteOne(ctx, bson.M{"author": author, "category_code": categoryCode})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r rankingRepo) CountByCategory(ctx context.Context) (map[int]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category_code"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.s.col(rankingsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		CategoryCode int `bson:"_id"`
		Count        int `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.CategoryCode] = row.Count
	}
	return counts, nil
}

type userRepo struct {
	s *Store
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleClient
	}
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	_, err := r.s.col(usersCollection).InsertOne(ctx, fromUser(*u))
	return translate(err)
}

func (r userRepo) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDoc
	if err := r.s.col(usersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.User{}, translate(err)
	}
	return doc.model(), nil
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": username})
}

func (r userRepo) GetByLogin(ctx context.Context, login string) (models.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{bson.M{"_id": login}, bson.M{"email": login}}})
}

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	cur, err := r.s.col(usersCollection).Find(ctx, bson.M{}, sortBy("created_at", -1))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r userRepo) Update(ctx context.Context, username string, patch models.UserPatch) (models.User, error) {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return u, err
	}
	patch.Apply(&u)
	u.UpdatedAt = now()
	_, err = r.s.col(usersCollection).UpdateOne(ctx,
		bson.M{"_id": username},
		bson.M{"$set": bson.M{"role": string(u.Role), "is_staff": u.IsStaff, "updated_at": u.UpdatedAt}},
	)
	return u, err
}

func (r userRepo) Delete(ctx context.Context, username string) error {
	res, err := r.s.col(usersCollection).DeleteOne(ctx, bson.M{"_id": username})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
