package mongostore

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"

	"go.mongodb.org/mongo-driver/bson"
)

type categoryRepo struct {
	s *Store
}

func (r categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	cur, err := r.s.col(categoriesCollection).Find(ctx, bson.M{}, sortBy("_id", 1))
	if err != nil {
		return nil, err
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// known loads every category keyed by code, for resolving game memberships.
func (r categoryRepo) known(ctx context.Context) (map[int]models.Category, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]models.Category, len(list))
	for _, c := range list {
		out[c.Code] = c
	}
	return out, nil
}

func (r categoryRepo) findOne(ctx context.Context, filter bson.M) (models.Category, error) {
	var doc categoryDoc
	if err := r.s.col(categoriesCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.Category{}, translate(err)
	}
	return doc.model(), nil
}

func (r categoryRepo) Get(ctx context.Context, code int) (models.Category, error) {
	return r.findOne(ctx, bson.M{"_id": code})
}

func (r categoryRepo) GetBySlug(ctx context.Context, slug string) (models.Category, error) {
	cur, err := r.s.col(categoriesCollection).Find(ctx, bson.M{"slug": slug}, sortBy("_id", 1).SetLimit(1))
	if err != nil {
		return models.Category{}, err
	}
	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return models.Category{}, err
	}
	if len(docs) == 0 {
		return models.Category{}, store.ErrNotFound
	}
	return docs[0].model(), nil
}

func (r categoryRepo) Create(ctx context.Context, c *models.Category) error {
	if c.Code == 0 {
		floor, err := r.s.maxInt(ctx, categoriesCollection, "_id", nil)
		if err != nil {
			return err
		}
		if c.Code, err = r.s.nextValue(ctx, store.SeqCategories, floor); err != nil {
			return err
		}
	}
	models.CategoryPatch{}.Apply(c)
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	_, err := r.s.col(categoriesCollection).InsertOne(ctx, fromCategory(*c))
	return translate(err)
}

func (r categoryRepo) Update(ctx context.Context, code int, patch models.CategoryPatch) (models.Category, error) {
	c, err := r.Get(ctx, code)
	if err != nil {
		return c, err
	}
	patch.Apply(&c)
	c.UpdatedAt = now()
	_, err = r.s.col(categoriesCollection).ReplaceOne(ctx, bson.M{"_id": code}, fromCategory(c))
	return c, translate(err)
}

func (r categoryRepo) Upsert(ctx context.Context, code int, patch models.CategoryPatch) (models.Category, bool, error) {
	c, err := r.Update(ctx, code, patch)
	if !errors.Is(err, store.ErrNotFound) {
		return c, false, err
	}
	c = models.NewCategory(code, patch)
	if err := r.Create(ctx, &c); err != nil {
		return c, false, err
	}
	return c, true, nil
}

func (r categoryRepo) Delete(ctx context.Context, code int) error {
	res, err := r.s.col(categoriesCollection).DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	if _, err := r.s.col(gamesCollection).UpdateMany(ctx,
		bson.M{"categories": code},
		bson.M{"$pull": bson.M{"categories": code}},
	); err != nil {
		return err
	}
	_, err = r.s.col(rankingsCollection).DeleteMany(ctx, bson.M{"category_code": code})
	return err
}

type gameRepo struct {
	s *Store
}

// gameQuery builds the Mongo filter for f. Selections within a dimension use
// $in; dimensions are combined with an implicit AND.
func gameQuery(f models.GameFilter) bson.M {
	filter := bson.M{}
	if len(f.CategoryCodes) > 0 {
		filter["categories"] = bson.M{"$in": f.CategoryCodes}
	}
	if len(f.Platforms) > 0 {
		filter["platforms"] = bson.M{"$in": f.Platforms}
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	return filter
}

func (r gameRepo) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	known, err := categoryRepo(r).known(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := r.s.col(gamesCollection).Find(ctx, gameQuery(filter), sortBy("_id", 1))
	if err != nil {
		return nil, err
	}
	var docs []gameDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Game, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model(known))
	}
	return out, nil
}

func (r gameRepo) findOne(ctx context.Context, filter bson.M) (models.Game, error) {
	cur, err := r.s.col(gamesCollection).Find(ctx, filter, sortBy("_id", 1).SetLimit(1))
	if err != nil {
		return models.Game{}, err
	}
	var docs []gameDoc
	if err := cur.All(ctx, &docs); err != nil {
		return models.Game{}, err
	}
	if len(docs) == 0 {
		return models.Game{}, store.ErrNotFound
	}
	known, err := categoryRepo(r).known(ctx)
	if err != nil {
		return models.Game{}, err
	}
	return docs[0].model(known), nil
}

func (r gameRepo) Get(ctx context.Context, code int) (models.Game, error) {
	return r.findOne(ctx, bson.M{"_id": code})
}

func (r gameRepo) GetBySlug(ctx context.Context, slug string) (models.Game, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r gameRepo) Platforms(ctx context.Context) ([]string, error) {
	values, err := r.s.col(gamesCollection).Distinct(ctx, "platforms", bson.M{})
	if err != nil {
		return nil, err
	}
	platforms := []string{}
	for _, v := range values {
		if p, ok := v.(string); ok && p != "" {
			platforms = append(platforms, p)
		}
	}
	sort.Strings(platforms)
	return platforms, nil
}

// applyCategories resolves the patch's category codes, dropping unknown ones.
func (r gameRepo) applyCategories(ctx context.Context, patch models.GamePatch, g *models.Game) error {
	if patch.Categories == nil {
		return nil
	}
	known, err := categoryRepo(r).known(ctx)
	if err != nil {
		return err
	}
	g.Categories = resolveCategories(*patch.Categories, known)
	return nil
}

func (r gameRepo) Create(ctx context.Context, code int, patch models.GamePatch) (models.Game, error) {
	if code == 0 {
		floor, err := r.s.maxInt(ctx, gamesCollection, "_id", nil)
		if err != nil {
			return models.Game{}, err
		}
		if code, err = r.s.nextValue(ctx, store.SeqGames, floor); err != nil {
			return models.Game{}, err
		}
	}
	g := models.Game{Code: code, Categories: []*models.Category{}}
	patch.Apply(&g)
	if err := r.applyCategories(ctx, patch, &g); err != nil {
		return g, err
	}
	g.CreatedAt = now()
	g.UpdatedAt = g.CreatedAt
	_, err := r.s.col(gamesCollection).InsertOne(ctx, fromGame(g))
	return g, translate(err)
}

func (r gameRepo) Update(ctx context.Context, code int, patch models.GamePatch) (models.Game, error) {
	g, err := r.Get(ctx, code)
	if err != nil {
		return g, err
	}
	patch.Apply(&g)
	if err := r.applyCategories(ctx, patch, &g); err != nil {
		return g, err
	}
	g.UpdatedAt = now()
	_, err = r.s.col(gamesCollection).ReplaceOne(ctx, bson.M{"_id": code}, fromGame(g))
	return g, translate(err)
}

func (r gameRepo) Upsert(ctx context.Context, code int, patch models.GamePatch) (models.Game, bool, error) {
	g, err := r.Update(ctx, code, patch)
	if !errors.Is(err, store.ErrNotFound) {
		return g, false, err
	}
	g, err = r.Create(ctx, code, patch)
	if err != nil {
		return g, false, err
	}
	return g, true, nil
}

func (r gameRepo) Delete(ctx context.Context, code int) error {
	res, err := r.s.col(gamesCollection).DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	_, err = r.s.col(reviewsCollection).DeleteMany(ctx, bson.M{"game_code": code})
	return err
}
