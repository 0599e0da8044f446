package catalog

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/hermes-backend/internal/data/dberr"
	"github.com/yungbote/hermes-backend/internal/domain/catalog"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const table = "discipline"

type DisciplineRepo interface {
	Search(dbc dbctx.Context, query string, limit int) ([]*catalog.Discipline, error)
	Browse(dbc dbctx.Context, path []string) ([]catalog.BrowseNode, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Discipline, error)
	GetBySlug(dbc dbctx.Context, slug string) (*catalog.Discipline, error)
	Upsert(dbc dbctx.Context, rows []*catalog.Discipline) (int64, error)
	Count(dbc dbctx.Context) (int64, error)
}

type disciplineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDisciplineRepo(db *gorm.DB, baseLog *logger.Logger) DisciplineRepo {
	return &disciplineRepo{
		db:  db,
		log: baseLog.With("repo", "DisciplineRepo"),
	}
}

// Search returns candidates whose levels or description contain query,
// ordered exact, prefix, level substring, description only, then by depth.
// Final ranking happens in the caller.
func (r *disciplineRepo) Search(dbc dbctx.Context, query string, limit int) ([]*catalog.Discipline, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*catalog.Discipline{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	escaped := escapeLike(q)
	contains := "%" + escaped + "%"
	prefix := escaped + "%"

	match := sq.Or{}
	exactConds := make([]string, 0, catalog.MaxLevels)
	prefixConds := make([]string, 0, catalog.MaxLevels)
	containsConds := make([]string, 0, catalog.MaxLevels)
	depthTerms := make([]string, 0, catalog.MaxLevels)
	var exactArgs, prefixArgs, containsArgs []interface{}
	for _, col := range catalog.LevelColumns {
		match = append(match, sq.Expr("LOWER("+col+") LIKE ? ESCAPE '\\'", contains))
		exactConds = append(exactConds, "LOWER("+col+") = ?")
		exactArgs = append(exactArgs, q)
		prefixConds = append(prefixConds, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		prefixArgs = append(prefixArgs, prefix)
		containsConds = append(containsConds, "LOWER("+col+") LIKE ? ESCAPE '\\'")
		containsArgs = append(containsArgs, contains)
		depthTerms = append(depthTerms, "CASE WHEN "+col+" IS NOT NULL THEN 1 ELSE 0 END")
	}
	match = append(match, sq.Expr("LOWER(description) LIKE ? ESCAPE '\\'", contains))

	// Buckets line up with the ranker's scores: exact, prefix, level
	// substring, description only. Shallower rows first within a bucket.
	rank := "CASE WHEN " + strings.Join(exactConds, " OR ") +
		" THEN 0 WHEN " + strings.Join(prefixConds, " OR ") +
		" THEN 1 WHEN " + strings.Join(containsConds, " OR ") +
		" THEN 2 ELSE 3 END"
	rankArgs := append(append(exactArgs, prefixArgs...), containsArgs...)
	depth := "(" + strings.Join(depthTerms, " + ") + ")"

	stmt, args, err := sq.Select("*").
		From(table).
		Where(match).
		OrderByClause(rank, rankArgs...).
		OrderBy(depth).
		OrderBy(catalog.LevelColumns[:]...).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var out []*catalog.Discipline
	if err := dbc.DB(r.db).Raw(stmt, args...).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type browseRow struct {
	Name  string
	Count int64
}

type exactRow struct {
	ID   uuid.UUID
	Name string
}

func (r *disciplineRepo) Browse(dbc dbctx.Context, path []string) ([]catalog.BrowseNode, error) {
	k := len(path)
	if k >= catalog.MaxLevels {
		return []catalog.BrowseNode{}, nil
	}
	col := catalog.LevelColumns[k]
	// Count is the rows strictly below the node; the node's own row is excluded.
	below := "0"
	var next string
	if k+1 < catalog.MaxLevels {
		next = catalog.LevelColumns[k+1]
		below = "SUM(CASE WHEN " + next + " IS NOT NULL THEN 1 ELSE 0 END)"
	}

	prefix := sq.And{sq.NotEq{col: nil}}
	for i, seg := range path {
		prefix = append(prefix, sq.Eq{catalog.LevelColumns[i]: seg})
	}

	stmt, args, err := sq.Select(col+" AS name", below+" AS count").
		From(table).
		Where(prefix).
		GroupBy(col).
		OrderBy(col).
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []browseRow
	if err := dbc.DB(r.db).Raw(stmt, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	// Rows whose path ends exactly at the child carry the discipline id.
	ids := map[string]uuid.UUID{}
	exact := sq.Select("id", col+" AS name").From(table).Where(prefix)
	if next != "" {
		exact = exact.Where(sq.Eq{next: nil})
	}
	stmt, args, err = exact.ToSql()
	if err != nil {
		return nil, err
	}
	var exactRows []exactRow
	if err := dbc.DB(r.db).Raw(stmt, args...).Scan(&exactRows).Error; err != nil {
		return nil, err
	}
	for _, er := range exactRows {
		ids[er.Name] = er.ID
	}

	out := make([]catalog.BrowseNode, 0, len(rows))
	for _, row := range rows {
		nodePath := append(append([]string{}, path...), row.Name)
		node := catalog.BrowseNode{
			Level: k + 1,
			Name:  row.Name,
			Path:  nodePath,
			Count: row.Count,
			Leaf:  row.Count == 0,
		}
		if id, ok := ids[row.Name]; ok {
			id := id
			node.Discipline = &id
		}
		out = append(out, node)
	}
	return out, nil
}

func (r *disciplineRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Discipline, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var d catalog.Discipline
	err := dbc.DB(r.db).Where("id = ?", id).First(&d).Error
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *disciplineRepo) GetBySlug(dbc dbctx.Context, slug string) (*catalog.Discipline, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var d catalog.Discipline
	err := dbc.DB(r.db).Where("slug = ?", slug).First(&d).Error
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Upsert inserts rows or refreshes the existing row with the same slug.
func (r *disciplineRepo) Upsert(dbc dbctx.Context, rows []*catalog.Discipline) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, d := range rows {
		d.Normalize()
		if err := d.Validate(); err != nil {
			return 0, err
		}
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.CreatedAt = now
		d.UpdatedAt = now
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"l1", "l2", "l3", "l4", "l5", "l6", "description", "updated_at"}),
		}).
		CreateInBatches(rows, 200)
	if res.Error != nil {
		r.log.Error("discipline upsert failed", "error", res.Error, "rows", len(rows))
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *disciplineRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&catalog.Discipline{}).Count(&n).Error
	return n, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
