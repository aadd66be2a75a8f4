package store

import (
	"context"
	"errors"
	"strings"

	"github.com/catalogue-registry/registry/src/catalogue"
	"github.com/catalogue-registry/registry/src/utils/logger"
	"github.com/catalogue-registry/registry/src/utils/model"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Keywords match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Postgres keeps bundles of one namespace in the bundles table
type Postgres struct {
	db        *gorm.DB
	namespace Namespace
	log       *logrus.Entry
}

func NewPostgres(db *gorm.DB, namespace Namespace) (self *Postgres) {
	self = new(Postgres)
	self.db = db
	self.namespace = namespace
	self.log = logger.NewSublogger("store-" + string(namespace))
	return
}

func (self *Postgres) byKey(ctx context.Context, t catalogue.EntityType, id, catalogueId string) *gorm.DB {
	return self.db.WithContext(ctx).
		Where("namespace = ? AND resource_type = ? AND catalogue_id = ? AND id = ?", string(self.namespace), string(t), catalogueId, id)
}

func (self *Postgres) Get(ctx context.Context, t catalogue.EntityType, id, catalogueId string) (out *catalogue.Bundle, err error) {
	var row model.BundleRow
	err = self.byKey(ctx, t, id, catalogueId).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalogue.NotFound("%s %s in catalogue %s", t, id, catalogueId)
	}
	if err != nil {
		return
	}
	return row.Bundle()
}

func (self *Postgres) Upsert(ctx context.Context, bundle *catalogue.Bundle) (err error) {
	if bundle == nil || bundle.Payload == nil {
		return catalogue.Validation("bundle without payload")
	}

	row, err := model.NewBundleRow(string(self.namespace), bundle)
	if err != nil {
		return
	}

	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "namespace"}, {Name: "resource_type"}, {Name: "catalogue_id"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "active", "published", "payload", "fields", "search_text", "updated_at",
			}),
		}).
		Create(row).
		Error
}

func (self *Postgres) Delete(ctx context.Context, t catalogue.EntityType, id, catalogueId string) error {
	result := self.byKey(ctx, t, id, catalogueId).Delete(&model.BundleRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalogue.NotFound("%s %s in catalogue %s", t, id, catalogueId)
	}
	return nil
}

func (self *Postgres) filtered(ctx context.Context, filter *FacetFilter) *gorm.DB {
	query := self.db.WithContext(ctx).
		Model(&model.BundleRow{}).
		Where("namespace = ?", string(self.namespace))

	if len(filter.ResourceTypes) > 0 {
		types := make([]string, len(filter.ResourceTypes))
		for i, t := range filter.ResourceTypes {
			types[i] = string(t)
		}
		query = query.Where("resource_type IN ?", types)
	}

	if filter.Keyword != "" {
		query = query.Where(`search_text LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(filter.Keyword))+"%")
	}

	for _, f := range filter.filters {
		// pq.StringArray is bound as a single text[] parameter
		query = query.Where("jsonb_exists_any(fields -> ?, ?::text[])", f.Key, pq.StringArray(f.Values))
	}
	return query
}

func (self *Postgres) order(filter *FacetFilter) clause.OrderBy {
	field := filter.OrderBy.Field
	if field == "" {
		field = string(catalogue.FieldName)
	}
	direction := "ASC"
	if filter.OrderBy.Desc {
		direction = "DESC"
	}
	return clause.OrderBy{
		Expression: clause.Expr{
			SQL:  "fields -> ? ->> 0 " + direction + ", resource_type, catalogue_id, id",
			Vars: []interface{}{field},
		},
	}
}

type facetRow struct {
	Field string
	Value string
	Count int
}

func (self *Postgres) Query(ctx context.Context, filter *FacetFilter) (out *Paging, err error) {
	if filter == nil {
		filter = NewFacetFilter()
	}

	var total int64
	err = self.filtered(ctx, filter).Count(&total).Error
	if err != nil {
		return
	}

	from := max(filter.From, 0)
	out = &Paging{
		Total:   int(total),
		From:    from,
		Results: []*catalogue.Bundle{},
	}

	if filter.Quantity > 0 {
		var rows []model.BundleRow
		err = self.filtered(ctx, filter).
			Order(self.order(filter)).
			Offset(from).
			Limit(filter.Quantity).
			Find(&rows).
			Error
		if err != nil {
			return
		}

		for i := range rows {
			var bundle *catalogue.Bundle
			bundle, err = rows[i].Bundle()
			if err != nil {
				return
			}
			out.Results = append(out.Results, bundle)
		}
	}
	out.To = out.From + len(out.Results)

	out.Facets, err = self.facets(ctx, filter)
	return
}

func (self *Postgres) facets(ctx context.Context, filter *FacetFilter) (out []Facet, err error) {
	out = make([]Facet, 0, len(filter.BrowseBy))
	if len(filter.BrowseBy) == 0 {
		return
	}

	var rows []facetRow
	err = self.db.WithContext(ctx).
		Raw(`SELECT f.key AS field, v.value AS value, COUNT(DISTINCT b.resource_type || '/' || b.catalogue_id || '/' || b.id) AS count
			FROM (?) AS b
			CROSS JOIN LATERAL jsonb_each(b.fields) AS f(key, value)
			CROSS JOIN LATERAL jsonb_array_elements_text(f.value) AS v(value)
			WHERE f.key IN ?
			GROUP BY f.key, v.value`,
			self.filtered(ctx, filter).Select("resource_type, catalogue_id, id, fields"),
			filter.BrowseBy,
		).
		Scan(&rows).
		Error
	if err != nil {
		return
	}

	counts := make(map[string]map[string]int, len(filter.BrowseBy))
	for _, row := range rows {
		if counts[row.Field] == nil {
			counts[row.Field] = make(map[string]int)
		}
		counts[row.Field][row.Value] = row.Count
	}

	for _, field := range filter.BrowseBy {
		out = append(out, Facet{Field: field, Values: sortedValues(counts[field])})
	}
	return
}
