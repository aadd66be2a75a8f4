package model

import (
	"encoding/json"
	"time"

	"github.com/catalogue-registry/registry/src/catalogue"

	"github.com/jackc/pgtype"
)

const TableBundle = "bundles"

// BundleRow is a bundle stored in one of the namespaces.
// Fields holds the evaluated index fields, used for filtering and facets.
type BundleRow struct {
	Namespace    string `gorm:"primaryKey"`
	ResourceType string `gorm:"primaryKey"`
	CatalogueId  string `gorm:"primaryKey"`
	Id           string `gorm:"primaryKey"`
	Status       string
	Active       bool
	Published    bool
	Payload      pgtype.JSONB
	Fields       pgtype.JSONB
	SearchText   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (BundleRow) TableName() string {
	return TableBundle
}

func NewBundleRow(namespace string, b *catalogue.Bundle) (self *BundleRow, err error) {
	self = &BundleRow{
		Namespace:    namespace,
		ResourceType: string(b.Type),
		CatalogueId:  b.CatalogueId,
		Id:           b.Id,
		Status:       b.Status,
		Active:       b.Active,
		Published:    b.Metadata.Published,
		SearchText:   catalogue.SearchText(b),
	}

	err = self.Payload.Set(b)
	if err != nil {
		return
	}

	err = self.Fields.Set(catalogue.FieldValues(b))
	return
}

func (self *BundleRow) Bundle() (out *catalogue.Bundle, err error) {
	out = new(catalogue.Bundle)
	err = json.Unmarshal(self.Payload.Bytes, out)
	return
}
