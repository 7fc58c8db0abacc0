// Package catalog declares the entities of the administrative backend and
// the relations between them.
package catalog

import (
	"github.com/marshallshelly/parcel-orm/pkg/geo"
	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/registry"
)

// Shape lifecycle states stored in shapes.status.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

// ShapeFormsTable joins shapes and forms.
const ShapeFormsTable = "shape_forms"

// ShapeColumns are the non-geometry columns of shapes.
var ShapeColumns = []string{
	"id", "name", "status", "institution_id", "category_id", "properties", "created_at", "updated_at",
}

// Catalog holds one model per table.
type Catalog struct {
	Institutions   *model.Model
	Municipalities *model.Model
	Parishes       *model.Model
	Users          *model.Model
	Categories     *model.Model
	Forms          *model.Model
	Shapes         *geo.Model
	FilledForms    *model.Model
	AuditLogs      *model.Model
}

// New builds every model and declares its relations. opts apply to all of
// them, typically model.WithLogger and model.WithConcurrency.
func New(opts ...model.Option) *Catalog {
	c := &Catalog{
		Institutions:   model.New("institutions", opts...),
		Municipalities: model.New("municipalities", opts...),
		Parishes:       model.New("parishes", opts...),
		Users:          model.New("users", opts...),
		Categories:     model.New("categories", opts...),
		Forms:          model.New("forms", opts...),
		FilledForms:    model.New("filled_forms", opts...),
		AuditLogs:      model.New("audit_logs", opts...),
		Shapes: geo.New(geo.Config{
			Table:           "shapes",
			Columns:         ShapeColumns,
			GeometryColumn:  "geom",
			UpdatedAtColumn: "updated_at",
			Filters: geo.Filters{
				InstitutionColumn:  "institution_id",
				StatusColumn:       "status",
				MunicipalityColumn: "properties",
				MunicipalityKey:    "municipality_code",
			},
		}, opts...),
	}
	shapes := c.Shapes.Base()

	c.Institutions.
		MustDefine("users", model.HasMany{Target: c.Users, ForeignKey: "institution_id"}).
		MustDefine("shapes", model.HasMany{Target: shapes, ForeignKey: "institution_id"})

	c.Municipalities.
		MustDefine("parishes", model.HasMany{Target: c.Parishes, ForeignKey: "municipality_id"})

	c.Parishes.
		MustDefine("municipality", model.BelongsTo{Target: c.Municipalities, ForeignKey: "municipality_id"})

	c.Users.
		MustDefine("institution", model.BelongsTo{Target: c.Institutions, ForeignKey: "institution_id"}).
		MustDefine("filled_forms", model.HasMany{Target: c.FilledForms, ForeignKey: "user_id"}).
		MustDefine("audit_logs", model.HasMany{Target: c.AuditLogs, ForeignKey: "user_id"})

	c.Categories.
		MustDefine("parent", model.BelongsTo{Target: c.Categories, ForeignKey: "parent_id"}).
		MustDefine("children", model.HasMany{Target: c.Categories, ForeignKey: "parent_id"}).
		MustDefine("forms", model.HasMany{Target: c.Forms, ForeignKey: "category_id"})

	c.Forms.
		MustDefine("category", model.BelongsTo{Target: c.Categories, ForeignKey: "category_id"}).
		MustDefine("shapes", model.BelongsToMany{Target: shapes, Through: ShapeFormsTable, ForeignKey: "form_id", OtherKey: "shape_id"}).
		MustDefine("filled_forms", model.HasMany{Target: c.FilledForms, ForeignKey: "form_id"})

	shapes.
		MustDefine("institution", model.BelongsTo{Target: c.Institutions, ForeignKey: "institution_id"}).
		MustDefine("category", model.BelongsTo{Target: c.Categories, ForeignKey: "category_id"}).
		MustDefine("forms", model.BelongsToMany{Target: c.Forms, Through: ShapeFormsTable, ForeignKey: "shape_id", OtherKey: "form_id"}).
		MustDefine("filled_forms", model.HasMany{Target: c.FilledForms, ForeignKey: "shape_id"})

	c.FilledForms.
		MustDefine("form", model.BelongsTo{Target: c.Forms, ForeignKey: "form_id"}).
		MustDefine("shape", model.BelongsTo{Target: shapes, ForeignKey: "shape_id"}).
		MustDefine("user", model.BelongsTo{Target: c.Users, ForeignKey: "user_id"})

	c.AuditLogs.
		MustDefine("user", model.BelongsTo{Target: c.Users, ForeignKey: "user_id"})

	return c
}

// Register adds every model to r.
func (c *Catalog) Register(r *registry.Registry) error {
	if err := r.RegisterGeo(c.Shapes); err != nil {
		return err
	}
	for _, m := range []*model.Model{
		c.Institutions, c.Municipalities, c.Parishes, c.Users,
		c.Categories, c.Forms, c.FilledForms, c.AuditLogs,
	} {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}
