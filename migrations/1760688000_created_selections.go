package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("selections")

		// superusers only
		collection.ListRule = nil
		collection.ViewRule = nil

		collection.Fields.Add(
			&core.TextField{Name: "title", Required: true, Max: 500},
			&core.TextField{Name: "artist", Max: 500},
			&core.TextField{Name: "contributor_id", Max: 128},
			&core.DateField{Name: "submitted_at", Required: true},
			&core.DateField{Name: "selected_at", Required: true},
			&core.TextField{Name: "release_date", Max: 64},
			&core.TextField{Name: "artwork_ref", Max: 2048},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_selections_selected_at", false, "selected_at", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("selections")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
