package api

import (
	"github.com/listenupapp/bookid-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Catalog     *service.CatalogService
	Editions    *service.EditionService
	Groups      *service.GroupService
	Preferences *service.PreferenceService
	Merges      *service.MergeService
	Reports     *service.ReportService // Duplicate reports and candidate search
}
