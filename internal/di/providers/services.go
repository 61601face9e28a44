package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/bookid-server/internal/logger"
	"github.com/listenupapp/bookid-server/internal/service"
	"github.com/listenupapp/bookid-server/internal/validation"
)

// ProvideServiceDeps provides the collaborators shared by all services.
func ProvideServiceDeps(i do.Injector) (service.Deps, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.Deps{
		Store:  storeHandle.Store,
		Index:  indexHandle.SearchIndex,
		Events: sseHandle.Manager,
		Logger: log.Logger,
	}, nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	deps := do.MustInvoke[service.Deps](i)
	v := do.MustInvoke[*validation.Validator](i)
	return service.NewCatalogService(deps, v), nil
}

// ProvideEditionService provides the edition service.
func ProvideEditionService(i do.Injector) (*service.EditionService, error) {
	deps := do.MustInvoke[service.Deps](i)
	v := do.MustInvoke[*validation.Validator](i)
	return service.NewEditionService(deps, v), nil
}

// ProvideGroupService provides the group service.
func ProvideGroupService(i do.Injector) (*service.GroupService, error) {
	deps := do.MustInvoke[service.Deps](i)
	return service.NewGroupService(deps), nil
}

// ProvidePreferenceService provides the edition preference service.
func ProvidePreferenceService(i do.Injector) (*service.PreferenceService, error) {
	deps := do.MustInvoke[service.Deps](i)
	return service.NewPreferenceService(deps), nil
}

// ProvideMergeService provides the merge service.
func ProvideMergeService(i do.Injector) (*service.MergeService, error) {
	deps := do.MustInvoke[service.Deps](i)
	v := do.MustInvoke[*validation.Validator](i)
	return service.NewMergeService(deps, v), nil
}

// ProvideReportService provides the duplicate report service.
func ProvideReportService(i do.Injector) (*service.ReportService, error) {
	deps := do.MustInvoke[service.Deps](i)
	v := do.MustInvoke[*validation.Validator](i)
	limiter := do.MustInvoke[*ReportLimiterHandle](i)
	merges := do.MustInvoke[*service.MergeService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	return service.NewReportService(deps, v, limiter.KeyedRateLimiter, merges, indexHandle.SearchIndex), nil
}
