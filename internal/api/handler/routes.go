package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vfg2006/traffic-advisor-api/infrastructure/database"
	"github.com/vfg2006/traffic-advisor-api/internal/api/handler/router"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/account"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/authenticating"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/recommending"
	"github.com/vfg2006/traffic-advisor-api/internal/usecases/signaling"
	"github.com/vfg2006/traffic-advisor-api/pkg/middleware"
)

type middlewares = []func(http.Handler) http.Handler

func Healthcheck(conn database.Conn) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(conn),
		},
	}
}

func Metrics(gatherer prometheus.Gatherer) []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		},
	}
}

func Authentication(service authenticating.Authenticator) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/login",
			Method:  http.MethodPost,
			Handler: Login(service),
		},
	}
}

func Accounts(service account.AccountService) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/accounts",
			Method:      http.MethodGet,
			Handler:     ListAccounts(service),
			Middlewares: middlewares{middleware.AllRoles()},
		},
		{
			Path:        "/v1/accounts/:id/status",
			Method:      http.MethodPatch,
			Handler:     UpdateAccountStatus(service),
			Middlewares: middlewares{middleware.AdminOnly()},
		},
	}
}

func Recommendations(service recommending.Recommender) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/accounts/:id/recommendations",
			Method:      http.MethodGet,
			Handler:     GetRecommendations(service),
			Middlewares: middlewares{middleware.AllRoles()},
		},
		{
			Path:        "/v1/accounts/:id/pretargeting-plan",
			Method:      http.MethodGet,
			Handler:     GetPretargetingPlan(service),
			Middlewares: middlewares{middleware.AllRoles()},
		},
	}
}

func Signals(service signaling.Manager) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/accounts/:id/signals",
			Method:      http.MethodGet,
			Handler:     ListSignals(service),
			Middlewares: middlewares{middleware.AllRoles()},
		},
		{
			Path:        "/v1/signals/:id/acknowledge",
			Method:      http.MethodPost,
			Handler:     AcknowledgeSignal(service),
			Middlewares: middlewares{middleware.CanResolve()},
		},
		{
			Path:        "/v1/signals/:id/resolve",
			Method:      http.MethodPost,
			Handler:     ResolveSignal(service),
			Middlewares: middlewares{middleware.CanResolve()},
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/cron/:type/run",
			Method:      http.MethodPost,
			Handler:     RunCronJob(services),
			Middlewares: middlewares{middleware.AdminOnly()},
		},
		{
			Path:        "/v1/cron/status",
			Method:      http.MethodGet,
			Handler:     GetCronStatus(services),
			Middlewares: middlewares{middleware.AdminOnly()},
		},
	}
}
