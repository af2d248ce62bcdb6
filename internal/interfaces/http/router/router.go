package router

import (
	"net/http"

	"github.com/datapadi/web/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registrar under /api/{version}
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup is a prefix with its own middleware, routes and subgroups
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group. Nil entries are skipped so optional
// guards can be passed unconditionally.
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	for _, m := range middleware {
		if m != nil {
			dg.middleware = append(dg.middleware, m)
		}
	}
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PATCH registers a PATCH route
func (dg *DomainGroup) PATCH(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPatch, path, handlers)
}

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, handlers)
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers bundles the handlers served under the API prefix
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Account   *handler.AccountHandler
	VTU       *handler.VTUHandler
	Bills     *handler.BillsHandler
	Vouchers  *handler.VoucherHandler
	PrintJobs *handler.PrintJobHandler
	Flows     *handler.FlowHandler
}

// Guards are the middleware placed in front of route groups
type Guards struct {
	// Session resolves the caller; every group except auth and health requires it
	Session gin.HandlerFunc
	// Credentials throttles sign-in and sign-up attempts
	Credentials gin.HandlerFunc
}

// APIGroups builds the route groups of the web API
func APIGroups(h Handlers, g Guards) []RouteRegistrar {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.Health.Check)

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/login", withGuard(g.Credentials, h.Auth.Login)...)
	auth.POST("/register", withGuard(g.Credentials, h.Auth.Register)...)
	auth.POST("/logout", h.Auth.Logout)

	account := NewDomainGroup("account", "/account").Use(g.Session)
	account.GET("/dashboard", h.Account.Dashboard).
		GET("/profile", h.Account.Profile).
		GET("/transactions", h.Account.Transactions).
		POST("/fund", h.Account.Fund).
		POST("/kyc", h.Account.SubmitKYC)

	vtu := NewDomainGroup("vtu", "/vtu").Use(g.Session)
	data := vtu.Group("data", "/data")
	data.GET("/plans", h.VTU.DataPlans).
		POST("", h.VTU.BuyData).
		GET("/:ref", h.VTU.DataStatus)
	airtime := vtu.Group("airtime", "/airtime")
	airtime.POST("", h.VTU.BuyAirtime).
		GET("/:ref", h.VTU.AirtimeStatus)

	bills := NewDomainGroup("bills", "/bills").Use(g.Session)
	bills.Group("cable", "/cable").
		GET("/packages", h.Bills.CablePackages).
		GET("/verify", h.Bills.VerifySmartCard).
		POST("/pay", h.Bills.PayCable)
	bills.Group("electricity", "/electricity").
		GET("/discos", h.Bills.Discos).
		GET("/verify", h.Bills.VerifyMeter).
		POST("/pay", h.Bills.PayElectricity)

	vouchers := NewDomainGroup("vouchers", "/vouchers").Use(g.Session)
	vouchers.GET("/inventory", h.Vouchers.Inventory).
		POST("/generate", h.Vouchers.Generate).
		GET("/orders/:ref", h.Vouchers.OrderDetail).
		POST("/preview", h.Vouchers.Preview).
		POST("/export", h.Vouchers.ExportPDF).
		GET("/export/status", h.Vouchers.ExportStatus).
		POST("/workbook", h.Vouchers.ExportWorkbook)

	printJobs := NewDomainGroup("print-jobs", "/print-jobs").Use(g.Session)
	printJobs.GET("", h.PrintJobs.ListJobs).
		GET("/:id", h.PrintJobs.GetJob).
		GET("/:id/download", h.PrintJobs.Download).
		GET("/:id/pages/:page", h.PrintJobs.PagePreview)

	flows := NewDomainGroup("flows", "/flows").Use(g.Session)
	flows.POST("", h.Flows.Create).
		GET("/providers/:kind", h.Flows.Providers).
		GET("/:id", h.Flows.Get).
		DELETE("/:id", h.Flows.Delete).
		POST("/:id/provider", h.Flows.SelectProvider).
		PATCH("/:id/details", h.Flows.UpdateDetails).
		POST("/:id/next", h.Flows.Next).
		POST("/:id/back", h.Flows.Back).
		POST("/:id/pay", h.Flows.Pay)

	return []RouteRegistrar{system, auth, account, vtu, bills, vouchers, printJobs, flows}
}

func withGuard(guard, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}
