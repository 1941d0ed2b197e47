package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vietanh2810/kids-ledger-api/docs"
	v1 "github.com/vietanh2810/kids-ledger-api/internal/api/handler/v1"
	"github.com/vietanh2810/kids-ledger-api/internal/api/middleware"
	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
	"github.com/vietanh2810/kids-ledger-api/internal/metrics"
	"github.com/vietanh2810/kids-ledger-api/internal/pkg/cardsheet"
	"github.com/vietanh2810/kids-ledger-api/internal/pkg/identity"
	"github.com/vietanh2810/kids-ledger-api/internal/repository"
	"github.com/vietanh2810/kids-ledger-api/internal/repository/dao"
	"github.com/vietanh2810/kids-ledger-api/internal/service"
)

const basePath = "/api"

type Server struct {
	Config  *config.AppConfig
	Router  *gin.Engine
	metrics *metrics.Metrics
}

// Handlers is everything MountHandlers routes to.
type Handlers struct {
	Auth   *middleware.Authenticator
	User   *v1.UserHandler
	Child  *v1.ChildHandler
	Ledger *v1.LedgerHandler
	QRCode *v1.QRCodeHandler
	Report *v1.ReportHandler
}

// NewServer wires the storage, service and handler layers. m may be nil when
// metrics are disabled.
func NewServer(conf *config.AppConfig, db *gorm.DB, publisher service.EventPublisher, m *metrics.Metrics) (*Server, error) {
	h, err := initHandlers(conf, db, publisher, m)
	if err != nil {
		return nil, err
	}

	return NewServerWithHandlers(conf, h, m), nil
}

func NewServerWithHandlers(conf *config.AppConfig, h Handlers, m *metrics.Metrics) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:  conf,
		Router:  engine,
		metrics: m,
	}

	s.MountMiddlewares()
	s.MountHandlers(h)

	return s
}

func initHandlers(conf *config.AppConfig, db *gorm.DB, publisher service.EventPublisher, m *metrics.Metrics) (Handlers, error) {
	rules, err := service.LedgerRulesFromConfig(conf.Ledger)
	if err != nil {
		return Handlers{}, fmt.Errorf("service.LedgerRulesFromConfig -> %w", err)
	}
	verifier, err := identity.NewVerifier(conf.Identity)
	if err != nil {
		return Handlers{}, fmt.Errorf("identity.NewVerifier -> %w", err)
	}

	var (
		ledgerRecorder service.LedgerRecorder
		qrRecorder     service.QRCodeRecorder
	)
	if m != nil {
		ledgerRecorder, qrRecorder = m, m
	}

	tx := repository.NewTransactor(dao.NewTransactor(db))
	users := repository.NewUserRepository(dao.NewUserDAO(db))
	children := repository.NewChildRepository(dao.NewChildDAO(db))
	ledger := repository.NewLedgerRepository(dao.NewLedgerDAO(db))
	tokens := repository.NewTokenRepository(dao.NewTokenDAO(db))
	audit := repository.NewAuditRepository(dao.NewAuditDAO(db))
	qrCodes := repository.NewQRCodeRepository(dao.NewQRCodeDAO(db))
	reports := repository.NewReportRepository(dao.NewReportDAO(db))

	paging := service.PagingFromConfig(conf.Report)
	authSvc := service.NewAuthService(users)
	userSvc := service.NewUserService(users, tx, audit, identity.ClaimUpdaterFromConfig(conf.Identity), paging)
	childSvc := service.NewChildService(children, ledger, qrCodes, paging)
	ledgerSvc := service.NewLedgerService(rules, tx, children, ledger, tokens, users, qrCodes, audit, publisher, ledgerRecorder)
	qrSvc := service.NewQRCodeService(service.QRRulesFromConfig(conf.QR), tx, qrCodes, children, audit,
		cardsheet.NewRenderer(conf.QR.CardTitle), qrRecorder, paging)
	reportSvc := service.NewReportService(reports, ledger, tokens, audit, paging)

	return Handlers{
		Auth:   middleware.NewAuthenticator(verifier, authSvc),
		User:   v1.NewUserHandler(authSvc, userSvc),
		Child:  v1.NewChildHandler(childSvc),
		Ledger: v1.NewLedgerHandler(ledgerSvc, rules.Location),
		QRCode: v1.NewQRCodeHandler(qrSvc, conf.QR.MaxBatch),
		Report: v1.NewReportHandler(reportSvc, rules.Location),
	}, nil
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
	if s.metrics != nil {
		s.Router.Use(s.metrics.Middleware())
	}
}

func (s *Server) MountHandlers(h Handlers) {
	var (
		staff   = middleware.RequireRole(domain.StaffRoles...)
		admin   = middleware.RequireRole(domain.RoleAdmin)
		parents = middleware.RequireRole(domain.RoleParent)
	)

	api := s.Router.Group(basePath, h.Auth.VerifyBearer())
	{
		api.POST("/register", h.User.HandleRegister)
		api.GET("/me", h.User.HandleGetMe)
		api.PUT("/me", h.User.HandleUpdateMe)

		api.POST("/child-create", middleware.RequireRole(domain.RoleParent, domain.RoleVolunteer, domain.RoleAdmin), h.Ledger.HandleCreateChild)
		api.GET("/children", parents, h.Child.HandleListOwn)
		api.GET("/children/:childId", h.Child.HandleGetChild)
		api.GET("/children/:childId/transactions", h.Child.HandleChildTransactions)

		api.POST("/checkin/:childId", staff, h.Ledger.HandleCheckin)
		api.POST("/withdraw", staff, h.Ledger.HandleWithdraw)
		api.POST("/deposit", staff, h.Ledger.HandleDeposit)
		api.POST("/vendor-return", staff, h.Ledger.HandleVendorReturn)
		api.POST("/token-deposit", staff, h.Ledger.HandleTokenDeposit)
		api.GET("/qr/:code", staff, h.Child.HandleLookupCode)
	}

	qr := s.Router.Group(basePath+"/admin", h.Auth.VerifyBearer(), staff)
	{
		qr.POST("/create-qr-codes", h.QRCode.HandleGenerate)
		qr.GET("/qr-codes", h.QRCode.HandleListCodes)
		qr.POST("/qr-codes/print", h.QRCode.HandlePrint)
		qr.POST("/qr-codes/:code/assign", h.QRCode.HandleAssign)
		qr.DELETE("/qr-codes/:code/assign", h.QRCode.HandleUnassign)
	}
	s.Router.POST("/print", h.Auth.VerifyBearer(), staff, h.QRCode.HandlePrint)

	reports := s.Router.Group(basePath+"/admin", h.Auth.VerifyBearer(), admin)
	{
		reports.GET("/children", h.Report.HandleChildren)
		reports.GET("/children/export", h.Report.HandleExportChildren)
		reports.GET("/checkins", h.Report.HandleCheckins)
		reports.GET("/checkins/export", h.Report.HandleExportCheckins)
		reports.GET("/transactions", h.Report.HandleTransactions)
		reports.GET("/vendor-returns", h.Report.HandleVendorReturns)
		reports.GET("/token-deposits", h.Report.HandleTokenDeposits)
		reports.GET("/audit-logs", h.Report.HandleAuditLogs)
		reports.GET("/summary", h.Report.HandleSummary)
		reports.GET("/users", h.User.HandleListUsers)
		reports.PUT("/users/:userId/role", h.User.HandleChangeRole)
	}

	s.Router.GET("/", v1.HandleHealthcheck)
	if s.metrics != nil {
		s.Router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Kids Ledger API"
	docs.SwaggerInfo.Description = "Back office for family accounts, child check-ins, token balances and QR cards."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
