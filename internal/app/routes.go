package app

import (
	"net/http"

	"github.com/veltacap/custodian/internal/handler"
	"github.com/veltacap/custodian/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mid := middleware.New(app.errorHandler, app.Logger, app.DB.Admin(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)
	authHandler := handler.NewAuthHandler(app.DB.Admin(), app.errorHandler, &app.Config)
	accountHandler := handler.NewAccountHandler(app.Engine, app.DB, app.errorHandler)
	flagHandler := handler.NewFlagHandler(app.Engine, app.DB.Flag(), app.errorHandler)
	banHandler := handler.NewBanHandler(app.Engine, app.DB.Ban(), app.errorHandler)
	systemHandler := handler.NewSystemHandler(app.Engine, app.DB.Controls(), app.errorHandler)
	approvalHandler := handler.NewApprovalHandler(app.Engine, app.DB, app.DocumentStore, app.errorHandler)
	auditHandler := handler.NewAuditHandler(app.DB.Audit(), app.errorHandler)
	withdrawalHandler := handler.NewWithdrawalHandler(app.DB.Withdrawal(), app.errorHandler)

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	// any authenticated admin
	authenticated := func(h http.HandlerFunc) http.Handler {
		return mid.RequireAuthenticatedAdmin(h)
	}

	mux.Handle("GET /accounts", authenticated(accountHandler.HandleAccountsList))
	mux.Handle("GET /accounts/{id}", authenticated(accountHandler.HandleAccountGet))
	mux.Handle("GET /accounts/{id}/restrictions", authenticated(accountHandler.HandleAccountRestrictionsList))
	mux.Handle("GET /accounts/{id}/wallets", authenticated(accountHandler.HandleAccountWalletsList))
	mux.Handle("GET /accounts/{id}/ledger", authenticated(accountHandler.HandleAccountLedgerList))
	mux.Handle("POST /accounts/{id}/bank-accounts", authenticated(accountHandler.HandleBankAccountCreate))
	mux.Handle("GET /accounts/{id}/flags", authenticated(flagHandler.HandleAccountFlagsList))

	mux.Handle("POST /flags", authenticated(flagHandler.HandleFlagCreate))
	mux.Handle("POST /flags/{id}/resolve", authenticated(flagHandler.HandleFlagResolve))

	mux.Handle("GET /withdrawals", authenticated(withdrawalHandler.HandleWithdrawalsList))
	mux.Handle("GET /withdrawals/{id}", authenticated(withdrawalHandler.HandleWithdrawalGet))

	mux.Handle("POST /approvals/wallet-changes", authenticated(approvalHandler.HandleWalletChangeCreate))
	mux.Handle("POST /approvals/account-creations", authenticated(approvalHandler.HandleAccountCreationCreate))
	mux.Handle("POST /approvals/withdrawal-overrides", authenticated(approvalHandler.HandleWithdrawalOverrideCreate))
	mux.Handle("POST /approvals/document-requests", authenticated(approvalHandler.HandleDocumentRequestCreate))
	mux.Handle("POST /document-requests/{id}/submit", authenticated(approvalHandler.HandleDocumentSubmit))
	mux.Handle("GET /approvals/{kind}", authenticated(approvalHandler.HandleRequestsList))

	mux.Handle("GET /audit-logs", authenticated(auditHandler.HandleAuditLogsList))
	mux.Handle("GET /system/controls", authenticated(systemHandler.HandleControlsGet))

	// governor-only surfaces
	governor := func(h http.HandlerFunc) http.Handler {
		return mid.RequireAuthenticatedAdmin(mid.RequireGovernor(h))
	}

	mux.Handle("POST /admins", governor(authHandler.HandleAdminCreate))

	mux.Handle("POST /bans", governor(banHandler.HandleBanCreate))
	mux.Handle("GET /accounts/{id}/ban", governor(banHandler.HandleBanGet))
	mux.Handle("DELETE /accounts/{id}/ban", governor(banHandler.HandleBanRemove))

	mux.Handle("PUT /accounts/{id}/restrictions", governor(accountHandler.HandleManualRestrictionSet))

	mux.Handle("POST /approvals/{kind}/{id}/approve", governor(approvalHandler.HandleApprove))
	mux.Handle("POST /approvals/{kind}/{id}/reject", governor(approvalHandler.HandleReject))

	mux.Handle("POST /system/shutdown", governor(systemHandler.HandleEmergencyShutdown))
	mux.Handle("POST /system/restore", governor(systemHandler.HandleRestoreAll))
	mux.Handle("PUT /system/capabilities/{key}", governor(systemHandler.HandleCapabilityToggle))
	mux.Handle("PUT /system/restriction-level", governor(systemHandler.HandleRestrictionLevelSet))
	mux.Handle("PUT /system/maintenance", governor(systemHandler.HandleMaintenanceModeSet))

	return mid.LogAccess(mid.RecoverPanic(mid.Authenticate(mux)))
}
