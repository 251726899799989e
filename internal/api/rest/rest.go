package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-token-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public reads
		v1.GET("/ledger", handler.GetLedgerInfo)
		v1.GET("/gates", handler.GetGates)
		v1.GET("/classes", handler.ListClasses)
		v1.GET("/classes/:id/uri", handler.GetClassURI)
		v1.GET("/holders/:holder/balances/:id", handler.GetBalance)

		// Mutating operations (authenticated; the ledger enforces
		// administrator checks on top of caller authentication)
		auth := v1.Group("", middleware.Auth(authCfg))
		{
			auth.POST("/classes", handler.CreateClass)
			auth.POST("/classes/:id/mint", handler.MintClass)
			auth.POST("/mint/batch", handler.BatchMint)
			auth.POST("/burn", handler.Burn)
			auth.POST("/burn/batch", handler.BatchBurn)
			auth.POST("/holders/:holder/burn", handler.BurnFrom)
			auth.POST("/holders/:holder/burn/batch", handler.BatchBurnFrom)
			auth.POST("/transfer", handler.Transfer)
			auth.POST("/transfer/batch", handler.BatchTransfer)
			auth.PUT("/gates/transfers", handler.SetTransfersGate)
			auth.PUT("/gates/market", handler.SetMarketGate)
			auth.PUT("/name", handler.SetName)
			auth.PUT("/administrator", handler.SetAdministrator)
		}
	}
}
